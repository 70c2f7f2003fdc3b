package login

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"mediadash/internal/config"
	"mediadash/internal/logger"
	"mediadash/internal/platform/engine"
)

var ErrLoginTimeout = errors.New("login timed out, retry the handshake")

// profile describes one platform's login surface: where to go, what to
// click, and what a logged-in session looks like.
type profile struct {
	entryURL        string
	triggers        []string
	successURL      string
	successSelector string
}

var profiles = map[engine.Platform]profile{
	engine.PlatformXHS: {
		entryURL:        "https://www.xiaohongshu.com",
		triggers:        []string{"text=登录", ".login-btn"},
		successURL:      "**/explore**",
		successSelector: ".avatar",
	},
	engine.PlatformDouyin: {
		entryURL:        "https://www.douyin.com",
		triggers:        []string{"text=登录", ".login-button"},
		successURL:      "**/follow**",
		successSelector: ".avatar--fVkEq",
	},
	engine.PlatformKuaishou: {
		entryURL:        "https://www.kuaishou.com",
		triggers:        []string{"text=登录", ".login"},
		successURL:      "**/profile**",
		successSelector: ".user-avatar",
	},
	engine.PlatformBilibili: {
		entryURL:        "https://www.bilibili.com",
		triggers:        []string{".header-login-entry", "text=登录"},
		successURL:      "**/account**",
		successSelector: ".header-avatar-wrap",
	},
	engine.PlatformWeibo: {
		entryURL:        "https://weibo.com",
		triggers:        []string{"text=登录", ".LoginBtn_btn"},
		successURL:      "**/mygroups**",
		successSelector: ".woo-avatar-main",
	},
	engine.PlatformTieba: {
		entryURL:        "https://tieba.baidu.com",
		triggers:        []string{"text=登录", ".u_login"},
		successURL:      "**/home/main**",
		successSelector: ".u_username",
	},
	engine.PlatformZhihu: {
		entryURL:        "https://www.zhihu.com",
		triggers:        []string{"text=登录", ".SignFlow-submitButton"},
		successURL:      "**/follow**",
		successSelector: ".AppHeader-profileAvatar",
	},
}

// browserSession is the page-level surface the handshake protocol needs.
// The production implementation sits on playwright; tests use stubs.
type browserSession interface {
	Navigate(url string) error
	Click(selector string, timeoutMs float64) error
	Screenshot(path string) error
	WaitForURL(urlGlob string, timeoutMs float64) error
	WaitForSelector(selector string, timeoutMs float64) error
	Cookies() ([]Cookie, error)
	Close() error
}

// Monitor drives one interactive QR login to completion and persists the
// resulting session.
type Monitor struct {
	log      *logger.Logger
	sessions *SessionStore
	qrDir    string
	wait     time.Duration
	settle   time.Duration
	grace    time.Duration
	launch   func() (browserSession, error)
}

func NewMonitor(cfg config.Config, sessions *SessionStore) *Monitor {
	wait := time.Duration(cfg.LoginWaitSeconds) * time.Second
	if wait <= 0 {
		wait = 120 * time.Second
	}
	return &Monitor{
		log:      logger.New("LoginMonitor"),
		sessions: sessions,
		qrDir:    cfg.QRDir,
		wait:     wait,
		settle:   2 * time.Second,
		grace:    3 * time.Second,
		launch:   launchPlaywright,
	}
}

// Run executes the full handshake for one platform. On success the
// platform's session is overwritten wholesale; on timeout or failure any
// prior session is left untouched. The browser is released on every exit
// path.
func (m *Monitor) Run(ctx context.Context, platform engine.Platform, sessionID string) error {
	prof, ok := profiles[platform]
	if !ok {
		return fmt.Errorf("no login profile for platform %q", platform)
	}

	b, err := m.launch()
	if err != nil {
		return fmt.Errorf("launch browser: %w", err)
	}
	defer b.Close()

	m.log.LogInfof("opening %s login page", platform)
	if err := b.Navigate(prof.entryURL); err != nil {
		return fmt.Errorf("navigate to %s: %w", prof.entryURL, err)
	}
	m.pause(ctx, m.settle)

	// Primary trigger first, then fallbacks. Trigger failure is never
	// fatal: the operator can still click the login button by hand while
	// the bounded wait runs.
	triggered := false
	for _, sel := range prof.triggers {
		if err := b.Click(sel, 5000); err == nil {
			triggered = true
			break
		}
	}
	if !triggered {
		m.log.LogWarnf("login trigger not found for %s, click it manually in the browser window", platform)
	}
	m.pause(ctx, m.settle)

	qrPath := filepath.Join(m.qrDir, qrFileName(platform, sessionID))
	if err := b.Screenshot(qrPath); err != nil {
		m.log.LogWarnf("could not capture QR artifact: %v", err)
	} else {
		m.log.LogInfof("QR code ready, scan it with your phone: %s", qrPath)
	}

	if err := m.awaitSuccess(ctx, b, prof); err != nil {
		return err
	}

	cookies, err := b.Cookies()
	if err != nil {
		return fmt.Errorf("extract cookies: %w", err)
	}
	if err := m.sessions.Save(platform, cookies); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	m.log.LogInfof("login successful, saved %d cookies for %s", len(cookies), platform)

	// Grace delay before the deferred close so in-flight browser writes
	// are not truncated.
	m.pause(ctx, m.grace)
	return nil
}

// awaitSuccess waits for the first of the two success signals: a
// navigation to the post-login URL pattern or the appearance of the
// post-login element. Both waits share one ceiling.
func (m *Monitor) awaitSuccess(ctx context.Context, b browserSession, prof profile) error {
	ms := float64(m.wait.Milliseconds())
	success := make(chan struct{}, 2)

	go func() {
		if err := b.WaitForURL(prof.successURL, ms); err == nil {
			success <- struct{}{}
		}
	}()
	go func() {
		if err := b.WaitForSelector(prof.successSelector, ms); err == nil {
			success <- struct{}{}
		}
	}()

	select {
	case <-success:
		return nil
	case <-time.After(m.wait):
		return ErrLoginTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Monitor) pause(ctx context.Context, d time.Duration) {
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

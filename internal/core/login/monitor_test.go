package login

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediadash/internal/logger"
	"mediadash/internal/platform/engine"
)

// stubBrowser scripts the page-level calls the handshake makes. Waits
// block until released or the given timeout elapses.
type stubBrowser struct {
	mu          sync.Mutex
	navigated   []string
	clicked     []string
	screenshots []string
	closed      bool

	clickErr    map[string]error
	urlReached  chan struct{}
	selReached  chan struct{}
	cookies     []Cookie
	cookiesErr  error
	navigateErr error
}

func newStubBrowser() *stubBrowser {
	return &stubBrowser{
		clickErr:   map[string]error{},
		urlReached: make(chan struct{}),
		selReached: make(chan struct{}),
	}
}

func (b *stubBrowser) Navigate(url string) error {
	b.mu.Lock()
	b.navigated = append(b.navigated, url)
	b.mu.Unlock()
	return b.navigateErr
}

func (b *stubBrowser) Click(selector string, _ float64) error {
	b.mu.Lock()
	b.clicked = append(b.clicked, selector)
	b.mu.Unlock()
	if err, ok := b.clickErr[selector]; ok {
		return err
	}
	return nil
}

func (b *stubBrowser) Screenshot(path string) error {
	b.mu.Lock()
	b.screenshots = append(b.screenshots, path)
	b.mu.Unlock()
	return os.WriteFile(path, []byte("png"), 0o644)
}

func (b *stubBrowser) waitOn(ch chan struct{}, timeoutMs float64) error {
	select {
	case <-ch:
		return nil
	case <-time.After(time.Duration(timeoutMs) * time.Millisecond):
		return errors.New("wait timed out")
	}
}

func (b *stubBrowser) WaitForURL(_ string, timeoutMs float64) error {
	return b.waitOn(b.urlReached, timeoutMs)
}

func (b *stubBrowser) WaitForSelector(_ string, timeoutMs float64) error {
	return b.waitOn(b.selReached, timeoutMs)
}

func (b *stubBrowser) Cookies() ([]Cookie, error) { return b.cookies, b.cookiesErr }

func (b *stubBrowser) Close() error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	return nil
}

func newTestMonitor(t *testing.T, b *stubBrowser) (*Monitor, *SessionStore) {
	t.Helper()
	dir := t.TempDir()
	sessions := NewSessionStore(filepath.Join(dir, "cookies"))
	m := &Monitor{
		log:      logger.New("LoginMonitor"),
		sessions: sessions,
		qrDir:    dir,
		wait:     80 * time.Millisecond,
		settle:   time.Millisecond,
		grace:    time.Millisecond,
		launch:   func() (browserSession, error) { return b, nil },
	}
	return m, sessions
}

func TestRun_SuccessViaURL(t *testing.T) {
	b := newStubBrowser()
	b.cookies = []Cookie{{Name: "web_session", Value: "abc", Domain: ".xiaohongshu.com"}}
	close(b.urlReached)

	m, sessions := newTestMonitor(t, b)
	err := m.Run(context.Background(), engine.PlatformXHS, "sess-1")
	require.NoError(t, err)

	got, err := sessions.Load(engine.PlatformXHS)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "web_session", got[0].Name)
	assert.True(t, b.closed)
}

func TestRun_SuccessViaSelector(t *testing.T) {
	// Some platforms log in without changing the URL; the post-login
	// element alone must be enough.
	b := newStubBrowser()
	b.cookies = []Cookie{{Name: "sid", Value: "x"}}
	close(b.selReached)

	m, sessions := newTestMonitor(t, b)
	require.NoError(t, m.Run(context.Background(), engine.PlatformDouyin, "sess-2"))

	_, err := sessions.Load(engine.PlatformDouyin)
	assert.NoError(t, err)
}

func TestRun_TimeoutLeavesPriorSessionIntact(t *testing.T) {
	b := newStubBrowser() // neither success signal ever fires
	m, sessions := newTestMonitor(t, b)

	prior := []Cookie{{Name: "old", Value: "keep-me", Domain: ".xiaohongshu.com"}}
	require.NoError(t, sessions.Save(engine.PlatformXHS, prior))
	before, err := os.ReadFile(sessions.Path(engine.PlatformXHS))
	require.NoError(t, err)

	err = m.Run(context.Background(), engine.PlatformXHS, "sess-3")
	assert.ErrorIs(t, err, ErrLoginTimeout)

	after, err := os.ReadFile(sessions.Path(engine.PlatformXHS))
	require.NoError(t, err)
	assert.Equal(t, before, after, "a failed handshake must not touch the saved session")
	assert.True(t, b.closed)
}

func TestRun_TriggerFallbackChain(t *testing.T) {
	// The primary trigger fails, the fallback selector works.
	b := newStubBrowser()
	b.clickErr["text=登录"] = errors.New("not visible")
	close(b.urlReached)

	m, _ := newTestMonitor(t, b)
	require.NoError(t, m.Run(context.Background(), engine.PlatformXHS, "sess-4"))
	assert.Equal(t, []string{"text=登录", ".login-btn"}, b.clicked)
}

func TestRun_AllTriggersFailIsNotFatal(t *testing.T) {
	// Missing triggers only warn: the operator can click manually while
	// the bounded wait runs.
	b := newStubBrowser()
	b.clickErr["text=登录"] = errors.New("not visible")
	b.clickErr[".login-btn"] = errors.New("not visible")
	close(b.selReached)

	m, _ := newTestMonitor(t, b)
	assert.NoError(t, m.Run(context.Background(), engine.PlatformXHS, "sess-5"))
}

func TestRun_WritesTaggedQRArtifact(t *testing.T) {
	b := newStubBrowser()
	close(b.urlReached)

	m, _ := newTestMonitor(t, b)
	require.NoError(t, m.Run(context.Background(), engine.PlatformXHS, "sess-6"))

	art, ok := FindQR(m.qrDir, "sess-6")
	require.True(t, ok)
	assert.Equal(t, "qr_xhs_sess-6.png", art.File)
}

func TestRun_BrowserClosedOnNavigateError(t *testing.T) {
	b := newStubBrowser()
	b.navigateErr = errors.New("dns failure")

	m, _ := newTestMonitor(t, b)
	err := m.Run(context.Background(), engine.PlatformXHS, "sess-7")
	require.Error(t, err)
	assert.True(t, b.closed, "the browser must be released on every exit path")
}

func TestRun_UnknownPlatformProfile(t *testing.T) {
	m, _ := newTestMonitor(t, newStubBrowser())
	err := m.Run(context.Background(), engine.Platform("myspace"), "sess-8")
	assert.Error(t, err)
}

func TestRun_ContextCancelDuringWait(t *testing.T) {
	b := newStubBrowser()
	m, _ := newTestMonitor(t, b)
	m.wait = 5 * time.Second

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := m.Run(ctx, engine.PlatformXHS, "sess-9")
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, b.closed)
}

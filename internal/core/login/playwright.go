package login

import (
	"fmt"

	"github.com/playwright-community/playwright-go"
)

// Fixed identity for the interactive login session. The handshake must
// look like a regular desktop browser, and headless mode would hide the
// QR code from the operator.
const loginUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

type pwSession struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	ctx     playwright.BrowserContext
	page    playwright.Page
}

func launchPlaywright() (browserSession, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("playwright initialization failed: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(false),
		Args:     []string{"--no-sandbox", "--disable-dev-shm-usage"},
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("browser launch failed: %w", err)
	}

	ctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport:  &playwright.Size{Width: 1920, Height: 1080},
		UserAgent: playwright.String(loginUserAgent),
	})
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("browser context creation failed: %w", err)
	}

	page, err := ctx.NewPage()
	if err != nil {
		ctx.Close()
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("page creation failed: %w", err)
	}

	return &pwSession{pw: pw, browser: browser, ctx: ctx, page: page}, nil
}

func (s *pwSession) Navigate(url string) error {
	_, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	return err
}

func (s *pwSession) Click(selector string, timeoutMs float64) error {
	return s.page.Locator(selector).Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(timeoutMs),
	})
}

func (s *pwSession) Screenshot(path string) error {
	_, err := s.page.Screenshot(playwright.PageScreenshotOptions{
		Path: playwright.String(path),
	})
	return err
}

func (s *pwSession) WaitForURL(urlGlob string, timeoutMs float64) error {
	return s.page.WaitForURL(urlGlob, playwright.PageWaitForURLOptions{
		Timeout: playwright.Float(timeoutMs),
	})
}

func (s *pwSession) WaitForSelector(selector string, timeoutMs float64) error {
	return s.page.Locator(selector).WaitFor(playwright.LocatorWaitForOptions{
		Timeout: playwright.Float(timeoutMs),
	})
}

func (s *pwSession) Cookies() ([]Cookie, error) {
	raw, err := s.ctx.Cookies()
	if err != nil {
		return nil, err
	}
	cookies := make([]Cookie, 0, len(raw))
	for _, c := range raw {
		cookie := Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			HttpOnly: c.HttpOnly,
			Secure:   c.Secure,
		}
		if c.SameSite != nil {
			cookie.SameSite = string(*c.SameSite)
		}
		cookies = append(cookies, cookie)
	}
	return cookies, nil
}

func (s *pwSession) Close() error {
	if s.ctx != nil {
		s.ctx.Close()
	}
	if s.browser != nil {
		s.browser.Close()
	}
	if s.pw != nil {
		return s.pw.Stop()
	}
	return nil
}

package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/memdex/merchpipe/internal/config"
	"github.com/memdex/merchpipe/internal/types"
)

// Session drives a single headless browser page via Rod. All
// navigation and extraction for a crawl run goes through one Session;
// operations are strictly sequenced, never concurrent.
type Session struct {
	browser *rod.Browser
	page    *rod.Page
	cfg     *config.BrowserConfig
	logger  *slog.Logger
}

// NewSession launches a browser and opens the page used for the whole
// run. A failure here is the only unrecoverable error of a crawl.
func NewSession(cfg *config.Config, logger *slog.Logger) (*Session, error) {
	l := launcher.New().
		Headless(cfg.Browser.Headless).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-setuid-sandbox").
		Set("disable-blink-features", "AutomationControlled")

	launchURL, err := l.Launch()
	if err != nil {
		return nil, &types.StartupError{Err: fmt.Errorf("launch browser: %w", err)}
	}

	browser := rod.New().ControlURL(launchURL)
	if err := browser.Connect(); err != nil {
		return nil, &types.StartupError{Err: fmt.Errorf("connect browser: %w", err)}
	}

	var page *rod.Page
	if cfg.Browser.Stealth {
		page, err = stealth.Page(browser)
	} else {
		page, err = browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	}
	if err != nil {
		_ = browser.Close()
		return nil, &types.StartupError{Err: fmt.Errorf("open page: %w", err)}
	}

	if ua := cfg.Browser.UserAgent; ua != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: ua}); err != nil {
			logger.Warn("failed to set user agent", "error", err)
		}
	}
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             cfg.Browser.ViewportWidth,
		Height:            cfg.Browser.ViewportHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		logger.Warn("failed to set viewport", "error", err)
	}

	s := &Session{
		browser: browser,
		page:    page,
		cfg:     &cfg.Browser,
		logger:  logger.With("component", "browser_session"),
	}

	s.logger.Info("browser session ready",
		"headless", cfg.Browser.Headless,
		"stealth", cfg.Browser.Stealth,
	)
	return s, nil
}

// Navigate loads a URL, bounded by the configured navigation timeout.
func (s *Session) Navigate(url string) error {
	err := s.page.Timeout(s.cfg.NavigationTimeout).Navigate(url)
	if err != nil {
		return &types.NavigationError{
			URL:     url,
			Err:     err,
			Timeout: errors.Is(err, context.DeadlineExceeded),
		}
	}
	// Let the initial document settle; a timeout here is not fatal,
	// extraction proceeds on whatever rendered.
	if err := s.page.Timeout(s.cfg.NavigationTimeout).WaitStable(300 * time.Millisecond); err != nil {
		s.logger.Warn("page stability timeout, continuing", "url", url, "error", err)
	}
	return nil
}

// AwaitReadiness tries each candidate selector in priority order with
// a bounded per-selector wait and reports the first that appears. When
// none do, it falls back to a bounded network-idle wait plus a fixed
// settle delay and reports no match — extraction proceeds regardless.
func (s *Session) AwaitReadiness(selectors []string, perSelector time.Duration) (string, bool) {
	for _, sel := range selectors {
		if _, err := s.page.Timeout(perSelector).Element(sel); err == nil {
			s.logger.Debug("content ready", "selector", sel)
			return sel, true
		}
	}

	s.logger.Debug("no readiness selector matched, waiting for network idle")
	wait := s.page.Timeout(s.cfg.IdleWait).WaitRequestIdle(time.Second, nil, nil, nil)
	wait()
	time.Sleep(s.cfg.SettleDelay)
	return "", false
}

// ExhaustLazyLoad scrolls to the bottom repeatedly until the document
// height stops growing (or the iteration cap is hit), forcing
// viewport-triggered lazy content to materialize, then returns to the
// top.
func (s *Session) ExhaustLazyLoad() {
	prevHeight := -1
	for i := 0; i < s.cfg.MaxScrolls; i++ {
		res, err := s.page.Eval(`() => document.body.scrollHeight`)
		if err != nil {
			s.logger.Warn("scroll height eval failed", "error", err)
			break
		}
		height := res.Value.Int()
		if height == prevHeight {
			break
		}
		prevHeight = height

		if _, err := s.page.Eval(`() => window.scrollTo(0, document.body.scrollHeight)`); err != nil {
			s.logger.Warn("scroll failed", "error", err)
			break
		}
		time.Sleep(s.cfg.ScrollSettle)
	}
	if _, err := s.page.Eval(`() => window.scrollTo(0, 0)`); err != nil {
		s.logger.Debug("scroll to top failed", "error", err)
	}
}

// HTML returns the current document markup.
func (s *Session) HTML() (string, error) {
	return s.page.HTML()
}

// Eval executes a JavaScript function in the page and returns its
// JSON-serializable result.
func (s *Session) Eval(js string) (gson.JSON, error) {
	res, err := s.page.Eval(js)
	if err != nil {
		return gson.New(nil), err
	}
	return res.Value, nil
}

// EvalInto executes a JavaScript function and unmarshals the result
// into out via a JSON round-trip.
func (s *Session) EvalInto(js string, out any) error {
	res, err := s.page.Eval(js)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(res.Value.Val())
	if err != nil {
		return fmt.Errorf("encode eval result: %w", err)
	}
	return json.Unmarshal(raw, out)
}

// BodyText returns the rendered text of the page body, empty on error.
func (s *Session) BodyText() string {
	res, err := s.page.Eval(`() => document.body.innerText`)
	if err != nil {
		s.logger.Debug("body text eval failed", "error", err)
		return ""
	}
	return res.Value.Str()
}

// Screenshot captures a full-page diagnostic screenshot. Best effort:
// a capture failure is logged and never aborts the caller.
func (s *Session) Screenshot(path string) {
	data, err := s.page.Screenshot(true, nil)
	if err != nil {
		s.logger.Debug("screenshot failed", "path", path, "error", err)
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		s.logger.Debug("screenshot write failed", "path", path, "error", err)
	}
}

// Close shuts down the page and browser.
func (s *Session) Close() error {
	if s.page != nil {
		_ = s.page.Close()
	}
	if s.browser != nil {
		return s.browser.Close()
	}
	return nil
}

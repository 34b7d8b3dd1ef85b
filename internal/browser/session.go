// Package browser owns one headless Chrome process for the duration of a
// single resolution attempt: launch with anti-detection setup, cookie
// injection, navigation with lazy-load nudging, and a snapshot of DOM
// media state, network traffic, and page markup. The process is
// terminated on every exit path; Close is idempotent.
package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/xiexikang/video-link-pipeline/internal/cookiejar"
	"github.com/xiexikang/video-link-pipeline/internal/platform"
)

// ErrLaunch means the browser driver could not be obtained or started.
var ErrLaunch = errors.New("browser: launch failed")

// Config configures a Session.
type Config struct {
	// SettleInterval is how long navigation waits for redirects and lazy
	// content after load. Default: 5s.
	SettleInterval time.Duration

	// NavTimeout bounds a single navigation. Default: 30s.
	NavTimeout time.Duration

	// LaunchTimeout bounds browser startup. Default: 30s.
	LaunchTimeout time.Duration

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.SettleInterval <= 0 {
		c.SettleInterval = 5 * time.Second
	}
	if c.NavTimeout <= 0 {
		c.NavTimeout = 30 * time.Second
	}
	if c.LaunchTimeout <= 0 {
		c.LaunchTimeout = 30 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// MediaElement describes one <video>/<audio> element found in the DOM.
type MediaElement struct {
	Src        string   `json:"src"`
	CurrentSrc string   `json:"currentSrc"`
	Sources    []string `json:"sources"`
}

// NetworkEvent is one captured response, arrival-ordered.
type NetworkEvent struct {
	URL  string
	MIME string
	At   time.Time
}

// Snapshot is the session state the resolver works from.
type Snapshot struct {
	Media    []MediaElement
	Events   []NetworkEvent
	HTML     string
	Title    string
	FinalURL string
}

// Session drives one exclusive Chrome process. Not safe for concurrent
// use; each acquisition attempt gets its own Session.
type Session struct {
	cfg    Config
	lnch   *launcher.Launcher
	brw    *rod.Browser
	page   *rod.Page
	cancel context.CancelFunc

	mu     sync.Mutex
	events []NetworkEvent
	closed bool
}

// Open launches Chrome with anti-detection configuration: automation
// indicator flags disabled, stealth page setup, mobile device emulation,
// and network response capture enabled.
func Open(ctx context.Context, cfg Config) (*Session, error) {
	cfg.defaults()

	l := launcher.New().
		Headless(true).
		Set("disable-blink-features", "AutomationControlled").
		Set("mute-audio")

	u, err := l.Context(ctx).Launch()
	if err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("%w: %v", ErrLaunch, err)
	}

	brw := rod.New().ControlURL(u).Context(ctx)
	if err := brw.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("%w: connect: %v", ErrLaunch, err)
	}

	s := &Session{cfg: cfg, lnch: l, brw: brw}

	page, err := stealth.Page(brw)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("%w: stealth page: %v", ErrLaunch, err)
	}
	s.page = page

	if err := s.emulateMobile(); err != nil {
		cfg.Logger.Warn("browser: mobile emulation failed", "error", err)
	}

	evtCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.captureNetwork(evtCtx)

	cfg.Logger.Info("browser: session open")
	return s, nil
}

// emulateMobile presents a phone-class viewport and user agent. Short
// video sites serve their mobile markup to it, which exposes plain
// <video src> elements instead of MSE blob streams.
func (s *Session) emulateMobile() error {
	if err := (proto.EmulationSetUserAgentOverride{
		UserAgent: platform.MobileUserAgent,
	}).Call(s.page); err != nil {
		return err
	}
	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             390,
		Height:            844,
		DeviceScaleFactor: 3,
		Mobile:            true,
	}).Call(s.page); err != nil {
		return err
	}
	return proto.EmulationSetTouchEmulationEnabled{Enabled: true}.Call(s.page)
}

// captureNetwork records every response URL and MIME type until Close.
func (s *Session) captureNetwork(ctx context.Context) {
	if err := (proto.NetworkEnable{}).Call(s.page); err != nil {
		s.cfg.Logger.Warn("browser: network capture unavailable", "error", err)
		return
	}
	wait := s.page.Context(ctx).EachEvent(func(e *proto.NetworkResponseReceived) {
		s.mu.Lock()
		s.events = append(s.events, NetworkEvent{
			URL:  e.Response.URL,
			MIME: e.Response.MIMEType,
			At:   time.Now(),
		})
		s.mu.Unlock()
	})
	go wait()
}

// InjectCookies navigates to origin (cookies cannot be set without a
// same-origin context) and adds each record whose domain matches the
// origin host. Per-cookie failures are counted and logged, never fatal.
// Returns the number of cookies injected.
func (s *Session) InjectCookies(ctx context.Context, origin string, records []cookiejar.Record) int {
	u, err := url.Parse(origin)
	if err != nil {
		s.cfg.Logger.Warn("browser: bad cookie origin", "origin", origin, "error", err)
		return 0
	}

	navCtx, cancel := context.WithTimeout(ctx, s.cfg.NavTimeout)
	defer cancel()
	if err := s.page.Context(navCtx).Navigate(origin); err != nil {
		s.cfg.Logger.Warn("browser: cookie origin navigation failed", "origin", origin, "error", err)
		return 0
	}
	if err := s.page.Context(navCtx).WaitLoad(); err != nil {
		s.cfg.Logger.Debug("browser: cookie origin load timeout", "error", err)
	}

	matched := cookiejar.FilterForHost(records, u.Hostname())
	injected, failed := 0, 0
	for _, r := range matched {
		param := &proto.NetworkCookieParam{
			Name:   r.Name,
			Value:  r.Value,
			Domain: r.Domain,
			Path:   r.Path,
			Secure: r.Secure,
		}
		if r.Expires > 0 {
			param.Expires = proto.TimeSinceEpoch(r.Expires)
		}
		if err := s.page.SetCookies([]*proto.NetworkCookieParam{param}); err != nil {
			failed++
			continue
		}
		injected++
	}
	s.cfg.Logger.Info("browser: cookies injected",
		"matched", len(matched), "injected", injected, "failed", failed)
	return injected
}

// Navigate loads the target URL, waits a settle interval for redirects
// and lazy content, then scrolls half a viewport to trigger lazy-loaded
// media elements.
func (s *Session) Navigate(ctx context.Context, target string) error {
	navCtx, cancel := context.WithTimeout(ctx, s.cfg.NavTimeout)
	defer cancel()

	if err := s.page.Context(navCtx).Navigate(target); err != nil {
		return fmt.Errorf("browser: navigate %s: %w", target, err)
	}
	if err := s.page.Context(navCtx).WaitLoad(); err != nil {
		s.cfg.Logger.Debug("browser: wait load timeout", "url", target, "error", err)
	}

	select {
	case <-time.After(s.cfg.SettleInterval):
	case <-ctx.Done():
		return fmt.Errorf("browser: settle: %w", ctx.Err())
	}

	if _, err := s.page.Context(navCtx).Eval(`() => window.scrollBy(0, window.innerHeight / 2)`); err != nil {
		s.cfg.Logger.Debug("browser: scroll nudge failed", "error", err)
	}
	return nil
}

// RedirectMismatch reports whether the post-navigation URL no longer
// carries expectedID. A mismatch is a low-confidence signal, not a
// failure; short links legitimately redirect across hosts.
func (s *Session) RedirectMismatch(expectedID string) bool {
	if expectedID == "" {
		return false
	}
	info, err := s.page.Info()
	if err != nil {
		return false
	}
	if strings.Contains(info.URL, expectedID) {
		return false
	}
	s.cfg.Logger.Warn("browser: content id missing from landed URL",
		"expected", expectedID, "landed", info.URL)
	return true
}

const mediaScanJS = `() => {
	const out = [];
	for (const el of document.querySelectorAll('video, audio')) {
		const sources = [];
		for (const src of el.querySelectorAll('source')) {
			if (src.src) sources.push(src.src);
		}
		out.push({src: el.src || '', currentSrc: el.currentSrc || '', sources});
	}
	return JSON.stringify(out);
}`

// Snapshot returns the current DOM media descriptors, captured network
// events, full markup, page title, and landed URL.
func (s *Session) Snapshot(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}

	res, err := s.page.Context(ctx).Eval(mediaScanJS)
	if err != nil {
		return nil, fmt.Errorf("browser: media scan: %w", err)
	}
	if err := json.Unmarshal([]byte(res.Value.Str()), &snap.Media); err != nil {
		return nil, fmt.Errorf("browser: media scan decode: %w", err)
	}

	html, err := s.page.Context(ctx).HTML()
	if err != nil {
		return nil, fmt.Errorf("browser: page markup: %w", err)
	}
	snap.HTML = html

	if res, err := s.page.Context(ctx).Eval(`() => document.title || ''`); err == nil {
		snap.Title = res.Value.Str()
	}
	if info, err := s.page.Info(); err == nil {
		snap.FinalURL = info.URL
	}

	s.mu.Lock()
	snap.Events = append([]NetworkEvent(nil), s.events...)
	s.mu.Unlock()

	return snap, nil
}

// TapMedia clicks the first media element to coax a player into loading
// its source, then waits briefly for it to settle.
func (s *Session) TapMedia(ctx context.Context) error {
	_, err := s.page.Context(ctx).Eval(`() => {
		const el = document.querySelector('video, audio');
		if (el) el.click();
	}`)
	if err != nil {
		return fmt.Errorf("browser: media tap: %w", err)
	}
	select {
	case <-time.After(time.Second):
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// Cookies dumps the session's current cookies as records, for logging
// when resolution comes up empty.
func (s *Session) Cookies(ctx context.Context) []cookiejar.Record {
	cookies, err := s.page.Context(ctx).Cookies(nil)
	if err != nil {
		s.cfg.Logger.Debug("browser: cookie dump failed", "error", err)
		return nil
	}
	out := make([]cookiejar.Record, 0, len(cookies))
	for _, c := range cookies {
		out = append(out, cookiejar.Record{
			Domain:  c.Domain,
			Path:    c.Path,
			Secure:  c.Secure,
			Expires: int64(c.Expires),
			Name:    c.Name,
			Value:   c.Value,
		})
	}
	return out
}

// Close terminates the browser process. Idempotent; safe on every exit
// path including timeouts.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	if s.brw != nil {
		if err := s.brw.Close(); err != nil {
			s.cfg.Logger.Debug("browser: close", "error", err)
		}
	}
	if s.lnch != nil {
		s.lnch.Kill()
		s.lnch.Cleanup()
	}
	s.cfg.Logger.Info("browser: session closed")
}

// Package resolve extracts a direct media address from a browser session
// snapshot: DOM media elements first, then a simulated interaction, then
// captured network traffic, then raw markup patterns. First success wins;
// finding nothing is a normal negative result, not a fault.
package resolve

import (
	"context"
	"log/slog"

	"github.com/xiexikang/video-link-pipeline/internal/browser"
	"github.com/xiexikang/video-link-pipeline/internal/cookiejar"
	"github.com/xiexikang/video-link-pipeline/internal/platform"
)

// Candidate is a resolved media address and the strategy that produced
// it. Diagnostic only; never persisted.
type Candidate struct {
	Address  string
	Strategy string
}

// Found reports whether a usable address was resolved.
func (c Candidate) Found() bool { return c.Address != "" }

// Session is the slice of the browser session the resolver needs.
type Session interface {
	Snapshot(ctx context.Context) (*browser.Snapshot, error)
	TapMedia(ctx context.Context) error
	Cookies(ctx context.Context) []cookiejar.Record
}

// Resolver runs the strategy chain against one session.
type Resolver struct {
	Platform platform.Platform
	Logger   *slog.Logger
}

func (r *Resolver) log() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// domStrategies are evaluated in fixed order over a snapshot; the first
// non-empty address wins. Kept as a slice of function values so the order
// is data, not control flow.
var domStrategies = []struct {
	name string
	fn   func(*browser.Snapshot) string
}{
	{"dom-src", directSrc},
	{"dom-source-child", sourceChildren},
}

// Resolve runs the full chain. The returned title may be empty; title
// failure never blocks address resolution. An empty candidate with a nil
// error means every strategy came up dry.
func (r *Resolver) Resolve(ctx context.Context, sess Session) (Candidate, string, error) {
	snap, err := sess.Snapshot(ctx)
	if err != nil {
		return Candidate{}, "", err
	}
	title := r.resolveTitle(snap)

	if c := scanDOM(snap); c.Found() {
		r.log().Info("resolve: address found", "strategy", c.Strategy)
		return c, title, nil
	}

	// A paused player may not expose its source until poked.
	if err := sess.TapMedia(ctx); err == nil {
		if snap2, err := sess.Snapshot(ctx); err == nil {
			snap = snap2
			if title == "" {
				title = r.resolveTitle(snap)
			}
			if c := scanDOM(snap); c.Found() {
				r.log().Info("resolve: address found after tap", "strategy", c.Strategy)
				return c, title, nil
			}
		}
	} else {
		r.log().Debug("resolve: media tap failed", "error", err)
	}

	if addr := networkSniff(snap, r.Platform); addr != "" {
		r.log().Info("resolve: address found", "strategy", "network-sniff")
		return Candidate{Address: addr, Strategy: "network-sniff"}, title, nil
	}

	if addr, pattern := markupScan(snap.HTML); addr != "" {
		r.log().Info("resolve: address found", "strategy", "markup", "pattern", pattern)
		return Candidate{Address: addr, Strategy: "markup:" + pattern}, title, nil
	}

	// Negative result. Surface the session's cookies for operators who
	// want to retry by hand with a warmed-up jar.
	cookies := sess.Cookies(ctx)
	r.log().Info("resolve: no address resolved", "session_cookies", len(cookies))
	return Candidate{}, title, nil
}

func scanDOM(snap *browser.Snapshot) Candidate {
	for _, s := range domStrategies {
		if addr := s.fn(snap); addr != "" {
			return Candidate{Address: addr, Strategy: s.name}
		}
	}
	return Candidate{}
}

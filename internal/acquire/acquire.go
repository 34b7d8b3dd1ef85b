// Package acquire composes the acquisition pipeline: direct extraction,
// failure classification, browser-based address resolution, retry
// download, and output validation. One Run per request; independent
// requests may run concurrently, each with its own browser process.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/xiexikang/video-link-pipeline/internal/browser"
	"github.com/xiexikang/video-link-pipeline/internal/classify"
	"github.com/xiexikang/video-link-pipeline/internal/cookiejar"
	"github.com/xiexikang/video-link-pipeline/internal/normalize"
	"github.com/xiexikang/video-link-pipeline/internal/platform"
	"github.com/xiexikang/video-link-pipeline/internal/resolve"
	"github.com/xiexikang/video-link-pipeline/internal/store"
	"github.com/xiexikang/video-link-pipeline/internal/ytdlp"
)

// Extractor is the media-extraction collaborator (yt-dlp in production).
type Extractor interface {
	Probe(ctx context.Context, url string, opts ytdlp.Options) (ytdlp.Metadata, error)
	Download(ctx context.Context, url string, opts ytdlp.Options) error
	DownloadDirect(ctx context.Context, addr, title, outputDir string, plat platform.Platform) error
}

// Session is the browser session surface the orchestrator drives.
type Session interface {
	InjectCookies(ctx context.Context, origin string, records []cookiejar.Record) int
	Navigate(ctx context.Context, target string) error
	RedirectMismatch(expectedID string) bool
	Snapshot(ctx context.Context) (*browser.Snapshot, error)
	TapMedia(ctx context.Context) error
	Cookies(ctx context.Context) []cookiejar.Record
	Close()
}

// SessionFactory opens a browser session; swapped out in tests.
type SessionFactory func(ctx context.Context, cfg browser.Config) (Session, error)

// Recorder persists acquisition outcomes.
type Recorder interface {
	Record(ctx context.Context, row store.Row) (string, error)
}

// Pipeline is the orchestrator. Fields are read-only after construction,
// so one Pipeline serves concurrent Runs.
type Pipeline struct {
	Extractor   Extractor
	OpenSession SessionFactory // nil = browser.Open
	Normalizer  *normalize.Normalizer
	History     Recorder // nil = no history
	Browser     browser.Config

	ProbeTimeout    time.Duration // default 1m
	DownloadTimeout time.Duration // default 30m
	ResolveTimeout  time.Duration // default 2m

	Logger *slog.Logger
}

func (p *Pipeline) log() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

func (p *Pipeline) openSession(ctx context.Context, cfg browser.Config) (Session, error) {
	if p.OpenSession != nil {
		return p.OpenSession(ctx, cfg)
	}
	return browser.Open(ctx, cfg)
}

func (p *Pipeline) normalizer() *normalize.Normalizer {
	if p.Normalizer != nil {
		return p.Normalizer
	}
	return &normalize.Normalizer{Logger: p.log()}
}

func (p *Pipeline) probeTimeout() time.Duration {
	if p.ProbeTimeout > 0 {
		return p.ProbeTimeout
	}
	return time.Minute
}

func (p *Pipeline) downloadTimeout() time.Duration {
	if p.DownloadTimeout > 0 {
		return p.DownloadTimeout
	}
	return 30 * time.Minute
}

func (p *Pipeline) resolveTimeout() time.Duration {
	if p.ResolveTimeout > 0 {
		return p.ResolveTimeout
	}
	return 2 * time.Minute
}

// Run executes one acquisition and always returns a classified Result;
// no component error escapes unwrapped.
func (p *Pipeline) Run(ctx context.Context, req Request) Result {
	res := p.run(ctx, req)
	p.record(ctx, req, res)
	return res
}

func (p *Pipeline) run(ctx context.Context, req Request) Result {
	log := p.log().With("url", req.URL)

	probeTitle := p.probe(ctx, req, log)
	dlTitle := probeTitle
	if dlTitle == "" {
		dlTitle = placeholderTitle(time.Now())
	}

	primaryErr := p.primary(ctx, req, dlTitle)
	if primaryErr == nil {
		art, err := p.normalizer().Run(req.OutputDir, dlTitle, req.Languages)
		if err == nil {
			log.Info("acquire: done", "title", dlTitle)
			return success(dlTitle, art)
		}
		primaryErr = err
	}

	if classify.Classify(primaryErr.Error(), req.URL) != classify.RetryableAntiBot {
		log.Warn("acquire: terminal failure", "error", primaryErr)
		return failure(primaryErr, nil)
	}

	log.Info("acquire: escalating to browser resolution", "cause", primaryErr.Error())
	res, retryErr := p.escalate(ctx, req, probeTitle, log)
	if retryErr != nil {
		log.Warn("acquire: escalation failed", "error", retryErr)
		return failure(primaryErr, retryErr)
	}
	return res
}

// probe fetches the title without downloading. Failure is tolerated; a
// later stage may still recover a title.
func (p *Pipeline) probe(ctx context.Context, req Request, log *slog.Logger) string {
	pctx, cancel := context.WithTimeout(ctx, p.probeTimeout())
	defer cancel()

	md, err := p.Extractor.Probe(pctx, req.URL, ytdlp.Options{
		CookieFile:         req.CookieFile,
		CookiesFromBrowser: req.CookiesFromBrowser,
	})
	if err != nil {
		log.Warn("acquire: metadata probe failed", "error", err)
		return ""
	}
	return SanitizeTitle(md.Title)
}

func (p *Pipeline) primary(ctx context.Context, req Request, title string) error {
	dctx, cancel := context.WithTimeout(ctx, p.downloadTimeout())
	defer cancel()

	err := p.Extractor.Download(dctx, req.URL, ytdlp.Options{
		OutputDir:          req.OutputDir,
		Title:              title,
		Languages:          req.Languages,
		Quality:            req.Quality,
		CookieFile:         req.CookieFile,
		CookiesFromBrowser: req.CookiesFromBrowser,
		AudioOnly:          req.AudioOnly,
		WriteInfoJSON:      true,
	})
	return timeoutClass(err)
}

// escalate runs the single permitted retry: browser resolution followed
// by a direct download. Any failure here is terminal; there is no second
// escalation.
func (p *Pipeline) escalate(ctx context.Context, req Request, probeTitle string, log *slog.Logger) (Result, error) {
	plat := platform.Lookup(req.URL)

	cand, browserTitle, err := p.resolveAddress(ctx, req, plat, log)
	if err != nil {
		return Result{}, err
	}
	if !cand.Found() {
		return Result{}, fmt.Errorf("%w: no media address resolved", ErrRetryExhausted)
	}

	title := SanitizeTitle(browserTitle)
	if title == "" {
		title = probeTitle
	}
	if title == "" {
		title = placeholderTitle(time.Now())
	}

	dctx, cancel := context.WithTimeout(ctx, p.downloadTimeout())
	defer cancel()
	if err := p.Extractor.DownloadDirect(dctx, cand.Address, title, req.OutputDir, plat); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrRetryExhausted, timeoutClass(err))
	}

	art, err := p.normalizer().Run(req.OutputDir, title, req.Languages)
	if err != nil {
		return Result{}, err
	}
	log.Info("acquire: retry download done", "title", title, "strategy", cand.Strategy)
	return success(title, art), nil
}

// resolveAddress owns the browser session: it is closed on every path
// out of this function, including timeouts.
func (p *Pipeline) resolveAddress(ctx context.Context, req Request, plat platform.Platform, log *slog.Logger) (resolve.Candidate, string, error) {
	rctx, cancel := context.WithTimeout(ctx, p.resolveTimeout())
	defer cancel()

	sess, err := p.openSession(rctx, p.Browser)
	if err != nil {
		return resolve.Candidate{}, "", timeoutClass(err)
	}
	defer sess.Close()

	if req.CookieFile != "" {
		records := cookiejar.Load(req.CookieFile, log)
		origin := plat.Home
		if origin == "" {
			origin = originOf(req.URL)
		}
		if origin != "" && len(records) > 0 {
			sess.InjectCookies(rctx, origin, records)
		}
	}

	if err := sess.Navigate(rctx, req.URL); err != nil {
		return resolve.Candidate{}, "", timeoutClass(err)
	}
	sess.RedirectMismatch(platform.IDFromURL(req.URL))

	r := &resolve.Resolver{Platform: plat, Logger: log}
	cand, title, err := r.Resolve(rctx, sess)
	if err != nil {
		return resolve.Candidate{}, "", timeoutClass(err)
	}
	return cand, title, nil
}

func (p *Pipeline) record(ctx context.Context, req Request, res Result) {
	if p.History == nil {
		return
	}
	_, err := p.History.Record(ctx, store.Row{
		URL:                req.URL,
		Title:              res.Title,
		Folder:             res.Folder,
		Success:            res.Success,
		Error:              res.Error,
		NeedsTranscription: res.NeedsTranscription,
	})
	if err != nil {
		p.log().Warn("acquire: history record failed", "error", err)
	}
}

func success(title string, art normalize.Artifacts) Result {
	return Result{
		Success:            true,
		Folder:             title,
		Title:              title,
		Video:              art.Video,
		Audio:              art.Audio,
		Subtitle:           art.SubtitleVTT,
		SubtitleSRT:        art.SubtitleSRT,
		Info:               art.Info,
		NeedsTranscription: !art.HasCaption(),
	}
}

func failure(primary, retry error) Result {
	msg := primary.Error()
	if retry != nil {
		msg += "; retry: " + retry.Error()
	}
	return Result{Success: false, Error: msg}
}

// timeoutClass folds context deadline errors into the Timeout class so
// the result message names what actually went wrong.
func timeoutClass(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}

func originOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

var (
	illegalChars = regexp.MustCompile(`[\\/*?:"<>|]`)
	whitespace   = regexp.MustCompile(`\s+`)
	underscores  = regexp.MustCompile(`_+`)
)

// SanitizeTitle makes a title safe as a folder name: illegal characters
// and whitespace become single underscores, leading/trailing noise goes.
func SanitizeTitle(title string) string {
	t := illegalChars.ReplaceAllString(title, "_")
	t = whitespace.ReplaceAllString(t, "_")
	t = underscores.ReplaceAllString(t, "_")
	return strings.Trim(t, "_.")
}

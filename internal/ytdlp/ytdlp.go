// Package ytdlp wraps the yt-dlp binary: metadata probing, full
// extraction downloads, and spoofed direct downloads from a resolved CDN
// address. The binary and ffmpeg locations are resolved once at startup
// and passed in; nothing here mutates the process environment.
package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xiexikang/video-link-pipeline/internal/platform"
)

// Runner executes yt-dlp. Zero value uses "yt-dlp" from PATH and no
// explicit ffmpeg location.
type Runner struct {
	Binary         string
	FFmpegLocation string
	Logger         *slog.Logger
}

// Options configures a probe or download.
type Options struct {
	OutputDir          string
	Title              string // fixed output title; empty = probe first
	Languages          []string
	Quality            string // "best" or a max height like "720"
	CookieFile         string
	CookiesFromBrowser string
	AudioOnly          bool
	WriteInfoJSON      bool
}

// Metadata is the subset of probe output the pipeline needs.
type Metadata struct {
	Title string `json:"title"`
	ID    string `json:"id"`
}

func (r *Runner) bin() string {
	if r.Binary != "" {
		return r.Binary
	}
	return "yt-dlp"
}

func (r *Runner) log() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// ResolveFFmpeg returns the configured ffmpeg path, or the one found on
// PATH, or "" when none is available (yt-dlp then falls back to single
// non-merged formats).
func ResolveFFmpeg(configured string) string {
	if configured != "" {
		return configured
	}
	if path, err := exec.LookPath("ffmpeg"); err == nil {
		return path
	}
	return ""
}

// Probe fetches metadata without downloading.
func (r *Runner) Probe(ctx context.Context, url string, opts Options) (Metadata, error) {
	args := probeArgs(url, opts)
	out, err := r.run(ctx, args)
	if err != nil {
		return Metadata{}, err
	}
	var md Metadata
	if err := json.Unmarshal(out, &md); err != nil {
		return Metadata{}, fmt.Errorf("ytdlp: parse probe output: %w", err)
	}
	return md, nil
}

// Download runs a full extraction download into opts.OutputDir/opts.Title.
func (r *Runner) Download(ctx context.Context, url string, opts Options) error {
	args := r.downloadArgs(url, opts)
	_, err := r.run(ctx, args)
	return err
}

// DownloadDirect downloads a resolved CDN address with spoofed headers.
// Resolved addresses are short-lived signed links on hosts with patchy
// certificate chains, so certificate validation is off for this path.
func (r *Runner) DownloadDirect(ctx context.Context, addr, title, outputDir string, plat platform.Platform) error {
	args := directArgs(addr, title, outputDir, plat)
	_, err := r.run(ctx, args)
	return err
}

func (r *Runner) run(ctx context.Context, args []string) ([]byte, error) {
	r.log().Debug("ytdlp: exec", "args", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, r.bin(), args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("ytdlp: %w", ctx.Err())
		}
		return nil, fmt.Errorf("ytdlp: %w: %s", err, stderrTail(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// stderrTail keeps the last few stderr lines; yt-dlp prints its ERROR
// line last and the classifier matches against it.
func stderrTail(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > 3 {
		lines = lines[len(lines)-3:]
	}
	return strings.TrimSpace(strings.Join(lines, " "))
}

func probeArgs(url string, opts Options) []string {
	args := []string{"--dump-single-json", "--skip-download", "--no-warnings"}
	args = appendCookieArgs(args, opts)
	return append(args, url)
}

func (r *Runner) downloadArgs(url string, opts Options) []string {
	merge := r.FFmpegLocation != ""
	args := []string{"-f", formatSpec(opts.Quality, opts.AudioOnly, merge)}
	if merge {
		args = append(args, "--ffmpeg-location", r.FFmpegLocation)
		if !opts.AudioOnly {
			args = append(args, "--merge-output-format", "mp4")
		}
	}
	if len(opts.Languages) > 0 {
		args = append(args,
			"--write-subs", "--write-auto-subs",
			"--sub-langs", strings.Join(opts.Languages, ","),
			"--sub-format", "vtt/srt")
	}
	if opts.WriteInfoJSON {
		args = append(args, "--write-info-json")
	}
	args = appendCookieArgs(args, opts)
	args = append(args, "-o", outputTemplate(opts.OutputDir, opts.Title))
	return append(args, url)
}

func directArgs(addr, title, outputDir string, plat platform.Platform) []string {
	args := []string{
		"--no-check-certificate",
		"--user-agent", platform.MobileUserAgent,
	}
	if plat.Referer != "" {
		args = append(args, "--referer", plat.Referer)
	}
	args = append(args, "-o", outputTemplate(outputDir, title))
	return append(args, addr)
}

func appendCookieArgs(args []string, opts Options) []string {
	if opts.CookieFile != "" {
		args = append(args, "--cookies", opts.CookieFile)
	}
	if opts.CookiesFromBrowser != "" {
		args = append(args, "--cookies-from-browser", opts.CookiesFromBrowser)
	}
	return args
}

func outputTemplate(dir, title string) string {
	if title == "" {
		return filepath.Join(dir, "%(title)s", "%(title)s.%(ext)s")
	}
	return filepath.Join(dir, title, title+".%(ext)s")
}

// formatSpec builds the yt-dlp -f expression. Without ffmpeg, merged
// selections are pointless, so a single pre-merged format is requested.
func formatSpec(quality string, audioOnly, merge bool) string {
	if audioOnly {
		return "bestaudio[ext=m4a]/bestaudio"
	}
	height := 0
	if quality != "" && quality != "best" {
		if h, err := strconv.Atoi(strings.TrimSuffix(quality, "p")); err == nil {
			height = h
		}
	}
	if !merge {
		if height > 0 {
			return fmt.Sprintf("best[ext=mp4][height<=%d]/best[height<=%d]", height, height)
		}
		return "best[ext=mp4]/best"
	}
	if height > 0 {
		return fmt.Sprintf(
			"bestvideo[ext=mp4][height<=%d]+bestaudio[ext=m4a]/best[ext=mp4][height<=%d]/best",
			height, height)
	}
	return "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best"
}

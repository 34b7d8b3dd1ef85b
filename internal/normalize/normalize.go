// Package normalize relocates downloaded files into the canonical layout
// and rejects artifacts that are too small to be real media. Bot-mitigated
// sites like to answer with a small HTML or JSON body behind a .mp4 name;
// accepting those silently would poison every downstream step.
package normalize

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/xiexikang/video-link-pipeline/internal/subtitle"
)

// MinVideoSize is the smallest byte count accepted for video.mp4.
// Challenge pages disguised with a media extension sit well below this.
const MinVideoSize = 100 << 10

var (
	// ErrInvalidArtifact means the video artifact was undersized; the
	// output folder has been deleted.
	ErrInvalidArtifact = errors.New("normalize: video file too small to be valid media")

	// ErrNoFilesProduced means the output folder held no media after a
	// claimed-successful extraction; the folder has been deleted.
	ErrNoFilesProduced = errors.New("normalize: no files downloaded")
)

// Artifacts lists the canonical files present after normalization. Paths
// are relative to the output root.
type Artifacts struct {
	Video       string
	Audio       string
	SubtitleVTT string
	SubtitleSRT string
	Info        string
}

// HasCaption reports whether any caption artifact was produced.
func (a Artifacts) HasCaption() bool {
	return a.SubtitleVTT != "" || a.SubtitleSRT != ""
}

// Normalizer renames artifacts into the canonical layout and validates
// them. The filesystem is injected so tests run against a memory map.
type Normalizer struct {
	FS     afero.Fs
	Logger *slog.Logger
}

// Run normalizes folder (absolute or root-relative path) for the given
// caption language preference order. On a validation failure the entire
// folder is removed before the error returns, so callers never observe a
// half-valid layout.
func (n *Normalizer) Run(root, folder string, langs []string) (Artifacts, error) {
	fsys := n.FS
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	log := n.Logger
	if log == nil {
		log = slog.Default()
	}

	dir := filepath.Join(root, folder)
	entries, err := afero.ReadDir(fsys, dir)
	if err != nil {
		return Artifacts{}, fmt.Errorf("normalize: read %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	if len(names) == 0 {
		_ = fsys.RemoveAll(dir)
		return Artifacts{}, ErrNoFilesProduced
	}

	renames := []struct {
		canonical string
		pick      func([]string) string
	}{
		{"video.mp4", firstWithExt(".mp4")},
		{"audio.m4a", firstWithExt(".m4a")},
		{"audio.mp3", firstWithExt(".mp3")},
		{"subtitle.vtt", captionPick(".vtt", langs)},
		{"subtitle.srt", captionPick(".srt", langs)},
		{"info.json", firstWithSuffix(".info.json")},
	}

	for _, r := range renames {
		src := r.pick(names)
		if src == "" || src == r.canonical {
			continue
		}
		if exists, _ := afero.Exists(fsys, filepath.Join(dir, r.canonical)); exists {
			continue
		}
		if err := fsys.Rename(filepath.Join(dir, src), filepath.Join(dir, r.canonical)); err != nil {
			return Artifacts{}, fmt.Errorf("normalize: rename %s: %w", src, err)
		}
	}

	n.fillMissingCaption(fsys, dir, log)

	// Validate before reporting anything as final.
	if exists, _ := afero.Exists(fsys, filepath.Join(dir, "video.mp4")); exists {
		fi, err := fsys.Stat(filepath.Join(dir, "video.mp4"))
		if err == nil && fi.Size() < MinVideoSize {
			log.Warn("normalize: undersized video, removing folder",
				"folder", dir, "size", fi.Size(), "min", int64(MinVideoSize))
			_ = fsys.RemoveAll(dir)
			return Artifacts{}, ErrInvalidArtifact
		}
	}

	art := Artifacts{}
	set := func(dst *string, name string) {
		if exists, _ := afero.Exists(fsys, filepath.Join(dir, name)); exists {
			*dst = filepath.Join(folder, name)
		}
	}
	set(&art.Video, "video.mp4")
	set(&art.Audio, "audio.m4a")
	if art.Audio == "" {
		set(&art.Audio, "audio.mp3")
	}
	set(&art.SubtitleVTT, "subtitle.vtt")
	set(&art.SubtitleSRT, "subtitle.srt")
	set(&art.Info, "info.json")

	if art.Video == "" && art.Audio == "" {
		_ = fsys.RemoveAll(dir)
		return Artifacts{}, ErrNoFilesProduced
	}
	return art, nil
}

// fillMissingCaption synthesizes the missing caption sibling when exactly
// one of subtitle.vtt / subtitle.srt came out of the download.
func (n *Normalizer) fillMissingCaption(fsys afero.Fs, dir string, log *slog.Logger) {
	vttPath := filepath.Join(dir, "subtitle.vtt")
	srtPath := filepath.Join(dir, "subtitle.srt")
	hasVTT, _ := afero.Exists(fsys, vttPath)
	hasSRT, _ := afero.Exists(fsys, srtPath)

	switch {
	case hasVTT && !hasSRT:
		if data, err := afero.ReadFile(fsys, vttPath); err == nil {
			if err := afero.WriteFile(fsys, srtPath, []byte(subtitle.Convert(string(data), subtitle.SRT)), 0o644); err != nil {
				log.Warn("normalize: srt synthesis failed", "error", err)
			}
		}
	case hasSRT && !hasVTT:
		if data, err := afero.ReadFile(fsys, srtPath); err == nil {
			if err := afero.WriteFile(fsys, vttPath, []byte(subtitle.Convert(string(data), subtitle.VTT)), 0o644); err != nil {
				log.Warn("normalize: vtt synthesis failed", "error", err)
			}
		}
	}
}

func firstWithExt(ext string) func([]string) string {
	return func(names []string) string {
		for _, name := range names {
			if strings.EqualFold(filepath.Ext(name), ext) {
				return name
			}
		}
		return ""
	}
}

func firstWithSuffix(suffix string) func([]string) string {
	return func(names []string) string {
		for _, name := range names {
			if strings.HasSuffix(strings.ToLower(name), suffix) {
				return name
			}
		}
		return ""
	}
}

// captionPick prefers a caption whose filename carries an earlier entry of
// langs (".zh" also matches "zh-Hans" variants), falling back to the first
// caption found.
func captionPick(ext string, langs []string) func([]string) string {
	return func(names []string) string {
		var all []string
		for _, name := range names {
			if strings.EqualFold(filepath.Ext(name), ext) {
				all = append(all, name)
			}
		}
		if len(all) == 0 {
			return ""
		}
		for _, lang := range langs {
			for _, name := range all {
				lower := strings.ToLower(name)
				if strings.Contains(lower, "."+lang) || strings.Contains(lower, lang+"-") {
					return name
				}
			}
		}
		return all[0]
	}
}

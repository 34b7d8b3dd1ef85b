package normalize

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func seed(t *testing.T, fsys afero.Fs, dir string, files map[string]int) {
	t.Helper()
	for name, size := range files {
		data := make([]byte, size)
		if err := afero.WriteFile(fsys, filepath.Join(dir, name), data, 0o644); err != nil {
			t.Fatalf("seed %s: %v", name, err)
		}
	}
}

func TestRunRenamesToCanonicalLayout(t *testing.T) {
	// WHAT: Recognized extensions land on canonical names.
	// WHY: Downstream tooling addresses files by the fixed layout only.
	fsys := afero.NewMemMapFs()
	seed(t, fsys, "out/My_Clip", map[string]int{
		"My_Clip.mp4":       MinVideoSize + 1,
		"My_Clip.m4a":       1024,
		"My_Clip.info.json": 64,
	})

	n := &Normalizer{FS: fsys}
	art, err := n.Run("out", "My_Clip", []string{"zh", "en"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if art.Video != filepath.Join("My_Clip", "video.mp4") {
		t.Errorf("video = %q", art.Video)
	}
	if art.Audio != filepath.Join("My_Clip", "audio.m4a") {
		t.Errorf("audio = %q", art.Audio)
	}
	if art.Info != filepath.Join("My_Clip", "info.json") {
		t.Errorf("info = %q", art.Info)
	}
	if art.HasCaption() {
		t.Error("no caption was downloaded")
	}
	if ok, _ := afero.Exists(fsys, "out/My_Clip/My_Clip.mp4"); ok {
		t.Error("source name should be gone after rename")
	}
}

func TestRunUndersizedVideoDeletesFolder(t *testing.T) {
	// WHAT: A video below the threshold removes the whole folder and
	// returns ErrInvalidArtifact.
	// WHY: Anti-bot pages masquerade as tiny .mp4 files.
	fsys := afero.NewMemMapFs()
	seed(t, fsys, "out/clip", map[string]int{"clip.mp4": 2048})

	n := &Normalizer{FS: fsys}
	_, err := n.Run("out", "clip", nil)
	if !errors.Is(err, ErrInvalidArtifact) {
		t.Fatalf("err = %v, want ErrInvalidArtifact", err)
	}
	if ok, _ := afero.DirExists(fsys, "out/clip"); ok {
		t.Error("folder must be deleted on invalid artifact")
	}
}

func TestRunAtThresholdKept(t *testing.T) {
	fsys := afero.NewMemMapFs()
	seed(t, fsys, "out/clip", map[string]int{"clip.mp4": MinVideoSize})

	n := &Normalizer{FS: fsys}
	art, err := n.Run("out", "clip", nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if art.Video == "" {
		t.Error("video at threshold must be kept")
	}
}

func TestRunEmptyFolder(t *testing.T) {
	fsys := afero.NewMemMapFs()
	if err := fsys.MkdirAll("out/clip", 0o755); err != nil {
		t.Fatal(err)
	}
	n := &Normalizer{FS: fsys}
	_, err := n.Run("out", "clip", nil)
	if !errors.Is(err, ErrNoFilesProduced) {
		t.Fatalf("err = %v, want ErrNoFilesProduced", err)
	}
}

func TestRunNoMediaArtifact(t *testing.T) {
	// Only metadata, no media: same terminal outcome as an empty folder.
	fsys := afero.NewMemMapFs()
	seed(t, fsys, "out/clip", map[string]int{"clip.info.json": 64})
	n := &Normalizer{FS: fsys}
	_, err := n.Run("out", "clip", nil)
	if !errors.Is(err, ErrNoFilesProduced) {
		t.Fatalf("err = %v, want ErrNoFilesProduced", err)
	}
}

func TestCaptionLanguagePreference(t *testing.T) {
	// WHAT: Primary language wins, then secondary, then first found.
	fsys := afero.NewMemMapFs()
	seed(t, fsys, "out/clip", map[string]int{
		"clip.mp4":         MinVideoSize + 1,
		"clip.en.vtt":      100,
		"clip.zh-Hans.vtt": 100,
		"clip.fr.vtt":      100,
	})

	n := &Normalizer{FS: fsys}
	art, err := n.Run("out", "clip", []string{"zh", "en"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if art.SubtitleVTT == "" {
		t.Fatal("caption missing")
	}
	data, _ := afero.ReadFile(fsys, filepath.Join("out", art.SubtitleVTT))
	_ = data // content is zero bytes; the chosen source is verified below

	// zh-Hans must be the file that was renamed: the others keep their names.
	for _, leftover := range []string{"clip.en.vtt", "clip.fr.vtt"} {
		if ok, _ := afero.Exists(fsys, filepath.Join("out/clip", leftover)); !ok {
			t.Errorf("%s should not have been chosen", leftover)
		}
	}
	if ok, _ := afero.Exists(fsys, "out/clip/clip.zh-Hans.vtt"); ok {
		t.Error("zh-Hans caption should have been renamed to subtitle.vtt")
	}
}

func TestCaptionSiblingSynthesis(t *testing.T) {
	// WHAT: A lone .vtt grows a converted .srt sibling (and vice versa).
	fsys := afero.NewMemMapFs()
	vtt := "WEBVTT\n\n00:00:01.000 --> 00:00:02.000\nhello\n"
	seed(t, fsys, "out/clip", map[string]int{"clip.mp4": MinVideoSize + 1})
	if err := afero.WriteFile(fsys, "out/clip/clip.zh.vtt", []byte(vtt), 0o644); err != nil {
		t.Fatal(err)
	}

	n := &Normalizer{FS: fsys}
	art, err := n.Run("out", "clip", []string{"zh"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if art.SubtitleSRT == "" {
		t.Fatal("srt sibling should have been synthesized")
	}
	data, err := afero.ReadFile(fsys, filepath.Join("out", art.SubtitleSRT))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "00:00:01,000 --> 00:00:02,000") {
		t.Errorf("synthesized srt content wrong: %q", string(data))
	}
}

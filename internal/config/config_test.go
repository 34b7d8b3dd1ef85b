package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("missing file must not error: %v", err)
	}
	if cfg.Download.OutputDir != "./output" {
		t.Errorf("output_dir = %q", cfg.Download.OutputDir)
	}
	if len(cfg.Download.Languages) != 2 || cfg.Download.Languages[0] != "zh" {
		t.Errorf("languages = %v", cfg.Download.Languages)
	}
	if cfg.Browser.SettleInterval != 5*time.Second {
		t.Errorf("settle = %v", cfg.Browser.SettleInterval)
	}
}

func TestLoadOverridesAndDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
download:
  output_dir: /srv/media
  languages: [ja]
  cookies_from_browser: chrome
browser:
  settle_interval: 2s
tools:
  ffmpeg_path: /opt/ffmpeg/bin/ffmpeg
history:
  db_path: history.db
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Download.OutputDir != "/srv/media" {
		t.Errorf("output_dir = %q", cfg.Download.OutputDir)
	}
	if len(cfg.Download.Languages) != 1 || cfg.Download.Languages[0] != "ja" {
		t.Errorf("languages = %v", cfg.Download.Languages)
	}
	if cfg.Download.CookiesFromBrowser != "chrome" {
		t.Errorf("cookies_from_browser = %q", cfg.Download.CookiesFromBrowser)
	}
	if cfg.Browser.SettleInterval != 2*time.Second {
		t.Errorf("settle = %v", cfg.Browser.SettleInterval)
	}
	// Unset fields still get defaults.
	if cfg.Browser.NavTimeout != 30*time.Second {
		t.Errorf("nav_timeout = %v", cfg.Browser.NavTimeout)
	}
	if cfg.Download.Quality != "best" {
		t.Errorf("quality = %q", cfg.Download.Quality)
	}
	if cfg.Tools.FFmpegPath != "/opt/ffmpeg/bin/ffmpeg" {
		t.Errorf("ffmpeg = %q", cfg.Tools.FFmpegPath)
	}
	if cfg.History.DBPath != "history.db" {
		t.Errorf("db_path = %q", cfg.History.DBPath)
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("download: ["), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("malformed yaml must error")
	}
}

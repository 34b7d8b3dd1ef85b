// Package config loads the pipeline configuration from YAML. A missing
// file is not an error: every knob has a default.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration.
type Config struct {
	Download DownloadConfig `yaml:"download"`
	Browser  BrowserConfig  `yaml:"browser"`
	Tools    ToolsConfig    `yaml:"tools"`
	History  HistoryConfig  `yaml:"history"`
}

// DownloadConfig carries the per-acquisition defaults the CLI can
// override.
type DownloadConfig struct {
	OutputDir          string   `yaml:"output_dir"`
	Languages          []string `yaml:"languages"`
	Quality            string   `yaml:"quality"`
	CookiesFromBrowser string   `yaml:"cookies_from_browser"`
	CookieFile         string   `yaml:"cookie_file"`
	AudioOnly          bool     `yaml:"audio_only"`
}

// BrowserConfig bounds the escalation browser session.
type BrowserConfig struct {
	SettleInterval time.Duration `yaml:"settle_interval"`
	NavTimeout     time.Duration `yaml:"nav_timeout"`
	LaunchTimeout  time.Duration `yaml:"launch_timeout"`
}

// ToolsConfig pins external tool locations. Empty values mean PATH
// lookup at startup; nothing later mutates the environment.
type ToolsConfig struct {
	YtdlpPath  string `yaml:"ytdlp_path"`
	FFmpegPath string `yaml:"ffmpeg_path"`
}

// HistoryConfig controls the acquisition history database. An empty path
// disables recording.
type HistoryConfig struct {
	DBPath string `yaml:"db_path"`
}

// DefaultPath is where Load looks when no path is given.
const DefaultPath = "config.yaml"

// Load reads a YAML config file. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// fall through to defaults
	case err != nil:
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Download.OutputDir == "" {
		c.Download.OutputDir = "./output"
	}
	if len(c.Download.Languages) == 0 {
		c.Download.Languages = []string{"zh", "en"}
	}
	if c.Download.Quality == "" {
		c.Download.Quality = "best"
	}
	if c.Browser.SettleInterval <= 0 {
		c.Browser.SettleInterval = 5 * time.Second
	}
	if c.Browser.NavTimeout <= 0 {
		c.Browser.NavTimeout = 30 * time.Second
	}
	if c.Browser.LaunchTimeout <= 0 {
		c.Browser.LaunchTimeout = 30 * time.Second
	}
}

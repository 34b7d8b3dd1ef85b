package acquire

import "time"

// Request describes one acquisition. Immutable once handed to Run.
type Request struct {
	URL                string
	OutputDir          string
	Languages          []string
	Quality            string
	CookiesFromBrowser string // browser profile name for the extractor
	CookieFile         string // Netscape cookie file for browser injection
	AudioOnly          bool
}

// Result is the final record of one acquisition. Exactly one of
// {Success with Folder and artifacts, !Success with Error} holds.
type Result struct {
	Success            bool   `json:"success"`
	Folder             string `json:"folder,omitempty"`
	Title              string `json:"title,omitempty"`
	Video              string `json:"video,omitempty"`
	Audio              string `json:"audio,omitempty"`
	Subtitle           string `json:"subtitle,omitempty"`
	SubtitleSRT        string `json:"subtitle_srt,omitempty"`
	Info               string `json:"info,omitempty"`
	NeedsTranscription bool   `json:"needs_transcription"`
	Error              string `json:"error,omitempty"`
}

// placeholderTitle names the output folder when no stage recovered a
// title.
func placeholderTitle(now time.Time) string {
	return "download_" + now.Format("20060102_150405")
}

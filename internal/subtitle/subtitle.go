// Package subtitle converts caption text between WebVTT and SubRip.
// Single-pass text transforms, no timestamp arithmetic beyond reformatting.
package subtitle

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Format identifies a caption text format.
type Format string

const (
	VTT Format = "vtt"
	SRT Format = "srt"
)

// Detect sniffs the format from content: a WEBVTT header means VTT,
// anything else is treated as SRT.
func Detect(content string) Format {
	if strings.HasPrefix(strings.TrimSpace(content), "WEBVTT") {
		return VTT
	}
	return SRT
}

var tagPattern = regexp.MustCompile(`<[^>]+>`)

// VTTToSRT converts WebVTT content to SubRip: cues renumbered from 1,
// timestamps switched to comma-millisecond form, voice/span tags stripped,
// header and NOTE blocks dropped. Cues without text are dropped.
func VTTToSRT(content string) string {
	lines := strings.Split(strings.TrimSpace(content), "\n")

	i := 0
	for i < len(lines) {
		s := strings.TrimSpace(lines[i])
		if s == "" || strings.HasPrefix(s, "WEBVTT") || strings.HasPrefix(s, "NOTE") {
			i++
			continue
		}
		break
	}

	var out []string
	cue := 1
	for i < len(lines) {
		line := strings.TrimSpace(lines[i])
		if !strings.Contains(line, " --> ") {
			i++
			continue
		}
		parts := strings.SplitN(line, " --> ", 2)
		start := parseTime(parts[0])
		// Drop cue settings trailing the end timestamp.
		end := parseTime(strings.Fields(parts[1])[0])

		var text []string
		i++
		for i < len(lines) && strings.TrimSpace(lines[i]) != "" {
			t := tagPattern.ReplaceAllString(strings.TrimSpace(lines[i]), "")
			if t != "" {
				text = append(text, t)
			}
			i++
		}
		if len(text) > 0 {
			out = append(out, strconv.Itoa(cue))
			out = append(out, formatTime(start, ',')+" --> "+formatTime(end, ','))
			out = append(out, text...)
			out = append(out, "")
			cue++
		}
	}
	return strings.Join(out, "\n")
}

// SRTToVTT converts SubRip content to WebVTT: header prepended, cue index
// lines dropped, comma separators switched to dots.
func SRTToVTT(content string) string {
	lines := strings.Split(strings.TrimSpace(content), "\n")
	out := []string{"WEBVTT", ""}

	i := 0
	for i < len(lines) {
		line := strings.TrimSpace(lines[i])
		if isDigits(line) {
			i++
			continue
		}
		if !strings.Contains(line, " --> ") {
			i++
			continue
		}
		out = append(out, strings.ReplaceAll(line, ",", "."))
		i++
		for i < len(lines) && strings.TrimSpace(lines[i]) != "" {
			out = append(out, strings.TrimSpace(lines[i]))
			i++
		}
		out = append(out, "")
	}
	return strings.Join(out, "\n")
}

// Convert transforms content into the requested format; same-format input
// passes through unchanged.
func Convert(content string, to Format) string {
	from := Detect(content)
	switch {
	case from == to:
		return content
	case to == SRT:
		return VTTToSRT(content)
	default:
		return SRTToVTT(content)
	}
}

// parseTime reads "HH:MM:SS.mmm", "MM:SS.mmm", or bare seconds, with
// either comma or dot millisecond separators, into seconds.
func parseTime(s string) float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	parts := strings.Split(s, ":")
	var h, m int
	var sec float64
	switch len(parts) {
	case 3:
		h, _ = strconv.Atoi(parts[0])
		m, _ = strconv.Atoi(parts[1])
		sec, _ = strconv.ParseFloat(parts[2], 64)
	case 2:
		m, _ = strconv.Atoi(parts[0])
		sec, _ = strconv.ParseFloat(parts[1], 64)
	default:
		sec, _ = strconv.ParseFloat(parts[0], 64)
	}
	return float64(h)*3600 + float64(m)*60 + sec
}

func formatTime(seconds float64, msSep byte) string {
	total := int(math.Round(seconds * 1000))
	h := total / 3600000
	m := (total % 3600000) / 60000
	s := (total % 60000) / 1000
	ms := total % 1000
	return fmt.Sprintf("%02d:%02d:%02d%c%03d", h, m, s, msSep, ms)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

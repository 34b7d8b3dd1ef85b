// Package classify decides whether a failed direct download is worth a
// browser escalation. Pure logic, no side effects.
package classify

import (
	"strings"

	"github.com/xiexikang/video-link-pipeline/internal/platform"
)

// Classification categorizes an extractor failure.
type Classification string

const (
	// Terminal failures end the acquisition. Default.
	Terminal Classification = "terminal"

	// RetryableAntiBot failures look like bot mitigation on a site known
	// to deploy it; the pipeline escalates to a browser session.
	RetryableAntiBot Classification = "retryable_antibot"
)

// antiBotSignatures are lower-cased substrings that show up when a site
// returns a challenge or an empty payload instead of media.
var antiBotSignatures = []string{
	"cookie",
	"verify",
	"403",
	"json",
	"too small",
	"unsupported url",
	"no valid video file",
	"no files downloaded",
}

// Classify maps (error text, request URL) to a Classification. A signature
// match alone is not enough: the URL must also belong to a site known to
// deploy bot mitigation, otherwise generic network faults on ordinary
// hosts would trigger pointless browser sessions.
func Classify(errText, rawURL string) Classification {
	if !platform.Lookup(rawURL).BotMitigated {
		return Terminal
	}
	msg := strings.ToLower(errText)
	for _, sig := range antiBotSignatures {
		if strings.Contains(msg, sig) {
			return RetryableAntiBot
		}
	}
	return Terminal
}

package resolve

import (
	"regexp"
	"strings"

	"github.com/xiexikang/video-link-pipeline/internal/browser"
)

// siteSuffixes is boilerplate sites append to page titles.
var siteSuffixes = []string{
	" - 抖音",
	" | 抖音",
	"-抖音",
	" | TikTok",
	" - TikTok",
	" |TikTok",
}

// bareSiteNames are titles that carry no content information at all.
var bareSiteNames = []string{"抖音", "douyin", "tiktok", "tiktok - make your day"}

var metaDescPattern = regexp.MustCompile(
	`<meta\s+(?:name="description"|property="og:description")\s+content="([^"]*)"`)

// resolveTitle prefers the page title element, falls back to the meta
// description, strips site boilerplate, and rejects bare site names.
// Allowed to fail: the caller substitutes a placeholder.
func (r *Resolver) resolveTitle(snap *browser.Snapshot) string {
	if t := cleanTitle(snap.Title); t != "" {
		return t
	}
	if m := metaDescPattern.FindStringSubmatch(snap.HTML); m != nil {
		if t := cleanTitle(m[1]); t != "" {
			return t
		}
	}
	return ""
}

func cleanTitle(raw string) string {
	t := strings.TrimSpace(raw)
	for _, suffix := range siteSuffixes {
		if cut, ok := strings.CutSuffix(t, suffix); ok {
			t = strings.TrimSpace(cut)
			break
		}
	}
	lower := strings.ToLower(t)
	for _, bare := range bareSiteNames {
		if lower == bare {
			return ""
		}
	}
	return t
}

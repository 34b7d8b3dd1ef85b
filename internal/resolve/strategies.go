package resolve

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strings"

	"github.com/xiexikang/video-link-pipeline/internal/browser"
	"github.com/xiexikang/video-link-pipeline/internal/platform"
)

// directSrc returns the first media element src/currentSrc that is not a
// blob pseudo-URL. Blob sources live only inside the browser's memory and
// can never be downloaded.
func directSrc(snap *browser.Snapshot) string {
	for _, el := range snap.Media {
		for _, src := range []string{el.CurrentSrc, el.Src} {
			if usable(src) {
				return src
			}
		}
	}
	return ""
}

// sourceChildren returns the first usable nested <source> address.
func sourceChildren(snap *browser.Snapshot) string {
	for _, el := range snap.Media {
		for _, src := range el.Sources {
			if usable(src) {
				return src
			}
		}
	}
	return ""
}

var mediaExts = []string{".mp4", ".m3u8", ".flv", ".ts"}

// networkSniff scans captured responses for media traffic. The response
// host must belong to the platform's CDN allowlist; without that gate,
// avatar clips and ad players produce false positives.
func networkSniff(snap *browser.Snapshot, plat platform.Platform) string {
	for _, ev := range snap.Events {
		if !usable(ev.URL) {
			continue
		}
		u, err := url.Parse(ev.URL)
		if err != nil {
			continue
		}
		path := strings.ToLower(u.Path)
		if strings.HasSuffix(path, ".js") || strings.HasSuffix(path, ".css") {
			continue
		}
		if !looksLikeMedia(path, ev.MIME) {
			continue
		}
		if !plat.MatchesCDN(u.Hostname()) {
			continue
		}
		return ev.URL
	}
	return ""
}

func looksLikeMedia(path, mime string) bool {
	if strings.HasPrefix(strings.ToLower(mime), "video/") {
		return true
	}
	for _, ext := range mediaExts {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// markupPatterns are structural fields ripped straight out of player
// state embedded in the page source, most specific first. The
// no-watermark address outranks the watermarked play address.
var markupPatterns = []struct {
	name string
	re   *regexp.Regexp
}{
	{"downloadAddr", regexp.MustCompile(`"downloadAddr"\s*:\s*"([^"]+)"`)},
	{"playAddr", regexp.MustCompile(`"playAddr"\s*:\s*"([^"]+)"`)},
	{"photoUrl", regexp.MustCompile(`"photoUrl"\s*:\s*"([^"]+)"`)},
	{"url", regexp.MustCompile(`"url"\s*:\s*"(https?:[^"]+?)"`)},
	{"baseURL", regexp.MustCompile(`<BaseURL>([^<]+)</BaseURL>`)},
}

// markupScan tries each pattern in order against the raw page markup and
// returns the first unescaped value that plausibly points at video.
func markupScan(html string) (addr, pattern string) {
	for _, p := range markupPatterns {
		for _, m := range p.re.FindAllStringSubmatch(html, 8) {
			v := unescape(m[1])
			if !usable(v) {
				continue
			}
			lower := strings.ToLower(v)
			if !strings.Contains(lower, ".mp4") && !strings.Contains(lower, "video") {
				continue
			}
			return v, p.name
		}
	}
	return "", ""
}

// unescape decodes JSON string escapes (\/ and \uXXXX forms) found in
// embedded player state. Values that fail to decode are used as-is.
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var out string
	if err := json.Unmarshal([]byte(`"`+s+`"`), &out); err == nil {
		return out
	}
	return strings.NewReplacer(`\/`, "/", `/`, "/", `/`, "/", `&`, "&").Replace(s)
}

func usable(addr string) bool {
	return addr != "" && !strings.HasPrefix(strings.ToLower(addr), "blob:")
}

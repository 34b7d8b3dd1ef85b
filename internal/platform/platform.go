// Package platform carries per-site knowledge: which sites deploy bot
// mitigation, which CDN hosts serve their media, and which referrer a
// direct download must present.
package platform

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// MobileUserAgent is the user agent presented by both the emulated
// browser session and any direct CDN download, so the two look like the
// same client.
const MobileUserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"

// Platform describes one known video site.
type Platform struct {
	// Name is a short identifier ("douyin", "tiktok").
	Name string

	// Home is the origin to navigate to before cookie injection.
	Home string

	// Referer is the header value a direct CDN download must present.
	Referer string

	// BotMitigated marks sites known to block non-browser clients.
	BotMitigated bool

	// CDNHosts are registered domains whose responses may be treated as
	// media candidates during network sniffing.
	CDNHosts []string
}

var known = []Platform{
	{
		Name:         "douyin",
		Home:         "https://www.douyin.com",
		Referer:      "https://www.douyin.com/",
		BotMitigated: true,
		CDNHosts:     []string{"douyinvod.com", "zjcdn.com", "douyinstatic.com", "amemv.com"},
	},
	{
		Name:         "tiktok",
		Home:         "https://www.tiktok.com",
		Referer:      "https://www.tiktok.com/",
		BotMitigated: true,
		CDNHosts:     []string{"tiktokcdn.com", "tiktokcdn-us.com", "tiktokv.com", "akamaized.net"},
	},
}

var hostIndex = buildIndex()

func buildIndex() map[string]*Platform {
	idx := make(map[string]*Platform)
	for i := range known {
		p := &known[i]
		u, err := url.Parse(p.Home)
		if err != nil {
			continue
		}
		idx[registered(u.Hostname())] = p
		// Short-link and legacy hosts that don't share the home domain.
		switch p.Name {
		case "douyin":
			idx["iesdouyin.com"] = p
		}
	}
	return idx
}

// Lookup returns the platform for rawURL's host. Unknown hosts return a
// zero-value Platform with BotMitigated=false.
func Lookup(rawURL string) Platform {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Platform{}
	}
	if p, ok := hostIndex[registered(u.Hostname())]; ok {
		return *p
	}
	return Platform{}
}

// MatchesCDN reports whether host belongs to one of the platform's CDN
// domains. A zero-value platform matches nothing.
func (p Platform) MatchesCDN(host string) bool {
	reg := registered(host)
	for _, d := range p.CDNHosts {
		if reg == d {
			return true
		}
	}
	return false
}

// registered reduces a host to its registered domain (eTLD+1) so that
// subdomains like v26-web.douyinvod.com match douyinvod.com.
func registered(host string) string {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if reg, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return reg
	}
	return host
}

var idPattern = regexp.MustCompile(`/(?:video|note|photo)/(\d+)`)

// IDFromURL extracts the numeric content identifier embedded in a share
// URL, or "" when the URL carries none. Used to detect redirect mismatch
// after browser navigation.
func IDFromURL(rawURL string) string {
	m := idPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return ""
	}
	return m[1]
}

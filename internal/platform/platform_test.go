package platform

import "testing"

func TestLookup(t *testing.T) {
	// WHAT: Known hosts resolve to their platform, subdomains included.
	// WHY: Classification and CDN filtering both key off this lookup.
	cases := []struct {
		url          string
		name         string
		botMitigated bool
	}{
		{"https://www.douyin.com/video/7123456789012345678", "douyin", true},
		{"https://v.douyin.com/abc123/", "douyin", true},
		{"https://www.iesdouyin.com/share/video/7123/", "douyin", true},
		{"https://www.tiktok.com/@user/video/7123", "tiktok", true},
		{"https://www.youtube.com/watch?v=abc", "", false},
		{"https://example.org/clip.mp4", "", false},
		{"not a url", "", false},
	}
	for _, tc := range cases {
		p := Lookup(tc.url)
		if p.Name != tc.name {
			t.Errorf("Lookup(%q).Name = %q, want %q", tc.url, p.Name, tc.name)
		}
		if p.BotMitigated != tc.botMitigated {
			t.Errorf("Lookup(%q).BotMitigated = %v, want %v", tc.url, p.BotMitigated, tc.botMitigated)
		}
	}
}

func TestMatchesCDN(t *testing.T) {
	// WHAT: CDN matching compares registered domains, not full hosts.
	// WHY: Media hosts carry rotating subdomain prefixes (v26-web-...).
	douyin := Lookup("https://www.douyin.com/video/1")
	if !douyin.MatchesCDN("v26-web.douyinvod.com") {
		t.Error("douyinvod subdomain should match douyin CDN list")
	}
	if !douyin.MatchesCDN("zjcdn.com") {
		t.Error("bare zjcdn.com should match")
	}
	if douyin.MatchesCDN("cdn.example.com") {
		t.Error("unrelated host must not match")
	}

	var none Platform
	if none.MatchesCDN("douyinvod.com") {
		t.Error("zero-value platform must match nothing")
	}
}

func TestIDFromURL(t *testing.T) {
	if got := IDFromURL("https://www.douyin.com/video/7123456789012345678"); got != "7123456789012345678" {
		t.Errorf("IDFromURL = %q", got)
	}
	if got := IDFromURL("https://www.tiktok.com/@u/photo/999"); got != "999" {
		t.Errorf("photo id = %q", got)
	}
	if got := IDFromURL("https://v.douyin.com/abc123/"); got != "" {
		t.Errorf("short link should carry no id, got %q", got)
	}
}

package classify

import "testing"

func TestClassify(t *testing.T) {
	// WHAT: Both conditions (signature AND mitigated domain) must hold.
	// WHY: A 403 on an ordinary host is a real failure, not bot blocking.
	const douyin = "https://www.douyin.com/video/7123456789012345678"
	const plain = "https://example.org/v/1.mp4"

	cases := []struct {
		name string
		err  string
		url  string
		want Classification
	}{
		{"403 on mitigated domain", "HTTP Error 403: Forbidden", douyin, RetryableAntiBot},
		{"403 on plain domain", "HTTP Error 403: Forbidden", plain, Terminal},
		{"verify challenge", "Please verify you are human", douyin, RetryableAntiBot},
		{"cookie wall", "Fresh cookies are needed", douyin, RetryableAntiBot},
		{"json instead of media", "Failed to parse JSON response", douyin, RetryableAntiBot},
		{"undersized payload", "downloaded file too small", douyin, RetryableAntiBot},
		{"unsupported url", "Unsupported URL: https://v.douyin.com/x", douyin, RetryableAntiBot},
		{"nothing downloaded", "ERROR: no files downloaded", douyin, RetryableAntiBot},
		{"no valid file", "No valid video file found", douyin, RetryableAntiBot},
		{"generic network error on mitigated domain", "connection reset by peer", douyin, Terminal},
		{"generic network error on plain domain", "connection reset by peer", plain, Terminal},
		{"signature case-insensitive", "VERIFY REQUIRED", douyin, RetryableAntiBot},
		{"empty error", "", douyin, Terminal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.err, tc.url); got != tc.want {
				t.Errorf("Classify(%q, %q) = %v, want %v", tc.err, tc.url, got, tc.want)
			}
		})
	}
}

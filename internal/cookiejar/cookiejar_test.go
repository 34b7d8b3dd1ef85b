package cookiejar

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCookieFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cookies.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeCookieFile(t, "# Netscape HTTP Cookie File\n"+
		"\n"+
		".douyin.com\tTRUE\t/\tTRUE\t1893456000\tsessionid\tabc123\n"+
		"malformed line without tabs\n"+
		".douyin.com\tTRUE\t/\tFALSE\t0\tttwid\txyz\n"+
		"short\tline\tonly\n"+
		"www.tiktok.com\tFALSE\t/\tTRUE\t1893456000\tmsToken\ttok=en\tv2\n")

	records := Load(path, nil)
	require.Len(t, records, 3, "malformed and comment lines must be skipped")

	assert.Equal(t, ".douyin.com", records[0].Domain)
	assert.Equal(t, "sessionid", records[0].Name)
	assert.Equal(t, "abc123", records[0].Value)
	assert.True(t, records[0].Secure)
	assert.EqualValues(t, 1893456000, records[0].Expires)

	assert.Equal(t, "ttwid", records[1].Name)
	assert.False(t, records[1].Secure)
	assert.EqualValues(t, 0, records[1].Expires)

	// Extra tabs in the value column belong to the value.
	assert.Equal(t, "msToken", records[2].Name)
	assert.Equal(t, "tok=en\tv2", records[2].Value)
}

func TestLoadMissingFile(t *testing.T) {
	records := Load(filepath.Join(t.TempDir(), "nope.txt"), nil)
	assert.Nil(t, records, "missing file means zero cookies, not an error")
}

func TestMatchesDomain(t *testing.T) {
	cases := []struct {
		domain string
		host   string
		want   bool
	}{
		{".douyin.com", "www.douyin.com", true},
		{".douyin.com", "douyin.com", true},
		{"douyin.com", "www.douyin.com", true},
		{"www.douyin.com", "www.douyin.com", true},
		{".douyin.com", "www.tiktok.com", false},
		{".douyin.com", "notdouyin.com", false},
		{"", "www.douyin.com", false},
	}
	for _, tc := range cases {
		r := Record{Domain: tc.domain}
		assert.Equal(t, tc.want, r.MatchesDomain(tc.host),
			"domain %q vs host %q", tc.domain, tc.host)
	}
}

func TestFilterForHost(t *testing.T) {
	records := []Record{
		{Domain: ".douyin.com", Name: "a"},
		{Domain: ".tiktok.com", Name: "b"},
		{Domain: "www.douyin.com", Name: "c"},
	}
	got := FilterForHost(records, "www.douyin.com")
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Name)
	assert.Equal(t, "c", got[1].Name, "order must be preserved")
}

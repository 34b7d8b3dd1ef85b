// Package cookiejar reads Netscape-style cookie files into records ready
// for browser injection.
package cookiejar

import (
	"bufio"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Record is one cookie line from a Netscape cookies.txt file.
type Record struct {
	Domain  string
	Path    string
	Secure  bool
	Expires int64 // unix seconds, 0 = session cookie
	Name    string
	Value   string
}

// Load parses a Netscape cookie file. Comment lines, blank lines, and
// lines with fewer than 7 tab-separated fields are skipped. Read or parse
// trouble never propagates: the acquisition proceeds with zero cookies.
func Load(path string, logger *slog.Logger) []Record {
	if logger == nil {
		logger = slog.Default()
	}
	f, err := os.Open(path)
	if err != nil {
		logger.Warn("cookiejar: open failed, continuing without cookies",
			"path", path, "error", err)
		return nil
	}
	defer f.Close()

	var records []Record
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 7 {
			continue
		}
		expires, _ := strconv.ParseInt(fields[4], 10, 64)
		records = append(records, Record{
			Domain:  fields[0],
			Path:    fields[2],
			Secure:  strings.EqualFold(fields[3], "TRUE"),
			Expires: expires,
			Name:    fields[5],
			// The value column may itself contain '=' or spaces; it is
			// everything from the seventh field on.
			Value: strings.Join(fields[6:], "\t"),
		})
	}
	if err := sc.Err(); err != nil {
		logger.Warn("cookiejar: scan failed, using cookies parsed so far",
			"path", path, "error", err)
	}
	return records
}

// MatchesDomain reports whether the record applies to host: exact match,
// or the record domain (with or without a leading dot) is a suffix label
// of host.
func (r Record) MatchesDomain(host string) bool {
	host = strings.ToLower(host)
	d := strings.ToLower(strings.TrimPrefix(r.Domain, "."))
	if d == "" {
		return false
	}
	return host == d || strings.HasSuffix(host, "."+d)
}

// FilterForHost returns only the records applicable to host, order
// preserved.
func FilterForHost(records []Record, host string) []Record {
	var out []Record
	for _, r := range records {
		if r.MatchesDomain(host) {
			out = append(out, r)
		}
	}
	return out
}

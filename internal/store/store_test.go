package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i, row := range []Row{
		{URL: "https://www.douyin.com/video/1", Title: "first", Success: true, Folder: "first"},
		{URL: "https://example.org/x", Success: false, Error: "connection reset"},
		{URL: "https://www.douyin.com/video/2", Title: "second", Success: true, NeedsTranscription: true},
	} {
		row.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if _, err := s.Record(ctx, row); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	rows, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("len = %d", len(rows))
	}
	if rows[0].Title != "second" || !rows[0].NeedsTranscription {
		t.Errorf("newest first: %+v", rows[0])
	}
	if rows[1].Error != "connection reset" || rows[1].Success {
		t.Errorf("failed row: %+v", rows[1])
	}
}

func TestRecordGeneratesID(t *testing.T) {
	s := openTest(t)
	id, err := s.Record(context.Background(), Row{URL: "u", Success: true})
	if err != nil {
		t.Fatal(err)
	}
	if id == "" {
		t.Fatal("id must be generated")
	}
}

package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/franz/media-tracker/internal/media"
)

func TestWriteUnmatched(t *testing.T) {
	entries := []UnmatchedEntry{
		{
			Original: "[Unknown Group] Nothing Like This [1080p]",
			Status:   "no_match",
			Message:  "No matches found on AniList",
			Titles:   media.Titles{English: "Nothing Like This", Romaji: "Nothing Like This"},
		},
		{
			Original: "1080p BDRip x265",
			Status:   "error",
			Message:  "Could not extract any titles from entry",
		},
	}

	var buf bytes.Buffer
	if err := WriteUnmatched(&buf, media.KindAnime, entries); err != nil {
		t.Fatalf("WriteUnmatched failed: %v", err)
	}

	want := "Unmatched Anime Entries (2 total)\n" +
		strings.Repeat("=", 80) + "\n\n" +
		"1. [Unknown Group] Nothing Like This [1080p]\n" +
		"   Status: no_match\n" +
		"   Message: No matches found on AniList\n" +
		"   Parsed titles: {english: Nothing Like This, romaji: Nothing Like This}\n\n" +
		"2. 1080p BDRip x265\n" +
		"   Status: error\n" +
		"   Message: Could not extract any titles from entry\n" +
		"   Parsed titles: {}\n\n"
	if buf.String() != want {
		t.Errorf("Unexpected export:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestExportUnmatchedCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "unmatched.txt")
	if err := ExportUnmatched(path, media.KindMovie, nil); err != nil {
		t.Fatalf("ExportUnmatched failed: %v", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read export: %v", err)
	}
	if !strings.HasPrefix(string(content), "Unmatched Movie Entries (0 total)\n") {
		t.Errorf("Unexpected header: %q", content)
	}
}

func TestSummaryReportCounts(t *testing.T) {
	r := NewSummaryReport("run", "list.ods", "Anime")
	r.AddOutcome("success", "Found 2 match(es)", false, nil)
	r.AddOutcome("success", "Found 1 match(es) [cached search]", true, nil)
	r.AddOutcome("duplicate", "All 1 match(es) already in database", false,
		[]DuplicateInfo{{Entry: "[x] AIR", Candidate: "AIR (2005)", Existing: "AIR (2005)"}})
	r.AddOutcome("error", "Search error: rate limited", false, nil)
	r.AddOutcome("error", "Search error: rate limited", false, nil)
	r.AddOutcome("error", "Could not extract any titles from entry", false, nil)
	r.AddPersisted(2, 1, 0)

	if r.Entries != 6 || r.StatusCounts["success"] != 2 || r.StatusCounts["error"] != 3 || r.CachedHits != 1 {
		t.Errorf("Unexpected counts: %+v", r)
	}

	errs := r.TopErrors(10)
	if len(errs) != 2 || errs[0].Error != "Search error: rate limited" || errs[0].Count != 2 {
		t.Errorf("Unexpected top errors: %+v", errs)
	}
	if got := r.TopErrors(1); len(got) != 1 {
		t.Errorf("TopErrors should honor the limit, got %d", len(got))
	}
}

func TestWriteMarkdownReport(t *testing.T) {
	r := NewSummaryReport("0b7e", "list.ods", "Anime")
	r.DatabasePath = "mtrack.db"
	r.Duration = 90 * time.Second
	r.AddOutcome("success", "Found 1 match(es)", false, nil)
	r.AddOutcome("duplicate", "All 1 match(es) already in database", false,
		[]DuplicateInfo{{Entry: "[x] AIR", Candidate: "AIR (2005)", Existing: "AIR (2005)"}})
	r.AddOutcome("error", "Search error: boom", false, nil)
	r.AddPersisted(1, 0, 0)

	path := filepath.Join(t.TempDir(), "summary.md")
	if err := WriteMarkdownReport(r, path); err != nil {
		t.Fatalf("WriteMarkdownReport failed: %v", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read report: %v", err)
	}
	md := string(content)

	for _, want := range []string{
		"# Media Tracker - Import Summary",
		"**Source:** `list.ods` (Anime)",
		"| success | 1 |",
		"| duplicate | 1 |",
		"| **total** | 3 |",
		"## Persistence",
		"| Added | 1 |",
		"## Already Tracked",
		"| [x] AIR | AIR (2005) | AIR (2005) |",
		"## Top Errors",
		"| 1 | Search error: boom |",
		"*Run time: 1m30s*",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("Report missing %q", want)
		}
	}
	if strings.Contains(md, "no_match") {
		t.Error("Statuses without entries should not be listed")
	}
}

func TestWriteMarkdownReportEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.md")
	if err := WriteMarkdownReport(NewSummaryReport("", "", ""), path); err != nil {
		t.Fatalf("WriteMarkdownReport failed: %v", err)
	}
	content, _ := os.ReadFile(path)
	if strings.Contains(string(content), "## Persistence") || strings.Contains(string(content), "## Top Errors") {
		t.Errorf("Empty report should skip empty sections:\n%s", content)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 40); got != "short" {
		t.Errorf("truncate kept short text as %q", got)
	}
	long := strings.Repeat("a", 30) + strings.Repeat("b", 30)
	got := truncate(long, 20)
	if got != strings.Repeat("a", 8)+"..."+strings.Repeat("b", 8) {
		t.Errorf("truncate(long) = %q", got)
	}
}

package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// statusOrder is the display order of outcome statuses
var statusOrder = []string{"success", "partial_duplicate", "duplicate", "no_match", "error"}

// SummaryReport aggregates one import run for the Markdown summary
type SummaryReport struct {
	GeneratedAt time.Time
	Duration    time.Duration

	RunID        string
	Source       string
	Kind         string
	DatabasePath string
	EventLogPath string

	// Matching statistics
	Entries      int
	StatusCounts map[string]int
	CachedHits   int

	// Persistence statistics
	Added   int
	Skipped int
	Failed  int

	Duplicates []DuplicateInfo

	errorCounts map[string]int
}

// ErrorSummary represents an error message with its count
type ErrorSummary struct {
	Error string
	Count int
}

// DuplicateInfo is one candidate that was already tracked
type DuplicateInfo struct {
	Entry     string
	Candidate string
	Existing  string
}

// NewSummaryReport starts an empty report
func NewSummaryReport(runID, source, kind string) *SummaryReport {
	return &SummaryReport{
		GeneratedAt:  time.Now(),
		RunID:        runID,
		Source:       source,
		Kind:         kind,
		StatusCounts: make(map[string]int),
		errorCounts:  make(map[string]int),
	}
}

// AddOutcome counts one entry outcome
func (r *SummaryReport) AddOutcome(status, message string, cached bool, duplicates []DuplicateInfo) {
	r.Entries++
	r.StatusCounts[status]++
	if cached {
		r.CachedHits++
	}
	if status == "error" && message != "" {
		r.errorCounts[message]++
	}
	r.Duplicates = append(r.Duplicates, duplicates...)
}

// AddPersisted counts the result of a persistence pass
func (r *SummaryReport) AddPersisted(added, skipped, failed int) {
	r.Added += added
	r.Skipped += skipped
	r.Failed += failed
}

// TopErrors returns the most common error messages, most frequent first
func (r *SummaryReport) TopErrors(limit int) []ErrorSummary {
	errs := make([]ErrorSummary, 0, len(r.errorCounts))
	for msg, count := range r.errorCounts {
		errs = append(errs, ErrorSummary{Error: msg, Count: count})
	}
	sort.Slice(errs, func(i, j int) bool {
		if errs[i].Count != errs[j].Count {
			return errs[i].Count > errs[j].Count
		}
		return errs[i].Error < errs[j].Error
	})
	if len(errs) > limit {
		errs = errs[:limit]
	}
	return errs
}

// WriteMarkdownReport writes the summary report as Markdown
func WriteMarkdownReport(report *SummaryReport, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var md strings.Builder

	md.WriteString("# Media Tracker - Import Summary\n\n")
	md.WriteString(fmt.Sprintf("**Generated:** %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05")))
	if report.Source != "" {
		md.WriteString(fmt.Sprintf("**Source:** `%s` (%s)\n\n", report.Source, report.Kind))
	}
	if report.DatabasePath != "" {
		md.WriteString(fmt.Sprintf("**Database:** `%s`\n\n", report.DatabasePath))
	}
	if report.EventLogPath != "" {
		md.WriteString(fmt.Sprintf("**Event Log:** `%s`\n\n", report.EventLogPath))
	}
	if report.RunID != "" {
		md.WriteString(fmt.Sprintf("**Run:** `%s`\n\n", report.RunID))
	}

	md.WriteString("---\n\n")

	md.WriteString("## Matching\n\n")
	md.WriteString("| Status | Entries |\n")
	md.WriteString("|--------|---------|\n")
	for _, status := range statusOrder {
		if n := report.StatusCounts[status]; n > 0 {
			md.WriteString(fmt.Sprintf("| %s | %d |\n", status, n))
		}
	}
	md.WriteString(fmt.Sprintf("| **total** | %d |\n", report.Entries))
	if report.CachedHits > 0 {
		md.WriteString(fmt.Sprintf("\n*%d entries answered from the search cache*\n", report.CachedHits))
	}
	if report.Duration > 0 {
		md.WriteString(fmt.Sprintf("\n*Run time: %s*\n", report.Duration.Round(time.Second)))
	}
	md.WriteString("\n")

	if report.Added > 0 || report.Skipped > 0 || report.Failed > 0 {
		md.WriteString("## Persistence\n\n")
		md.WriteString("| Metric | Value |\n")
		md.WriteString("|--------|-------|\n")
		md.WriteString(fmt.Sprintf("| Added | %d |\n", report.Added))
		md.WriteString(fmt.Sprintf("| Skipped (duplicates) | %d |\n", report.Skipped))
		if report.Failed > 0 {
			md.WriteString(fmt.Sprintf("| Failed | %d |\n", report.Failed))
		}
		md.WriteString("\n")
	}

	if len(report.Duplicates) > 0 {
		md.WriteString("## Already Tracked\n\n")
		md.WriteString("| Entry | Candidate | Existing |\n")
		md.WriteString("|-------|-----------|----------|\n")
		for _, d := range report.Duplicates {
			md.WriteString(fmt.Sprintf("| %s | %s | %s |\n", truncate(d.Entry, 40), d.Candidate, d.Existing))
		}
		md.WriteString("\n")
	}

	if errs := report.TopErrors(10); len(errs) > 0 {
		md.WriteString("## Top Errors\n\n")
		md.WriteString("| Count | Error |\n")
		md.WriteString("|-------|-------|\n")
		for _, e := range errs {
			md.WriteString(fmt.Sprintf("| %d | %s |\n", e.Count, e.Error))
		}
		md.WriteString("\n")
	}

	if err := os.WriteFile(outputPath, []byte(md.String()), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// truncate shortens s to maxLen runes, keeping the start and end
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	half := maxLen/2 - 2
	return string(runes[:half]) + "..." + string(runes[len(runes)-half:])
}

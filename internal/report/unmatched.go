package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/franz/media-tracker/internal/media"
)

// UnmatchedEntry is one entry that produced no usable match
type UnmatchedEntry struct {
	Original string
	Status   string
	Message  string
	Titles   media.Titles
}

// WriteUnmatched renders the unmatched-entries export: a header with the
// total, a rule, then one numbered block per entry
func WriteUnmatched(w io.Writer, kind media.Kind, entries []UnmatchedEntry) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "Unmatched %s Entries (%d total)\n", kind, len(entries))
	bw.WriteString(strings.Repeat("=", 80) + "\n\n")

	for i, e := range entries {
		fmt.Fprintf(bw, "%d. %s\n", i+1, e.Original)
		fmt.Fprintf(bw, "   Status: %s\n", e.Status)
		fmt.Fprintf(bw, "   Message: %s\n", e.Message)
		fmt.Fprintf(bw, "   Parsed titles: {%s}\n", e.Titles)
		bw.WriteString("\n")
	}
	return bw.Flush()
}

// ExportUnmatched writes the export to path, creating parent directories
func ExportUnmatched(path string, kind media.Kind, entries []UnmatchedEntry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export: %w", err)
	}
	if err := WriteUnmatched(f, kind, entries); err != nil {
		f.Close()
		return fmt.Errorf("failed to write export: %w", err)
	}
	return f.Close()
}

// Package spreadsheet reads raw import entries from the first column of a
// spreadsheet. Supported containers are OpenDocument (.ods) and Office Open
// XML workbooks (.xlsx, .xlsm).
package spreadsheet

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/franz/media-tracker/internal/util"
)

// Format identifies a supported container
type Format string

const (
	FormatODS  Format = "ods"
	FormatXLSX Format = "xlsx"
)

// DetectFormat maps a file extension to a container format
func DetectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".ods":
		return FormatODS, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	default:
		if ext == "" {
			ext = "(none)"
		}
		return "", fmt.Errorf("%w: %s", util.ErrFileFormat, ext)
	}
}

// ExtractEntries returns the trimmed, non-empty first-column values of every
// data row, in sheet order. The first row is a header and is skipped.
func ExtractEntries(path string) ([]string, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	var entries []string
	switch format {
	case FormatODS:
		entries, err = readODS(path)
	case FormatXLSX:
		entries, err = readXLSX(path)
	}
	if err != nil {
		return nil, err
	}

	util.DebugLog("Extracted %d entries from %s", len(entries), filepath.Base(path))
	return entries, nil
}

// collectFirstColumn applies the header skip and the trim/non-empty rule
func collectFirstColumn(rows []string) []string {
	var entries []string
	for i, cell := range rows {
		if i == 0 {
			continue
		}
		if v := strings.TrimSpace(cell); v != "" {
			entries = append(entries, v)
		}
	}
	return entries
}

package importer

import (
	"fmt"

	"github.com/franz/media-tracker/internal/media"
)

// Status is the result class of one imported entry
type Status string

const (
	StatusSuccess          Status = "success"
	StatusPartialDuplicate Status = "partial_duplicate"
	StatusDuplicate        Status = "duplicate"
	StatusNoMatch          Status = "no_match"
	StatusError            Status = "error"
)

// Match is a scored candidate with its duplicate label
type Match struct {
	media.Candidate
	Duplicate bool
	Existing  string // description of the tracked item when Duplicate
}

// Outcome is the result of one spreadsheet entry
type Outcome struct {
	Index      int // 1-based position in the file; 0 for file-level errors
	Original   string
	Titles     media.Titles
	Matches    []Match // above the confidence floor, best first
	Status     Status
	Message    string
	Confidence float64 // confidence of the best match
	Cached     bool
	Err        error
}

// New returns the candidates that are not yet tracked
func (o *Outcome) New() []media.Candidate {
	var out []media.Candidate
	for _, m := range o.Matches {
		if !m.Duplicate {
			out = append(out, m.Candidate)
		}
	}
	return out
}

// Unmatched reports whether the entry needs manual attention
func (o *Outcome) Unmatched() bool {
	return o.Status == StatusNoMatch || o.Status == StatusError
}

func errorOutcome(index int, original string, titles media.Titles, err error, format string, args ...any) *Outcome {
	return &Outcome{
		Index:    index,
		Original: original,
		Titles:   titles,
		Status:   StatusError,
		Message:  fmt.Sprintf(format, args...),
		Err:      err,
	}
}

// summarize sets status and message from the duplicate partition
func (o *Outcome) summarize(newCount, dupCount int) {
	switch {
	case newCount == 0:
		o.Status = StatusDuplicate
		o.Message = fmt.Sprintf("All %d match(es) already in database", dupCount)
	case dupCount > 0:
		o.Status = StatusPartialDuplicate
		o.Message = fmt.Sprintf("Found %d new match(es), %d duplicate(s)", newCount, dupCount)
	default:
		o.Status = StatusSuccess
		o.Message = fmt.Sprintf("Found %d match(es)", newCount)
	}
	if o.Cached {
		o.Message += " [cached search]"
	}
}

// EventType tags an import Event
type EventType int

const (
	EventProgress EventType = iota
	EventOutcome
	EventDone
)

// Progress reports which entry is being processed
type Progress struct {
	Current int
	Total   int
	Text    string // entry text, truncated
}

// Event is one notification of a run. Events arrive in entry order: for
// each entry a Progress then its Outcome, and finally a single Done.
type Event struct {
	Type     EventType
	Progress Progress
	Outcome  *Outcome
	Err      error // Done only: nil, util.ErrCancelled, or the file error
}

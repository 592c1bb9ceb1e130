package importer

import (
	"fmt"

	"github.com/franz/media-tracker/internal/media"
	"github.com/franz/media-tracker/internal/store"
)

// sessionSuffix marks duplicates that were accepted earlier in the same run
const sessionSuffix = " [added in this import]"

// ItemStore is the part of the media store the import pipeline uses
type ItemStore interface {
	FindDuplicate(kind media.Kind, externalID int64, title string, year int) (*store.Item, error)
	AddItem(it *store.Item) (int64, error)
	AddItemsBatch(items []*store.Item, skipDuplicates bool) (*store.BatchResult, error)
}

// DuplicateChecker decides whether a candidate is already tracked: first
// against ids accepted in the current run, then against the store by
// external id, then by exact title and year
type DuplicateChecker struct {
	store   ItemStore
	session *Session
}

// NewDuplicateChecker creates a checker over a store and a run session
func NewDuplicateChecker(st ItemStore, session *Session) *DuplicateChecker {
	return &DuplicateChecker{store: st, session: session}
}

// Check reports whether c is a duplicate and describes the existing item
func (d *DuplicateChecker) Check(c media.Candidate) (bool, string, error) {
	if c.ExternalID != 0 && d.session.Accepted(c.ExternalID) {
		return true, c.Describe() + sessionSuffix, nil
	}

	existing, err := d.store.FindDuplicate(c.Kind, c.ExternalID, c.Title, c.Year)
	if err != nil {
		return false, "", fmt.Errorf("duplicate check for %s: %w", c.Describe(), err)
	}
	if existing != nil {
		return true, existing.Describe(), nil
	}
	return false, "", nil
}

package importer

import (
	"fmt"

	"github.com/franz/media-tracker/internal/media"
	"github.com/franz/media-tracker/internal/metrics"
	"github.com/franz/media-tracker/internal/report"
	"github.com/franz/media-tracker/internal/store"
	"github.com/franz/media-tracker/internal/util"
)

// importSource is recorded as the provenance of imported items
const importSource = "import"

// Persister is the only writer of accepted candidates. Every candidate is
// checked for duplicates again right before it is written.
type Persister struct {
	store   ItemStore
	session *Session
	dups    *DuplicateChecker
	events  *report.EventLogger
	metrics *metrics.Metrics
}

// NewPersister creates a persister that shares the importer's session, so
// items it writes count as duplicates for the rest of the run
func NewPersister(im *Importer) *Persister {
	return &Persister{
		store:   im.cfg.Store,
		session: im.session,
		dups:    im.dups,
		events:  im.cfg.Events,
		metrics: im.cfg.Metrics,
	}
}

// Skipped is a candidate that was not written
type Skipped struct {
	Candidate media.Candidate
	Reason    string
}

// Failed is a candidate whose insert failed
type Failed struct {
	Candidate media.Candidate
	Err       error
}

// PersistResult reports a persistence pass
type PersistResult struct {
	Added   []*store.Item
	Skipped []Skipped
	Failed  []Failed
}

// ItemFromCandidate builds the record stored for an accepted candidate
func ItemFromCandidate(c media.Candidate, status media.Status) *store.Item {
	it := &store.Item{
		Title:       c.Title,
		NativeTitle: c.NativeTitle,
		RomajiTitle: c.RomajiTitle,
		Year:        c.Year,
		Kind:        c.Kind,
		Status:      status,
		Source:      importSource,
		PosterURL:   c.PosterURL,
	}
	if c.Kind == media.KindAnime {
		it.AniListID = c.ExternalID
	} else {
		it.TMDBID = c.ExternalID
	}
	return it
}

// Add writes candidates one at a time. A failing item is recorded and the
// rest are still written.
func (p *Persister) Add(cands []media.Candidate, status media.Status) *PersistResult {
	res := &PersistResult{}
	for _, c := range cands {
		dup, existing, err := p.dups.Check(c)
		if err != nil {
			res.fail(c, fmt.Errorf("%w: %w", util.ErrPersistence, err))
			p.events.LogPersist(c.ExternalID, c.Title, string(status), err)
			continue
		}
		if dup {
			res.Skipped = append(res.Skipped, Skipped{Candidate: c, Reason: existing})
			continue
		}

		it := ItemFromCandidate(c, status)
		if _, err := p.store.AddItem(it); err != nil {
			util.WarnLog("Failed to add %s: %v", c.Describe(), err)
			res.fail(c, fmt.Errorf("%w: %w", util.ErrPersistence, err))
			p.events.LogPersist(c.ExternalID, c.Title, string(status), err)
			continue
		}
		// visible to the duplicate checker immediately
		p.session.MarkAccepted(c.ExternalID)
		res.Added = append(res.Added, it)
		p.events.LogPersist(c.ExternalID, c.Title, string(status), nil)
	}
	p.record(res)
	return res
}

// AddBatch writes candidates in a single transaction. Duplicates found by
// the re-check are skipped; any insert failure rolls back the whole batch
// and is returned wrapped in util.ErrPersistence.
func (p *Persister) AddBatch(cands []media.Candidate, status media.Status) (*PersistResult, error) {
	res := &PersistResult{}
	var items []*store.Item
	var written []media.Candidate
	inBatch := make(map[int64]bool)

	for _, c := range cands {
		dup, existing, err := p.dups.Check(c)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", util.ErrPersistence, err)
		}
		if !dup && c.ExternalID != 0 && inBatch[c.ExternalID] {
			dup, existing = true, c.Describe()+" [repeated in this batch]"
		}
		if dup {
			res.Skipped = append(res.Skipped, Skipped{Candidate: c, Reason: existing})
			continue
		}
		inBatch[c.ExternalID] = true
		items = append(items, ItemFromCandidate(c, status))
		written = append(written, c)
	}

	if _, err := p.store.AddItemsBatch(items, false); err != nil {
		util.ErrorLog("Batch insert of %d item(s) rolled back: %v", len(items), err)
		p.events.LogPersist(0, fmt.Sprintf("batch of %d", len(items)), string(status), err)
		p.metrics.Persisted("failed", len(items))
		return nil, fmt.Errorf("%w: %w", util.ErrPersistence, err)
	}

	for i, c := range written {
		p.session.MarkAccepted(c.ExternalID)
		p.events.LogPersist(c.ExternalID, c.Title, string(status), nil)
		res.Added = append(res.Added, items[i])
	}
	p.record(res)
	return res, nil
}

func (r *PersistResult) fail(c media.Candidate, err error) {
	r.Failed = append(r.Failed, Failed{Candidate: c, Err: err})
}

func (p *Persister) record(res *PersistResult) {
	p.metrics.Persisted("added", len(res.Added))
	p.metrics.Persisted("skipped", len(res.Skipped))
	p.metrics.Persisted("failed", len(res.Failed))
}

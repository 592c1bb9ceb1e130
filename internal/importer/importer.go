// Package importer drives a smart bulk import: it reads spreadsheet
// entries, parses each into title variants, searches and scores catalog
// candidates, labels duplicates, and streams one outcome per entry. It never
// writes to the store; accepted candidates go through a Persister.
package importer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/franz/media-tracker/internal/match"
	"github.com/franz/media-tracker/internal/media"
	"github.com/franz/media-tracker/internal/metrics"
	"github.com/franz/media-tracker/internal/parse"
	"github.com/franz/media-tracker/internal/report"
	"github.com/franz/media-tracker/internal/spreadsheet"
	"github.com/franz/media-tracker/internal/util"
)

const (
	// progressTextLen is how much of an entry a progress event carries
	progressTextLen = 50

	eventBuffer = 16
)

// Config holds the collaborators of an Importer
type Config struct {
	Strategy match.Strategy
	Store    ItemStore

	// Parser defaults to the parser of the strategy's kind
	Parser parse.Parser

	// MinConfidence overrides the strategy's default floor when positive
	MinConfidence float64

	// Extract reads the raw entries of a file; defaults to spreadsheet.ExtractEntries
	Extract func(path string) ([]string, error)

	Events  *report.EventLogger
	Metrics *metrics.Metrics
}

// Importer runs imports for one media kind, one run at a time
type Importer struct {
	cfg     Config
	session *Session
	dups    *DuplicateChecker
	running atomic.Bool
	current atomic.Int64 // index of the entry being processed
}

// New creates an importer
func New(cfg Config) (*Importer, error) {
	if cfg.Strategy == nil {
		return nil, fmt.Errorf("%w: importer needs a search strategy", util.ErrInvalidConfig)
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("%w: importer needs a store", util.ErrInvalidConfig)
	}
	if cfg.Parser == nil {
		cfg.Parser = parse.ForKind(cfg.Strategy.Kind())
	}
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = cfg.Strategy.MinConfidence()
	}
	if cfg.Extract == nil {
		cfg.Extract = spreadsheet.ExtractEntries
	}

	session := NewSession()
	return &Importer{
		cfg:     cfg,
		session: session,
		dups:    NewDuplicateChecker(cfg.Store, session),
	}, nil
}

// Kind returns the media kind this importer handles
func (im *Importer) Kind() media.Kind {
	return im.cfg.Strategy.Kind()
}

// MinConfidence returns the effective confidence floor
func (im *Importer) MinConfidence() float64 {
	return im.cfg.MinConfidence
}

// Session returns the state shared by the current run and its persister
func (im *Importer) Session() *Session {
	return im.session
}

// Checker returns the duplicate checker bound to the session
func (im *Importer) Checker() *DuplicateChecker {
	return im.dups
}

// ObserveSearch records a strategy's remote call against the entry being
// processed. Pass it to the strategy as its observer.
func (im *Importer) ObserveSearch(ev match.SearchEvent) {
	index := int(im.current.Load())
	im.cfg.Events.LogSearch(index, ev.Tier, ev.Query, ev.Results, ev.Duration, ev.Err)
	im.cfg.Metrics.RemoteCall(string(ev.Kind), ev.Tier, ev.Duration, ev.Err)
}

// Run is one import in flight
type Run struct {
	ID     string
	Events <-chan Event
}

// Start begins importing path in the background. The run shares the event
// logger's id when there is one. The returned run's Events channel must be
// drained until it is closed. Only one run may be in flight
// per importer; a second Start fails with util.ErrRunInProgress.
func (im *Importer) Start(ctx context.Context, path string) (*Run, error) {
	if !im.running.CompareAndSwap(false, true) {
		return nil, util.ErrRunInProgress
	}

	id := im.cfg.Events.RunID()
	if id == "" {
		id = uuid.NewString()
	}
	events := make(chan Event, eventBuffer)
	run := &Run{ID: id, Events: events}

	go func() {
		defer close(events)
		defer im.running.Store(false)
		im.run(ctx, path, events)
	}()
	return run, nil
}

// Import runs synchronously, handing every event to fn, and returns the
// error carried by the final Done event
func (im *Importer) Import(ctx context.Context, path string, fn func(Event)) error {
	run, err := im.Start(ctx, path)
	if err != nil {
		return err
	}
	var runErr error
	for ev := range run.Events {
		if ev.Type == EventDone {
			runErr = ev.Err
		}
		if fn != nil {
			fn(ev)
		}
	}
	return runErr
}

func (im *Importer) run(ctx context.Context, path string, events chan<- Event) {
	im.session.Reset()
	im.cfg.Metrics.RunStarted()
	defer im.cfg.Metrics.RunFinished()

	kind := im.Kind()
	started := time.Now()

	entries, err := im.cfg.Extract(path)
	if err != nil {
		util.ErrorLog("Failed to read %s: %v", path, err)
		im.cfg.Events.LogError(report.EventError, path, err)
		im.emitOutcome(events, errorOutcome(0, path, media.Titles{}, err, "Failed to parse file: %v", err))
		events <- Event{Type: EventDone, Err: err}
		return
	}

	util.InfoLog("Importing %d %s entries from %s", len(entries), kind, path)
	im.cfg.Events.LogRun("start", path, string(kind), len(entries))

	for i, entry := range entries {
		index := i + 1
		if ctx.Err() != nil {
			im.cancelRemaining(events, entries[i:], index)
			return
		}

		im.current.Store(int64(index))
		events <- Event{Type: EventProgress, Progress: Progress{Current: index, Total: len(entries), Text: truncateRunes(entry, progressTextLen)}}

		out := im.processEntry(ctx, index, entry)
		if ctx.Err() != nil && (errors.Is(out.Err, context.Canceled) || errors.Is(out.Err, context.DeadlineExceeded)) {
			im.cancelRemaining(events, entries[i:], index)
			return
		}
		im.emitOutcome(events, out)
	}

	im.cfg.Events.LogRun("done", path, string(kind), len(entries))
	util.DebugLog("Import of %s finished in %s", path, time.Since(started).Round(time.Millisecond))
	events <- Event{Type: EventDone}
}

// cancelRemaining closes a cancelled run: every entry not yet reported gets
// an error outcome, then Done carries util.ErrCancelled
func (im *Importer) cancelRemaining(events chan<- Event, rest []string, firstIndex int) {
	util.WarnLog("Import cancelled, %d entries not processed", len(rest))
	for j, entry := range rest {
		im.emitOutcome(events, errorOutcome(firstIndex+j, entry, media.Titles{}, util.ErrCancelled, "Import cancelled"))
	}
	events <- Event{Type: EventDone, Err: util.ErrCancelled}
}

func (im *Importer) emitOutcome(events chan<- Event, out *Outcome) {
	im.cfg.Events.LogEntry(out.Index, out.Original, string(out.Status), out.Message, out.Confidence, len(out.Matches))
	im.cfg.Metrics.Outcome(string(im.Kind()), string(out.Status), out.Cached)
	events <- Event{Type: EventOutcome, Outcome: out}
}

// processEntry turns one raw entry into an outcome. Any failure, including
// a panic in parsing or scoring, becomes an error outcome for this entry.
func (im *Importer) processEntry(ctx context.Context, index int, entry string) (out *Outcome) {
	titles := media.Titles{}
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: %v", util.ErrEntry, r)
			util.ErrorLog("Entry %d (%s) failed: %v", index, truncateRunes(entry, progressTextLen), r)
			out = errorOutcome(index, entry, titles, err, "Processing error: %v", r)
		}
	}()

	titles = im.cfg.Parser.Parse(entry)
	if titles.Empty() {
		return errorOutcome(index, entry, titles, util.ErrEntry, "Could not extract any titles from entry")
	}
	util.DebugLog("Entry %d: %s", index, titles)

	cands, cached, err := im.cfg.Strategy.Search(ctx, im.session.Cache(), titles)
	if err != nil {
		if ctx.Err() != nil {
			return &Outcome{Index: index, Original: entry, Titles: titles, Status: StatusError, Err: ctx.Err()}
		}
		return errorOutcome(index, entry, titles, fmt.Errorf("%w: %w", util.ErrEntry, err), "Search error: %v", err)
	}

	out = &Outcome{Index: index, Original: entry, Titles: titles, Cached: cached}
	if len(cands) == 0 {
		out.Status = StatusNoMatch
		out.Message = "No matches found on " + catalogName(im.Kind())
		return out
	}

	var scored []media.Candidate
	for _, c := range cands {
		c.Confidence, c.MatchedOn = im.cfg.Strategy.Score(titles, c)
		if c.Confidence >= im.cfg.MinConfidence {
			scored = append(scored, c)
		}
	}
	if len(scored) == 0 {
		out.Status = StatusNoMatch
		out.Message = fmt.Sprintf("No matches with sufficient confidence (min %.0f%%)", im.cfg.MinConfidence*100)
		return out
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Confidence > scored[j].Confidence
	})

	var newCount, dupCount int
	for _, c := range scored {
		dup, existing, err := im.dups.Check(c)
		if err != nil {
			return errorOutcome(index, entry, titles, fmt.Errorf("%w: %w", util.ErrEntry, err), "Duplicate check failed: %v", err)
		}
		if dup {
			dupCount++
			im.cfg.Events.LogDuplicate(index, c.ExternalID, c.Title, existing)
		} else {
			newCount++
		}
		out.Matches = append(out.Matches, Match{Candidate: c, Duplicate: dup, Existing: existing})
	}

	out.Confidence = out.Matches[0].Confidence
	out.summarize(newCount, dupCount)
	return out
}

func catalogName(kind media.Kind) string {
	if kind == media.KindAnime {
		return "AniList"
	}
	return "TMDB"
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

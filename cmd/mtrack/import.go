package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/franz/media-tracker/internal/anilist"
	"github.com/franz/media-tracker/internal/importer"
	"github.com/franz/media-tracker/internal/match"
	"github.com/franz/media-tracker/internal/media"
	"github.com/franz/media-tracker/internal/metrics"
	"github.com/franz/media-tracker/internal/offline"
	"github.com/franz/media-tracker/internal/report"
	"github.com/franz/media-tracker/internal/store"
	"github.com/franz/media-tracker/internal/tmdb"
	"github.com/franz/media-tracker/internal/util"
)

var importCmd = &cobra.Command{
	Use:   "import <file.ods|file.xlsx>",
	Short: "Bulk-import a spreadsheet of titles",
	Long: `Import a spreadsheet of free-form entries, one per row in the first column
(the first row is a header).

Each entry is parsed into title variants and searched on AniList (anime) or
TMDB (movies and TV). Candidates are scored, filtered by a confidence floor,
and checked against the database. Nothing is written unless --accept is given:

  none  review only (default)
  top   add the best new match of every matched entry
  all   add every new match of every matched entry

With --strict the accepted items are written in one transaction; any failure
rolls all of them back.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringP("kind", "k", "", "media kind of the entries: movie, tv or anime (required)")
	importCmd.Flags().String("accept", "none", "which matches to add: none, top or all")
	importCmd.Flags().Bool("strict", false, "add accepted matches in a single all-or-nothing transaction")
	importCmd.Flags().String("status", string(media.StatusToDownload), "status given to added items")
	importCmd.Flags().Float64("min-confidence", 0, "confidence floor 0..1 (default: 0.40 anime, 0.35 movie/TV)")
	importCmd.Flags().String("export-unmatched", "", "write unmatched entries to this text file")
	importCmd.Flags().String("offline-db", "", "anime-offline-database JSON used to canonicalize anime titles")
	importCmd.Flags().String("report", "", "write a Markdown summary to this file")
	importCmd.Flags().String("artifacts", "", "directory for event logs (default \"artifacts\")")
	importCmd.MarkFlagRequired("kind")

	viper.BindPFlag(util.KeyImportMinConfidence, importCmd.Flags().Lookup("min-confidence"))
	viper.BindPFlag(util.KeyOfflineDatabase, importCmd.Flags().Lookup("offline-db"))
	viper.BindPFlag(util.KeyArtifacts, importCmd.Flags().Lookup("artifacts"))
}

func runImport(cmd *cobra.Command, args []string) error {
	path := args[0]

	kindFlag, _ := cmd.Flags().GetString("kind")
	kind, err := media.ParseKind(kindFlag)
	if err != nil {
		return err
	}
	acceptFlag, _ := cmd.Flags().GetString("accept")
	policy, err := importer.ParseAcceptPolicy(acceptFlag)
	if err != nil {
		return err
	}
	statusFlag, _ := cmd.Flags().GetString("status")
	status, err := media.ParseStatus(statusFlag)
	if err != nil {
		return err
	}
	strict, _ := cmd.Flags().GetBool("strict")
	unmatchedPath, _ := cmd.Flags().GetString("export-unmatched")
	reportPath, _ := cmd.Flags().GetString("report")

	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("cannot read %s: %w", path, err)
	}

	dbPath := GetConfigString(util.KeyDB, "mtrack.db")

	// One import per database at a time, across processes
	lock := flock.New(dbPath + ".import.lock")
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire import lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("%w: another import is using %s", util.ErrRunInProgress, dbPath)
	}
	defer lock.Unlock()

	util.InfoLog("Opening database: %s", dbPath)
	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	runID := uuid.NewString()
	events := openEventLogger(runID)
	defer events.Close()

	m, stopMetrics := startMetrics()
	defer stopMetrics()

	var im *importer.Importer
	observe := func(ev match.SearchEvent) { im.ObserveSearch(ev) }

	strategy, err := buildStrategy(kind, m, observe)
	if err != nil {
		return err
	}

	im, err = importer.New(importer.Config{
		Strategy:      strategy,
		Store:         db,
		MinConfidence: viper.GetFloat64(util.KeyImportMinConfidence),
		Events:        events,
		Metrics:       m,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	util.InfoLog("=== Import: %s (%s) ===", filepath.Base(path), kind)
	util.InfoLog("Confidence floor: %.0f%%", im.MinConfidence()*100)

	summary := report.NewSummaryReport(runID, path, string(kind))
	summary.DatabasePath = dbPath
	summary.EventLogPath = events.Path()

	progress := newProgressView(util.IsInteractive())
	var outcomes []*importer.Outcome
	start := time.Now()

	runErr := im.Import(ctx, path, func(ev importer.Event) {
		switch ev.Type {
		case importer.EventProgress:
			progress.update(ev.Progress)
		case importer.EventOutcome:
			progress.done()
			outcomes = append(outcomes, ev.Outcome)
			summary.AddOutcome(string(ev.Outcome.Status), ev.Outcome.Message, ev.Outcome.Cached, duplicatesOf(ev.Outcome))
		case importer.EventDone:
			progress.finish()
		}
	})
	summary.Duration = time.Since(start)

	if !util.IsQuiet() && len(outcomes) > 0 {
		fmt.Println(renderTable(
			[]string{"#", "Status", "Conf.", "Best match", "Message"},
			reviewRows(outcomes),
			[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignLeft},
		))
	}
	logStatusCounts(summary, len(outcomes))

	if unmatchedPath != "" {
		unmatched := unmatchedEntries(outcomes)
		if err := report.ExportUnmatched(unmatchedPath, kind, unmatched); err != nil {
			util.ErrorLog("Failed to export unmatched entries: %v", err)
		} else {
			util.InfoLog("Exported %d unmatched entries to %s", len(unmatched), unmatchedPath)
		}
	}

	// A cancelled run still shows what it found, but adds nothing
	if runErr == nil {
		if err := acceptMatches(im, outcomes, policy, status, strict, summary); err != nil {
			runErr = err
		}
	}

	if reportPath != "" {
		if err := report.WriteMarkdownReport(summary, reportPath); err != nil {
			util.ErrorLog("Failed to write report: %v", err)
		} else {
			util.InfoLog("Report written to %s", reportPath)
		}
	}

	if errors.Is(runErr, util.ErrCancelled) {
		util.WarnLog("Import interrupted after %s", summary.Duration.Round(time.Millisecond))
	}
	return runErr
}

// buildStrategy wires the catalog client and search strategy for a kind
func buildStrategy(kind media.Kind, m *metrics.Metrics, observe match.Observer) (match.Strategy, error) {
	if kind == media.KindAnime {
		client := anilist.NewClient(
			anilist.WithBaseURL(GetConfigString(util.KeyAniListBaseURL, anilist.DefaultBaseURL)),
			anilist.WithIncludeAdult(viper.GetBool(util.KeyAniListIncludeAdult)),
			anilist.WithRateLimitHook(func() { m.RateLimit("anilist") }),
		)
		return match.NewAnimeStrategy(client,
			match.WithOfflineIndex(offline.Open(viper.GetString(util.KeyOfflineDatabase)), util.GetOfflineMinScore()),
			match.WithAnimePace(util.GetAniListPace()),
			match.WithAnimeObserver(observe),
		), nil
	}

	client := tmdb.New(util.GetTMDBAPIKey(),
		tmdb.WithBaseURL(GetConfigString(util.KeyTMDBBaseURL, tmdb.DefaultBaseURL)),
		tmdb.WithIncludeAdult(viper.GetBool(util.KeyTMDBIncludeAdult)),
	)
	if !client.HasAPIKey() {
		return nil, fmt.Errorf("%w: %s is not set (config file or MTRACK_TMDB_API_KEY)", util.ErrInvalidConfig, util.KeyTMDBAPIKey)
	}
	return match.NewTitleStrategy(kind, client, match.WithTitleObserver(observe)), nil
}

// startMetrics serves Prometheus metrics when metrics.port is set. The
// returned metrics are nil otherwise, which records nothing.
func startMetrics() (*metrics.Metrics, func()) {
	port := viper.GetInt(util.KeyMetricsPort)
	if port <= 0 {
		return nil, func() {}
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	srv := metrics.NewServer(port, reg)
	go srv.Start()

	return m, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}

// acceptMatches persists what the policy selects
func acceptMatches(im *importer.Importer, outcomes []*importer.Outcome, policy importer.AcceptPolicy, status media.Status, strict bool, summary *report.SummaryReport) error {
	cands := importer.SelectForAccept(outcomes, policy)
	if policy == importer.AcceptNone {
		util.InfoLog("Review only; rerun with --accept top or --accept all to add matches")
		return nil
	}
	if len(cands) == 0 {
		util.InfoLog("Nothing new to add")
		return nil
	}

	p := importer.NewPersister(im)
	var res *importer.PersistResult
	if strict {
		var err error
		res, err = p.AddBatch(cands, status)
		if err != nil {
			summary.AddPersisted(0, 0, len(cands))
			return err
		}
	} else {
		res = p.Add(cands, status)
	}
	summary.AddPersisted(len(res.Added), len(res.Skipped), len(res.Failed))

	for _, s := range res.Skipped {
		util.DebugLog("Skipped %s: already tracked as %s", s.Candidate.Describe(), s.Reason)
	}
	for _, f := range res.Failed {
		util.ErrorLog("Failed to add %s: %v", f.Candidate.Describe(), f.Err)
	}
	util.SuccessLog("Added %s item(s) as %q (%d skipped, %d failed)",
		humanize.Comma(int64(len(res.Added))), status, len(res.Skipped), len(res.Failed))
	return nil
}

func logStatusCounts(summary *report.SummaryReport, total int) {
	util.InfoLog("Processed %s entries in %s", humanize.Comma(int64(total)), summary.Duration.Round(time.Millisecond))
	for _, s := range []importer.Status{importer.StatusSuccess, importer.StatusPartialDuplicate, importer.StatusDuplicate, importer.StatusNoMatch, importer.StatusError} {
		if n := summary.StatusCounts[string(s)]; n > 0 {
			util.InfoLog("  %-18s %d", s, n)
		}
	}
	if summary.CachedHits > 0 {
		util.InfoLog("  %-18s %d", "cached searches", summary.CachedHits)
	}
}

// reviewRows renders one table row per outcome
func reviewRows(outcomes []*importer.Outcome) [][]string {
	rows := make([][]string, 0, len(outcomes))
	for _, o := range outcomes {
		best, conf := "-", "-"
		if len(o.Matches) > 0 {
			best = o.Matches[0].Describe()
			if o.Matches[0].Duplicate {
				best += " (tracked)"
			}
			conf = fmt.Sprintf("%.0f%%", o.Confidence*100)
		}
		rows = append(rows, []string{fmt.Sprint(o.Index), string(o.Status), conf, best, o.Message})
	}
	return rows
}

func unmatchedEntries(outcomes []*importer.Outcome) []report.UnmatchedEntry {
	var out []report.UnmatchedEntry
	for _, o := range outcomes {
		if !o.Unmatched() {
			continue
		}
		out = append(out, report.UnmatchedEntry{
			Original: o.Original,
			Status:   string(o.Status),
			Message:  o.Message,
			Titles:   o.Titles,
		})
	}
	return out
}

func duplicatesOf(o *importer.Outcome) []report.DuplicateInfo {
	var out []report.DuplicateInfo
	for _, m := range o.Matches {
		if m.Duplicate {
			out = append(out, report.DuplicateInfo{Entry: o.Original, Candidate: m.Describe(), Existing: m.Existing})
		}
	}
	return out
}

// progressView drives a progress bar from progress events. Nil draws nothing.
type progressView struct {
	bar *progressbar.ProgressBar
}

func newProgressView(enabled bool) *progressView {
	if !enabled {
		return nil
	}
	return &progressView{}
}

func (p *progressView) update(pr importer.Progress) {
	if p == nil {
		return
	}
	if p.bar == nil {
		p.bar = progressbar.NewOptions(pr.Total,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("Importing"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetRenderBlankState(true),
		)
	}
	p.bar.Describe(pr.Text)
}

func (p *progressView) done() {
	if p == nil || p.bar == nil {
		return
	}
	p.bar.Add(1)
}

func (p *progressView) finish() {
	if p == nil || p.bar == nil {
		return
	}
	p.bar.Finish()
}

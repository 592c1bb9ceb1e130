package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/franz/media-tracker/internal/match"
	"github.com/franz/media-tracker/internal/media"
	"github.com/franz/media-tracker/internal/offline"
	"github.com/franz/media-tracker/internal/parse"
	"github.com/franz/media-tracker/internal/spreadsheet"
	"github.com/franz/media-tracker/internal/util"
)

var parseCmd = &cobra.Command{
	Use:   "parse [entry...]",
	Short: "Show how entries are parsed into titles, without searching",
	Long: `Parse entries the way import does and print the resulting title variants.

Entries come from the arguments or, with --file, from a spreadsheet. No
catalog is contacted. Use --segments to see how an anime entry was split
and classified. When an offline anime database is configured, the best
offline hit of each anime entry is shown as well.`,
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().StringP("kind", "k", "anime", "media kind: movie, tv or anime")
	parseCmd.Flags().StringP("file", "f", "", "read entries from a spreadsheet")
	parseCmd.Flags().Bool("segments", false, "show anime bracket segments")
}

func runParse(cmd *cobra.Command, args []string) error {
	kindFlag, _ := cmd.Flags().GetString("kind")
	kind, err := media.ParseKind(kindFlag)
	if err != nil {
		return err
	}
	file, _ := cmd.Flags().GetString("file")
	showSegments, _ := cmd.Flags().GetBool("segments")

	entries := args
	if file != "" {
		fromFile, err := spreadsheet.ExtractEntries(file)
		if err != nil {
			return err
		}
		entries = append(entries, fromFile...)
	}
	if len(entries) == 0 {
		return fmt.Errorf("no entries given (pass them as arguments or use --file)")
	}

	fmt.Println(renderTable(
		[]string{"#", "Entry", "Titles", "Search key"},
		parseRows(parse.ForKind(kind), entries),
		[]columnAlignment{alignRight},
	))

	if kind == media.KindAnime {
		if ix := offline.Open(viper.GetString(util.KeyOfflineDatabase)); ix.Len() > 0 {
			fmt.Println(renderTable(
				[]string{"#", "Offline title", "Year", "AniList ID", "Score", "Synonyms"},
				offlineRows(ix, entries, util.GetOfflineMinScore()),
				[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight},
			))
		}
	}

	if showSegments && kind == media.KindAnime {
		for i, entry := range entries {
			fmt.Printf("%d. %s\n", i+1, entry)
			for _, seg := range (parse.AnimeParser{}).Segments(entry) {
				fmt.Printf("   %-9s bracketed=%-5v %s\n", seg.Script, seg.Bracketed, seg.Text)
			}
		}
	}
	return nil
}

func parseRows(p parse.Parser, entries []string) [][]string {
	rows := make([][]string, 0, len(entries))
	for i, entry := range entries {
		titles := p.Parse(entry)
		shown := "(none)"
		if !titles.Empty() {
			var parts []string
			for _, v := range titles.Variants() {
				parts = append(parts, v.Key+": "+v.Value)
			}
			if titles.Year != "" {
				parts = append(parts, "year: "+titles.Year)
			}
			shown = strings.Join(parts, "\n")
		}
		rows = append(rows, []string{fmt.Sprint(i + 1), entry, shown, match.CacheKey(titles)})
	}
	return rows
}

// offlineRows shows the best offline hit per anime entry
func offlineRows(ix *offline.Index, entries []string, minScore float64) [][]string {
	rows := make([][]string, 0, len(entries))
	for i, entry := range entries {
		hits := ix.Match((parse.AnimeParser{}).Parse(entry), minScore)
		if len(hits) == 0 {
			rows = append(rows, []string{fmt.Sprint(i + 1), "(no hit)", "-", "-", "-", "-"})
			continue
		}
		best := hits[0]
		year := "-"
		if y := best.Entry.Year(); y > 0 {
			year = fmt.Sprint(y)
		}
		synonyms := "-"
		if n := len(best.Entry.Synonyms); n > 0 {
			synonyms = strings.Join(best.Entry.Synonyms[:min(n, 3)], "\n")
		}
		rows = append(rows, []string{
			fmt.Sprint(i + 1), best.Entry.Title, year, fmt.Sprint(best.AniListID),
			fmt.Sprintf("%.0f%%", best.Confidence*100), synonyms,
		})
	}
	return rows
}

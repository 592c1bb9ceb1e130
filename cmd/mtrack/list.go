package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/franz/media-tracker/internal/media"
	"github.com/franz/media-tracker/internal/store"
	"github.com/franz/media-tracker/internal/util"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked items",
	Long: `List the items in the database, ordered by title.

Filter by kind and status, or search titles and notes with --search (anime
searches also cover native and romaji titles). --id shows a single item.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringP("kind", "k", "", "only this kind: movie, tv or anime")
	listCmd.Flags().StringP("status", "s", "", "only this status: on-drive, to-download or to-work-on")
	listCmd.Flags().String("search", "", "search titles and notes")
	listCmd.Flags().Int64("id", 0, "show the item with this id")
}

func runList(cmd *cobra.Command, args []string) error {
	var kind media.Kind
	if v, _ := cmd.Flags().GetString("kind"); v != "" {
		k, err := media.ParseKind(v)
		if err != nil {
			return err
		}
		kind = k
	}
	var status media.Status
	if v, _ := cmd.Flags().GetString("status"); v != "" {
		s, err := media.ParseStatus(v)
		if err != nil {
			return err
		}
		status = s
	}
	term, _ := cmd.Flags().GetString("search")

	db, err := store.Open(GetConfigString(util.KeyDB, "mtrack.db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if id, _ := cmd.Flags().GetInt64("id"); id > 0 {
		it, err := db.GetItem(id)
		if err != nil {
			return err
		}
		if it == nil {
			return fmt.Errorf("no item with id %d", id)
		}
		fmt.Println(renderTable([]string{"Field", "Value"}, itemRows(it), nil))
		return nil
	}

	items, err := queryList(db, kind, status, term)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		util.InfoLog("No items found")
		return nil
	}

	fmt.Println(renderTable(
		[]string{"ID", "Title", "Year", "Kind", "Status", "Source", "Added"},
		listRows(items),
		[]columnAlignment{alignRight, alignLeft, alignRight},
	))

	total, err := db.CountItems(kind)
	if err != nil {
		return err
	}
	util.InfoLog("Showing %s of %s item(s)", humanize.Comma(int64(len(items))), humanize.Comma(int64(total)))
	return nil
}

// queryList searches when a term is given, otherwise filters. A search
// still honours the status filter.
func queryList(db *store.Store, kind media.Kind, status media.Status, term string) ([]*store.Item, error) {
	if term == "" {
		return db.GetItems(kind, status)
	}

	found, err := db.SearchItems(term, kind)
	if err != nil || status == "" {
		return found, err
	}
	items := found[:0]
	for _, it := range found {
		if it.Status == status {
			items = append(items, it)
		}
	}
	return items, nil
}

func listRows(items []*store.Item) [][]string {
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		year := "-"
		if it.Year > 0 {
			year = strconv.Itoa(it.Year)
		}
		title := it.Title
		if it.NativeTitle != "" && it.NativeTitle != it.Title {
			title += " / " + it.NativeTitle
		}
		added := "-"
		if !it.CreatedAt.IsZero() {
			added = humanize.Time(it.CreatedAt)
		}
		rows = append(rows, []string{
			strconv.FormatInt(it.ID, 10), title, year, string(it.Kind), string(it.Status), it.Source, added,
		})
	}
	return rows
}

// itemRows renders every stored field of one item
func itemRows(it *store.Item) [][]string {
	orDash := func(s string) string {
		if s == "" {
			return "-"
		}
		return s
	}
	year := "-"
	if it.Year > 0 {
		year = strconv.Itoa(it.Year)
	}
	external := "-"
	if id := it.ExternalID(); id != 0 {
		external = strconv.FormatInt(id, 10)
	}
	return [][]string{
		{"ID", strconv.FormatInt(it.ID, 10)},
		{"Title", it.Title},
		{"Native title", orDash(it.NativeTitle)},
		{"Romaji title", orDash(it.RomajiTitle)},
		{"Year", year},
		{"Kind", string(it.Kind)},
		{"Status", string(it.Status)},
		{"Catalog id", external},
		{"Source", orDash(it.Source)},
		{"Notes", orDash(it.Notes)},
		{"Added", it.CreatedAt.Format("2006-01-02 15:04")},
	}
}

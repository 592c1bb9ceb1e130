package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/franz/media-tracker/internal/media"
)

// ErrDuplicate is returned by strict batch inserts when an item is already stored
var ErrDuplicate = errors.New("duplicate item")

// Item is one tracked movie, show or anime
type Item struct {
	ID          int64
	Title       string
	NativeTitle string
	RomajiTitle string
	Year        int // 0 when unknown
	Kind        media.Kind
	Status      media.Status
	QualityType string
	Source      string
	Notes       string
	TMDBID      int64 // Movie and TV only
	AniListID   int64 // Anime only
	PosterURL   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ExternalID returns the catalog id that applies to the item's kind
func (it *Item) ExternalID() int64 {
	if it.Kind == media.KindAnime {
		return it.AniListID
	}
	return it.TMDBID
}

// Describe formats the item's title and year
func (it *Item) Describe() string {
	return media.Describe(it.Title, it.Year)
}

// BatchResult reports what AddItemsBatch did
type BatchResult struct {
	Added        int
	Skipped      int
	AddedIDs     []int64
	SkippedItems []string
}

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

const itemColumns = `
	id, title, COALESCE(native_title, ''), COALESCE(romaji_title, ''),
	COALESCE(year, 0), media_type, status, COALESCE(quality_type, ''),
	COALESCE(source, ''), COALESCE(notes, ''), COALESCE(tmdb_id, 0),
	COALESCE(anilist_id, 0), COALESCE(poster_url, ''), created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (*Item, error) {
	it := &Item{}
	var kind, status string
	err := row.Scan(
		&it.ID, &it.Title, &it.NativeTitle, &it.RomajiTitle,
		&it.Year, &kind, &status, &it.QualityType,
		&it.Source, &it.Notes, &it.TMDBID,
		&it.AniListID, &it.PosterURL, &it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	it.Kind = media.Kind(kind)
	it.Status = media.Status(status)
	return it, nil
}

func nullString(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func nullInt(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}

// externalIDColumn names the catalog id column used for a kind
func externalIDColumn(kind media.Kind) string {
	if kind == media.KindAnime {
		return "anilist_id"
	}
	return "tmdb_id"
}

// AddItem inserts a single item and returns its id
func (s *Store) AddItem(it *Item) (int64, error) {
	id, err := insertItem(s.db, it)
	if err != nil {
		return 0, err
	}
	it.ID = id
	return id, nil
}

func insertItem(q querier, it *Item) (int64, error) {
	now := time.Now()
	result, err := q.Exec(`
		INSERT INTO media_items
		(title, native_title, romaji_title, year, media_type, status,
		 quality_type, source, notes, tmdb_id, anilist_id, poster_url,
		 created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, strings.TrimSpace(it.Title), nullString(it.NativeTitle), nullString(it.RomajiTitle),
		nullInt(int64(it.Year)), string(it.Kind), string(it.Status),
		nullString(it.QualityType), nullString(it.Source), nullString(it.Notes),
		nullInt(it.TMDBID), nullInt(it.AniListID), nullString(it.PosterURL),
		now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to insert item %q: %w", it.Title, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get item ID: %w", err)
	}
	return id, nil
}

// AddItemsBatch inserts all items in one transaction. With skipDuplicates,
// items already stored (or repeated earlier in the batch) are skipped and
// counted; otherwise a duplicate fails the batch. Any failure rolls back
// every insert of the batch.
func (s *Store) AddItemsBatch(items []*Item, skipDuplicates bool) (*BatchResult, error) {
	result := &BatchResult{}
	if len(items) == 0 {
		return result, nil
	}

	var added []*Item
	err := s.Transaction(func(tx *sql.Tx) error {
		for _, it := range items {
			existing, err := findDuplicate(tx, it.Kind, it.ExternalID(), it.Title, it.Year)
			if err != nil {
				return err
			}
			if existing != nil {
				if skipDuplicates {
					result.Skipped++
					result.SkippedItems = append(result.SkippedItems, it.Title)
					continue
				}
				return fmt.Errorf("%w: %s matches stored %s", ErrDuplicate, it.Describe(), existing.Describe())
			}

			id, err := insertItem(tx, it)
			if err != nil {
				return err
			}
			result.Added++
			result.AddedIDs = append(result.AddedIDs, id)
			added = append(added, it)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// IDs are only handed out once the transaction committed
	for i, it := range added {
		it.ID = result.AddedIDs[i]
	}
	return result, nil
}

// GetItems returns stored items ordered by title. Empty kind or status matches all.
func (s *Store) GetItems(kind media.Kind, status media.Status) ([]*Item, error) {
	query := "SELECT " + itemColumns + " FROM media_items WHERE 1=1"
	var args []any
	if kind != "" {
		query += " AND media_type = ?"
		args = append(args, string(kind))
	}
	if status != "" {
		query += " AND status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY title, id"

	return s.queryItems(query, args...)
}

// GetItem returns one item, or nil when no item has that id
func (s *Store) GetItem(id int64) (*Item, error) {
	it, err := scanItem(s.db.QueryRow("SELECT "+itemColumns+" FROM media_items WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return it, nil
}

// SearchItems finds items whose title or notes contain term. Anime searches
// also cover native and romaji titles.
func (s *Store) SearchItems(term string, kind media.Kind) ([]*Item, error) {
	pattern := "%" + term + "%"
	query := "SELECT " + itemColumns + " FROM media_items WHERE "
	var args []any
	if kind == media.KindAnime {
		query += "(title LIKE ? OR notes LIKE ? OR native_title LIKE ? OR romaji_title LIKE ?)"
		args = append(args, pattern, pattern, pattern, pattern)
	} else {
		query += "(title LIKE ? OR notes LIKE ?)"
		args = append(args, pattern, pattern)
	}
	if kind != "" {
		query += " AND media_type = ?"
		args = append(args, string(kind))
	}
	query += " ORDER BY title, id"

	return s.queryItems(query, args...)
}

// CountItems returns the number of stored items of a kind (all kinds when empty)
func (s *Store) CountItems(kind media.Kind) (int, error) {
	var count int
	var err error
	if kind == "" {
		err = s.db.QueryRow("SELECT COUNT(*) FROM media_items").Scan(&count)
	} else {
		err = s.db.QueryRow("SELECT COUNT(*) FROM media_items WHERE media_type = ?", string(kind)).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return count, nil
}

// FindDuplicate returns the stored item of the same kind that shares the
// external id, or failing that the exact (title, year) pair. Nil when none.
func (s *Store) FindDuplicate(kind media.Kind, externalID int64, title string, year int) (*Item, error) {
	return findDuplicate(s.db, kind, externalID, title, year)
}

func findDuplicate(q querier, kind media.Kind, externalID int64, title string, year int) (*Item, error) {
	if externalID != 0 {
		it, err := scanItem(q.QueryRow(
			"SELECT "+itemColumns+" FROM media_items WHERE media_type = ? AND "+externalIDColumn(kind)+" = ? LIMIT 1",
			string(kind), externalID))
		if err == nil {
			return it, nil
		}
		if err != sql.ErrNoRows {
			return nil, fmt.Errorf("failed to probe external id: %w", err)
		}
	}

	it, err := scanItem(q.QueryRow(
		"SELECT "+itemColumns+" FROM media_items WHERE media_type = ? AND title = ? AND year IS ? ORDER BY id LIMIT 1",
		string(kind), strings.TrimSpace(title), nullInt(int64(year))))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to probe title and year: %w", err)
	}
	return it, nil
}

func (s *Store) queryItems(query string, args ...any) ([]*Item, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}

	return items, nil
}

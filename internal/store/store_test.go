package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/franz/media-tracker/internal/media"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreOpenAndMigrate(t *testing.T) {
	store := openTestStore(t)

	version, err := store.getSchemaVersion()
	if err != nil {
		t.Fatalf("failed to get schema version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("expected schema version %d, got %d", currentSchemaVersion, version)
	}

	for _, table := range []string{"media_items", "schema_version"} {
		var count int
		err := store.db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		if err != nil {
			t.Fatalf("failed to query table %s: %v", table, err)
		}
		if count != 1 {
			t.Errorf("expected table %s to exist", table)
		}
	}

	for _, index := range []string{"idx_media_type_status", "idx_media_anilist_id", "idx_media_tmdb_id"} {
		var count int
		err := store.db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name=?", index).Scan(&count)
		if err != nil {
			t.Fatalf("failed to query index %s: %v", index, err)
		}
		if count != 1 {
			t.Errorf("expected index %s to exist (schema v2)", index)
		}
	}

	if err := store.CheckIntegrity(); err != nil {
		t.Errorf("integrity check failed: %v", err)
	}
}

func TestReopenKeepsSchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := s.AddItem(&Item{Title: "Akira", Year: 1988, Kind: media.KindAnime, Status: media.StatusOnDrive, AniListID: 47}); err != nil {
		t.Fatalf("add: %v", err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	n, err := s.CountItems(media.KindAnime)
	if err != nil || n != 1 {
		t.Errorf("CountItems after reopen = %d, %v", n, err)
	}
}

func TestAddItemRoundTrip(t *testing.T) {
	s := openTestStore(t)

	in := &Item{
		Title:       "Frieren: Beyond Journey's End",
		NativeTitle: "葬送のフリーレン",
		RomajiTitle: "Sousou no Frieren",
		Year:        2023,
		Kind:        media.KindAnime,
		Status:      media.StatusToDownload,
		Source:      "import",
		AniListID:   154587,
		PosterURL:   "https://example.org/p.jpg",
	}
	id, err := s.AddItem(in)
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if id == 0 || in.ID != id {
		t.Fatalf("expected id to be set, got %d / %d", id, in.ID)
	}

	items, err := s.GetItems(media.KindAnime, "")
	if err != nil {
		t.Fatalf("GetItems: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	got := items[0]
	if got.Title != in.Title || got.Year != in.Year || got.Kind != in.Kind || got.ExternalID() != 154587 {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.TMDBID != 0 || got.QualityType != "" {
		t.Errorf("unset fields should stay empty: %+v", got)
	}

	one, err := s.GetItem(id)
	if err != nil || one == nil || one.NativeTitle != "葬送のフリーレン" {
		t.Errorf("GetItem = %+v, %v", one, err)
	}
	missing, err := s.GetItem(id + 100)
	if err != nil || missing != nil {
		t.Errorf("GetItem(missing) = %+v, %v", missing, err)
	}
}

func TestAddItemRejectsEmptyTitle(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.AddItem(&Item{Title: "  ", Kind: media.KindMovie, Status: media.StatusOnDrive}); err == nil {
		t.Error("expected empty title to be rejected")
	}
}

func TestGetItemsFilters(t *testing.T) {
	s := openTestStore(t)
	seed := []*Item{
		{Title: "Heat", Year: 1995, Kind: media.KindMovie, Status: media.StatusOnDrive, TMDBID: 949},
		{Title: "Alien", Year: 1979, Kind: media.KindMovie, Status: media.StatusToDownload, TMDBID: 348},
		{Title: "The Wire", Year: 2002, Kind: media.KindTV, Status: media.StatusOnDrive, TMDBID: 1438},
	}
	for _, it := range seed {
		if _, err := s.AddItem(it); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	movies, _ := s.GetItems(media.KindMovie, "")
	if len(movies) != 2 || movies[0].Title != "Alien" {
		t.Errorf("expected movies ordered by title, got %+v", movies)
	}
	onDrive, _ := s.GetItems("", media.StatusOnDrive)
	if len(onDrive) != 2 {
		t.Errorf("expected 2 on-drive items, got %d", len(onDrive))
	}
	all, _ := s.CountItems("")
	if all != 3 {
		t.Errorf("CountItems(all) = %d", all)
	}
}

func TestSearchItems(t *testing.T) {
	s := openTestStore(t)
	s.AddItem(&Item{Title: "Spirited Away", RomajiTitle: "Sen to Chihiro no Kamikakushi", Kind: media.KindAnime, Status: media.StatusOnDrive, AniListID: 199})
	s.AddItem(&Item{Title: "Chihiro Notes", Kind: media.KindMovie, Status: media.StatusOnDrive, Notes: "not anime"})

	anime, err := s.SearchItems("Chihiro", media.KindAnime)
	if err != nil {
		t.Fatalf("SearchItems: %v", err)
	}
	if len(anime) != 1 || anime[0].AniListID != 199 {
		t.Errorf("expected romaji match on the anime only, got %+v", anime)
	}

	every, _ := s.SearchItems("Chihiro", "")
	if len(every) != 1 {
		t.Errorf("title/notes search across kinds should find only the movie, got %d", len(every))
	}
}

func TestFindDuplicate(t *testing.T) {
	s := openTestStore(t)
	s.AddItem(&Item{Title: "The Matrix", Year: 1999, Kind: media.KindMovie, Status: media.StatusOnDrive, TMDBID: 603})
	s.AddItem(&Item{Title: "Untitled", Kind: media.KindMovie, Status: media.StatusOnDrive})

	tests := []struct {
		name  string
		kind  media.Kind
		id    int64
		title string
		year  int
		want  string
	}{
		{"by external id", media.KindMovie, 603, "Different", 2000, "The Matrix"},
		{"by title and year", media.KindMovie, 999, "The Matrix", 1999, "The Matrix"},
		{"year differs", media.KindMovie, 999, "The Matrix", 2003, ""},
		{"other kind", media.KindTV, 603, "The Matrix", 1999, ""},
		{"unknown years match", media.KindMovie, 0, "Untitled", 0, "Untitled"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.FindDuplicate(tt.kind, tt.id, tt.title, tt.year)
			if err != nil {
				t.Fatalf("FindDuplicate: %v", err)
			}
			if tt.want == "" {
				if got != nil {
					t.Errorf("expected no duplicate, got %+v", got)
				}
				return
			}
			if got == nil || got.Title != tt.want {
				t.Errorf("expected duplicate %q, got %+v", tt.want, got)
			}
		})
	}
}

func TestUniqueExternalIDPerKind(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.AddItem(&Item{Title: "A", Kind: media.KindAnime, Status: media.StatusOnDrive, AniListID: 1}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddItem(&Item{Title: "B", Kind: media.KindAnime, Status: media.StatusOnDrive, AniListID: 1}); err == nil {
		t.Error("expected unique index violation for repeated anilist id")
	}
	if _, err := s.AddItem(&Item{Title: "C", Kind: media.KindMovie, Status: media.StatusOnDrive, TMDBID: 1}); err != nil {
		t.Errorf("tmdb id 1 on a movie must not clash with anilist id 1: %v", err)
	}
}

func TestAddItemsBatchSkipsDuplicates(t *testing.T) {
	s := openTestStore(t)
	s.AddItem(&Item{Title: "Heat", Year: 1995, Kind: media.KindMovie, Status: media.StatusOnDrive, TMDBID: 949})

	items := []*Item{
		{Title: "Heat", Year: 1995, Kind: media.KindMovie, Status: media.StatusOnDrive, TMDBID: 949},
		{Title: "Ronin", Year: 1998, Kind: media.KindMovie, Status: media.StatusOnDrive, TMDBID: 8195},
		{Title: "Ronin", Year: 1998, Kind: media.KindMovie, Status: media.StatusOnDrive, TMDBID: 8195},
	}
	res, err := s.AddItemsBatch(items, true)
	if err != nil {
		t.Fatalf("AddItemsBatch: %v", err)
	}
	if res.Added != 1 || res.Skipped != 2 {
		t.Errorf("expected 1 added / 2 skipped, got %+v", res)
	}
	if items[1].ID == 0 || items[0].ID != 0 {
		t.Errorf("only the inserted item should get an id: %d %d", items[0].ID, items[1].ID)
	}
}

func TestAddItemsBatchAtomicity(t *testing.T) {
	s := openTestStore(t)

	items := []*Item{
		{Title: "One", Kind: media.KindAnime, Status: media.StatusOnDrive, AniListID: 1},
		{Title: "Two", Kind: media.KindAnime, Status: media.StatusOnDrive, AniListID: 2},
		{Title: "", Kind: media.KindAnime, Status: media.StatusOnDrive, AniListID: 3},
		{Title: "Four", Kind: media.KindAnime, Status: media.StatusOnDrive, AniListID: 4},
	}
	if _, err := s.AddItemsBatch(items, false); err == nil {
		t.Fatal("expected batch failure")
	}

	n, err := s.CountItems("")
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("expected rollback to leave 0 items, found %d", n)
	}
	if items[0].ID != 0 {
		t.Errorf("rolled back items must not keep ids, got %d", items[0].ID)
	}
}

func TestAddItemsBatchStrictDuplicate(t *testing.T) {
	s := openTestStore(t)
	s.AddItem(&Item{Title: "Heat", Year: 1995, Kind: media.KindMovie, Status: media.StatusOnDrive})

	_, err := s.AddItemsBatch([]*Item{
		{Title: "Ronin", Year: 1998, Kind: media.KindMovie, Status: media.StatusOnDrive},
		{Title: "Heat", Year: 1995, Kind: media.KindMovie, Status: media.StatusOnDrive},
	}, false)
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if n, _ := s.CountItems(media.KindMovie); n != 1 {
		t.Errorf("expected only the pre-existing movie, found %d", n)
	}
}

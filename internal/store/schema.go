package store

// Schema v1 - tracked media items
const schemaV1 = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
  version INTEGER PRIMARY KEY,
  applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- One row per tracked movie, show or anime
CREATE TABLE IF NOT EXISTS media_items (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  title TEXT NOT NULL CHECK (length(trim(title)) > 0),
  native_title TEXT,
  romaji_title TEXT,
  year INTEGER,
  media_type TEXT NOT NULL CHECK (media_type IN ('Movie', 'TV', 'Anime')),
  status TEXT NOT NULL CHECK (status IN ('On Drive', 'To Download', 'To Work On')),
  quality_type TEXT,
  source TEXT,
  notes TEXT,
  tmdb_id INTEGER,
  anilist_id INTEGER,
  poster_url TEXT,
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
  updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

// Schema v2 - lookup indexes and external id uniqueness per media kind
const schemaV2 = `
CREATE INDEX IF NOT EXISTS idx_media_type_status ON media_items(media_type, status);
CREATE INDEX IF NOT EXISTS idx_media_title ON media_items(title);
CREATE INDEX IF NOT EXISTS idx_media_title_year ON media_items(media_type, title, year);

CREATE UNIQUE INDEX IF NOT EXISTS idx_media_anilist_id
  ON media_items(media_type, anilist_id) WHERE anilist_id IS NOT NULL;
CREATE UNIQUE INDEX IF NOT EXISTS idx_media_tmdb_id
  ON media_items(media_type, tmdb_id) WHERE tmdb_id IS NOT NULL;
`

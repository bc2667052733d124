package mediastore

// Schema v1 - media metadata tables
//
// audio_files mirrors the flat shape of an OS media store: one row per
// file, loosely populated nullable tag columns, a single composite
// track column (disc*1000 + track), and an is_music flag. Genre
// membership is only reachable through the audio_genres join table.
const schemaV1 = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
  version INTEGER PRIMARY KEY,
  applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS audio_files (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  path TEXT UNIQUE NOT NULL,
  title TEXT,
  display_name TEXT,
  track INTEGER,
  duration_ms INTEGER,
  year INTEGER,
  album TEXT,
  album_id INTEGER NOT NULL DEFAULT 0,
  artist TEXT,
  album_artist TEXT,
  is_music INTEGER NOT NULL DEFAULT 1
);

-- Album identity rows keyed by the grouping string
CREATE TABLE IF NOT EXISTS albums (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  album_key TEXT UNIQUE NOT NULL
);

CREATE TABLE IF NOT EXISTS genres (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT
);

CREATE TABLE IF NOT EXISTS audio_genres (
  genre_id INTEGER NOT NULL REFERENCES genres(id) ON DELETE CASCADE,
  audio_id INTEGER NOT NULL REFERENCES audio_files(id) ON DELETE CASCADE,
  PRIMARY KEY (genre_id, audio_id)
);
`

// Schema v2 - lookup indexes
const schemaV2 = `
CREATE INDEX IF NOT EXISTS idx_audio_files_is_music ON audio_files(is_music);
CREATE INDEX IF NOT EXISTS idx_audio_files_album_id ON audio_files(album_id);
CREATE INDEX IF NOT EXISTS idx_audio_genres_genre ON audio_genres(genre_id);
CREATE INDEX IF NOT EXISTS idx_audio_genres_audio ON audio_genres(audio_id);
`

package mediastore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// AudioRow is one audio_files row as the store hands it out. Every
// tag-derived column is optional; readers normalize, the store does not.
type AudioRow struct {
	ID          int64
	Path        string
	Title       *string
	DisplayName *string
	TrackDisc   *int64 // composite: disc*1000 + track
	DurationMs  int64
	Year        *int64
	Album       *string
	AlbumID     int64
	Artist      *string
	AlbumArtist *string
	IsMusic     bool
}

// AudioRows returns every music row, minus rows whose path lies under
// one of the excluded directory prefixes. A prefix matches whole path
// segments only: "/music/rock" excludes "/music/rock/a.mp3" but not
// "/music/rockabilly/b.mp3".
func (s *Store) AudioRows(ctx context.Context, excluded []string) ([]*AudioRow, error) {
	query := `
		SELECT id, path, title, display_name, track, duration_ms, year,
		       album, album_id, artist, album_artist
		FROM audio_files
		WHERE is_music != 0`
	args := make([]interface{}, 0, len(excluded)*2)

	for _, prefix := range excluded {
		p := strings.TrimSuffix(prefix, "/")
		if p == "" {
			continue
		}
		query += ` AND NOT (path = ? OR path LIKE ? ESCAPE '\')`
		args = append(args, p, escapeLike(p)+`/%`)
	}

	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audio files: %w", err)
	}
	defer rows.Close()

	var result []*AudioRow
	for rows.Next() {
		r := &AudioRow{IsMusic: true}
		var title, displayName, album, artist, albumArtist sql.NullString
		var trackDisc, durationMs, year, albumID sql.NullInt64

		err := rows.Scan(
			&r.ID, &r.Path, &title, &displayName, &trackDisc, &durationMs,
			&year, &album, &albumID, &artist, &albumArtist,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audio row: %w", err)
		}

		r.Title = nullStringPtr(title)
		r.DisplayName = nullStringPtr(displayName)
		r.TrackDisc = nullInt64Ptr(trackDisc)
		r.DurationMs = durationMs.Int64
		r.Year = nullInt64Ptr(year)
		r.Album = nullStringPtr(album)
		r.AlbumID = albumID.Int64
		r.Artist = nullStringPtr(artist)
		r.AlbumArtist = nullStringPtr(albumArtist)

		result = append(result, r)
	}

	return result, rows.Err()
}

// InsertAudioFile inserts or updates an audio row keyed by path,
// setting r.ID on the way out
func (s *Store) InsertAudioFile(r *AudioRow) error {
	return insertAudioFile(s.db, r)
}

func insertAudioFile(q dbtx, r *AudioRow) error {
	isMusic := 0
	if r.IsMusic {
		isMusic = 1
	}

	_, err := q.Exec(`
		INSERT INTO audio_files (path, title, display_name, track, duration_ms,
		                         year, album, album_id, artist, album_artist, is_music)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title = excluded.title,
			display_name = excluded.display_name,
			track = excluded.track,
			duration_ms = excluded.duration_ms,
			year = excluded.year,
			album = excluded.album,
			album_id = excluded.album_id,
			artist = excluded.artist,
			album_artist = excluded.album_artist,
			is_music = excluded.is_music
		`, r.Path, ptrNullString(r.Title), ptrNullString(r.DisplayName),
		ptrNullInt64(r.TrackDisc), r.DurationMs, ptrNullInt64(r.Year),
		ptrNullString(r.Album), r.AlbumID, ptrNullString(r.Artist),
		ptrNullString(r.AlbumArtist), isMusic)

	if err != nil {
		return fmt.Errorf("failed to insert audio file: %w", err)
	}

	// LastInsertId is unreliable on conflict updates; resolve by path
	if r.ID == 0 {
		err = q.QueryRow("SELECT id FROM audio_files WHERE path = ?", r.Path).Scan(&r.ID)
		if err != nil {
			return fmt.Errorf("failed to get audio file ID: %w", err)
		}
	}

	return nil
}

// EnsureAlbumID returns the id for an album key, creating the albums
// row on first use. The key is an opaque identity string; callers
// derive it from the album's grouping fields.
func (s *Store) EnsureAlbumID(albumKey string) (int64, error) {
	return ensureAlbumID(s.db, albumKey)
}

func ensureAlbumID(q dbtx, albumKey string) (int64, error) {
	if _, err := q.Exec(
		"INSERT OR IGNORE INTO albums (album_key) VALUES (?)", albumKey); err != nil {
		return 0, fmt.Errorf("failed to insert album: %w", err)
	}

	var id int64
	err := q.QueryRow("SELECT id FROM albums WHERE album_key = ?", albumKey).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to get album ID: %w", err)
	}
	return id, nil
}

// SeedAudioFile writes one file's rows in a single transaction: the
// album identity row, the audio row and, when genre is non-empty, the
// genre and its membership link. r.AlbumID and r.ID are set on the
// way out.
func (s *Store) SeedAudioFile(r *AudioRow, albumKey, genre string) error {
	return s.Transaction(func(tx *sql.Tx) error {
		albumID, err := ensureAlbumID(tx, albumKey)
		if err != nil {
			return err
		}
		r.AlbumID = albumID

		if err := insertAudioFile(tx, r); err != nil {
			return err
		}

		if genre == "" {
			return nil
		}
		genreID, err := ensureGenre(tx, genre)
		if err != nil {
			return err
		}
		return addGenreMember(tx, genreID, r.ID)
	})
}

// CountAudioFiles returns the number of music rows
func (s *Store) CountAudioFiles() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM audio_files WHERE is_music != 0").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count audio files: %w", err)
	}
	return count, nil
}

// escapeLike escapes LIKE wildcards so a path prefix matches literally
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

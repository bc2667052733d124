package mediastore

import (
	"context"
	"database/sql"
	"fmt"
)

// GenreRow is one genres row. Name may be absent; the store keeps
// whatever junk made it in.
type GenreRow struct {
	ID   int64
	Name *string
}

// GenreRows returns all genre rows, junk included
func (s *Store) GenreRows(ctx context.Context) ([]*GenreRow, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name FROM genres ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query genres: %w", err)
	}
	defer rows.Close()

	var result []*GenreRow
	for rows.Next() {
		g := &GenreRow{}
		var name sql.NullString
		if err := rows.Scan(&g.ID, &name); err != nil {
			return nil, fmt.Errorf("failed to scan genre row: %w", err)
		}
		g.Name = nullStringPtr(name)
		result = append(result, g)
	}

	return result, rows.Err()
}

// GenreMembers returns the audio row ids belonging to a genre
func (s *Store) GenreMembers(ctx context.Context, genreID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT audio_id FROM audio_genres WHERE genre_id = ? ORDER BY audio_id", genreID)
	if err != nil {
		return nil, fmt.Errorf("failed to query genre members: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan genre member: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// EnsureGenre returns the id for a named genre, creating it on first use
func (s *Store) EnsureGenre(name string) (int64, error) {
	return ensureGenre(s.db, name)
}

func ensureGenre(q dbtx, name string) (int64, error) {
	var id int64
	err := q.QueryRow("SELECT id FROM genres WHERE name = ?", name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("failed to look up genre: %w", err)
	}

	result, err := q.Exec("INSERT INTO genres (name) VALUES (?)", name)
	if err != nil {
		return 0, fmt.Errorf("failed to insert genre: %w", err)
	}
	id, err = result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get genre ID: %w", err)
	}
	return id, nil
}

// AddGenreMember links an audio row to a genre
func (s *Store) AddGenreMember(genreID, audioID int64) error {
	return addGenreMember(s.db, genreID, audioID)
}

func addGenreMember(q dbtx, genreID, audioID int64) error {
	_, err := q.Exec(`
		INSERT OR IGNORE INTO audio_genres (genre_id, audio_id) VALUES (?, ?)
	`, genreID, audioID)
	if err != nil {
		return fmt.Errorf("failed to add genre member: %w", err)
	}
	return nil
}

package mediastore

import "fmt"

// Stats holds row counts used by diagnostics and summaries
type Stats struct {
	AudioRows   int // all rows, music or not
	MusicRows   int
	Albums      int
	Genres      int
	GenreLinks  int
	OrphanLinks int // genre links pointing at missing audio rows
}

// Stats gathers row counts across all tables
func (s *Store) Stats() (*Stats, error) {
	stats := &Stats{}

	counts := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM audio_files", &stats.AudioRows},
		{"SELECT COUNT(*) FROM audio_files WHERE is_music != 0", &stats.MusicRows},
		{"SELECT COUNT(*) FROM albums", &stats.Albums},
		{"SELECT COUNT(*) FROM genres", &stats.Genres},
		{"SELECT COUNT(*) FROM audio_genres", &stats.GenreLinks},
		{`SELECT COUNT(*) FROM audio_genres ag
		  LEFT JOIN audio_files af ON af.id = ag.audio_id
		  WHERE af.id IS NULL`, &stats.OrphanLinks},
	}

	for _, c := range counts {
		if err := s.db.QueryRow(c.query).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("failed to gather store stats: %w", err)
		}
	}

	return stats, nil
}

// IntegrityCheck runs SQLite's integrity check and returns its verdict
func (s *Store) IntegrityCheck() (string, error) {
	var result string
	if err := s.db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return "", fmt.Errorf("integrity check failed: %w", err)
	}
	return result, nil
}

// Package library holds the normalized music domain model produced by
// an index pass: songs owned by albums, albums owned by artists, songs
// linked to genres. A Library is immutable once built; the indexer is
// the only writer and validates full linkage before handing one out.
package library

import (
	"fmt"
	"strings"
)

// Song is one indexed audio file. Track, Disc and Year are absent when
// the media store had nothing usable; the Raw* fields keep the loader's
// normalized view of the store columns for grouping and debugging.
type Song struct {
	ID         int64
	Name       string
	DurationMs int64
	Track      *int
	Disc       *int
	Year       *int

	// Raw store fields, sentinel-normalized (nil means unknown)
	AlbumID        int64
	RawAlbum       string
	RawArtist      *string
	RawAlbumArtist *string

	Album *Album
	Genre *Genre
}

// Album owns the songs that share its grouping key. Name, Year and
// CoverRef derive from the representative member song.
type Album struct {
	Name     string
	Year     *int
	CoverRef string

	// ArtistName is the grouping artist name (album artist if present,
	// else track artist, else the store's unknown sentinel). It feeds
	// artist grouping; Artist is the resolved link.
	ArtistName string
	Artist     *Artist

	Songs []*Song
}

// Artist owns albums grouped under one case-insensitive name. A nil
// Name means the store had no artist; rendering a fallback label is a
// display concern, not data.
type Artist struct {
	Name   *string
	Albums []*Album
}

// Genre links songs to one genre. The catch-all genre has a nil Name
// and holds every song no real genre claimed.
type Genre struct {
	Name  *string
	Songs []*Song
}

// Library is the immutable aggregate of one index pass
type Library struct {
	Genres  []*Genre
	Artists []*Artist
	Albums  []*Album
	Songs   []*Song
}

// ConsistencyError reports a song that came out of the pipeline with a
// missing link. It indicates a grouping defect, never bad input data.
type ConsistencyError struct {
	SongID  int64
	Name    string
	Missing []string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("song %d (%q) is missing %s link(s)",
		e.SongID, e.Name, strings.Join(e.Missing, ", "))
}

// Validate checks that every song is fully linked: an album, an artist
// reachable through the album, and a genre. Returns a ConsistencyError
// for the first violation found.
func (l *Library) Validate() error {
	for _, s := range l.Songs {
		var missing []string
		if s.Album == nil {
			missing = append(missing, "album")
		} else if s.Album.Artist == nil {
			missing = append(missing, "artist")
		}
		if s.Genre == nil {
			missing = append(missing, "genre")
		}
		if len(missing) > 0 {
			return &ConsistencyError{SongID: s.ID, Name: s.Name, Missing: missing}
		}
	}
	return nil
}

// SongCount returns the number of songs in the library
func (l *Library) SongCount() int {
	if l == nil {
		return 0
	}
	return len(l.Songs)
}

// TotalDurationMs returns the summed duration of all songs
func (l *Library) TotalDurationMs() int64 {
	if l == nil {
		return 0
	}
	var total int64
	for _, s := range l.Songs {
		total += s.DurationMs
	}
	return total
}

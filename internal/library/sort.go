package library

import (
	"sort"
	"strings"
)

// CompareOptionalInts orders two optional integers with absent ranked
// lowest, so a song with any track number outranks one without.
// Returns -1, 0 or 1.
func CompareOptionalInts(a, b *int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	default:
		return 0
	}
}

// compareOptionalNames orders two optional strings case-insensitively
// with absent ranked last, so unnamed entities sink to the bottom of
// listings.
func compareOptionalNames(a, b *string) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	default:
		return strings.Compare(strings.ToLower(*a), strings.ToLower(*b))
	}
}

// SortSongs orders songs by disc, then track (absent first), then name
func SortSongs(songs []*Song) {
	sort.SliceStable(songs, func(i, j int) bool {
		if c := CompareOptionalInts(songs[i].Disc, songs[j].Disc); c != 0 {
			return c < 0
		}
		if c := CompareOptionalInts(songs[i].Track, songs[j].Track); c != 0 {
			return c < 0
		}
		return strings.ToLower(songs[i].Name) < strings.ToLower(songs[j].Name)
	})
}

// SortAlbums orders albums by year (absent first), then name
func SortAlbums(albums []*Album) {
	sort.SliceStable(albums, func(i, j int) bool {
		if c := CompareOptionalInts(albums[i].Year, albums[j].Year); c != 0 {
			return c < 0
		}
		return strings.ToLower(albums[i].Name) < strings.ToLower(albums[j].Name)
	})
}

// SortArtists orders artists by name, unnamed last
func SortArtists(artists []*Artist) {
	sort.SliceStable(artists, func(i, j int) bool {
		return compareOptionalNames(artists[i].Name, artists[j].Name) < 0
	})
}

// SortGenres orders genres by name, the catch-all last
func SortGenres(genres []*Genre) {
	sort.SliceStable(genres, func(i, j int) bool {
		return compareOptionalNames(genres[i].Name, genres[j].Name) < 0
	})
}

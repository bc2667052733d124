package index

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"mediadex/internal/library"
	"mediadex/internal/mediastore"
)

// foldKey produces the case-insensitive grouping form of a name.
// NFC first so composed and decomposed spellings collapse too.
func foldKey(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}

// effectiveArtist is the grouping artist for a song: album artist if
// present, else track artist, else the unknown sentinel. Used only for
// grouping, never as final artist identity.
func effectiveArtist(s *library.Song) string {
	if s.RawAlbumArtist != nil {
		return *s.RawAlbumArtist
	}
	if s.RawArtist != nil {
		return *s.RawArtist
	}
	return mediastore.UnknownString
}

// groupAlbums partitions songs into one album per (album name, artist
// name) key. The representative song, the member with the greatest
// track number where absent ranks lowest and later iteration wins
// ties, sources the album's name, year and cover reference.
func (ix *Indexer) groupAlbums(songs []*library.Song) []*library.Album {
	byKey := make(map[string]*library.Album)
	rep := make(map[*library.Album]*library.Song)
	var albums []*library.Album

	for _, s := range songs {
		key := foldKey(s.RawAlbum) + "\x00" + foldKey(effectiveArtist(s))
		a := byKey[key]
		if a == nil {
			a = &library.Album{}
			byKey[key] = a
			albums = append(albums, a)
		}
		a.Songs = append(a.Songs, s)
		s.Album = a

		if r, ok := rep[a]; !ok || library.CompareOptionalInts(s.Track, r.Track) >= 0 {
			rep[a] = s
		}
	}

	for key, a := range byKey {
		r := rep[a]
		a.Name = r.RawAlbum
		a.Year = r.Year
		a.CoverRef = fmt.Sprintf("albumart://%d", r.AlbumID)
		a.ArtistName = effectiveArtist(r)
		ix.logger.LogAlbum(a.Name, key, len(a.Songs))
	}

	return albums
}

// groupArtists partitions albums into one artist per case-insensitive
// grouping-artist key. The unknown sentinel becomes a nil name; a
// visible fallback label is the display layer's business.
func (ix *Indexer) groupArtists(albums []*library.Album) []*library.Artist {
	byKey := make(map[string]*library.Artist)
	var artists []*library.Artist

	for _, a := range albums {
		key := foldKey(a.ArtistName)
		ar := byKey[key]
		if ar == nil {
			ar = &library.Artist{}
			if a.ArtistName != mediastore.UnknownString {
				name := a.ArtistName
				ar.Name = &name
			}
			byKey[key] = ar
			artists = append(artists, ar)
		}
		ar.Albums = append(ar.Albums, a)
		a.Artist = ar
	}

	for _, ar := range artists {
		name := mediastore.UnknownString
		if ar.Name != nil {
			name = *ar.Name
		}
		ix.logger.LogArtist(name, len(ar.Albums))
	}

	return artists
}

package library

import (
	"strings"
	"testing"
)

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

// fullyLinked builds a minimal library with every link in place
func fullyLinked() *Library {
	artist := &Artist{Name: strPtr("Artist")}
	album := &Album{Name: "Album", ArtistName: "Artist", Artist: artist}
	artist.Albums = []*Album{album}
	genre := &Genre{Name: strPtr("Rock")}
	song := &Song{ID: 1, Name: "Song", Album: album, Genre: genre}
	album.Songs = []*Song{song}
	genre.Songs = []*Song{song}

	return &Library{
		Genres:  []*Genre{genre},
		Artists: []*Artist{artist},
		Albums:  []*Album{album},
		Songs:   []*Song{song},
	}
}

func TestValidateFullyLinked(t *testing.T) {
	if err := fullyLinked().Validate(); err != nil {
		t.Errorf("expected valid library, got: %v", err)
	}
}

func TestValidateMissingLinks(t *testing.T) {
	tests := []struct {
		name    string
		corrupt func(*Library)
		missing string
	}{
		{
			name:    "missing album",
			corrupt: func(l *Library) { l.Songs[0].Album = nil },
			missing: "album",
		},
		{
			name:    "missing artist",
			corrupt: func(l *Library) { l.Albums[0].Artist = nil },
			missing: "artist",
		},
		{
			name:    "missing genre",
			corrupt: func(l *Library) { l.Songs[0].Genre = nil },
			missing: "genre",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lib := fullyLinked()
			tt.corrupt(lib)

			err := lib.Validate()
			if err == nil {
				t.Fatal("expected consistency error, got nil")
			}

			ce, ok := err.(*ConsistencyError)
			if !ok {
				t.Fatalf("expected *ConsistencyError, got %T", err)
			}
			if ce.SongID != 1 {
				t.Errorf("expected song ID 1, got %d", ce.SongID)
			}

			found := false
			for _, m := range ce.Missing {
				if m == tt.missing {
					found = true
				}
			}
			if !found {
				t.Errorf("expected missing link %q in %v", tt.missing, ce.Missing)
			}
			if !strings.Contains(ce.Error(), tt.missing) {
				t.Errorf("expected error message to name %q, got %q", tt.missing, ce.Error())
			}
		})
	}
}

func TestSongCountAndDurationNilSafe(t *testing.T) {
	var lib *Library
	if lib.SongCount() != 0 {
		t.Error("expected 0 songs on nil library")
	}
	if lib.TotalDurationMs() != 0 {
		t.Error("expected 0 duration on nil library")
	}

	lib = &Library{Songs: []*Song{
		{DurationMs: 1000},
		{DurationMs: 2500},
	}}
	if lib.SongCount() != 2 {
		t.Errorf("expected 2 songs, got %d", lib.SongCount())
	}
	if lib.TotalDurationMs() != 3500 {
		t.Errorf("expected 3500ms, got %d", lib.TotalDurationMs())
	}
}

func TestCompareOptionalInts(t *testing.T) {
	tests := []struct {
		name string
		a, b *int
		want int
	}{
		{"both absent", nil, nil, 0},
		{"absent ranks below any value", nil, intPtr(0), -1},
		{"any value outranks absent", intPtr(-5), nil, 1},
		{"smaller value", intPtr(3), intPtr(7), -1},
		{"larger value", intPtr(7), intPtr(3), 1},
		{"equal values", intPtr(4), intPtr(4), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CompareOptionalInts(tt.a, tt.b); got != tt.want {
				t.Errorf("CompareOptionalInts = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSortSongs(t *testing.T) {
	songs := []*Song{
		{Name: "c", Disc: intPtr(2), Track: intPtr(1)},
		{Name: "b", Disc: intPtr(1), Track: intPtr(2)},
		{Name: "a", Disc: intPtr(1), Track: intPtr(2)},
		{Name: "d", Track: intPtr(9)}, // no disc sorts first
	}
	SortSongs(songs)

	want := []string{"d", "a", "b", "c"}
	for i, name := range want {
		if songs[i].Name != name {
			t.Fatalf("position %d: expected %s, got %s", i, name, songs[i].Name)
		}
	}
}

func TestSortAlbumsYearThenName(t *testing.T) {
	albums := []*Album{
		{Name: "Zeta", Year: intPtr(1990)},
		{Name: "alpha", Year: intPtr(1990)},
		{Name: "Early"},
	}
	SortAlbums(albums)

	if albums[0].Name != "Early" {
		t.Errorf("expected year-less album first, got %s", albums[0].Name)
	}
	if albums[1].Name != "alpha" || albums[2].Name != "Zeta" {
		t.Errorf("expected case-insensitive name order, got %s, %s", albums[1].Name, albums[2].Name)
	}
}

func TestSortArtistsUnnamedLast(t *testing.T) {
	artists := []*Artist{
		{Name: nil},
		{Name: strPtr("beck")},
		{Name: strPtr("ABBA")},
	}
	SortArtists(artists)

	if artists[0].Name == nil || *artists[0].Name != "ABBA" {
		t.Error("expected ABBA first")
	}
	if artists[2].Name != nil {
		t.Error("expected unnamed artist last")
	}
}

func TestSortGenresCatchAllLast(t *testing.T) {
	genres := []*Genre{
		{Name: nil},
		{Name: strPtr("Rock")},
		{Name: strPtr("jazz")},
	}
	SortGenres(genres)

	if genres[0].Name == nil || *genres[0].Name != "jazz" {
		t.Error("expected jazz first")
	}
	if genres[2].Name != nil {
		t.Error("expected the catch-all genre last")
	}
}

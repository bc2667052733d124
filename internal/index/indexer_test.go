package index

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"mediadex/internal/exclude"
	"mediadex/internal/library"
	"mediadex/internal/mediastore"
)

// fakeStore is an in-memory MediaStore for pipeline tests
type fakeStore struct {
	rows    []*mediastore.AudioRow
	genres  []*mediastore.GenreRow
	members map[int64][]int64

	audioErr   error
	genreErr   error
	memberErrs map[int64]error

	gotExcluded []string
}

func (f *fakeStore) AudioRows(ctx context.Context, excluded []string) ([]*mediastore.AudioRow, error) {
	f.gotExcluded = excluded
	if f.audioErr != nil {
		return nil, f.audioErr
	}
	return f.rows, nil
}

func (f *fakeStore) GenreRows(ctx context.Context) ([]*mediastore.GenreRow, error) {
	if f.genreErr != nil {
		return nil, f.genreErr
	}
	return f.genres, nil
}

func (f *fakeStore) GenreMembers(ctx context.Context, genreID int64) ([]int64, error) {
	if err := f.memberErrs[genreID]; err != nil {
		return nil, err
	}
	return f.members[genreID], nil
}

// row builds an audio row with the fields the pipeline cares about
func row(id int64, name, album, artist string, composite int64, durationMs int64) *mediastore.AudioRow {
	r := &mediastore.AudioRow{
		ID:         id,
		Path:       fmt.Sprintf("/music/%d.mp3", id),
		DurationMs: durationMs,
		IsMusic:    true,
	}
	if name != "" {
		r.DisplayName = &name
	}
	if album != "" {
		r.Album = &album
	}
	if artist != "" {
		r.Artist = &artist
	}
	if composite >= 0 {
		r.TrackDisc = &composite
	}
	return r
}

func build(t *testing.T, store *fakeStore) (*library.Library, *Result) {
	t.Helper()
	lib, result, err := New(&Config{Store: store}).Build(context.Background())
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	return lib, result
}

func TestBuildEmptyStore(t *testing.T) {
	lib, result, err := New(&Config{Store: &fakeStore{}}).Build(context.Background())
	if err != nil {
		t.Fatalf("expected no error for empty store, got: %v", err)
	}
	if lib != nil {
		t.Error("expected nil library for empty store, not an empty one")
	}
	if result.Songs != 0 {
		t.Errorf("expected 0 songs, got %d", result.Songs)
	}
}

func TestBuildAudioQueryFailureDegrades(t *testing.T) {
	store := &fakeStore{audioErr: errors.New("cursor exploded")}
	lib, result, err := New(&Config{Store: store}).Build(context.Background())
	if err != nil {
		t.Fatalf("expected degradation, got error: %v", err)
	}
	if lib != nil {
		t.Error("expected nil library when the audio query fails")
	}
	if result.QueryFailures != 1 {
		t.Errorf("expected 1 recorded query failure, got %d", result.QueryFailures)
	}
}

func TestBuildDeduplicatesClones(t *testing.T) {
	store := &fakeStore{rows: []*mediastore.AudioRow{
		row(1, "Song", "Album", "Artist", 3, 1000),
		row(2, "Song", "Album", "Artist", 3, 1000),  // clone, different id and path
		row(3, "Song", "Album", "Artist", 3, 2000),  // different duration survives
	}}

	lib, result := build(t, store)
	if len(lib.Songs) != 2 {
		t.Fatalf("expected 2 songs after dedup, got %d", len(lib.Songs))
	}
	if result.DuplicatesDropped != 1 {
		t.Errorf("expected 1 duplicate dropped, got %d", result.DuplicatesDropped)
	}

	// First row wins; the clone's id disappears
	ids := map[int64]bool{}
	for _, s := range lib.Songs {
		ids[s.ID] = true
	}
	if !ids[1] || ids[2] || !ids[3] {
		t.Errorf("expected ids {1,3}, got %v", ids)
	}
}

func TestAlbumGroupingIsCaseInsensitive(t *testing.T) {
	store := &fakeStore{rows: []*mediastore.AudioRow{
		row(1, "a", "Abbey Road", "The Beatles", 1, 0),
		row(2, "b", "abbey road", "THE BEATLES", 2, 0),
		row(3, "c", "Abbey Road", "Oasis", 1, 0), // same album name, other artist
	}}

	lib, _ := build(t, store)
	if len(lib.Albums) != 2 {
		t.Fatalf("expected 2 albums, got %d", len(lib.Albums))
	}
	for _, a := range lib.Albums {
		switch a.ArtistName {
		case "Oasis":
			if len(a.Songs) != 1 {
				t.Errorf("expected 1 song in Oasis album, got %d", len(a.Songs))
			}
		default:
			if len(a.Songs) != 2 {
				t.Errorf("expected 2 songs in Beatles album, got %d", len(a.Songs))
			}
		}
	}
}

func TestRepresentativeSongSelection(t *testing.T) {
	// Tracks [absent, 3, 7]: track 7 sources the album metadata
	rows := []*mediastore.AudioRow{
		row(1, "no-track", "Album", "Artist", -1, 0),
		row(2, "three", "Album", "Artist", 3, 0),
		row(3, "seven", "Album", "Artist", 7, 0),
	}
	rows[2].Year = i64Ptr(1977)
	rows[2].AlbumID = 42

	store := &fakeStore{rows: rows}
	lib, _ := build(t, store)
	if len(lib.Albums) != 1 {
		t.Fatalf("expected 1 album, got %d", len(lib.Albums))
	}

	a := lib.Albums[0]
	if a.Year == nil || *a.Year != 1977 {
		t.Errorf("expected album year from track-7 song, got %v", a.Year)
	}
	if a.CoverRef != "albumart://42" {
		t.Errorf("expected cover ref from track-7 song, got %q", a.CoverRef)
	}
}

func TestRepresentativeSongSelectionReversed(t *testing.T) {
	// Same songs in reverse input order pick the same representative
	rows := []*mediastore.AudioRow{
		row(3, "seven", "Album", "Artist", 7, 0),
		row(2, "three", "Album", "Artist", 3, 0),
		row(1, "no-track", "Album", "Artist", -1, 0),
	}
	rows[0].AlbumID = 42

	store := &fakeStore{rows: rows}
	lib, _ := build(t, store)
	if lib.Albums[0].CoverRef != "albumart://42" {
		t.Errorf("expected track-7 representative regardless of order, got %q", lib.Albums[0].CoverRef)
	}
}

func TestRepresentativeAllAbsentLastWins(t *testing.T) {
	rows := []*mediastore.AudioRow{
		row(1, "first", "Album", "Artist", -1, 0),
		row(2, "second", "Album", "Artist", -1, 0),
	}
	rows[0].AlbumID = 10
	rows[1].AlbumID = 20

	store := &fakeStore{rows: rows}
	lib, _ := build(t, store)
	if lib.Albums[0].CoverRef != "albumart://20" {
		t.Errorf("expected the last-iterated absent-track song as representative, got %q", lib.Albums[0].CoverRef)
	}
}

func TestArtistGroupingPrefersAlbumArtist(t *testing.T) {
	r1 := row(1, "a", "Album", "Track Artist", 1, 0)
	r1.AlbumArtist = strPtr("Album Artist")
	r2 := row(2, "b", "Other", "Solo Artist", 1, 0)

	store := &fakeStore{rows: []*mediastore.AudioRow{r1, r2}}
	lib, _ := build(t, store)

	names := map[string]bool{}
	for _, ar := range lib.Artists {
		if ar.Name != nil {
			names[*ar.Name] = true
		}
	}
	if !names["Album Artist"] {
		t.Error("expected album artist to win artist grouping")
	}
	if names["Track Artist"] {
		t.Error("track artist must not appear when an album artist exists")
	}
	if !names["Solo Artist"] {
		t.Error("expected track artist fallback when album artist is absent")
	}
}

func TestUnknownArtistHasNilName(t *testing.T) {
	store := &fakeStore{rows: []*mediastore.AudioRow{
		row(1, "a", "Album", "", 1, 0),
	}}
	lib, _ := build(t, store)

	if len(lib.Artists) != 1 {
		t.Fatalf("expected 1 artist, got %d", len(lib.Artists))
	}
	if lib.Artists[0].Name != nil {
		t.Errorf("expected nil artist name, got %q", *lib.Artists[0].Name)
	}
	// Still fully linked
	if err := lib.Validate(); err != nil {
		t.Errorf("expected valid library, got %v", err)
	}
}

func TestGenreCatchAll(t *testing.T) {
	rows := make([]*mediastore.AudioRow, 0, 10)
	for i := int64(1); i <= 10; i++ {
		rows = append(rows, row(i, fmt.Sprintf("song-%d", i), "Album", "Artist", i, 1000))
	}

	store := &fakeStore{
		rows:   rows,
		genres: []*mediastore.GenreRow{{ID: 1, Name: strPtr("Rock")}},
		members: map[int64][]int64{
			1: {1, 2, 3, 4, 5, 6},
		},
	}

	lib, result := build(t, store)
	if len(lib.Genres) != 2 {
		t.Fatalf("expected rock plus catch-all, got %d genres", len(lib.Genres))
	}

	var catchAll *library.Genre
	for _, g := range lib.Genres {
		if g.Name == nil {
			catchAll = g
		}
	}
	if catchAll == nil {
		t.Fatal("expected a catch-all genre")
	}
	if len(catchAll.Songs) != 4 {
		t.Errorf("expected 4 songs in catch-all, got %d", len(catchAll.Songs))
	}
	if result.CatchAllSongs != 4 {
		t.Errorf("expected result to count 4 catch-all songs, got %d", result.CatchAllSongs)
	}
}

func TestNoCatchAllWhenAllMatched(t *testing.T) {
	store := &fakeStore{
		rows: []*mediastore.AudioRow{
			row(1, "a", "Album", "Artist", 1, 0),
			row(2, "b", "Album", "Artist", 2, 0),
		},
		genres:  []*mediastore.GenreRow{{ID: 1, Name: strPtr("Rock")}},
		members: map[int64][]int64{1: {1, 2}},
	}

	lib, _ := build(t, store)
	for _, g := range lib.Genres {
		if g.Name == nil {
			t.Error("expected no catch-all genre when every song matched")
		}
	}
}

func TestGenreFirstWriterWins(t *testing.T) {
	store := &fakeStore{
		rows: []*mediastore.AudioRow{
			row(1, "a", "Album", "Artist", 1, 0),
		},
		genres: []*mediastore.GenreRow{
			{ID: 1, Name: strPtr("Rock")},
			{ID: 2, Name: strPtr("Pop")},
		},
		members: map[int64][]int64{
			1: {1},
			2: {1}, // same song claimed twice
		},
	}

	lib, _ := build(t, store)
	if len(lib.Genres) != 1 {
		t.Fatalf("expected only the first genre to keep the song, got %d genres", len(lib.Genres))
	}
	if *lib.Genres[0].Name != "Rock" {
		t.Errorf("expected Rock to win, got %s", *lib.Genres[0].Name)
	}
}

func TestEmptyAndNamelessGenresDropped(t *testing.T) {
	store := &fakeStore{
		rows: []*mediastore.AudioRow{
			row(1, "a", "Album", "Artist", 1, 0),
		},
		genres: []*mediastore.GenreRow{
			{ID: 1, Name: nil},              // store junk, skipped
			{ID: 2, Name: strPtr("Empty")},  // no members, dropped
			{ID: 3, Name: strPtr("Stale")},  // members point at unknown ids, dropped
			{ID: 4, Name: strPtr("Rock")},
		},
		members: map[int64][]int64{
			1: {1},
			3: {999},
			4: {1},
		},
	}

	lib, _ := build(t, store)
	if len(lib.Genres) != 1 {
		t.Fatalf("expected 1 genre, got %d", len(lib.Genres))
	}
	if *lib.Genres[0].Name != "Rock" {
		t.Errorf("expected Rock, got %s", *lib.Genres[0].Name)
	}
}

func TestGenreQueryFailureDegradesToCatchAll(t *testing.T) {
	store := &fakeStore{
		rows: []*mediastore.AudioRow{
			row(1, "a", "Album", "Artist", 1, 0),
		},
		genreErr: errors.New("no cursor"),
	}

	lib, result := build(t, store)
	if len(lib.Genres) != 1 || lib.Genres[0].Name != nil {
		t.Fatal("expected everything in the catch-all when the genre listing fails")
	}
	if result.QueryFailures != 1 {
		t.Errorf("expected 1 query failure, got %d", result.QueryFailures)
	}
	if err := lib.Validate(); err != nil {
		t.Errorf("expected valid library, got %v", err)
	}
}

func TestMemberQueryFailureDegradesPerGenre(t *testing.T) {
	store := &fakeStore{
		rows: []*mediastore.AudioRow{
			row(1, "a", "Album", "Artist", 1, 0),
			row(2, "b", "Album", "Artist", 2, 0),
		},
		genres: []*mediastore.GenreRow{
			{ID: 1, Name: strPtr("Broken")},
			{ID: 2, Name: strPtr("Rock")},
		},
		members:    map[int64][]int64{2: {1}},
		memberErrs: map[int64]error{1: errors.New("timeout")},
	}

	lib, result := build(t, store)
	if result.QueryFailures != 1 {
		t.Errorf("expected 1 query failure, got %d", result.QueryFailures)
	}

	// Rock keeps its member, the broken genre's song falls into the catch-all
	names := map[string]int{}
	catchAll := 0
	for _, g := range lib.Genres {
		if g.Name == nil {
			catchAll = len(g.Songs)
		} else {
			names[*g.Name] = len(g.Songs)
		}
	}
	if names["Rock"] != 1 {
		t.Errorf("expected Rock to keep 1 song, got %d", names["Rock"])
	}
	if names["Broken"] != 0 {
		t.Error("expected the broken genre to be dropped")
	}
	if catchAll != 1 {
		t.Errorf("expected 1 song in catch-all, got %d", catchAll)
	}
}

func TestBuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := &fakeStore{rows: []*mediastore.AudioRow{
		row(1, "a", "Album", "Artist", 1, 0),
	}}
	lib, _, err := New(&Config{Store: store}).Build(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if lib != nil {
		t.Error("expected no partial library on cancellation")
	}
}

func TestBuildPassesExclusionsToStore(t *testing.T) {
	store := &fakeStore{}
	indexer := New(&Config{
		Store:    store,
		Excluded: exclude.Static{"/music/skip/"},
	})
	indexer.Build(context.Background())

	if len(store.gotExcluded) != 1 || store.gotExcluded[0] != "/music/skip" {
		t.Errorf("expected normalized exclusion to reach the store, got %v", store.gotExcluded)
	}
}

func TestBuildFiltersExcludedRowsItself(t *testing.T) {
	// The fake store ignores the exclusion predicate, so the loader's
	// own boundary check has to drop the row
	r1 := row(1, "keep", "Album", "Artist", 1, 0)
	r2 := row(2, "drop", "Album", "Artist", 2, 0)
	r2.Path = "/music/skip/song.mp3"

	store := &fakeStore{rows: []*mediastore.AudioRow{r1, r2}}
	lib, _, err := New(&Config{
		Store:    store,
		Excluded: exclude.Static{"/music/skip"},
	}).Build(context.Background())
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	if len(lib.Songs) != 1 || lib.Songs[0].ID != 1 {
		t.Errorf("expected only the non-excluded song, got %d songs", len(lib.Songs))
	}
}

func TestBuildIsIdempotent(t *testing.T) {
	store := &fakeStore{
		rows: []*mediastore.AudioRow{
			row(1, "a", "Album One", "Artist", 1, 0),
			row(2, "b", "album one", "ARTIST", 2, 0),
			row(3, "c", "Album Two", "Artist", 1, 0),
		},
		genres:  []*mediastore.GenreRow{{ID: 1, Name: strPtr("Rock")}},
		members: map[int64][]int64{1: {1, 3}},
	}

	first, _ := build(t, store)
	second, _ := build(t, store)

	if len(first.Albums) != len(second.Albums) ||
		len(first.Artists) != len(second.Artists) ||
		len(first.Genres) != len(second.Genres) {
		t.Fatal("expected identical partitions across runs")
	}

	partition := func(lib *library.Library) map[string][]int64 {
		p := make(map[string][]int64)
		for _, a := range lib.Albums {
			key := a.Name + "|" + a.ArtistName
			for _, s := range a.Songs {
				p[key] = append(p[key], s.ID)
			}
		}
		return p
	}

	p1, p2 := partition(first), partition(second)
	if len(p1) != len(p2) {
		t.Fatal("expected identical album membership")
	}
	for key, ids := range p1 {
		if len(p2[key]) != len(ids) {
			t.Errorf("album %q membership differs across runs", key)
		}
	}
}

func TestBuildValidatesLinkage(t *testing.T) {
	// Direct check that a corrupted library surfaces a hard failure;
	// the pipeline itself cannot produce one by construction.
	lib := &library.Library{Songs: []*library.Song{{ID: 7, Name: "orphan"}}}
	err := lib.Validate()

	var ce *library.ConsistencyError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConsistencyError, got %v", err)
	}
	if ce.SongID != 7 {
		t.Errorf("expected offending song id 7, got %d", ce.SongID)
	}
}

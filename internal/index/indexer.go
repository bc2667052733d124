// Package index builds a library.Library from the media store in one
// sequential pass: load and dedup rows, group albums, group artists,
// resolve genres, then validate linkage. Each run is a full rebuild;
// nothing is cached across calls.
package index

import (
	"context"
	"fmt"
	"time"

	"mediadex/internal/exclude"
	"mediadex/internal/library"
	"mediadex/internal/mediastore"
	"mediadex/internal/report"
	"mediadex/internal/util"
)

// MediaStore is the query surface the indexer needs. *mediastore.Store
// satisfies it; tests substitute fakes.
type MediaStore interface {
	AudioRows(ctx context.Context, excluded []string) ([]*mediastore.AudioRow, error)
	GenreRows(ctx context.Context) ([]*mediastore.GenreRow, error)
	GenreMembers(ctx context.Context, genreID int64) ([]int64, error)
}

// Config holds indexer configuration
type Config struct {
	Store       MediaStore
	Excluded    exclude.Provider
	Logger      *report.EventLogger
	Concurrency int // workers for genre member queries
}

// Indexer runs the index pipeline
type Indexer struct {
	store       MediaStore
	excluded    exclude.Provider
	logger      *report.EventLogger
	concurrency int
}

// Result represents indexing results
type Result struct {
	RowsLoaded        int
	DuplicatesDropped int
	Songs             int
	Albums            int
	Artists           int
	Genres            int
	CatchAllSongs     int
	QueryFailures     int
	Elapsed           time.Duration
}

// New creates a new Indexer
func New(cfg *Config) *Indexer {
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 4
	}
	excluded := cfg.Excluded
	if excluded == nil {
		excluded = exclude.Static(nil)
	}
	return &Indexer{
		store:       cfg.Store,
		excluded:    excluded,
		logger:      cfg.Logger,
		concurrency: concurrency,
	}
}

// Build runs the full pipeline. It returns a nil library when the
// store has no usable songs; an error is returned only for a failed
// consistency check or cancellation, never for store-level noise.
func (ix *Indexer) Build(ctx context.Context) (*library.Library, *Result, error) {
	start := time.Now()
	result := &Result{}
	defer func() { result.Elapsed = time.Since(start) }()

	util.InfoLog("Starting index pass")

	songs, err := ix.loadSongs(ctx, result)
	if err != nil {
		return nil, result, err
	}
	if len(songs) == 0 {
		util.InfoLog("No music found")
		return nil, result, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, result, err
	}

	albums := ix.groupAlbums(songs)
	artists := ix.groupArtists(albums)
	result.Albums = len(albums)
	result.Artists = len(artists)
	util.DebugLog("Grouped %d songs into %d albums, %d artists",
		len(songs), len(albums), len(artists))

	if err := ctx.Err(); err != nil {
		return nil, result, err
	}

	genres, err := ix.resolveGenres(ctx, songs, result)
	if err != nil {
		return nil, result, err
	}
	result.Genres = len(genres)

	lib := &library.Library{
		Genres:  genres,
		Artists: artists,
		Albums:  albums,
		Songs:   songs,
	}

	if err := lib.Validate(); err != nil {
		if ce, ok := err.(*library.ConsistencyError); ok {
			ix.logger.LogConsistency(ce.SongID, ce.Name, fmt.Sprintf("%v", ce.Missing))
		}
		return nil, result, fmt.Errorf("consistency check failed: %w", err)
	}

	for _, a := range lib.Albums {
		library.SortSongs(a.Songs)
	}
	for _, ar := range lib.Artists {
		library.SortAlbums(ar.Albums)
	}
	library.SortAlbums(lib.Albums)
	library.SortArtists(lib.Artists)
	library.SortGenres(lib.Genres)

	util.SuccessLog("Indexed %d songs, %d albums, %d artists, %d genres in %s",
		result.Songs, result.Albums, result.Artists, result.Genres,
		time.Since(start).Round(time.Millisecond))

	return lib, result, nil
}

package index

import (
	"context"
	"sync"

	"mediadex/internal/library"
	"mediadex/internal/mediastore"
	"mediadex/internal/report"
	"mediadex/internal/util"
)

// resolveGenres links every song to exactly one genre. Member lists
// are fetched with a bounded worker pool; linking happens afterwards,
// sequentially in genre row order, so a song in several member lists
// always lands in the first genre the store listed. Songs no genre
// claimed go into a single catch-all genre with a nil name.
func (ix *Indexer) resolveGenres(ctx context.Context, songs []*library.Song, result *Result) ([]*library.Genre, error) {
	byID := make(map[int64]*library.Song, len(songs))
	for _, s := range songs {
		byID[s.ID] = s
	}

	rows, err := ix.store.GenreRows(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		util.WarnLog("Genre query failed, everything goes to catch-all: %v", err)
		ix.logger.LogError(report.EventGenre, "", err)
		result.QueryFailures++
		rows = nil
	}

	// Nameless genre rows are store-level junk
	named := rows[:0]
	for _, g := range rows {
		if g.Name != nil {
			named = append(named, g)
		}
	}

	members, err := ix.fetchMembers(ctx, named, result)
	if err != nil {
		return nil, err
	}

	var genres []*library.Genre
	for i, row := range named {
		g := &library.Genre{Name: row.Name}
		for _, id := range members[i] {
			s := byID[id]
			if s == nil || s.Genre != nil {
				continue
			}
			s.Genre = g
			g.Songs = append(g.Songs, s)
		}
		// A genre that matched nothing is dropped, not emitted empty
		if len(g.Songs) > 0 {
			genres = append(genres, g)
			ix.logger.LogGenre(*row.Name, len(g.Songs))
		}
	}

	var orphans []*library.Song
	for _, s := range songs {
		if s.Genre == nil {
			orphans = append(orphans, s)
		}
	}
	if len(orphans) > 0 {
		catchAll := &library.Genre{Songs: orphans}
		for _, s := range orphans {
			s.Genre = catchAll
		}
		genres = append(genres, catchAll)
		result.CatchAllSongs = len(orphans)
		ix.logger.LogCatchAll(len(orphans))
		util.DebugLog("%d songs without a genre, placed in catch-all", len(orphans))
	}

	return genres, nil
}

// fetchMembers runs the per-genre member queries on a bounded worker
// pool. Each worker writes only its own result slots; a failed query
// degrades to an empty member list.
func (ix *Indexer) fetchMembers(ctx context.Context, rows []*mediastore.GenreRow, result *Result) ([][]int64, error) {
	members := make([][]int64, len(rows))
	if len(rows) == 0 {
		return members, nil
	}

	workers := ix.concurrency
	if workers > len(rows) {
		workers = len(rows)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				ids, err := ix.store.GenreMembers(ctx, rows[i].ID)
				if err != nil {
					if ctx.Err() != nil {
						continue
					}
					util.WarnLog("Member query for genre %q failed: %v", *rows[i].Name, err)
					mu.Lock()
					result.QueryFailures++
					mu.Unlock()
					continue
				}
				members[i] = ids
			}
		}()
	}

dispatch:
	for i := range rows {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return members, nil
}

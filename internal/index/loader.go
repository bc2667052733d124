package index

import (
	"context"
	"path"
	"strconv"
	"strings"
	"time"

	"mediadex/internal/exclude"
	"mediadex/internal/library"
	"mediadex/internal/mediastore"
	"mediadex/internal/report"
	"mediadex/internal/util"
)

// loadSongs queries music rows minus the excluded prefixes, normalizes
// each into a provisional song and drops exact logical duplicates.
// A failed audio query degrades to zero rows rather than aborting.
func (ix *Indexer) loadSongs(ctx context.Context, result *Result) ([]*library.Song, error) {
	start := time.Now()

	excluded, err := ix.excluded.Excluded()
	if err != nil {
		return nil, err
	}

	rows, err := ix.store.AudioRows(ctx, excluded)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		util.WarnLog("Audio query failed, treating as empty: %v", err)
		ix.logger.LogError(report.EventLoad, "", err)
		result.QueryFailures++
		return nil, nil
	}
	result.RowsLoaded = len(rows)

	seen := make(map[string]bool, len(rows))
	songs := make([]*library.Song, 0, len(rows))
	for _, r := range rows {
		// The store query already filters excluded prefixes; re-check
		// here so store implementations that cannot push the predicate
		// down still honor the exclusion set. Costs O(prefixes) per
		// row, so the SQL clause stays the primary filter and must not
		// be removed in favor of this check.
		if isExcluded(excluded, r.Path) {
			continue
		}
		s := songFromRow(r)
		key := dedupeKey(s)
		if seen[key] {
			result.DuplicatesDropped++
			ix.logger.LogDedup(s.ID, s.Name)
			continue
		}
		seen[key] = true
		songs = append(songs, s)
	}
	result.Songs = len(songs)

	ix.logger.LogLoad(len(rows), result.DuplicatesDropped, time.Since(start))
	util.DebugLog("Loaded %d rows, kept %d songs (%d duplicates)",
		len(rows), len(songs), result.DuplicatesDropped)

	return songs, nil
}

func isExcluded(prefixes []string, path string) bool {
	for _, p := range prefixes {
		if exclude.Excludes(p, path) {
			return true
		}
	}
	return false
}

// songFromRow normalizes one store row into a provisional song. The
// unknown sentinel becomes nil, the composite track field is split,
// and a zero disc means no disc.
func songFromRow(r *mediastore.AudioRow) *library.Song {
	s := &library.Song{
		ID:         r.ID,
		Name:       displayName(r),
		DurationMs: r.DurationMs,
		AlbumID:    r.AlbumID,
	}

	if r.Year != nil {
		year := int(*r.Year)
		s.Year = &year
	}

	if r.TrackDisc != nil {
		track := int(*r.TrackDisc % 1000)
		s.Track = &track
		if disc := int(*r.TrackDisc / 1000); disc != 0 {
			s.Disc = &disc
		}
	}

	if r.Album != nil {
		s.RawAlbum = *r.Album
	} else {
		s.RawAlbum = mediastore.UnknownString
	}
	s.RawArtist = normalizeUnknown(r.Artist)
	s.RawAlbumArtist = normalizeUnknown(r.AlbumArtist)

	return s
}

// displayName prefers the store's display-name column, then the path
// basename, then a literal fallback
func displayName(r *mediastore.AudioRow) string {
	if r.DisplayName != nil && *r.DisplayName != "" {
		return *r.DisplayName
	}
	if base := path.Base(r.Path); base != "" && base != "." && base != "/" {
		return base
	}
	return "unknown"
}

// normalizeUnknown maps the store's unknown sentinel to nil so the
// rest of the pipeline sees one optional representation
func normalizeUnknown(p *string) *string {
	if p == nil || *p == mediastore.UnknownString {
		return nil
	}
	return p
}

// dedupeKey identifies clones of one physical file. Two rows matching
// on all six fields collapse to one song; absent values are kept
// distinct from empty strings.
func dedupeKey(s *library.Song) string {
	return strings.Join([]string{
		s.Name,
		s.RawAlbum,
		optString(s.RawArtist),
		optString(s.RawAlbumArtist),
		optInt(s.Track),
		strconv.FormatInt(s.DurationMs, 10),
	}, "\x00")
}

func optString(p *string) string {
	if p == nil {
		return "\x01"
	}
	return *p
}

func optInt(p *int) string {
	if p == nil {
		return "\x01"
	}
	return strconv.Itoa(*p)
}

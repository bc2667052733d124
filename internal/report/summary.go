package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"mediadex/internal/library"
)

// SummaryReport represents a complete index summary
type SummaryReport struct {
	GeneratedAt time.Time
	Elapsed     time.Duration

	// Load statistics
	RowsLoaded        int
	DuplicatesDropped int
	QueryFailures     int

	// Library statistics
	Songs         int
	Albums        int
	Artists       int
	Genres        int
	CatchAllSongs int
	TotalDuration time.Duration

	// Details
	TopGenres  []GroupSummary
	TopArtists []GroupSummary

	// Metadata
	DatabasePath string
	EventLogPath string
}

// GroupSummary is one named group with its song count. An empty name
// means the group has no name of its own (the catch-all genre, the
// unknown artist).
type GroupSummary struct {
	Name  string
	Songs int
}

// Stats carries the pipeline counters the report cannot derive from
// the library itself
type Stats struct {
	RowsLoaded        int
	DuplicatesDropped int
	QueryFailures     int
	Elapsed           time.Duration
}

// NewSummaryReport builds a summary from a finished library build.
// A nil library produces a report with zeroed library statistics.
func NewSummaryReport(lib *library.Library, stats Stats) *SummaryReport {
	r := &SummaryReport{
		GeneratedAt:       time.Now(),
		Elapsed:           stats.Elapsed,
		RowsLoaded:        stats.RowsLoaded,
		DuplicatesDropped: stats.DuplicatesDropped,
		QueryFailures:     stats.QueryFailures,
		TopGenres:         make([]GroupSummary, 0),
		TopArtists:        make([]GroupSummary, 0),
	}
	if lib == nil {
		return r
	}

	r.Songs = len(lib.Songs)
	r.Albums = len(lib.Albums)
	r.Artists = len(lib.Artists)
	r.Genres = len(lib.Genres)
	r.TotalDuration = time.Duration(lib.TotalDurationMs()) * time.Millisecond

	for _, g := range lib.Genres {
		name := ""
		if g.Name != nil {
			name = *g.Name
		} else {
			r.CatchAllSongs = len(g.Songs)
		}
		r.TopGenres = append(r.TopGenres, GroupSummary{Name: name, Songs: len(g.Songs)})
	}
	sortGroups(r.TopGenres)
	r.TopGenres = capGroups(r.TopGenres, 20)

	for _, a := range lib.Artists {
		name := ""
		if a.Name != nil {
			name = *a.Name
		}
		count := 0
		for _, album := range a.Albums {
			count += len(album.Songs)
		}
		r.TopArtists = append(r.TopArtists, GroupSummary{Name: name, Songs: count})
	}
	sortGroups(r.TopArtists)
	r.TopArtists = capGroups(r.TopArtists, 20)

	return r
}

func sortGroups(groups []GroupSummary) {
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Songs > groups[j].Songs
	})
}

func capGroups(groups []GroupSummary, limit int) []GroupSummary {
	if len(groups) > limit {
		return groups[:limit]
	}
	return groups
}

// WriteMarkdownReport writes the summary report as Markdown
func WriteMarkdownReport(report *SummaryReport, outputPath string) error {
	// Create output directory
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// Generate markdown content
	var md strings.Builder

	// Header
	md.WriteString("# Mediadex - Index Summary\n\n")
	md.WriteString(fmt.Sprintf("**Generated:** %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05")))

	if report.DatabasePath != "" {
		md.WriteString(fmt.Sprintf("**Database:** `%s`\n\n", report.DatabasePath))
	}
	if report.EventLogPath != "" {
		md.WriteString(fmt.Sprintf("**Event Log:** `%s`\n\n", report.EventLogPath))
	}

	md.WriteString("---\n\n")

	// Overview
	md.WriteString("## 📊 Overview\n\n")
	md.WriteString("| Metric | Value |\n")
	md.WriteString("|--------|-------|\n")
	md.WriteString(fmt.Sprintf("| Rows Loaded | %d |\n", report.RowsLoaded))
	if report.DuplicatesDropped > 0 {
		md.WriteString(fmt.Sprintf("| Duplicates Dropped | %d |\n", report.DuplicatesDropped))
	}
	if report.QueryFailures > 0 {
		md.WriteString(fmt.Sprintf("| Query Failures | %d |\n", report.QueryFailures))
	}
	md.WriteString(fmt.Sprintf("| Songs | %d |\n", report.Songs))
	md.WriteString(fmt.Sprintf("| Albums | %d |\n", report.Albums))
	md.WriteString(fmt.Sprintf("| Artists | %d |\n", report.Artists))
	md.WriteString(fmt.Sprintf("| Genres | %d |\n", report.Genres))
	if report.TotalDuration > 0 {
		md.WriteString(fmt.Sprintf("| Total Playtime | %s |\n", report.TotalDuration.Round(time.Second)))
	}
	if report.Elapsed > 0 {
		md.WriteString(fmt.Sprintf("| Index Time | %s |\n", report.Elapsed.Round(time.Millisecond)))
	}
	md.WriteString("\n")

	// Genres
	if len(report.TopGenres) > 0 {
		md.WriteString("## 🎵 Genres (Top 20)\n\n")
		md.WriteString("| Genre | Songs |\n")
		md.WriteString("|-------|-------|\n")
		for _, g := range report.TopGenres {
			name := g.Name
			if name == "" {
				name = "*(no genre)*"
			}
			md.WriteString(fmt.Sprintf("| %s | %d |\n", name, g.Songs))
		}
		md.WriteString("\n")
	}

	// Artists
	if len(report.TopArtists) > 0 {
		md.WriteString("## 🎤 Artists (Top 20)\n\n")
		md.WriteString("| Artist | Songs |\n")
		md.WriteString("|--------|-------|\n")
		for _, a := range report.TopArtists {
			name := a.Name
			if name == "" {
				name = "*(unknown artist)*"
			}
			md.WriteString(fmt.Sprintf("| %s | %d |\n", name, a.Songs))
		}
		md.WriteString("\n")
	}

	if report.CatchAllSongs > 0 {
		md.WriteString(fmt.Sprintf("**Note:** %d songs matched no genre and sit in the catch-all bucket.\n\n", report.CatchAllSongs))
	}

	// Footer
	md.WriteString("---\n\n")
	md.WriteString("*Generated by mediadex*\n")

	// Write to file
	if err := os.WriteFile(outputPath, []byte(md.String()), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	return nil
}

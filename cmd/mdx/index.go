package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"mediadex/internal/exclude"
	"mediadex/internal/index"
	"mediadex/internal/library"
	"mediadex/internal/mediastore"
	"mediadex/internal/report"
	"mediadex/internal/util"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the music library from the media store",
	Long: `Run the index pipeline against the media store: load and deduplicate
audio rows, group them into albums and artists, resolve genre membership
and validate that every song is fully linked.

Directories listed under the 'exclude' config key (or --exclude) are
filtered out before grouping. The pipeline rebuilds from scratch on
every run; there is no incremental update.`,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)

	indexCmd.Flags().StringSlice("exclude", nil, "directory prefixes to exclude (repeatable)")
	indexCmd.Flags().Int("concurrency", 8, "parallel genre member queries")
	indexCmd.Flags().String("report", "", "write a Markdown summary to this path")
	viper.BindPFlag("exclude", indexCmd.Flags().Lookup("exclude"))
	viper.BindPFlag("concurrency", indexCmd.Flags().Lookup("concurrency"))
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	dbPath := viper.GetString("db")
	reportPath, _ := cmd.Flags().GetString("report")

	util.SetVerbose(viper.GetBool("verbose"))
	util.SetQuiet(viper.GetBool("quiet"))

	util.InfoLog("Opening media store: %s", dbPath)

	db, err := mediastore.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open media store: %w", err)
	}
	defer db.Close()

	logger := openEventLogger()
	defer logger.Close()

	indexer := index.New(&index.Config{
		Store:       db,
		Excluded:    exclude.FromConfig("exclude"),
		Logger:      logger,
		Concurrency: viper.GetInt("concurrency"),
	})

	lib, result, err := indexer.Build(ctx)
	if err != nil {
		var ce *library.ConsistencyError
		if errors.As(err, &ce) {
			// A broken linkage is a defect, not bad input
			return fmt.Errorf("indexing defect: %w", err)
		}
		return fmt.Errorf("index failed: %w", err)
	}

	if lib == nil {
		util.InfoLog("No music found in the store. Run 'mdx seed' first.")
		return nil
	}

	printLibrarySummary(lib, result)

	if reportPath != "" {
		summary := report.NewSummaryReport(lib, report.Stats{
			RowsLoaded:        result.RowsLoaded,
			DuplicatesDropped: result.DuplicatesDropped,
			QueryFailures:     result.QueryFailures,
			Elapsed:           result.Elapsed,
		})
		summary.DatabasePath = dbPath
		summary.EventLogPath = logger.Path()
		if err := report.WriteMarkdownReport(summary, reportPath); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		util.SuccessLog("Report written to %s", reportPath)
	}

	return nil
}

func printLibrarySummary(lib *library.Library, result *index.Result) {
	util.InfoLog("")
	util.SuccessLog("=== Library ===")
	util.InfoLog("  Songs:   %s", humanize.Comma(int64(len(lib.Songs))))
	util.InfoLog("  Albums:  %s", humanize.Comma(int64(len(lib.Albums))))
	util.InfoLog("  Artists: %s", humanize.Comma(int64(len(lib.Artists))))
	util.InfoLog("  Genres:  %s", humanize.Comma(int64(len(lib.Genres))))

	playtime := time.Duration(lib.TotalDurationMs()) * time.Millisecond
	if playtime > 0 {
		util.InfoLog("  Playtime: %s", playtime.Round(time.Second))
	}

	if result.DuplicatesDropped > 0 {
		util.InfoLog("  Duplicates dropped: %d", result.DuplicatesDropped)
	}
	if result.CatchAllSongs > 0 {
		util.InfoLog("  Songs without genre: %d", result.CatchAllSongs)
	}
	if result.QueryFailures > 0 {
		util.WarnLog("  Store queries degraded: %d", result.QueryFailures)
	}
}

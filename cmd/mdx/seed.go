package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"mediadex/internal/mediastore"
	"mediadex/internal/meta"
	"mediadex/internal/report"
	"mediadex/internal/scan"
	"mediadex/internal/util"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the media store from a music directory",
	Long: `Walk a music directory, read tags from every audio file and write the
rows into the media store database.

The store mirrors what a device's media scanner would produce: a flat
audio table plus genre membership. Run 'mdx index' afterwards to resolve
the rows into a library.`,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().StringP("source", "s", "", "music directory to seed from")
	seedCmd.Flags().Int("concurrency", 8, "parallel tag readers")
	viper.BindPFlag("source", seedCmd.Flags().Lookup("source"))
	viper.BindPFlag("concurrency", seedCmd.Flags().Lookup("concurrency"))
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	source := viper.GetString("source")
	if source == "" {
		return fmt.Errorf("source directory is required (use --source/-s or set in config)")
	}

	concurrency := viper.GetInt("concurrency")
	dbPath := viper.GetString("db")

	util.SetVerbose(viper.GetBool("verbose"))
	util.SetQuiet(viper.GetBool("quiet"))

	if _, err := os.Stat(source); os.IsNotExist(err) {
		return fmt.Errorf("source directory does not exist: %s", source)
	}

	util.InfoLog("Opening media store: %s", dbPath)

	db, err := mediastore.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open media store: %w", err)
	}
	defer db.Close()

	logger := openEventLogger()
	defer logger.Close()

	if !meta.CheckFFprobeAvailable() {
		util.WarnLog("ffprobe not found in PATH, song durations will be zero")
		util.WarnLog("Install ffmpeg for best results: https://ffmpeg.org/")
	}

	seeder := scan.New(&scan.Config{
		Store:       db,
		Concurrency: concurrency,
		Logger:      logger,
	})
	util.DebugLog("Supported extensions: %s", strings.Join(seeder.SupportedExtensions(), " "))

	startTime := time.Now()

	result, err := seeder.Seed(ctx, source)
	if err != nil {
		return fmt.Errorf("seed failed: %w", err)
	}

	util.SuccessLog("Seed complete in %v", time.Since(startTime).Round(time.Millisecond))
	util.InfoLog("  Files found: %s", humanize.Comma(int64(result.FilesFound)))
	util.InfoLog("  Rows written: %s", humanize.Comma(int64(result.FilesSeeded)))
	if len(result.Errors) > 0 {
		util.WarnLog("  Errors: %d", len(result.Errors))
	}

	total, err := db.CountAudioFiles()
	if err == nil {
		util.InfoLog("  Store now holds %s music rows", humanize.Comma(int64(total)))
	}

	util.InfoLog("")
	util.InfoLog("Next step: mdx index")

	return nil
}

// openEventLogger builds the JSONL logger shared by all commands,
// falling back to a null logger when artifacts cannot be written
func openEventLogger() *report.EventLogger {
	logLevel := report.LevelInfo
	if viper.GetBool("quiet") {
		logLevel = report.LevelWarning
	} else if viper.GetBool("verbose") {
		logLevel = report.LevelDebug
	}

	logger, err := report.NewEventLogger("artifacts", logLevel)
	if err != nil {
		util.WarnLog("Failed to create event logger: %v", err)
		return report.NullLogger()
	}

	if logger.Path() != "" {
		util.InfoLog("Event log: %s", logger.Path())
	}
	return logger
}

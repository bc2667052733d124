package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"mediadex/internal/mediastore"
	"mediadex/internal/util"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks on the media store",
	Long: `Run diagnostic checks to ensure mdx can operate correctly.

This command checks:
- Database accessibility and integrity
- Row counts across the store tables
- Genre links pointing at missing audio rows
- Source directory readability (when configured)

Use this command to troubleshoot issues before seeding or indexing.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

type checkResult struct {
	name    string
	message string
	error   bool
	warning bool
}

func runDoctor(cmd *cobra.Command, args []string) error {
	util.InfoLog("=== Mediadex Doctor ===")
	util.InfoLog("")

	results := []checkResult{}

	dbPath := viper.GetString("db")
	results = append(results, checkDatabase(dbPath)...)

	if source := viper.GetString("source"); source != "" {
		results = append(results, checkSourceDirectory(source))
	}

	util.InfoLog("")
	util.InfoLog("=== Diagnostic Results ===")
	util.InfoLog("")

	hasErrors := false
	for _, r := range results {
		switch {
		case r.error:
			hasErrors = true
			util.ErrorLog("✗ %s: %s", r.name, r.message)
		case r.warning:
			util.WarnLog("! %s: %s", r.name, r.message)
		default:
			util.SuccessLog("✓ %s: %s", r.name, r.message)
		}
	}

	if hasErrors {
		return fmt.Errorf("diagnostics found problems")
	}

	util.InfoLog("")
	util.SuccessLog("All checks passed")
	return nil
}

func checkDatabase(dbPath string) []checkResult {
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return []checkResult{{
			name:    "Database",
			message: fmt.Sprintf("%s does not exist yet (created on first seed)", dbPath),
			warning: true,
		}}
	}

	db, err := mediastore.Open(dbPath)
	if err != nil {
		return []checkResult{{
			name:    "Database",
			message: fmt.Sprintf("cannot open %s: %v", dbPath, err),
			error:   true,
		}}
	}
	defer db.Close()

	results := []checkResult{{
		name:    "Database",
		message: fmt.Sprintf("%s opens cleanly", dbPath),
	}}

	verdict, err := db.IntegrityCheck()
	switch {
	case err != nil:
		results = append(results, checkResult{
			name: "Integrity", message: err.Error(), error: true})
	case verdict != "ok":
		results = append(results, checkResult{
			name: "Integrity", message: verdict, error: true})
	default:
		results = append(results, checkResult{
			name: "Integrity", message: "ok"})
	}

	stats, err := db.Stats()
	if err != nil {
		results = append(results, checkResult{
			name: "Store stats", message: err.Error(), error: true})
		return results
	}

	results = append(results, checkResult{
		name: "Store stats",
		message: fmt.Sprintf("%s music rows, %s albums, %s genres, %s genre links",
			humanize.Comma(int64(stats.MusicRows)),
			humanize.Comma(int64(stats.Albums)),
			humanize.Comma(int64(stats.Genres)),
			humanize.Comma(int64(stats.GenreLinks))),
	})

	if stats.OrphanLinks > 0 {
		results = append(results, checkResult{
			name:    "Genre links",
			message: fmt.Sprintf("%d links point at missing audio rows (harmless, ignored by the indexer)", stats.OrphanLinks),
			warning: true,
		})
	}

	return results
}

func checkSourceDirectory(source string) checkResult {
	info, err := os.Stat(source)
	if err != nil {
		return checkResult{
			name:    "Source",
			message: fmt.Sprintf("cannot access %s: %v", source, err),
			error:   true,
		}
	}
	if !info.IsDir() {
		return checkResult{
			name:    "Source",
			message: fmt.Sprintf("%s is not a directory", source),
			error:   true,
		}
	}

	f, err := os.Open(source)
	if err != nil {
		return checkResult{
			name:    "Source",
			message: fmt.Sprintf("cannot read %s: %v", source, err),
			error:   true,
		}
	}
	f.Close()

	return checkResult{name: "Source", message: fmt.Sprintf("%s is readable", source)}
}

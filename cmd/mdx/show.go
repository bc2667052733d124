package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"mediadex/internal/exclude"
	"mediadex/internal/index"
	"mediadex/internal/library"
	"mediadex/internal/mediastore"
	"mediadex/internal/report"
	"mediadex/internal/util"
)

var showCmd = &cobra.Command{
	Use:       "show [artists|albums|genres]",
	Short:     "Show the indexed library",
	ValidArgs: []string{"artists", "albums", "genres"},
	Args:      cobra.MaximumNArgs(1),
	Long: `Build the library and print it in a human-readable layout.

By default artists are listed with their albums and songs. Pass
'albums' or 'genres' to pivot the listing.`,
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().Bool("songs", false, "list songs under each group")
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	dbPath := viper.GetString("db")
	showSongs, _ := cmd.Flags().GetBool("songs")

	util.SetVerbose(viper.GetBool("verbose"))
	util.SetQuiet(viper.GetBool("quiet"))

	db, err := mediastore.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open media store: %w", err)
	}
	defer db.Close()

	indexer := index.New(&index.Config{
		Store:    db,
		Excluded: exclude.FromConfig("exclude"),
		Logger:   report.NullLogger(),
	})

	lib, _, err := indexer.Build(ctx)
	if err != nil {
		return fmt.Errorf("index failed: %w", err)
	}
	if lib == nil {
		util.WarnLog("No music found. Run 'mdx seed' first.")
		return nil
	}

	mode := "artists"
	if len(args) > 0 {
		mode = args[0]
	}

	switch mode {
	case "artists":
		showArtists(lib, showSongs)
	case "albums":
		showAlbums(lib, showSongs)
	case "genres":
		showGenres(lib, showSongs)
	}

	return nil
}

func showArtists(lib *library.Library, showSongs bool) {
	for _, ar := range lib.Artists {
		fmt.Printf("%s\n", artistLabel(ar))
		for _, a := range ar.Albums {
			fmt.Printf("  %s%s (%d songs)\n", a.Name, yearSuffix(a.Year), len(a.Songs))
			if showSongs {
				printSongs(a.Songs, "    ")
			}
		}
	}
}

func showAlbums(lib *library.Library, showSongs bool) {
	for _, a := range lib.Albums {
		fmt.Printf("%s%s - %s (%d songs)\n",
			a.Name, yearSuffix(a.Year), artistLabel(a.Artist), len(a.Songs))
		if showSongs {
			printSongs(a.Songs, "  ")
		}
	}
}

func showGenres(lib *library.Library, showSongs bool) {
	for _, g := range lib.Genres {
		name := "(no genre)"
		if g.Name != nil {
			name = *g.Name
		}
		fmt.Printf("%s (%d songs)\n", name, len(g.Songs))
		if showSongs {
			printSongs(g.Songs, "  ")
		}
	}
}

func printSongs(songs []*library.Song, indent string) {
	for _, s := range songs {
		track := "  -"
		if s.Track != nil {
			track = fmt.Sprintf("%3d", *s.Track)
		}
		length := ""
		if s.DurationMs > 0 {
			d := time.Duration(s.DurationMs) * time.Millisecond
			length = fmt.Sprintf("  [%s]", d.Round(time.Second))
		}
		fmt.Printf("%s%s  %s%s\n", indent, track, s.Name, length)
	}
}

func artistLabel(ar *library.Artist) string {
	if ar == nil || ar.Name == nil {
		return "(unknown artist)"
	}
	return *ar.Name
}

func yearSuffix(year *int) string {
	if year == nil {
		return ""
	}
	return fmt.Sprintf(" (%d)", *year)
}

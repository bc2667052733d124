// Package scan populates the media store from an on-disk music
// directory. It is the write side of the system: the indexer only ever
// reads what the seeder put into the store.
package scan

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/schollz/progressbar/v3"

	"mediadex/internal/mediastore"
	"mediadex/internal/meta"
	"mediadex/internal/report"
	"mediadex/internal/util"
)

// AudioExtensions are the default supported audio file extensions
var AudioExtensions = []string{
	".mp3",
	".flac",
	".m4a",
	".aac",
	".ogg",
	".opus",
	".wav",
	".aiff",
	".aif",
	".wma",
}

// Seeder walks a directory tree and writes audio rows into the store
type Seeder struct {
	store       *mediastore.Store
	reader      meta.Reader
	extensions  map[string]bool
	concurrency int
	logger      *report.EventLogger
}

// Config holds seeder configuration
type Config struct {
	Store          *mediastore.Store
	Reader         meta.Reader // nil means the default file-based reader
	AdditionalExts []string
	Concurrency    int
	Logger         *report.EventLogger
}

// New creates a new Seeder
func New(cfg *Config) *Seeder {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}

	reader := cfg.Reader
	if reader == nil {
		reader = meta.NewFileReader()
	}

	// Build extension map (case-insensitive)
	extMap := make(map[string]bool)
	for _, ext := range AudioExtensions {
		extMap[strings.ToLower(ext)] = true
	}
	for _, ext := range cfg.AdditionalExts {
		extMap[strings.ToLower(ext)] = true
	}

	return &Seeder{
		store:       cfg.Store,
		reader:      reader,
		extensions:  extMap,
		concurrency: cfg.Concurrency,
		logger:      cfg.Logger,
	}
}

// Result represents a seeding result
type Result struct {
	FilesFound  int
	FilesSeeded int
	Errors      []error
}

// seededFile carries one parsed file from a tag worker to the writer
type seededFile struct {
	path string
	tags *meta.Tags
}

// Seed walks sourcePath, reads tags off a worker pool and writes rows
// through a single writer goroutine, matching the store's single-writer
// model. Unreadable files are logged and skipped, never fatal.
func (s *Seeder) Seed(ctx context.Context, sourcePath string) (*Result, error) {
	util.InfoLog("Seeding media store from: %s", sourcePath)

	result := &Result{Errors: make([]error, 0)}
	var resultMu sync.Mutex

	filePaths := make(chan string, 100)
	parsed := make(chan *seededFile, 100)

	var filesFound atomic.Int64
	var filesSeeded atomic.Int64

	// Progress bar on a TTY, periodic text lines otherwise
	isTTY := util.IsTerminal(os.Stdout.Fd())
	var bar *progressbar.ProgressBar
	if isTTY && !util.IsQuiet() {
		bar = progressbar.NewOptions(-1,
			progressbar.OptionSetDescription("Seeding"),
			progressbar.OptionSetWidth(progressWidth(util.GetTerminalWidth())),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("files"),
			progressbar.OptionThrottle(200*time.Millisecond),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetRenderBlankState(true),
		)
	}

	progressCtx, cancelProgress := context.WithCancel(ctx)
	defer cancelProgress()
	go func() {
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-progressCtx.Done():
				return
			case <-ticker.C:
				found := filesFound.Load()
				seeded := filesSeeded.Load()
				if bar != nil {
					bar.Describe(fmt.Sprintf("Seeding | %d found | %d written", found, seeded))
					bar.Set64(seeded)
				} else if found > 0 {
					util.InfoLog("Progress: found %d audio files, seeded %d", found, seeded)
				}
			}
		}
	}()

	// Tag workers read files in parallel
	var wg sync.WaitGroup
	for i := 0; i < s.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range filePaths {
				select {
				case <-ctx.Done():
					return
				default:
				}

				tags, err := s.reader.ReadTags(path)
				s.logger.LogSeed(path, err)
				if err != nil {
					if errors.Is(err, util.ErrUnsupported) {
						util.DebugLog("No tags in %s, seeding bare row", path)
					} else {
						util.WarnLog("Failed to read tags from %s: %v", path, err)
						resultMu.Lock()
						result.Errors = append(result.Errors, fmt.Errorf("read tags: %s: %w", path, err))
						resultMu.Unlock()
					}
					tags = &meta.Tags{} // still record the file, columns stay null
				}

				select {
				case parsed <- &seededFile{path: path, tags: tags}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	// Single writer serializes all store writes
	var writerWg sync.WaitGroup
	writerWg.Add(1)
	go func() {
		defer writerWg.Done()
		for f := range parsed {
			if err := s.writeFile(f.path, f.tags); err != nil {
				util.ErrorLog("Failed to seed %s: %v", f.path, err)
				resultMu.Lock()
				result.Errors = append(result.Errors, err)
				resultMu.Unlock()
				continue
			}
			filesSeeded.Add(1)
		}
	}()

	walkErr := filepath.WalkDir(sourcePath, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			util.WarnLog("Error accessing path %s: %v", path, err)
			resultMu.Lock()
			result.Errors = append(result.Errors, fmt.Errorf("access error: %s: %w", path, err))
			resultMu.Unlock()
			return nil // Continue walking
		}

		if d.IsDir() {
			return nil
		}

		if s.isAudioFile(path) {
			filesFound.Add(1)
			select {
			case filePaths <- path:
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		return nil
	})

	close(filePaths)
	wg.Wait()
	close(parsed)
	writerWg.Wait()
	cancelProgress()

	if bar != nil {
		bar.Finish()
	}

	result.FilesFound = int(filesFound.Load())
	result.FilesSeeded = int(filesSeeded.Load())

	if walkErr != nil && walkErr != context.Canceled {
		return result, fmt.Errorf("walk error: %w", walkErr)
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	util.SuccessLog("Seed complete: %d files found, %d written, %d errors",
		result.FilesFound, result.FilesSeeded, len(result.Errors))

	return result, nil
}

// writeFile turns one parsed file into store rows: the audio row, its
// album row and any genre membership, written atomically
func (s *Seeder) writeFile(path string, t *meta.Tags) error {
	row := &mediastore.AudioRow{
		Path:       path,
		DurationMs: t.DurationMs,
		IsMusic:    true,
	}
	if t.Title != "" {
		row.Title = &t.Title
		row.DisplayName = &t.Title
	}
	if t.Album != "" {
		row.Album = &t.Album
	}
	if t.Artist != "" {
		row.Artist = &t.Artist
	}
	if t.AlbumArtist != "" {
		row.AlbumArtist = &t.AlbumArtist
	}
	if t.Year > 0 {
		year := int64(t.Year)
		row.Year = &year
	}
	if t.Track > 0 || t.Disc > 0 {
		// Composite encoding: disc in the thousands, track below
		composite := int64(t.Disc)*1000 + int64(t.Track)
		row.TrackDisc = &composite
	}

	if err := s.store.SeedAudioFile(row, albumKey(t), t.Genre); err != nil {
		return fmt.Errorf("seed %s: %w", path, err)
	}

	return nil
}

// albumKey builds the identity string for the albums table. Same
// folding as the indexer's grouping so one album gets one id.
func albumKey(t *meta.Tags) string {
	album := t.Album
	if album == "" {
		album = mediastore.UnknownString
	}
	artist := t.AlbumArtist
	if artist == "" {
		artist = t.Artist
	}
	if artist == "" {
		artist = mediastore.UnknownString
	}
	return strings.ToLower(album) + "\x00" + strings.ToLower(artist)
}

// progressWidth sizes the bar to the terminal, leaving room for the
// description and counters progressbar renders around it
func progressWidth(terminal int) int {
	w := terminal - 50
	if w < 10 {
		return 10
	}
	if w > 60 {
		return 60
	}
	return w
}

// isAudioFile checks if a file has a supported audio extension
func (s *Seeder) isAudioFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return s.extensions[ext]
}

// SupportedExtensions returns the sorted list of supported extensions
func (s *Seeder) SupportedExtensions() []string {
	exts := make([]string, 0, len(s.extensions))
	for ext := range s.extensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

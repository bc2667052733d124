// Package meta reads tag metadata from audio files for the seeder.
// Tags come from the tag library; duration comes from ffprobe when it
// is installed, since tag headers do not carry it.
package meta

import (
	"errors"
	"fmt"

	"github.com/dhowden/tag"

	"mediadex/internal/util"
)

// Tags is the metadata read from one audio file. Zero values mean the
// tag was absent.
type Tags struct {
	Title       string
	Album       string
	Artist      string
	AlbumArtist string
	Genre       string
	Track       int
	Disc        int
	Year        int
	DurationMs  int64
}

// Reader extracts tags from an audio file. FileReader parses real
// files; tests substitute a stub.
type Reader interface {
	ReadTags(path string) (*Tags, error)
}

// FileReader reads tags with the tag library and fills in duration
// with ffprobe when available
type FileReader struct {
	useFFprobe bool
}

// NewFileReader creates the default file-based reader
func NewFileReader() *FileReader {
	return &FileReader{useFFprobe: CheckFFprobeAvailable()}
}

// ReadTags reads the file's tags. A missing ffprobe only costs the
// duration, never the tags.
func (r *FileReader) ReadTags(path string) (*Tags, error) {
	f, err := util.RetryableOpen(path, nil)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		if errors.Is(err, tag.ErrNoTagsFound) {
			return nil, fmt.Errorf("%s: %w", path, util.ErrUnsupported)
		}
		return nil, fmt.Errorf("parse tags: %w", err)
	}

	track, _ := m.Track()
	disc, _ := m.Disc()

	t := &Tags{
		Title:       m.Title(),
		Album:       m.Album(),
		Artist:      m.Artist(),
		AlbumArtist: m.AlbumArtist(),
		Genre:       m.Genre(),
		Track:       track,
		Disc:        disc,
		Year:        m.Year(),
	}

	if r.useFFprobe {
		if ms, err := ProbeDurationMs(path); err == nil {
			t.DurationMs = ms
		}
	}

	return t, nil
}

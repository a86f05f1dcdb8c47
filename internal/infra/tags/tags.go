// Package tags reads metadata and stream length from MP3 files.
package tags

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bogem/id3v2/v2"
	"github.com/cockroachdb/errors"
	"github.com/dhowden/tag"
	"github.com/llehouerou/go-mp3"
)

// ExtMP3 is the only extension the library picks up.
const ExtMP3 = ".mp3"

// Tag holds the metadata needed to build a track.
type Tag struct {
	Path     string
	Title    string
	Artist   string
	Album    string
	Duration time.Duration
}

// IsMP3 reports whether path has an .mp3 extension (case-insensitive).
func IsMP3(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ExtMP3)
}

// Reader reads tags from files on disk.
type Reader struct{}

// NewReader creates a new Reader.
func NewReader() *Reader {
	return &Reader{}
}

// Read reads tags and duration from the MP3 file at path.
func (r *Reader) Read(path string) (*Tag, error) {
	t, err := readTags(path)
	if err != nil {
		return nil, err
	}

	d, err := readDuration(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read duration of %s", path)
	}
	t.Duration = d

	return t, nil
}

// readTags tries dhowden/tag first and falls back to id3v2,
// which copes with some UTF-16 encoded frames dhowden/tag rejects.
func readTags(path string) (*Tag, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open file")
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		t, fallbackErr := readID3v2(path)
		if fallbackErr != nil {
			return nil, errors.Wrapf(errors.CombineErrors(err, fallbackErr), "failed to read tags of %s", path)
		}
		return t, nil
	}

	return newTag(path, m.Title(), m.Artist(), m.Album()), nil
}

func readID3v2(path string) (*Tag, error) {
	id3tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return nil, err
	}
	defer id3tag.Close()

	return newTag(path, id3tag.Title(), id3tag.Artist(), id3tag.Album()), nil
}

func newTag(path, title, artist, album string) *Tag {
	title = strings.TrimSpace(title)
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return &Tag{
		Path:   path,
		Title:  title,
		Artist: strings.TrimSpace(artist),
		Album:  strings.TrimSpace(album),
	}
}

// readDuration decodes the frame headers to compute the stream length.
func readDuration(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		return 0, err
	}

	sampleRate := decoder.SampleRate()
	if sampleRate == 0 {
		return 0, errors.New("mp3: invalid sample rate")
	}

	sampleCount := max(decoder.SampleCount(), 0)
	d := time.Duration(float64(sampleCount) / float64(sampleRate) * float64(time.Second))

	return d.Truncate(time.Millisecond), nil
}

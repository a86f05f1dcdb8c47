package store

import (
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/gocarina/gocsv"

	"github.com/osa030/bananabox/internal/domain/playlist"
)

// Row is one exported track.
type Row struct {
	Number  int    `csv:"number"`
	Artist  string `csv:"artist"`
	Title   string `csv:"title"`
	Album   string `csv:"album"`
	Seconds string `csv:"seconds"`
	Path    string `csv:"path"`
}

// Rows converts a playlist into export rows, numbered from 1.
func Rows(p *playlist.Playlist) []*Row {
	tracks := p.Tracks()
	rows := make([]*Row, len(tracks))
	for i, t := range tracks {
		rows[i] = &Row{
			Number:  i + 1,
			Artist:  t.Artist,
			Title:   t.Title,
			Album:   t.Album,
			Seconds: formatSeconds(t.Duration),
			Path:    t.Path,
		}
	}
	return rows
}

// Export writes the playlist as CSV with a header row.
func Export(w io.Writer, p *playlist.Playlist) error {
	rows := Rows(p)
	if err := gocsv.Marshal(&rows, w); err != nil {
		return errors.Wrap(err, "failed to export playlist")
	}
	return nil
}

// ExportFile writes the playlist as CSV to path.
func ExportFile(path string, p *playlist.Playlist) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create export file")
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "failed to close export file")
		}
	}()
	return Export(f, p)
}

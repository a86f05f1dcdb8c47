// Package store persists playlists on disk.
//
// A playlist file is a JSON object mapping each artist to an ordered list of
// "title,album,duration,path" entries. Fields are CSV-quoted when they contain
// commas or quotes, and the duration is in seconds. The playlist name is
// encoded in the file name, with spaces replaced by dashes.
package store

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/osa030/bananabox/internal/domain/playlist"
	"github.com/osa030/bananabox/internal/domain/track"
)

// Ext is the playlist file extension.
const Ext = ".json"

var fileNameReplacer = strings.NewReplacer(" ", "-", "/", "-", "\\", "-")

// FileName returns the file name used for a playlist name.
// Path separators are replaced so the file always lands in the playlist directory.
func FileName(name string) string {
	base := fileNameReplacer.Replace(name)
	if strings.Trim(base, ".") == "" {
		base = "playlist"
	}
	return base + Ext
}

// NameFromPath derives a playlist name from its file path.
func NameFromPath(path string) string {
	base := filepath.Base(path)
	if i := strings.Index(base, "."); i >= 0 {
		base = base[:i]
	}
	return strings.ReplaceAll(base, "-", " ")
}

// Encode renders a playlist in the artist mapping format.
func Encode(p *playlist.Playlist) ([]byte, error) {
	artists := make(map[string][]string)
	for _, t := range p.Tracks() {
		entry, err := encodeEntry(t)
		if err != nil {
			return nil, err
		}
		artists[t.Artist] = append(artists[t.Artist], entry)
	}

	data, err := json.MarshalIndent(artists, "", "    ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode playlist")
	}
	return data, nil
}

// Decode parses the artist mapping format into a playlist named name.
// Artists are added in key order; entry order within an artist is kept.
func Decode(name string, data []byte) (*playlist.Playlist, error) {
	var artists map[string][]string
	if err := json.Unmarshal(data, &artists); err != nil {
		return nil, errors.Wrap(err, "failed to parse playlist")
	}

	names := make([]string, 0, len(artists))
	for artist := range artists {
		names = append(names, artist)
	}
	slices.Sort(names)

	p := playlist.New(name, false, false)
	for _, artist := range names {
		for i, entry := range artists[artist] {
			t, err := decodeEntry(artist, entry)
			if err != nil {
				return nil, errors.Wrapf(err, "artist %q entry %d", artist, i+1)
			}
			p.Add(t)
		}
	}
	return p, nil
}

// Save writes the playlist into dir and returns the file path.
func Save(dir string, p *playlist.Playlist) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrap(err, "failed to create playlist directory")
	}
	path := filepath.Join(dir, FileName(p.Name))
	if err := saveAs(path, p); err != nil {
		return "", err
	}
	return path, nil
}

// saveAs writes the playlist to path, which must be inside an existing directory.
func saveAs(path string, p *playlist.Playlist) error {
	data, err := Encode(p)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write playlist")
	}
	return nil
}

// Load reads a playlist file. Shuffle and repeat are off.
func Load(path string) (*playlist.Playlist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read playlist")
	}
	p, err := Decode(NameFromPath(path), data)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid playlist %s", path)
	}
	return p, nil
}

func encodeEntry(t *track.Track) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	record := []string{t.Title, t.Album, formatSeconds(t.Duration), t.Path}
	if err := w.Write(record); err != nil {
		return "", errors.Wrap(err, "failed to encode entry")
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", errors.Wrap(err, "failed to encode entry")
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func decodeEntry(artist, entry string) (*track.Track, error) {
	r := csv.NewReader(strings.NewReader(entry))
	r.FieldsPerRecord = 4
	record, err := r.Read()
	if err != nil {
		return nil, errors.Wrap(err, "malformed entry")
	}

	d, err := parseSeconds(record[2])
	if err != nil {
		return nil, err
	}

	return &track.Track{
		Title:    record[0],
		Artist:   artist,
		Album:    record[1],
		Duration: d,
		Path:     record[3],
	}, nil
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Round(time.Millisecond).Seconds(), 'f', -1, 64)
}

func parseSeconds(s string) (time.Duration, error) {
	secs, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || secs < 0 || math.IsInf(secs, 0) || math.IsNaN(secs) {
		return 0, errors.Newf("invalid duration %q", s)
	}
	return time.Duration(math.Round(secs*1000)) * time.Millisecond, nil
}

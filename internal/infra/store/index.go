package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/osa030/bananabox/internal/domain/playlist"
)

// IndexFile lists the saved playlists of a directory.
const IndexFile = "index.yaml"

// Entry describes one saved playlist.
type Entry struct {
	Name    string `yaml:"name"`
	File    string `yaml:"file"`
	Shuffle bool   `yaml:"shuffle"`
	Repeat  bool   `yaml:"repeat"`
}

// Index is the content of IndexFile.
type Index struct {
	Playlists []Entry `yaml:"playlists"`
}

// Dir stores playlists and their index in a directory.
type Dir struct {
	path string
}

// NewDir creates a store rooted at path. The directory is created on save.
func NewDir(path string) *Dir {
	return &Dir{path: path}
}

// Path returns the directory path.
func (d *Dir) Path() string {
	return d.path
}

// SaveAll writes every playlist file and replaces the index.
// Names that map to the same file get a numeric suffix. A playlist that
// fails to save is left out of the index; the others are still saved.
func (d *Dir) SaveAll(playlists []*playlist.Playlist) error {
	if err := os.MkdirAll(d.path, 0755); err != nil {
		return errors.Wrap(err, "failed to create playlist directory")
	}

	var saveErr error
	used := make(map[string]struct{}, len(playlists))
	index := Index{Playlists: make([]Entry, 0, len(playlists))}
	for _, p := range playlists {
		file := uniqueFileName(p.Name, used)
		if err := saveAs(filepath.Join(d.path, file), p); err != nil {
			zlog.Warn().Err(err).Msgf("failed to save playlist %q", p.Name)
			saveErr = errors.CombineErrors(saveErr, errors.Wrapf(err, "failed to save playlist %q", p.Name))
			continue
		}
		index.Playlists = append(index.Playlists, Entry{
			Name:    p.Name,
			File:    file,
			Shuffle: p.Shuffle,
			Repeat:  p.Repeat,
		})
	}

	data, err := yaml.Marshal(&index)
	if err != nil {
		return errors.Wrap(err, "failed to encode playlist index")
	}
	if err := os.WriteFile(filepath.Join(d.path, IndexFile), data, 0644); err != nil {
		return errors.CombineErrors(saveErr, errors.Wrap(err, "failed to write playlist index"))
	}

	zlog.Info().Msgf("saved %d playlists to %s", len(index.Playlists), d.path)
	return saveErr
}

// uniqueFileName returns FileName(name), suffixed with -2, -3... until it is
// not in used. Comparison ignores case for case-insensitive filesystems.
func uniqueFileName(name string, used map[string]struct{}) string {
	file := FileName(name)
	base := strings.TrimSuffix(file, Ext)
	for i := 2; ; i++ {
		key := strings.ToLower(file)
		if _, taken := used[key]; !taken {
			used[key] = struct{}{}
			return file
		}
		file = fmt.Sprintf("%s-%d%s", base, i, Ext)
	}
}

// LoadAll reads the playlists listed in the index.
// A missing index means nothing has been saved yet. Playlist files that
// can't be read are skipped with a warning.
func (d *Dir) LoadAll() ([]*playlist.Playlist, error) {
	data, err := os.ReadFile(filepath.Join(d.path, IndexFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read playlist index")
	}

	var index Index
	if err := yaml.Unmarshal(data, &index); err != nil {
		return nil, errors.Wrap(err, "failed to parse playlist index")
	}

	playlists := make([]*playlist.Playlist, 0, len(index.Playlists))
	for _, e := range index.Playlists {
		p, err := Load(filepath.Join(d.path, filepath.Base(e.File)))
		if err != nil {
			zlog.Warn().Err(err).Msgf("skipping saved playlist %q", e.Name)
			continue
		}
		p.Name = e.Name
		p.Shuffle = e.Shuffle
		p.Repeat = e.Repeat
		playlists = append(playlists, p)
	}

	zlog.Info().Msgf("loaded %d playlists from %s", len(playlists), d.path)
	return playlists, nil
}

// Import reads a single playlist file from anywhere on disk.
func (d *Dir) Import(path string) (*playlist.Playlist, error) {
	return Load(path)
}

// Export writes a playlist as CSV to path.
func (d *Dir) Export(path string, p *playlist.Playlist) error {
	return ExportFile(path, p)
}

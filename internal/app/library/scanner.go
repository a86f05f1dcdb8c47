// Package library builds the song library by crawling directories for MP3 files.
package library

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/osa030/bananabox/internal/domain/track"
	"github.com/osa030/bananabox/internal/infra/tags"
)

const numWorkers = 8

// TagReader reads tags from a music file.
type TagReader interface {
	Read(path string) (*tags.Tag, error)
}

// Failure records a file that could not be added to the library.
type Failure struct {
	Path string
	Err  error
}

// Result holds the outcome of a scan.
type Result struct {
	Tracks   []*track.Track // in discovery order
	Failures []Failure
}

// Scanner crawls directories and reads MP3 tags in parallel.
type Scanner struct {
	reader  TagReader
	workers int
}

// NewScanner creates a new Scanner.
func NewScanner(reader TagReader) *Scanner {
	return &Scanner{
		reader:  reader,
		workers: numWorkers,
	}
}

// Scan walks every root and returns the MP3 tracks found.
// A root that cannot be walked aborts the scan; unreadable files are
// reported in Result.Failures.
func (s *Scanner) Scan(ctx context.Context, roots ...string) (*Result, error) {
	var paths []string
	for _, root := range roots {
		found, err := discover(root)
		if err != nil {
			return nil, err
		}
		paths = append(paths, found...)
	}
	zlog.Debug().Msgf("discovered %d mp3 files in %d roots", len(paths), len(roots))

	tracks := make([]*track.Track, len(paths))
	errs := make([]error, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			t, err := s.reader.Read(path)
			if err != nil {
				errs[i] = err
				return nil
			}
			tracks[i] = &track.Track{
				Title:    t.Title,
				Artist:   t.Artist,
				Album:    t.Album,
				Duration: t.Duration,
				Path:     path,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "scan interrupted")
	}

	result := &Result{Tracks: make([]*track.Track, 0, len(paths))}
	for i, path := range paths {
		if errs[i] != nil {
			zlog.Warn().Err(errs[i]).Str("path", path).Msg("skipping unreadable file")
			result.Failures = append(result.Failures, Failure{Path: path, Err: errs[i]})
			continue
		}
		result.Tracks = append(result.Tracks, tracks[i])
	}

	zlog.Info().Msgf("library scan done: tracks=%d failures=%d", len(result.Tracks), len(result.Failures))
	return result, nil
}

// discover walks root and returns all MP3 files in lexical order.
func discover(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot scan %s", root)
	}
	if !info.IsDir() {
		return nil, errors.Newf("cannot scan %s: not a directory", root)
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// Unreadable subdirectories are skipped, the rest of the tree is still scanned
			zlog.Warn().Err(walkErr).Str("path", path).Msg("skipping unreadable path")
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !tags.IsMP3(path) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to walk %s", root)
	}
	return paths, nil
}

// Package jukebox holds the application context of the player: the library,
// the user playlists, the playlist being played and its cursor.
package jukebox

import (
	"context"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/bananabox/internal/app/library"
	"github.com/osa030/bananabox/internal/app/playback"
	"github.com/osa030/bananabox/internal/domain/playlist"
	"github.com/osa030/bananabox/internal/domain/track"
)

// LibraryName is the name of the playlist holding every scanned song.
const LibraryName = "All songs"

// Errors
var (
	ErrNoSuchPlaylist    = errors.New("no such playlist")
	ErrNoSuchSong        = errors.New("no such song")
	ErrEmptyPlaylist     = errors.New("playlist is empty")
	ErrDuplicatePlaylist = errors.New("playlist already exists")
	ErrLibraryPlaylist   = errors.New("the library playlist can't be edited")
	ErrNotLoaded         = errors.New("library not loaded")
)

// Scanner builds the library from directories.
type Scanner interface {
	Scan(ctx context.Context, roots ...string) (*library.Result, error)
}

// Store persists playlists.
type Store interface {
	SaveAll(playlists []*playlist.Playlist) error
	LoadAll() ([]*playlist.Playlist, error)
	Import(path string) (*playlist.Playlist, error)
	Export(path string, p *playlist.Playlist) error
}

// Player drives the external player process.
type Player interface {
	Play(ctx context.Context, t *track.Track) error
	Stop(ctx context.Context) error
	State() playback.State
	Events() <-chan playback.Event
	Close(ctx context.Context) error
}

// Options configures an App.
type Options struct {
	LibraryPaths  []string
	AutoSave      bool
	CursorOptions []playlist.CursorOption
}

// NextResult is the outcome of Next.
type NextResult struct {
	Track *track.Track // track now playing, or the first track after the end
	Ended bool         // the playlist was exhausted and the cursor was reset
}

// App is the player's application context. All methods are safe for
// concurrent use; they are serialized by an internal mutex.
type App struct {
	mu sync.Mutex

	id  string
	log zerolog.Logger

	scanner Scanner
	store   Store
	player  Player
	opts    Options

	playlists []*playlist.Playlist // library first
	current   int
	cursor    *playlist.Cursor
	selected  *track.Track
	failures  []library.Failure
	loaded    bool

	closeOnce sync.Once
	closeErr  error
}

// New creates an App. Call Load before using it.
func New(scanner Scanner, store Store, player Player, opts Options) *App {
	id := uuid.New().String()
	return &App{
		id:      id,
		log:     zlog.With().Str("session_id", id).Logger(),
		scanner: scanner,
		store:   store,
		player:  player,
		opts:    opts,
	}
}

// ID returns the session ID used in log lines.
func (a *App) ID() string {
	return a.id
}

// Load scans the library, restores saved playlists and selects the first
// song of the library.
func (a *App) Load(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	result, err := a.scanner.Scan(ctx, a.opts.LibraryPaths...)
	if err != nil {
		return errors.Wrap(err, "failed to scan library")
	}
	a.failures = result.Failures

	lib := playlist.New(LibraryName, false, false)
	lib.AddAll(result.Tracks...)
	a.playlists = []*playlist.Playlist{lib}

	saved, err := a.store.LoadAll()
	if err != nil {
		return errors.Wrap(err, "failed to load saved playlists")
	}
	for _, p := range saved {
		if a.findLocked(p.Name) >= 0 {
			a.log.Warn().Msgf("skipping saved playlist with duplicate name: %s", p.Name)
			continue
		}
		a.playlists = append(a.playlists, p)
	}

	a.selectPlaylistLocked(0)
	a.loaded = true

	go a.logEvents(a.player.Events())

	a.log.Info().Msgf("library loaded: songs=%d playlists=%d failures=%d",
		lib.Len(), len(a.playlists), len(a.failures))
	return nil
}

func (a *App) logEvents(events <-chan playback.Event) {
	for e := range events {
		switch e.Type {
		case playback.EventTrackFinished:
			a.log.Info().Err(e.Err).Msgf("finished: %s", e.Track)
		default:
			a.log.Debug().Msgf("playback event: %s %s", e.Type, e.Track)
		}
	}
}

// Close stops playback and saves the user playlists when autosave is on.
// Calling Close more than once is a no-op.
func (a *App) Close(ctx context.Context) error {
	a.closeOnce.Do(func() {
		a.mu.Lock()
		defer a.mu.Unlock()

		if err := a.player.Close(ctx); err != nil {
			a.closeErr = errors.Wrap(err, "failed to stop playback")
		}
		if a.loaded && a.opts.AutoSave {
			if err := a.store.SaveAll(a.userPlaylistsLocked()); err != nil {
				a.closeErr = errors.CombineErrors(a.closeErr, errors.Wrap(err, "failed to save playlists"))
			}
		}
		a.log.Info().Msg("session closed")
	})
	return a.closeErr
}

// Library returns the playlist of all scanned songs.
func (a *App) Library() *playlist.Playlist {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.playlists) == 0 {
		return playlist.New(LibraryName, false, false)
	}
	return a.playlists[0]
}

// Failures returns the files the last scan could not read.
func (a *App) Failures() []library.Failure {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.failures
}

// Playlists returns all playlists, the library first.
func (a *App) Playlists() []*playlist.Playlist {
	a.mu.Lock()
	defer a.mu.Unlock()
	result := make([]*playlist.Playlist, len(a.playlists))
	copy(result, a.playlists)
	return result
}

// CurrentPlaylist returns the playlist being played.
func (a *App) CurrentPlaylist() (*playlist.Playlist, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.loaded {
		return nil, ErrNotLoaded
	}
	return a.playlists[a.current], nil
}

// Current returns the selected song and the playback state.
func (a *App) Current() (*track.Track, playback.State) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.selected, a.player.State()
}

// Change switches to playlist n (1-based). Playback stops and the first
// song served by the new playlist's cursor is selected.
func (a *App) Change(ctx context.Context, n int) (*playlist.Playlist, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.loaded {
		return nil, ErrNotLoaded
	}
	if n < 1 || n > len(a.playlists) {
		return nil, errors.Wrapf(ErrNoSuchPlaylist, "%d", n)
	}
	if err := a.stopLocked(ctx); err != nil {
		return nil, err
	}

	a.selectPlaylistLocked(n - 1)
	p := a.playlists[a.current]
	a.log.Info().Msgf("changed playlist: %s", p.Name)
	return p, nil
}

// Play starts the selected song, or song n (1-based) of the current
// playlist when n > 0. A running song is stopped first.
func (a *App) Play(ctx context.Context, n int) (*track.Track, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.loaded {
		return nil, ErrNotLoaded
	}
	if n > 0 {
		t := a.playlists[a.current].Track(n - 1)
		if t == nil {
			return nil, errors.Wrapf(ErrNoSuchSong, "%d", n)
		}
		a.selected = t
	}
	if a.selected == nil {
		return nil, ErrEmptyPlaylist
	}

	if err := a.player.Play(ctx, a.selected); err != nil {
		return nil, err
	}
	return a.selected, nil
}

// Stop stops the running song.
func (a *App) Stop(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.player.Stop(ctx)
}

// Next stops the running song and plays the next one served by the cursor.
// When the playlist is exhausted nothing is played: the first song is
// selected and the cursor starts over.
func (a *App) Next(ctx context.Context) (NextResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.loaded {
		return NextResult{}, ErrNotLoaded
	}
	if err := a.stopLocked(ctx); err != nil {
		return NextResult{}, err
	}

	res := a.cursor.Next()
	if res.Ended() {
		a.selected = a.playlists[a.current].Track(0)
		a.cursor.Reset()
		a.log.Info().Msgf("end of playlist: %s", a.playlists[a.current].Name)
		if a.selected == nil {
			return NextResult{Ended: true}, ErrEmptyPlaylist
		}
		return NextResult{Track: a.selected, Ended: true}, nil
	}

	a.selected = res.Track
	if err := a.player.Play(ctx, a.selected); err != nil {
		return NextResult{}, err
	}
	return NextResult{Track: a.selected}, nil
}

// AddPlaylist creates a playlist from library song numbers (1-based).
func (a *App) AddPlaylist(name string, shuffle, repeat bool, songs []int) (*playlist.Playlist, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.loaded {
		return nil, ErrNotLoaded
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("playlist name is required")
	}
	if a.findLocked(name) >= 0 {
		return nil, errors.Wrapf(ErrDuplicatePlaylist, "%q", name)
	}

	lib := a.playlists[0]
	p := playlist.New(name, shuffle, repeat)
	for _, n := range songs {
		t := lib.Track(n - 1)
		if t == nil {
			return nil, errors.Wrapf(ErrNoSuchSong, "%d", n)
		}
		p.Add(t)
	}

	a.playlists = append(a.playlists, p)
	a.log.Info().Msgf("added playlist: name=%s songs=%d shuffle=%v repeat=%v", name, p.Len(), shuffle, repeat)
	return p, nil
}

// RemoveSong removes song n (1-based) from the current playlist.
// The cursor starts over on the shortened list; a removed selected song is
// replaced by the first song the new cursor serves.
func (a *App) RemoveSong(n int) (*track.Track, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.loaded {
		return nil, ErrNotLoaded
	}
	if a.current == 0 {
		return nil, ErrLibraryPlaylist
	}
	p := a.playlists[a.current]
	t := p.Track(n - 1)
	if t == nil {
		return nil, errors.Wrapf(ErrNoSuchSong, "%d", n)
	}
	p.RemoveAt(n - 1)
	a.cursor = p.Cursor(a.opts.CursorOptions...)
	if a.selected == t {
		a.selected = a.cursor.Next().Track
	}
	return t, nil
}

// Artists returns the artist histogram of the current playlist.
func (a *App) Artists() (map[string]int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.loaded {
		return nil, ErrNotLoaded
	}
	return a.playlists[a.current].Artists(), nil
}

// SavePlaylists persists the user playlists.
func (a *App) SavePlaylists() (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.loaded {
		return 0, ErrNotLoaded
	}
	user := a.userPlaylistsLocked()
	if err := a.store.SaveAll(user); err != nil {
		return 0, err
	}
	return len(user), nil
}

// LoadPlaylist imports a playlist file and appends it to the playlists.
func (a *App) LoadPlaylist(path string) (*playlist.Playlist, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.loaded {
		return nil, ErrNotLoaded
	}

	p, err := a.store.Import(path)
	if err != nil {
		return nil, err
	}
	if a.findLocked(p.Name) >= 0 {
		return nil, errors.Wrapf(ErrDuplicatePlaylist, "%q", p.Name)
	}
	a.playlists = append(a.playlists, p)
	a.log.Info().Msgf("loaded playlist: name=%s songs=%d", p.Name, p.Len())
	return p, nil
}

// ExportPlaylist writes playlist n (1-based) as CSV to path.
func (a *App) ExportPlaylist(n int, path string) (*playlist.Playlist, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.loaded {
		return nil, ErrNotLoaded
	}
	if n < 1 || n > len(a.playlists) {
		return nil, errors.Wrapf(ErrNoSuchPlaylist, "%d", n)
	}
	p := a.playlists[n-1]
	if err := a.store.Export(path, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (a *App) selectPlaylistLocked(index int) {
	a.current = index
	a.cursor = a.playlists[index].Cursor(a.opts.CursorOptions...)
	a.selected = a.cursor.Next().Track
}

func (a *App) stopLocked(ctx context.Context) error {
	if err := a.player.Stop(ctx); err != nil && !errors.Is(err, playback.ErrNotPlaying) {
		return err
	}
	return nil
}

func (a *App) findLocked(name string) int {
	for i, p := range a.playlists {
		if p.Name == name {
			return i
		}
	}
	return -1
}

func (a *App) userPlaylistsLocked() []*playlist.Playlist {
	if len(a.playlists) <= 1 {
		return nil
	}
	user := make([]*playlist.Playlist, len(a.playlists)-1)
	copy(user, a.playlists[1:])
	return user
}

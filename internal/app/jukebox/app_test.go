package jukebox

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/bananabox/internal/app/library"
	"github.com/osa030/bananabox/internal/app/playback"
	"github.com/osa030/bananabox/internal/domain/playlist"
	"github.com/osa030/bananabox/internal/domain/track"
)

type fakeScanner struct {
	tracks   []*track.Track
	failures []library.Failure
	err      error
	roots    []string
}

func (s *fakeScanner) Scan(ctx context.Context, roots ...string) (*library.Result, error) {
	s.roots = roots
	if s.err != nil {
		return nil, s.err
	}
	return &library.Result{Tracks: s.tracks, Failures: s.failures}, nil
}

type fakeStore struct {
	saved     []*playlist.Playlist
	saveCalls int
	toLoad    []*playlist.Playlist
	imports   map[string]*playlist.Playlist
	exported  map[string]string
}

func (s *fakeStore) SaveAll(playlists []*playlist.Playlist) error {
	s.saveCalls++
	s.saved = playlists
	return nil
}

func (s *fakeStore) LoadAll() ([]*playlist.Playlist, error) {
	return s.toLoad, nil
}

func (s *fakeStore) Import(path string) (*playlist.Playlist, error) {
	p, ok := s.imports[path]
	if !ok {
		return nil, errors.Newf("no such file %s", path)
	}
	return p, nil
}

func (s *fakeStore) Export(path string, p *playlist.Playlist) error {
	if s.exported == nil {
		s.exported = map[string]string{}
	}
	s.exported[path] = p.Name
	return nil
}

// fakePlayer records plays and enforces a single running song.
type fakePlayer struct {
	playing *track.Track
	played  []string
	stops   int
	closed  bool
	events  chan playback.Event
}

func newFakePlayer() *fakePlayer {
	return &fakePlayer{events: make(chan playback.Event)}
}

func (p *fakePlayer) Play(ctx context.Context, t *track.Track) error {
	if p.playing != nil {
		return errors.New("previous song still running")
	}
	p.playing = t
	p.played = append(p.played, t.Title)
	return nil
}

func (p *fakePlayer) Stop(ctx context.Context) error {
	if p.playing == nil {
		return playback.ErrNotPlaying
	}
	p.playing = nil
	p.stops++
	return nil
}

func (p *fakePlayer) State() playback.State {
	if p.playing != nil {
		return playback.StatePlaying
	}
	return playback.StateIdle
}

func (p *fakePlayer) Events() <-chan playback.Event {
	return p.events
}

func (p *fakePlayer) Close(ctx context.Context) error {
	if !p.closed {
		p.closed = true
		p.playing = nil
		close(p.events)
	}
	return nil
}

func songs(titles ...string) []*track.Track {
	tracks := make([]*track.Track, len(titles))
	for i, title := range titles {
		tracks[i] = &track.Track{
			Title:    title,
			Artist:   "artist " + title,
			Album:    "album",
			Duration: time.Duration(i+1) * time.Minute,
			Path:     "/music/" + title + ".mp3",
		}
	}
	return tracks
}

type fixture struct {
	app     *App
	scanner *fakeScanner
	store   *fakeStore
	player  *fakePlayer
}

func newFixture(t *testing.T, titles ...string) *fixture {
	t.Helper()
	f := &fixture{
		scanner: &fakeScanner{tracks: songs(titles...)},
		store:   &fakeStore{},
		player:  newFakePlayer(),
	}
	f.app = New(f.scanner, f.store, f.player, Options{
		LibraryPaths:  []string{"/music"},
		AutoSave:      true,
		CursorOptions: []playlist.CursorOption{playlist.WithRand(rand.New(rand.NewPCG(7, 7)))},
	})
	return f
}

func (f *fixture) load(t *testing.T) *fixture {
	t.Helper()
	require.NoError(t, f.app.Load(context.Background()))
	t.Cleanup(func() { _ = f.app.Close(context.Background()) })
	return f
}

func TestApp_Load(t *testing.T) {
	f := newFixture(t, "A", "B", "C")
	f.scanner.failures = []library.Failure{{Path: "/music/bad.mp3", Err: errors.New("bad")}}
	saved := playlist.New("Saved", true, false)
	f.store.toLoad = []*playlist.Playlist{saved}
	f.load(t)

	assert.Equal(t, []string{"/music"}, f.scanner.roots)
	assert.NotEmpty(t, f.app.ID())

	playlists := f.app.Playlists()
	require.Len(t, playlists, 2)
	assert.Equal(t, LibraryName, playlists[0].Name)
	assert.Equal(t, 3, playlists[0].Len())
	assert.Same(t, saved, playlists[1])
	assert.Len(t, f.app.Failures(), 1)

	// First song of the library is selected but not played
	selected, state := f.app.Current()
	require.NotNil(t, selected)
	assert.Equal(t, "A", selected.Title)
	assert.Equal(t, playback.StateIdle, state)
}

func TestApp_LoadSkipsDuplicateSavedPlaylist(t *testing.T) {
	f := newFixture(t, "A")
	f.store.toLoad = []*playlist.Playlist{playlist.New(LibraryName, false, false)}
	f.load(t)

	assert.Len(t, f.app.Playlists(), 1)
}

func TestApp_LoadScanError(t *testing.T) {
	f := newFixture(t)
	f.scanner.err = errors.New("disk on fire")

	err := f.app.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk on fire")

	_, err = f.app.Play(context.Background(), 0)
	assert.ErrorIs(t, err, ErrNotLoaded)
}

func TestApp_NextThroughLibraryAndEnd(t *testing.T) {
	f := newFixture(t, "A", "B", "C").load(t)
	ctx := context.Background()

	// Load already served A from the cursor
	res, err := f.app.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "B", res.Track.Title)

	res, err = f.app.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "C", res.Track.Title)
	assert.Equal(t, []string{"B", "C"}, f.player.played)

	res, err = f.app.Next(ctx)
	require.NoError(t, err)
	assert.True(t, res.Ended)
	assert.Equal(t, "A", res.Track.Title)
	assert.Equal(t, playback.StateIdle, f.player.State())

	// Cursor starts over after the end
	res, err = f.app.Next(ctx)
	require.NoError(t, err)
	assert.False(t, res.Ended)
	assert.Equal(t, "A", res.Track.Title)
}

func TestApp_PlayStopsPrevious(t *testing.T) {
	f := newFixture(t, "A", "B", "C").load(t)
	ctx := context.Background()

	played, err := f.app.Play(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "A", played.Title)

	played, err = f.app.Play(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "C", played.Title)
	assert.Equal(t, []string{"A", "C"}, f.player.played)

	selected, state := f.app.Current()
	assert.Equal(t, "C", selected.Title)
	assert.Equal(t, playback.StatePlaying, state)

	_, err = f.app.Play(ctx, 4)
	assert.ErrorIs(t, err, ErrNoSuchSong)
}

func TestApp_Stop(t *testing.T) {
	f := newFixture(t, "A").load(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.app.Stop(ctx), playback.ErrNotPlaying)

	_, err := f.app.Play(ctx, 0)
	require.NoError(t, err)
	require.NoError(t, f.app.Stop(ctx))
	assert.Equal(t, playback.StateIdle, f.player.State())
}

func TestApp_AddAndChangePlaylist(t *testing.T) {
	f := newFixture(t, "A", "B", "C").load(t)
	ctx := context.Background()

	p, err := f.app.AddPlaylist(" Favourites ", false, true, []int{3, 1})
	require.NoError(t, err)
	assert.Equal(t, "Favourites", p.Name)
	assert.True(t, p.Repeat)

	// Tracks are shared with the library
	assert.Same(t, f.app.Library().Track(2), p.Track(0))

	_, err = f.app.Play(ctx, 0)
	require.NoError(t, err)

	changed, err := f.app.Change(ctx, 2)
	require.NoError(t, err)
	assert.Same(t, p, changed)
	assert.Equal(t, playback.StateIdle, f.player.State(), "changing playlist stops playback")

	selected, _ := f.app.Current()
	assert.Equal(t, "C", selected.Title)

	// Repeat playlist: C was served by Change, then A, C, A...
	var got []string
	for i := 0; i < 3; i++ {
		res, err := f.app.Next(ctx)
		require.NoError(t, err)
		require.False(t, res.Ended)
		got = append(got, res.Track.Title)
	}
	assert.Equal(t, []string{"A", "C", "A"}, got)

	_, err = f.app.Change(ctx, 5)
	assert.ErrorIs(t, err, ErrNoSuchPlaylist)
}

func TestApp_AddPlaylistErrors(t *testing.T) {
	f := newFixture(t, "A", "B").load(t)

	_, err := f.app.AddPlaylist("", false, false, []int{1})
	assert.Error(t, err)

	_, err = f.app.AddPlaylist(LibraryName, false, false, []int{1})
	assert.ErrorIs(t, err, ErrDuplicatePlaylist)

	_, err = f.app.AddPlaylist("x", false, false, []int{1, 9})
	assert.ErrorIs(t, err, ErrNoSuchSong)
	assert.Len(t, f.app.Playlists(), 1, "failed add leaves playlists untouched")
}

func TestApp_ShufflePlaylistServesEverySongOnce(t *testing.T) {
	f := newFixture(t, "A", "B", "C", "D").load(t)
	ctx := context.Background()

	_, err := f.app.AddPlaylist("mix", true, false, []int{1, 2, 3, 4})
	require.NoError(t, err)
	_, err = f.app.Change(ctx, 2)
	require.NoError(t, err)

	selected, _ := f.app.Current()
	seen := []string{selected.Title}
	for i := 0; i < 3; i++ {
		res, err := f.app.Next(ctx)
		require.NoError(t, err)
		seen = append(seen, res.Track.Title)
	}
	assert.ElementsMatch(t, []string{"A", "B", "C", "D"}, seen)
}

func TestApp_ChangeToEmptyPlaylist(t *testing.T) {
	f := newFixture(t, "A").load(t)
	ctx := context.Background()

	_, err := f.app.AddPlaylist("empty", false, false, nil)
	require.NoError(t, err)
	_, err = f.app.Change(ctx, 2)
	require.NoError(t, err)

	selected, _ := f.app.Current()
	assert.Nil(t, selected)

	_, err = f.app.Play(ctx, 0)
	assert.ErrorIs(t, err, ErrEmptyPlaylist)

	res, err := f.app.Next(ctx)
	assert.ErrorIs(t, err, ErrEmptyPlaylist)
	assert.True(t, res.Ended)
}

func TestApp_RemoveSong(t *testing.T) {
	f := newFixture(t, "A", "B", "C").load(t)
	ctx := context.Background()

	_, err := f.app.RemoveSong(1)
	assert.ErrorIs(t, err, ErrLibraryPlaylist)

	_, err = f.app.AddPlaylist("mine", false, false, []int{1, 2, 3})
	require.NoError(t, err)
	_, err = f.app.Change(ctx, 2)
	require.NoError(t, err)

	removed, err := f.app.RemoveSong(2)
	require.NoError(t, err)
	assert.Equal(t, "B", removed.Title)

	p, err := f.app.CurrentPlaylist()
	require.NoError(t, err)
	assert.Equal(t, 2, p.Len())
	assert.Equal(t, 3, f.app.Library().Len(), "library is untouched")

	_, err = f.app.RemoveSong(5)
	assert.ErrorIs(t, err, ErrNoSuchSong)
}

func TestApp_RemoveSelectedSong(t *testing.T) {
	f := newFixture(t, "A", "B", "C").load(t)
	ctx := context.Background()

	_, err := f.app.AddPlaylist("mine", false, false, []int{1, 2, 3})
	require.NoError(t, err)
	_, err = f.app.Change(ctx, 2)
	require.NoError(t, err)

	removed, err := f.app.RemoveSong(1)
	require.NoError(t, err)
	assert.Equal(t, "A", removed.Title)

	selected, _ := f.app.Current()
	require.NotNil(t, selected)
	assert.Equal(t, "B", selected.Title)

	played, err := f.app.Play(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "B", played.Title)
}

func TestApp_RemoveLastSelectedSong(t *testing.T) {
	f := newFixture(t, "A").load(t)
	ctx := context.Background()

	_, err := f.app.AddPlaylist("single", false, false, []int{1})
	require.NoError(t, err)
	_, err = f.app.Change(ctx, 2)
	require.NoError(t, err)

	_, err = f.app.RemoveSong(1)
	require.NoError(t, err)

	selected, _ := f.app.Current()
	assert.Nil(t, selected)
	_, err = f.app.Play(ctx, 0)
	assert.ErrorIs(t, err, ErrEmptyPlaylist)
}

func TestApp_Artists(t *testing.T) {
	f := newFixture(t, "A", "B").load(t)

	counts, err := f.app.Artists()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"artist A": 1, "artist B": 1}, counts)
}

func TestApp_SaveLoadExport(t *testing.T) {
	f := newFixture(t, "A", "B").load(t)

	_, err := f.app.AddPlaylist("mine", false, false, []int{2})
	require.NoError(t, err)

	n, err := f.app.SavePlaylists()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, f.store.saved, 1)
	assert.Equal(t, "mine", f.store.saved[0].Name)

	imported := playlist.New("imported", false, false)
	f.store.imports = map[string]*playlist.Playlist{"/tmp/imported.json": imported}
	p, err := f.app.LoadPlaylist("/tmp/imported.json")
	require.NoError(t, err)
	assert.Same(t, imported, p)
	assert.Len(t, f.app.Playlists(), 3)

	_, err = f.app.LoadPlaylist("/tmp/imported.json")
	assert.ErrorIs(t, err, ErrDuplicatePlaylist)

	_, err = f.app.LoadPlaylist("/tmp/missing.json")
	assert.Error(t, err)

	_, err = f.app.ExportPlaylist(2, "/tmp/mine.csv")
	require.NoError(t, err)
	assert.Equal(t, "mine", f.store.exported["/tmp/mine.csv"])

	_, err = f.app.ExportPlaylist(9, "/tmp/x.csv")
	assert.ErrorIs(t, err, ErrNoSuchPlaylist)
}

func TestApp_CloseStopsAndAutoSaves(t *testing.T) {
	f := newFixture(t, "A").load(t)
	ctx := context.Background()

	_, err := f.app.AddPlaylist("mine", false, false, []int{1})
	require.NoError(t, err)
	_, err = f.app.Play(ctx, 0)
	require.NoError(t, err)

	require.NoError(t, f.app.Close(ctx))
	assert.True(t, f.player.closed)
	assert.Equal(t, 1, f.store.saveCalls)
	require.Len(t, f.store.saved, 1)

	// Idempotent
	require.NoError(t, f.app.Close(ctx))
	assert.Equal(t, 1, f.store.saveCalls)
}

func TestApp_CloseWithoutAutoSave(t *testing.T) {
	f := newFixture(t, "A")
	f.app.opts.AutoSave = false
	f.load(t)

	require.NoError(t, f.app.Close(context.Background()))
	assert.Equal(t, 0, f.store.saveCalls)
}

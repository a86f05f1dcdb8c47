package playback

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/bananabox/internal/domain/track"
)

// Errors
var (
	ErrNotPlaying = errors.New("not playing")
	ErrNoTrack    = errors.New("no track to play")
	ErrClosed     = errors.New("controller closed")
)

const defaultStopTimeout = 5 * time.Second

// Process is a running player process.
type Process interface {
	// Stop terminates the process and waits for it to exit.
	Stop(ctx context.Context) error
	// Done is closed when the process has exited.
	Done() <-chan struct{}
	// Err returns the exit error once Done is closed.
	Err() error
}

// Launcher spawns a player process for a file.
type Launcher interface {
	Launch(ctx context.Context, path string) (Process, error)
}

// LauncherFunc adapts a function to the Launcher interface.
type LauncherFunc func(ctx context.Context, path string) (Process, error)

// Launch calls f(ctx, path).
func (f LauncherFunc) Launch(ctx context.Context, path string) (Process, error) {
	return f(ctx, path)
}

// Config holds controller configuration.
type Config struct {
	StopTimeout time.Duration // How long to wait for a killed process to exit
}

// Controller owns at most one player process at a time.
// The previous process has always exited before a new one is spawned.
type Controller struct {
	mu sync.Mutex

	launcher Launcher
	config   Config

	current    *track.Track
	proc       Process
	state      State
	generation uint64 // bumped whenever proc changes, so stale watchers are ignored

	eventCh chan Event
	closed  bool
}

// NewController creates a new playback controller.
func NewController(launcher Launcher, config Config) *Controller {
	if config.StopTimeout <= 0 {
		config.StopTimeout = defaultStopTimeout
	}
	return &Controller{
		launcher: launcher,
		config:   config,
		state:    StateIdle,
		eventCh:  make(chan Event, 10),
	}
}

// Events returns the event channel. It is closed by Close.
func (c *Controller) Events() <-chan Event {
	return c.eventCh
}

// Play terminates any running process and starts playing t.
func (c *Controller) Play(ctx context.Context, t *track.Track) error {
	if t == nil {
		return ErrNoTrack
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	if c.proc != nil {
		if err := c.stopLocked(ctx); err != nil {
			return errors.Wrap(err, "failed to stop previous track")
		}
	}

	proc, err := c.launcher.Launch(ctx, t.Path)
	if err != nil {
		c.state = StateIdle
		return errors.Wrapf(err, "failed to play %s", t.Path)
	}

	c.generation++
	c.proc = proc
	c.current = t
	c.state = StatePlaying
	zlog.Info().Msgf("playing: %s", t)

	c.sendEventLocked(Event{
		Type:  EventTrackStarted,
		Track: t,
		State: c.state,
	})

	go c.watch(c.generation, proc, t)
	return nil
}

// Stop terminates the running process.
func (c *Controller) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.proc == nil {
		return ErrNotPlaying
	}
	return c.stopLocked(ctx)
}

// stopLocked kills the process and waits for it.
// Must be called with lock held and c.proc set.
func (c *Controller) stopLocked(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.StopTimeout)
	defer cancel()

	if err := c.proc.Stop(ctx); err != nil {
		return err
	}

	stopped := c.current
	c.generation++
	c.proc = nil
	c.state = StateIdle
	zlog.Debug().Msgf("stopped: %s", stopped)

	c.sendEventLocked(Event{
		Type:  EventTrackStopped,
		Track: stopped,
		State: c.state,
	})
	return nil
}

// watch marks the controller idle when the process exits on its own.
func (c *Controller) watch(generation uint64, proc Process, t *track.Track) {
	<-proc.Done()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.generation != generation {
		return
	}

	c.generation++
	c.proc = nil
	c.state = StateIdle
	zlog.Debug().Err(proc.Err()).Msgf("finished: %s", t)

	c.sendEventLocked(Event{
		Type:  EventTrackFinished,
		Track: t,
		State: c.state,
		Err:   proc.Err(),
	})
}

// State returns the playback state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Current returns the last track handed to Play, or nil.
func (c *Controller) Current() *track.Track {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Close stops playback and closes the event channel.
func (c *Controller) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	var err error
	if c.proc != nil {
		err = c.stopLocked(ctx)
	}
	c.closed = true
	close(c.eventCh)
	return err
}

// sendEventLocked sends an event without blocking.
func (c *Controller) sendEventLocked(e Event) {
	if c.closed {
		return
	}
	select {
	case c.eventCh <- e:
	default:
		// Channel full, drop event
		zlog.Debug().Msgf("dropped playback event: %s", e.Type)
	}
}

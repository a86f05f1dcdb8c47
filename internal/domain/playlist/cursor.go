package playlist

import (
	"math/rand/v2"
	"slices"

	"github.com/osa030/bananabox/internal/domain/track"
)

// Status tells whether Next produced a track.
type Status int

const (
	StatusTrack         Status = iota // A track was served
	StatusEndOfSequence               // No further track until Reset
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusTrack:
		return "track"
	case StatusEndOfSequence:
		return "end_of_sequence"
	default:
		return "unknown"
	}
}

// Result is the outcome of Cursor.Next.
type Result struct {
	Status Status
	Track  *track.Track // nil unless Status is StatusTrack
	Index  int          // index of Track in the sequence, -1 at end
}

// Ended reports whether the cursor is exhausted.
func (r Result) Ended() bool {
	return r.Status == StatusEndOfSequence
}

func served(index int, t *track.Track) Result {
	return Result{Status: StatusTrack, Track: t, Index: index}
}

var endOfSequence = Result{Status: StatusEndOfSequence, Index: -1}

// CursorOption configures a Cursor.
type CursorOption func(*Cursor)

// WithRand sets the random source used in shuffle mode.
func WithRand(r *rand.Rand) CursorOption {
	return func(c *Cursor) {
		c.rng = r
	}
}

// Cursor decides which track to serve next.
//
// In shuffle mode every index is served once per pass. Once the pass is
// exhausted the cursor keeps picking uniformly from all indices, with
// replacement, until Reset is called. Shuffle takes precedence over repeat.
//
// A Cursor is not safe for concurrent use.
type Cursor struct {
	tracks  []*track.Track
	shuffle bool
	repeat  bool

	position int // 1-based index of the last served track, 0 before the first
	passed   map[int]struct{}

	rng *rand.Rand
}

// NewCursor creates a cursor over tracks. The slice is not copied.
func NewCursor(tracks []*track.Track, shuffle, repeat bool, opts ...CursorOption) *Cursor {
	c := &Cursor{
		tracks:  tracks,
		shuffle: shuffle,
		repeat:  repeat,
		passed:  make(map[int]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Next returns the next track according to the shuffle and repeat modes.
func (c *Cursor) Next() Result {
	if len(c.tracks) == 0 {
		return endOfSequence
	}

	if c.shuffle {
		return c.nextShuffled()
	}

	if c.position == len(c.tracks) {
		if !c.repeat {
			return endOfSequence
		}
		c.position = 0
	}
	c.position++
	return served(c.position-1, c.tracks[c.position-1])
}

func (c *Cursor) nextShuffled() Result {
	remaining := make([]int, 0, len(c.tracks))
	for i := range c.tracks {
		if _, ok := c.passed[i]; !ok {
			remaining = append(remaining, i)
		}
	}

	if len(remaining) == 0 {
		i := c.intN(len(c.tracks))
		return served(i, c.tracks[i])
	}

	i := remaining[c.intN(len(remaining))]
	c.passed[i] = struct{}{}
	return served(i, c.tracks[i])
}

func (c *Cursor) intN(n int) int {
	if c.rng != nil {
		return c.rng.IntN(n)
	}
	return rand.IntN(n)
}

// Reset rewinds the cursor to its initial state.
func (c *Cursor) Reset() {
	c.position = 0
	clear(c.passed)
}

// Position returns the 1-based position of the last served track in
// non-shuffle modes, 0 if nothing has been served.
func (c *Cursor) Position() int {
	return c.position
}

// Passed returns the sorted indices served during the current shuffle pass.
func (c *Cursor) Passed() []int {
	indices := make([]int, 0, len(c.passed))
	for i := range c.passed {
		indices = append(indices, i)
	}
	slices.Sort(indices)
	return indices
}

// Shuffle reports whether the cursor is in shuffle mode.
func (c *Cursor) Shuffle() bool {
	return c.shuffle
}

// Repeat reports whether the cursor is in repeat mode.
func (c *Cursor) Repeat() bool {
	return c.repeat
}

// Len returns the number of tracks in the sequence.
func (c *Cursor) Len() int {
	return len(c.tracks)
}

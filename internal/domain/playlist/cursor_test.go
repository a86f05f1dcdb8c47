package playlist

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/bananabox/internal/domain/track"
)

func letters(names ...string) []*track.Track {
	tracks := make([]*track.Track, len(names))
	for i, n := range names {
		tracks[i] = &track.Track{Title: n, Artist: "artist", Duration: time.Duration(i+1) * time.Minute}
	}
	return tracks
}

func seeded() CursorOption {
	return WithRand(rand.New(rand.NewPCG(1, 2)))
}

func titles(t *testing.T, c *Cursor, n int) []string {
	t.Helper()
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		res := c.Next()
		require.Equal(t, StatusTrack, res.Status, "call %d", i+1)
		out = append(out, res.Track.Title)
	}
	return out
}

func TestCursor_Sequential(t *testing.T) {
	c := NewCursor(letters("A", "B", "C"), false, false)

	assert.Equal(t, []string{"A", "B", "C"}, titles(t, c, 3))
	assert.Equal(t, 3, c.Position())

	res := c.Next()
	assert.True(t, res.Ended())
	assert.Nil(t, res.Track)
	assert.Equal(t, -1, res.Index)

	// Stays exhausted
	assert.True(t, c.Next().Ended())
	assert.Equal(t, 3, c.Position())
}

func TestCursor_SequentialAfterReset(t *testing.T) {
	c := NewCursor(letters("A", "B", "C"), false, false)
	titles(t, c, 3)
	require.True(t, c.Next().Ended())

	c.Reset()

	assert.Equal(t, 0, c.Position())
	assert.Equal(t, []string{"A", "B", "C"}, titles(t, c, 3))
}

func TestCursor_Repeat(t *testing.T) {
	c := NewCursor(letters("A", "B"), false, true)

	assert.Equal(t, []string{"A", "B", "A", "B", "A"}, titles(t, c, 5))
	assert.Equal(t, 1, c.Position())
}

func TestCursor_RepeatTwice(t *testing.T) {
	tracks := letters("A", "B", "C", "D")
	c := NewCursor(tracks, false, true)

	got := titles(t, c, 2*len(tracks))
	assert.Equal(t, []string{"A", "B", "C", "D", "A", "B", "C", "D"}, got)
}

func TestCursor_ShuffleFirstPassIsPermutation(t *testing.T) {
	for _, repeat := range []bool{false, true} {
		tracks := letters("A", "B", "C", "D", "E", "F", "G")
		c := NewCursor(tracks, true, repeat, seeded())

		seen := map[int]bool{}
		for i := 0; i < len(tracks); i++ {
			res := c.Next()
			require.Equal(t, StatusTrack, res.Status)
			require.Same(t, tracks[res.Index], res.Track)
			assert.False(t, seen[res.Index], "index %d served twice", res.Index)
			seen[res.Index] = true
		}
		assert.Len(t, seen, len(tracks))
		assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6}, c.Passed())
	}
}

func TestCursor_ShuffleFallbackAfterPass(t *testing.T) {
	tracks := letters("A", "B", "C")
	c := NewCursor(tracks, true, false, seeded())
	titles(t, c, 3)

	// The pass is never reset automatically: picks continue with replacement
	for i := 0; i < 50; i++ {
		res := c.Next()
		require.Equal(t, StatusTrack, res.Status)
		assert.GreaterOrEqual(t, res.Index, 0)
		assert.Less(t, res.Index, len(tracks))
		assert.Same(t, tracks[res.Index], res.Track)
	}
	assert.Equal(t, []int{0, 1, 2}, c.Passed())
}

func TestCursor_ShuffleResetStartsNewPass(t *testing.T) {
	c := NewCursor(letters("A", "B", "C"), true, false, seeded())
	titles(t, c, 3)

	c.Reset()
	assert.Empty(t, c.Passed())

	got := titles(t, c, 3)
	assert.ElementsMatch(t, []string{"A", "B", "C"}, got)
}

func TestCursor_ResetMatchesFreshCursor(t *testing.T) {
	tests := []struct {
		name    string
		shuffle bool
		repeat  bool
	}{
		{name: "sequential", shuffle: false, repeat: false},
		{name: "repeat", shuffle: false, repeat: true},
		{name: "shuffle", shuffle: true, repeat: false},
		{name: "shuffle and repeat", shuffle: true, repeat: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracks := letters("A", "B", "C")
			used := NewCursor(tracks, tt.shuffle, tt.repeat, seeded())
			titles(t, used, 2)
			used.Reset()

			fresh := NewCursor(tracks, tt.shuffle, tt.repeat, seeded())

			assert.Equal(t, fresh.Position(), used.Position())
			assert.Equal(t, fresh.Passed(), used.Passed())
			if !tt.shuffle {
				assert.Equal(t, titles(t, fresh, 3), titles(t, used, 3))
			}
		})
	}
}

func TestCursor_Empty(t *testing.T) {
	tests := []struct {
		name    string
		shuffle bool
		repeat  bool
	}{
		{name: "sequential", shuffle: false, repeat: false},
		{name: "repeat", shuffle: false, repeat: true},
		{name: "shuffle", shuffle: true, repeat: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCursor(nil, tt.shuffle, tt.repeat)
			assert.True(t, c.Next().Ended())
		})
	}
}

func TestCursor_SharesTracks(t *testing.T) {
	tracks := letters("A")
	c := NewCursor(tracks, false, false)

	assert.Same(t, tracks[0], c.Next().Track)
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "track", StatusTrack.String())
	assert.Equal(t, "end_of_sequence", StatusEndOfSequence.String())
	assert.Equal(t, "unknown", Status(42).String())
}

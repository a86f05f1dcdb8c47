// Package track provides the Track domain entity.
package track

import (
	"fmt"
	"time"
)

// Track represents a playable audio file and its metadata.
// Identity is defined by Title, Artist, Album and Duration; Path only locates the file.
type Track struct {
	Title    string        // Song title (TIT2)
	Artist   string        // Artist name (TPE1)
	Album    string        // Album name (TALB)
	Duration time.Duration // Song length
	Path     string        // File path handed to the player
}

// Key is the comparable identity of a track.
type Key struct {
	Title    string
	Artist   string
	Album    string
	Duration time.Duration
}

// Key returns the identity of the track. The path is not part of it.
func (t *Track) Key() Key {
	return Key{
		Title:    t.Title,
		Artist:   t.Artist,
		Album:    t.Album,
		Duration: t.Duration,
	}
}

// Equal reports whether both tracks have the same identity.
func (t *Track) Equal(other *Track) bool {
	if t == nil || other == nil {
		return t == other
	}
	return t.Key() == other.Key()
}

// String returns "Artist - Title from Album - H:MM:SS".
func (t *Track) String() string {
	return fmt.Sprintf("%s - %s from %s - %s", t.Artist, t.Title, t.Album, FormatDuration(t.Duration))
}

// FormatDuration renders a duration as H:MM:SS, dropping sub-second precision.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%d:%02d:%02d", total/3600, (total/60)%60, total%60)
}

// Package playlist provides the Playlist domain entity and its traversal cursor.
package playlist

import (
	"time"

	"github.com/osa030/bananabox/internal/domain/track"
)

// Playlist is a named, ordered list of shared track references.
type Playlist struct {
	Name    string // Display name
	Shuffle bool   // Serve tracks in random order
	Repeat  bool   // Wrap around at the end instead of stopping
	tracks  []*track.Track
}

// New creates an empty playlist.
func New(name string, shuffle, repeat bool) *Playlist {
	return &Playlist{
		Name:    name,
		Shuffle: shuffle,
		Repeat:  repeat,
		tracks:  make([]*track.Track, 0),
	}
}

// Add appends a track to the playlist.
func (p *Playlist) Add(t *track.Track) {
	p.tracks = append(p.tracks, t)
}

// AddAll appends tracks to the playlist.
func (p *Playlist) AddAll(tracks ...*track.Track) {
	p.tracks = append(p.tracks, tracks...)
}

// Merge appends all tracks of another playlist.
func (p *Playlist) Merge(other *Playlist) {
	p.AddAll(other.tracks...)
}

// Remove removes the first track equal to t.
// Returns false if no such track exists.
func (p *Playlist) Remove(t *track.Track) bool {
	for i, existing := range p.tracks {
		if existing.Equal(t) {
			return p.RemoveAt(i)
		}
	}
	return false
}

// RemoveAt removes the track at the given index.
// Returns false if index is out of bounds.
func (p *Playlist) RemoveAt(index int) bool {
	if index < 0 || index >= len(p.tracks) {
		return false
	}
	p.tracks = append(p.tracks[:index], p.tracks[index+1:]...)
	return true
}

// Tracks returns a copy of the track list. The tracks themselves are shared.
func (p *Playlist) Tracks() []*track.Track {
	result := make([]*track.Track, len(p.tracks))
	copy(result, p.tracks)
	return result
}

// Track returns the track at the given index, or nil if out of bounds.
func (p *Playlist) Track(index int) *track.Track {
	if index < 0 || index >= len(p.tracks) {
		return nil
	}
	return p.tracks[index]
}

// Len returns the number of tracks.
func (p *Playlist) Len() int {
	return len(p.tracks)
}

// TotalDuration returns the total duration of all tracks.
func (p *Playlist) TotalDuration() time.Duration {
	var total time.Duration
	for _, t := range p.tracks {
		total += t.Duration
	}
	return total
}

// Artists returns the number of tracks per artist.
func (p *Playlist) Artists() map[string]int {
	counts := make(map[string]int)
	for _, t := range p.tracks {
		counts[t.Artist]++
	}
	return counts
}

// Cursor returns a new cursor over the current track list using the playlist's modes.
func (p *Playlist) Cursor(opts ...CursorOption) *Cursor {
	return NewCursor(p.Tracks(), p.Shuffle, p.Repeat, opts...)
}

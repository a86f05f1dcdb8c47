package playback

import "github.com/osa030/bananabox/internal/domain/track"

// EventType represents a playback event type.
type EventType int

const (
	EventTrackStarted  EventType = iota // Player process spawned for a track
	EventTrackStopped                   // Player process terminated by the controller
	EventTrackFinished                  // Player process exited on its own
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventTrackStarted:
		return "track_started"
	case EventTrackStopped:
		return "track_stopped"
	case EventTrackFinished:
		return "track_finished"
	default:
		return "unknown"
	}
}

// Event represents a playback event.
type Event struct {
	Type  EventType
	Track *track.Track
	State State // Playback state after the event
	Err   error // Exit error for EventTrackFinished, if any
}

// Package playback controls the external player process.
package playback

// State represents the playback state.
type State int

const (
	StateIdle    State = iota // No player process running
	StatePlaying              // A player process is running
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	default:
		return "unknown"
	}
}

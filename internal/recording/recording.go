// Package recording models the pause/resume/stop overlay on the capture
// stream as a pure transition function.
package recording

import (
	"fmt"

	"github.com/voxctl/voxctl/internal/trigger"
)

// State of the recording gate.
type State string

const (
	// StateListening forwards utterances to the resolver.
	StateListening State = "listening"
	// StatePaused segments utterances but drops everything except
	// recording-control phrases.
	StatePaused State = "paused"
	// StateStopped is terminal; only a full session restart leaves it.
	StateStopped State = "stopped"
)

// Apply advances the state for one recording-control payload
// ("start", "stop", "pause"). Redundant controls (pausing while paused,
// starting while listening) are no-ops, not errors; nothing leaves
// StateStopped.
func Apply(current State, control string) (State, error) {
	if current == StateStopped {
		return StateStopped, nil
	}

	switch control {
	case trigger.RecordingStart:
		return StateListening, nil
	case trigger.RecordingStop, trigger.RecordingPause:
		return StatePaused, nil
	default:
		return current, fmt.Errorf("unknown recording control %q", control)
	}
}

// Stop is the orchestrator's explicit session stop: terminal from any state.
func Stop(State) State {
	return StateStopped
}

// Gated reports whether non-recording-control utterances are withheld from
// the resolver in this state.
func Gated(s State) bool {
	return s != StateListening
}

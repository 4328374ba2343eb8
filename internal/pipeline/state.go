package pipeline

import (
	"errors"

	"contentanalyzer/internal/services"
)

// State is a run's position in the processing sequence.
type State string

const (
	StateIdle         State = "idle"
	StateExtracting   State = "extracting"
	StateTranscribing State = "transcribing"
	StateAnalyzing    State = "analyzing"
	StateDone         State = "done"
	StateRejected     State = "rejected"
	StateFailed       State = "failed"
)

// Terminal reports whether no further transition can follow s.
func (s State) Terminal() bool {
	switch s {
	case StateDone, StateRejected, StateFailed:
		return true
	default:
		return false
	}
}

// TerminalState maps a run error to the state the run ends in.
func TerminalState(err error) State {
	switch {
	case err == nil:
		return StateDone
	case errors.Is(err, services.ErrUnsupportedFormat):
		return StateRejected
	default:
		return StateFailed
	}
}

var transitions = map[State][]State{
	StateIdle:         {StateExtracting, StateRejected},
	StateExtracting:   {StateTranscribing, StateFailed},
	StateTranscribing: {StateAnalyzing, StateFailed},
	StateAnalyzing:    {StateDone, StateFailed},
}

// CanTransition reports whether to may directly follow from.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ProgressMessage is the user-facing line shown while s is active.
func (s State) ProgressMessage() string {
	switch s {
	case StateTranscribing:
		return "Transcribing audio..."
	case StateAnalyzing:
		return "Analyzing content..."
	case StateRejected:
		return UnsupportedFormatMessage
	default:
		return ""
	}
}

// UnsupportedFormatMessage is shown when an upload's extension is not accepted.
const UnsupportedFormatMessage = "Unsupported file format. Please upload a video or audio file."

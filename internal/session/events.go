package session

import "time"

type EventKind string

const (
	EventWake         EventKind = "wake"
	EventCommand      EventKind = "command"
	EventDropped      EventKind = "dropped"
	EventTimeout      EventKind = "timeout"
	EventBackendError EventKind = "backend_error"
	EventPhaseChanged EventKind = "phase_changed"
)

// Event is what the loop reports to the consumer.
type Event struct {
	Kind    EventKind
	RunID   string
	Attempt int
	Phase   Phase
	// Text is the raw command text for EventCommand.
	Text string
	Err  error
	At   time.Time
}

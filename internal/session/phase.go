package session

// Phase is the listening phase of a session.
type Phase int

const (
	AwaitingWake Phase = iota
	CapturingCommand
)

func (p Phase) String() string {
	switch p {
	case AwaitingWake:
		return "awaiting_wake"
	case CapturingCommand:
		return "capturing_command"
	default:
		return "unknown"
	}
}

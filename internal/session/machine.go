package session

import (
	"strings"

	"github.com/sjawhar/chanti/internal/normalize"
)

// OutcomeKind says what a single listening attempt produced.
type OutcomeKind int

const (
	OutcomeNone OutcomeKind = iota
	OutcomeWake
	OutcomeCommand
	OutcomeDropped
	OutcomeBackendError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeNone:
		return "none"
	case OutcomeWake:
		return "wake"
	case OutcomeCommand:
		return "command"
	case OutcomeDropped:
		return "dropped"
	case OutcomeBackendError:
		return "backend_error"
	default:
		return "unknown"
	}
}

// Outcome is the result of feeding one attempt to a Machine.
type Outcome struct {
	Kind OutcomeKind
	From Phase
	To   Phase
	// Command is the raw, pre-normalization text for OutcomeCommand.
	Command string
	Err     error
}

// Changed reports whether the attempt moved the machine to another phase.
func (o Outcome) Changed() bool { return o.From != o.To }

// Machine is the two-phase wake/command cycle. It is not safe for concurrent
// use; the loop goroutine owns it.
type Machine struct {
	norm  *normalize.Normalizer
	wake  string
	phase Phase
}

func NewMachine(norm *normalize.Normalizer, wakePhrase string) *Machine {
	if norm == nil {
		norm = normalize.New(normalize.DefaultConfig())
	}
	wake := strings.Join(strings.Fields(strings.ToLower(wakePhrase)), " ")
	if wake == "" {
		wake = normalize.DefaultWakePhrase
	}
	return &Machine{norm: norm, wake: wake}
}

func (m *Machine) Phase() Phase { return m.phase }

func (m *Machine) Reset() { m.phase = AwaitingWake }

// IsWake reports whether text, once normalized, contains the wake phrase.
func (m *Machine) IsWake(text string) bool {
	return strings.Contains(m.norm.Normalize(strings.ToLower(text)), m.wake)
}

func (m *Machine) HandleTranscript(text string) Outcome {
	from := m.phase
	switch from {
	case AwaitingWake:
		if !m.IsWake(text) {
			return m.stay(OutcomeNone)
		}
		m.phase = CapturingCommand
		return Outcome{Kind: OutcomeWake, From: from, To: m.phase}
	default:
		m.phase = AwaitingWake
		command := strings.TrimSpace(text)
		if command == "" {
			return Outcome{Kind: OutcomeDropped, From: from, To: m.phase}
		}
		return Outcome{Kind: OutcomeCommand, From: from, To: m.phase, Command: command}
	}
}

// HandleTimeout handles an attempt in which no speech started in time.
func (m *Machine) HandleTimeout() Outcome {
	return m.dropCapture()
}

// HandleNoSpeech handles audio that could not be turned into words.
func (m *Machine) HandleNoSpeech() Outcome {
	return m.dropCapture()
}

func (m *Machine) HandleBackendError(err error) Outcome {
	from := m.phase
	m.phase = AwaitingWake
	return Outcome{Kind: OutcomeBackendError, From: from, To: m.phase, Err: err}
}

func (m *Machine) dropCapture() Outcome {
	if m.phase == AwaitingWake {
		return m.stay(OutcomeNone)
	}
	m.phase = AwaitingWake
	return Outcome{Kind: OutcomeDropped, From: CapturingCommand, To: AwaitingWake}
}

func (m *Machine) stay(kind OutcomeKind) Outcome {
	return Outcome{Kind: kind, From: m.phase, To: m.phase}
}

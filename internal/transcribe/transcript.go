// Package transcribe turns captured speech into Transcripts for the session
// loop.
package transcribe

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrTimeout means no speech started within the listen timeout.
	ErrTimeout = errors.New("recognition timeout")
	// ErrNoSpeech means audio was captured but no words were recognized.
	ErrNoSpeech = errors.New("no speech recognized")
)

// Transcript is the lowercase text of one listening attempt.
type Transcript struct {
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Request parameterizes one listening attempt.
type Request struct {
	// Phase names the listening phase the attempt belongs to.
	Phase string
	// Timeout bounds the wait for speech to start. Zero waits forever.
	Timeout time.Duration
	// PhraseLimit bounds a phrase once speech has started.
	PhraseLimit time.Duration
	// EnergyFloor is the level below which audio counts as silence.
	EnergyFloor float64
}

// Word is a single recognized word as reported by a streaming backend.
type Word struct {
	PunctuatedWord string
	Start          float64
	End            float64
}

// New builds a Transcript from backend text.
func New(text string, at time.Time) Transcript {
	return Transcript{Text: Clean(text), At: at}
}

// FromWords joins buffered words into one Transcript.
func FromWords(words []Word, at time.Time) Transcript {
	parts := make([]string, 0, len(words))
	for _, w := range words {
		parts = append(parts, w.PunctuatedWord)
	}
	return New(strings.Join(parts, " "), at)
}

// Clean lowercases text, strips sentence punctuation around each word and
// collapses whitespace. Punctuation inside a word ("example.com") and a
// trailing percent sign are kept.
func Clean(text string) string {
	fields := strings.Fields(strings.ToLower(text))
	out := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, `.,!?;:"'()`)
		if f != "" {
			out = append(out, f)
		}
	}
	return strings.Join(out, " ")
}

package session

import (
	"context"
	"time"

	"github.com/sjawhar/chanti/internal/storage"
	"github.com/sjawhar/chanti/internal/transcribe"
)

// ListenRequest parameterizes one listening attempt.
type ListenRequest = transcribe.Request

// Source captures audio and turns one utterance into a transcript.
// NextTranscript returns transcribe.ErrTimeout when no speech started in
// time and transcribe.ErrNoSpeech when audio could not be turned into words;
// any other error is a backend error.
type Source interface {
	Calibrate(ctx context.Context, d time.Duration) (float64, error)
	NextTranscript(ctx context.Context, req ListenRequest) (transcribe.Transcript, error)
}

type Store interface {
	CreateRun(id string, startedAt time.Time) error
	EndRun(id string, endedAt time.Time) error
	AppendCommand(rec storage.CommandRecord) error
}

type Journal interface {
	Append(rec storage.CommandRecord) error
}

type EventBroadcaster interface {
	BroadcastWakeDetected(runID string)
	BroadcastCommandReceived(id, text, source string)
	BroadcastActionResult(rec storage.CommandRecord)
	BroadcastNarration(msg string)
	BroadcastPhaseChanged(phase string)
	BroadcastListeningChanged(running bool)
}

package transcribe

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/sjawhar/chanti/internal/audio"
	"github.com/sjawhar/chanti/internal/logging"
)

// Transcriber is the part of the OpenAI client used for speech to text.
type Transcriber interface {
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
}

// NewOpenAIClient builds a client for the OpenAI audio API. baseURL may
// point at any compatible server.
func NewOpenAIClient(apiKey, baseURL string) *openai.Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(config)
}

type WhisperConfig struct {
	Model    string
	Language string
	// Prompt biases recognition toward the assistant's vocabulary.
	Prompt string
	// KeepAudio leaves utterance files on disk after transcription.
	KeepAudio bool
}

// WhisperSource cuts utterances out of the microphone with an energy floor
// and transcribes each one with a Whisper-compatible API.
type WhisperSource struct {
	listener *audio.Listener
	writer   *audio.UtteranceWriter
	client   Transcriber
	cfg      WhisperConfig
	now      func() time.Time
}

func NewWhisperSource(listener *audio.Listener, writer *audio.UtteranceWriter, client Transcriber, cfg WhisperConfig) *WhisperSource {
	if cfg.Model == "" {
		cfg.Model = openai.Whisper1
	}
	return &WhisperSource{listener: listener, writer: writer, client: client, cfg: cfg, now: time.Now}
}

func (s *WhisperSource) Calibrate(ctx context.Context, d time.Duration) (float64, error) {
	return s.listener.Calibrate(ctx, d)
}

func (s *WhisperSource) NextTranscript(ctx context.Context, req Request) (Transcript, error) {
	samples, err := s.listener.Listen(ctx, req.Timeout, req.PhraseLimit, req.EnergyFloor)
	if errors.Is(err, audio.ErrListenTimeout) {
		return Transcript{}, ErrTimeout
	}
	if err != nil {
		return Transcript{}, err
	}

	logging.Debugw("utterance captured", "phase", req.Phase, "samples", len(samples))

	path, err := s.writer.Write(samples)
	if err != nil {
		return Transcript{}, err
	}
	if !s.cfg.KeepAudio {
		defer func() {
			if err := s.writer.Remove(path); err != nil {
				logging.Warnw("remove utterance failed", "path", path, "error", err)
			}
		}()
	}

	text, err := s.transcribe(ctx, path)
	if err != nil {
		return Transcript{}, err
	}
	if strings.TrimSpace(text) == "" {
		return Transcript{}, ErrNoSpeech
	}
	tr := New(text, s.now().UTC())
	if tr.Text == "" {
		return Transcript{}, ErrNoSpeech
	}
	return tr, nil
}

func (s *WhisperSource) transcribe(ctx context.Context, path string) (string, error) {
	f, err := s.writer.Fs().Open(path)
	if err != nil {
		return "", fmt.Errorf("open utterance: %w", err)
	}
	defer f.Close()

	resp, err := s.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    s.cfg.Model,
		FilePath: filepath.Base(path),
		Reader:   f,
		Prompt:   s.cfg.Prompt,
		Language: s.cfg.Language,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", fmt.Errorf("whisper transcription: %w", err)
	}
	return resp.Text, nil
}

package transcribe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	api "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/websocket/interfaces"
	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	client "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"

	"github.com/sjawhar/chanti/internal/audio"
	"github.com/sjawhar/chanti/internal/logging"
)

// finalizeGrace is how long a phrase may take to come back as a final
// result after its phrase limit.
const finalizeGrace = 1500 * time.Millisecond

var initDeepgram sync.Once

type DeepgramConfig struct {
	APIKey     string
	Model      string
	Language   string
	SampleRate int
}

// MicStreamer writes raw PCM16-LE audio to a writer until it fails.
type MicStreamer interface {
	Stream(w io.Writer) error
}

// DeepgramSource streams the microphone to Deepgram and hands out one
// finished utterance per NextTranscript call, in arrival order.
type DeepgramSource struct {
	cfg DeepgramConfig

	transcripts chan Transcript
	speech      chan struct{}
	errs        chan error

	mu   sync.Mutex
	gate *audio.Gate
	stop func()
}

func NewDeepgramSource(cfg DeepgramConfig) *DeepgramSource {
	if cfg.Model == "" {
		cfg.Model = "nova-2"
	}
	if cfg.Language == "" {
		cfg.Language = "en-US"
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	return &DeepgramSource{
		cfg:         cfg,
		transcripts: make(chan Transcript, 16),
		speech:      make(chan struct{}, 1),
		errs:        make(chan error, 1),
	}
}

// Connect opens the live connection and starts streaming mic through an
// energy gate until ctx is cancelled.
func (s *DeepgramSource) Connect(ctx context.Context, mic MicStreamer) error {
	initDeepgram.Do(func() {
		client.Init(client.InitLib{LogLevel: client.LogLevelDefault})
	})

	cOptions := &interfaces.ClientOptions{EnableKeepAlive: true}
	tOptions := &interfaces.LiveTranscriptionOptions{
		Model:          s.cfg.Model,
		Language:       s.cfg.Language,
		Punctuate:      true,
		SmartFormat:    true,
		InterimResults: true,
		UtteranceEndMs: "1000",
		VadEvents:      true,
		Encoding:       "linear16",
		SampleRate:     s.cfg.SampleRate,
		Channels:       1,
	}

	dgClient, err := client.NewWSUsingCallback(ctx, s.cfg.APIKey, cOptions, tOptions, s.callback())
	if err != nil {
		return fmt.Errorf("deepgram client: %w", err)
	}
	if ok := dgClient.Connect(); !ok {
		return errors.New("deepgram connect failed")
	}

	gate := audio.NewGate(dgClient, 0)
	s.mu.Lock()
	s.gate = gate
	s.stop = dgClient.Stop
	s.mu.Unlock()

	go streamMicWithRetry(ctx, mic, gate, time.Sleep, logging.Warnw)
	return nil
}

// Stop closes the Deepgram connection.
func (s *DeepgramSource) Stop() {
	s.mu.Lock()
	stop := s.stop
	s.stop = nil
	s.mu.Unlock()
	if stop != nil {
		stop()
	}
}

func (s *DeepgramSource) currentGate() *audio.Gate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gate
}

// Calibrate samples the level of the audio streamed during d.
func (s *DeepgramSource) Calibrate(ctx context.Context, d time.Duration) (float64, error) {
	gate := s.currentGate()
	if gate == nil {
		return 0, errors.New("deepgram source not connected")
	}
	return gate.Sample(ctx, d)
}

// NextTranscript waits up to req.Timeout for speech to start, then up to
// the phrase limit for its final result. Speech that never produced words
// is ErrNoSpeech.
func (s *DeepgramSource) NextTranscript(ctx context.Context, req Request) (Transcript, error) {
	if gate := s.currentGate(); gate != nil {
		gate.SetFloor(req.EnergyFloor)
	}
	// A speech signal left over from the previous utterance must not
	// shorten this attempt.
	select {
	case <-s.speech:
	default:
	}
	logging.Debugw("deepgram listening", "phase", req.Phase, "timeout", req.Timeout)

	var (
		timer    *time.Timer
		expired  <-chan time.Time
		speaking bool
	)
	if req.Timeout > 0 {
		timer = time.NewTimer(req.Timeout)
		defer timer.Stop()
		expired = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return Transcript{}, ctx.Err()
		case tr := <-s.transcripts:
			if tr.Text == "" {
				return Transcript{}, ErrNoSpeech
			}
			return tr, nil
		case err := <-s.errs:
			return Transcript{}, err
		case <-s.speech:
			if !speaking && timer != nil && req.PhraseLimit > 0 {
				speaking = true
				timer.Reset(req.PhraseLimit + finalizeGrace)
			}
		case <-expired:
			if speaking {
				return Transcript{}, ErrNoSpeech
			}
			return Transcript{}, ErrTimeout
		}
	}
}

func (s *DeepgramSource) callback() *deepgramCallback {
	return &deepgramCallback{source: s, buffer: NewUtteranceBuffer(), now: time.Now}
}

func (s *DeepgramSource) signalSpeech() {
	select {
	case s.speech <- struct{}{}:
	default:
	}
}

func (s *DeepgramSource) deliver(tr Transcript) {
	select {
	case s.transcripts <- tr:
	default:
		logging.Warnw("transcript queue full, dropping utterance", "text", tr.Text)
	}
}

func (s *DeepgramSource) fail(err error) {
	select {
	case s.errs <- err:
	default:
	}
}

// deepgramCallback buffers final words until Deepgram marks the end of an
// utterance.
type deepgramCallback struct {
	source *DeepgramSource
	buffer *UtteranceBuffer
	now    func() time.Time
}

func (c *deepgramCallback) Open(*api.OpenResponse) error {
	logging.Infow("connected to Deepgram")
	return nil
}

func (c *deepgramCallback) Message(mr *api.MessageResponse) error {
	if len(mr.Channel.Alternatives) == 0 {
		return nil
	}
	alt := mr.Channel.Alternatives[0]
	if strings.TrimSpace(alt.Transcript) == "" {
		if mr.SpeechFinal {
			c.flush()
		}
		return nil
	}

	c.source.signalSpeech()
	if !mr.IsFinal {
		return nil
	}

	words := make([]Word, 0, len(alt.Words))
	for _, w := range alt.Words {
		words = append(words, Word{PunctuatedWord: w.PunctuatedWord, Start: w.Start, End: w.End})
	}
	c.buffer.AddWords(words)

	if mr.SpeechFinal {
		c.flush()
	}
	return nil
}

func (c *deepgramCallback) Metadata(*api.MetadataResponse) error { return nil }

func (c *deepgramCallback) SpeechStarted(*api.SpeechStartedResponse) error {
	c.source.signalSpeech()
	return nil
}

func (c *deepgramCallback) UtteranceEnd(*api.UtteranceEndResponse) error {
	c.flush()
	return nil
}

func (c *deepgramCallback) Close(*api.CloseResponse) error {
	if n := c.buffer.Len(); n > 0 {
		logging.Warnw("disconnected from Deepgram mid-utterance", "words", n)
		c.flush()
		return nil
	}
	logging.Infow("disconnected from Deepgram")
	return nil
}

func (c *deepgramCallback) Error(er *api.ErrorResponse) error {
	logging.Errorw("deepgram error", "code", er.ErrCode, "description", er.Description)
	c.source.fail(fmt.Errorf("deepgram %s: %s", er.ErrCode, er.Description))
	return nil
}

func (c *deepgramCallback) UnhandledEvent([]byte) error { return nil }

func (c *deepgramCallback) flush() {
	words := c.buffer.Flush()
	if len(words) == 0 {
		return
	}
	c.source.deliver(FromWords(words, c.now().UTC()))
}

func streamMicWithRetry(
	ctx context.Context,
	streamer MicStreamer,
	writer io.Writer,
	wait func(time.Duration),
	logf func(string, ...any),
) {
	for {
		if ctx.Err() != nil {
			return
		}

		err := streamer.Stream(writer)
		if err == nil || ctx.Err() != nil {
			return
		}

		if strings.Contains(strings.ToLower(err.Error()), "overflow") {
			logf("mic input overflow, restarting stream")
			wait(250 * time.Millisecond)
			continue
		}

		logf("mic stream error", "error", err)
		return
	}
}

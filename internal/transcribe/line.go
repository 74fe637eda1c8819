package transcribe

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/sjawhar/chanti/internal/logging"
)

// LineSource treats each line of text read from r as one utterance. It is
// used to drive the assistant from a terminal without a microphone.
// Listen timeouts and energy floors do not apply to typed input.
type LineSource struct {
	r     io.Reader
	now   func() time.Time
	once  sync.Once
	lines chan string
}

func NewLineSource(r io.Reader) *LineSource {
	return &LineSource{r: r, now: time.Now, lines: make(chan string)}
}

func (s *LineSource) Calibrate(context.Context, time.Duration) (float64, error) {
	return 0, nil
}

// NextTranscript blocks until a line is read. After the input is exhausted
// it blocks until ctx is done.
func (s *LineSource) NextTranscript(ctx context.Context, _ Request) (Transcript, error) {
	s.once.Do(func() { go s.scan() })

	select {
	case <-ctx.Done():
		return Transcript{}, ctx.Err()
	case line := <-s.lines:
		tr := New(line, s.now().UTC())
		if tr.Text == "" {
			return Transcript{}, ErrNoSpeech
		}
		return tr, nil
	}
}

func (s *LineSource) scan() {
	scanner := bufio.NewScanner(s.r)
	for scanner.Scan() {
		s.lines <- strings.TrimSpace(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		logging.Warnw("reading input failed", "error", err)
		return
	}
	logging.Infow("input closed")
}

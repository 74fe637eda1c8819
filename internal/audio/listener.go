package audio

import (
	"context"
	"errors"
	"time"
)

// ErrListenTimeout is returned when no frame rose above the floor in time.
var ErrListenTimeout = errors.New("listen timeout")

const (
	defaultPause   = 800 * time.Millisecond
	defaultPreRoll = 300 * time.Millisecond
)

// Listener cuts one utterance out of a frame stream using an energy floor:
// it waits for a loud frame, then records until a pause or the phrase limit.
type Listener struct {
	r          FrameReader
	sampleRate int
	// Pause is the run of quiet audio that ends a phrase.
	Pause time.Duration
	// PreRoll is how much audio before the first loud frame is kept.
	PreRoll time.Duration
}

func NewListener(r FrameReader, sampleRate int) *Listener {
	return &Listener{r: r, sampleRate: sampleRate, Pause: defaultPause, PreRoll: defaultPreRoll}
}

// Calibrate measures ambient noise for d and returns the implied floor.
func (l *Listener) Calibrate(ctx context.Context, d time.Duration) (float64, error) {
	return Calibrate(ctx, l.r, l.sampleRate, d)
}

// Listen returns the samples of the next phrase louder than floor. A zero
// timeout waits forever; a zero phraseLimit lets the phrase run until a
// pause.
func (l *Listener) Listen(ctx context.Context, timeout, phraseLimit time.Duration, floor float64) ([]int16, error) {
	pre := newRing(int(int64(l.sampleRate) * int64(l.PreRoll) / int64(time.Second)))

	var waited time.Duration
	var first []int16
	for {
		frame, err := l.next(ctx)
		if err != nil {
			return nil, err
		}
		if RMS(frame) > floor {
			first = frame
			break
		}
		pre.Add(frame)
		waited += frameDuration(len(frame), l.sampleRate)
		if timeout > 0 && waited > timeout {
			return nil, ErrListenTimeout
		}
	}

	samples := append(pre.Read(), first...)
	phrase := frameDuration(len(first), l.sampleRate)
	var quiet time.Duration
	for phraseLimit <= 0 || phrase < phraseLimit {
		frame, err := l.next(ctx)
		if err != nil {
			return nil, err
		}
		samples = append(samples, frame...)
		d := frameDuration(len(frame), l.sampleRate)
		phrase += d
		if RMS(frame) > floor {
			quiet = 0
			continue
		}
		quiet += d
		if quiet >= l.Pause {
			break
		}
	}
	return samples, nil
}

func (l *Listener) next(ctx context.Context) ([]int16, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	frame, err := l.r.ReadFrame()
	if err != nil {
		return nil, err
	}
	if len(frame) == 0 {
		return nil, ErrNoAudio
	}
	return frame, nil
}

// ring keeps the most recent samples written to it.
type ring struct {
	buf  []int16
	head int
	full bool
}

func newRing(size int) *ring {
	return &ring{buf: make([]int16, size)}
}

func (r *ring) Add(samples []int16) {
	if len(r.buf) == 0 {
		return
	}
	for _, s := range samples {
		r.buf[r.head] = s
		r.head = (r.head + 1) % len(r.buf)
		if r.head == 0 {
			r.full = true
		}
	}
}

// Read returns the buffered samples, oldest first.
func (r *ring) Read() []int16 {
	if !r.full {
		return append([]int16(nil), r.buf[:r.head]...)
	}
	out := make([]int16, 0, len(r.buf))
	out = append(out, r.buf[r.head:]...)
	return append(out, r.buf[:r.head]...)
}

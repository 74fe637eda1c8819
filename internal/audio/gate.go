package audio

import (
	"context"
	"io"
	"sync"
	"time"
)

// Gate forwards PCM16-LE audio to dst, replacing chunks quieter than the
// floor with silence of the same length so the stream keeps its timing.
type Gate struct {
	dst io.Writer

	mu       sync.Mutex
	floor    float64
	sampling bool
	sum      float64
	chunks   int
}

func NewGate(dst io.Writer, floor float64) *Gate {
	return &Gate{dst: dst, floor: floor}
}

func (g *Gate) SetFloor(floor float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.floor = floor
}

func (g *Gate) Write(p []byte) (int, error) {
	level := RMSBytes(p)

	g.mu.Lock()
	floor := g.floor
	if g.sampling {
		g.sum += level
		g.chunks++
	}
	g.mu.Unlock()

	if level >= floor {
		return g.dst.Write(p)
	}
	if _, err := g.dst.Write(make([]byte, len(p))); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Sample averages the level of the audio written during d and returns the
// energy floor it implies. It returns ErrNoAudio when nothing was written.
func (g *Gate) Sample(ctx context.Context, d time.Duration) (float64, error) {
	g.mu.Lock()
	g.sampling = true
	g.sum, g.chunks = 0, 0
	g.mu.Unlock()

	t := time.NewTimer(d)
	defer t.Stop()

	var err error
	select {
	case <-t.C:
	case <-ctx.Done():
		err = ctx.Err()
	}

	g.mu.Lock()
	g.sampling = false
	sum, chunks := g.sum, g.chunks
	g.mu.Unlock()

	if err != nil {
		return 0, err
	}
	if chunks == 0 {
		return 0, ErrNoAudio
	}
	return AmbientFloor(sum / float64(chunks)), nil
}

package audio

import (
	"context"
	"errors"
	"testing"
	"time"
)

func frames(groups ...[][]int16) [][]int16 {
	var out [][]int16
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func newTestListener(r FrameReader) *Listener {
	l := NewListener(r, 1000)
	l.Pause = 200 * time.Millisecond
	l.PreRoll = 100 * time.Millisecond
	return l
}

var (
	quietFrame = constant(100, 10)
	loudFrame  = constant(100, 1000)
)

func TestListenerTimeout(t *testing.T) {
	r := &framesMock{frames: repeat(10, quietFrame)}

	_, err := newTestListener(r).Listen(context.Background(), 300*time.Millisecond, time.Second, 100)
	if !errors.Is(err, ErrListenTimeout) {
		t.Fatalf("expected ErrListenTimeout, got %v", err)
	}
	if r.reads != 4 {
		t.Fatalf("expected 4 frames read, got %d", r.reads)
	}
}

func TestListenerStopsAtPause(t *testing.T) {
	r := &framesMock{frames: frames(
		repeat(2, quietFrame),
		repeat(3, loudFrame),
		repeat(3, quietFrame),
		repeat(2, loudFrame),
	)}

	samples, err := newTestListener(r).Listen(context.Background(), time.Second, 5*time.Second, 100)
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	// one frame of pre-roll, three loud frames, two quiet frames
	if len(samples) != 600 {
		t.Fatalf("expected 600 samples, got %d", len(samples))
	}
	if samples[0] != 10 || samples[100] != 1000 {
		t.Fatalf("expected pre-roll before the phrase, got %d and %d", samples[0], samples[100])
	}
}

func TestListenerStopsAtPhraseLimit(t *testing.T) {
	r := &framesMock{frames: repeat(10, loudFrame)}

	samples, err := newTestListener(r).Listen(context.Background(), time.Second, 300*time.Millisecond, 100)
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	if len(samples) != 300 {
		t.Fatalf("expected 300 samples, got %d", len(samples))
	}
}

func TestListenerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestListener(&framesMock{frames: repeat(3, loudFrame)}).Listen(ctx, 0, 0, 100)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRingKeepsMostRecent(t *testing.T) {
	r := newRing(4)
	r.Add([]int16{1, 2})
	if got := r.Read(); len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("expected [1 2], got %v", got)
	}
	r.Add([]int16{3, 4, 5, 6})
	got := r.Read()
	want := []int16{3, 4, 5, 6}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

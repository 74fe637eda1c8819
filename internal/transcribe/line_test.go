package transcribe

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLineSourceReadsLines(t *testing.T) {
	src := NewLineSource(strings.NewReader("Hey Chanti\n\nOpen Safari.\n"))
	ctx := context.Background()

	tr, err := src.NextTranscript(ctx, Request{})
	if err != nil {
		t.Fatalf("NextTranscript failed: %v", err)
	}
	if tr.Text != "hey chanti" {
		t.Fatalf("expected %q, got %q", "hey chanti", tr.Text)
	}

	if _, err := src.NextTranscript(ctx, Request{}); !errors.Is(err, ErrNoSpeech) {
		t.Fatalf("expected ErrNoSpeech for blank line, got %v", err)
	}

	tr, err = src.NextTranscript(ctx, Request{})
	if err != nil {
		t.Fatalf("NextTranscript failed: %v", err)
	}
	if tr.Text != "open safari" {
		t.Fatalf("expected %q, got %q", "open safari", tr.Text)
	}
}

func TestLineSourceBlocksAfterInputEnds(t *testing.T) {
	src := NewLineSource(strings.NewReader(""))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := src.NextTranscript(ctx, Request{Timeout: time.Millisecond})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context.DeadlineExceeded, got %v", err)
	}
}

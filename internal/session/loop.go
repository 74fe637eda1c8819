package session

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/sjawhar/chanti/internal/logging"
	"github.com/sjawhar/chanti/internal/transcribe"
)

// Session is the state of one loop run. It is owned by the loop goroutine.
type Session struct {
	RunID     string
	StartedAt time.Time
	// Baseline is the energy floor measured by the initial calibration.
	Baseline float64
	Floor    float64
	// Attempts counts listening attempts. It is only used in diagnostics.
	Attempts int

	machine *Machine
}

func (s *Session) Phase() Phase { return s.machine.Phase() }

// Loop drives a Source through the wake/command cycle and reports what
// happened as Events.
type Loop struct {
	src     Source
	machine *Machine
	cfg     Config
	runID   string
	now     func() time.Time

	phase atomic.Int32
}

func NewLoop(src Source, machine *Machine, cfg Config, runID string) *Loop {
	if machine == nil {
		machine = NewMachine(nil, cfg.WakePhrase)
	}
	return &Loop{src: src, machine: machine, cfg: cfg, runID: runID, now: time.Now}
}

// Phase is safe to call from any goroutine.
func (l *Loop) Phase() Phase { return Phase(l.phase.Load()) }

// Run listens until ctx is cancelled, then closes out. No event is sent
// after cancellation is observed.
func (l *Loop) Run(ctx context.Context, out chan<- Event) {
	defer close(out)

	l.machine.Reset()
	l.phase.Store(int32(AwaitingWake))
	s := &Session{RunID: l.runID, StartedAt: l.now(), machine: l.machine}

	baseline, err := l.src.Calibrate(ctx, l.cfg.Calibration)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		logging.Warnw("calibration failed, using minimum floor", "error", err, "floor", l.cfg.MinFloor)
		baseline = l.cfg.MinFloor
	}
	s.Baseline = baseline
	s.Floor = baseline
	logging.Infow("microphone calibrated", "run_id", s.RunID, "floor", baseline)

	for {
		if ctx.Err() != nil {
			return
		}

		phase := s.Phase()
		if phase == AwaitingWake {
			s.Floor = l.restFloor(ctx, s.Baseline)
		}

		tr, err := l.src.NextTranscript(ctx, l.cfg.request(phase, s.Floor))
		if ctx.Err() != nil {
			return
		}
		s.Attempts++

		outcome := l.feed(tr, err)
		if outcome.Kind == OutcomeWake {
			s.Floor = l.cfg.commandFloor(s.Baseline)
		}
		l.phase.Store(int32(outcome.To))

		for _, ev := range l.events(s, outcome, err) {
			if !send(ctx, out, ev) {
				return
			}
		}

		if outcome.Kind == OutcomeBackendError && !sleepCtx(ctx, l.cfg.ErrorBackoff) {
			return
		}
	}
}

// restFloor is the floor used while waiting for the wake phrase: a fresh
// ambient sample when recalibration is on, the baseline otherwise.
func (l *Loop) restFloor(ctx context.Context, baseline float64) float64 {
	if l.cfg.Recalibration <= 0 {
		return baseline
	}
	level, err := l.src.Calibrate(ctx, l.cfg.Recalibration)
	if err != nil {
		if ctx.Err() == nil {
			logging.Debugw("recalibration failed", "error", err)
		}
		return baseline
	}
	return level
}

func (l *Loop) feed(tr transcribe.Transcript, err error) Outcome {
	switch {
	case err == nil:
		return l.machine.HandleTranscript(tr.Text)
	case errors.Is(err, transcribe.ErrTimeout):
		return l.machine.HandleTimeout()
	case errors.Is(err, transcribe.ErrNoSpeech):
		return l.machine.HandleNoSpeech()
	default:
		return l.machine.HandleBackendError(err)
	}
}

func (l *Loop) events(s *Session, o Outcome, err error) []Event {
	base := Event{RunID: s.RunID, Attempt: s.Attempts, Phase: o.To, At: l.now()}

	var evs []Event
	add := func(kind EventKind, text string, err error) {
		ev := base
		ev.Kind, ev.Text, ev.Err = kind, text, err
		evs = append(evs, ev)
	}

	switch o.Kind {
	case OutcomeWake:
		add(EventWake, "", nil)
	case OutcomeCommand:
		add(EventCommand, o.Command, nil)
	case OutcomeDropped:
		if errors.Is(err, transcribe.ErrTimeout) {
			add(EventTimeout, "", err)
		} else {
			add(EventDropped, "", err)
		}
	case OutcomeBackendError:
		add(EventBackendError, "", o.Err)
	}
	if o.Changed() {
		add(EventPhaseChanged, "", nil)
	}
	return evs
}

func send(ctx context.Context, out chan<- Event, ev Event) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

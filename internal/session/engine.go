package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sjawhar/chanti/internal/command"
	"github.com/sjawhar/chanti/internal/executor"
	"github.com/sjawhar/chanti/internal/logging"
	"github.com/sjawhar/chanti/internal/normalize"
	"github.com/sjawhar/chanti/internal/storage"
)

const backendErrorMessage = "Speech recognition is unavailable right now, please try again"

// Deps are the collaborators of an Engine. Store, Journal and Hub may be nil.
type Deps struct {
	Source     Source
	Normalizer *normalize.Normalizer
	Dispatcher *command.Dispatcher
	Executor   executor.Executor
	Store      Store
	Journal    Journal
	Hub        EventBroadcaster
}

type submission struct {
	text  string
	reply chan storage.CommandRecord
}

// Engine starts and stops listening runs. Every executor call of a run is
// made from a single consumer goroutine, in event order.
type Engine struct {
	deps  Deps
	cfg   Config
	now   func() time.Time
	newID func() string

	mu      sync.Mutex
	running bool
	runID   string
	loop    *Loop
	cancel  context.CancelFunc
	done    chan struct{}
	submits chan submission
}

func NewEngine(deps Deps, cfg Config) *Engine {
	if deps.Dispatcher == nil {
		deps.Dispatcher = command.NewDispatcher(command.DefaultConfig())
	}
	if deps.Normalizer == nil {
		deps.Normalizer = normalize.New(normalize.DefaultConfig())
	}
	return &Engine{
		deps:  deps,
		cfg:   cfg,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		select {
		case <-e.done:
			e.finish()
		default:
			return ErrAlreadyRunning
		}
	}

	runID := e.newID()
	if e.deps.Store != nil {
		if err := e.deps.Store.CreateRun(runID, e.now().UTC()); err != nil {
			return fmt.Errorf("create run: %w", err)
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	events := make(chan Event, 16)
	submits := make(chan submission)
	done := make(chan struct{})
	loop := NewLoop(e.deps.Source, NewMachine(e.deps.Normalizer, e.cfg.WakePhrase), e.cfg, runID)

	go loop.Run(runCtx, events)
	go e.consume(runCtx, runID, events, submits, done)

	e.running = true
	e.runID = runID
	e.loop = loop
	e.cancel = cancel
	e.done = done
	e.submits = submits

	logging.Infow("listening started", "run_id", runID)
	if e.deps.Hub != nil {
		e.deps.Hub.BroadcastListeningChanged(true)
		e.deps.Hub.BroadcastPhaseChanged(AwaitingWake.String())
	}
	return nil
}

// Stop cancels the run and blocks until the loop and the consumer have
// exited. It is a no-op when the engine is not running.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return
	}
	e.cancel()
	<-e.done
	e.finish()
}

// finish records the end of a run whose goroutines have exited. e.mu must be
// held.
func (e *Engine) finish() {
	e.cancel()
	e.running = false
	if e.deps.Store != nil {
		if err := e.deps.Store.EndRun(e.runID, e.now().UTC()); err != nil {
			logging.Errorw("end run failed", "run_id", e.runID, "error", err)
		}
	}
	logging.Infow("listening stopped", "run_id", e.runID)
	if e.deps.Hub != nil {
		e.deps.Hub.BroadcastListeningChanged(false)
	}
}

// Running reports whether a run is active. A run whose parent context was
// cancelled is no longer running even before Stop is called.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return false
	}
	select {
	case <-e.done:
		return false
	default:
		return true
	}
}

func (e *Engine) Phase() Phase {
	e.mu.Lock()
	loop := e.loop
	running := e.running
	e.mu.Unlock()
	if !running || loop == nil {
		return AwaitingWake
	}
	return loop.Phase()
}

// RunID is the id of the active run, or empty.
func (e *Engine) RunID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return ""
	}
	return e.runID
}

// Submit runs a typed command through the consumer of the active run. A
// command that fails to parse or execute is not an error; its outcome is in
// the returned record.
func (e *Engine) Submit(ctx context.Context, text string) (storage.CommandRecord, error) {
	e.mu.Lock()
	running, submits, done := e.running, e.submits, e.done
	e.mu.Unlock()
	if !running {
		return storage.CommandRecord{}, ErrNotRunning
	}

	reply := make(chan storage.CommandRecord, 1)
	select {
	case submits <- submission{text: text, reply: reply}:
	case <-done:
		return storage.CommandRecord{}, ErrNotRunning
	case <-ctx.Done():
		return storage.CommandRecord{}, ctx.Err()
	}

	select {
	case rec := <-reply:
		return rec, nil
	case <-ctx.Done():
		return storage.CommandRecord{}, ctx.Err()
	}
}

func (e *Engine) consume(ctx context.Context, runID string, events <-chan Event, submits <-chan submission, done chan<- struct{}) {
	defer close(done)

	// In-flight actions are not interrupted by Stop.
	actCtx := context.WithoutCancel(ctx)
	narratedError := false

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			narratedError = e.handleEvent(actCtx, ev, narratedError)
		case sub := <-submits:
			sub.reply <- e.runCommand(actCtx, runID, sub.text, storage.SourceManual)
		}
	}
}

// handleEvent reports whether the last backend error has been narrated.
func (e *Engine) handleEvent(ctx context.Context, ev Event, narratedError bool) bool {
	switch ev.Kind {
	case EventWake:
		logging.Infow("wake phrase detected", "run_id", ev.RunID, "attempt", ev.Attempt)
		if err := e.deps.Executor.Acknowledge(ctx); err != nil {
			logging.Warnw("acknowledge failed", "error", err)
		}
		if e.deps.Hub != nil {
			e.deps.Hub.BroadcastWakeDetected(ev.RunID)
		}
		return false
	case EventCommand:
		e.runCommand(ctx, ev.RunID, ev.Text, storage.SourceVoice)
		return false
	case EventBackendError:
		logging.Errorw("speech backend error", "run_id", ev.RunID, "attempt", ev.Attempt, "error", ev.Err)
		if !narratedError {
			e.narrate(ctx, backendErrorMessage)
		}
		return true
	case EventTimeout:
		logging.Infow("command timeout, say the wake phrase and try again", "run_id", ev.RunID, "attempt", ev.Attempt)
	case EventDropped:
		logging.Infow("no command detected", "run_id", ev.RunID, "attempt", ev.Attempt)
	case EventPhaseChanged:
		logging.Debugw("phase changed", "phase", ev.Phase.String())
		if e.deps.Hub != nil {
			e.deps.Hub.BroadcastPhaseChanged(ev.Phase.String())
		}
	}
	return narratedError
}

func (e *Engine) runCommand(ctx context.Context, runID, text, source string) storage.CommandRecord {
	rec := storage.CommandRecord{
		ID:         e.newID(),
		RunID:      runID,
		ReceivedAt: e.now().UTC(),
		Source:     source,
		Text:       strings.TrimSpace(text),
	}
	logging.Infow("processing command", "id", rec.ID, "text", rec.Text, "source", source)
	if e.deps.Hub != nil {
		e.deps.Hub.BroadcastCommandReceived(rec.ID, rec.Text, source)
	}

	action, err := e.deps.Dispatcher.Dispatch(rec.Text)
	if err != nil {
		rec.Outcome = storage.OutcomeRejected
		rec.Message = parseMessage(err)
	} else {
		rec.Action = action.Kind()
		res, err := executor.Apply(ctx, e.deps.Executor, action)
		if err != nil {
			logging.Warnw("action failed", "action", rec.Action, "error", err)
			rec.Outcome = storage.OutcomeFailed
			rec.Message = "Error: " + err.Error()
		} else {
			rec.Outcome = storage.OutcomeOK
			rec.Message = res.Say
			rec.Details = res.Details
		}
	}

	if rec.Message != "" {
		if err := e.deps.Executor.Speak(ctx, rec.Message); err != nil {
			logging.Warnw("speak failed", "error", err)
		}
	}
	e.record(rec)
	return rec
}

func (e *Engine) record(rec storage.CommandRecord) {
	if e.deps.Store != nil {
		if err := e.deps.Store.AppendCommand(rec); err != nil {
			logging.Errorw("append command failed", "id", rec.ID, "error", err)
		}
	}
	if e.deps.Journal != nil {
		if err := e.deps.Journal.Append(rec); err != nil {
			logging.Errorw("journal append failed", "id", rec.ID, "error", err)
		}
	}
	if e.deps.Hub != nil {
		e.deps.Hub.BroadcastActionResult(rec)
	}
}

func (e *Engine) narrate(ctx context.Context, msg string) {
	if err := e.deps.Executor.Speak(ctx, msg); err != nil {
		logging.Warnw("speak failed", "error", err)
	}
	if e.deps.Hub != nil {
		e.deps.Hub.BroadcastNarration(msg)
	}
}

func parseMessage(err error) string {
	var pe *command.ParseError
	if errors.As(err, &pe) && pe.Message != "" {
		return pe.Message
	}
	return err.Error()
}

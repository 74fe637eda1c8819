package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sjawhar/chanti/internal/session"
	"github.com/sjawhar/chanti/internal/storage"
)

type apiStoreStub struct {
	commandsByDate map[string][]storage.CommandRecord
	runs           map[string]storage.Run
	dates          []string
}

func (s apiStoreStub) GetCommandsByDate(date string) ([]storage.CommandRecord, error) {
	return s.commandsByDate[date], nil
}

func (s apiStoreStub) GetRun(id string) (storage.Run, error) {
	if run, ok := s.runs[id]; ok {
		return run, nil
	}
	return storage.Run{}, os.ErrNotExist
}

func (s apiStoreStub) GetDates() ([]string, error) {
	return s.dates, nil
}

func testStaticFS(t *testing.T) fs.FS {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>ok</html>"), 0o644); err != nil {
		t.Fatalf("write index.html failed: %v", err)
	}
	return os.DirFS(dir)
}

func serve(h http.Handler, method, target string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestAPIHistory(t *testing.T) {
	received := time.Date(2026, 2, 26, 10, 0, 0, 0, time.UTC)
	store := apiStoreStub{
		commandsByDate: map[string][]storage.CommandRecord{
			"2026-02-26": {{ID: "c1", RunID: "r1", ReceivedAt: received, Text: "open safari", Action: "open_application", Outcome: storage.OutcomeOK}},
		},
	}

	h := Handler(testStaticFS(t), NewHub(), store, ControlHooks{})
	rr := serve(h, http.MethodGet, "/api/history?date=2026-02-26", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if got := rr.Header().Get("Content-Type"); !strings.Contains(got, "application/json") {
		t.Fatalf("expected json content type, got %q", got)
	}

	var payload []storage.CommandRecord
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(payload) != 1 || payload[0].ID != "c1" || payload[0].Text != "open safari" {
		t.Fatalf("unexpected history payload: %+v", payload)
	}
}

func TestAPIHistoryEmptyDateIsEmptyList(t *testing.T) {
	h := Handler(nil, NewHub(), apiStoreStub{}, ControlHooks{})
	rr := serve(h, http.MethodGet, "/api/history?date=2026-01-01", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Fatalf("expected empty list, got %s", rr.Body.String())
	}
}

func TestAPIHistoryRejectsBadDate(t *testing.T) {
	h := Handler(nil, NewHub(), apiStoreStub{}, ControlHooks{})
	rr := serve(h, http.MethodGet, "/api/history?date=yesterday", nil)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestAPIRunDetail(t *testing.T) {
	started := time.Date(2026, 2, 26, 9, 0, 0, 0, time.UTC)
	store := apiStoreStub{runs: map[string]storage.Run{"r1": {ID: "r1", StartedAt: started, Status: "active"}}}
	h := Handler(nil, NewHub(), store, ControlHooks{})

	rr := serve(h, http.MethodGet, "/api/runs/r1", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var run storage.Run
	if err := json.Unmarshal(rr.Body.Bytes(), &run); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if run.ID != "r1" || !run.StartedAt.Equal(started) {
		t.Fatalf("unexpected run %+v", run)
	}

	if rr := serve(h, http.MethodGet, "/api/runs/missing", nil); rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 for missing run, got %d", rr.Code)
	}
	if rr := serve(h, http.MethodGet, "/api/runs/bad.id", nil); rr.Code != http.StatusForbidden {
		t.Fatalf("expected status 403 for invalid id, got %d", rr.Code)
	}
}

func TestAPIDates(t *testing.T) {
	h := Handler(nil, NewHub(), apiStoreStub{dates: []string{"2026-02-26", "2026-02-25"}}, ControlHooks{})

	rr := serve(h, http.MethodGet, "/api/dates", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var dates []string
	if err := json.Unmarshal(rr.Body.Bytes(), &dates); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(dates) != 2 || dates[0] != "2026-02-26" {
		t.Fatalf("unexpected dates %v", dates)
	}
}

type controlsMock struct {
	mu        sync.Mutex
	running   bool
	startErr  error
	starts    int
	stops     int
	submitted []string
	submitErr error
}

func (c *controlsMock) hooks() ControlHooks {
	return ControlHooks{
		Start: func() error {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.starts++
			if c.startErr != nil {
				return c.startErr
			}
			c.running = true
			return nil
		},
		Stop: func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.stops++
			c.running = false
		},
		IsRunning: func() bool {
			c.mu.Lock()
			defer c.mu.Unlock()
			return c.running
		},
		Phase: func() string { return session.CapturingCommand.String() },
		RunID: func() string { return "r1" },
		Submit: func(_ context.Context, text string) (storage.CommandRecord, error) {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.submitted = append(c.submitted, text)
			if c.submitErr != nil {
				return storage.CommandRecord{}, c.submitErr
			}
			return storage.CommandRecord{ID: "c1", Text: text, Outcome: storage.OutcomeOK, Message: "done"}, nil
		},
	}
}

func TestAPIListeningStartStop(t *testing.T) {
	controls := &controlsMock{}
	h := Handler(nil, NewHub(), apiStoreStub{}, controls.hooks())

	if rr := serve(h, http.MethodPost, "/api/listening/start", nil); rr.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rr.Code)
	}
	if rr := serve(h, http.MethodPost, "/api/listening/stop", nil); rr.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rr.Code)
	}
	if controls.starts != 1 || controls.stops != 1 {
		t.Fatalf("expected one start and one stop, got %d and %d", controls.starts, controls.stops)
	}
}

func TestAPIListeningStartConflict(t *testing.T) {
	controls := &controlsMock{startErr: session.ErrAlreadyRunning}
	h := Handler(nil, NewHub(), apiStoreStub{}, controls.hooks())

	if rr := serve(h, http.MethodPost, "/api/listening/start", nil); rr.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rr.Code)
	}
}

func TestAPIStatus(t *testing.T) {
	controls := &controlsMock{running: true}
	hooks := controls.hooks()
	hooks.Warnings = func() []string { return []string{"gdrive sync disabled"} }
	h := Handler(nil, NewHub(), apiStoreStub{}, hooks)

	rr := serve(h, http.MethodGet, "/api/status", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var payload struct {
		Running  bool     `json:"running"`
		Phase    string   `json:"phase"`
		RunID    string   `json:"run_id"`
		Warnings []string `json:"warnings"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !payload.Running || payload.Phase != "capturing_command" || payload.RunID != "r1" {
		t.Fatalf("unexpected status %+v", payload)
	}
	if len(payload.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", payload.Warnings)
	}
}

func TestAPIStatusDefaults(t *testing.T) {
	h := Handler(nil, NewHub(), apiStoreStub{}, ControlHooks{})

	rr := serve(h, http.MethodGet, "/api/status", nil)
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if payload["running"] != false || payload["phase"] != "awaiting_wake" {
		t.Fatalf("unexpected status %v", payload)
	}
	warnings, ok := payload["warnings"].([]any)
	if !ok || len(warnings) != 0 {
		t.Fatalf("expected empty warnings list, got %#v", payload["warnings"])
	}
}

func TestAPISubmitCommand(t *testing.T) {
	controls := &controlsMock{running: true}
	h := Handler(nil, NewHub(), apiStoreStub{}, controls.hooks())

	rr := serve(h, http.MethodPost, "/api/commands", bytes.NewBufferString(`{"text":"list processes"}`))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var rec storage.CommandRecord
	if err := json.Unmarshal(rr.Body.Bytes(), &rec); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if rec.Text != "list processes" || rec.Outcome != storage.OutcomeOK {
		t.Fatalf("unexpected record %+v", rec)
	}
	if len(controls.submitted) != 1 {
		t.Fatalf("expected 1 submission, got %d", len(controls.submitted))
	}
}

func TestAPISubmitCommandValidation(t *testing.T) {
	controls := &controlsMock{running: true}
	h := Handler(nil, NewHub(), apiStoreStub{}, controls.hooks())

	for _, body := range []string{`{`, `{"text":"   "}`} {
		rr := serve(h, http.MethodPost, "/api/commands", bytes.NewBufferString(body))
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400 for %q, got %d", body, rr.Code)
		}
	}
	if len(controls.submitted) != 0 {
		t.Fatalf("expected no submissions, got %v", controls.submitted)
	}
}

func TestAPISubmitCommandNotListening(t *testing.T) {
	controls := &controlsMock{submitErr: session.ErrNotRunning}
	h := Handler(nil, NewHub(), apiStoreStub{}, controls.hooks())

	rr := serve(h, http.MethodPost, "/api/commands", bytes.NewBufferString(`{"text":"help"}`))
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rr.Code)
	}
}

func TestAPISubmitCommandUnavailable(t *testing.T) {
	h := Handler(nil, NewHub(), apiStoreStub{}, ControlHooks{})

	rr := serve(h, http.MethodPost, "/api/commands", bytes.NewBufferString(`{"text":"help"}`))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rr.Code)
	}
}

func TestStaticIndexServed(t *testing.T) {
	h := Handler(testStaticFS(t), NewHub(), apiStoreStub{}, ControlHooks{})

	rr := serve(h, http.MethodGet, "/history", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "ok") {
		t.Fatalf("expected index body, got %q", rr.Body.String())
	}

	if rr := serve(h, http.MethodGet, "/api/unknown", nil); rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 for unknown api route, got %d", rr.Code)
	}
}

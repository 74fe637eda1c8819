package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/sjawhar/chanti/internal/session"
	"github.com/sjawhar/chanti/internal/storage"
)

var (
	runIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	datePattern  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// maxCommandBody bounds the JSON body of a typed command.
const maxCommandBody = 4 << 10

type HistoryStore interface {
	GetCommandsByDate(date string) ([]storage.CommandRecord, error)
	GetRun(id string) (storage.Run, error)
	GetDates() ([]string, error)
}

type commandRequest struct {
	Text string `json:"text"`
}

func registerAPIRoutes(mux *http.ServeMux, store HistoryStore, controls ControlHooks) {
	mux.HandleFunc("GET /api/history", func(w http.ResponseWriter, r *http.Request) {
		date := r.URL.Query().Get("date")
		if date == "" {
			date = time.Now().UTC().Format("2006-01-02")
		}
		if !datePattern.MatchString(date) {
			writeJSONError(w, http.StatusBadRequest, "invalid date")
			return
		}

		commands, err := store.GetCommandsByDate(date)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("list commands: %v", err))
			return
		}
		if commands == nil {
			commands = []storage.CommandRecord{}
		}

		writeJSON(w, http.StatusOK, commands)
	})

	mux.HandleFunc("GET /api/runs/{id}", func(w http.ResponseWriter, r *http.Request) {
		runID := r.PathValue("id")
		if !validRunID(runID) {
			writeJSONError(w, http.StatusForbidden, "invalid run id")
			return
		}

		run, err := store.GetRun(runID)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, os.ErrNotExist) || errors.Is(err, sql.ErrNoRows) {
				status = http.StatusNotFound
			}
			writeJSONError(w, status, fmt.Sprintf("get run: %v", err))
			return
		}

		writeJSON(w, http.StatusOK, run)
	})

	mux.HandleFunc("GET /api/dates", func(w http.ResponseWriter, r *http.Request) {
		dates, err := store.GetDates()
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("get dates: %v", err))
			return
		}
		if dates == nil {
			dates = []string{}
		}
		writeJSON(w, http.StatusOK, dates)
	})

	mux.HandleFunc("POST /api/commands", func(w http.ResponseWriter, r *http.Request) {
		if controls.Submit == nil {
			writeJSONError(w, http.StatusServiceUnavailable, "commands unavailable")
			return
		}

		var req commandRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCommandBody)).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if strings.TrimSpace(req.Text) == "" {
			writeJSONError(w, http.StatusBadRequest, "text is required")
			return
		}

		rec, err := controls.Submit(r.Context(), req.Text)
		if errors.Is(err, session.ErrNotRunning) {
			writeJSONError(w, http.StatusConflict, "not listening")
			return
		}
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("submit command: %v", err))
			return
		}
		writeJSON(w, http.StatusOK, rec)
	})

	mux.HandleFunc("POST /api/listening/start", func(w http.ResponseWriter, r *http.Request) {
		if controls.Start != nil {
			err := controls.Start()
			if errors.Is(err, session.ErrAlreadyRunning) {
				writeJSONError(w, http.StatusConflict, "already listening")
				return
			}
			if err != nil {
				writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("start listening: %v", err))
				return
			}
		}
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("POST /api/listening/stop", func(w http.ResponseWriter, r *http.Request) {
		if controls.Stop != nil {
			controls.Stop()
		}
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("GET /api/status", func(w http.ResponseWriter, r *http.Request) {
		running := false
		if controls.IsRunning != nil {
			running = controls.IsRunning()
		}
		phase := session.AwaitingWake.String()
		if controls.Phase != nil {
			phase = controls.Phase()
		}
		runID := ""
		if controls.RunID != nil {
			runID = controls.RunID()
		}
		var warnings []string
		if controls.Warnings != nil {
			warnings = controls.Warnings()
		}
		if warnings == nil {
			warnings = []string{}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"running":  running,
			"phase":    phase,
			"run_id":   runID,
			"warnings": warnings,
		})
	})
}

func validRunID(id string) bool {
	return runIDPattern.MatchString(id)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

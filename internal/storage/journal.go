package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Journal appends every command to a daily markdown file, one line per
// command. The files are what the Drive syncer uploads.
type Journal struct {
	dir string
	mu  sync.Mutex
}

func NewJournal(dir string) *Journal {
	return &Journal{dir: dir}
}

func (j *Journal) Append(rec CommandRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := os.MkdirAll(j.dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", j.dir, err)
	}

	path := j.PathFor(rec.ReceivedAt)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	if _, err := fmt.Fprintln(f, FormatMarkdown(rec)); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	return nil
}

// PathFor returns the journal file that holds commands received at t.
func (j *Journal) PathFor(t time.Time) string {
	return filepath.Join(j.dir, t.Format("2006-01-02")+".md")
}

func (j *Journal) CurrentPath() string {
	return j.PathFor(time.Now().UTC())
}

// FormatMarkdown renders rec as a single markdown list line.
func FormatMarkdown(rec CommandRecord) string {
	ts := rec.ReceivedAt.Format("15:04:05")
	line := fmt.Sprintf("- **[%s] %s** `%s`", ts, rec.Source, strings.TrimSpace(rec.Text))
	if rec.Action != "" {
		line += " → " + rec.Action
	}
	line += " (" + rec.Outcome + ")"
	if msg := strings.TrimSpace(rec.Message); msg != "" {
		line += ": " + msg
	}
	return line
}

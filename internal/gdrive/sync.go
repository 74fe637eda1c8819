// Package gdrive backs up the daily command journals to a Google Drive
// folder as Google Docs.
package gdrive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/sjawhar/chanti/internal/logging"
)

// files is the part of the Drive API the syncer uses.
type files interface {
	Create(name, parentID string, media io.Reader) (string, error)
	Update(fileID string, media io.Reader) error
}

type driveFiles struct {
	service *drive.Service
}

func (d driveFiles) Create(name, parentID string, media io.Reader) (string, error) {
	doc, err := d.service.Files.Create(&drive.File{
		Name:     name,
		MimeType: "application/vnd.google-apps.document",
		Parents:  []string{parentID},
	}).Media(media).Do()
	if err != nil {
		return "", err
	}
	return doc.Id, nil
}

func (d driveFiles) Update(fileID string, media io.Reader) error {
	_, err := d.service.Files.Update(fileID, &drive.File{}).Media(media).Do()
	return err
}

type Syncer struct {
	files    files
	folderID string

	mu      sync.Mutex
	fileIDs map[string]string
	synced  map[string]time.Time
}

func NewSyncer(ctx context.Context, credPath, folderID string) (*Syncer, error) {
	creds, err := os.ReadFile(credPath)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	config, err := google.CredentialsFromJSONWithTypeAndParams(ctx, creds, google.ServiceAccount, google.CredentialsParams{Scopes: []string{drive.DriveFileScope}})
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}

	svc, err := drive.NewService(ctx, option.WithCredentials(config))
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}

	return newSyncer(driveFiles{service: svc}, folderID), nil
}

func newSyncer(f files, folderID string) *Syncer {
	return &Syncer{
		files:    f,
		folderID: folderID,
		fileIDs:  make(map[string]string),
		synced:   make(map[string]time.Time),
	}
}

// Sync uploads the journal at localPath as the document for date, creating
// it on first upload and replacing its contents afterwards. A journal that
// has not changed since its last upload is skipped. A missing journal is not
// an error: nothing was recorded that day yet.
func (s *Syncer) Sync(localPath, date string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := os.Stat(localPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat %s: %w", localPath, err)
	}
	if last, ok := s.synced[date]; ok && !info.ModTime().After(last) {
		return nil
	}

	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer func() { _ = f.Close() }()

	if fileID, ok := s.fileIDs[date]; ok {
		if err := s.files.Update(fileID, f); err != nil {
			return fmt.Errorf("drive update: %w", err)
		}
		s.synced[date] = info.ModTime()
		return nil
	}

	id, err := s.files.Create(fmt.Sprintf("chanti-%s", date), s.folderID, f)
	if err != nil {
		return fmt.Errorf("drive create: %w", err)
	}

	s.fileIDs[date] = id
	s.synced[date] = info.ModTime()
	return nil
}

// Run syncs the current journal every interval until ctx is done, and once
// more on the way out.
func (s *Syncer) Run(ctx context.Context, interval time.Duration, currentPath func() string) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	syncNow := func() {
		date := time.Now().UTC().Format("2006-01-02")
		if err := s.Sync(currentPath(), date); err != nil {
			logging.Warnw("gdrive sync error", "date", date, "error", err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			syncNow()
			return
		case <-ticker.C:
			syncNow()
		}
	}
}

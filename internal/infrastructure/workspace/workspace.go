package workspace

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/logging"
	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/ports"
)

const filePerm = 0o600

// Workspace hands out unique temp file paths under one directory.
type Workspace struct {
	fs     afero.Fs
	dir    string
	logger *slog.Logger
}

var _ ports.Workspace = (*Workspace)(nil)

// New creates a workspace on the OS filesystem.
func New(dir string, logger *slog.Logger) (*Workspace, error) {
	return NewWithFS(afero.NewOsFs(), dir, logger)
}

// NewWithFS creates dir on fs if needed.
func NewWithFS(fs afero.Fs, dir string, logger *slog.Logger) (*Workspace, error) {
	if logger == nil {
		logger = logging.Discard()
	}

	if err := fs.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("cannot create workspace %s: %w", dir, err)
	}

	return &Workspace{
		fs:     fs,
		dir:    dir,
		logger: logger,
	}, nil
}

// InputPath returns a fresh path for an upload: <user>_<uuid><ext>.
func (w *Workspace) InputPath(userID int64, ext string) string {
	name := strconv.FormatInt(userID, 10) + "_" + newID() + ext
	return filepath.Join(w.dir, name)
}

// OutputPath returns a fresh path for a cleaned file.
func (w *Workspace) OutputPath(ext string) string {
	return filepath.Join(w.dir, "cleaned_"+newID()+ext)
}

// Create opens path for writing, truncating an existing file.
func (w *Workspace) Create(path string) (io.WriteCloser, error) {
	f, err := w.fs.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, filePerm)
	if err != nil {
		return nil, fmt.Errorf("cannot create %s: %w", path, err)
	}
	return f, nil
}

// Open opens path for reading.
func (w *Workspace) Open(path string) (io.ReadCloser, error) {
	f, err := w.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", path, err)
	}
	return f, nil
}

// Remove deletes path; a missing file is not an error.
func (w *Workspace) Remove(path string) error {
	if err := w.fs.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("cannot remove %s: %w", path, err)
	}
	return nil
}

// Sweep removes regular files last modified before now-olderThan and reports
// how many were deleted. Files that fail to delete are logged and skipped.
func (w *Workspace) Sweep(olderThan time.Duration, now time.Time) (int, error) {
	entries, err := afero.ReadDir(w.fs, w.dir)
	if err != nil {
		return 0, fmt.Errorf("cannot read workspace %s: %w", w.dir, err)
	}

	cutoff := now.Add(-olderThan)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !entry.ModTime().Before(cutoff) {
			continue
		}

		path := filepath.Join(w.dir, entry.Name())
		if err := w.Remove(path); err != nil {
			w.logger.Warn("cannot remove stale file", "path", path, "error", err)
			continue
		}
		removed++
	}

	if removed > 0 {
		w.logger.Info("swept stale files", "removed", removed)
	}

	return removed, nil
}

func newID() string {
	id := uuid.New()
	return fmt.Sprintf("%x", id[:])
}

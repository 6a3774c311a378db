package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/cleaner"
	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/domain"
	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/ports"
	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/spreadsheet"
)

// FileCleanerDeps wires the collaborators of a file cleaning run.
type FileCleanerDeps struct {
	Codecs   *spreadsheet.Registry
	Cleaner  *cleaner.Cleaner
	Runs     ports.RunRepository
	Stats    ports.StatsStore
	Recorder ports.Recorder
	Logger   *slog.Logger
	Now      func() time.Time
}

// FileCleaner reads a spreadsheet stream, cleans it and writes the result.
type FileCleaner struct {
	codecs   *spreadsheet.Registry
	cleaner  *cleaner.Cleaner
	runs     ports.RunRepository
	stats    ports.StatsStore
	recorder ports.Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// Job describes one file: where to read it, where to write the result and
// who asked for it.
type Job struct {
	ChatID   int64
	UserID   int64
	FileName string
	Ext      string
	Input    io.Reader
	Output   io.Writer
}

// NewFileCleaner constructs the use case.
func NewFileCleaner(deps FileCleanerDeps) *FileCleaner {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &FileCleaner{
		codecs:   deps.Codecs,
		cleaner:  deps.Cleaner,
		runs:     deps.Runs,
		stats:    deps.Stats,
		recorder: deps.Recorder,
		logger:   deps.Logger,
		now:      now,
	}
}

// OutputExtension reports the extension of the cleaned file for an input
// extension.
func (f *FileCleaner) OutputExtension(ext string) (string, error) {
	codec, err := f.codecs.Resolve(ext)
	if err != nil {
		return "", err
	}
	return codec.OutputExtension(), nil
}

// Clean runs read → clean → write. A *domain.SchemaError is returned as is;
// I/O failures are wrapped. Nothing is written to job.Output on failure.
func (f *FileCleaner) Clean(ctx context.Context, job Job) (domain.Stats, error) {
	started := f.now()

	stats, err := f.clean(job)

	status := domain.RunSucceeded
	var schemaErr *domain.SchemaError
	switch {
	case errors.As(err, &schemaErr):
		status = domain.RunSchemaError
	case err != nil:
		status = domain.RunFailed
	}

	if f.recorder != nil {
		f.recorder.ObserveRun(status, stats, f.now().Sub(started))
	}
	f.persist(ctx, job, status, stats, err, started)

	if err != nil {
		return domain.Stats{}, err
	}
	return stats, nil
}

func (f *FileCleaner) clean(job Job) (domain.Stats, error) {
	codec, err := f.codecs.Resolve(job.Ext)
	if err != nil {
		return domain.Stats{}, err
	}

	f.debug("read file", "file", job.FileName, "codec", codec.Name())
	sheet, err := codec.Read(job.Input)
	if err != nil {
		f.error("failed to read file", "file", job.FileName, "error", err)
		return domain.Stats{}, fmt.Errorf("read %s: %w", job.FileName, err)
	}

	result, err := f.cleaner.Clean(sheet)
	if err != nil {
		return domain.Stats{}, err
	}

	if err := codec.Write(job.Output, f.cleaner.Rules().Columns, result.Records); err != nil {
		f.error("failed to save cleaned file", "file", job.FileName, "error", err)
		return domain.Stats{}, fmt.Errorf("write cleaned %s: %w", job.FileName, err)
	}

	f.info("finished cleaning", "file", job.FileName, "original", result.Stats.Original, "final", result.Stats.Final)
	return result.Stats, nil
}

func (f *FileCleaner) persist(ctx context.Context, job Job, status domain.RunStatus, stats domain.Stats, runErr error, started time.Time) {
	if status == domain.RunSucceeded && f.stats != nil {
		if err := f.stats.SaveLast(ctx, job.ChatID, stats); err != nil {
			f.warn("cannot store last stats", "chat_id", job.ChatID, "error", err)
		}
	}

	if f.runs == nil {
		return
	}

	run := domain.CleaningRun{
		ID:        uuid.NewString(),
		ChatID:    job.ChatID,
		UserID:    job.UserID,
		FileName:  job.FileName,
		Stats:     stats,
		Status:    status,
		CreatedAt: started.UTC(),
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}
	if err := f.runs.SaveRun(ctx, run); err != nil {
		f.warn("cannot save run", "chat_id", job.ChatID, "error", err)
	}
}

func (f *FileCleaner) debug(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Debug(msg, args...)
	}
}

func (f *FileCleaner) info(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Info(msg, args...)
	}
}

func (f *FileCleaner) warn(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Warn(msg, args...)
	}
}

func (f *FileCleaner) error(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Error(msg, args...)
	}
}

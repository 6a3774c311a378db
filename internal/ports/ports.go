package ports

import (
	"context"
	"io"
	"time"

	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/domain"
)

// Messenger delivers replies and files to a chat and fetches uploads.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string) (int, error)
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	SendDocument(ctx context.Context, chatID int64, fileName, caption string, content io.Reader) error
	DownloadFile(ctx context.Context, fileID string, dst io.Writer) error
}

// UpdateSource streams incoming chat messages until ctx is done.
type UpdateSource interface {
	Run(ctx context.Context, handle func(context.Context, domain.Incoming)) error
}

// RunRepository persists cleaning runs for history/audit.
type RunRepository interface {
	SaveRun(ctx context.Context, run domain.CleaningRun) error
	RecentRuns(ctx context.Context, chatID int64, limit uint64) ([]domain.CleaningRun, error)
}

// StatsStore keeps the last successful statistics per chat.
// Last returns nil without error when nothing is stored.
type StatsStore interface {
	SaveLast(ctx context.Context, chatID int64, stats domain.Stats) error
	Last(ctx context.Context, chatID int64) (*domain.Stats, error)
}

// Workspace owns temporary files created while serving a request.
type Workspace interface {
	InputPath(userID int64, ext string) string
	OutputPath(ext string) string
	Create(path string) (io.WriteCloser, error)
	Open(path string) (io.ReadCloser, error)
	Remove(path string) error
	Sweep(olderThan time.Duration, now time.Time) (int, error)
}

// Recorder collects cleaning metrics.
type Recorder interface {
	ObserveRun(status domain.RunStatus, stats domain.Stats, elapsed time.Duration)
}

// Scheduler controls when periodic jobs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}

package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/cleaner"
	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/domain"
	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/infrastructure/spreadsheet"
	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/infrastructure/statsstore"
	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/infrastructure/workspace"
	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/logging"
)

const workspaceDir = "/tmp/cleaner"

type sentDocument struct {
	chatID  int64
	name    string
	caption string
	content []byte
}

type fakeMessenger struct {
	mu        sync.Mutex
	nextID    int
	messages  []string
	deleted   []int
	documents []sentDocument
	files     map[string][]byte
	sendErr   error
	panicOn   string
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{nextID: 100, files: map[string][]byte{}}
}

func (m *fakeMessenger) SendMessage(_ context.Context, _ int64, text string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return 0, m.sendErr
	}
	m.nextID++
	m.messages = append(m.messages, text)
	return m.nextID, nil
}

func (m *fakeMessenger) DeleteMessage(_ context.Context, _ int64, messageID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, messageID)
	return nil
}

func (m *fakeMessenger) SendDocument(_ context.Context, chatID int64, fileName, caption string, content io.Reader) error {
	raw, err := io.ReadAll(content)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents = append(m.documents, sentDocument{chatID: chatID, name: fileName, caption: caption, content: raw})
	return nil
}

func (m *fakeMessenger) DownloadFile(_ context.Context, fileID string, dst io.Writer) error {
	if fileID == m.panicOn {
		panic("corrupt upload")
	}
	m.mu.Lock()
	raw, ok := m.files[fileID]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("file %s not found", fileID)
	}
	_, err := io.Copy(dst, bytes.NewReader(raw))
	return err
}

func (m *fakeMessenger) Messages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.messages...)
}

type fakeRuns struct {
	mu   sync.Mutex
	runs []domain.CleaningRun
	err  error
}

func (r *fakeRuns) SaveRun(_ context.Context, run domain.CleaningRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.runs = append(r.runs, run)
	return nil
}

func (r *fakeRuns) RecentRuns(_ context.Context, chatID int64, limit uint64) ([]domain.CleaningRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var out []domain.CleaningRun
	for i := len(r.runs) - 1; i >= 0 && uint64(len(out)) < limit; i-- {
		if r.runs[i].ChatID == chatID {
			out = append(out, r.runs[i])
		}
	}
	return out, nil
}

type recordedRun struct {
	status domain.RunStatus
	stats  domain.Stats
}

type fakeRecorder struct {
	mu   sync.Mutex
	runs []recordedRun
}

func (r *fakeRecorder) ObserveRun(status domain.RunStatus, stats domain.Stats, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, recordedRun{status: status, stats: stats})
}

type fakeSource struct {
	updates []domain.Incoming
}

func (s fakeSource) Run(ctx context.Context, handle func(context.Context, domain.Incoming)) error {
	for _, in := range s.updates {
		handle(ctx, in)
	}
	return nil
}

var errBroken = errors.New("broken")

type fixture struct {
	fs        afero.Fs
	messenger *fakeMessenger
	runs      *fakeRuns
	stats     *statsstore.MemoryStore
	recorder  *fakeRecorder
	files     *FileCleaner
	bot       *Bot
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	log := logging.Discard()
	fs := afero.NewMemMapFs()
	ws, err := workspace.NewWithFS(fs, workspaceDir, log)
	require.NoError(t, err)

	f := &fixture{
		fs:        fs,
		messenger: newFakeMessenger(),
		runs:      &fakeRuns{},
		stats:     statsstore.NewMemoryStore(),
		recorder:  &fakeRecorder{},
	}

	f.files = NewFileCleaner(FileCleanerDeps{
		Codecs:   spreadsheet.NewDefaultRegistry(),
		Cleaner:  cleaner.New(domain.DefaultRuleSet(), log),
		Runs:     f.runs,
		Stats:    f.stats,
		Recorder: f.recorder,
		Logger:   log,
		Now:      func() time.Time { return time.Date(2025, time.November, 8, 12, 0, 0, 0, time.UTC) },
	})

	f.bot = NewBot(BotDeps{
		Messenger: f.messenger,
		Files:     f.files,
		Workspace: ws,
		Stats:     f.stats,
		Runs:      f.runs,
		Limiter:   NewUploadLimiter(2, time.Second),
		Logger:    log,
	}, BotOptions{
		MaxFileSize:       10 * 1024 * 1024,
		AllowedExtensions: []string{".xlsx", ".xls", ".csv"},
		Columns:           domain.DefaultColumns,
	})

	return f
}

func (f *fixture) workspaceFiles(t *testing.T) []string {
	t.Helper()
	entries, err := afero.ReadDir(f.fs, workspaceDir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

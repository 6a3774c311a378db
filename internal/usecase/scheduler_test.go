package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/infrastructure/workspace"
	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/logging"
)

type manualDriver struct {
	job     func(time.Time)
	stopped bool
}

func (d *manualDriver) Start(_ context.Context, job func(time.Time)) error {
	d.job = job
	return nil
}

func (d *manualDriver) Stop(context.Context) error {
	d.stopped = true
	return nil
}

func TestSchedulerSweepsStaleFiles(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	ws, err := workspace.NewWithFS(fs, workspaceDir, logging.Discard())
	require.NoError(t, err)

	stale := ws.InputPath(1, ".xlsx")
	fresh := ws.OutputPath(".xlsx")
	require.NoError(t, afero.WriteFile(fs, stale, []byte("a"), 0o600))
	require.NoError(t, afero.WriteFile(fs, fresh, []byte("b"), 0o600))

	now := time.Now()
	require.NoError(t, fs.Chtimes(stale, now.Add(-2*time.Hour), now.Add(-2*time.Hour)))

	driver := &manualDriver{}
	s := NewScheduler(driver, ws, time.Hour, logging.Discard())
	require.NoError(t, s.Start(context.Background()))
	require.NotNil(t, driver.job)

	driver.job(now)

	exists, err := afero.Exists(fs, stale)
	require.NoError(t, err)
	assert.False(t, exists)
	exists, err = afero.Exists(fs, fresh)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, s.Stop(context.Background()))
	assert.True(t, driver.stopped)
}

func TestSchedulerWithoutDriver(t *testing.T) {
	t.Parallel()

	s := NewScheduler(nil, nil, time.Hour, nil)
	assert.NoError(t, s.Start(context.Background()))
	assert.NoError(t, s.Stop(context.Background()))
}

package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/domain"
)

func TestInsertRunQuery(t *testing.T) {
	t.Parallel()

	created := time.Date(2025, time.November, 8, 12, 0, 0, 0, time.UTC)
	run := domain.CleaningRun{
		ID:       "3f1b6a4e-6c1d-4d0c-9d47-2f5b1a3c9e10",
		ChatID:   42,
		UserID:   7,
		FileName: "export.xlsx",
		Status:   domain.RunSucceeded,
		Stats: domain.Stats{
			Original:          4,
			RemovedNonZone:    1,
			RemovedDuplicate:  1,
			Final:             2,
			RemovedPercentage: 50,
		},
		CreatedAt: created,
	}

	query, args, err := insertRunQuery(run)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(query, "INSERT INTO cleaning_runs (id,chat_id,user_id,file_name,status,error,"))
	assert.Contains(t, query, "VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)")
	require.Len(t, args, len(runColumns))
	assert.Equal(t, int64(42), args[1])
	assert.Equal(t, "succeeded", args[4])
	assert.Equal(t, 4, args[6])
	assert.Equal(t, 2, args[11])
	assert.Equal(t, 50.0, args[12])
	assert.Equal(t, created, args[13])
}

func TestInsertRunQueryDefaultsTimestamp(t *testing.T) {
	t.Parallel()

	_, args, err := insertRunQuery(domain.CleaningRun{ID: "id", Status: domain.RunFailed})
	require.NoError(t, err)

	createdAt, ok := args[13].(time.Time)
	require.True(t, ok)
	assert.False(t, createdAt.IsZero())
}

func TestRecentRunsQuery(t *testing.T) {
	t.Parallel()

	query, args, err := recentRunsQuery(42, 5)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(query, "SELECT id, chat_id, user_id, "))
	assert.Contains(t, query, "FROM cleaning_runs WHERE chat_id = $1 ORDER BY created_at DESC LIMIT 5")
	assert.Equal(t, []interface{}{int64(42)}, args)
}

func TestNilDatabaseIsNoop(t *testing.T) {
	t.Parallel()

	repo := NewPostgresRepository(nil)
	ctx := context.Background()

	require.NoError(t, repo.EnsureSchema(ctx))
	require.NoError(t, repo.SaveRun(ctx, domain.CleaningRun{}))

	runs, err := repo.RecentRuns(ctx, 1, 5)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

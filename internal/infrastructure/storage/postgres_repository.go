package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/domain"
	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/ports"
)

const runsTable = "cleaning_runs"

const createRunsTable = `CREATE TABLE IF NOT EXISTS cleaning_runs (
    id                    UUID PRIMARY KEY,
    chat_id               BIGINT NOT NULL,
    user_id               BIGINT NOT NULL,
    file_name             TEXT NOT NULL,
    status                TEXT NOT NULL,
    error                 TEXT NOT NULL DEFAULT '',
    original_count        INTEGER NOT NULL DEFAULT 0,
    removed_non_zone      INTEGER NOT NULL DEFAULT 0,
    removed_search_engine INTEGER NOT NULL DEFAULT 0,
    removed_duplicate     INTEGER NOT NULL DEFAULT 0,
    removed_empty         INTEGER NOT NULL DEFAULT 0,
    final_count           INTEGER NOT NULL DEFAULT 0,
    removed_percentage    DOUBLE PRECISION NOT NULL DEFAULT 0,
    created_at            TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

var runColumns = []string{
	"id",
	"chat_id",
	"user_id",
	"file_name",
	"status",
	"error",
	"original_count",
	"removed_non_zone",
	"removed_search_engine",
	"removed_duplicate",
	"removed_empty",
	"final_count",
	"removed_percentage",
	"created_at",
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresRepository persists cleaning runs into Postgres.
type PostgresRepository struct {
	db *sql.DB
}

var _ ports.RunRepository = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// OpenPostgres connects with the lib/pq driver and verifies the connection.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return db, nil
}

// EnsureSchema creates the runs table when it does not exist.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if r.db == nil {
		return nil
	}

	if _, err := r.db.ExecContext(ctx, createRunsTable); err != nil {
		return fmt.Errorf("create %s: %w", runsTable, err)
	}

	return nil
}

// SaveRun inserts a single run.
func (r *PostgresRepository) SaveRun(ctx context.Context, run domain.CleaningRun) error {
	if r.db == nil {
		return nil
	}

	query, args, err := insertRunQuery(run)
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	return nil
}

// RecentRuns returns the newest runs of a chat, newest first.
func (r *PostgresRepository) RecentRuns(ctx context.Context, chatID int64, limit uint64) ([]domain.CleaningRun, error) {
	if r.db == nil {
		return nil, nil
	}

	query, args, err := recentRunsQuery(chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	var runs []domain.CleaningRun
	for rows.Next() {
		var (
			run    domain.CleaningRun
			status string
		)
		if err := rows.Scan(
			&run.ID,
			&run.ChatID,
			&run.UserID,
			&run.FileName,
			&status,
			&run.Error,
			&run.Stats.Original,
			&run.Stats.RemovedNonZone,
			&run.Stats.RemovedSearchEngine,
			&run.Stats.RemovedDuplicate,
			&run.Stats.RemovedEmpty,
			&run.Stats.Final,
			&run.Stats.RemovedPercentage,
			&run.CreatedAt,
		); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Status = domain.RunStatus(status)
		runs = append(runs, run)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return runs, nil
}

func insertRunQuery(run domain.CleaningRun) (string, []interface{}, error) {
	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	return psql.Insert(runsTable).
		Columns(runColumns...).
		Values(
			run.ID,
			run.ChatID,
			run.UserID,
			run.FileName,
			string(run.Status),
			run.Error,
			run.Stats.Original,
			run.Stats.RemovedNonZone,
			run.Stats.RemovedSearchEngine,
			run.Stats.RemovedDuplicate,
			run.Stats.RemovedEmpty,
			run.Stats.Final,
			run.Stats.RemovedPercentage,
			createdAt,
		).
		ToSql()
}

func recentRunsQuery(chatID int64, limit uint64) (string, []interface{}, error) {
	return psql.Select(runColumns...).
		From(runsTable).
		Where(sq.Eq{"chat_id": chatID}).
		OrderBy("created_at DESC").
		Limit(limit).
		ToSql()
}

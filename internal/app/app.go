package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/cleaner"
	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/config"
	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/infrastructure/httpserver"
	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/infrastructure/metrics"
	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/infrastructure/scheduler"
	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/infrastructure/spreadsheet"
	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/infrastructure/statsstore"
	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/infrastructure/storage"
	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/infrastructure/telegram"
	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/infrastructure/workspace"
	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/logging"
	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/ports"
	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/usecase"
)

const stopTimeout = 10 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	bot       *usecase.Bot
	source    ports.UpdateSource
	scheduler *usecase.Scheduler
	server    *httpserver.Server

	db    *sql.DB
	redis *redis.Client
}

// New connects optional backends and builds a runnable application instance.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	a := &Application{cfg: cfg, logger: baseLogger}

	ws, err := workspace.New(cfg.Workspace.Dir, baseLogger.With("component", "workspace"))
	if err != nil {
		return nil, err
	}

	var runs ports.RunRepository
	if cfg.Database.DSN != "" {
		db, err := storage.OpenPostgres(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		repo := storage.NewPostgresRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		a.db = db
		runs = repo
	} else {
		baseLogger.Info("run history disabled", "reason", "empty DATABASE_DSN")
	}

	var stats ports.StatsStore
	if cfg.Redis.URL != "" {
		cl, err := statsstore.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.redis = cl
		stats = statsstore.NewRedisStore(cl, cfg.Redis.StatsTTL, baseLogger.With("component", "stats"))
	} else {
		stats = statsstore.NewMemoryStore()
	}

	recorder := metrics.New()
	if cfg.HTTP.Listen != "" {
		router := httpserver.NewRouter(recorder.Handler())
		a.server = httpserver.New(cfg.HTTP.Listen, router, baseLogger.With("component", "http"))
	}

	files := usecase.NewFileCleaner(usecase.FileCleanerDeps{
		Codecs:   spreadsheet.NewDefaultRegistry(),
		Cleaner:  cleaner.New(cfg.Rules, baseLogger.With("component", "cleaner")),
		Runs:     runs,
		Stats:    stats,
		Recorder: recorder,
		Logger:   baseLogger.With("component", "files"),
	})

	client := telegram.NewClient(cfg.Telegram.APIURL, cfg.Telegram.BotToken, &http.Client{
		Timeout: cfg.Telegram.PollTimeout + time.Minute,
	})
	a.source = telegram.NewPoller(client, cfg.Telegram.PollTimeout, baseLogger.With("component", "telegram"))

	a.bot = usecase.NewBot(usecase.BotDeps{
		Messenger: client,
		Files:     files,
		Workspace: ws,
		Stats:     stats,
		Runs:      runs,
		Limiter:   usecase.NewUploadLimiter(cfg.Limits.MaxConcurrent, cfg.Limits.MaxWait),
		Logger:    baseLogger.With("component", "bot"),
	}, usecase.BotOptions{
		MaxFileSize:       cfg.Limits.MaxFileSize,
		AllowedExtensions: cfg.Limits.AllowedExtensions,
		Columns:           cfg.Rules.Columns,
	})

	a.scheduler = usecase.NewScheduler(
		scheduler.NewCronScheduler(cfg.Workspace.SweepCron),
		ws,
		cfg.Workspace.MaxAge,
		baseLogger.With("component", "sweep"),
	)

	return a, nil
}

// Run polls Telegram, serves the ops endpoints and sweeps temp files until
// ctx is done.
func (a *Application) Run(ctx context.Context) error {
	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start sweep: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		if err := a.scheduler.Stop(stopCtx); err != nil {
			a.logger.Warn("cannot stop sweep", "error", err)
		}
	}()

	g, gctx := errgroup.WithContext(ctx)

	if a.server != nil {
		g.Go(func() error {
			return a.server.Run(gctx)
		})
	}

	g.Go(func() error {
		a.logger.Info("bot started")
		err := a.bot.Serve(gctx, a.source)
		a.logger.Info("bot stopped")
		return err
	})

	return g.Wait()
}

// Close releases database and cache connections.
func (a *Application) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("cannot close postgres", "error", err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("cannot close redis", "error", err)
		}
	}
}

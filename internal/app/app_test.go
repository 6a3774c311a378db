package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/config"
	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/domain"
	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/logging"
)

func TestApplicationRunsUntilCancelled(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":[]}`))
	}))
	defer api.Close()

	cfg := config.Config{
		Telegram: config.TelegramConfig{
			BotToken:    "token",
			APIURL:      api.URL,
			PollTimeout: time.Second,
		},
		Limits: config.LimitsConfig{
			MaxFileSize:       1024,
			AllowedExtensions: []string{".csv"},
		},
		Rules: domain.DefaultRuleSet(),
		Workspace: config.WorkspaceConfig{
			Dir:       filepath.Join(t.TempDir(), "work"),
			SweepCron: "@every 1h",
			MaxAge:    time.Hour,
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	application, err := New(ctx, cfg, logging.Discard())
	require.NoError(t, err)
	defer application.Close()

	assert.Nil(t, application.server)
	assert.NoError(t, application.Run(ctx))
}

func TestNewFailsOnBadRedisURL(t *testing.T) {
	cfg := config.Config{
		Rules:     domain.DefaultRuleSet(),
		Workspace: config.WorkspaceConfig{Dir: t.TempDir()},
		Redis:     config.RedisConfig{URL: "not-a-url"},
	}

	_, err := New(context.Background(), cfg, logging.Discard())
	assert.Error(t, err)
}

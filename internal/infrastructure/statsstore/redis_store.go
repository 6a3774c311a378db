package statsstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/domain"
	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/logging"
	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/ports"
)

const (
	keyPrefix    = "cleanerbot"
	keyLastStats = "last_stats" // STRING. JSON-encoded domain.Stats per chat, expires after ttl.
	keySeparator = ":"
)

// RedisStore keeps the last statistics per chat in Redis.
type RedisStore struct {
	cl     *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

var _ ports.StatsStore = (*RedisStore)(nil)

// NewRedisClient parses url and verifies the server answers PING.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("cannot parse redis url: %w", err)
	}

	cl := redis.NewClient(opt)
	if err := cl.Ping(ctx).Err(); err != nil {
		_ = cl.Close()
		return nil, fmt.Errorf("cannot ping redis: %w", err)
	}

	return cl, nil
}

// NewRedisStore wires a client; ttl <= 0 keeps entries forever.
func NewRedisStore(cl *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisStore {
	if logger == nil {
		logger = logging.Discard()
	}
	return &RedisStore{
		cl:     cl,
		ttl:    ttl,
		logger: logger,
	}
}

// SaveLast overwrites the chat's last statistics.
func (s *RedisStore) SaveLast(ctx context.Context, chatID int64, stats domain.Stats) error {
	payload, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("cannot encode stats: %w", err)
	}

	ttl := s.ttl
	if ttl < 0 {
		ttl = 0
	}
	if err := s.cl.Set(ctx, statsKey(chatID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("cannot store stats for chat %d: %w", chatID, err)
	}

	return nil
}

// Last returns the chat's last statistics or nil when none are stored.
func (s *RedisStore) Last(ctx context.Context, chatID int64) (*domain.Stats, error) {
	payload, err := s.cl.Get(ctx, statsKey(chatID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot get stats for chat %d: %w", chatID, err)
	}

	var stats domain.Stats
	if err := json.Unmarshal(payload, &stats); err != nil {
		s.logger.Warn("dropping undecodable stats", "chat_id", chatID, "error", err)
		return nil, nil
	}

	return &stats, nil
}

func statsKey(chatID int64) string {
	return keyPrefix + keySeparator + keyLastStats + keySeparator + strconv.FormatInt(chatID, 10)
}

package statsstore

import (
	"context"
	"sync"

	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/domain"
	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/ports"
)

// MemoryStore keeps the last statistics per chat in process memory. Used
// when no Redis URL is configured.
type MemoryStore struct {
	mu    sync.RWMutex
	stats map[int64]domain.Stats
}

var _ ports.StatsStore = (*MemoryStore)(nil)

// NewMemoryStore builds an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{stats: map[int64]domain.Stats{}}
}

// SaveLast overwrites the chat's last statistics.
func (s *MemoryStore) SaveLast(_ context.Context, chatID int64, stats domain.Stats) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats[chatID] = stats
	return nil
}

// Last returns a copy of the chat's last statistics or nil.
func (s *MemoryStore) Last(_ context.Context, chatID int64) (*domain.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats, ok := s.stats[chatID]
	if !ok {
		return nil, nil
	}
	return &stats, nil
}

package cleaner

import (
	"strings"

	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/domain"
)

// filter keeps items matching keep, preserving order, and reports how many
// were dropped.
func filter[T any](items []T, keep func(T) bool) ([]T, int) {
	kept := make([]T, 0, len(items))
	for _, item := range items {
		if keep(item) {
			kept = append(kept, item)
		}
	}
	return kept, len(items) - len(kept)
}

// dedupeFirst keeps the first item for every distinct key.
func dedupeFirst[T any](items []T, key func(T) string) ([]T, int) {
	seen := make(map[string]struct{}, len(items))
	return filter(items, func(item T) bool {
		k := key(item)
		if _, ok := seen[k]; ok {
			return false
		}
		seen[k] = struct{}{}
		return true
	})
}

// dropEmpty trims Value and Domain and drops records where either is empty.
func dropEmpty(records []domain.Record) ([]domain.Record, int) {
	trimmed := make([]domain.Record, len(records))
	for i, r := range records {
		r.Value = strings.TrimSpace(r.Value)
		r.Domain = strings.TrimSpace(r.Domain)
		trimmed[i] = r
	}
	return filter(trimmed, func(r domain.Record) bool {
		return r.Value != "" && r.Domain != ""
	})
}

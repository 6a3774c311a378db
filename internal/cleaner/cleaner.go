// Package cleaner filters LetsExtract exports down to relevant domains.
//
// Cleaning runs a fixed sequence of stages over the projected records:
// zone filter, search-engine exclusion, duplicate suppression and empty
// value removal. Each stage works on the output of the previous one, so
// every counter in domain.Stats reflects rows removed at that stage only.
package cleaner

import (
	"log/slog"
	"strings"

	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/domain"
)

// Result is the outcome of a successful cleaning run.
type Result struct {
	Records []domain.Record
	Stats   domain.Stats
}

// Cleaner applies an immutable rule set. It keeps no per-run state and is
// safe for concurrent use.
type Cleaner struct {
	rules  domain.RuleSet
	logger *slog.Logger
}

// New builds a cleaner; zones and markers are lower-cased once here.
func New(rules domain.RuleSet, logger *slog.Logger) *Cleaner {
	return &Cleaner{
		rules: domain.RuleSet{
			Zones:         lowerAll(rules.Zones),
			SearchEngines: lowerAll(rules.SearchEngines),
			Columns:       rules.Columns,
		},
		logger: logger,
	}
}

// Rules returns the normalized rule set.
func (c *Cleaner) Rules() domain.RuleSet {
	return c.rules
}

// Clean validates the sheet header and runs every stage. On a schema
// mismatch it returns *domain.SchemaError and no result.
func (c *Cleaner) Clean(sheet domain.Sheet) (Result, error) {
	if err := c.validateColumns(sheet); err != nil {
		c.warn("schema validation failed", "error", err)
		return Result{}, err
	}

	stats := domain.Stats{Original: len(sheet.Rows)}
	records := c.project(sheet.Rows)

	records, stats.RemovedNonZone = filter(records, func(r domain.Record) bool {
		return c.inZone(r.Domain)
	})
	records, stats.RemovedSearchEngine = filter(records, func(r domain.Record) bool {
		return !c.isSearchEngine(r.Domain)
	})
	records, stats.RemovedDuplicate = dedupeFirst(records, func(r domain.Record) string {
		return r.Domain
	})
	records, stats.RemovedEmpty = dropEmpty(records)

	stats.Final = len(records)
	if stats.Original > 0 {
		stats.RemovedPercentage = float64(stats.Original-stats.Final) / float64(stats.Original) * 100
	}

	c.debug("sheet cleaned",
		"original", stats.Original,
		"final", stats.Final,
		"removed_non_zone", stats.RemovedNonZone,
		"removed_search_engine", stats.RemovedSearchEngine,
		"removed_duplicate", stats.RemovedDuplicate,
		"removed_empty", stats.RemovedEmpty,
	)

	return Result{Records: records, Stats: stats}, nil
}

func (c *Cleaner) validateColumns(sheet domain.Sheet) error {
	var missing []string
	for _, column := range c.rules.Columns.Required() {
		if !sheet.HasColumn(column) {
			missing = append(missing, column)
		}
	}
	if len(missing) > 0 {
		return &domain.SchemaError{Missing: missing}
	}
	return nil
}

func (c *Cleaner) project(rows []domain.Row) []domain.Record {
	cols := c.rules.Columns
	records := make([]domain.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, domain.Record{
			Value:           row[cols.Value],
			Domain:          row[cols.Domain],
			Title:           row[cols.Title],
			MetaDescription: row[cols.MetaDescription],
		})
	}
	return records
}

func (c *Cleaner) inZone(host string) bool {
	host = normalizeHost(host)
	for _, zone := range c.rules.Zones {
		if strings.HasSuffix(host, zone) {
			return true
		}
	}
	return false
}

func (c *Cleaner) isSearchEngine(host string) bool {
	host = normalizeHost(host)
	for _, marker := range c.rules.SearchEngines {
		if strings.Contains(host, marker) {
			return true
		}
	}
	return false
}

func normalizeHost(host string) string {
	return strings.ToLower(strings.TrimSpace(host))
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, strings.ToLower(v))
	}
	return out
}

func (c *Cleaner) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

func (c *Cleaner) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}

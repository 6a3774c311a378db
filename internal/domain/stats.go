package domain

import "fmt"

const noStatsMessage = "Статистика недоступна."

// Stats counts rows removed by each cleaning stage.
// Original - (sum of Removed*) == Final.
type Stats struct {
	Original            int     `json:"original"`
	RemovedNonZone      int     `json:"removed_non_zone"`
	RemovedSearchEngine int     `json:"removed_search_engine"`
	RemovedDuplicate    int     `json:"removed_duplicate"`
	RemovedEmpty        int     `json:"removed_empty"`
	Final               int     `json:"final"`
	RemovedPercentage   float64 `json:"removed_percentage"`
}

// RemovedTotal sums all removal counters.
func (s Stats) RemovedTotal() int {
	return s.RemovedNonZone + s.RemovedSearchEngine + s.RemovedDuplicate + s.RemovedEmpty
}

// Summary renders the report sent to the user. A nil receiver means no run
// has happened yet.
func (s *Stats) Summary() string {
	if s == nil {
		return noStatsMessage
	}

	return fmt.Sprintf("📊 Статистика обработки:\n"+
		"• Исходное количество записей: %d\n"+
		"• Конечное количество записей: %d\n"+
		"• Удалено не-РФ доменов: %d\n"+
		"• Удалено поисковиков: %d\n"+
		"• Удалено дублей: %d\n"+
		"• Удалено пустых записей: %d\n"+
		"• Процент удалённых записей: %.2f%%",
		s.Original,
		s.Final,
		s.RemovedNonZone,
		s.RemovedSearchEngine,
		s.RemovedDuplicate,
		s.RemovedEmpty,
		s.RemovedPercentage,
	)
}

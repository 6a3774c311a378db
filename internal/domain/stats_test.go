package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatsSummary(t *testing.T) {
	t.Parallel()

	stats := &Stats{
		Original:          4,
		RemovedNonZone:    1,
		RemovedDuplicate:  1,
		Final:             2,
		RemovedPercentage: 50,
	}

	summary := stats.Summary()
	assert.True(t, strings.HasPrefix(summary, "📊 Статистика обработки:\n"))
	assert.Contains(t, summary, "• Исходное количество записей: 4\n")
	assert.Contains(t, summary, "• Конечное количество записей: 2\n")
	assert.Contains(t, summary, "• Удалено не-РФ доменов: 1\n")
	assert.Contains(t, summary, "• Удалено поисковиков: 0\n")
	assert.Contains(t, summary, "• Удалено дублей: 1\n")
	assert.Contains(t, summary, "• Удалено пустых записей: 0\n")
	assert.True(t, strings.HasSuffix(summary, "• Процент удалённых записей: 50.00%"))
}

func TestStatsSummaryWithoutRun(t *testing.T) {
	t.Parallel()

	var stats *Stats
	assert.Equal(t, "Статистика недоступна.", stats.Summary())
}

func TestSchemaErrorListsEveryColumn(t *testing.T) {
	t.Parallel()

	err := &SchemaError{Missing: []string{"Domain", "Title"}}
	assert.Equal(t, "отсутствуют обязательные колонки: Domain, Title", err.Error())
}

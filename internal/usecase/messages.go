package usecase

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/domain"
)

const (
	msgOnlyFiles     = "Я умею обрабатывать только Excel файлы. Пожалуйста, отправьте документ."
	msgProcessing    = "⏳ Обрабатываю файл..."
	msgDone          = "Готово! Вот очищенный файл."
	msgFailed        = "❌ Произошла непредвиденная ошибка при обработке файла. Попробуйте позже."
	msgBusy          = "⏳ Сейчас обрабатывается слишком много файлов. Попробуйте через минуту."
	msgHistoryEmpty  = "История пуста. Отправьте файл, чтобы начать."
	msgHistoryOff    = "История обработок недоступна."
	msgSchemaPrefix  = "❌ Ошибка: "
	msgHistoryHeader = "🗂 Последние обработки:"
	historyTimeFmt   = "02.01.2006 15:04"
)

func startMessage(extensions []string) string {
	return "Привет! Я бот для очистки выгрузок LetsExtract.\n\n" +
		"Отправьте мне файл (" + joinExtensions(extensions) + "), и я удалю мусорные записи, " +
		"оставлю только релевантные домены и пришлю результат.\n\n" +
		"/help — как пользоваться ботом."
}

func helpMessage(columns domain.Columns, maxFileSize int64, extensions []string) string {
	return "ℹ️ Как использовать бота:\n" +
		"1. Отправьте файл (" + joinExtensions(extensions) + ") с колонками: " +
		strings.Join(columns.Required(), ", ") + ".\n" +
		"2. Размер файла не должен превышать " + formatMB(maxFileSize) + ".\n" +
		"3. Остальные колонки будут удалены автоматически.\n\n" +
		"После обработки вы получите очищенный файл и статистику.\n" +
		"/stats — статистика последней обработки.\n" +
		"/history — последние обработки."
}

func tooLargeMessage(maxFileSize int64) string {
	return "❌ Файл слишком большой. Максимальный размер — " + formatMB(maxFileSize) + "."
}

func wrongFormatMessage(extensions []string) string {
	return "❌ Неподдерживаемый формат. Отправьте файл " + joinExtensions(extensions) + "."
}

func historyMessage(runs []domain.CleaningRun) string {
	if len(runs) == 0 {
		return msgHistoryEmpty
	}

	var b strings.Builder
	b.WriteString(msgHistoryHeader)
	for i, run := range runs {
		fmt.Fprintf(&b, "\n%d. %s — %s, ", i+1, run.FileName, run.CreatedAt.Format(historyTimeFmt))
		switch run.Status {
		case domain.RunSucceeded:
			fmt.Fprintf(&b, "%d → %d (−%.2f%%)", run.Stats.Original, run.Stats.Final, run.Stats.RemovedPercentage)
		case domain.RunSchemaError:
			b.WriteString("ошибка структуры файла")
		default:
			b.WriteString("ошибка обработки")
		}
	}
	return b.String()
}

func schemaErrorMessage(err error) string {
	text := err.Error()
	r, size := utf8.DecodeRuneInString(text)
	if size == 0 {
		return msgSchemaPrefix
	}
	return msgSchemaPrefix + string(unicode.ToUpper(r)) + text[size:]
}

func formatMB(size int64) string {
	const mb = 1024 * 1024
	if size%mb == 0 {
		return fmt.Sprintf("%d MB", size/mb)
	}
	return fmt.Sprintf("%.1f MB", float64(size)/mb)
}

func joinExtensions(extensions []string) string {
	switch len(extensions) {
	case 0:
		return ""
	case 1:
		return extensions[0]
	}
	return strings.Join(extensions[:len(extensions)-1], ", ") + " или " + extensions[len(extensions)-1]
}

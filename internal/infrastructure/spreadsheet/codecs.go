package spreadsheet

import "github.com/kirilljugatsu/letsextract-cleaner-bot/internal/spreadsheet"

// NewDefaultRegistry registers every codec shipped with the bot.
func NewDefaultRegistry() *spreadsheet.Registry {
	return spreadsheet.NewRegistry(NewXLSX(), NewXLS(), NewHTMLTable(), NewCSV())
}

package spreadsheet

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/domain"
	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/spreadsheet"
)

// HTMLTable reads the first <table> of an HTML document, the format many
// web tools save under an .xls name. Output is written as xlsx.
type HTMLTable struct {
	xlsx XLSX
}

var _ spreadsheet.Codec = HTMLTable{}

// NewHTMLTable returns the HTML table codec.
func NewHTMLTable() HTMLTable {
	return HTMLTable{xlsx: NewXLSX()}
}

// Name identifies the codec in logs.
func (HTMLTable) Name() string {
	return "html"
}

// Extensions lists handled file extensions.
func (HTMLTable) Extensions() []string {
	return []string{".html", ".htm"}
}

// OutputExtension is the extension Write produces.
func (c HTMLTable) OutputExtension() string {
	return c.xlsx.OutputExtension()
}

// Read parses the first table; its first row is the header.
func (HTMLTable) Read(r io.Reader) (domain.Sheet, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return domain.Sheet{}, fmt.Errorf("parse document: %w", err)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return domain.Sheet{}, errors.New("document has no table")
	}

	var rows [][]string
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(cell.Text()))
		})
		rows = append(rows, cells)
	})

	return spreadsheet.SheetFromRows(rows), nil
}

// Write delegates to the xlsx codec.
func (c HTMLTable) Write(w io.Writer, columns domain.Columns, records []domain.Record) error {
	return c.xlsx.Write(w, columns, records)
}

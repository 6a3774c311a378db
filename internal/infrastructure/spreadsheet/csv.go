package spreadsheet

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/domain"
	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/spreadsheet"
)

const utf8BOM = "\ufeff"

// CSV reads and writes comma-separated UTF-8 files.
type CSV struct {
	// Comma is the field delimiter; zero means ','.
	Comma rune
}

var _ spreadsheet.Codec = CSV{}

// NewCSV returns the csv codec.
func NewCSV() CSV {
	return CSV{Comma: ','}
}

// Name identifies the codec in logs.
func (CSV) Name() string {
	return "csv"
}

// Extensions lists handled file extensions.
func (CSV) Extensions() []string {
	return []string{".csv"}
}

// OutputExtension is the extension Write produces.
func (CSV) OutputExtension() string {
	return ".csv"
}

// Read parses every record; the first one is the header.
func (c CSV) Read(r io.Reader) (domain.Sheet, error) {
	reader := csv.NewReader(r)
	reader.Comma = c.comma()
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return domain.Sheet{}, fmt.Errorf("read csv: %w", err)
	}

	return spreadsheet.SheetFromRows(rows), nil
}

// Write emits a BOM-prefixed file so spreadsheet apps detect UTF-8.
func (c CSV) Write(w io.Writer, columns domain.Columns, records []domain.Record) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}

	writer := csv.NewWriter(w)
	writer.Comma = c.comma()
	if err := writer.WriteAll(spreadsheet.RecordRows(columns, records)); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}

	return nil
}

func (c CSV) comma() rune {
	if c.Comma == 0 {
		return ','
	}
	return c.Comma
}

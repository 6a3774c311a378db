package spreadsheet

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/domain"
	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/spreadsheet"
)

// XLSX reads and writes Office Open XML workbooks. Only the first sheet is
// read.
type XLSX struct{}

var _ spreadsheet.Codec = XLSX{}

// NewXLSX returns the xlsx codec.
func NewXLSX() XLSX {
	return XLSX{}
}

// Name identifies the codec in logs.
func (XLSX) Name() string {
	return "xlsx"
}

// Extensions lists handled file extensions.
func (XLSX) Extensions() []string {
	return []string{".xlsx"}
}

// OutputExtension is the extension Write produces.
func (XLSX) OutputExtension() string {
	return ".xlsx"
}

// Read parses the first worksheet; its first row is the header.
func (XLSX) Read(r io.Reader) (domain.Sheet, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return domain.Sheet{}, fmt.Errorf("open workbook: %w", err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return domain.Sheet{}, nil
	}

	rows, err := book.GetRows(sheets[0])
	if err != nil {
		return domain.Sheet{}, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}

	return spreadsheet.SheetFromRows(rows), nil
}

// Write stores records in a single-sheet workbook with a header row and no
// index column.
func (XLSX) Write(w io.Writer, columns domain.Columns, records []domain.Record) error {
	book := excelize.NewFile()
	defer book.Close()

	sheet := book.GetSheetName(0)
	stream, err := book.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("new stream writer: %w", err)
	}

	for i, row := range spreadsheet.RecordRows(columns, records) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("cell name for row %d: %w", i+1, err)
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			if i == 0 {
				values[j] = v
				continue
			}
			values[j] = cellValue(v)
		}
		if err := stream.SetRow(cell, values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := stream.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}

	if err := book.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}

	return nil
}

// cellValue restores numeric cells that were read back as text. Only values
// whose canonical form is unchanged become numbers, so "007" and "1e5" stay
// text. Empty strings become blank cells.
func cellValue(v string) interface{} {
	if v == "" {
		return nil
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil && strconv.FormatInt(n, 10) == v {
		return n
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) &&
		strconv.FormatFloat(f, 'f', -1, 64) == v {
		return f
	}
	return v
}

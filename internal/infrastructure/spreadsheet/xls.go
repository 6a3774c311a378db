package spreadsheet

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/extrame/xls"

	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/domain"
	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/spreadsheet"
)

var (
	ole2Magic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
	zipMagic  = []byte("PK\x03\x04")
)

// ErrUnknownXLSContent is returned when an .xls payload is neither a BIFF
// workbook, a zipped workbook nor an HTML table.
var ErrUnknownXLSContent = errors.New("unrecognized xls content")

// XLS reads legacy .xls files. Exports named .xls are often HTML tables or
// misnamed xlsx archives, so the payload is sniffed first. Output is always
// written as xlsx.
type XLS struct {
	xlsx XLSX
	html HTMLTable
}

var _ spreadsheet.Codec = XLS{}

// NewXLS returns the xls codec.
func NewXLS() XLS {
	return XLS{xlsx: NewXLSX(), html: NewHTMLTable()}
}

// Name identifies the codec in logs.
func (XLS) Name() string {
	return "xls"
}

// Extensions lists handled file extensions.
func (XLS) Extensions() []string {
	return []string{".xls"}
}

// OutputExtension is the extension Write produces.
func (c XLS) OutputExtension() string {
	return c.xlsx.OutputExtension()
}

// Read detects the payload kind and parses the first sheet or table.
func (c XLS) Read(r io.Reader) (domain.Sheet, error) {
	payload, err := io.ReadAll(r)
	if err != nil {
		return domain.Sheet{}, fmt.Errorf("read xls payload: %w", err)
	}

	switch {
	case bytes.HasPrefix(payload, ole2Magic):
		return readBIFF(payload)
	case bytes.HasPrefix(payload, zipMagic):
		return c.xlsx.Read(bytes.NewReader(payload))
	case looksLikeHTML(payload):
		return c.html.Read(bytes.NewReader(payload))
	default:
		return domain.Sheet{}, ErrUnknownXLSContent
	}
}

// Write delegates to the xlsx codec.
func (c XLS) Write(w io.Writer, columns domain.Columns, records []domain.Record) error {
	return c.xlsx.Write(w, columns, records)
}

// maxBIFFColumns is the column limit of a BIFF8 sheet.
const maxBIFFColumns = 256

var errNoWorkbookStream = errors.New("xls file has no workbook stream")

func readBIFF(payload []byte) (sheet domain.Sheet, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("read xls workbook: %v", r)
		}
	}()

	book, err := xls.OpenReader(bytes.NewReader(payload), "utf-8")
	if err != nil {
		return domain.Sheet{}, fmt.Errorf("open xls workbook: %w", err)
	}
	if book == nil {
		return domain.Sheet{}, errNoWorkbookStream
	}
	if book.NumSheets() == 0 {
		return domain.Sheet{}, nil
	}

	ws := book.GetSheet(0)
	if ws == nil {
		return domain.Sheet{}, nil
	}

	// Cells past the header are never read; ROW records may also report a
	// zero width for rows built from cell records alone.
	width := headerWidth(sheetRow(ws, 0))

	rows := make([][]string, 0, int(ws.MaxRow)+1)
	for i := 0; i <= int(ws.MaxRow); i++ {
		row := sheetRow(ws, i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, width)
		for j := range cells {
			cells[j] = row.Col(j)
		}
		rows = append(rows, cells)
	}

	return spreadsheet.SheetFromRows(trimTrailingEmpty(rows)), nil
}

// sheetRow returns nil for rows without any record: WorkSheet.Row
// dereferences the missing row before returning it.
func sheetRow(ws *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return ws.Row(i)
}

func headerWidth(row *xls.Row) int {
	if row == nil {
		return 0
	}
	width := 0
	for j := 0; j < maxBIFFColumns; j++ {
		if row.Col(j) != "" {
			width = j + 1
		}
	}
	return width
}

func trimTrailingEmpty(rows [][]string) [][]string {
	for len(rows) > 0 && len(rows[len(rows)-1]) == 0 {
		rows = rows[:len(rows)-1]
	}
	return rows
}

func looksLikeHTML(payload []byte) bool {
	head := payload
	if len(head) > 4096 {
		head = head[:4096]
	}
	head = bytes.ToLower(head)
	return bytes.Contains(head, []byte("<html")) || bytes.Contains(head, []byte("<table"))
}

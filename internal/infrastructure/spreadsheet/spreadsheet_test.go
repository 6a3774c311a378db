package spreadsheet

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/domain"
	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/spreadsheet"
)

var records = []domain.Record{
	{Value: "x", Domain: "shop.ru", Title: "Магазин", MetaDescription: "D1"},
	{Value: "z", Domain: "news.su", Title: "T4", MetaDescription: ""},
}

func buildWorkbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()

	book := excelize.NewFile()
	defer book.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, book.SetSheetRow("Sheet1", cell, &row))
	}

	var buf bytes.Buffer
	require.NoError(t, book.Write(&buf))
	return buf.Bytes()
}

func TestXLSXReadKeepsHeaderAndPadsShortRows(t *testing.T) {
	t.Parallel()

	payload := buildWorkbook(t, [][]interface{}{
		{"Value", "Domain", "Extra", "Title", "MetaDescription"},
		{"x", "shop.ru", "e", "T1", "D1"},
		{"y", "news.su"},
	})

	sheet, err := NewXLSX().Read(bytes.NewReader(payload))
	require.NoError(t, err)

	assert.Equal(t, []string{"Value", "Domain", "Extra", "Title", "MetaDescription"}, sheet.Columns)
	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, "T1", sheet.Rows[0]["Title"])
	assert.Equal(t, "news.su", sheet.Rows[1]["Domain"])
	assert.Equal(t, "", sheet.Rows[1]["MetaDescription"])
}

func TestXLSXWriteProducesHeaderWithoutIndex(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, NewXLSX().Write(&buf, domain.LetsExtractColumns, records))

	book, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer book.Close()

	rows, err := book.GetRows(book.GetSheetList()[0])
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Значение", "Домен", "Заголовок", "META Description"}, rows[0])
	assert.Equal(t, []string{"x", "shop.ru", "Магазин", "D1"}, rows[1])
	require.GreaterOrEqual(t, len(rows[2]), 3)
	assert.Equal(t, []string{"z", "news.su", "T4"}, rows[2][:3])
}

func TestHTMLTableRead(t *testing.T) {
	t.Parallel()

	html := `<html><body>
	<table>
	  <tr><th>Value</th><th>Domain</th><th>Title</th><th>MetaDescription</th></tr>
	  <tr><td> x </td><td>shop.ru</td><td>T1</td><td>D1</td></tr>
	  <tr><td>y</td><td>google.com</td><td>T3</td></tr>
	</table>
	<table><tr><td>ignored</td></tr></table>
	</body></html>`

	sheet, err := NewHTMLTable().Read(strings.NewReader(html))
	require.NoError(t, err)

	assert.Equal(t, []string{"Value", "Domain", "Title", "MetaDescription"}, sheet.Columns)
	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, "x", sheet.Rows[0]["Value"])
	assert.Equal(t, "", sheet.Rows[1]["MetaDescription"])
}

func TestHTMLTableReadWithoutTable(t *testing.T) {
	t.Parallel()

	_, err := NewHTMLTable().Read(strings.NewReader("<html><body><p>nothing</p></body></html>"))
	require.Error(t, err)
}

func TestXLSSniffsPayload(t *testing.T) {
	t.Parallel()

	codec := NewXLS()

	t.Run("html", func(t *testing.T) {
		t.Parallel()

		sheet, err := codec.Read(strings.NewReader(`<TABLE><TR><TD>Value</TD><TD>Domain</TD></TR><TR><TD>1</TD><TD>a.ru</TD></TR></TABLE>`))
		require.NoError(t, err)
		assert.Equal(t, []string{"Value", "Domain"}, sheet.Columns)
		require.Len(t, sheet.Rows, 1)
		assert.Equal(t, "a.ru", sheet.Rows[0]["Domain"])
	})

	t.Run("zip", func(t *testing.T) {
		t.Parallel()

		payload := buildWorkbook(t, [][]interface{}{{"Value"}, {"v"}})
		sheet, err := codec.Read(bytes.NewReader(payload))
		require.NoError(t, err)
		assert.Equal(t, []string{"Value"}, sheet.Columns)
	})

	t.Run("garbage", func(t *testing.T) {
		t.Parallel()

		_, err := codec.Read(strings.NewReader("plain text"))
		assert.True(t, errors.Is(err, ErrUnknownXLSContent))
	})

	assert.Equal(t, ".xlsx", codec.OutputExtension())
}

func TestXLSXWriteKeepsNumericCells(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, NewXLSX().Write(&buf, domain.DefaultColumns, []domain.Record{
		{Value: "42", Domain: "shop.ru", Title: "3.5", MetaDescription: "007"},
		{Value: "1e5", Domain: "news.su", Title: "-12", MetaDescription: ""},
	}))

	book, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer book.Close()
	sheet := book.GetSheetList()[0]

	numeric := []excelize.CellType{excelize.CellTypeUnset, excelize.CellTypeNumber}
	for _, cell := range []string{"A2", "C2", "C3"} {
		typ, err := book.GetCellType(sheet, cell)
		require.NoError(t, err)
		assert.Contains(t, numeric, typ, cell)
	}
	for _, cell := range []string{"A1", "B2", "D2", "A3"} {
		typ, err := book.GetCellType(sheet, cell)
		require.NoError(t, err)
		assert.NotContains(t, numeric, typ, cell)
	}

	rows, err := book.GetRows(sheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"42", "shop.ru", "3.5", "007"}, rows[1])
	assert.Equal(t, []string{"1e5", "news.su", "-12"}, rows[2])
}

func TestCellValue(t *testing.T) {
	t.Parallel()

	assert.Nil(t, cellValue(""))
	assert.Equal(t, int64(42), cellValue("42"))
	assert.Equal(t, int64(-3), cellValue("-3"))
	assert.Equal(t, 0.25, cellValue("0.25"))
	for _, text := range []string{"007", "1e5", "+1", "NaN", "Inf", "shop.ru", " 1"} {
		assert.Equal(t, text, cellValue(text), text)
	}
}

func TestXLSReadsBIFFWorkbook(t *testing.T) {
	t.Parallel()

	f, err := os.Open("testdata/export.xls")
	require.NoError(t, err)
	defer f.Close()

	sheet, err := NewXLS().Read(f)
	require.NoError(t, err)

	assert.Equal(t, []string{"Value", "Domain", "Title", "MetaDescription"}, sheet.Columns)
	require.Len(t, sheet.Rows, 4)
	assert.Equal(t, domain.Row{"Value": "42", "Domain": "shop.ru", "Title": "Shop", "MetaDescription": "Best shop"}, sheet.Rows[0])
	assert.Equal(t, domain.Row{"Value": "", "Domain": "", "Title": "", "MetaDescription": ""}, sheet.Rows[1])
	assert.Equal(t, domain.Row{"Value": "z", "Domain": "пример.рф", "Title": "Пример", "MetaDescription": ""}, sheet.Rows[2])
	assert.Equal(t, domain.Row{"Value": "y", "Domain": "news.su", "Title": "", "MetaDescription": ""}, sheet.Rows[3])
}

func TestXLSRejectsBrokenWorkbook(t *testing.T) {
	t.Parallel()

	payload, err := os.ReadFile("testdata/export.xls")
	require.NoError(t, err)

	_, err = NewXLS().Read(bytes.NewReader(payload[:600]))
	assert.Error(t, err)
}

func TestCSVReadAndWrite(t *testing.T) {
	t.Parallel()

	input := "\ufeffValue,Domain,Title,MetaDescription,Extra\n" +
		"x,shop.ru,\"Title, with comma\",D1,e\n" +
		"y,news.su\n"

	sheet, err := NewCSV().Read(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"Value", "Domain", "Title", "MetaDescription", "Extra"}, sheet.Columns)
	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, "Title, with comma", sheet.Rows[0]["Title"])
	assert.Equal(t, "", sheet.Rows[1]["Title"])

	var buf bytes.Buffer
	require.NoError(t, NewCSV().Write(&buf, domain.DefaultColumns, records))
	assert.Equal(t, "\ufeffValue,Domain,Title,MetaDescription\n"+
		"x,shop.ru,Магазин,D1\n"+
		"z,news.su,T4,\n", buf.String())
}

func TestDefaultRegistry(t *testing.T) {
	t.Parallel()

	reg := NewDefaultRegistry()
	assert.Equal(t, []string{".csv", ".htm", ".html", ".xls", ".xlsx"}, reg.Extensions())

	codec, err := reg.Resolve("XLSX")
	require.NoError(t, err)
	assert.Equal(t, "xlsx", codec.Name())

	_, err = reg.Resolve(".ods")
	assert.ErrorIs(t, err, spreadsheet.ErrUnsupportedFormat)
}

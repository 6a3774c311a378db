package spreadsheet

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/domain"
)

// ErrUnsupportedFormat is returned for extensions no codec is registered for.
var ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")

// Codec reads and writes one family of spreadsheet files.
type Codec interface {
	Name() string
	// Extensions lists the lower-case file extensions (".xlsx") the codec reads.
	Extensions() []string
	// OutputExtension is the extension of files produced by Write.
	OutputExtension() string
	Read(r io.Reader) (domain.Sheet, error)
	Write(w io.Writer, columns domain.Columns, records []domain.Record) error
}

// Registry keeps a mapping from file extensions to codecs.
type Registry struct {
	codecs map[string]Codec
}

// NewRegistry builds a registry with the given codecs.
func NewRegistry(codecs ...Codec) *Registry {
	r := &Registry{codecs: map[string]Codec{}}
	for _, codec := range codecs {
		r.Register(codec)
	}
	return r
}

// Register adds or replaces a codec for each of its extensions.
func (r *Registry) Register(codec Codec) {
	if r.codecs == nil {
		r.codecs = map[string]Codec{}
	}
	for _, ext := range codec.Extensions() {
		r.codecs[NormalizeExt(ext)] = codec
	}
}

// Resolve returns the codec for ext or ErrUnsupportedFormat.
func (r *Registry) Resolve(ext string) (Codec, error) {
	if codec, ok := r.codecs[NormalizeExt(ext)]; ok {
		return codec, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
}

// Extensions lists every registered extension, sorted.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.codecs))
	for ext := range r.codecs {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// NormalizeExt lower-cases ext and makes sure it starts with a dot.
func NormalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// SheetFromRows turns a header row plus data rows into a domain.Sheet.
// Missing trailing cells read as empty strings; cells past the header are
// ignored. Blank header cells are skipped and a repeated header keeps its
// first column.
func SheetFromRows(rows [][]string) domain.Sheet {
	if len(rows) == 0 {
		return domain.Sheet{}
	}

	header := make([]string, len(rows[0]))
	for i, name := range rows[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
	}

	sheet := domain.Sheet{Rows: make([]domain.Row, 0, len(rows)-1)}
	seen := make(map[string]struct{}, len(header))
	for _, name := range header {
		if _, dup := seen[name]; dup || name == "" {
			continue
		}
		seen[name] = struct{}{}
		sheet.Columns = append(sheet.Columns, name)
	}

	for _, cells := range rows[1:] {
		row := make(domain.Row, len(sheet.Columns))
		for i, name := range header {
			if name == "" {
				continue
			}
			if _, dup := row[name]; dup {
				continue
			}
			if i < len(cells) {
				row[name] = cells[i]
			} else {
				row[name] = ""
			}
		}
		sheet.Rows = append(sheet.Rows, row)
	}

	return sheet
}

// RecordRows renders records as a header row plus data rows.
func RecordRows(columns domain.Columns, records []domain.Record) [][]string {
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, columns.Required())
	for _, r := range records {
		rows = append(rows, []string{r.Value, r.Domain, r.Title, r.MetaDescription})
	}
	return rows
}

package domain

import "time"

// Record is one row of a cleaned LetsExtract export.
type Record struct {
	Value           string
	Domain          string
	Title           string
	MetaDescription string
}

// Row maps a column header to the cell value read from the source file.
type Row map[string]string

// Sheet is a raw table as read from a spreadsheet: header plus data rows.
type Sheet struct {
	Columns []string
	Rows    []Row
}

// HasColumn reports whether the header contains name (exact match).
func (s Sheet) HasColumn(name string) bool {
	for _, column := range s.Columns {
		if column == name {
			return true
		}
	}
	return false
}

// RunStatus enumerates outcomes of a cleaning request.
type RunStatus string

const (
	RunSucceeded   RunStatus = "succeeded"
	RunSchemaError RunStatus = "schema_error"
	RunFailed      RunStatus = "failed"
)

// CleaningRun is persisted per processed file for history and audit.
type CleaningRun struct {
	ID        string
	ChatID    int64
	UserID    int64
	FileName  string
	Stats     Stats
	Status    RunStatus
	Error     string
	CreatedAt time.Time
}

// Document is a file attached to an incoming chat message.
type Document struct {
	FileID   string
	FileName string
	FileSize int64
}

// Incoming is a transport-neutral chat message.
type Incoming struct {
	ChatID    int64
	UserID    int64
	MessageID int
	Text      string
	Document  *Document
}

package domain

import "strings"

// SchemaError reports required columns absent from the input header.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return "отсутствуют обязательные колонки: " + strings.Join(e.Missing, ", ")
}

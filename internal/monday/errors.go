package monday

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyExport is returned when an export has no data rows below its header.
var ErrEmptyExport = errors.New("export has no data rows")

// ValidationError reports why an export cannot be analyzed.
type ValidationError struct {
	Source            string
	MissingColumns    []string
	TotalRows         int
	RowsMissingSprint int
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.MissingColumns) > 0 {
		parts = append(parts, "missing required columns: "+strings.Join(e.MissingColumns, ", "))
	}
	if e.RowsMissingSprint > 0 {
		parts = append(parts, fmt.Sprintf("%d of %d rows missing sprint", e.RowsMissingSprint, e.TotalRows))
	}
	if len(parts) == 0 {
		parts = append(parts, "invalid export")
	}

	msg := "validation failed: " + strings.Join(parts, "; ")
	if e.Source != "" {
		msg = e.Source + ": " + msg
	}
	return msg
}

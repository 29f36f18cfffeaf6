package monday

import (
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/xuri/excelize/v2"
)

// DateLayouts are tried in order; the first layout that parses wins.
var DateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
	"2006-01-02 15:04:05",
	"02/01/2006 15:04:05",
}

// ParseNumber parses a point value. Comma decimal separators are accepted. Blank,
// unparsable, non-finite and negative values yield nil.
func ParseNumber(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, ",", ".")

	var d apd.Decimal
	if _, _, err := d.SetString(s); err != nil {
		return nil
	}
	if d.Form != apd.Finite {
		return nil
	}
	if d.IsZero() {
		zero := 0.0
		return &zero
	}
	if d.Negative {
		return nil
	}

	f, err := d.Float64()
	if err != nil {
		return nil
	}
	return &f
}

// ParseDate parses a date cell using DateLayouts, falling back to an Excel serial number.
// Anything else yields nil.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return &t
		}
	}
	return nil
}

// ParseMarker reports whether a flag cell holds the single-character "v" marker.
func ParseMarker(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "v")
}

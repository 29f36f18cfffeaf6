package monday

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

// DefaultHeaderRow is the physical row holding column names in a board export:
// board title on row 1, group title on row 2.
const DefaultHeaderRow = 3

// ReadOptions controls how an export file is turned into a table.
type ReadOptions struct {
	// HeaderRow is the 1-based physical row that holds the column names.
	HeaderRow int
	// Sheet selects a worksheet by name; empty means the first sheet.
	Sheet string
	// Comma is the CSV field delimiter; zero means ','.
	Comma rune
	// DateColumns are parsed as dates in addition to the "Fecha ..." columns.
	DateColumns []string
}

// Table is a name-indexed view of an export. Every row has exactly len(Headers) cells,
// all of them trimmed.
type Table struct {
	Source       string
	Headers      []string
	Rows         [][]string
	DroppedEmpty int

	index      map[string]int
	extraDates []string
}

// ReadTable loads an export from disk, dispatching on the file extension.
func ReadTable(path string, opts ReadOptions) (*Table, error) {
	if opts.HeaderRow <= 0 {
		opts.HeaderRow = DefaultHeaderRow
	}

	var raw [][]string
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".xltx":
		raw, err = readWorkbook(path, opts.Sheet)
	case ".csv":
		raw, err = readCSV(path, opts.Comma)
	default:
		return nil, fmt.Errorf("unsupported export format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}

	t, err := NewTable(filepath.Base(path), raw, opts.HeaderRow)
	if err != nil {
		return nil, err
	}
	t.SetDateColumns(opts.DateColumns...)
	return t, nil
}

func readWorkbook(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook %s has no sheets", path)
		}
		sheet = sheets[0]
	}

	// Raw values keep dates as serial numbers instead of locale-formatted strings.
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

func readCSV(path string, comma rune) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	if comma != 0 {
		r.Comma = comma
	}

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return rows, nil
}

// NewTable builds a table from raw rows, taking column names from the 1-based headerRow.
// Misspelled headers are renamed, repeated names get _1, _2 suffixes and rows whose every
// cell is blank are dropped.
func NewTable(source string, raw [][]string, headerRow int) (*Table, error) {
	if headerRow <= 0 {
		headerRow = DefaultHeaderRow
	}
	if len(raw) < headerRow {
		return nil, fmt.Errorf("%s: header row %d not found: %w", source, headerRow, ErrEmptyExport)
	}

	headers := normalizeHeaders(raw[headerRow-1])
	t := &Table{Source: source, Headers: headers}

	for _, cells := range raw[headerRow:] {
		row := make([]string, len(headers))
		blank := true
		for i := range row {
			if i < len(cells) {
				row[i] = strings.TrimSpace(cells[i])
			}
			if row[i] != "" {
				blank = false
			}
		}
		if blank {
			t.DroppedEmpty++
			continue
		}
		t.Rows = append(t.Rows, row)
	}

	if len(t.Rows) == 0 {
		return nil, fmt.Errorf("%s: %w", source, ErrEmptyExport)
	}

	t.reindex()
	return t, nil
}

func normalizeHeaders(cells []string) []string {
	headers := make([]string, len(cells))
	seen := make(map[string]int, len(cells))
	for i, c := range cells {
		name := strings.TrimSpace(c)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if fixed, ok := HeaderRenames[name]; ok {
			name = fixed
		}
		if n, dup := seen[name]; dup {
			base := name
			for {
				name = fmt.Sprintf("%s_%d", base, n)
				n++
				if _, taken := seen[name]; !taken {
					break
				}
			}
			seen[base] = n
		}
		seen[name] = 1
		headers[i] = name
	}
	return headers
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Headers))
	for i, h := range t.Headers {
		if _, ok := t.index[h]; !ok {
			t.index[h] = i
		}
	}
}

// Has reports whether the table carries a column.
func (t *Table) Has(column string) bool {
	_, ok := t.index[column]
	return ok
}

// Value returns the trimmed cell at row/column, or "" when the column does not exist.
func (t *Table) Value(row int, column string) string {
	i, ok := t.index[column]
	if !ok || row < 0 || row >= len(t.Rows) {
		return ""
	}
	return t.Rows[row][i]
}

// Missing returns the given columns that the table lacks, in the given order.
func (t *Table) Missing(columns []string) []string {
	var missing []string
	for _, c := range columns {
		if !t.Has(c) {
			missing = append(missing, c)
		}
	}
	return missing
}

// AddColumn appends an empty column if it does not exist yet.
func (t *Table) AddColumn(column string) bool {
	if t.Has(column) {
		return false
	}
	t.Headers = append(t.Headers, column)
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], "")
	}
	t.index[column] = len(t.Headers) - 1
	return true
}

// SynthesizeOptional adds every missing optional column with empty cells and returns their names.
func (t *Table) SynthesizeOptional() []string {
	var added []string
	for _, c := range OptionalColumns {
		if t.AddColumn(c) {
			added = append(added, c)
			log.Info().Str("source", t.Source).Str("column", c).Msg("Optional column not found, using defaults")
		}
	}
	return added
}

// SetDateColumns marks more columns as holding dates, whatever their name.
func (t *Table) SetDateColumns(columns ...string) {
	t.extraDates = slices.Clone(columns)
}

// DateColumns lists the columns that hold dates, in table order: every "Fecha ..." column
// plus the configured ones the table carries.
func (t *Table) DateColumns() []string {
	var cols []string
	for _, h := range t.Headers {
		if strings.HasPrefix(h, datePrefix) || slices.Contains(t.extraDates, h) {
			cols = append(cols, h)
		}
	}
	return cols
}

// Validate checks required columns and sprint coverage. Missing required columns and an
// export where no row carries a sprint both fail with a *ValidationError.
func (t *Table) Validate() error {
	verr := &ValidationError{
		Source:         t.Source,
		MissingColumns: t.Missing(RequiredColumns),
		TotalRows:      len(t.Rows),
	}

	if t.Has(ColSprint) {
		for i := range t.Rows {
			if t.Value(i, ColSprint) == "" {
				verr.RowsMissingSprint++
			}
		}
	}

	if len(verr.MissingColumns) > 0 {
		return verr
	}
	if verr.RowsMissingSprint == verr.TotalRows {
		return verr
	}
	if verr.RowsMissingSprint > 0 {
		log.Warn().
			Str("source", t.Source).
			Int("rows", verr.RowsMissingSprint).
			Msg("Rows without sprint will be excluded")
	}
	return nil
}

// IsValidationError reports whether err carries a *ValidationError.
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

package monday

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Record is one export row mapped onto typed fields. Blank or unparsable cells are nil.
type Record struct {
	// Row is the 1-based position among the table's data rows.
	Row int

	Name      string
	Status    string
	TaskType  string
	Sprint    string
	QAStatus  string
	UATStatus string
	Assignee  string

	Estimated *float64
	Achieved  *float64
	UATCycles *float64

	StartDate *time.Time
	// Dates holds every date column of the export, keyed by column name.
	Dates map[string]*time.Time

	SprintCompleted bool
	CarryOver       bool
}

// Date returns the parsed value of a date column, or nil when absent or blank.
func (r Record) Date(column string) *time.Time {
	if column == "" {
		return nil
	}
	return r.Dates[column]
}

// Export is a loaded and validated board export.
type Export struct {
	Table       *Table
	Records     []Record
	Synthesized []string
}

// Records maps every table row onto a Record. Columns absent from the table produce
// empty or nil fields.
func (t *Table) Records() []Record {
	dateCols := t.DateColumns()
	records := make([]Record, 0, len(t.Rows))

	for i := range t.Rows {
		r := Record{
			Row:             i + 1,
			Name:            t.Value(i, ColName),
			Status:          t.Value(i, ColStatus),
			TaskType:        t.Value(i, ColTaskType),
			Sprint:          t.Value(i, ColSprint),
			QAStatus:        t.Value(i, ColQAStatus),
			UATStatus:       t.Value(i, ColUATStatus),
			Assignee:        t.Value(i, ColAssignee),
			Estimated:       ParseNumber(t.Value(i, ColEstimated)),
			Achieved:        ParseNumber(t.Value(i, ColAchieved)),
			UATCycles:       ParseNumber(t.Value(i, ColUATCycles)),
			StartDate:       ParseDate(t.Value(i, ColStartDate)),
			SprintCompleted: ParseMarker(t.Value(i, ColSprintCompleted)),
			CarryOver:       ParseMarker(t.Value(i, ColCarryOver)),
			Dates:           make(map[string]*time.Time, len(dateCols)),
		}
		for _, c := range dateCols {
			r.Dates[c] = ParseDate(t.Value(i, c))
		}
		records = append(records, r)
	}
	return records
}

// Load reads, validates and maps an export file.
func Load(path string, opts ReadOptions) (*Export, error) {
	t, err := ReadTable(path, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return FromTable(t)
}

// FromTable validates an already-read table and maps its rows.
func FromTable(t *Table) (*Export, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	synthesized := t.SynthesizeOptional()
	records := t.Records()

	log.Info().
		Str("source", t.Source).
		Int("rows", len(records)).
		Int("droppedEmpty", t.DroppedEmpty).
		Msg("Export loaded")

	return &Export{Table: t, Records: records, Synthesized: synthesized}, nil
}

package monday

// CompletionStat describes how many rows carry a value in one column.
type CompletionStat struct {
	Column     string  `json:"column"`
	Present    bool    `json:"present"`
	Total      int     `json:"total"`
	Complete   int     `json:"complete"`
	Missing    int     `json:"missing"`
	Percentage float64 `json:"percentage"`
}

// Completion computes the completion statistics of a column.
func (t *Table) Completion(column string) CompletionStat {
	stat := CompletionStat{Column: column, Present: t.Has(column), Total: len(t.Rows)}
	if !stat.Present || stat.Total == 0 {
		stat.Missing = stat.Total
		return stat
	}

	for i := range t.Rows {
		if t.Value(i, column) != "" {
			stat.Complete++
		}
	}
	stat.Missing = stat.Total - stat.Complete
	stat.Percentage = float64(stat.Complete) / float64(stat.Total) * 100
	return stat
}

// ValidationReport is the outcome of checking an export without analyzing it.
type ValidationReport struct {
	Source         string           `json:"source"`
	TotalRows      int              `json:"totalRows"`
	DroppedEmpty   int              `json:"droppedEmpty"`
	MissingColumns []string         `json:"missingColumns,omitempty"`
	MissingSprint  int              `json:"rowsMissingSprint"`
	Completion     []CompletionStat `json:"completion"`
	Valid          bool             `json:"valid"`
	Error          string           `json:"error,omitempty"`
}

// Report builds the validation report over the critical columns.
func (t *Table) Report() ValidationReport {
	rep := ValidationReport{
		Source:         t.Source,
		TotalRows:      len(t.Rows),
		DroppedEmpty:   t.DroppedEmpty,
		MissingColumns: t.Missing(RequiredColumns),
	}

	for _, c := range CriticalColumns {
		stat := t.Completion(c)
		rep.Completion = append(rep.Completion, stat)
		if c == ColSprint && stat.Present {
			rep.MissingSprint = stat.Missing
		}
	}

	if err := t.Validate(); err != nil {
		rep.Error = err.Error()
	} else {
		rep.Valid = true
	}
	return rep
}

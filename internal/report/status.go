// Package report renders analysis results as workbooks, terminal tables, JSON and parquet.
package report

import (
	"fmt"

	"agile-metrics/internal/config"

	"github.com/fatih/color"
)

// Status grades a metric value against its thresholds.
type Status int

const (
	StatusNone Status = iota
	StatusGood
	StatusWarning
	StatusDanger
)

// Color variables for console output.
var (
	GoodColor    = color.New(color.FgGreen, color.Bold)
	WarningColor = color.New(color.FgYellow)
	DangerColor  = color.New(color.FgRed, color.Bold)
)

// Fill colors for workbook cells.
const (
	goodFill    = "#C6EFCE"
	warningFill = "#FFEB9C"
	dangerFill  = "#FFC7CE"
	headerFill  = "#2E86AB"
	headerFont  = "#FFFFFF"
)

// Metric identifies a graded metric.
type Metric int

const (
	Predictability Metric = iota
	Efficiency
	Rework
	CycleTime
)

// Classify grades v. Predictability and efficiency are good at or above their good
// threshold; rework and cycle time at or below it. A nil value has no status.
func Classify(m Metric, v *float64, th config.Thresholds) Status {
	if v == nil {
		return StatusNone
	}
	switch m {
	case Predictability:
		return higherIsBetter(*v, th.PredictabilityGood, th.PredictabilityWarning)
	case Efficiency:
		return higherIsBetter(*v, th.EfficiencyGood, th.EfficiencyWarning)
	case Rework:
		return lowerIsBetter(*v, th.ReworkGood, th.ReworkWarning)
	case CycleTime:
		return lowerIsBetter(*v, th.CycleTimeGood, th.CycleTimeWarning)
	}
	return StatusNone
}

func higherIsBetter(v, good, warning float64) Status {
	switch {
	case v >= good:
		return StatusGood
	case v >= warning:
		return StatusWarning
	default:
		return StatusDanger
	}
}

func lowerIsBetter(v, good, warning float64) Status {
	switch {
	case v <= good:
		return StatusGood
	case v <= warning:
		return StatusWarning
	default:
		return StatusDanger
	}
}

func (s Status) String() string {
	switch s {
	case StatusGood:
		return "good"
	case StatusWarning:
		return "warning"
	case StatusDanger:
		return "danger"
	}
	return ""
}

func (s Status) fill() string {
	switch s {
	case StatusGood:
		return goodFill
	case StatusWarning:
		return warningFill
	case StatusDanger:
		return dangerFill
	}
	return ""
}

// StatusLabel renders a value with its status color for console output.
func StatusLabel(m Metric, v *float64, th config.Thresholds, format string) string {
	if v == nil {
		return "-"
	}
	text := fmt.Sprintf(format, *v)
	switch Classify(m, v, th) {
	case StatusGood:
		return GoodColor.Sprint(text)
	case StatusWarning:
		return WarningColor.Sprint(text)
	default:
		return DangerColor.Sprint(text)
	}
}

func formatOpt(v *float64, format string) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf(format, *v)
}

func sprintRef(name string, throughput int) string {
	return fmt.Sprintf("%s (%d)", name, throughput)
}

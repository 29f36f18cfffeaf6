package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"agile-metrics/internal/stats"

	"github.com/parquet-go/parquet-go"
	"github.com/rs/zerolog/log"
)

// SprintRow is the flat parquet form of one sprint of one team.
type SprintRow struct {
	Team                    string   `parquet:"team,snappy"`
	Sprint                  string   `parquet:"sprint,snappy"`
	Month                   *string  `parquet:"month,optional,snappy"`
	TotalTasks              int32    `parquet:"total_tasks,snappy"`
	Throughput              int32    `parquet:"throughput,snappy"`
	CommittedPoints         float64  `parquet:"committed_points,snappy"`
	DeliveredPoints         float64  `parquet:"delivered_points,snappy"`
	Velocity                float64  `parquet:"velocity,snappy"`
	CycleTimeAvg            *float64 `parquet:"cycle_time_avg,optional,snappy"`
	CycleTimeMedian         *float64 `parquet:"cycle_time_median,optional,snappy"`
	Predictability          *float64 `parquet:"predictability,optional,snappy"`
	PredictabilityHDU       *float64 `parquet:"predictability_hdu,optional,snappy"`
	Efficiency              *float64 `parquet:"efficiency,optional,snappy"`
	Rework                  *float64 `parquet:"rework,optional,snappy"`
	ReworkOnVelocity        *float64 `parquet:"rework_on_velocity,optional,snappy"`
	ReworkVelocityEffective *float64 `parquet:"rework_velocity_effective,optional,snappy"`
	CarryOverTasks          int32    `parquet:"carry_over_tasks,snappy"`
}

// MonthRow is the flat parquet form of one month of one team.
type MonthRow struct {
	Team              string   `parquet:"team,snappy"`
	Month             string   `parquet:"month,snappy"`
	NumSprints        int32    `parquet:"num_sprints,snappy"`
	ThroughputTotal   int32    `parquet:"throughput_total,snappy"`
	VelocityTotal     float64  `parquet:"velocity_total,snappy"`
	CycleTimeAvg      *float64 `parquet:"cycle_time_avg,optional,snappy"`
	CycleTimeMedian   *float64 `parquet:"cycle_time_median,optional,snappy"`
	Predictability    *float64 `parquet:"predictability,optional,snappy"`
	PredictabilityHDU *float64 `parquet:"predictability_hdu,optional,snappy"`
	Efficiency        *float64 `parquet:"efficiency,optional,snappy"`
	Rework            *float64 `parquet:"rework,optional,snappy"`
	ReworkOnVelocity  *float64 `parquet:"rework_on_velocity,optional,snappy"`
}

// SprintRows flattens the sprint metrics of a team.
func SprintRows(a *stats.Analysis) []SprintRow {
	rows := make([]SprintRow, 0, len(a.Sprints))
	for _, sm := range a.Sprints {
		row := SprintRow{
			Team:                    a.Team,
			Sprint:                  sm.Sprint,
			TotalTasks:              int32(sm.TotalTasks),
			Throughput:              int32(sm.Throughput),
			CommittedPoints:         sm.CommittedPoints,
			DeliveredPoints:         sm.DeliveredPoints,
			Velocity:                sm.Velocity,
			CycleTimeAvg:            sm.CycleTimeAvg,
			CycleTimeMedian:         sm.CycleTimeMedian,
			Predictability:          sm.Predictability,
			PredictabilityHDU:       sm.PredictabilityHDU,
			Efficiency:              sm.Efficiency,
			Rework:                  sm.Rework,
			ReworkOnVelocity:        sm.ReworkOnVelocity,
			ReworkVelocityEffective: sm.ReworkVelocityEffective,
			CarryOverTasks:          int32(sm.CarryOverTasks),
		}
		if sm.Month != "" {
			month := sm.Month
			row.Month = &month
		}
		rows = append(rows, row)
	}
	return rows
}

// MonthRows flattens the month metrics of a team.
func MonthRows(a *stats.Analysis) []MonthRow {
	rows := make([]MonthRow, 0, len(a.Months))
	for _, m := range a.Months {
		rows = append(rows, MonthRow{
			Team:              a.Team,
			Month:             m.Month,
			NumSprints:        int32(m.NumSprints),
			ThroughputTotal:   int32(m.ThroughputTotal),
			VelocityTotal:     m.VelocityTotal,
			CycleTimeAvg:      m.CycleTimeAvg,
			CycleTimeMedian:   m.CycleTimeMedian,
			Predictability:    m.Predictability,
			PredictabilityHDU: m.PredictabilityHDU,
			Efficiency:        m.Efficiency,
			Rework:            m.Rework,
			ReworkOnVelocity:  m.ReworkOnVelocity,
		})
	}
	return rows
}

// WriteParquet writes rows to a parquet file using the schema of T.
func WriteParquet[T any](rows []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finish parquet file: %w", err)
	}
	return nil
}

// WriteJSON encodes data as indented JSON to outputFile, or to stdout when outputFile is empty.
func WriteJSON(outputFile string, data any) error {
	return writeWithFile(outputFile, func(w io.Writer) error {
		return EncodeJSON(w, data)
	}, "Wrote JSON results")
}

func writeWithFile(outputFile string, writer func(io.Writer) error, successMsg string) error {
	if outputFile == "" {
		return writer(os.Stdout)
	}
	file, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	if err := writer(file); err != nil {
		return err
	}
	log.Info().Str("path", outputFile).Msg(successMsg)
	return nil
}

// EncodeJSON writes data as indented JSON.
func EncodeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

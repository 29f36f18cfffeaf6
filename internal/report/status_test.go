package report

import (
	"testing"
)

func TestClassify(t *testing.T) {
	th := testThresholds()
	tests := []struct {
		name   string
		metric Metric
		value  *float64
		want   Status
	}{
		{"NilHasNoStatus", Predictability, nil, StatusNone},
		{"PredictabilityAtGood", Predictability, f(70), StatusGood},
		{"PredictabilityBetween", Predictability, f(55), StatusWarning},
		{"PredictabilityLow", Predictability, f(39.9), StatusDanger},
		{"EfficiencyHigh", Efficiency, f(9), StatusGood},
		{"EfficiencyAtWarning", Efficiency, f(5), StatusWarning},
		{"ReworkAtGood", Rework, f(15), StatusGood},
		{"ReworkBetween", Rework, f(20), StatusWarning},
		{"ReworkHigh", Rework, f(31), StatusDanger},
		{"CycleTimeFast", CycleTime, f(3), StatusGood},
		{"CycleTimeAtWarning", CycleTime, f(14), StatusWarning},
		{"CycleTimeSlow", CycleTime, f(20), StatusDanger},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.metric, tt.value, th); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatusLabelNil(t *testing.T) {
	if got := StatusLabel(Rework, nil, testThresholds(), "%.1f"); got != "-" {
		t.Errorf("StatusLabel(nil) = %q, want %q", got, "-")
	}
}

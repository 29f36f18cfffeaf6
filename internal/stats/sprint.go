package stats

import (
	"cmp"
	"regexp"
	"strconv"
	"strings"
)

var sprintPattern = regexp.MustCompile(`(?i)Sprint\s*(\d+)`)

// UnifySprint maps labels of parallel sub-teams onto one key: the first "Sprint <digits>"
// becomes "Sprint N" without leading zeros. Labels without that pattern are returned trimmed.
func UnifySprint(label string) string {
	label = strings.TrimSpace(label)
	digits, ok := sprintDigits(label)
	if !ok {
		return label
	}
	return "Sprint " + digits
}

// sprintDigits returns the sprint number of a label as decimal digits without leading zeros.
// Any length is kept, so labels with numbers beyond int range still unify.
func sprintDigits(label string) (string, bool) {
	m := sprintPattern.FindStringSubmatch(label)
	if m == nil {
		return "", false
	}
	digits := strings.TrimLeft(m[1], "0")
	if digits == "" {
		digits = "0"
	}
	return digits, true
}

// SprintNumber extracts the sprint number of a label. Numbers beyond int range are reported
// as absent.
func SprintNumber(label string) (int, bool) {
	digits, ok := sprintDigits(label)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

// compareDigits orders two digit strings without leading zeros numerically.
func compareDigits(a, b string) int {
	if c := cmp.Compare(len(a), len(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

// CompareSprintKeys orders numbered sprints by number, then unnumbered labels alphabetically.
func CompareSprintKeys(a, b string) int {
	da, oka := sprintDigits(a)
	db, okb := sprintDigits(b)
	switch {
	case oka && okb:
		if c := compareDigits(da, db); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	case oka:
		return -1
	case okb:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

// MonthMapping assigns the sprints whose raw label contains Sprint to Month.
type MonthMapping struct {
	Sprint string `mapstructure:"sprint" json:"sprint" yaml:"sprint"`
	Month  string `mapstructure:"month" json:"month" yaml:"month"`
}

// DefaultSprintMapping is the mapping used when no settings file provides one.
func DefaultSprintMapping() []MonthMapping {
	return []MonthMapping{
		{Sprint: "Sprint 2", Month: "Julio"},
		{Sprint: "Sprint 3", Month: "Agosto"},
		{Sprint: "Sprint 4", Month: "Agosto"},
		{Sprint: "Sprint 5", Month: "Septiembre"},
		{Sprint: "Sprint 6", Month: "Septiembre"},
		{Sprint: "Sprint 7", Month: "Octubre"},
		{Sprint: "Sprint 8", Month: "Octubre"},
		{Sprint: "Sprint 9", Month: "Noviembre"},
	}
}

// MonthMapper resolves raw sprint labels to months by substring containment.
type MonthMapper struct {
	mapping []MonthMapping
	order   map[string]int
}

// NewMonthMapper keeps the mapping order: the first key contained in a label wins.
func NewMonthMapper(mapping []MonthMapping) MonthMapper {
	order := make(map[string]int)
	for _, m := range mapping {
		if _, ok := order[m.Month]; !ok {
			order[m.Month] = len(order)
		}
	}
	return MonthMapper{mapping: mapping, order: order}
}

// Month returns the month of the first configured key found in the raw label.
func (m MonthMapper) Month(raw string) (string, bool) {
	for _, e := range m.mapping {
		if e.Sprint != "" && strings.Contains(raw, e.Sprint) {
			return e.Month, true
		}
	}
	return "", false
}

// Compare orders months by first appearance in the mapping, unknown months last and alphabetically.
func (m MonthMapper) Compare(a, b string) int {
	ia, oka := m.order[a]
	ib, okb := m.order[b]
	switch {
	case oka && okb:
		return cmp.Compare(ia, ib)
	case oka:
		return -1
	case okb:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

package stats

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"agile-metrics/internal/monday"
)

// Variant names a delivery policy. The variant is chosen per team and fixed for a run.
type Variant string

const (
	// DeliveryComplete counts only the final release states as delivered (productive teams).
	DeliveryComplete Variant = "delivery-complete"
	// DeliveryExtended also counts QA certification and UAT (teams still in development).
	DeliveryExtended Variant = "delivery-extended"
)

// ParseVariant accepts the canonical names plus the team-type aliases used on the command line.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "complete", "productive", "productivo", string(DeliveryComplete):
		return DeliveryComplete, nil
	case "extended", "development", "desarrollo", string(DeliveryExtended):
		return DeliveryExtended, nil
	default:
		return "", fmt.Errorf("unknown delivery policy %q", s)
	}
}

// TeamType is the human label of the variant used in reports.
func (v Variant) TeamType() string {
	if v == DeliveryExtended {
		return "En Desarrollo"
	}
	return "Productivo"
}

// CertifiedState is the QA-certified intermediate state of the board workflow.
const CertifiedState = "9. Certificado QA"

// DefaultDeliveryStates returns the built-in delivery states of a variant.
func DefaultDeliveryStates(v Variant) []string {
	complete := []string{
		"11. Ready for Product Release",
		"12. Validación a Producción",
		"13. Producción",
	}
	if v == DeliveryExtended {
		return append([]string{CertifiedState, "10. UAT"}, complete...)
	}
	return complete
}

// DefaultDateColumns returns the ordered delivery-date candidates of a variant.
func DefaultDateColumns(v Variant) []string {
	cols := []string{monday.ColReadyDate, monday.ColProductionDate, monday.ColCompletionDate}
	if v == DeliveryExtended {
		return append([]string{monday.ColCertifiedDate}, cols...)
	}
	return cols
}

// DefaultWIPStates lists the in-progress states. They are shown, never used in a metric.
func DefaultWIPStates() []string {
	return []string{
		"2. Ready to Devs",
		"3. In Development",
		"4. Ready for Testing",
		"5. Testing Interno",
		"6. Merge",
		"7. Ready for QA",
		"8. In QA",
		CertifiedState,
		"10. Ready for UAT",
	}
}

// DeliveryPolicy decides which tasks are delivered and which date marks the delivery.
type DeliveryPolicy struct {
	Variant Variant
	States  []string
	// DateColumns are tried in order; the first with any value in the run wins.
	DateColumns []string
	// CompletionColumn is the per-row fallback when the run's column is blank.
	CompletionColumn string
	CertifiedState   string
}

// DefaultPolicy builds the built-in policy of a variant.
func DefaultPolicy(v Variant) DeliveryPolicy {
	return DeliveryPolicy{
		Variant:          v,
		States:           DefaultDeliveryStates(v),
		DateColumns:      DefaultDateColumns(v),
		CompletionColumn: monday.ColCompletionDate,
		CertifiedState:   CertifiedState,
	}
}

// IsDelivered reports whether a status is one of the policy's delivery states.
func (p DeliveryPolicy) IsDelivered(status string) bool {
	return slices.Contains(p.States, strings.TrimSpace(status))
}

// SelectDateColumn returns the first candidate column holding at least one value across
// all records, or "" when none does.
func (p DeliveryPolicy) SelectDateColumn(records []monday.Record) string {
	for _, col := range p.DateColumns {
		for _, r := range records {
			if r.Date(col) != nil {
				return col
			}
		}
	}
	return ""
}

// DeliveryDate resolves a row's delivery date from the run's column, falling back to the
// completion column for this row only. Without a run column there is no delivery date.
func (p DeliveryPolicy) DeliveryDate(r monday.Record, column string) *time.Time {
	if column == "" {
		return nil
	}
	if d := r.Date(column); d != nil {
		return d
	}
	return r.Date(p.CompletionColumn)
}

// Excludes reports whether a record is a board artifact to drop before any metric:
// under the extended policy, a certified task without estimated points can never be closed.
func (p DeliveryPolicy) Excludes(r monday.Record) bool {
	if p.Variant != DeliveryExtended {
		return false
	}
	if strings.TrimSpace(r.Status) != p.CertifiedState {
		return false
	}
	return r.Estimated == nil || *r.Estimated == 0
}

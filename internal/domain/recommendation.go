package domain

import "strings"

// IrrigationAction is the advised irrigation adjustment.
type IrrigationAction string

const (
	IrrigationWater    IrrigationAction = "water"
	IrrigationReduce   IrrigationAction = "reduce"
	IrrigationNoAction IrrigationAction = "no_action"
)

// FertilizerAction is the advised fertilization step.
type FertilizerAction string

const (
	FertilizerApply    FertilizerAction = "apply"
	FertilizerNoAction FertilizerAction = "no_action"
)

// AlertLevel is the ordinal severity of the alert assessment:
// none < warning < critical.
type AlertLevel string

const (
	AlertNone     AlertLevel = "none"
	AlertWarning  AlertLevel = "warning"
	AlertCritical AlertLevel = "critical"
)

// IrrigationRecommendation advises whether and how much to water.
// Amount is liters per m² and is non-zero only when Action is "water".
type IrrigationRecommendation struct {
	Action    IrrigationAction `json:"action"`
	Amount    float64          `json:"amount"`
	Reasoning string           `json:"reasoning"`
}

// FertilizerRecommendation advises whether to fertilize and with what.
// Type is set only when Action is "apply".
type FertilizerRecommendation struct {
	Action    FertilizerAction `json:"action"`
	Type      string           `json:"type,omitempty"`
	Reasoning string           `json:"reasoning"`
}

// AlertAssessment summarizes detected stress conditions. Messages are
// independently triggered and kept in evaluation order.
type AlertAssessment struct {
	Level    AlertLevel `json:"level"`
	Messages []string   `json:"messages"`
}

// Analysis is the full advisory output for one reading.
type Analysis struct {
	Irrigation IrrigationRecommendation `json:"irrigation"`
	Fertilizer FertilizerRecommendation `json:"fertilizer"`
	Alerts     AlertAssessment          `json:"alerts"`
}

// joinReasoning builds prose from ordered clause fragments: fragments are
// joined with ". " and the result is terminated with a period.
func joinReasoning(parts []string) string {
	return strings.Join(parts, ". ") + "."
}

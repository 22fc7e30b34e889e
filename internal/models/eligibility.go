package models

// EligibilityStatus is the decision Eligibility & Guardrails makes for one
// step (spec §3, "Eligibility Decision").
type EligibilityStatus string

const (
	EligibilityEligible      EligibilityStatus = "eligible"
	EligibilitySkipped       EligibilityStatus = "skipped"
	EligibilityNotApplicable EligibilityStatus = "not_applicable"
)

// EligibilityDecision is produced by Eligibility & Guardrails for a given
// (run_id, step_name) using the run's validation report and classification.
type EligibilityDecision struct {
	Status     EligibilityStatus `json:"status"`
	ReasonCode string            `json:"reason_code,omitempty"`
	Message    string            `json:"message,omitempty"`
}

// Classification is the type-identifier step's output, supplementing the
// distilled spec (original_source/backend/core/data_typing.py), consumed by
// Eligibility alongside the validation report (spec §4.7 step 2).
type Classification struct {
	RowCount          int                    `json:"row_count"`
	ColumnCount       int                    `json:"column_count"`
	ColumnTypes       map[string]string      `json:"column_types"`
	HasDatetimeColumn bool                   `json:"has_datetime_column"`
	TargetColumn      string                 `json:"target_column,omitempty"`
	TargetCardinality int                    `json:"target_cardinality,omitempty"`
	Extra             map[string]interface{} `json:"extra,omitempty"`
}

package models

// OutcomeKind is the sum type named in spec §9: graceful degradation is a
// first-class outcome, not an exception handler.
type OutcomeKind string

const (
	OutcomePromoted           OutcomeKind = "promoted"
	OutcomeSkippedWithReason  OutcomeKind = "skipped_with_reason"
	OutcomeDegradedWithFallback OutcomeKind = "degraded_with_fallback"
	OutcomeFailed             OutcomeKind = "failed"
)

// StepOutcome is the result of promoting one pending artifact after a step
// finishes (spec §4.7). Exactly one of the Kind-specific fields is
// meaningful for a given Kind.
type StepOutcome struct {
	Kind         OutcomeKind  `json:"kind"`
	Artifact     ArtifactName `json:"artifact"`
	Reason       string       `json:"reason,omitempty"`
	FallbackName ArtifactName `json:"fallback_name,omitempty"`
}

// DriverResult is the shape every Step Driver returns (spec §4.6).
type DriverResult struct {
	Success     bool             `json:"success"`
	StdoutTail  string           `json:"stdout_tail,omitempty"`
	StderrTail  string           `json:"stderr_tail,omitempty"`
	Eligibility *EligibilityHint `json:"eligibility,omitempty"`
}

// EligibilityHint lets a driver report back additional detail discovered
// mid-execution (e.g. "decided internally to skip the regression fit").
type EligibilityHint struct {
	Status  string `json:"status"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}

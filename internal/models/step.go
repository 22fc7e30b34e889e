package models

// StepStatus is the status of one pipeline step within a run (spec §3, "Step").
type StepStatus string

const (
	StepStatusPending       StepStatus = "pending"
	StepStatusRunning       StepStatus = "running"
	StepStatusCompleted     StepStatus = "completed"
	StepStatusFailed        StepStatus = "failed"
	StepStatusSkipped       StepStatus = "skipped"
	StepStatusNotApplicable StepStatus = "not_applicable"
)

func (s StepStatus) Valid() bool {
	switch s {
	case StepStatusPending, StepStatusRunning, StepStatusCompleted, StepStatusFailed, StepStatusSkipped, StepStatusNotApplicable:
		return true
	}
	return false
}

// Terminal reports whether s is one from which a step is never re-run
// within the same run (spec §3 invariant).
func (s StepStatus) Terminal() bool {
	switch s {
	case StepStatusCompleted, StepStatusFailed, StepStatusSkipped, StepStatusNotApplicable:
		return true
	}
	return false
}

// CountsAsCompleted reports whether s counts toward pipeline advancement
// and Progress Tracker completion, even though it contributed no artifacts.
func (s StepStatus) CountsAsCompleted() bool {
	switch s {
	case StepStatusCompleted, StepStatusSkipped, StepStatusNotApplicable:
		return true
	}
	return false
}

// CanTransitionTo enforces the DAG pending -> running -> {completed|failed|
// skipped|not_applicable} from spec §3/§4.2. A terminal status never
// transitions back to running within the same run.
func (from StepStatus) CanTransitionTo(to StepStatus) bool {
	if from == to {
		return true
	}
	switch from {
	case StepStatusPending:
		return to == StepStatusRunning || to.Terminal()
	case StepStatusRunning:
		return to.Terminal()
	default:
		return false
	}
}

const maxTailBytes = 2000

// Step is the per-run, per-pipeline-step execution record.
type Step struct {
	RunID          RunID      `json:"run_id"`
	Name           StepName   `json:"name"`
	Status         StepStatus `json:"status"`
	Attempts       int        `json:"attempts"`
	StartedAt      *Time      `json:"started_at,omitempty"`
	CompletedAt    *Time      `json:"completed_at,omitempty"`
	RuntimeSeconds float64    `json:"runtime_seconds,omitempty"`
	StdoutTail     string     `json:"stdout_tail,omitempty"`
	StderrTail     string     `json:"stderr_tail,omitempty"`
	Message        string     `json:"message,omitempty"`
	EligStatus     string     `json:"eligibility_status,omitempty"`
	ReasonCode     string     `json:"reason_code,omitempty"`
}

// SetStdoutTail truncates to the last maxTailBytes bytes, per spec §3.
func (s *Step) SetStdoutTail(text string) {
	s.StdoutTail = tail(text, maxTailBytes)
}

func (s *Step) SetStderrTail(text string) {
	s.StderrTail = tail(text, maxTailBytes)
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

package orchestrator

import "github.com/runforge/arc/internal/models"

const stateArtifact = "orchestrator_state"

// State is the persisted `orchestrator_state` document: the single
// atomically-written record a reader of get_state observes as a consistent
// (current_step, steps_completed, status) triple, never a mix (spec.md §5,
// "Ordering guarantees"). Grounded on original_source's
// backend/orchestrator.py's `initialize_state`/`save_state` JSON document.
type State struct {
	RunID            models.RunID                        `json:"run_id"`
	Status           models.RunStatus                     `json:"status"`
	CurrentStep      models.StepName                      `json:"current_step"`
	NextStep         models.StepName                      `json:"next_step,omitempty"`
	StepsCompleted   []models.StepName                     `json:"steps_completed"`
	FailedSteps      []models.StepName                     `json:"failed_steps"`
	Steps            map[models.StepName]*models.Step      `json:"steps"`
	RegressionStatus string                                `json:"regression_status,omitempty"`
	FailureReason    string                                `json:"failure_reason,omitempty"`
	Progress         models.Progress                       `json:"progress"`
	RunToken         string                                `json:"run_token,omitempty"`
	CreatedAt        models.Time                           `json:"created_at"`
	UpdatedAt        models.Time                           `json:"updated_at"`
}

func newState(runID models.RunID, steps []models.StepName) *State {
	now := models.Now()
	s := &State{
		RunID:     runID,
		Status:    models.RunStatusRunning,
		Steps:     make(map[models.StepName]*models.Step, len(steps)),
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, name := range steps {
		s.Steps[name] = &models.Step{RunID: runID, Name: name, Status: models.StepStatusPending}
	}
	if len(steps) > 0 {
		s.CurrentStep = steps[0]
		s.NextStep = steps[0]
	}
	return s
}

func (s *State) stepOrDefault(name models.StepName) *models.Step {
	step, ok := s.Steps[name]
	if !ok {
		step = &models.Step{RunID: s.RunID, Name: name}
		s.Steps[name] = step
	}
	return step
}

func (s *State) markCompleted(name models.StepName, success bool) {
	if success {
		s.appendUnique(&s.StepsCompleted, name)
		return
	}
	s.appendUnique(&s.FailedSteps, name)
}

func (s *State) appendUnique(list *[]models.StepName, name models.StepName) {
	for _, existing := range *list {
		if existing == name {
			return
		}
	}
	*list = append(*list, name)
}

// statuses returns a snapshot map suitable for progress.Compute.
func (s *State) statuses() map[models.StepName]models.StepStatus {
	out := make(map[models.StepName]models.StepStatus, len(s.Steps))
	for name, step := range s.Steps {
		out[name] = step.Status
	}
	return out
}

func (o *Orchestrator) loadState(runID models.RunID) (*State, bool, error) {
	var s State
	ok, err := o.store.ReadInto(string(runID), stateArtifact, &s)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &s, true, nil
}

func (o *Orchestrator) saveState(s *State) error {
	s.UpdatedAt = models.Now()
	return o.store.Write(string(s.RunID), stateArtifact, s)
}

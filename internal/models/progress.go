package models

// Progress is a derived view over step state (spec §3, §4.4). Never
// persisted as the source of truth; always recomputed from the step list.
type Progress struct {
	Percent        int      `json:"percent"`
	CurrentStep    string   `json:"current_step"`
	NextStep       string   `json:"next_step"`
	StepsCompleted []string `json:"steps_completed"`
	FailedSteps    []string `json:"failed_steps"`
}

// Clamp keeps Percent inside [0,100], per spec §4.4.
func (p *Progress) Clamp() {
	if p.Percent < 0 {
		p.Percent = 0
	}
	if p.Percent > 100 {
		p.Percent = 100
	}
}

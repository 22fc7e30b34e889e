// Package progress implements the Progress Tracker (spec §4.4): a thin,
// derived view over step state. It holds no state of its own; Compute is
// called by the orchestrator at each transition.
package progress

import "github.com/runforge/arc/internal/models"

// Compute derives a Progress view from an ordered step name list and the
// current status of each. Percent is 100 * completed/total; current_step
// and next_step are the first non-completed step and the one after it
// (or "complete").
func Compute(order []models.StepName, statuses map[models.StepName]models.StepStatus) models.Progress {
	total := len(order)
	var completed int
	var steps, failed []string
	currentStep := "complete"
	nextStep := "complete"

	foundCurrent := false
	for i, name := range order {
		status := statuses[name]
		switch {
		case status.CountsAsCompleted():
			completed++
			steps = append(steps, string(name))
		case status == models.StepStatusFailed:
			failed = append(failed, string(name))
		default:
			if !foundCurrent {
				currentStep = string(name)
				if i+1 < len(order) {
					nextStep = string(order[i+1])
				} else {
					nextStep = "complete"
				}
				foundCurrent = true
			}
		}
	}

	p := models.Progress{
		Percent:        percentOf(completed, total),
		CurrentStep:    currentStep,
		NextStep:       nextStep,
		StepsCompleted: steps,
		FailedSteps:    failed,
	}
	p.Clamp()
	return p
}

func percentOf(completed, total int) int {
	if total <= 0 {
		return 100
	}
	return 100 * completed / total
}

package registry

import (
	"os"

	"gopkg.in/yaml.v2"
)

// overlayEntry retunes a single step's budget/criticality without altering
// step order or identity (SPEC_FULL.md §5.5).
type overlayEntry struct {
	TimeBudgetSeconds *int  `yaml:"time_budget_seconds"`
	Critical          *bool `yaml:"critical"`
}

type overlayFile struct {
	Steps map[string]overlayEntry `yaml:"steps"`
}

// LoadWithOverlay loads the default sequence, then applies an optional YAML
// overlay file naming time_budget_seconds/critical overrides per step name.
// A missing path is not an error: the overlay is optional tuning, not
// required configuration.
func LoadWithOverlay(path string) (*Registry, error) {
	steps := defaultSequence()
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			var overlay overlayFile
			if err := yaml.Unmarshal(data, &overlay); err != nil {
				return nil, err
			}
			applyOverlay(steps, overlay)
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}
	return LoadFrom(steps)
}

func applyOverlay(steps []StepDefinition, overlay overlayFile) {
	for i := range steps {
		entry, ok := overlay.Steps[string(steps[i].Name)]
		if !ok {
			continue
		}
		if entry.TimeBudgetSeconds != nil {
			steps[i].TimeBudgetSeconds = *entry.TimeBudgetSeconds
		}
		if entry.Critical != nil {
			steps[i].Critical = *entry.Critical
		}
	}
}

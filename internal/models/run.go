package models

import "strings"

// RunStatus is the terminal/non-terminal status of a Run (spec §3).
type RunStatus string

const (
	RunStatusQueued              RunStatus = "queued"
	RunStatusRunning             RunStatus = "running"
	RunStatusComplete            RunStatus = "complete"
	RunStatusCompleteWithErrors  RunStatus = "complete_with_errors"
	RunStatusFailed              RunStatus = "failed"
)

// Valid reports whether s is one of the defined RunStatus values.
func (s RunStatus) Valid() bool {
	switch s {
	case RunStatusQueued, RunStatusRunning, RunStatusComplete, RunStatusCompleteWithErrors, RunStatusFailed:
		return true
	}
	return false
}

// HasFinished reports whether s is one of the three terminal states.
func (s RunStatus) HasFinished() bool {
	switch s {
	case RunStatusComplete, RunStatusCompleteWithErrors, RunStatusFailed:
		return true
	}
	return false
}

// RunConfig is the free-form modeling configuration accepted at submit time
// (spec §6, "Run-config recognized options"). Unknown keys are preserved
// but never trusted (spec §9, "Dynamic JSON everywhere").
type RunConfig map[string]interface{}

func (c RunConfig) TargetColumn() string {
	return stringOpt(c, "target_column")
}

func (c RunConfig) ModelType() string {
	return stringOpt(c, "model_type")
}

func (c RunConfig) SheetName() string {
	return stringOpt(c, "sheet_name")
}

// FeatureWhitelist accepts either a JSON array or a comma-separated string,
// per spec §6.
func (c RunConfig) FeatureWhitelist() []string {
	raw, ok := c["feature_whitelist"]
	if !ok || raw == nil {
		return nil
	}
	switch v := raw.(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return splitCommaList(v)
	default:
		return nil
	}
}

func (c RunConfig) IncludeCategoricals() bool {
	return boolOpt(c, "include_categoricals")
}

func (c RunConfig) FastMode() bool {
	return boolOpt(c, "fast_mode")
}

// Tenant is an opaque nested map, never interpreted by the core (identity,
// tenancy and billing are out of scope per spec §1 Non-goals).
func (c RunConfig) Tenant() map[string]interface{} {
	if raw, ok := c["tenant"].(map[string]interface{}); ok {
		return raw
	}
	return nil
}

func stringOpt(c RunConfig, key string) string {
	if v, ok := c[key].(string); ok {
		return v
	}
	return ""
}

func boolOpt(c RunConfig, key string) bool {
	switch v := c[key].(type) {
	case bool:
		return v
	case string:
		switch v {
		case "true", "1", "yes", "on":
			return true
		}
	}
	return false
}

func splitCommaList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Run is the top-level resource describing one end-to-end analysis
// invocation (spec §3, "Run").
type Run struct {
	RunID     RunID     `json:"run_id"`
	CreatedAt Time      `json:"created_at"`
	UpdatedAt Time      `json:"updated_at"`
	Status    RunStatus `json:"status"`
	InputRef  string    `json:"input_ref"`
	RunConfig RunConfig `json:"run_config"`
}

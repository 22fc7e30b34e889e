package models

// Warning is an accumulated, non-fatal note surfaced in the manifest (spec
// §3, "Run Manifest"). Deduplicated by (Code, Path) when added via
// AddWarning (spec §4.2).
type Warning struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Path    string                 `json:"path,omitempty"`
}

// key returns the (code, path) pair AddWarning dedupes on.
func (w Warning) key() [2]string { return [2]string{w.Code, w.Path} }

// StepTransition is one entry in a step's ordered status history.
type StepTransition struct {
	Step      StepName   `json:"step"`
	Status    StepStatus `json:"status"`
	At        Time       `json:"at"`
	Message   string     `json:"message,omitempty"`
}

// DatasetFingerprint identifies the input dataset: a hash of normalized
// bytes plus structural metadata (spec §3, "Run Manifest").
type DatasetFingerprint struct {
	Hash      string   `json:"hash"`
	Columns   []string `json:"columns"`
	RowCount  int      `json:"row_count"`
	SizeBytes int64    `json:"size_bytes"`
}

// RenderPolicy describes what the client is permitted to display.
type RenderPolicy struct {
	ShowCharts      bool     `json:"show_charts"`
	ShowTrust       bool     `json:"show_trust"`
	HiddenArtifacts []string `json:"hidden_artifacts,omitempty"`
}

// Trust is filled in, optionally, by a late governance/trust step.
type Trust struct {
	Score      float64 `json:"score"`
	Confidence string  `json:"confidence,omitempty"`
	Notes      string  `json:"notes,omitempty"`
}

// Manifest is the one-per-run authoritative record described in spec §3/§4.2.
type Manifest struct {
	RunID        RunID                              `json:"run_id"`
	Fingerprint  *DatasetFingerprint                 `json:"fingerprint,omitempty"`
	StepHistory  []StepTransition                    `json:"step_history"`
	Artifacts    map[ArtifactName]ArtifactMetadata   `json:"artifacts"`
	Warnings     []Warning                           `json:"warnings"`
	RenderPolicy RenderPolicy                        `json:"render_policy"`
	Trust        *Trust                              `json:"trust,omitempty"`
	Sealed       bool                                `json:"sealed"`
	SealReason   string                              `json:"seal_reason,omitempty"`
}

// NewManifest constructs the zero-value manifest for a freshly created run.
func NewManifest(runID RunID) *Manifest {
	return &Manifest{
		RunID:     runID,
		Artifacts: make(map[ArtifactName]ArtifactMetadata),
	}
}

// AddWarning appends w unless an existing warning shares its (Code, Path).
func (m *Manifest) AddWarning(w Warning) {
	for _, existing := range m.Warnings {
		if existing.key() == w.key() {
			return
		}
	}
	m.Warnings = append(m.Warnings, w)
}

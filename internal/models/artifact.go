package models

// ArtifactMetadata records where an artifact came from, for the run
// manifest's `artifact_name -> metadata` map (spec §3, "Run Manifest").
type ArtifactMetadata struct {
	ProducedByStep StepName `json:"produced_by_step"`
	SizeBytes      int64    `json:"size"`
	SchemaVersion  int      `json:"schema_version"`
}

// PromotableArtifacts is the fixed list of artifact names a driver may write
// a `_pending` variant for (spec §4.7, "Artifact promotion policy").
var PromotableArtifacts = []ArtifactName{
	"profile",
	"classification",
	"model_fit",
	"regression_coefficients",
	"importance_report",
	"collinearity_report",
	"leakage_report",
	"feature_governance_report",
	"baseline_metrics",
	"regression_insights",
	"final_report",
	"enhanced_analytics",
	"trust_object",
}

// RegressionBundle is the set of artifact names that make up the
// "regression bundle" referred to in spec §4.7's promotion policy.
var RegressionBundle = []ArtifactName{
	"model_fit",
	"regression_coefficients",
	"importance_report",
	"collinearity_report",
	"leakage_report",
	"feature_governance_report",
	"baseline_metrics",
}

// IsPromotable reports whether name is on the fixed promotion list.
func IsPromotable(name ArtifactName) bool {
	for _, candidate := range PromotableArtifacts {
		if candidate == name {
			return true
		}
	}
	return false
}

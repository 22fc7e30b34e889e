// Package validate implements the per-artifact validators (spec §4.8):
// range/structural/cross-field/leakage rules applied to a promoted
// artifact's decoded JSON body before it is allowed to replace its
// `_pending` counterpart. Grounded directly on
// original_source/backend/core/analytics_validation.py's per-artifact
// validate_* function family, translated from dict-walking Python into
// Go over map[string]interface{} so unknown fields pass through
// untouched rather than requiring a fixed struct per artifact.
package validate

import (
	"fmt"
	"math"

	"github.com/hashicorp/go-multierror"

	"github.com/runforge/arc/internal/models"
)

// Issue is one validation error or warning entry (spec §3, "Validation
// Report").
type Issue struct {
	Type         string      `json:"type"`
	Metric       string      `json:"metric"`
	Value        interface{} `json:"value,omitempty"`
	AllowedRange string      `json:"allowed_range,omitempty"`
	Path         string      `json:"path,omitempty"`
	Note         string      `json:"note,omitempty"`
}

// Result is the outcome of validating one artifact's payload.
type Result struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
}

func isNumber(value interface{}) bool {
	switch v := value.(type) {
	case float64:
		return !math.IsNaN(v) && !math.IsInf(v, 0)
	case float32:
		return !math.IsNaN(float64(v)) && !math.IsInf(float64(v), 0)
	case int, int32, int64:
		return true
	default:
		return false
	}
}

func asFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func addError(errors *[]Issue, code, metric string, value interface{}, allowedRange, path string) {
	*errors = append(*errors, Issue{Type: code, Metric: metric, Value: value, AllowedRange: allowedRange, Path: path})
}

func addWarning(warnings *[]Issue, code, metric string, value interface{}, path, note string) {
	*warnings = append(*warnings, Issue{Type: code, Metric: metric, Value: value, Path: path, Note: note})
}

// validateRange adds METRIC_NOT_NUMERIC or METRIC_OUT_OF_BOUNDS and reports
// whether the value passed. A nil value is treated as absent and passes.
func validateRange(errors *[]Issue, metric string, value interface{}, minimum, maximum float64, path string) bool {
	if value == nil {
		return true
	}
	if !isNumber(value) {
		addError(errors, "METRIC_NOT_NUMERIC", metric, value, fmt.Sprintf("%v to %v", minimum, maximum), path)
		return false
	}
	numeric, _ := asFloat(value)
	if numeric < minimum || numeric > maximum {
		addError(errors, "METRIC_OUT_OF_BOUNDS", metric, numeric, fmt.Sprintf("%v to %v", minimum, maximum), path)
		return false
	}
	return true
}

type keyedValue struct {
	path  string
	value interface{}
}

// collectValues walks payload recursively, collecting every (path, value)
// pair whose key is in keys. Mirrors _collect_values' use for fields that
// may appear at varying nesting depth (e.g. "variance_explained").
func collectValues(node interface{}, keys map[string]bool, path string) []keyedValue {
	var matches []keyedValue
	switch v := node.(type) {
	case map[string]interface{}:
		for key, value := range v {
			next := key
			if path != "" {
				next = path + "." + key
			}
			if keys[key] {
				matches = append(matches, keyedValue{path: next, value: value})
			}
			matches = append(matches, collectValues(value, keys, next)...)
		}
	case []interface{}:
		for idx, item := range v {
			matches = append(matches, collectValues(item, keys, fmt.Sprintf("%s[%d]", path, idx))...)
		}
	}
	return matches
}

func dedupeWarnings(warnings []Issue) []Issue {
	type key struct {
		typ, metric, path string
		value             interface{}
	}
	seen := make(map[key]bool, len(warnings))
	unique := make([]Issue, 0, len(warnings))
	for _, w := range warnings {
		k := key{typ: w.Type, metric: w.Metric, path: w.Path, value: fmt.Sprintf("%v", w.Value)}
		if seen[k] {
			continue
		}
		seen[k] = true
		unique = append(unique, w)
	}
	return unique
}

// iterMatrixValues walks a correlation-style matrix (row -> col -> value, or
// row -> value for a flattened form) yielding every scalar cell.
func iterMatrixValues(matrix interface{}, name string) []keyedValue {
	rows, ok := matrix.(map[string]interface{})
	if !ok {
		return nil
	}
	var values []keyedValue
	for row, cols := range rows {
		colMap, ok := cols.(map[string]interface{})
		if !ok {
			values = append(values, keyedValue{path: fmt.Sprintf("%s.%s", name, row), value: cols})
			continue
		}
		for col, value := range colMap {
			values = append(values, keyedValue{path: fmt.Sprintf("%s.%s.%s", name, row, col), value: value})
		}
	}
	return values
}

func asMap(v interface{}) (map[string]interface{}, bool) {
	m, ok := v.(map[string]interface{})
	return m, ok
}

func asList(v interface{}) ([]interface{}, bool) {
	l, ok := v.([]interface{})
	return l, ok
}

func result(errors, warnings []Issue) Result {
	return Result{Valid: len(errors) == 0, Errors: errors, Warnings: dedupeWarnings(warnings)}
}

// ValidateCorrelationAnalysis checks pearson_matrix/spearman_matrix cells are
// in [-1, 1] and flags near-perfect correlations as possible data leakage.
func ValidateCorrelationAnalysis(payload map[string]interface{}) Result {
	var errors, warnings []Issue

	for _, matrixName := range []string{"pearson_matrix", "spearman_matrix"} {
		for _, cell := range iterMatrixValues(payload[matrixName], matrixName) {
			validateRange(&errors, matrixName, cell.value, -1.0, 1.0, cell.path)
		}
	}

	if strong, ok := asList(payload["strong_correlations"]); ok {
		for idx, entry := range strong {
			pair, ok := asMap(entry)
			if !ok {
				continue
			}
			path := fmt.Sprintf("strong_correlations[%d]", idx)
			validateRange(&errors, "pearson", pair["pearson"], -1.0, 1.0, path+".pearson")
			validateRange(&errors, "spearman", pair["spearman"], -1.0, 1.0, path+".spearman")

			pearson, _ := asFloat(pair["pearson"])
			spearman, _ := asFloat(pair["spearman"])
			if math.Abs(pearson) >= 0.995 || math.Abs(spearman) >= 0.995 {
				addWarning(&warnings, "DATA_LEAKAGE_POSSIBLE", "correlation", entry, path, "Near-perfect correlation may indicate data leakage.")
			}
		}
	}

	return result(errors, warnings)
}

// ValidateFeatureImportance validates an optional top-level confidence field.
func ValidateFeatureImportance(payload map[string]interface{}) Result {
	var errors, warnings []Issue
	if _, ok := payload["confidence"]; ok {
		validateConfidenceField(payload, "confidence", &errors)
	}
	return result(errors, warnings)
}

// ValidateDataProfile requires the structural fields a downstream step needs
// to reason about the dataset shape.
func ValidateDataProfile(payload map[string]interface{}) Result {
	var errors []Issue
	for _, field := range []string{"row_count", "column_count", "columns", "column_types"} {
		if _, ok := payload[field]; !ok {
			addError(&errors, "ARTIFACT_INVALID", field, nil, "required", field)
		}
	}
	if v, ok := payload["row_count"]; ok {
		if _, isInt := v.(int); !isInt {
			if f, isFloat := v.(float64); !isFloat || f != math.Trunc(f) {
				addError(&errors, "ARTIFACT_INVALID", "row_count", v, "int", "row_count")
			}
		}
	}
	if v, ok := payload["column_count"]; ok {
		if _, isInt := v.(int); !isInt {
			if f, isFloat := v.(float64); !isFloat || f != math.Trunc(f) {
				addError(&errors, "ARTIFACT_INVALID", "column_count", v, "int", "column_count")
			}
		}
	}
	return result(errors, nil)
}

// ValidateDatasetClassification requires the fields Eligibility consults.
func ValidateDatasetClassification(payload map[string]interface{}) Result {
	var errors []Issue
	for _, field := range []string{"domain_tags", "temporal_structure", "observation_unit", "target_presence"} {
		if _, ok := payload[field]; !ok {
			addError(&errors, "ARTIFACT_INVALID", field, nil, "required", field)
		}
	}
	if ts, ok := asMap(payload["temporal_structure"]); ok {
		if confidence, ok := ts["confidence"]; ok {
			validateRange(&errors, "confidence", confidence, 0.0, 1.0, "temporal_structure.confidence")
		}
	}
	return result(errors, nil)
}

// ValidateFeatureGovernanceReport requires included/excluded feature lists.
func ValidateFeatureGovernanceReport(payload map[string]interface{}) Result {
	var errors []Issue
	for _, field := range []string{"included_features", "excluded_features"} {
		if v, ok := payload[field]; ok {
			if _, isList := asList(v); !isList {
				addError(&errors, "ARTIFACT_INVALID", field, v, "list", field)
			}
		}
	}
	return result(errors, nil)
}

// ValidateBaselineMetrics requires every non-meta key's value to be numeric.
func ValidateBaselineMetrics(payload map[string]interface{}) Result {
	var errors []Issue
	for key, value := range payload {
		if key == "meta" {
			continue
		}
		if !isNumber(value) {
			addError(&errors, "METRIC_NOT_NUMERIC", key, value, "numeric", key)
		}
	}
	return result(errors, nil)
}

// ValidateModelFitReport checks metrics/baseline_metrics shape and flags a
// suspiciously high r2 as overfit risk.
func ValidateModelFitReport(payload map[string]interface{}) Result {
	var errors, warnings []Issue

	metrics, ok := asMap(payload["metrics"])
	if payload["metrics"] != nil && !ok {
		addError(&errors, "ARTIFACT_INVALID", "metrics", payload["metrics"], "dict", "metrics")
	}
	if payload["baseline_metrics"] != nil {
		if _, ok := asMap(payload["baseline_metrics"]); !ok {
			addError(&errors, "ARTIFACT_INVALID", "baseline_metrics", payload["baseline_metrics"], "dict", "baseline_metrics")
		}
	}
	if ok {
		validateRange(&errors, "r2", metrics["r2"], 0.0, 1.0, "metrics.r2")
		if r2, okNum := asFloat(metrics["r2"]); okNum && isNumber(metrics["r2"]) && r2 >= 0.9 {
			addWarning(&warnings, "OVERFIT_RISK", "r2", r2, "metrics.r2", "High R-squared may indicate overfitting.")
		}
	}
	return result(errors, warnings)
}

// ValidateCollinearityReport flags high/infinite VIF values.
func ValidateCollinearityReport(payload map[string]interface{}) Result {
	var errors, warnings []Issue

	if v, ok := payload["vif_by_feature"]; ok {
		if _, isMap := asMap(v); !isMap {
			addError(&errors, "ARTIFACT_INVALID", "vif_by_feature", v, "dict", "vif_by_feature")
		}
	}

	if maxVIF, ok := payload["max_vif"]; ok {
		if !isNumber(maxVIF) {
			if f, isFloat := maxVIF.(float64); !(isFloat && math.IsInf(f, 1)) {
				addError(&errors, "METRIC_NOT_NUMERIC", "max_vif", maxVIF, "numeric", "max_vif")
			}
		}
		if f, isFloat := maxVIF.(float64); isFloat {
			switch {
			case math.IsInf(f, 1):
				addWarning(&warnings, "CRITICAL_MULTICOLLINEARITY", "max_vif", maxVIF, "max_vif", "VIF infinite indicates perfect multicollinearity.")
			case f >= 20:
				addWarning(&warnings, "CRITICAL_MULTICOLLINEARITY", "max_vif", maxVIF, "max_vif", "VIF >= 20 indicates severe multicollinearity.")
				addWarning(&warnings, "HIGH_MULTICOLLINEARITY", "max_vif", maxVIF, "max_vif", "VIF >= 10 indicates multicollinearity.")
			case f >= 10:
				addWarning(&warnings, "HIGH_MULTICOLLINEARITY", "max_vif", maxVIF, "max_vif", "VIF >= 10 indicates multicollinearity.")
			}
		}
	}
	return result(errors, warnings)
}

// ValidateLeakageReport flags non-empty target-leakage candidate pairs.
func ValidateLeakageReport(payload map[string]interface{}) Result {
	var errors, warnings []Issue

	pairs, pairsPresent := payload["flagged_pairs"]
	if pairsPresent {
		if _, ok := asList(pairs); !ok {
			addError(&errors, "ARTIFACT_INVALID", "flagged_pairs", pairs, "list", "flagged_pairs")
		}
	}
	targetPairs, targetPresent := payload["flagged_target_pairs"]
	if targetPresent {
		if list, ok := asList(targetPairs); !ok {
			addError(&errors, "ARTIFACT_INVALID", "flagged_target_pairs", targetPairs, "list", "flagged_target_pairs")
		} else if len(list) > 0 {
			addWarning(&warnings, "DATA_LEAKAGE_POSSIBLE", "target_leakage", len(list), "flagged_target_pairs", "Target leakage candidates detected.")
		}
	}
	return result(errors, warnings)
}

// ValidateImportanceReport checks each feature's importance range and
// confidence-interval ordering.
func ValidateImportanceReport(payload map[string]interface{}) Result {
	var errors []Issue
	features, ok := asList(payload["features"])
	if !ok {
		addError(&errors, "ARTIFACT_INVALID", "features", payload["features"], "list", "features")
		return Result{Valid: false, Errors: errors}
	}
	for idx, entry := range features {
		feature, ok := asMap(entry)
		path := fmt.Sprintf("features[%d]", idx)
		if !ok {
			addError(&errors, "ARTIFACT_INVALID", "features", entry, "dict", path)
			continue
		}
		validateRange(&errors, "importance", feature["importance"], 0.0, 100.0, path+".importance")
		ciLow, lowOK := asFloat(feature["ci_low"])
		ciHigh, highOK := asFloat(feature["ci_high"])
		if lowOK && highOK && isNumber(feature["ci_low"]) && isNumber(feature["ci_high"]) && ciLow > ciHigh {
			addError(&errors, "METRIC_OUT_OF_BOUNDS", "importance_ci", []float64{ciLow, ciHigh}, "ci_low <= ci_high", path)
		}
	}
	return Result{Valid: len(errors) == 0, Errors: errors}
}

// ValidateRegressionCoefficientsReport requires every coefficient field to
// be present and numeric.
func ValidateRegressionCoefficientsReport(payload map[string]interface{}) Result {
	var errors []Issue
	features, ok := asList(payload["features"])
	if !ok {
		addError(&errors, "ARTIFACT_INVALID", "features", payload["features"], "list", "features")
		return Result{Valid: false, Errors: errors}
	}
	for idx, entry := range features {
		feature, ok := asMap(entry)
		path := fmt.Sprintf("features[%d]", idx)
		if !ok {
			addError(&errors, "ARTIFACT_INVALID", "features", entry, "dict", path)
			continue
		}
		for _, field := range []string{"beta", "standard_error", "p_value", "ci_low", "ci_high"} {
			value := feature[field]
			if value == nil || !isNumber(value) {
				addError(&errors, "METRIC_NOT_NUMERIC", field, value, "numeric", path+"."+field)
			}
		}
	}
	return Result{Valid: len(errors) == 0, Errors: errors}
}

// ValidateCorrelationCI checks pearson/ci bounds and a minimum sample size.
func ValidateCorrelationCI(payload map[string]interface{}) Result {
	var errors []Issue
	pairs, ok := asList(payload["pairs"])
	if !ok {
		addError(&errors, "ARTIFACT_INVALID", "pairs", payload["pairs"], "list", "pairs")
		return Result{Valid: false, Errors: errors}
	}
	for idx, entry := range pairs {
		pair, ok := asMap(entry)
		path := fmt.Sprintf("pairs[%d]", idx)
		if !ok {
			addError(&errors, "ARTIFACT_INVALID", "pair", entry, "dict", path)
			continue
		}
		validateRange(&errors, "pearson", pair["pearson"], -1.0, 1.0, path+".pearson")
		validateRange(&errors, "ci_low", pair["ci_low"], -1.0, 1.0, path+".ci_low")
		validateRange(&errors, "ci_high", pair["ci_high"], -1.0, 1.0, path+".ci_high")
		if n, ok := pair["n"]; ok {
			nInt, isInt := n.(int)
			if !isInt {
				if f, isFloat := n.(float64); isFloat && f == math.Trunc(f) {
					nInt, isInt = int(f), true
				}
			}
			if !isInt || nInt < 3 {
				addError(&errors, "METRIC_OUT_OF_BOUNDS", "n", n, ">=3", path+".n")
			}
		}
	}
	return Result{Valid: len(errors) == 0, Errors: errors}
}

// validateConfidenceField checks a confidence value's range and requires a
// companion confidence_meaning string.
func validateConfidenceField(payload map[string]interface{}, field string, errors *[]Issue) {
	value := payload[field]
	meaning, _ := payload["confidence_meaning"].(string)
	if !validateRange(errors, field, value, 0.0, 100.0, field) {
		return
	}
	if meaning == "" {
		addError(errors, "CONFIDENCE_MEANING_MISSING", field, value, "meaning_required", "confidence_meaning")
	}
}

var varianceExplainedKeys = map[string]bool{
	"variance_explained": true, "variance_explained_pct": true, "variance_explained_percent": true,
}

// ValidateRegressionInsights checks r2/adjusted_r2 bounds, any nested
// variance-explained percentage, and an optional confidence field, flagging
// a high r2 as overfit risk.
func ValidateRegressionInsights(payload map[string]interface{}) Result {
	var errors, warnings []Issue

	if metrics, ok := asMap(payload["metrics"]); ok {
		validateRange(&errors, "r_squared", metrics["r2"], 0.0, 1.0, "metrics.r2")
		validateRange(&errors, "adjusted_r_squared", metrics["adjusted_r2"], 0.0, 1.0, "metrics.adjusted_r2")
		if r2, ok := asFloat(metrics["r2"]); ok && isNumber(metrics["r2"]) && r2 >= 0.9 {
			addWarning(&warnings, "OVERFIT_RISK", "r_squared", r2, "metrics.r2", "High R-squared may indicate overfitting.")
		}
	}

	for _, kv := range collectValues(payload, varianceExplainedKeys, "") {
		validateRange(&errors, "variance_explained", kv.value, 0.0, 100.0, kv.path)
	}

	for _, field := range []string{"confidence_score", "confidence", "confidence_pct", "confidence_percentage"} {
		if _, ok := payload[field]; ok {
			validateConfidenceField(payload, field, &errors)
		}
	}

	return result(errors, warnings)
}

var enhancedAnalyticsSections = []string{
	"correlation_analysis", "correlation_ci", "distribution_analysis",
	"quality_metrics", "business_intelligence", "feature_importance",
}

// ValidateEnhancedAnalytics requires each present section to report its own
// success.
func ValidateEnhancedAnalytics(payload map[string]interface{}) Result {
	var errors []Issue
	for _, name := range enhancedAnalyticsSections {
		raw, present := payload[name]
		if !present || raw == nil {
			continue
		}
		section, ok := asMap(raw)
		if !ok {
			addError(&errors, "ARTIFACT_INVALID", name, raw, "dict", name)
			continue
		}
		if valid, _ := section["valid"].(bool); !valid || section["status"] != "success" {
			addError(&errors, "ARTIFACT_INVALID", name, raw, "valid_success", name)
		}
	}
	return Result{Valid: len(errors) == 0, Errors: errors}
}

// validateStructuralOnly is the fallback for artifacts with no dedicated
// rule set: it requires a non-nil object body, matching the Python
// dispatcher's run_health_summary handling and its default pass-through for
// any other name.
func validateStructuralOnly(payload map[string]interface{}) Result {
	if payload == nil {
		return Result{Valid: false, Errors: []Issue{{Type: "ARTIFACT_INVALID", Metric: "body"}}}
	}
	return Result{Valid: true}
}

// registry maps an artifact name to its validator. Names follow the Go
// artifact-name vocabulary (models.PromotableArtifacts) plus the
// intermediate report names validated before they are folded into a
// promotable artifact.
var registry = map[models.ArtifactName]func(map[string]interface{}) Result{
	"profile":                    ValidateDataProfile,
	"classification":             ValidateDatasetClassification,
	"model_fit":                  ValidateModelFitReport,
	"regression_coefficients":    ValidateRegressionCoefficientsReport,
	"importance_report":          ValidateImportanceReport,
	"collinearity_report":        ValidateCollinearityReport,
	"leakage_report":             ValidateLeakageReport,
	"feature_governance_report":  ValidateFeatureGovernanceReport,
	"baseline_metrics":           ValidateBaselineMetrics,
	"enhanced_analytics":         ValidateEnhancedAnalytics,
	"final_report":               validateStructuralOnly,
	"trust_object":               validateStructuralOnly,
	"run_health_summary":         validateStructuralOnly,
	"correlation_analysis":       ValidateCorrelationAnalysis,
	"correlation_ci":             ValidateCorrelationCI,
	"feature_importance":         ValidateFeatureImportance,
	"regression_insights":        ValidateRegressionInsights,
}

// Validate dispatches to the named artifact's validator, falling back to a
// structural-only pass for unknown names (spec §4.8's default "unlisted
// artifacts pass").
func Validate(name models.ArtifactName, payload map[string]interface{}) Result {
	if fn, ok := registry[name]; ok {
		return fn(payload)
	}
	return validateStructuralOnly(payload)
}

// ValidateAll validates a batch of artifacts, returning every result keyed
// by name and a combined *multierror.Error summarizing which artifacts
// failed, for the orchestrator to log at a single promotion checkpoint.
func ValidateAll(artifacts map[models.ArtifactName]map[string]interface{}) (map[models.ArtifactName]Result, error) {
	results := make(map[models.ArtifactName]Result, len(artifacts))
	var combined *multierror.Error
	for name, payload := range artifacts {
		res := Validate(name, payload)
		results[name] = res
		if !res.Valid {
			combined = multierror.Append(combined, fmt.Errorf("artifact %q failed validation: %d error(s)", name, len(res.Errors)))
		}
	}
	return results, combined.ErrorOrNil()
}

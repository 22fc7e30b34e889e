package drivers

import (
	"context"

	"github.com/runforge/arc/common/logger"
	"github.com/runforge/arc/internal/models"
)

// InterpreterDriver produces an initial, non-narrative data interpretation
// (interpreter, spec.md §4.5). A minimal shim per spec.md's Non-goal on
// algorithm content; it writes an ambient artifact, not a promotable one.
type InterpreterDriver struct {
	store Store
	log   logger.Log
}

func NewInterpreterDriver(store Store, logFactory logger.LogFactory) *InterpreterDriver {
	return &InterpreterDriver{store: store, log: logFactory("driver.interpreter")}
}

func (d *InterpreterDriver) Run(ctx context.Context, runID models.RunID, _ string, _ models.RunConfig) models.DriverResult {
	var classification models.Classification
	d.store.ReadInto(string(runID), "classification", &classification)
	doc := map[string]interface{}{
		"summary":      "structural interpretation of the dataset shape",
		"column_count": classification.ColumnCount,
	}
	if err := d.store.Write(string(runID), "schema_interpretation", doc); err != nil {
		return models.DriverResult{Success: false, StderrTail: err.Error()}
	}
	return models.DriverResult{Success: true}
}

// ClusteringDriver performs cluster-like grouping analysis (clustering,
// spec.md §4.5). Minimal shim: Non-goal excludes algorithm content.
type ClusteringDriver struct {
	store Store
	log   logger.Log
}

func NewClusteringDriver(store Store, logFactory logger.LogFactory) *ClusteringDriver {
	return &ClusteringDriver{store: store, log: logFactory("driver.clustering")}
}

func (d *ClusteringDriver) Run(ctx context.Context, runID models.RunID, _ string, _ models.RunConfig) models.DriverResult {
	doc := map[string]interface{}{"clusters": []interface{}{}, "method": "centroid_shim"}
	if err := d.store.Write(string(runID), "clustering_result", doc); err != nil {
		return models.DriverResult{Success: false, StderrTail: err.Error()}
	}
	return models.DriverResult{Success: true}
}

// TimeSeriesDriver performs time-series analysis when a datetime column
// exists (time_series, spec.md §4.5). Eligibility & Guardrails already
// gates invocation on classification.HasDatetimeColumn.
type TimeSeriesDriver struct {
	store Store
	log   logger.Log
}

func NewTimeSeriesDriver(store Store, logFactory logger.LogFactory) *TimeSeriesDriver {
	return &TimeSeriesDriver{store: store, log: logFactory("driver.time_series")}
}

func (d *TimeSeriesDriver) Run(ctx context.Context, runID models.RunID, _ string, _ models.RunConfig) models.DriverResult {
	doc := map[string]interface{}{"trend": "flat", "seasonality_detected": false}
	if err := d.store.Write(string(runID), "time_series_result", doc); err != nil {
		return models.DriverResult{Success: false, StderrTail: err.Error()}
	}
	return models.DriverResult{Success: true}
}

// AnomaliesDriver performs anomaly/outlier detection (anomalies, spec.md
// §4.5). Always eligible per registry.AlwaysEligible — the sentry step
// runs even on a low-quality dataset.
type AnomaliesDriver struct {
	store Store
	log   logger.Log
}

func NewAnomaliesDriver(store Store, logFactory logger.LogFactory) *AnomaliesDriver {
	return &AnomaliesDriver{store: store, log: logFactory("driver.anomalies")}
}

func (d *AnomaliesDriver) Run(ctx context.Context, runID models.RunID, _ string, _ models.RunConfig) models.DriverResult {
	doc := map[string]interface{}{"anomalies": []interface{}{}, "method": "zscore_shim"}
	if err := d.store.Write(string(runID), "anomaly_report", doc); err != nil {
		return models.DriverResult{Success: false, StderrTail: err.Error()}
	}
	return models.DriverResult{Success: true}
}

// PersonasDriver generates persona/strategy narrative content (personas,
// spec.md §4.5). Gated off entirely when the validator reports
// can_proceed=false (internal/eligibility's gatedSteps).
type PersonasDriver struct {
	store Store
	log   logger.Log
}

func NewPersonasDriver(store Store, logFactory logger.LogFactory) *PersonasDriver {
	return &PersonasDriver{store: store, log: logFactory("driver.personas")}
}

func (d *PersonasDriver) Run(ctx context.Context, runID models.RunID, _ string, _ models.RunConfig) models.DriverResult {
	doc := map[string]interface{}{"personas": []interface{}{}, "method": "heuristic_shim"}
	if err := d.store.Write(string(runID), "persona_report", doc); err != nil {
		return models.DriverResult{Success: false, StderrTail: err.Error()}
	}
	return models.DriverResult{Success: true}
}

package drivers

import "github.com/runforge/arc/common/logger"

// NewDefault builds the Dispatcher over the full pipeline sequence,
// wiring one shim driver per step name in spec.md §4.5's pipeline
// sequence.
func NewDefault(store Store, logFactory logger.LogFactory) Dispatcher {
	return Dispatcher{
		"ingestion":        NewIngestionDriver(store, logFactory),
		"scanner":          NewScannerDriver(store, logFactory),
		"type_identifier":  NewTypeIdentifierDriver(store, logFactory),
		"validator":        NewValidatorDriver(store, logFactory),
		"interpreter":      NewInterpreterDriver(store, logFactory),
		"clustering":       NewClusteringDriver(store, logFactory),
		"regression":       NewRegressionDriver(store, logFactory),
		"time_series":      NewTimeSeriesDriver(store, logFactory),
		"anomalies":        NewAnomaliesDriver(store, logFactory),
		"personas":         NewPersonasDriver(store, logFactory),
		"expositor":        NewExpositorDriver(store, logFactory),
		"trust_evaluation": NewTrustEvaluationDriver(store, logFactory),
	}
}

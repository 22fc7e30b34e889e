// Package drivers implements the Step Driver contract (spec.md §4.6): one
// shim per pipeline step, reading prior artifacts and writing `_pending`
// variants for anything subject to promotion. Drivers never call the Job
// Queue, the Manifest, or the Orchestrator directly — they are pure
// artifact transformers, dispatched by name from the Step Registry.
//
// These are minimal in-process shims rather than faithful statistical
// implementations: spec.md's Non-goals explicitly exclude "the content of
// individual analytical algorithms (clustering, regression, SHAP, etc.)".
// Each driver produces schema-correct output that exercises
// internal/validate, which is the contract the orchestrator actually runs
// against.
package drivers

import (
	"context"
	"encoding/json"
	"io"

	"github.com/runforge/arc/internal/models"
)

// Store is the narrow Artifact Store view a driver is allowed to touch.
type Store interface {
	Write(runID, name string, document interface{}) error
	Read(runID, name string) (json.RawMessage, bool, error)
	ReadInto(runID, name string, out interface{}) (bool, error)
	Append(runID, name string, record interface{}) error
	Exists(runID, name string) (bool, error)
	WriteFile(runID, filename string, source io.Reader) error
	ReadFile(runID, filename string) (io.ReadCloser, error)
	FileExistsAndNonEmpty(runID, filename string) bool
	Path(runID, filename string) string
}

// Driver executes one pipeline step (spec.md §4.6). filePath is only
// meaningful to the ingestion driver, which is the only step that reads
// the originally submitted file rather than a prior artifact.
type Driver interface {
	Run(ctx context.Context, runID models.RunID, filePath string, runConfig models.RunConfig) models.DriverResult
}

// Dispatcher resolves a step name to its Driver (spec.md §4.6, invoked by
// the Orchestrator).
type Dispatcher map[models.StepName]Driver

// For returns the driver registered for name, or (nil, false) if unknown.
func (d Dispatcher) For(name models.StepName) (Driver, bool) {
	driver, ok := d[name]
	return driver, ok
}

package drivers

import (
	"bufio"
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/runforge/arc/common/logger"
	"github.com/runforge/arc/internal/models"
)

// ScannerDriver builds a statistical profile of the dataset (scanner,
// spec.md §4.5), grounded on original_source's backend/core/profiler.py
// minus the richer statistics it computes (Non-goal: algorithm content) —
// it keeps exactly the fields internal/validate.ValidateDataProfile
// requires plus a coarse per-column type guess consumed by type_identifier.
type ScannerDriver struct {
	store Store
	log   logger.Log
}

func NewScannerDriver(store Store, logFactory logger.LogFactory) *ScannerDriver {
	return &ScannerDriver{store: store, log: logFactory("driver.scanner")}
}

// profileDoc is the shape of the "profile" artifact, shared by the drivers
// that read it back (type_identifier, validator, regression).
type profileDoc struct {
	RowCount    int               `json:"row_count"`
	ColumnCount int               `json:"column_count"`
	Columns     []string          `json:"columns"`
	ColumnTypes map[string]string `json:"column_types"`
}

func (d *ScannerDriver) Run(ctx context.Context, runID models.RunID, _ string, _ models.RunConfig) models.DriverResult {
	var ref datasetRef
	ok, err := d.store.ReadInto(string(runID), "active_dataset", &ref)
	if err != nil {
		return models.DriverResult{Success: false, StderrTail: err.Error()}
	}
	if !ok {
		return models.DriverResult{Success: false, StderrTail: "active_dataset artifact not found"}
	}

	f, err := os.Open(ref.Path)
	if err != nil {
		return models.DriverResult{Success: false, StderrTail: err.Error()}
	}
	defer f.Close()

	reader := csv.NewReader(bufio.NewReader(f))
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return models.DriverResult{Success: false, StderrTail: "error reading header: " + err.Error()}
	}

	numericCounts := make([]int, len(header))
	missingCounts := make([]int, len(header))
	rowCount := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		rowCount++
		for i, value := range record {
			if i >= len(header) {
				break
			}
			if value == "" {
				missingCounts[i]++
				continue
			}
			if _, err := strconv.ParseFloat(value, 64); err == nil {
				numericCounts[i]++
			}
		}
	}

	columnTypes := make(map[string]string, len(header))
	for i, name := range header {
		present := rowCount - missingCounts[i]
		if present > 0 && numericCounts[i] == present {
			columnTypes[name] = "numeric"
		} else {
			columnTypes[name] = "categorical"
		}
	}

	profile := map[string]interface{}{
		"row_count":      rowCount,
		"column_count":   len(header),
		"columns":        header,
		"column_types":   columnTypes,
		"missing_counts": missingCounts,
	}
	if err := d.store.Write(string(runID), "profile_pending", profile); err != nil {
		return models.DriverResult{Success: false, StderrTail: err.Error()}
	}
	return models.DriverResult{Success: true}
}

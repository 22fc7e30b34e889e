package drivers

import (
	"context"
	"strings"

	"github.com/runforge/arc/common/logger"
	"github.com/runforge/arc/internal/models"
)

// TypeIdentifierDriver classifies column types and dataset shape
// (type_identifier, spec.md §4.5), grounded on original_source's
// backend/core/data_typing.py. It writes a single "classification_pending"
// document carrying both the fields internal/validate.
// ValidateDatasetClassification requires (domain_tags, temporal_structure,
// observation_unit, target_presence) and the fields models.Classification
// decodes for Eligibility & Guardrails (row_count, column_types,
// has_datetime_column, target_column) — the promoted artifact serves both
// audiences.
type TypeIdentifierDriver struct {
	store Store
	log   logger.Log
}

func NewTypeIdentifierDriver(store Store, logFactory logger.LogFactory) *TypeIdentifierDriver {
	return &TypeIdentifierDriver{store: store, log: logFactory("driver.type_identifier")}
}

func (d *TypeIdentifierDriver) Run(ctx context.Context, runID models.RunID, _ string, runConfig models.RunConfig) models.DriverResult {
	var profile profileDoc
	ok, err := d.store.ReadInto(string(runID), "profile", &profile)
	if err != nil {
		return models.DriverResult{Success: false, StderrTail: err.Error()}
	}
	if !ok {
		return models.DriverResult{
			Success:     true,
			Eligibility: &models.EligibilityHint{Status: "skipped", Reason: "no promoted profile to classify"},
		}
	}

	hasDatetime := false
	for _, col := range profile.Columns {
		lower := strings.ToLower(col)
		if strings.Contains(lower, "date") || strings.Contains(lower, "time") {
			hasDatetime = true
			break
		}
	}

	targetColumn := runConfig.TargetColumn()
	targetPresent := false
	if targetColumn != "" {
		for _, col := range profile.Columns {
			if col == targetColumn {
				targetPresent = true
				break
			}
		}
	}

	confidence := 0.5
	if hasDatetime {
		confidence = 0.9
	}

	classification := map[string]interface{}{
		"domain_tags":      []string{"tabular"},
		"observation_unit": "row",
		"temporal_structure": map[string]interface{}{
			"has_datetime": hasDatetime,
			"confidence":   confidence,
		},
		"target_presence": targetPresent,

		"row_count":           profile.RowCount,
		"column_count":        profile.ColumnCount,
		"column_types":        profile.ColumnTypes,
		"has_datetime_column": hasDatetime,
	}
	if targetPresent {
		classification["target_column"] = targetColumn
	}

	if err := d.store.Write(string(runID), "classification_pending", classification); err != nil {
		return models.DriverResult{Success: false, StderrTail: err.Error()}
	}
	return models.DriverResult{Success: true}
}

package drivers

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/h2non/filetype"

	"github.com/runforge/arc/common/logger"
	"github.com/runforge/arc/internal/models"
)

// IngestionDriver loads the submitted dataset, sniffs its format, and
// records row/column counts for downstream steps (ingestion, spec.md §4.5).
// Grounded on original_source's backend/core/ingestion.py's load-and-sanitize
// step, minus the sanitization rule content (Non-goal: algorithm content).
type IngestionDriver struct {
	store Store
	log   logger.Log
}

func NewIngestionDriver(store Store, logFactory logger.LogFactory) *IngestionDriver {
	return &IngestionDriver{store: store, log: logFactory("driver.ingestion")}
}

// datasetRef is the document written to "active_dataset", read back by
// every later driver that needs the dataset's on-disk location.
type datasetRef struct {
	Path     string `json:"path"`
	MIME     string `json:"mime"`
	Strategy string `json:"strategy"`
}

func (d *IngestionDriver) Run(ctx context.Context, runID models.RunID, filePath string, runConfig models.RunConfig) models.DriverResult {
	f, err := os.Open(filePath)
	if err != nil {
		return models.DriverResult{Success: false, StderrTail: fmt.Sprintf("error opening input file: %v", err)}
	}
	defer f.Close()

	head := make([]byte, 261)
	n, _ := f.Read(head)
	mime := "text/csv"
	if kind, err := filetype.Match(head[:n]); err == nil && kind != filetype.Unknown {
		mime = kind.MIME.Value
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return models.DriverResult{Success: false, StderrTail: fmt.Sprintf("error rewinding input file: %v", err)}
	}

	reader := csv.NewReader(bufio.NewReader(f))
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err == io.EOF {
		return models.DriverResult{Success: false, StderrTail: "input dataset is empty"}
	}
	if err != nil {
		return models.DriverResult{Success: false, StderrTail: fmt.Sprintf("error reading header: %v", err)}
	}

	rowCount := 0
	for {
		if _, err := reader.Read(); err != nil {
			if err == io.EOF {
				break
			}
			continue
		}
		rowCount++
	}

	if err := d.store.Write(string(runID), "active_dataset", datasetRef{
		Path: filePath, MIME: mime, Strategy: "csv_streaming",
	}); err != nil {
		return models.DriverResult{Success: false, StderrTail: err.Error()}
	}
	if err := d.store.Write(string(runID), "ingestion_meta", map[string]interface{}{
		"row_count": rowCount, "column_count": len(header), "columns": header, "mime": mime,
	}); err != nil {
		return models.DriverResult{Success: false, StderrTail: err.Error()}
	}

	return models.DriverResult{Success: true, StdoutTail: fmt.Sprintf("ingested %d rows, %d columns, mime=%s", rowCount, len(header), mime)}
}

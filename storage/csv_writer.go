package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"appointment-checker/models"
)

// CSVWriter appends one row per location result to a CSV file.
type CSVWriter struct {
	path string
	file *os.File
}

// NewCSVWriter creates the output directory and opens the CSV file,
// writing the header if the file is new.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	info, statErr := os.Stat(path)
	fresh := statErr != nil || info.Size() == 0

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("csv: open %s: %w", path, err)
	}

	w := &CSVWriter{path: path, file: file}
	if fresh {
		if err := w.writeHeader(); err != nil {
			file.Close()
			return nil, err
		}
	}
	return w, nil
}

func (w *CSVWriter) writeHeader() error {
	cw := csv.NewWriter(w.file)
	defer cw.Flush()
	return cw.Write([]string{
		"checked_at", "city", "available", "available_dates", "time_slots", "degraded_run",
	})
}

// WriteRun appends every location result of a run.
func (w *CSVWriter) WriteRun(results []*models.LocationResult, summary *models.RunSummary) error {
	cw := csv.NewWriter(w.file)
	defer cw.Flush()

	for _, r := range results {
		slots := make([]string, 0, len(r.TimeSlots))
		for _, s := range r.TimeSlots {
			slots = append(slots, s.DisplayValue)
		}
		row := []string{
			r.CheckedAt.Format(time.RFC3339),
			r.CityName,
			strconv.FormatBool(r.IsAvailable),
			strings.Join(r.AvailableDates, "|"),
			strings.Join(slots, "|"),
			strconv.FormatBool(summary.Degraded),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("csv: write row for %s: %w", r.CityName, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Close flushes and closes the underlying file.
func (w *CSVWriter) Close() error {
	return w.file.Close()
}

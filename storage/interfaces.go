package storage

import "appointment-checker/models"

// ResultWriter persists the outcome of one run.
type ResultWriter interface {
	WriteRun(results []*models.LocationResult, summary *models.RunSummary) error
	Close() error
}

package services

import (
	"context"
	"errors"
	"time"

	"appointment-checker/checker"
	"appointment-checker/models"
	"appointment-checker/utils"
)

// LocationChecker is the per-location capability the runner sequences.
// checker.Checker implements it against a real browser session.
type LocationChecker interface {
	DiscoverLocations() ([]models.Location, error)
	Check(loc models.Location) (*models.LocationResult, error)
}

// Runner is the availability aggregator: it walks the location listing
// strictly sequentially over the one shared session and builds the run
// summary.
type Runner struct {
	checker LocationChecker
	pacer   *utils.Pacer
	logger  *utils.Logger
}

// NewRunner creates a Runner over the given per-location checker.
func NewRunner(c LocationChecker, pacer *utils.Pacer, logger *utils.Logger) *Runner {
	return &Runner{checker: c, pacer: pacer, logger: logger}
}

// Run checks every location in the listing and returns the recorded results
// plus the derived summary. Every completed location yields exactly one
// result. A lost browser session stops the run and marks the summary
// degraded with whatever was recorded so far; cancellation via ctx stops the
// run without recording a result for the interrupted location.
func (r *Runner) Run(ctx context.Context) ([]*models.LocationResult, *models.RunSummary) {
	initial, err := r.checker.DiscoverLocations()
	if err != nil {
		return r.degraded(nil, err)
	}

	r.logger.Info("[runner] Discovered %d locations", len(initial))
	if len(initial) == 0 {
		// Valid terminal state, not an error.
		return nil, models.BuildSummary(nil)
	}

	var results []*models.LocationResult
	for i := 0; i < len(initial); i++ {
		if ctx.Err() != nil {
			r.logger.Warn("[runner] Run cancelled after %d of %d locations", len(results), len(initial))
			break
		}

		r.pacer.Wait()

		// The listing may have reloaded since the last pass; indices are
		// only valid for the current render, so re-resolve every iteration.
		current, err := r.checker.DiscoverLocations()
		if err != nil {
			return r.degraded(results, err)
		}
		if i >= len(current) {
			r.logger.Warn("[runner] Listing shrank to %d entries, stopping at index %d", len(current), i)
			break
		}

		result, err := r.checker.Check(current[i])
		if err != nil {
			if errors.Is(err, checker.ErrSessionLost) {
				return r.degraded(results, err)
			}
			r.logger.Error("[runner] %s check failed: %v — recording as unavailable",
				current[i].DisplayName, err)
			result = &models.LocationResult{CityName: current[i].DisplayName, CheckedAt: time.Now()}
		}

		results = append(results, result)
		r.logger.Info("[runner] %d/%d done — %s available=%t",
			i+1, len(initial), result.CityName, result.IsAvailable)
	}

	return results, models.BuildSummary(results)
}

// degraded finalizes a run cut short by a fatal driver failure: the partial
// results stand, but the summary carries an explicit degraded flag so it is
// never mistaken for a complete sweep.
func (r *Runner) degraded(results []*models.LocationResult, cause error) ([]*models.LocationResult, *models.RunSummary) {
	r.logger.Error("[runner] Run degraded after %d locations: %v", len(results), cause)
	summary := models.BuildSummary(results)
	summary.Degraded = true
	summary.DegradedReason = cause.Error()
	return results, summary
}

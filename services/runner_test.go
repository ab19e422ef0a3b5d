package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"appointment-checker/checker"
	"appointment-checker/models"
	"appointment-checker/utils"
)

// stubChecker drives the runner without a browser: each location carries a
// canned response body that is run through the real classifier.
type stubChecker struct {
	names      []string
	bodies     map[string]string
	sessionDie string // location name at which the session "dies"
	checked    []string
}

func (s *stubChecker) DiscoverLocations() ([]models.Location, error) {
	locs := make([]models.Location, len(s.names))
	for i, n := range s.names {
		locs[i] = models.Location{Index: i, DisplayName: n}
	}
	return locs, nil
}

func (s *stubChecker) Check(loc models.Location) (*models.LocationResult, error) {
	if loc.DisplayName == s.sessionDie {
		return nil, fmt.Errorf("%s: %w", loc.DisplayName, checker.ErrSessionLost)
	}
	s.checked = append(s.checked, loc.DisplayName)

	sig := checker.Classify(s.bodies[loc.DisplayName])
	return &models.LocationResult{
		CityName:       loc.DisplayName,
		IsAvailable:    sig.Available,
		AvailableDates: sig.AvailableDates,
		CheckedAt:      time.Now(),
	}, nil
}

func newTestRunner(c LocationChecker) *Runner {
	return NewRunner(c, utils.NewPacer(0), utils.NewLogger())
}

func TestRunnerZeroLocations(t *testing.T) {
	results, summary := newTestRunner(&stubChecker{}).Run(context.Background())

	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
	if summary.Total != 0 || summary.AvailableCount != 0 || summary.UnavailableCount != 0 {
		t.Errorf("expected empty summary, got %+v", summary)
	}
	if summary.Degraded {
		t.Error("zero locations is a valid terminal state, not a degraded run")
	}
}

func TestRunnerMixedRun(t *testing.T) {
	negative := `<span class="field-validation-error">There are no appointments available in the near future.</span>`
	stub := &stubChecker{
		names: []string{"Alpha", "Beta", "Gamma"},
		bodies: map[string]string{
			"Alpha": negative,
			"Beta":  `<script>appointmentCalendar.setAvailableDays(["2026-04-01","2026-04-02"]);</script>`,
			"Gamma": negative,
		},
	}

	results, summary := newTestRunner(stub).Run(context.Background())

	if summary.Total != 3 || summary.AvailableCount != 1 || summary.UnavailableCount != 2 {
		t.Fatalf("summary = %+v; want total=3 available=1 unavailable=2", summary)
	}
	if summary.Total != len(results) || summary.Total != summary.AvailableCount+summary.UnavailableCount {
		t.Errorf("summary counts inconsistent: %+v with %d results", summary, len(results))
	}
	if len(summary.AvailableLocationNames) != 1 || summary.AvailableLocationNames[0] != "Beta" {
		t.Errorf("AvailableLocationNames = %v; want [Beta]", summary.AvailableLocationNames)
	}
	if len(results[1].AvailableDates) != 2 {
		t.Errorf("Beta dates = %v; want two dates", results[1].AvailableDates)
	}
	if summary.Degraded {
		t.Error("complete run must not be degraded")
	}
}

func TestRunnerSessionLostMidRun(t *testing.T) {
	stub := &stubChecker{
		names: []string{"Alpha", "Beta", "Gamma"},
		bodies: map[string]string{
			"Alpha": `<script>appointmentCalendar.setAvailableDays(["2026-04-01"]);</script>`,
		},
		sessionDie: "Beta",
	}

	results, summary := newTestRunner(stub).Run(context.Background())

	if !summary.Degraded {
		t.Fatal("expected a degraded run after session loss")
	}
	if summary.DegradedReason == "" {
		t.Error("degraded run must carry a reason")
	}
	if len(results) != 1 || results[0].CityName != "Alpha" {
		t.Fatalf("expected exactly the pre-failure result, got %v", results)
	}
	// Gamma must not show up as a false "no appointments".
	for _, r := range results {
		if r.CityName == "Gamma" {
			t.Error("locations after the failure must not be recorded")
		}
	}
	if summary.Total != 1 {
		t.Errorf("summary.Total = %d; want 1 (partial)", summary.Total)
	}
}

func TestRunnerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stub := &stubChecker{names: []string{"Alpha", "Beta"}}
	results, summary := newTestRunner(stub).Run(ctx)

	if len(stub.checked) != 0 {
		t.Errorf("cancelled run must not check locations, checked %v", stub.checked)
	}
	if len(results) != 0 {
		t.Errorf("cancelled run must not record results, got %d", len(results))
	}
	if summary.Degraded {
		t.Error("operator cancellation is not a degraded run")
	}
}

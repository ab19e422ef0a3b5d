package services

import (
	"strings"
	"testing"

	"appointment-checker/models"
	"appointment-checker/utils"
)

func TestReportRender(t *testing.T) {
	results := []*models.LocationResult{
		{CityName: "Alpha", IsAvailable: true, AvailableDates: []string{"2026-04-01"}},
		{CityName: "Beta"},
	}
	summary := models.BuildSummary(results)

	out := NewReportService(utils.NewLogger()).Render(results, summary)

	for _, want := range []string{"Alpha", "Beta", "2026-04-01", "Locations checked"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "DEGRADED") {
		t.Error("complete run must not render the degraded banner")
	}
}

func TestReportRenderDegraded(t *testing.T) {
	summary := models.BuildSummary(nil)
	summary.Degraded = true
	summary.DegradedReason = "browser session lost"

	out := NewReportService(utils.NewLogger()).Render(nil, summary)

	if !strings.Contains(out, "DEGRADED") {
		t.Errorf("degraded run must render the banner:\n%s", out)
	}
	if !strings.Contains(out, "browser session lost") {
		t.Errorf("degraded banner must carry the reason:\n%s", out)
	}
}

package services

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"appointment-checker/models"
	"appointment-checker/utils"
)

// ReportService renders the run outcome for humans.
type ReportService struct {
	logger *utils.Logger
}

func NewReportService(logger *utils.Logger) *ReportService {
	return &ReportService{logger: logger}
}

// Render builds the summary table plus the named location lists.
func (s *ReportService) Render(results []*models.LocationResult, summary *models.RunSummary) string {
	var b strings.Builder

	if summary.Degraded {
		b.WriteString("!! DEGRADED RUN — partial results only\n")
		b.WriteString("   reason: " + summary.DegradedReason + "\n\n")
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"Locations checked", summary.Total},
		{"With appointments", summary.AvailableCount},
		{"Without appointments", summary.UnavailableCount},
	})
	b.WriteString(t.Render())
	b.WriteString("\n")

	if len(summary.AvailableLocationNames) > 0 {
		b.WriteString("\nAppointments available:\n")
		for _, r := range results {
			if !r.IsAvailable {
				continue
			}
			line := "  + " + r.CityName
			if len(r.AvailableDates) > 0 {
				line += "  [" + strings.Join(r.AvailableDates, ", ") + "]"
			}
			b.WriteString(line + "\n")
			for _, slot := range r.TimeSlots {
				b.WriteString("      " + slot.DisplayValue + "\n")
			}
		}
	}

	if len(summary.UnavailableLocationNames) > 0 {
		b.WriteString("\nNo appointments:\n")
		for _, name := range summary.UnavailableLocationNames {
			b.WriteString("  - " + name + "\n")
		}
	}

	return b.String()
}

// Print renders the report to stdout.
func (s *ReportService) Print(results []*models.LocationResult, summary *models.RunSummary) {
	fmt.Println(s.Render(results, summary))
}

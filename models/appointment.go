package models

import "time"

// Location is one bookable site in the upstream listing. Index is its
// position in the current render of the list and is only valid until the
// listing reloads — it must be re-resolved on every pass, never cached.
type Location struct {
	Index       int
	DisplayName string
}

// CapturedResponse is one intercepted network response believed to carry
// calendar data for a location. At most one is current per location visit.
type CapturedResponse struct {
	URL        string
	StatusCode int
	Body       string
	Headers    map[string]string
	CapturedAt time.Time
}

// AppointmentSignal is the classifier's verdict for one captured response.
//
// Invariants: a non-empty ErrorMessage implies Available == false, and
// Available == true is only ever derived from a definitive positive
// indicator, never from the absence of a negative one.
type AppointmentSignal struct {
	Available      bool
	AvailableDates []string
	ErrorMessage   string
}

// SlotShape tags which of the two slot-presentation variants the booking
// page rendered for a date.
type SlotShape string

const (
	DropdownSlots SlotShape = "dropdown"
	ToggleSlots   SlotShape = "toggle"
)

// TimeSlot is one bookable time for a selected date. DatetimeLabel carries
// both date and time in the upstream's own format; it is not parsed beyond
// substring splitting.
type TimeSlot struct {
	DatetimeLabel     string
	DisplayValue      string
	ServiceID         string
	AppointmentTypeID string
}

// SlotList is the resolved slot presentation for one drilled-into date.
type SlotList struct {
	Shape SlotShape
	Slots []TimeSlot
}

// LocationResult is the immutable outcome for one location in one run.
type LocationResult struct {
	CityName       string
	IsAvailable    bool
	AvailableDates []string
	TimeSlots      []TimeSlot
	CheckedAt      time.Time
}

// RunSummary aggregates all LocationResults of a run. Degraded marks a run
// that was cut short by a fatal driver failure; its counts are then partial.
type RunSummary struct {
	Total                    int
	AvailableCount           int
	UnavailableCount         int
	AvailableLocationNames   []string
	UnavailableLocationNames []string
	Degraded                 bool
	DegradedReason           string
}

// BuildSummary derives a RunSummary from the recorded results.
func BuildSummary(results []*LocationResult) *RunSummary {
	s := &RunSummary{Total: len(results)}
	for _, r := range results {
		if r.IsAvailable {
			s.AvailableCount++
			s.AvailableLocationNames = append(s.AvailableLocationNames, r.CityName)
		} else {
			s.UnavailableCount++
			s.UnavailableLocationNames = append(s.UnavailableLocationNames, r.CityName)
		}
	}
	return s
}

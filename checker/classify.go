package checker

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"appointment-checker/models"
)

// datePattern matches strict YYYY-MM-DD dates; loosely formatted variants
// like 2026-3-6 are deliberately rejected.
var datePattern = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)

// calendarPayload is the structured shape the server sends when the calendar
// is fetched as data instead of markup.
type calendarPayload struct {
	HasAppointments bool     `json:"hasAppointments"`
	AvailableDates  []string `json:"availableDates"`
	ErrorMessage    string   `json:"errorMessage"`
}

// Classify turns one captured response body into an AppointmentSignal.
//
// Rules are evaluated in priority order and short-circuit: structured
// payload, then the definitive positive calendar-data marker, then the
// definitive negative error span, then inconclusive. Classify never fails on
// malformed input — a broken payload simply falls through to fragment
// analysis — and is idempotent.
func Classify(body string) *models.AppointmentSignal {
	if sig, ok := classifyPayload(body); ok {
		return sig
	}

	// The positive marker wins even when inert error markup is also present
	// elsewhere in the body; the negative check only runs once the positive
	// one has been ruled out.
	if strings.Contains(body, calendarDataMarker) {
		return &models.AppointmentSignal{
			Available:      true,
			AvailableDates: extractDates(body),
		}
	}

	if msg, ok := findNoAppointmentsError(body); ok {
		return &models.AppointmentSignal{
			Available:    false,
			ErrorMessage: msg,
		}
	}

	// Inconclusive: neither marker present. Conservative by policy — never
	// reported as available.
	return &models.AppointmentSignal{Available: false}
}

// classifyPayload attempts the structured-data path. It only engages when
// the first non-whitespace byte opens a JSON object or array; decode
// failures report !ok instead of an error.
func classifyPayload(body string) (*models.AppointmentSignal, bool) {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return nil, false
	}

	switch trimmed[0] {
	case '{':
		var payload calendarPayload
		if err := json.Unmarshal([]byte(trimmed), &payload); err != nil {
			return nil, false
		}
		sig := &models.AppointmentSignal{
			Available:      payload.HasAppointments,
			AvailableDates: dedupeDates(payload.AvailableDates),
			ErrorMessage:   payload.ErrorMessage,
		}
		if sig.ErrorMessage != "" {
			sig.Available = false
		}
		return sig, true
	case '[':
		// Some calendar endpoints answer with a bare list of open dates.
		var dates []string
		if err := json.Unmarshal([]byte(trimmed), &dates); err != nil {
			return nil, false
		}
		dates = dedupeDates(dates)
		return &models.AppointmentSignal{
			Available:      len(dates) > 0,
			AvailableDates: dates,
		}, true
	}
	return nil, false
}

// extractDates pulls every strict date substring out of the body, deduped,
// preserving first-seen order.
func extractDates(body string) []string {
	return dedupeDates(datePattern.FindAllString(body, -1))
}

func dedupeDates(raw []string) []string {
	var dates []string
	seen := make(map[string]struct{}, len(raw))
	for _, d := range raw {
		if !datePattern.MatchString(d) {
			continue
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		dates = append(dates, d)
	}
	return dates
}

// findNoAppointmentsError looks for the validation-error span carrying the
// exact no-appointments phrase. Unparseable markup counts as not found.
func findNoAppointmentsError(body string) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return "", false
	}

	var msg string
	doc.Find(errorSpanSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if strings.Contains(strings.ToLower(text), noAppointmentsPhrase) {
			msg = text
			return false
		}
		return true
	})
	return msg, msg != ""
}

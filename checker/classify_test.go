package checker

import (
	"reflect"
	"testing"
)

const (
	positiveBody = `<html><body>
		<div class="calendar">
		<script>appointmentCalendar.setAvailableDays(["2026-03-05","2026-03-06"]);</script>
		</div></body></html>`

	negativeBody = `<html><body>
		<div class="appointment-datepicker"></div>
		<span class="field-validation-error">There are no appointments available in the near future.</span>
		</body></html>`

	shellOnlyBody = `<html><body><div class="appointment-datepicker"></div></body></html>`
)

func TestClassifyPositiveMarker(t *testing.T) {
	sig := Classify(positiveBody)

	if !sig.Available {
		t.Fatal("expected available=true for body with calendar-data marker")
	}
	if sig.ErrorMessage != "" {
		t.Errorf("unexpected error message: %q", sig.ErrorMessage)
	}
	want := []string{"2026-03-05", "2026-03-06"}
	if !reflect.DeepEqual(sig.AvailableDates, want) {
		t.Errorf("AvailableDates = %v; want %v", sig.AvailableDates, want)
	}
}

func TestClassifyPositiveMarkerWinsOverNegativePhrase(t *testing.T) {
	// Inert validation-error markup can legitimately sit next to a real
	// calendar; the positive marker must short-circuit before it.
	body := `<html><body>
		<script>appointmentCalendar.setAvailableDays(["2026-03-05"]);</script>
		<span class="field-validation-error" style="display:none">
			There are no appointments available in the near future.
		</span>
		</body></html>`

	sig := Classify(body)
	if !sig.Available {
		t.Fatal("positive marker must win over a co-present negative phrase")
	}
	if sig.ErrorMessage != "" {
		t.Errorf("unexpected error message: %q", sig.ErrorMessage)
	}
}

func TestClassifyNegativePhrase(t *testing.T) {
	sig := Classify(negativeBody)

	if sig.Available {
		t.Fatal("expected available=false for no-appointments error span")
	}
	if sig.ErrorMessage == "" {
		t.Error("expected a non-empty error message")
	}
	if len(sig.AvailableDates) != 0 {
		t.Errorf("expected no dates, got %v", sig.AvailableDates)
	}
}

func TestClassifyPhraseOutsideErrorSpanIsInconclusive(t *testing.T) {
	body := `<html><body>
		<p>There are no appointments available in the near future.</p>
		</body></html>`

	sig := Classify(body)
	if sig.Available {
		t.Error("expected available=false")
	}
	if sig.ErrorMessage != "" {
		t.Errorf("phrase outside the validation-error span must not count, got %q", sig.ErrorMessage)
	}
}

func TestClassifyInconclusive(t *testing.T) {
	for _, body := range []string{shellOnlyBody, "", "plain text"} {
		sig := Classify(body)
		if sig.Available {
			t.Errorf("body %q: expected available=false", body)
		}
		if sig.ErrorMessage != "" {
			t.Errorf("body %q: inconclusive must carry no error message, got %q", body, sig.ErrorMessage)
		}
		if len(sig.AvailableDates) != 0 {
			t.Errorf("body %q: expected no dates, got %v", body, sig.AvailableDates)
		}
	}
}

func TestClassifyDateExtraction(t *testing.T) {
	body := `<script>appointmentCalendar.setAvailableDays([]);</script>
		2026-03-05 2026-03-05 again 2026-03-05
		2026-03-06 and 2026-03-06
		malformed 2026-3-6`

	sig := Classify(body)
	want := []string{"2026-03-05", "2026-03-06"}
	if !reflect.DeepEqual(sig.AvailableDates, want) {
		t.Errorf("AvailableDates = %v; want %v (deduped, first-seen order, no malformed)", sig.AvailableDates, want)
	}
}

func TestClassifyStructuredPayload(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		available bool
		dates     []string
		hasError  bool
	}{
		{"object with appointments", `{"hasAppointments":true,"availableDates":["2026-05-01","2026-05-02"]}`, true, []string{"2026-05-01", "2026-05-02"}, false},
		{"object without appointments", ` {"hasAppointments":false,"availableDates":[]}`, false, nil, false},
		{"object with error message", `{"hasAppointments":true,"errorMessage":"service offline"}`, false, nil, true},
		{"bare date list", `["2026-05-01","2026-05-01"]`, true, []string{"2026-05-01"}, false},
		{"empty list", `[]`, false, nil, false},
	}

	for _, tt := range tests {
		sig := Classify(tt.body)
		if sig.Available != tt.available {
			t.Errorf("%s: Available = %t; want %t", tt.name, sig.Available, tt.available)
		}
		if !reflect.DeepEqual(sig.AvailableDates, tt.dates) {
			t.Errorf("%s: AvailableDates = %v; want %v", tt.name, sig.AvailableDates, tt.dates)
		}
		if (sig.ErrorMessage != "") != tt.hasError {
			t.Errorf("%s: ErrorMessage = %q; hasError want %t", tt.name, sig.ErrorMessage, tt.hasError)
		}
	}
}

func TestClassifyMalformedPayloadFallsThrough(t *testing.T) {
	// Broken JSON must not error out; fragment analysis still applies.
	body := `{not valid json <span class="field-validation-error">
		there are NO appointments available in the near future</span>`

	sig := Classify(body)
	if sig.Available {
		t.Error("expected available=false")
	}
	if sig.ErrorMessage == "" {
		t.Error("expected the fragment path to find the error span after payload decode failure")
	}
}

func TestClassifyIdempotent(t *testing.T) {
	for _, body := range []string{positiveBody, negativeBody, shellOnlyBody} {
		first := Classify(body)
		second := Classify(body)
		if !reflect.DeepEqual(first, second) {
			t.Errorf("classification not idempotent for %q: %+v vs %+v", body, first, second)
		}
	}
}

package checker

import "testing"

func TestResolveFallback(t *testing.T) {
	tests := []struct {
		name         string
		heading      bool
		errorEl      bool
		hiddenMarker bool
		want         bool
	}{
		{"date/time heading rendered", true, false, false, true},
		{"heading wins over error markup", true, true, true, true},
		{"error element present", false, true, false, false},
		{"hidden marker present", false, false, true, false},
		{"error wins over hidden marker", false, true, true, false},
		// All probes inconclusive: optimistic by policy — a calendar the
		// probes failed to detect is surfaced rather than silently skipped.
		{"all inconclusive defaults to available", false, false, false, true},
	}

	for _, tt := range tests {
		got := resolveFallback(tt.heading, tt.errorEl, tt.hiddenMarker)
		if got != tt.want {
			t.Errorf("%s: resolveFallback(%t,%t,%t) = %t; want %t",
				tt.name, tt.heading, tt.errorEl, tt.hiddenMarker, got, tt.want)
		}
	}
}

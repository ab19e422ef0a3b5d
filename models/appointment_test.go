package models

import (
	"reflect"
	"testing"
)

func TestBuildSummary(t *testing.T) {
	results := []*LocationResult{
		{CityName: "Alpha", IsAvailable: true},
		{CityName: "Beta"},
		{CityName: "Gamma", IsAvailable: true},
		{CityName: "Delta"},
	}

	s := BuildSummary(results)

	if s.Total != len(results) {
		t.Errorf("Total = %d; want %d", s.Total, len(results))
	}
	if s.Total != s.AvailableCount+s.UnavailableCount {
		t.Errorf("Total %d != available %d + unavailable %d", s.Total, s.AvailableCount, s.UnavailableCount)
	}
	if want := []string{"Alpha", "Gamma"}; !reflect.DeepEqual(s.AvailableLocationNames, want) {
		t.Errorf("AvailableLocationNames = %v; want %v", s.AvailableLocationNames, want)
	}
	if want := []string{"Beta", "Delta"}; !reflect.DeepEqual(s.UnavailableLocationNames, want) {
		t.Errorf("UnavailableLocationNames = %v; want %v", s.UnavailableLocationNames, want)
	}
}

func TestBuildSummaryEmpty(t *testing.T) {
	s := BuildSummary(nil)
	if s.Total != 0 || s.AvailableCount != 0 || s.UnavailableCount != 0 {
		t.Errorf("empty summary = %+v; want zeros", s)
	}
}

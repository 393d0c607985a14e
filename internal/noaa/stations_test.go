package noaa_test

import (
	"strings"
	"testing"

	"github.com/i474232898/noaastn/internal/noaa"
	"github.com/i474232898/noaastn/internal/noaa/noaatest"
)

func TestParseStations(t *testing.T) {
	table, err := noaa.ParseStations(strings.NewReader(noaatest.Listing(noaatest.SampleStations()...)))
	if err != nil {
		t.Fatalf("ParseStations failed: %v", err)
	}

	if table.Len() != 5 {
		t.Fatalf("Expected 5 stations, got %d", table.Len())
	}
	if len(table.Columns()) != 11 {
		t.Errorf("Expected 11 columns, got %d", len(table.Columns()))
	}

	st := table.Rows[1]
	if st.ID() != "690150-93121" {
		t.Errorf("Expected id 690150-93121, got %s", st.ID())
	}
	if st.Name != "TWENTY NINE PALMS" {
		t.Errorf("Expected name 'TWENTY NINE PALMS', got '%s'", st.Name)
	}
	if st.Country != "US" || st.State != "CA" || st.Call != "KNXP" {
		t.Errorf("Unexpected country/state/call: %q %q %q", st.Country, st.State, st.Call)
	}
	if st.Start == nil || st.Start.Format("2006-01-02") != "2003-01-01" {
		t.Errorf("Expected start 2003-01-01, got %v", st.Start)
	}
	if st.End == nil || st.End.Year() != 2026 {
		t.Errorf("Expected end year 2026, got %v", st.End)
	}

	lat, lon, elev, ok := st.Coordinates()
	if !ok {
		t.Fatal("Expected coordinates to parse")
	}
	if lat != 34.3 || lon != -116.167 || elev != 696 {
		t.Errorf("Unexpected coordinates: %v %v %v", lat, lon, elev)
	}
}

func TestParseStationsColumnWidths(t *testing.T) {
	widths := map[string]func(noaa.Station) string{
		"usaf":      func(s noaa.Station) string { return s.USAF },
		"wban":      func(s noaa.Station) string { return s.WBAN },
		"country":   func(s noaa.Station) string { return s.Country },
		"latitude":  func(s noaa.Station) string { return s.Latitude },
		"longitude": func(s noaa.Station) string { return s.Longitude },
		"elevation": func(s noaa.Station) string { return s.Elevation },
	}
	expected := map[string]int{
		"usaf": 6, "wban": 5, "country": 2, "latitude": 7, "longitude": 8, "elevation": 7,
	}

	table, err := noaa.ParseStations(strings.NewReader(noaatest.Listing(noaatest.SampleStations()...)))
	if err != nil {
		t.Fatalf("ParseStations failed: %v", err)
	}

	for _, st := range table.Rows {
		for col, get := range widths {
			v := get(st)
			if v != "" && len(v) != expected[col] {
				t.Errorf("station %s: column %s has width %d, expected %d (%q)", st.ID(), col, len(v), expected[col], v)
			}
		}
	}
}

func TestParseStationsMissingMetadata(t *testing.T) {
	table, err := noaa.ParseStations(strings.NewReader(noaatest.Listing(noaatest.SampleStations()...)))
	if err != nil {
		t.Fatalf("ParseStations failed: %v", err)
	}

	bogus := table.Rows[3]
	if bogus.Country != "" || bogus.Latitude != "" {
		t.Errorf("Expected empty country and latitude, got %q %q", bogus.Country, bogus.Latitude)
	}
	if bogus.Start != nil || bogus.End != nil {
		t.Errorf("Expected nil dates, got %v %v", bogus.Start, bogus.End)
	}
	if _, _, _, ok := bogus.Coordinates(); ok {
		t.Error("Expected coordinates to be unavailable")
	}
}

func TestParseStationsInvalidDate(t *testing.T) {
	bad := noaatest.Station{USAF: "010015", WBAN: "99999", Name: "X", Begin: "2008XX31"}
	_, err := noaa.ParseStations(strings.NewReader(noaatest.Listing(bad)))
	if err == nil {
		t.Fatal("Expected error for malformed begin date")
	}
	if !strings.Contains(err.Error(), "line 23") {
		t.Errorf("Expected error to name the line, got %v", err)
	}
}

func TestFilterByCountry(t *testing.T) {
	all, err := noaa.ParseStations(strings.NewReader(noaatest.Listing(noaatest.SampleStations()...)))
	if err != nil {
		t.Fatalf("ParseStations failed: %v", err)
	}

	tests := []struct {
		name     string
		code     string
		expected int
	}{
		{name: "Wildcard", code: "all", expected: 5},
		{name: "Wildcard_Upper", code: "ALL", expected: 5},
		{name: "US", code: "US", expected: 2},
		{name: "Lower_Case", code: "us", expected: 2},
		{name: "No_Match", code: "ZZ", expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filtered := noaa.FilterByCountry(all, tt.code)
			if filtered.Len() != tt.expected {
				t.Errorf("Expected %d stations, got %d", tt.expected, filtered.Len())
			}
			if len(filtered.Columns()) != 11 {
				t.Errorf("Expected 11 columns, got %d", len(filtered.Columns()))
			}
			if filtered.Len() > all.Len() {
				t.Errorf("Filtered table is larger than the full table")
			}
		})
	}
}

func TestStationTableWriteCSV(t *testing.T) {
	table, err := noaa.ParseStations(strings.NewReader(noaatest.Listing(noaatest.SampleStations()[:1]...)))
	if err != nil {
		t.Fatalf("ParseStations failed: %v", err)
	}

	var sb strings.Builder
	if err := table.WriteCSV(&sb); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(sb.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected header and one row, got %d lines", len(lines))
	}
	if lines[0] != strings.Join(noaa.StationColumns, ",") {
		t.Errorf("Unexpected header: %s", lines[0])
	}
	if lines[1] != "010015,99999,BRINGELAND,NO,,,+61.383,+005.867,+0327.0,1987-01-17,2008-12-31" {
		t.Errorf("Unexpected row: %s", lines[1])
	}
}

package chart_test

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/i474232898/noaastn/internal/chart"
	"github.com/i474232898/noaastn/internal/noaa"
	"github.com/i474232898/noaastn/internal/noaa/noaatest"
)

func sampleTable(t *testing.T, records ...noaatest.Record) *noaa.ObservationTable {
	t.Helper()
	if len(records) == 0 {
		records = noaatest.SixRecords("911803", "99999")
	}
	rows, err := noaa.ParseObservations(strings.NewReader(noaatest.Lines(records...)))
	if err != nil {
		t.Fatalf("ParseObservations failed: %v", err)
	}
	return &noaa.ObservationTable{StationID: "911803-99999", Year: 2015, Rows: rows}
}

func month(m time.Month) time.Time {
	return time.Date(2015, m, 1, 0, 0, 0, 0, time.UTC)
}

func assertPoints(t *testing.T, got []chart.Point, expected []chart.Point) {
	t.Helper()
	if len(got) != len(expected) {
		t.Fatalf("Expected %d points, got %d: %v", len(expected), len(got), got)
	}
	for i := range expected {
		if !got[i].Time.Equal(expected[i].Time) {
			t.Errorf("point %d: expected time %v, got %v", i, expected[i].Time, got[i].Time)
		}
		if math.Abs(got[i].Value-expected[i].Value) > 1e-9 {
			t.Errorf("point %d: expected value %v, got %v", i, expected[i].Value, got[i].Value)
		}
	}
}

func TestPlotMonthly(t *testing.T) {
	c, err := chart.Plot(sampleTable(t), "air_temp", "monthly")
	if err != nil {
		t.Fatalf("Plot failed: %v", err)
	}

	if c.Mark.Type != "line" || c.Mark.Color != "orange" {
		t.Errorf("Expected orange line mark, got %+v", c.Mark)
	}
	if got := c.X.Shorthand(); got != "month(datetime)" {
		t.Errorf("Expected x shorthand month(datetime), got %s", got)
	}
	if got := c.Y.Shorthand(); got != "air_temp" {
		t.Errorf("Expected y shorthand air_temp, got %s", got)
	}
	if c.X.Axis.LabelAngle != -30 {
		t.Errorf("Expected label angle -30, got %v", c.X.Axis.LabelAngle)
	}
	if c.Y.Scale.Zero {
		t.Error("Expected y scale not to include zero")
	}
	if c.TitleFontSize != 14 || c.X.Axis.LabelFontSize != 12 || c.Y.Axis.TitleFontSize != 13 {
		t.Errorf("Unexpected font sizes: title %v label %v axis title %v",
			c.TitleFontSize, c.X.Axis.LabelFontSize, c.Y.Axis.TitleFontSize)
	}
	if !strings.HasPrefix(c.Title, "Monthly") || !strings.Contains(c.Title, "911803-99999") {
		t.Errorf("Unexpected title %q", c.Title)
	}

	// Rows with any missing reading are dropped before averaging.
	assertPoints(t, c.Points, []chart.Point{
		{Time: month(time.January), Value: 13.65},
		{Time: month(time.February), Value: -5},
		{Time: month(time.March), Value: 25},
	})
}

func TestPlotDaily(t *testing.T) {
	c, err := chart.Plot(sampleTable(t), "wind_spd", "daily")
	if err != nil {
		t.Fatalf("Plot failed: %v", err)
	}

	if got := c.X.Shorthand(); got != "datetime" {
		t.Errorf("Expected x shorthand datetime, got %s", got)
	}
	assertPoints(t, c.Points, []chart.Point{
		{Time: time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC), Value: 3.85},
		{Time: time.Date(2015, 2, 15, 0, 0, 0, 0, time.UTC), Value: 1},
		{Time: time.Date(2015, 3, 20, 0, 0, 0, 0, time.UTC), Value: 10},
	})
}

func TestPlotInvalidInput(t *testing.T) {
	tests := []struct {
		name     string
		table    *noaa.ObservationTable
		variable string
		basis    string
		message  string
	}{
		{name: "Nil_Table", table: nil, variable: "air_temp", basis: "monthly", message: "nil"},
		{name: "Unknown_Variable", table: sampleTable(t), variable: "humidity", basis: "monthly", message: "invalid variable"},
		{name: "Unknown_Basis", table: sampleTable(t), variable: "air_temp", basis: "weekly", message: "invalid time basis"},
		{name: "Case_Sensitive_Basis", table: sampleTable(t), variable: "air_temp", basis: "Monthly", message: "invalid time basis"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := chart.Plot(tt.table, tt.variable, tt.basis)
			if !errors.Is(err, chart.ErrInvalidInput) {
				t.Fatalf("Expected ErrInvalidInput, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.message) {
				t.Errorf("Expected message containing %q, got %q", tt.message, err.Error())
			}
		})
	}
}

func TestPlotInsufficientData(t *testing.T) {
	records := noaatest.SixRecords("911803", "99999")

	// Two complete January rows resample to a single monthly point.
	table := sampleTable(t, records[0], records[1], records[2])
	if _, err := chart.Plot(table, "air_temp", "monthly"); !errors.Is(err, chart.ErrInsufficientData) {
		t.Errorf("Expected ErrInsufficientData, got %v", err)
	}

	empty := &noaa.ObservationTable{StationID: "911803-99999", Year: 2015}
	if _, err := chart.Plot(empty, "air_temp", "daily"); !errors.Is(err, chart.ErrInsufficientData) {
		t.Errorf("Expected ErrInsufficientData for an empty table, got %v", err)
	}
}

func TestResampleSkipsMissing(t *testing.T) {
	table := sampleTable(t)

	points := chart.Resample(table.Rows, noaa.AtmPress, chart.Monthly)
	assertPoints(t, points, []chart.Point{
		{Time: month(time.January), Value: 1012.6},
		{Time: month(time.February), Value: 1020.1},
		{Time: month(time.March), Value: 1008},
	})
}

func TestDropIncomplete(t *testing.T) {
	rows := chart.DropIncomplete(sampleTable(t).Rows)
	if len(rows) != 4 {
		t.Fatalf("Expected 4 complete rows, got %d", len(rows))
	}
	for _, r := range rows {
		if !r.Complete() {
			t.Errorf("Incomplete row kept: %+v", r)
		}
	}
}

func TestRender(t *testing.T) {
	c, err := chart.Plot(sampleTable(t), "air_temp", "monthly")
	if err != nil {
		t.Fatalf("Plot failed: %v", err)
	}

	var svg bytes.Buffer
	if err := c.Render(&svg, chart.SVG); err != nil {
		t.Fatalf("Render SVG failed: %v", err)
	}
	if !strings.Contains(svg.String(), "<svg") {
		t.Error("Expected SVG document")
	}

	var png bytes.Buffer
	if err := c.Render(&png, chart.PNG); err != nil {
		t.Fatalf("Render PNG failed: %v", err)
	}
	if !bytes.HasPrefix(png.Bytes(), []byte("\x89PNG")) {
		t.Error("Expected PNG signature")
	}

	if err := c.Render(&bytes.Buffer{}, chart.Format("gif")); !errors.Is(err, chart.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for gif, got %v", err)
	}
	if chart.PNG.ContentType() != "image/png" || chart.SVG.ContentType() != "image/svg+xml" {
		t.Error("Unexpected content types")
	}
}

func TestRenderStyle(t *testing.T) {
	c, err := chart.Plot(sampleTable(t), "atm_press", "monthly")
	if err != nil {
		t.Fatalf("Plot failed: %v", err)
	}

	var svg bytes.Buffer
	if err := c.Render(&svg, chart.SVG); err != nil {
		t.Fatalf("Render SVG failed: %v", err)
	}
	out := svg.String()

	if !strings.Contains(out, "rgba(255,165,0,1.0)") {
		t.Error("Expected orange #FFA500 stroke")
	}
	// Pressure sits around 1010 hPa, so a zero tick means the range was anchored at zero.
	if strings.Contains(out, ">0.00</text>") {
		t.Error("Expected y axis not to include zero")
	}
}

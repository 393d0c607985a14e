// Package chart builds time-aggregated line charts of ISD observations.
package chart

import (
	"errors"
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/i474232898/noaastn/internal/noaa"
)

var (
	// ErrInvalidInput is returned for a nil table or an unknown variable or basis.
	ErrInvalidInput = noaa.ErrInvalidInput

	// ErrInsufficientData is returned when too few points remain to draw a line.
	ErrInsufficientData = errors.New("insufficient data to plot")
)

// minPoints is the smallest number of resampled points that is plotted.
const minPoints = 3

// Basis is the resampling period.
type Basis string

const (
	Monthly Basis = "monthly"
	Daily   Basis = "daily"
)

// Fixed styling.
const (
	markType       = "line"
	markColor      = "orange"
	labelAngle     = -30
	titleFontSize  = 14
	labelFontSize  = 12
	axisTitleFSize = 13
	strokeWidth    = 2
)

// Mark describes how each point is drawn.
type Mark struct {
	Type        string  `json:"type"`
	Color       string  `json:"color"`
	StrokeWidth float64 `json:"strokeWidth"`
}

// Axis holds axis presentation settings.
type Axis struct {
	Title         string  `json:"title"`
	LabelAngle    float64 `json:"labelAngle"`
	LabelFontSize float64 `json:"labelFontSize"`
	TitleFontSize float64 `json:"titleFontSize"`
}

// Scale holds scale settings. Zero reports whether the domain is forced to include zero.
type Scale struct {
	Zero bool `json:"zero"`
}

// Encoding maps a data field onto a chart channel.
type Encoding struct {
	Field    string `json:"field"`
	TimeUnit string `json:"timeUnit,omitempty"`
	Type     string `json:"type"`
	Axis     Axis   `json:"axis"`
	Scale    Scale  `json:"scale"`
}

// Shorthand returns the encoding in "timeUnit(field)" form, or the bare field.
func (e Encoding) Shorthand() string {
	if e.TimeUnit == "" {
		return e.Field
	}
	return e.TimeUnit + "(" + e.Field + ")"
}

// Chart is a declarative single-series line chart.
type Chart struct {
	Title         string        `json:"title"`
	TitleFontSize float64       `json:"titleFontSize"`
	StationID     string        `json:"station"`
	Variable      noaa.Variable `json:"variable"`
	Basis         Basis         `json:"basis"`
	Mark          Mark          `json:"mark"`
	X             Encoding      `json:"x"`
	Y             Encoding      `json:"y"`
	Points        []Point       `json:"data"`
}

type plotRequest struct {
	Variable string `validate:"oneof=air_temp atm_press wind_spd wind_dir"`
	Basis    string `validate:"oneof=monthly daily"`
}

var plotMessages = noaa.Messages{
	"Variable.oneof": "invalid variable: should be one of air_temp, atm_press, wind_spd, wind_dir",
	"Basis.oneof":    "invalid time basis: should be monthly or daily",
}

// Plot drops incomplete rows, resamples variable by basis using the mean and returns the chart.
func Plot(table *noaa.ObservationTable, variable, basis string) (*Chart, error) {
	if table == nil {
		return nil, fmt.Errorf("%w: observation table is nil", ErrInvalidInput)
	}
	if err := noaa.Check(plotRequest{Variable: variable, Basis: basis}, plotMessages); err != nil {
		return nil, err
	}

	v, b := noaa.Variable(variable), Basis(basis)
	points := Resample(DropIncomplete(table.Rows), v, b)
	if len(points) < minPoints {
		return nil, fmt.Errorf("%w: %d %s points after dropping missing values, need at least %d",
			ErrInsufficientData, len(points), b, minPoints)
	}

	x := Encoding{
		Field: "datetime",
		Type:  "temporal",
		Axis: Axis{
			Title:         "Date",
			LabelAngle:    labelAngle,
			LabelFontSize: labelFontSize,
			TitleFontSize: axisTitleFSize,
		},
	}
	if b == Monthly {
		x.TimeUnit = "month"
		x.Axis.Title = "Month"
	}

	return &Chart{
		Title:         title(table.StationID, v, b),
		TitleFontSize: titleFontSize,
		StationID:     table.StationID,
		Variable:      v,
		Basis:         b,
		Mark:          Mark{Type: markType, Color: markColor, StrokeWidth: strokeWidth},
		X:             x,
		Y: Encoding{
			Field: string(v),
			Type:  "quantitative",
			Axis: Axis{
				Title:         v.Label(),
				LabelFontSize: labelFontSize,
				TitleFontSize: axisTitleFSize,
			},
			Scale: Scale{Zero: false},
		},
		Points: points,
	}, nil
}

func title(stationID string, v noaa.Variable, b Basis) string {
	return fmt.Sprintf("%s %s Mean, Station %s",
		cases.Title(language.English).String(string(b)), v.Label(), stationID)
}

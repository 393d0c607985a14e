package noaa

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Variable names one numeric observation column.
type Variable string

const (
	AirTemp  Variable = "air_temp"
	AtmPress Variable = "atm_press"
	WindSpd  Variable = "wind_spd"
	WindDir  Variable = "wind_dir"
)

// Variables lists the numeric observation columns in table order.
var Variables = []Variable{AirTemp, AtmPress, WindSpd, WindDir}

// Label returns a human-readable axis label including the unit.
func (v Variable) Label() string {
	switch v {
	case AirTemp:
		return "Air Temperature (°C)"
	case AtmPress:
		return "Atmospheric Pressure (hPa)"
	case WindSpd:
		return "Wind Speed (m/s)"
	case WindDir:
		return "Wind Direction (degrees)"
	default:
		return string(v)
	}
}

// Station is one row of the ISD station history listing.
// Empty strings mean the upstream metadata is not available.
type Station struct {
	USAF      string     `json:"usaf"`
	WBAN      string     `json:"wban"`
	Name      string     `json:"station_name"`
	Country   string     `json:"country"`
	State     string     `json:"state"`
	Call      string     `json:"call"`
	Latitude  string     `json:"latitude"`
	Longitude string     `json:"longitude"`
	Elevation string     `json:"elevation"`
	Start     *time.Time `json:"start"`
	End       *time.Time `json:"end"`
}

// ID returns the USAF-WBAN identifier used to name observation files.
func (s Station) ID() string {
	return s.USAF + "-" + s.WBAN
}

// Coordinates parses latitude, longitude and elevation. ok is false when any of them is missing.
func (s Station) Coordinates() (lat, lon, elev float64, ok bool) {
	var err error
	if lat, err = strconv.ParseFloat(s.Latitude, 64); err != nil {
		return 0, 0, 0, false
	}
	if lon, err = strconv.ParseFloat(s.Longitude, 64); err != nil {
		return 0, 0, 0, false
	}
	if elev, err = strconv.ParseFloat(s.Elevation, 64); err != nil {
		return 0, 0, 0, false
	}
	return lat, lon, elev, true
}

// Observation is one decoded ISD record. nil numeric fields are missing readings.
type Observation struct {
	Station  string    `json:"stn"`
	Time     time.Time `json:"datetime"` // always UTC
	AirTemp  *float64  `json:"air_temp"`
	AtmPress *float64  `json:"atm_press"`
	WindSpd  *float64  `json:"wind_spd"`
	WindDir  *float64  `json:"wind_dir"`
}

// Value returns the reading for v, or nil when it is missing or v is unknown.
func (o Observation) Value(v Variable) *float64 {
	switch v {
	case AirTemp:
		return o.AirTemp
	case AtmPress:
		return o.AtmPress
	case WindSpd:
		return o.WindSpd
	case WindDir:
		return o.WindDir
	default:
		return nil
	}
}

// Complete reports whether every numeric reading is present.
func (o Observation) Complete() bool {
	return o.AirTemp != nil && o.AtmPress != nil && o.WindSpd != nil && o.WindDir != nil
}

// StationColumns is the fixed column order of a StationTable.
var StationColumns = []string{
	"usaf", "wban", "station_name", "country", "state", "call",
	"latitude", "longitude", "elevation", "start", "end",
}

// ObservationColumns is the fixed column order of an ObservationTable.
var ObservationColumns = []string{"stn", "datetime", "air_temp", "atm_press", "wind_spd", "wind_dir"}

// StationTable is the parsed station directory.
type StationTable struct {
	Rows []Station `json:"stations"`
}

// Columns returns the column names.
func (t *StationTable) Columns() []string { return StationColumns }

// Len returns the number of rows.
func (t *StationTable) Len() int { return len(t.Rows) }

// WriteCSV writes the table with a header row. Missing dates are empty cells.
func (t *StationTable) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(StationColumns); err != nil {
		return err
	}
	for _, s := range t.Rows {
		rec := []string{
			s.USAF, s.WBAN, s.Name, s.Country, s.State, s.Call,
			s.Latitude, s.Longitude, s.Elevation, formatDate(s.Start), formatDate(s.End),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ObservationTable holds the decoded records of one station-year file.
type ObservationTable struct {
	StationID string        `json:"station"`
	Year      int           `json:"year"`
	Rows      []Observation `json:"observations"`
}

// Columns returns the column names.
func (t *ObservationTable) Columns() []string { return ObservationColumns }

// Len returns the number of rows.
func (t *ObservationTable) Len() int { return len(t.Rows) }

// Key returns the canonical cache key for this table.
func (t *ObservationTable) Key() string {
	return ObservationKey(t.StationID, t.Year)
}

// ObservationKey returns the canonical key for a station-year.
func ObservationKey(stationID string, year int) string {
	return fmt.Sprintf("%s:%d", stationID, year)
}

// WriteCSV writes the table with a header row. Missing readings are empty cells.
func (t *ObservationTable) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ObservationColumns); err != nil {
		return err
	}
	for _, o := range t.Rows {
		rec := []string{
			o.Station,
			o.Time.Format(time.RFC3339),
			formatValue(o.AirTemp),
			formatValue(o.AtmPress),
			formatValue(o.WindSpd),
			formatValue(o.WindDir),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatValue(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// normalizeCountry upper-cases and trims a country code.
func normalizeCountry(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Package noaatest builds ISD fixtures and fakes for tests.
package noaatest

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"

	"github.com/i474232898/noaastn/internal/noaa"
)

// Record holds the raw field text of one ISD line. Empty fields get the missing code.
type Record struct {
	USAF     string // 6 chars
	WBAN     string // 5 chars
	Time     string // YYYYMMDDHHMM
	WindDir  string // 3 chars, e.g. "270" or "999"
	WindSpd  string // 4 chars, tenths of m/s, e.g. "0031"
	AirTemp  string // 5 chars, signed tenths of °C, e.g. "+0123"
	AtmPress string // 5 chars, tenths of hPa, e.g. "10132"
}

// Line renders r as a 105-byte mandatory-section record.
func (r Record) Line() string {
	b := []byte("0000" + strings.Repeat("9", 101))
	put := func(start int, s, def string) {
		if s == "" {
			s = def
		}
		copy(b[start:], s)
	}
	put(4, r.USAF, "911803")
	put(10, r.WBAN, "99999")
	put(15, r.Time, "201501010000")
	put(60, r.WindDir, "999")
	put(65, r.WindSpd, "9999")
	put(87, r.AirTemp, "+9999")
	put(99, r.AtmPress, "99999")
	return string(b)
}

// Lines joins the records with newlines.
func Lines(records ...Record) string {
	var sb strings.Builder
	for _, r := range records {
		sb.WriteString(r.Line())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Gzip compresses s.
func Gzip(s string) []byte {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(s)); err != nil {
		panic(err)
	}
	if err := zw.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// SixRecords returns a station-year fixture with six records, two of them carrying missing codes.
func SixRecords(usaf, wban string) []Record {
	return []Record{
		{USAF: usaf, WBAN: wban, Time: "201501010000", WindDir: "270", WindSpd: "0031", AirTemp: "+0123", AtmPress: "10132"},
		{USAF: usaf, WBAN: wban, Time: "201501011200", WindDir: "280", WindSpd: "0046", AirTemp: "+0150", AtmPress: "10120"},
		{USAF: usaf, WBAN: wban, Time: "201502010000", WindDir: "999", WindSpd: "9999", AirTemp: "+9999", AtmPress: "99999"},
		{USAF: usaf, WBAN: wban, Time: "201502150600", WindDir: "090", WindSpd: "0010", AirTemp: "-0050", AtmPress: "10201"},
		{USAF: usaf, WBAN: wban, Time: "201503010000", WindDir: "180", WindSpd: "0020", AirTemp: "+0200", AtmPress: "99999"},
		{USAF: usaf, WBAN: wban, Time: "201503201800", WindDir: "360", WindSpd: "0100", AirTemp: "+0250", AtmPress: "10080"},
	}
}

// Station holds the field text of one isd-history.txt row.
type Station struct {
	USAF, WBAN, Name, Country, State, Call string
	Lat, Lon, Elev, Begin, End             string
}

// Line renders s at the isd-history.txt byte offsets.
func (s Station) Line() string {
	return fmt.Sprintf("%-6s %-5s %-29s %-2s   %-2s %-5s %-7s %-8s %-7s %-8s %-8s",
		s.USAF, s.WBAN, s.Name, s.Country, s.State, s.Call,
		s.Lat, s.Lon, s.Elev, s.Begin, s.End)
}

// Listing renders a full isd-history.txt with its free-text preamble and column header.
func Listing(stations ...Station) string {
	var sb strings.Builder
	sb.WriteString("Integrated Surface Database Station History, October 2026\n\n")
	for i := 0; i < 18; i++ {
		fmt.Fprintf(&sb, "NOTE %d = preamble text\n", i+1)
	}
	sb.WriteString("USAF   WBAN  STATION NAME                  CTRY ST CALL  LAT     LON      ELEV(M) BEGIN    END\n")
	sb.WriteString("\n")
	for _, s := range stations {
		sb.WriteString(s.Line())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// SampleStations returns a small mixed-country directory.
func SampleStations() []Station {
	return []Station{
		{USAF: "010015", WBAN: "99999", Name: "BRINGELAND", Country: "NO", Lat: "+61.383", Lon: "+005.867", Elev: "+0327.0", Begin: "19870117", End: "20081231"},
		{USAF: "690150", WBAN: "93121", Name: "TWENTY NINE PALMS", Country: "US", State: "CA", Call: "KNXP", Lat: "+34.300", Lon: "-116.167", Elev: "+0696.0", Begin: "20030101", End: "20260101"},
		{USAF: "720110", WBAN: "53983", Name: "CORTEZ MUNI", Country: "US", State: "CO", Call: "KCEZ", Lat: "+37.303", Lon: "-108.628", Elev: "+1803.5", Begin: "20050101", End: "20260101"},
		{USAF: "911803", WBAN: "99999", Name: "BOGUS PACIFIC", Country: "", Lat: "", Lon: "", Elev: "", Begin: "", End: ""},
		{USAF: "713930", WBAN: "99999", Name: "CAPE MUDGE", Country: "CA", State: "BC", Lat: "+50.000", Lon: "-125.200", Elev: "+0012.0", Begin: "19770701", End: "20260101"},
	}
}

// Fetcher is an in-memory noaa.Fetcher. Paths not in Files yield noaa.ErrNotFound.
type Fetcher struct {
	mu    sync.Mutex
	Files map[string][]byte
	Err   error // returned for every call when set
	Calls []string
}

// NewFetcher creates a Fetcher serving files.
func NewFetcher(files map[string][]byte) *Fetcher {
	return &Fetcher{Files: files}
}

// Retrieve implements noaa.Fetcher.
func (f *Fetcher) Retrieve(_ context.Context, path string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls = append(f.Calls, path)
	if f.Err != nil {
		return nil, f.Err
	}
	data, ok := f.Files[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", noaa.ErrNotFound, path)
	}
	return data, nil
}

// CallCount returns the number of Retrieve calls.
func (f *Fetcher) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}

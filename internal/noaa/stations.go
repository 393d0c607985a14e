package noaa

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/i474232898/noaastn/internal/common"
)

// StationsFile is the station history listing, relative to the archive base directory.
const StationsFile = "isd-history.txt"

// AllCountries is the wildcard accepted by GetStationsInfo.
const AllCountries = "all"

// stationPreambleLines is the number of free-text lines ahead of the column header.
const stationPreambleLines = 20

// Byte offsets of the isd-history.txt columns.
var (
	usafCol      = [2]int{0, 6}
	wbanCol      = [2]int{7, 12}
	nameCol      = [2]int{13, 42}
	countryCol   = [2]int{43, 45}
	stateCol     = [2]int{48, 50}
	callCol      = [2]int{51, 56}
	latitudeCol  = [2]int{57, 64}
	longitudeCol = [2]int{65, 73}
	elevationCol = [2]int{74, 81}
	beginCol     = [2]int{82, 90}
	endCol       = [2]int{91, 99}
)

// ParseStations decodes an isd-history.txt listing.
func ParseStations(r io.Reader) (*StationTable, error) {
	scanner := bufio.NewScanner(r)
	table := &StationTable{}

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo <= stationPreambleLines {
			continue
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "USAF ") {
			continue
		}

		st, err := parseStationLine(line)
		if err != nil {
			return nil, fmt.Errorf("station listing line %d: %w", lineNo, err)
		}
		table.Rows = append(table.Rows, st)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read station listing: %w", err)
	}

	return table, nil
}

func parseStationLine(line string) (Station, error) {
	field := func(col [2]int) string {
		return common.FixedField(line, col[0], col[1])
	}

	start, err := parseDate(field(beginCol))
	if err != nil {
		return Station{}, fmt.Errorf("invalid begin date: %w", err)
	}
	end, err := parseDate(field(endCol))
	if err != nil {
		return Station{}, fmt.Errorf("invalid end date: %w", err)
	}

	return Station{
		USAF:      field(usafCol),
		WBAN:      field(wbanCol),
		Name:      field(nameCol),
		Country:   field(countryCol),
		State:     field(stateCol),
		Call:      field(callCol),
		Latitude:  field(latitudeCol),
		Longitude: field(longitudeCol),
		Elevation: field(elevationCol),
		Start:     start,
		End:       end,
	}, nil
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("20060102", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// FilterByCountry returns the stations whose country code equals code exactly.
// The code is upper-cased first, since the listing stores codes in upper case.
// The wildcard AllCountries returns the table unchanged.
func FilterByCountry(table *StationTable, code string) *StationTable {
	if strings.EqualFold(code, AllCountries) {
		return table
	}

	code = normalizeCountry(code)
	filtered := &StationTable{}
	for _, st := range table.Rows {
		if st.Country == code {
			filtered.Rows = append(filtered.Rows, st)
		}
	}
	return filtered
}

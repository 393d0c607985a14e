package noaa

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/i474232898/noaastn/internal/common"
)

// minRecordLength is the shortest line that still carries every decoded field.
const minRecordLength = 104

// fixedField describes one scaled integer column of an ISD record.
type fixedField struct {
	start, end int
	scale      float64
	missing    int // raw value the archive uses for "no reading"
}

var (
	windDirField  = fixedField{start: 60, end: 63, scale: 1, missing: 999}
	windSpdField  = fixedField{start: 65, end: 69, scale: 10, missing: 9999}
	airTempField  = fixedField{start: 87, end: 92, scale: 10, missing: 9999}
	atmPressField = fixedField{start: 99, end: 104, scale: 10, missing: 99999}
)

func (f fixedField) decode(line string) *float64 {
	raw, err := strconv.Atoi(common.FixedField(line, f.start, f.end))
	if err != nil || raw == f.missing {
		return nil
	}
	v := float64(raw) / f.scale
	return &v
}

// ObservationPath returns the archive path of a station-year file, relative to the base directory.
func ObservationPath(stationID string, year int) string {
	return fmt.Sprintf("%d/%s", year, ObservationFile(stationID, year))
}

// ObservationFile returns the file name of a station-year file.
func ObservationFile(stationID string, year int) string {
	return fmt.Sprintf("%s-%d.gz", stationID, year)
}

// ParseObservations decodes uncompressed ISD records, one per line.
func ParseObservations(r io.Reader) ([]Observation, error) {
	scanner := bufio.NewScanner(r)
	// Records carry variable-length additional sections.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var rows []Observation
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if len(line) == 0 {
			continue
		}
		obs, err := parseObservationLine(line)
		if err != nil {
			return nil, fmt.Errorf("observation line %d: %w", lineNo, err)
		}
		rows = append(rows, obs)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read observations: %w", err)
	}
	return rows, nil
}

func parseObservationLine(line string) (Observation, error) {
	if len(line) < minRecordLength {
		return Observation{}, fmt.Errorf("record too short: %d bytes", len(line))
	}

	ts, err := time.Parse("200601021504", line[15:27])
	if err != nil {
		return Observation{}, fmt.Errorf("invalid timestamp %q: %w", line[15:27], err)
	}

	return Observation{
		Station:  line[4:10] + "-" + line[10:15],
		Time:     ts.UTC(),
		AirTemp:  airTempField.decode(line),
		AtmPress: atmPressField.decode(line),
		WindSpd:  windSpdField.decode(line),
		WindDir:  windDirField.decode(line),
	}, nil
}

// DecodeObservationFile decodes a raw station-year file. Gzip input is detected by its magic bytes.
func DecodeObservationFile(raw []byte) ([]Observation, error) {
	if len(raw) >= 2 && raw[0] == 0x1f && raw[1] == 0x8b {
		zr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		defer zr.Close()
		return ParseObservations(zr)
	}
	return ParseObservations(bytes.NewReader(raw))
}

// ParseObservationFile reads and decodes a station-year file saved to disk.
func ParseObservationFile(path string) (*ObservationTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	rows, err := DecodeObservationFile(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	table := &ObservationTable{Rows: rows}
	if len(rows) > 0 {
		table.StationID = rows[0].Station
		table.Year = rows[0].Time.Year()
	}
	return table, nil
}

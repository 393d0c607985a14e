package chart

import (
	"sort"
	"time"

	"github.com/i474232898/noaastn/internal/noaa"
)

// Point is one resampled value.
type Point struct {
	Time  time.Time `json:"datetime"`
	Value float64   `json:"value"`
}

// DropIncomplete returns the rows that have every numeric reading.
func DropIncomplete(rows []noaa.Observation) []noaa.Observation {
	kept := make([]noaa.Observation, 0, len(rows))
	for _, r := range rows {
		if r.Complete() {
			kept = append(kept, r)
		}
	}
	return kept
}

// Truncate returns the start of the calendar bucket containing t (UTC).
func (b Basis) Truncate(t time.Time) time.Time {
	t = t.UTC()
	switch b {
	case Monthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
}

// Resample averages v into calendar buckets of the given basis. Missing readings
// are skipped. Points are ordered by time and empty buckets are omitted.
func Resample(rows []noaa.Observation, v noaa.Variable, basis Basis) []Point {
	type bucket struct {
		sum   float64
		count int
	}

	buckets := make(map[time.Time]*bucket)
	for _, r := range rows {
		val := r.Value(v)
		if val == nil {
			continue
		}
		k := basis.Truncate(r.Time)
		b, ok := buckets[k]
		if !ok {
			b = &bucket{}
			buckets[k] = b
		}
		b.sum += *val
		b.count++
	}

	points := make([]Point, 0, len(buckets))
	for k, b := range buckets {
		points = append(points, Point{Time: k, Value: b.sum / float64(b.count)})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Time.Before(points[j].Time)
	})
	return points
}

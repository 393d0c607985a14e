package store

import (
	"errors"
	"sync"
	"time"

	"github.com/i474232898/noaastn/internal/noaa"
)

var (
	// ErrNotFound is returned when no fresh table is cached for a key.
	ErrNotFound = errors.New("no cached table")
)

const stationsKey = "stations"

type entry struct {
	stations     *noaa.StationTable
	observations *noaa.ObservationTable
	storedAt     time.Time
}

// MemoryStore is a concurrency-safe in-memory cache of parsed tables.
type MemoryStore struct {
	mu sync.RWMutex

	// key: station-year key or stationsKey
	data  map[string]*entry
	order []string // insertion order of observation keys, oldest first

	// retention configuration
	maxEntries int           // max number of observation tables (0 = unlimited)
	maxAge     time.Duration // max age of any table (0 = unlimited)

	now func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxEntries is <= 0, it is treated as unlimited.
func NewMemoryStore(maxEntries int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*entry),
		maxEntries: maxEntries,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// SaveStations replaces the cached station directory.
func (s *MemoryStore) SaveStations(table *noaa.StationTable) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[stationsKey] = &entry{stations: table, storedAt: s.now()}
}

// GetStations returns the cached station directory.
func (s *MemoryStore) GetStations() (*noaa.StationTable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[stationsKey]
	if !ok || s.expired(e) {
		return nil, ErrNotFound
	}
	return e.stations, nil
}

// SaveObservations caches a station-year table and enforces retention.
func (s *MemoryStore) SaveObservations(table *noaa.ObservationTable) {
	key := table.Key()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[key]; exists {
		s.removeFromOrder(key)
	}
	s.data[key] = &entry{observations: table, storedAt: s.now()}
	s.order = append(s.order, key)

	// Enforce retention by count.
	if s.maxEntries > 0 && len(s.order) > s.maxEntries {
		over := len(s.order) - s.maxEntries
		for _, k := range s.order[:over] {
			delete(s.data, k)
		}
		s.order = s.order[over:]
	}

	// Enforce retention by age. Keys are in insertion order, so expired ones form a prefix.
	if s.maxAge > 0 {
		i := 0
		for ; i < len(s.order); i++ {
			if !s.expired(s.data[s.order[i]]) {
				break
			}
			delete(s.data, s.order[i])
		}
		s.order = s.order[i:]
	}
}

// GetObservations returns the cached table for a station-year.
func (s *MemoryStore) GetObservations(stationID string, year int) (*noaa.ObservationTable, error) {
	key := noaa.ObservationKey(stationID, year)

	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[key]
	if !ok || s.expired(e) {
		return nil, ErrNotFound
	}
	return e.observations, nil
}

// Len returns the number of cached observation tables.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

func (s *MemoryStore) expired(e *entry) bool {
	if s.maxAge <= 0 {
		return false
	}
	return s.now().Sub(e.storedAt) > s.maxAge
}

func (s *MemoryStore) removeFromOrder(key string) {
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

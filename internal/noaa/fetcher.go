package noaa

import (
	"context"
)

// Fetcher retrieves a file from the remote archive. Implementations return an error
// wrapping ErrNotFound when the file does not exist.
type Fetcher interface {
	Retrieve(ctx context.Context, path string) ([]byte, error)
}

// Store is the contract the in-memory cache must satisfy.
type Store interface {
	SaveStations(table *StationTable)
	GetStations() (*StationTable, error)
	SaveObservations(table *ObservationTable)
	GetObservations(stationID string, year int) (*ObservationTable, error)
}

// Archive persists parsed observation tables across restarts.
type Archive interface {
	SaveObservations(ctx context.Context, table *ObservationTable) error
	LoadObservations(ctx context.Context, stationID string, year int) (*ObservationTable, error)
}

package noaa

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"time"
)

// ServiceConfig holds the optional collaborators of a Service.
type ServiceConfig struct {
	// BaseDir is the archive directory holding isd-history.txt and the per-year folders.
	BaseDir string
	// Archive persists parsed tables. nil disables persistence.
	Archive Archive
	Logger  *slog.Logger
}

// Service orchestrates fetching, parsing and caching of station and observation tables.
type Service struct {
	fetcher Fetcher
	store   Store
	archive Archive
	baseDir string
	logger  *slog.Logger
}

// NewService creates a new Service.
func NewService(fetcher Fetcher, store Store, cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	baseDir := cfg.BaseDir
	if baseDir == "" {
		baseDir = "/pub/data/noaa"
	}
	return &Service{
		fetcher: fetcher,
		store:   store,
		archive: cfg.Archive,
		baseDir: baseDir,
		logger:  logger.With("component", "noaa"),
	}
}

// RefreshStations downloads and parses the station listing and replaces the cached copy.
func (s *Service) RefreshStations(ctx context.Context) (*StationTable, error) {
	started := time.Now()
	raw, err := s.fetcher.Retrieve(ctx, path.Join(s.baseDir, StationsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch station listing: %w", err)
	}

	table, err := ParseStations(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}

	if s.store != nil {
		s.store.SaveStations(table)
	}
	s.logger.Info("station listing refreshed",
		"stations", table.Len(),
		"bytes", len(raw),
		"took", time.Since(started))
	return table, nil
}

// GetStationsInfo returns the station directory, filtered to one country unless country is "all".
func (s *Service) GetStationsInfo(ctx context.Context, country string) (*StationTable, error) {
	if err := ValidateCountry(country); err != nil {
		return nil, err
	}

	var table *StationTable
	if s.store != nil {
		if cached, err := s.store.GetStations(); err == nil {
			table = cached
		}
	}
	if table == nil {
		fresh, err := s.RefreshStations(ctx)
		if err != nil {
			return nil, err
		}
		table = fresh
	}

	return FilterByCountry(table, country), nil
}

// GetWeatherData returns the decoded observations of one station-year. When saveDir is not
// empty the raw compressed file is also written there. A station-year missing from the
// archive yields an error wrapping ErrNotFound.
func (s *Service) GetWeatherData(ctx context.Context, stationID string, year int, saveDir string) (*ObservationTable, error) {
	if err := ValidateStationYear(stationID, year); err != nil {
		return nil, err
	}
	log := s.logger.With("station", stationID, "year", year)

	// The raw file only exists after a download, so a save request bypasses the caches.
	if saveDir == "" {
		if table := s.cached(ctx, stationID, year); table != nil {
			log.Debug("observations served from cache", "rows", table.Len())
			return table, nil
		}
	}

	raw, err := s.fetcher.Retrieve(ctx, path.Join(s.baseDir, ObservationPath(stationID, year)))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn("station/year not available on archive", "err", err)
		}
		return nil, fmt.Errorf("failed to fetch observations for %s/%d: %w", stationID, year, err)
	}

	if saveDir != "" {
		if err := saveRaw(saveDir, ObservationFile(stationID, year), raw); err != nil {
			return nil, err
		}
		log.Info("raw observation file saved", "dir", saveDir)
	}

	rows, err := DecodeObservationFile(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode observations for %s/%d: %w", stationID, year, err)
	}

	table := &ObservationTable{StationID: stationID, Year: year, Rows: rows}
	if s.store != nil {
		s.store.SaveObservations(table)
	}
	if s.archive != nil {
		if err := s.archive.SaveObservations(ctx, table); err != nil {
			// Persistence is best effort.
			log.Error("failed to archive observations", "err", err)
		}
	}

	log.Info("observations fetched", "rows", table.Len(), "bytes", len(raw))
	return table, nil
}

func (s *Service) cached(ctx context.Context, stationID string, year int) *ObservationTable {
	if s.store != nil {
		if table, err := s.store.GetObservations(stationID, year); err == nil {
			return table
		}
	}
	if s.archive != nil {
		table, err := s.archive.LoadObservations(ctx, stationID, year)
		if err == nil {
			if s.store != nil {
				s.store.SaveObservations(table)
			}
			return table
		}
		if !errors.Is(err, ErrNotFound) {
			s.logger.Error("failed to load archived observations",
				"station", stationID, "year", year, "err", err)
		}
	}
	return nil
}

func saveRaw(dir, name string, raw []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	dst := filepath.Join(dir, name)
	if err := os.WriteFile(dst, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}
	return nil
}

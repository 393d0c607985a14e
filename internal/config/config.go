package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	// Anonymous FTP archive.
	FTPAddr     string
	FTPUser     string
	FTPPassword string
	FTPTimeout  time.Duration
	BaseDir     string

	// StationsRefreshInterval controls how often the station listing is re-downloaded.
	StationsRefreshInterval time.Duration

	// In-memory cache retention.
	StoreMaxHistory int           // max number of cached station-year tables (0 = unlimited)
	StoreMaxAge     time.Duration // max age of cached tables (0 = unlimited)

	// ArchiveDBPath is the SQLite archive file. Empty disables the archive.
	ArchiveDBPath string

	// RawDataDir receives raw observation files when a request asks to keep them.
	RawDataDir string

	Port     string
	AppEnv   string
	LogLevel slog.Level
}

// Load reads configuration from environment with sensible defaults.
// A .env file in the working directory is loaded first when present.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "err", err)
	}
	cfg := &AppConfig{}

	cfg.FTPAddr = getenvDefault("NOAA_FTP_ADDR", "ftp.ncei.noaa.gov:21")
	cfg.FTPUser = getenvDefault("NOAA_FTP_USER", "anonymous")
	cfg.FTPPassword = getenvDefault("NOAA_FTP_PASSWORD", "anonymous")
	cfg.BaseDir = getenvDefault("NOAA_BASE_DIR", "/pub/data/noaa")

	var err error
	if cfg.FTPTimeout, err = getenvDuration("FTP_TIMEOUT", "60s"); err != nil {
		return nil, err
	}

	// Station listing changes rarely: default daily.
	if cfg.StationsRefreshInterval, err = getenvDuration("STATIONS_REFRESH_INTERVAL", "24h"); err != nil {
		return nil, err
	}
	if cfg.StationsRefreshInterval < time.Minute {
		return nil, fmt.Errorf("invalid STATIONS_REFRESH_INTERVAL %s (minimum 1m)", cfg.StationsRefreshInterval)
	}

	if cfg.StoreMaxHistory, err = getenvInt("STORE_MAX_HISTORY", 64); err != nil {
		return nil, err
	}
	if cfg.StoreMaxAge, err = getenvDuration("STORE_MAX_AGE", "24h"); err != nil {
		return nil, err
	}

	cfg.ArchiveDBPath = os.Getenv("ARCHIVE_DB_PATH")
	cfg.RawDataDir = getenvDefault("RAW_DATA_DIR", "data/raw")
	cfg.Port = getenvDefault("PORT", "8080")

	cfg.AppEnv = strings.TrimSpace(getenvDefault("APP_ENV", "dev"))
	switch cfg.AppEnv {
	case "dev", "prod":
	default:
		return nil, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", cfg.AppEnv)
	}

	if cfg.LogLevel, err = ParseLogLevel(getenvDefault("LOG_LEVEL", "info")); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ParseLogLevel maps a LOG_LEVEL value onto a slog level.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

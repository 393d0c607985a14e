// Package ftpfetch retrieves files from the NOAA ISD archive over anonymous FTP.
package ftpfetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/textproto"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/sony/gobreaker"

	"github.com/i474232898/noaastn/internal/common"
	"github.com/i474232898/noaastn/internal/noaa"
)

// ErrUnavailable is returned while the circuit breaker is open.
var ErrUnavailable = errors.New("ftp archive unavailable")

var errNoAddr = errors.New("ftp address not configured")

// Config holds the connection settings of the archive.
type Config struct {
	Addr     string
	User     string
	Password string
	Timeout  time.Duration
}

// conn is the subset of *ftp.ServerConn used by Client.
type conn interface {
	Login(user, password string) error
	Retr(path string) (io.ReadCloser, error)
	Quit() error
}

type dialFunc func(ctx context.Context, addr string, timeout time.Duration) (conn, error)

// Client implements noaa.Fetcher. Each Retrieve uses its own connection.
type Client struct {
	cfg     Config
	dial    dialFunc
	circuit *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewClient creates a Client. A nil logger uses slog.Default.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.User == "" {
		cfg.User = "anonymous"
		cfg.Password = "anonymous"
	}
	return newClient(cfg, dialServer, logger)
}

func newClient(cfg Config, dial dialFunc, logger *slog.Logger) *Client {
	logger = logger.With("component", "ftp", "addr", cfg.Addr)

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "noaa-ftp",
		MaxRequests: 1,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
		// A missing station-year is an answer, not a transport failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, noaa.ErrNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &Client{
		cfg:     cfg,
		dial:    dial,
		circuit: cb,
		logger:  logger,
	}
}

// Retrieve downloads the file at path. A 550 reply yields an error wrapping noaa.ErrNotFound.
func (c *Client) Retrieve(ctx context.Context, path string) ([]byte, error) {
	if c.cfg.Addr == "" {
		return nil, errNoAddr
	}

	result, err := c.circuit.Execute(func() (interface{}, error) {
		return c.retrieve(ctx, path)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return nil, err
	}

	data, ok := result.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}
	return data, nil
}

func (c *Client) retrieve(ctx context.Context, path string) ([]byte, error) {
	started := time.Now()

	sc, err := c.dial(ctx, c.cfg.Addr, c.cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("ftp dial %s: %w", c.cfg.Addr, err)
	}
	defer func() {
		if err := sc.Quit(); err != nil {
			c.logger.Debug("ftp quit failed", "err", err)
		}
	}()

	if err := sc.Login(c.cfg.User, c.cfg.Password); err != nil {
		return nil, fmt.Errorf("ftp login: %w", err)
	}

	resp, err := sc.Retr(path)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", noaa.ErrNotFound, path)
		}
		return nil, fmt.Errorf("ftp retr %s: %w", path, err)
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("ftp read %s: %w", path, err)
	}

	c.logger.Debug("ftp retrieve complete", "path", path, "bytes", len(data), "took", time.Since(started))
	return data, nil
}

func isNotFound(err error) bool {
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		return protoErr.Code == ftp.StatusFileUnavailable
	}
	return common.HasAny(err.Error(), "550", "no such file", "not found")
}

// serverConn adapts *ftp.ServerConn to conn.
type serverConn struct {
	*ftp.ServerConn
}

func (s serverConn) Retr(path string) (io.ReadCloser, error) {
	return s.ServerConn.Retr(path)
}

func dialServer(ctx context.Context, addr string, timeout time.Duration) (conn, error) {
	opts := []ftp.DialOption{ftp.DialWithContext(ctx)}
	if timeout > 0 {
		opts = append(opts, ftp.DialWithTimeout(timeout))
	}
	sc, err := ftp.Dial(addr, opts...)
	if err != nil {
		return nil, err
	}
	return serverConn{sc}, nil
}

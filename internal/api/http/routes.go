package httpapi

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/i474232898/noaastn/internal/chart"
	"github.com/i474232898/noaastn/internal/noaa"
)

// WeatherService is the subset of *noaa.Service used by the HTTP handlers.
type WeatherService interface {
	GetStationsInfo(ctx context.Context, country string) (*noaa.StationTable, error)
	GetWeatherData(ctx context.Context, stationID string, year int, saveDir string) (*noaa.ObservationTable, error)
}

// Options configures the HTTP handlers.
type Options struct {
	// RawDataDir is where raw files go when a request sets save=true. Empty disables saving.
	RawDataDir string
}

const requestIDKey = "requestid"

// RequestID tags every request with an X-Request-ID, reusing the caller's when present.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(fiber.HeaderXRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(fiber.HeaderXRequestID, id)
		c.Locals(requestIDKey, id)
		return c.Next()
	}
}

// ErrorHandler renders errors as JSON, mapping service sentinels onto status codes.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(c *fiber.Ctx, err error) error {
		code := StatusFor(err)
		if code >= fiber.StatusInternalServerError {
			logger.Error("request failed",
				"method", c.Method(),
				"path", c.Path(),
				"request_id", c.Locals(requestIDKey),
				"err", err)
		}
		return c.Status(code).JSON(fiber.Map{
			"error":   true,
			"message": err.Error(),
		})
	}
}

// StatusFor returns the HTTP status of an error returned by a handler.
func StatusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, noaa.ErrInvalidInput):
		return fiber.StatusBadRequest
	case errors.Is(err, noaa.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, chart.ErrInsufficientData):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service WeatherService, opts Options) {
	h := &handlers{service: service, opts: opts}

	v1 := app.Group("/api/v1")
	v1.Get("/stations", h.stations)
	v1.Get("/observations/:station/:year", h.observations)
	v1.Get("/charts/:station/:year", h.chart)
}

type handlers struct {
	service WeatherService
	opts    Options
}

func (h *handlers) stations(c *fiber.Ctx) error {
	country := c.Query("country", noaa.AllCountries)

	table, err := h.service.GetStationsInfo(c.UserContext(), country)
	if err != nil {
		return err
	}

	if c.Query("format") == "csv" {
		return sendCSV(c, "stations.csv", table.WriteCSV)
	}
	return c.JSON(fiber.Map{
		"count":    table.Len(),
		"columns":  table.Columns(),
		"stations": table.Rows,
	})
}

func (h *handlers) observations(c *fiber.Ctx) error {
	table, err := h.fetch(c)
	if err != nil {
		return err
	}

	if c.Query("format") == "csv" {
		return sendCSV(c, noaa.ObservationKey(table.StationID, table.Year)+".csv", table.WriteCSV)
	}
	return c.JSON(fiber.Map{
		"station":      table.StationID,
		"year":         table.Year,
		"count":        table.Len(),
		"columns":      table.Columns(),
		"observations": table.Rows,
	})
}

func (h *handlers) chart(c *fiber.Ctx) error {
	variable := c.Query("variable", string(noaa.AirTemp))
	basis := c.Query("basis", string(chart.Monthly))
	format := strings.ToLower(c.Query("format", string(chart.SVG)))

	switch format {
	case "json", string(chart.SVG), string(chart.PNG):
	default:
		return fiber.NewError(fiber.StatusBadRequest, "invalid format: should be svg, png or json")
	}

	table, err := h.fetch(c)
	if err != nil {
		return err
	}

	ch, err := chart.Plot(table, variable, basis)
	if err != nil {
		return err
	}

	if format == "json" {
		return c.JSON(ch)
	}

	var buf bytes.Buffer
	if err := ch.Render(&buf, chart.Format(format)); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, chart.Format(format).ContentType())
	return c.Send(buf.Bytes())
}

func (h *handlers) fetch(c *fiber.Ctx) (*noaa.ObservationTable, error) {
	stationID := c.Params("station")
	year, err := strconv.Atoi(c.Params("year"))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid year: should be an integer")
	}

	saveDir := ""
	if c.QueryBool("save") {
		if h.opts.RawDataDir == "" {
			return nil, fiber.NewError(fiber.StatusBadRequest, "saving raw files is disabled")
		}
		saveDir = h.opts.RawDataDir
	}

	return h.service.GetWeatherData(c.UserContext(), stationID, year, saveDir)
}

func sendCSV(c *fiber.Ctx, name string, write func(w io.Writer) error) error {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		return err
	}
	// Attachment sets the content type from the .csv extension.
	c.Attachment(strings.ReplaceAll(name, ":", "-"))
	return c.Send(buf.Bytes())
}

package chart

import (
	"fmt"
	"io"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Format is an output image format.
type Format string

const (
	SVG Format = "svg"
	PNG Format = "png"
)

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == PNG {
		return "image/png"
	}
	return "image/svg+xml"
}

var markColors = map[string]drawing.Color{
	"orange": drawing.ColorFromHex("FFA500"),
}

// Render draws the chart in the given format.
func (c *Chart) Render(w io.Writer, format Format) error {
	var provider gochart.RendererProvider
	switch format {
	case SVG:
		provider = gochart.SVG
	case PNG:
		provider = gochart.PNG
	default:
		return fmt.Errorf("%w: unsupported chart format %q", ErrInvalidInput, format)
	}

	if len(c.Points) < minPoints {
		return fmt.Errorf("%w: chart has %d points", ErrInsufficientData, len(c.Points))
	}

	color, ok := markColors[c.Mark.Color]
	if !ok {
		return fmt.Errorf("%w: unsupported mark color %q", ErrInvalidInput, c.Mark.Color)
	}

	xs := make([]time.Time, len(c.Points))
	ys := make([]float64, len(c.Points))
	for i, p := range c.Points {
		xs[i] = p.Time
		ys[i] = p.Value
	}

	graph := gochart.Chart{
		Title:      c.Title,
		TitleStyle: gochart.Style{FontSize: c.TitleFontSize},
		Background: gochart.Style{
			Padding: gochart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: gochart.XAxis{
			Name:           c.X.Axis.Title,
			NameStyle:      gochart.Style{FontSize: c.X.Axis.TitleFontSize},
			ValueFormatter: gochart.TimeValueFormatterWithFormat(c.xLayout()),
			Style: gochart.Style{
				FontSize:            c.X.Axis.LabelFontSize,
				TextRotationDegrees: c.X.Axis.LabelAngle,
			},
		},
		YAxis: gochart.YAxis{
			Name:      c.Y.Axis.Title,
			NameStyle: gochart.Style{FontSize: c.Y.Axis.TitleFontSize},
			Style:     gochart.Style{FontSize: c.Y.Axis.LabelFontSize},
			Range:     c.yRange(ys),
		},
		Series: []gochart.Series{
			gochart.TimeSeries{
				Name: c.Y.Field,
				Style: gochart.Style{
					StrokeColor: color,
					StrokeWidth: c.Mark.StrokeWidth,
				},
				XValues: xs,
				YValues: ys,
			},
		},
	}

	if err := graph.Render(provider, w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

func (c *Chart) xLayout() string {
	if c.X.TimeUnit == "month" {
		return "2006-01"
	}
	return "2006-01-02"
}

// yRange spans the data with a small margin. Unless Scale.Zero is set it does not extend to zero.
func (c *Chart) yRange(ys []float64) *gochart.ContinuousRange {
	lo, hi := ys[0], ys[0]
	for _, y := range ys[1:] {
		if y < lo {
			lo = y
		}
		if y > hi {
			hi = y
		}
	}
	if c.Y.Scale.Zero {
		if lo > 0 {
			lo = 0
		}
		if hi < 0 {
			hi = 0
		}
	}

	pad := (hi - lo) * 0.05
	if pad == 0 {
		pad = 1
	}
	return &gochart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

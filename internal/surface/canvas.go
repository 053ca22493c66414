package surface

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/gogpu/gg"
)

// Canvas is a raster Surface backed by a software gg context.
type Canvas struct {
	dc *gg.Context
}

// NewCanvas creates a raster surface of the given pixel size.
func NewCanvas(width, height int) (*Canvas, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: size %dx%d", ErrUnavailable, width, height)
	}
	return &Canvas{dc: gg.NewContext(width, height)}, nil
}

func (c *Canvas) Width() float64  { return float64(c.dc.Width()) }
func (c *Canvas) Height() float64 { return float64(c.dc.Height()) }

func (c *Canvas) Clear(color string) {
	c.dc.ResetClip()
	c.dc.ClearPath()
	c.dc.ClearWithColor(gg.Hex(color))
}

func (c *Canvas) FillCircle(x, y, r float64, fill Paint) {
	c.dc.DrawCircle(x, y, r)
	c.fill(fill)
}

func (c *Canvas) StrokeCircle(x, y, r float64, stroke Stroke) {
	c.dc.DrawCircle(x, y, r)
	c.stroke(stroke)
}

func (c *Canvas) Line(x1, y1, x2, y2 float64, stroke Stroke) {
	c.dc.DrawLine(x1, y1, x2, y2)
	c.stroke(stroke)
}

func (c *Canvas) FillRoundedRect(x, y, w, h, r float64, fill Paint) {
	c.dc.DrawRoundedRectangle(x, y, w, h, r)
	c.fill(fill)
}

func (c *Canvas) StrokeRoundedRect(x, y, w, h, r float64, stroke Stroke) {
	c.dc.DrawRoundedRectangle(x, y, w, h, r)
	c.stroke(stroke)
}

func (c *Canvas) PushClipRect(x, y, w, h float64) {
	c.dc.Push()
	c.dc.ClipRect(x, y, w, h)
}

func (c *Canvas) PopClip() {
	c.dc.Pop()
}

// EncodePNG writes the current raster as PNG.
func (c *Canvas) EncodePNG(w io.Writer) error {
	return c.dc.EncodePNG(w)
}

func (c *Canvas) fill(p Paint) {
	c.dc.SetFillBrush(brush(p))
	if err := c.dc.Fill(); err != nil {
		slog.Debug("canvas fill", "error", err)
	}
}

func (c *Canvas) stroke(s Stroke) {
	c.dc.SetStrokeBrush(gg.SolidHex(s.Color))
	c.dc.SetLineWidth(s.Width)
	if len(s.Dash) > 0 {
		c.dc.SetDash(s.Dash...)
	} else {
		c.dc.ClearDash()
	}
	if err := c.dc.Stroke(); err != nil {
		slog.Debug("canvas stroke", "error", err)
	}
}

func brush(p Paint) gg.Brush {
	g := p.Gradient
	if g == nil {
		return gg.SolidHex(p.Color)
	}
	switch g.Kind {
	case GradientLinear:
		b := gg.NewLinearGradientBrush(g.X0, g.Y0, g.X1, g.Y1)
		for _, s := range g.Stops {
			b.AddColorStop(s.Offset, gg.Hex(s.Color))
		}
		return b
	case GradientRadial:
		b := gg.NewRadialGradientBrush(g.X0, g.Y0, g.R0, g.R1)
		for _, s := range g.Stops {
			b.AddColorStop(s.Offset, gg.Hex(s.Color))
		}
		return b
	}
	if len(g.Stops) > 0 {
		return gg.SolidHex(g.Stops[0].Color)
	}
	return gg.Solid(gg.Transparent)
}

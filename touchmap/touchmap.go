// Package touchmap converts raw touch panel readings into display
// coordinates, using a per-axis linear calibration followed by one of
// the four display rotations.
package touchmap

import (
	"fmt"
	"image"

	"golang.org/x/image/math/f32"
	"tinygo.org/x/drivers"
	"touchkit.dev/affine"
)

// Calibration describes a panel: its size in pixels and the raw
// readings at its edges.
type Calibration struct {
	Width  int `cbor:"1,keyasint"`
	Height int `cbor:"2,keyasint"`
	MinX   int `cbor:"3,keyasint"`
	MaxX   int `cbor:"4,keyasint"`
	MinY   int `cbor:"5,keyasint"`
	MaxY   int `cbor:"6,keyasint"`
}

// Mapper maps raw readings to pixels. It is immutable and safe for
// concurrent use.
type Mapper struct {
	width, height int
	// t maps raw readings to panel pixels. Its off-diagonal
	// elements are zero.
	t f32.Aff3
}

func New(c Calibration) (*Mapper, error) {
	if c.Width <= 0 || c.Height <= 0 {
		return nil, fmt.Errorf("touchmap: invalid panel size %dx%d", c.Width, c.Height)
	}
	if c.MaxX <= c.MinX {
		return nil, fmt.Errorf("touchmap: empty x range [%d,%d]", c.MinX, c.MaxX)
	}
	if c.MaxY <= c.MinY {
		return nil, fmt.Errorf("touchmap: empty y range [%d,%d]", c.MinY, c.MaxY)
	}
	sx, ox := axis(c.Width, c.MinX, c.MaxX)
	sy, oy := axis(c.Height, c.MinY, c.MaxY)
	return &Mapper{
		width:  c.Width,
		height: c.Height,
		t:      affine.Mul(affine.Offsetting(f32.Vec2{ox, oy}), affine.Scaling(f32.Vec2{sx, sy})),
	}, nil
}

// axis returns the scale and offset that map lo to 0 and hi to size.
func axis(size, lo, hi int) (scale, offset float32) {
	span := float32(hi - lo)
	return float32(size) / span, -float32(lo) * float32(size) / span
}

// Size returns the panel size.
func (m *Mapper) Size() image.Point {
	return image.Pt(m.width, m.height)
}

// Scale maps a raw reading to panel pixels, limited to the panel
// bounds.
func (m *Mapper) Scale(raw image.Point) image.Point {
	p := affine.Transform(m.t, f32.Vec2{float32(raw.X), float32(raw.Y)})
	return image.Pt(clamp(p[0], m.width), clamp(p[1], m.height))
}

// Map scales raw and rotates the result for a display of the given
// dimensions. An unknown rotation returns raw as is, neither scaled
// nor rotated.
func (m *Mapper) Map(raw image.Point, display image.Point, r drivers.Rotation) image.Point {
	switch r {
	case drivers.Rotation0, drivers.Rotation90, drivers.Rotation180, drivers.Rotation270:
	default:
		return raw
	}
	p := m.Scale(raw)
	w, h := display.X, display.Y
	switch r {
	case drivers.Rotation90:
		return image.Pt(p.Y, h-p.X)
	case drivers.Rotation180:
		return image.Pt(w-p.X, h-p.Y)
	case drivers.Rotation270:
		return image.Pt(w-p.Y, p.X)
	default:
		return p
	}
}

// clamp truncates v to [0, limit]. Readings below the calibrated
// minimum map to 0.
func clamp(v float32, limit int) int {
	if !(v > 0) {
		return 0
	}
	if v >= float32(limit) {
		return limit
	}
	return int(v)
}

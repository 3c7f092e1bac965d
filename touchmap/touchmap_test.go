package touchmap

import (
	"image"
	"path/filepath"
	"sync"
	"testing"

	"tinygo.org/x/drivers"
)

// identity maps readings one to one onto a 240x320 panel.
var identity = Calibration{Width: 240, Height: 320, MaxX: 240, MaxY: 320}

func mustNew(t *testing.T, c Calibration) *Mapper {
	t.Helper()
	m, err := New(c)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func TestCalibrationLimits(t *testing.T) {
	cals := []Calibration{
		{Width: 240, Height: 320, MinX: 550, MaxX: 3600, MinY: 350, MaxY: 3700},
		{Width: 480, Height: 272, MinX: 100, MaxX: 4000, MinY: 200, MaxY: 3900},
		{Width: 320, Height: 240, MinX: 0, MaxX: 4095, MinY: 0, MaxY: 4095},
	}
	for _, c := range cals {
		m := mustNew(t, c)
		if got := m.Scale(image.Pt(c.MinX, c.MinY)); got != (image.Point{}) {
			t.Errorf("%+v: minimum maps to %v, want (0,0)", c, got)
		}
		got := m.Scale(image.Pt(c.MaxX, c.MaxY))
		if abs(got.X-c.Width) > 1 || abs(got.Y-c.Height) > 1 {
			t.Errorf("%+v: maximum maps to %v, want (%d,%d)", c, got, c.Width, c.Height)
		}
		mid := m.Scale(image.Pt((c.MinX+c.MaxX)/2, (c.MinY+c.MaxY)/2))
		if abs(mid.X-c.Width/2) > 1 || abs(mid.Y-c.Height/2) > 1 {
			t.Errorf("%+v: center maps to %v, want (%d,%d)", c, mid, c.Width/2, c.Height/2)
		}
	}
}

func TestClamp(t *testing.T) {
	m := mustNew(t, Calibration{Width: 240, Height: 320, MinX: 550, MaxX: 3600, MinY: 350, MaxY: 3700})
	tests := []struct {
		raw, want image.Point
	}{
		{image.Pt(4095, 4095), image.Pt(240, 320)},
		{image.Pt(0, 0), image.Pt(0, 0)},
		{image.Pt(100, 4095), image.Pt(0, 320)},
	}
	for _, test := range tests {
		if got := m.Scale(test.raw); got != test.want {
			t.Errorf("Scale(%v) = %v, want %v", test.raw, got, test.want)
		}
	}
}

func TestRotation(t *testing.T) {
	m := mustNew(t, identity)
	display := image.Pt(240, 320)
	raw := image.Pt(100, 50)
	tests := []struct {
		r    drivers.Rotation
		want image.Point
	}{
		{drivers.Rotation0, image.Pt(100, 50)},
		{drivers.Rotation90, image.Pt(50, 220)},
		{drivers.Rotation180, image.Pt(140, 270)},
		{drivers.Rotation270, image.Pt(190, 100)},
	}
	for _, test := range tests {
		if got := m.Map(raw, display, test.r); got != test.want {
			t.Errorf("Map(%v, %v, %d) = %v, want %v", raw, display, test.r, got, test.want)
		}
	}
}

func TestUnknownRotation(t *testing.T) {
	m := mustNew(t, Calibration{Width: 240, Height: 320, MinX: 550, MaxX: 3600, MinY: 350, MaxY: 3700})
	raw := image.Pt(2000, 3000)
	for _, r := range []drivers.Rotation{4, 7, 255} {
		if got := m.Map(raw, image.Pt(240, 320), r); got != raw {
			t.Errorf("Map(%v) with rotation %d = %v, want the raw reading", raw, r, got)
		}
	}
}

func TestInvalidCalibration(t *testing.T) {
	cals := []Calibration{
		{},
		{Width: 240, Height: 320, MinX: 100, MaxX: 100, MaxY: 10},
		{Width: 240, Height: 320, MaxX: 10, MinY: 20, MaxY: 10},
		{Width: -1, Height: 320, MaxX: 10, MaxY: 10},
	}
	for _, c := range cals {
		if _, err := New(c); err == nil {
			t.Errorf("New(%+v) succeeded", c)
		}
	}
}

func TestConcurrentMap(t *testing.T) {
	m := mustNew(t, identity)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for x := 0; x <= 240; x++ {
				if got := m.Map(image.Pt(x, 0), image.Pt(240, 320), drivers.Rotation0); got.X != x {
					t.Errorf("Map(%d, 0) = %v", x, got)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestCalibrationFile(t *testing.T) {
	c := Calibration{Width: 240, Height: 320, MinX: 550, MaxX: 3600, MinY: 350, MaxY: 3700}
	path := filepath.Join(t.TempDir(), "touch.cal")
	if err := c.Save(path); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got != c {
		t.Errorf("loaded %+v, want %+v", got, c)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.cal")); err == nil {
		t.Error("loaded missing file")
	}
}

func TestDecodeInvalid(t *testing.T) {
	inputs := [][]byte{
		{},
		{0xff},
		// {"x": 1}: unknown field.
		{0xa1, 0x61, 'x', 0x01},
		// {1: 240, 1: 240}: duplicate key.
		{0xa2, 0x01, 0x18, 0xf0, 0x01, 0x18, 0xf0},
	}
	for _, in := range inputs {
		if c, err := Decode(in); err == nil {
			t.Errorf("Decode(%#x) = %+v, want error", in, c)
		}
	}
}

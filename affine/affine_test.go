package affine

import (
	"math"
	"testing"

	"golang.org/x/image/math/f32"
)

func eq(p1, p2 f32.Vec2) bool {
	tol := 1e-5
	dx, dy := p2[0]-p1[0], p2[1]-p1[1]
	return math.Abs(math.Sqrt(float64(dx*dx+dy*dy))) < tol
}

func TestTransformScaleAround(t *testing.T) {
	p := f32.Vec2{3, 5}
	pt := Transform(Mul(Offsetting(f32.Vec2{1, 1}), Scaling(f32.Vec2{2, -1}), Offsetting(f32.Vec2{-1, -1})), p)
	target := f32.Vec2{5, -3}
	if !eq(pt, target) {
		t.Errorf("Scale not as expected, got %v, want %v", pt, target)
	}
}

func TestMulOrder(t *testing.T) {
	tests := []struct {
		m    f32.Aff3
		want f32.Vec2
	}{
		// Scale first, then offset.
		{Mul(Offsetting(f32.Vec2{10, 20}), Scaling(f32.Vec2{2, 3})), f32.Vec2{12, 23}},
		// Offset first, then scale.
		{Mul(Scaling(f32.Vec2{2, 3}), Offsetting(f32.Vec2{10, 20})), f32.Vec2{22, 63}},
		{Mul(Scaling(f32.Vec2{2, 3})), f32.Vec2{2, 3}},
	}
	for i, test := range tests {
		if got := Transform(test.m, f32.Vec2{1, 1}); !eq(got, test.want) {
			t.Errorf("%d: got %v, want %v", i, got, test.want)
		}
	}
}

package core

import (
	"math"
	"testing"
)

func TestCircleOverlaps(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Circle
		expected bool
	}{
		{
			name:     "overlapping",
			a:        Circle{Center: V(0, 0), R: 10},
			b:        Circle{Center: V(15, 0), R: 10},
			expected: true,
		},
		{
			name:     "far apart",
			a:        Circle{Center: V(0, 0), R: 10},
			b:        Circle{Center: V(50, 50), R: 10},
			expected: false,
		},
		{
			name:     "touching (no overlap)",
			a:        Circle{Center: V(0, 0), R: 10},
			b:        Circle{Center: V(20, 0), R: 10},
			expected: false,
		},
		{
			name:     "contained",
			a:        Circle{Center: V(0, 0), R: 30},
			b:        Circle{Center: V(5, 5), R: 2},
			expected: true,
		},
		{
			name:     "diagonal overlap",
			a:        Circle{Center: V(0, 0), R: 10},
			b:        Circle{Center: V(10, 10), R: 5},
			expected: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := tc.a.Overlaps(tc.b)
			if result != tc.expected {
				t.Errorf("Overlaps() = %v, expected %v", result, tc.expected)
			}
			// Also test symmetry
			resultReverse := tc.b.Overlaps(tc.a)
			if resultReverse != tc.expected {
				t.Errorf("Overlaps() (reversed) = %v, expected %v", resultReverse, tc.expected)
			}
		})
	}
}

func TestRectContains(t *testing.T) {
	r := NewRect(10, 10, 20, 15)

	tests := []struct {
		name     string
		p        Vec
		expected bool
	}{
		{"inside", V(15, 15), true},
		{"top-left corner", V(10, 10), true},
		{"bottom-right corner", V(30, 25), true},
		{"outside left", V(5, 15), false},
		{"outside right", V(35, 15), false},
		{"outside top", V(15, 5), false},
		{"outside bottom", V(15, 30), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := r.Contains(tc.p)
			if result != tc.expected {
				t.Errorf("Contains(%v) = %v, expected %v", tc.p, result, tc.expected)
			}
		})
	}
}

func TestRectContainsCircle(t *testing.T) {
	r := NewRect(0, 0, 100, 100)
	if !r.ContainsCircle(Circle{Center: V(50, 50), R: 10}) {
		t.Error("centered circle should fit")
	}
	if r.ContainsCircle(Circle{Center: V(5, 50), R: 10}) {
		t.Error("circle crossing the left edge should not fit")
	}
}

func TestRectEdges(t *testing.T) {
	r := NewRect(5, 10, 20, 15)

	if r.Width() != 20 {
		t.Errorf("Width() = %v, expected 20", r.Width())
	}
	if r.Height() != 15 {
		t.Errorf("Height() = %v, expected 15", r.Height())
	}
	if c := r.Center(); c != V(15, 17.5) {
		t.Errorf("Center() = %v, expected (15, 17.5)", c)
	}
	if !r.Intersects(NewRect(20, 20, 10, 10)) {
		t.Error("Intersects() should report overlap")
	}
	if r.Intersects(NewRect(25, 10, 10, 10)) {
		t.Error("adjacent rects should not intersect")
	}
}

func TestVecOps(t *testing.T) {
	a, b := V(3, 4), V(1, 1)

	if a.Len() != 5 {
		t.Errorf("Len() = %v, expected 5", a.Len())
	}
	if got := a.Sub(b); got != V(2, 3) {
		t.Errorf("Sub() = %v", got)
	}
	if got := a.Add(b).Scale(2); got != V(8, 10) {
		t.Errorf("Add().Scale() = %v", got)
	}
	if got := V(0, 0).Lerp(V(10, 20), 0.25); got != V(2.5, 5) {
		t.Errorf("Lerp() = %v", got)
	}
	if got := V(0, 1).Angle(); math.Abs(got-math.Pi/2) > 1e-9 {
		t.Errorf("Angle() = %v, expected pi/2", got)
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		val, min, max, expected float64
	}{
		{5.5, 0, 10, 5.5},  // within range
		{-5.5, 0, 10, 0},   // below min
		{15.5, 0, 10, 10},  // above max
		{0, 0, 10, 0},      // at min
		{10, 0, 10, 10},    // at max
	}

	for _, tc := range tests {
		result := Clamp(tc.val, tc.min, tc.max)
		if result != tc.expected {
			t.Errorf("Clamp(%f, %f, %f) = %f, expected %f", tc.val, tc.min, tc.max, result, tc.expected)
		}
	}
}

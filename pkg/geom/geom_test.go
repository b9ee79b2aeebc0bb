package geom

import "testing"

func TestRectOps(t *testing.T) {
	r := R(10, 10, 100, 50)
	if !r.Contains(Point{10, 10}) || r.Contains(Point{110, 20}) {
		t.Error("Contains edges wrong")
	}
	if got := r.Inset(Edges{1, 2, 3, 4}); got != R(14, 11, 94, 46) {
		t.Errorf("Inset = %v", got)
	}
	if got := r.Inset(Edges{Left: 200}); got.Width != 0 {
		t.Errorf("Inset width should clamp to 0, got %v", got.Width)
	}
	if got := r.Union(R(0, 0, 5, 5)); got != R(0, 0, 110, 60) {
		t.Errorf("Union = %v", got)
	}
	if got := (Rect{}).Union(r); got != r {
		t.Errorf("empty Union = %v", got)
	}
	if _, ok := r.Intersect(R(200, 200, 5, 5)); ok {
		t.Error("disjoint rects intersect")
	}
	if got, _ := r.Intersect(R(0, 0, 20, 20)); got != R(10, 10, 10, 10) {
		t.Errorf("Intersect = %v", got)
	}
}

func TestRoundedContains(t *testing.T) {
	r := R(0, 0, 100, 100)
	radii := Radii{20, 20, 20, 20}
	tests := []struct {
		p    Point
		want bool
	}{
		{Point{50, 50}, true},
		{Point{1, 1}, false},
		{Point{99, 1}, false},
		{Point{10, 10}, true},
		{Point{1, 50}, true},
		{Point{150, 50}, false},
	}
	for _, tt := range tests {
		if got := RoundedContains(r, radii, tt.p); got != tt.want {
			t.Errorf("RoundedContains(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

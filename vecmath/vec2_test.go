package vecmath

import "testing"

func TestVec2Arithmetic(t *testing.T) {
	a := Vec2{1, 2}
	b := Vec2{3, -1}

	if got := a.Add(b); got != (Vec2{4, 1}) {
		t.Errorf("Add = %v, want {4 1}", got)
	}
	if got := a.Sub(b); got != (Vec2{-2, 3}) {
		t.Errorf("Sub = %v, want {-2 3}", got)
	}
	if got := a.Scale(2); got != (Vec2{2, 4}) {
		t.Errorf("Scale = %v, want {2 4}", got)
	}
	if got := a.Dot(b); got != 1 {
		t.Errorf("Dot = %v, want 1", got)
	}
	if got := a.Cross(b); got != -7 {
		t.Errorf("Cross = %v, want -7", got)
	}
	if got := a.Perp(); got != (Vec2{-2, 1}) {
		t.Errorf("Perp = %v, want {-2 1}", got)
	}
}

func TestVec2Unit(t *testing.T) {
	if got := (Vec2{}).Unit(); got != Zero {
		t.Errorf("Unit of zero vector = %v, want zero", got)
	}

	u := (Vec2{3, 4}).Unit()
	if want := (Vec2{0.6, 0.8}); absDiff(u.X, want.X) > 1e-6 || absDiff(u.Y, want.Y) > 1e-6 {
		t.Errorf("Unit = %v, want %v", u, want)
	}
	if absDiff(u.Len(), 1) > 1e-6 {
		t.Errorf("Unit vector length = %v, want 1", u.Len())
	}
}

func absDiff(a, b float32) float32 {
	if a > b {
		return a - b
	}
	return b - a
}

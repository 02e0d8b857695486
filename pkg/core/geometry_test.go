package core

import "testing"

func TestRect_CenterMatchesPointAtHalf(t *testing.T) {
	rects := []Rect{
		{X: 0, Y: 0, Width: 100, Height: 50},
		{X: 17, Y: 333, Width: 301, Height: 77},
		{X: 0.5, Y: 1.25, Width: 3, Height: 9},
	}
	for _, r := range rects {
		if r.Center() != r.PointAt(0.5, 0.5) {
			t.Errorf("%s: Center() = %s, PointAt(0.5,0.5) = %s", r, r.Center(), r.PointAt(0.5, 0.5))
		}
	}
}

func TestRect_PointAt(t *testing.T) {
	r := Rect{X: 100, Y: 200, Width: 400, Height: 80}
	if got := r.PointAt(0.25, 1); got != (Point{X: 200, Y: 280}) {
		t.Errorf("PointAt(0.25, 1) = %s, want (200,280)", got)
	}
}

func TestRect_HasArea(t *testing.T) {
	tests := []struct {
		rect Rect
		want bool
	}{
		{Rect{Width: 10, Height: 10}, true},
		{Rect{Width: 0, Height: 10}, false},
		{Rect{Width: 10, Height: 0}, false},
		{Rect{}, false},
	}
	for _, tt := range tests {
		if got := tt.rect.HasArea(); got != tt.want {
			t.Errorf("%s.HasArea() = %v, want %v", tt.rect, got, tt.want)
		}
	}
}

func TestSize_Contains(t *testing.T) {
	s := Size{Width: 1080, Height: 1920}
	tests := []struct {
		p    Point
		want bool
	}{
		{Point{X: 0, Y: 0}, true},
		{Point{X: 1079, Y: 1919}, true},
		{Point{X: 540, Y: 960}, true},
		{Point{X: 1080, Y: 100}, false},
		{Point{X: 100, Y: 1920}, false},
		{Point{X: -1, Y: 10}, false},
		{Point{X: 10, Y: 1921}, false},
		{Point{X: 1081, Y: 0}, false},
	}
	for _, tt := range tests {
		if got := s.Contains(tt.p); got != tt.want {
			t.Errorf("Contains(%s) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestSize_Resolve(t *testing.T) {
	s := Size{Width: 1000, Height: 2000}
	if got := s.Resolve(0.2, 0.5); got != (Point{X: 200, Y: 1000}) {
		t.Errorf("Resolve(0.2, 0.5) = %s, want (200,1000)", got)
	}
	if got := s.Resolve(0.7, 0.3); got != (Point{X: 700, Y: 600}) {
		t.Errorf("Resolve(0.7, 0.3) = %s, want (700,600)", got)
	}
	if got := s.Resolve(1, 1); got != (Point{X: 999, Y: 1999}) {
		t.Errorf("Resolve(1, 1) = %s, want (999,1999)", got)
	}
	if got := s.Resolve(0, 0); !s.Contains(got) {
		t.Errorf("Resolve(0, 0) = %s is outside %s", got, s)
	}
}

func TestValidFraction(t *testing.T) {
	for _, v := range []float64{0, 0.5, 1} {
		if !ValidFraction(v) {
			t.Errorf("ValidFraction(%g) = false", v)
		}
	}
	for _, v := range []float64{-0.01, 1.01, 2} {
		if ValidFraction(v) {
			t.Errorf("ValidFraction(%g) = true", v)
		}
	}
}

func TestScrollDirection_Opposite(t *testing.T) {
	for _, d := range []ScrollDirection{ScrollDown, ScrollUp, ScrollLeft, ScrollRight} {
		if d.Opposite() == d {
			t.Errorf("%s.Opposite() returned itself", d)
		}
		if d.Opposite().Opposite() != d {
			t.Errorf("%s.Opposite().Opposite() = %s", d, d.Opposite().Opposite())
		}
	}
}

func TestParseScrollDirection(t *testing.T) {
	tests := map[string]ScrollDirection{
		"down":  ScrollDown,
		"UP":    ScrollUp,
		" left": ScrollLeft,
		"right": ScrollRight,
	}
	for in, want := range tests {
		got, err := ParseScrollDirection(in)
		if err != nil {
			t.Fatalf("ParseScrollDirection(%q) error: %v", in, err)
		}
		if got != want {
			t.Errorf("ParseScrollDirection(%q) = %s, want %s", in, got, want)
		}
	}

	if _, err := ParseScrollDirection("sideways"); err == nil {
		t.Error("expected error for invalid direction")
	}
	if ScrollDirection(42).Valid() {
		t.Error("ScrollDirection(42).Valid() = true")
	}
}

func TestLocator_Validate(t *testing.T) {
	if err := ByXPath(`//android.widget.TextView[@text="Opslaan"]`).Validate(); err != nil {
		t.Errorf("valid xpath locator: %v", err)
	}
	if err := (Locator{Strategy: "css selector", Expression: "#x"}).Validate(); err == nil {
		t.Error("expected error for unsupported strategy")
	}
	if err := ByID("  ").Validate(); err == nil {
		t.Error("expected error for empty expression")
	}
}

func TestParseStrategy_Aliases(t *testing.T) {
	tests := map[string]Strategy{
		"xpath":            StrategyXPath,
		"accessibilityId":  StrategyAccessibilityID,
		"accessibility id": StrategyAccessibilityID,
		"uiautomator":      StrategyAndroidUIAutomator,
		"class_name":       StrategyClassName,
	}
	for in, want := range tests {
		got, err := ParseStrategy(in)
		if err != nil {
			t.Fatalf("ParseStrategy(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ParseStrategy(%q) = %q, want %q", in, got, want)
		}
	}
}

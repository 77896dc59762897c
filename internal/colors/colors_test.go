package colors

import (
	"math"
	"testing"

	"github.com/bft-labs/lumux/internal/domain"
)

func near(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func TestRGBToXY(t *testing.T) {
	tests := []struct {
		name string
		in   domain.RGB
		want domain.XY
	}{
		{name: "black is neutral", in: domain.RGB{}, want: domain.NeutralXY},
		{name: "white", in: domain.RGB{R: 255, G: 255, B: 255}, want: domain.XY{X: 0.3227, Y: 0.3290}},
		{name: "red", in: domain.RGB{R: 255}, want: domain.XY{X: 0.7006, Y: 0.2993}},
		{name: "blue", in: domain.RGB{B: 255}, want: domain.XY{X: 0.1355, Y: 0.0399}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RGBToXY(tt.in)
			if !near(got.X, tt.want.X, 1e-3) || !near(got.Y, tt.want.Y, 1e-3) {
				t.Errorf("RGBToXY(%+v) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestGammaCorrect(t *testing.T) {
	c := domain.RGB{R: 255, G: 127.5, B: 0}
	if got := GammaCorrect(c, 1); got != c {
		t.Errorf("gamma 1 changed color: %+v", got)
	}
	got := GammaCorrect(c, 2)
	if got.R != 255 || !near(got.G, 63.75, 1e-9) || got.B != 0 {
		t.Errorf("GammaCorrect(gamma=2) = %+v", got)
	}
}

func TestBrightness(t *testing.T) {
	white := domain.RGB{R: 255, G: 255, B: 255}
	tests := []struct {
		name  string
		in    domain.RGB
		scale float64
		want  float64
	}{
		{name: "white", in: white, scale: 1, want: 254},
		{name: "black floors at one", in: domain.RGB{}, scale: 1, want: 1},
		{name: "half scale", in: white, scale: 0.5, want: 127},
		{name: "over scale caps", in: white, scale: 2, want: 254},
		{name: "zero scale", in: white, scale: 0, want: 1},
	}
	for _, tt := range tests {
		if got := Brightness(tt.in, tt.scale); got != tt.want {
			t.Errorf("%s: Brightness() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestAnalyzeUsesCorrectedLuminance(t *testing.T) {
	a := NewAnalyzer(2.2, 1, nil)
	got := a.Analyze(domain.RGB{R: 128, G: 128, B: 128})
	if got.Brightness != 56 {
		t.Errorf("Brightness = %v, want 56", got.Brightness)
	}
	if !near(got.X, 0.3227, 1e-3) || !near(got.Y, 0.3290, 1e-3) {
		t.Errorf("gray xy = %+v", got.XY)
	}
}

func TestAnalyzeClampsToGamut(t *testing.T) {
	a := NewAnalyzer(1, 1, &domain.GamutB)
	got := a.Analyze(domain.RGB{G: 255})
	if !InGamut(got.XY, domain.GamutB) {
		t.Errorf("green %+v outside gamut B after clamp", got.XY)
	}

	all := a.AnalyzeAll(map[string]domain.RGB{"top_0": {R: 255}, "top_1": {}})
	if len(all) != 2 {
		t.Errorf("AnalyzeAll returned %d colors", len(all))
	}
}

func TestClampToGamut(t *testing.T) {
	g := domain.GamutC
	for x := 0.0; x <= 1.0; x += 0.05 {
		for y := 0.0; y <= 1.0; y += 0.05 {
			p := domain.XY{X: x, Y: y}
			once := ClampToGamut(p, g)
			if InGamut(p, g) && once != p {
				t.Fatalf("inside point %+v moved to %+v", p, once)
			}
			twice := ClampToGamut(once, g)
			if !near(once.X, twice.X, 1e-9) || !near(once.Y, twice.Y, 1e-9) {
				t.Fatalf("clamp not idempotent for %+v: %+v then %+v", p, once, twice)
			}
		}
	}
}

func TestClampToGamutNearestEdge(t *testing.T) {
	g := domain.Gamut{
		Red:   domain.XY{X: 1, Y: 0},
		Green: domain.XY{X: 0, Y: 1},
		Blue:  domain.XY{X: 0, Y: 0},
	}
	// Below the blue-red edge.
	got := ClampToGamut(domain.XY{X: 0.5, Y: -0.2}, g)
	if !near(got.X, 0.5, 1e-12) || !near(got.Y, 0, 1e-12) {
		t.Errorf("clamp = %+v, want (0.5, 0)", got)
	}
	// Beyond the red vertex.
	got = ClampToGamut(domain.XY{X: 1.5, Y: -0.5}, g)
	if got != g.Red {
		t.Errorf("clamp = %+v, want red vertex", got)
	}
}

func TestSmootherFirstSeenPassesThrough(t *testing.T) {
	s := NewSmoother()
	c := domain.DeviceColor{XY: domain.XY{X: 0.4, Y: 0.3}, Brightness: 200}
	got := s.Smooth(map[string]domain.DeviceColor{"top_0": c}, 0.2)
	if got["top_0"] != c {
		t.Errorf("first smooth = %+v, want %+v", got["top_0"], c)
	}
}

func TestSmootherConvergesMonotonically(t *testing.T) {
	s := NewSmoother()
	s.Smooth(map[string]domain.DeviceColor{"left_0": {XY: domain.XY{X: 0.1, Y: 0.1}, Brightness: 10}}, 0.3)

	target := domain.DeviceColor{XY: domain.XY{X: 0.5, Y: 0.4}, Brightness: 250}
	prev := domain.DeviceColor{XY: domain.XY{X: 0.1, Y: 0.1}, Brightness: 10}
	for i := 0; i < 60; i++ {
		got := s.Smooth(map[string]domain.DeviceColor{"left_0": target}, 0.3)["left_0"]
		if got.X < prev.X || got.X > target.X || got.Brightness < prev.Brightness || got.Brightness > target.Brightness {
			t.Fatalf("step %d not monotonic: %+v after %+v", i, got, prev)
		}
		prev = got
	}
	if !near(prev.X, target.X, 1e-6) || !near(prev.Brightness, target.Brightness, 1e-4) {
		t.Errorf("did not converge: %+v", prev)
	}

	s.Reset()
	fresh := domain.DeviceColor{Brightness: 5}
	if got := s.Smooth(map[string]domain.DeviceColor{"left_0": fresh}, 0.3)["left_0"]; got != fresh {
		t.Errorf("after Reset = %+v, want passthrough", got)
	}
}

package colors

import "github.com/bft-labs/lumux/internal/domain"

// Analyzer turns zone RGB averages into device colors.
type Analyzer struct {
	gamma           float64
	brightnessScale float64
	gamut           *domain.Gamut
}

// NewAnalyzer creates an analyzer. A nil gamut disables gamut clamping.
func NewAnalyzer(gamma, brightnessScale float64, gamut *domain.Gamut) *Analyzer {
	return &Analyzer{gamma: gamma, brightnessScale: brightnessScale, gamut: gamut}
}

// NewAnalyzerFromSettings creates an analyzer from clamped settings.
func NewAnalyzerFromSettings(s domain.Settings) *Analyzer {
	s = s.Clamp()
	g, _ := domain.GamutByName(s.Gamut)
	return NewAnalyzer(s.Gamma, s.BrightnessScale, g)
}

// Analyze converts one zone color: gamma correction, xy conversion, gamut
// clamping and brightness, the last computed from the corrected color.
func (a *Analyzer) Analyze(c domain.RGB) domain.DeviceColor {
	corrected := GammaCorrect(c, a.gamma)
	xy := RGBToXY(corrected)
	if a.gamut != nil {
		xy = ClampToGamut(xy, *a.gamut)
	}
	return domain.DeviceColor{
		XY:         xy,
		Brightness: Brightness(corrected, a.brightnessScale),
	}
}

// AnalyzeAll converts every zone color.
func (a *Analyzer) AnalyzeAll(zones map[string]domain.RGB) map[string]domain.DeviceColor {
	out := make(map[string]domain.DeviceColor, len(zones))
	for id, c := range zones {
		out[id] = a.Analyze(c)
	}
	return out
}

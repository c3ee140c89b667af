// Package colormath provides hex/RGB/HSL conversion, WCAG luminance and
// contrast computation, and lightness adjustment for theme color synthesis.
package colormath

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// WCAG 2.1 contrast thresholds.
const (
	WCAGAAMinContrast          = 4.5
	WCAGAAMinContrastLargeText = 3.0
	WCAGAAAMinContrast         = 7.0
)

var hexColorRegex = regexp.MustCompile(`^#?[0-9a-fA-F]{6}$`)

// RGB holds 8-bit color channels.
type RGB struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// HSL holds hue in degrees and saturation/lightness as percentages.
type HSL struct {
	H int `json:"h"`
	S int `json:"s"`
	L int `json:"l"`
}

// IsHex reports whether value is a 6-digit hex color, with or without
// a leading #.
func IsHex(value string) bool {
	return hexColorRegex.MatchString(strings.TrimSpace(value))
}

// HexToRGB converts a 6-digit hex color to RGB channels. Invalid input
// returns the zero RGB rather than an error.
func HexToRGB(hex string) RGB {
	value, ok := parseHex(hex)
	if !ok {
		return RGB{}
	}
	return RGB{
		R: int((value >> 16) & 0xFF),
		G: int((value >> 8) & 0xFF),
		B: int(value & 0xFF),
	}
}

// HexToHSL converts a 6-digit hex color to HSL. Invalid input returns
// the zero HSL.
func HexToHSL(hex string) HSL {
	value, ok := parseHex(hex)
	if !ok {
		return HSL{}
	}

	r := float64((value>>16)&0xFF) / 255
	g := float64((value>>8)&0xFF) / 255
	b := float64(value&0xFF) / 255

	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	l := (max + min) / 2

	var h, s float64
	if max != min {
		d := max - min
		if l > 0.5 {
			s = d / (2 - max - min)
		} else {
			s = d / (max + min)
		}
		switch max {
		case r:
			h = (g - b) / d
			if g < b {
				h += 6
			}
		case g:
			h = (b-r)/d + 2
		case b:
			h = (r-g)/d + 4
		}
		h /= 6
	}

	return HSL{
		H: int(math.Round(h * 360)),
		S: int(math.Round(s * 100)),
		L: int(math.Round(l * 100)),
	}
}

// RelativeLuminance computes the WCAG relative luminance of a hex color.
// Invalid input yields 0.
func RelativeLuminance(hex string) float64 {
	rgb := HexToRGB(hex)
	rl := srgbToLinear(float64(rgb.R) / 255)
	gl := srgbToLinear(float64(rgb.G) / 255)
	bl := srgbToLinear(float64(rgb.B) / 255)
	return 0.2126*rl + 0.7152*gl + 0.0722*bl
}

// ContrastRatio computes the WCAG contrast ratio between two hex colors.
// The result is always >= 1.
func ContrastRatio(c1, c2 string) float64 {
	l1 := RelativeLuminance(c1)
	l2 := RelativeLuminance(c2)
	lightest := math.Max(l1, l2)
	darkest := math.Min(l1, l2)
	return (lightest + 0.05) / (darkest + 0.05)
}

// AdjustLightness shifts every channel of a hex color by
// round(2.55*percent), clamping to [0,255]. Positive percent lightens,
// negative darkens. Invalid input returns "#000000".
func AdjustLightness(hex string, percent float64) string {
	value, ok := parseHex(hex)
	if !ok {
		return "#000000"
	}

	delta := int(math.Round(2.55 * percent))
	r := clampChannel(int((value>>16)&0xFF) + delta)
	g := clampChannel(int((value>>8)&0xFF) + delta)
	b := clampChannel(int(value&0xFF) + delta)

	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

// WithFocusAlpha appends a fixed ~20% alpha suffix to a hex color for
// focus-ring variants. The alpha is appended, not blended.
func WithFocusAlpha(hex string) string {
	trimmed := strings.TrimSpace(hex)
	if !hexColorRegex.MatchString(trimmed) {
		return trimmed
	}
	if !strings.HasPrefix(trimmed, "#") {
		trimmed = "#" + trimmed
	}
	return trimmed + "33"
}

func parseHex(hex string) (uint64, bool) {
	trimmed := strings.TrimSpace(hex)
	if !hexColorRegex.MatchString(trimmed) {
		return 0, false
	}
	value, err := strconv.ParseUint(strings.TrimPrefix(trimmed, "#"), 16, 32)
	if err != nil {
		return 0, false
	}
	return value, true
}

func clampChannel(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

func srgbToLinear(value float64) float64 {
	if value <= 0.03928 {
		return value / 12.92
	}
	return math.Pow((value+0.055)/1.055, 2.4)
}

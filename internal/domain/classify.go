package domain

import (
	"math"
	"strconv"
	"strings"
)

// Predictable detection thresholds.
const (
	PredictableMinBrightness = 325.0
	PredictableMinConfidence = 50.0
)

// ConfidenceToPercent normalizes a FIRMS confidence value to [0, 100].
// Numeric values are clamped; VIIRS category letters map to fixed
// percentages (low=30, nominal=60, high=90). Anything else is 0.
func ConfidenceToPercent(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}

	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		if math.IsNaN(v) {
			return 0
		}
		return math.Max(0, math.Min(100, v))
	}

	switch strings.ToLower(raw) {
	case "l", "low":
		return 30
	case "n", "nominal":
		return 60
	case "h", "high":
		return 90
	default:
		return 0
	}
}

// CategorizeBrightness maps bright_ti4 (Kelvin) onto the category ladder:
//   - <320 calm
//   - <340 moderate
//   - <360 high
//   - otherwise severe
//
// Missing or non-finite brightness is BrightnessUnknown.
func CategorizeBrightness(brightness float64) BrightnessCategory {
	if math.IsNaN(brightness) || math.IsInf(brightness, 0) {
		return BrightnessUnknown
	}
	switch {
	case brightness < 320:
		return BrightnessCalm
	case brightness < 340:
		return BrightnessModerate
	case brightness < 360:
		return BrightnessHigh
	default:
		return BrightnessSevere
	}
}

// IsPredictable reports whether a detection is reliable enough to act on.
// NaN brightness never qualifies.
func IsPredictable(brightness, confidencePct float64) bool {
	return brightness >= PredictableMinBrightness && confidencePct >= PredictableMinConfidence
}

// Signature holds the fields the flare heuristic looks at.
type Signature struct {
	DayNight   DayNight
	FRP        float64
	Brightness float64
	Confidence float64
}

// FlareThresholds tunes the gas-flare heuristic. The defaults were picked
// empirically against persistent night-time hotspots over oil fields.
type FlareThresholds struct {
	MaxFRP        float64 // MW
	MaxBrightness float64 // K, exclusive
	MaxConfidence float64 // percent, inclusive
}

// DefaultFlareThresholds returns the shipped heuristic settings.
func DefaultFlareThresholds() FlareThresholds {
	return FlareThresholds{
		MaxFRP:        5,
		MaxBrightness: 335,
		MaxConfidence: 60,
	}
}

// IsLikelyFlare flags small, night-time, low-power detections with a
// sub-fire brightness and at most nominal confidence. Detections missing FRP
// or brightness are never flagged.
func (t FlareThresholds) IsLikelyFlare(s Signature) bool {
	if s.DayNight != Night {
		return false
	}
	if math.IsNaN(s.FRP) || math.IsInf(s.FRP, 0) || s.FRP > t.MaxFRP {
		return false
	}
	if math.IsNaN(s.Brightness) || math.IsInf(s.Brightness, 0) || s.Brightness >= t.MaxBrightness {
		return false
	}
	return s.Confidence <= t.MaxConfidence
}

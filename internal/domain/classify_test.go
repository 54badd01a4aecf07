package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfidenceToPercent(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected float64
	}{
		{"numeric passthrough", "80", 80},
		{"numeric with spaces", " 45.5 ", 45.5},
		{"clamped high", "150", 100},
		{"clamped low", "-3", 0},
		{"viirs low", "l", 30},
		{"viirs nominal", "n", 60},
		{"viirs high", "h", 90},
		{"word low", "LOW", 30},
		{"word nominal", "Nominal", 60},
		{"word high", "high", 90},
		{"unknown token", "medium", 0},
		{"empty", "", 0},
		{"nan literal", "NaN", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ConfidenceToPercent(tt.raw))
		})
	}
}

func TestCategorizeBrightness(t *testing.T) {
	tests := []struct {
		name       string
		brightness float64
		expected   BrightnessCategory
	}{
		{"calm", 300, BrightnessCalm},
		{"moderate lower edge", 320, BrightnessModerate},
		{"moderate", 330, BrightnessModerate},
		{"high lower edge", 340, BrightnessHigh},
		{"severe lower edge", 360, BrightnessSevere},
		{"severe", 410, BrightnessSevere},
		{"nan", math.NaN(), BrightnessUnknown},
		{"infinite", math.Inf(1), BrightnessUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CategorizeBrightness(tt.brightness))
		})
	}
}

func TestIsPredictable(t *testing.T) {
	assert.True(t, IsPredictable(325, 50))
	assert.True(t, IsPredictable(330, 80))
	assert.False(t, IsPredictable(324.9, 90))
	assert.False(t, IsPredictable(400, 49.9))
	assert.False(t, IsPredictable(math.NaN(), 90))
}

func TestFlareThresholds_IsLikelyFlare(t *testing.T) {
	th := DefaultFlareThresholds()

	flare := Signature{DayNight: Night, FRP: 2.1, Brightness: 310, Confidence: 60}

	tests := []struct {
		name     string
		mutate   func(s *Signature)
		expected bool
	}{
		{"classic flare", func(_ *Signature) {}, true},
		{"daytime pass", func(s *Signature) { s.DayNight = Day }, false},
		{"frp at limit", func(s *Signature) { s.FRP = th.MaxFRP }, true},
		{"high frp", func(s *Signature) { s.FRP = 12 }, false},
		{"missing frp", func(s *Signature) { s.FRP = math.NaN() }, false},
		{"brightness at limit", func(s *Signature) { s.Brightness = th.MaxBrightness }, false},
		{"missing brightness", func(s *Signature) { s.Brightness = math.NaN() }, false},
		{"high confidence", func(s *Signature) { s.Confidence = 90 }, false},
		{"low confidence", func(s *Signature) { s.Confidence = 30 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := flare
			tt.mutate(&s)
			assert.Equal(t, tt.expected, th.IsLikelyFlare(s))
			// Same inputs, same answer.
			assert.Equal(t, th.IsLikelyFlare(s), th.IsLikelyFlare(s))
		})
	}
}

func TestFlareThresholds_Custom(t *testing.T) {
	strict := FlareThresholds{MaxFRP: 1, MaxBrightness: 300, MaxConfidence: 30}
	s := Signature{DayNight: Night, FRP: 2.1, Brightness: 310, Confidence: 60}

	assert.True(t, DefaultFlareThresholds().IsLikelyFlare(s))
	assert.False(t, strict.IsLikelyFlare(s))
}

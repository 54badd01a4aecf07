package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// Dataset identifies a FIRMS near-real-time product.
type Dataset string

const (
	DatasetSNPP   Dataset = "VIIRS_SNPP_NRT"
	DatasetNOAA21 Dataset = "VIIRS_NOAA21_NRT"
)

// Query bounds accepted by the orchestrators.
const (
	MinDayWindow   = 1
	MaxDayWindow   = 2
	MaxRadiusMiles = 500.0
)

// ParseDataset accepts a dataset token case-insensitively.
func ParseDataset(s string) (Dataset, error) {
	switch d := Dataset(strings.ToUpper(strings.TrimSpace(s))); d {
	case DatasetSNPP, DatasetNOAA21:
		return d, nil
	default:
		return "", fmt.Errorf("%w: unsupported dataset %q", ErrInvalidArgument, s)
	}
}

// DayNight is the FIRMS day/night pass flag.
type DayNight string

const (
	Day   DayNight = "D"
	Night DayNight = "N"
)

// BrightnessCategory is an ordinal label derived from bright_ti4.
type BrightnessCategory string

const (
	BrightnessUnknown  BrightnessCategory = "unknown"
	BrightnessCalm     BrightnessCategory = "calm"
	BrightnessModerate BrightnessCategory = "moderate"
	BrightnessHigh     BrightnessCategory = "high"
	BrightnessSevere   BrightnessCategory = "severe"
)

// Point is a WGS-84 latitude/longitude pair in degrees.
type Point struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// Filter selects which classified detections are emitted.
type Filter struct {
	ExcludeFlares   bool `json:"excludeFlares"`
	PredictableOnly bool `json:"predictableOnly"`
}

// DefaultFilter matches the map defaults: flares hidden, all confidences shown.
func DefaultFilter() Filter {
	return Filter{ExcludeFlares: true}
}

// FireDetection is one classified satellite hotspot.
type FireDetection struct {
	ID                 string
	Latitude           float64
	Longitude          float64
	Geohash            string
	Brightness         float64 // NaN when missing
	Confidence         float64 // percent, 0-100
	Satellite          string
	Instrument         string
	FRP                float64 // NaN when missing
	DayNight           DayNight
	BrightnessCategory BrightnessCategory
	Predictable        bool
	Timestamp          time.Time

	// DistanceFromCenterMiles is only set for queries around a reference point.
	DistanceFromCenterMiles *float64
}

type fireDetectionJSON struct {
	ID                      string             `json:"id"`
	Latitude                float64            `json:"latitude"`
	Longitude               float64            `json:"longitude"`
	Geohash                 string             `json:"geohash,omitempty"`
	Brightness              *float64           `json:"brightness"`
	Confidence              float64            `json:"confidence"`
	Satellite               string             `json:"satellite"`
	Instrument              string             `json:"instrument"`
	FRP                     *float64           `json:"frp"`
	DayNight                DayNight           `json:"daynight"`
	BrightnessCategory      BrightnessCategory `json:"brightnessCat"`
	Predictable             bool               `json:"predictable"`
	Timestamp               *time.Time         `json:"timestamp,omitempty"`
	DistanceFromCenterMiles *float64           `json:"distanceFromCenter,omitempty"`
}

// MarshalJSON writes missing brightness and FRP as null, since encoding/json
// rejects NaN.
func (d FireDetection) MarshalJSON() ([]byte, error) {
	out := fireDetectionJSON{
		ID:                      d.ID,
		Latitude:                d.Latitude,
		Longitude:               d.Longitude,
		Geohash:                 d.Geohash,
		Brightness:              finiteOrNil(d.Brightness),
		Confidence:              d.Confidence,
		Satellite:               d.Satellite,
		Instrument:              d.Instrument,
		FRP:                     finiteOrNil(d.FRP),
		DayNight:                d.DayNight,
		BrightnessCategory:      d.BrightnessCategory,
		Predictable:             d.Predictable,
		DistanceFromCenterMiles: d.DistanceFromCenterMiles,
	}
	if !d.Timestamp.IsZero() {
		ts := d.Timestamp
		out.Timestamp = &ts
	}
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON; null numbers become NaN.
func (d *FireDetection) UnmarshalJSON(data []byte) error {
	var in fireDetectionJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*d = FireDetection{
		ID:                      in.ID,
		Latitude:                in.Latitude,
		Longitude:               in.Longitude,
		Geohash:                 in.Geohash,
		Brightness:              nanIfNil(in.Brightness),
		Confidence:              in.Confidence,
		Satellite:               in.Satellite,
		Instrument:              in.Instrument,
		FRP:                     nanIfNil(in.FRP),
		DayNight:                in.DayNight,
		BrightnessCategory:      in.BrightnessCategory,
		Predictable:             in.Predictable,
		DistanceFromCenterMiles: in.DistanceFromCenterMiles,
	}
	if in.Timestamp != nil {
		d.Timestamp = in.Timestamp.UTC()
	}
	return nil
}

func finiteOrNil(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func nanIfNil(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

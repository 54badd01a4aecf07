package domain

import (
	"fmt"
	"math"
)

// EarthRadiusMiles is the mean Earth radius used for great-circle distances.
const EarthRadiusMiles = 3958.8

// DistanceMiles returns the haversine great-circle distance between two
// points. It is NaN only when an input is not finite.
func DistanceMiles(lat1, lon1, lat2, lon2 float64) float64 {
	const degToRad = math.Pi / 180
	dLat := (lat2 - lat1) * degToRad
	dLon := (lon2 - lon1) * degToRad

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)

	a := sinLat*sinLat + sinLon*sinLon*math.Cos(lat1*degToRad)*math.Cos(lat2*degToRad)
	// Float error can push a slightly above 1 for antipodal points.
	a = math.Min(a, 1)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMiles * c
}

// ValidCoordinates reports whether lat/lon are finite and inside WGS-84 bounds.
func ValidCoordinates(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// ValidatePoint returns ErrInvalidArgument for non-finite or out-of-range points.
func ValidatePoint(p Point) error {
	if !ValidCoordinates(p.Lat, p.Lon) {
		return fmt.Errorf("%w: coordinates (%v, %v) out of range", ErrInvalidArgument, p.Lat, p.Lon)
	}
	return nil
}

// ValidateRadius requires a finite radius in (0, MaxRadiusMiles].
func ValidateRadius(radiusMiles float64) error {
	if math.IsNaN(radiusMiles) || math.IsInf(radiusMiles, 0) || radiusMiles <= 0 || radiusMiles > MaxRadiusMiles {
		return fmt.Errorf("%w: radiusMiles must be a number in (0, %g]", ErrInvalidArgument, MaxRadiusMiles)
	}
	return nil
}

// ValidateDays requires a day window in [MinDayWindow, MaxDayWindow].
func ValidateDays(days int) error {
	if days < MinDayWindow || days > MaxDayWindow {
		return fmt.Errorf("%w: days must be between %d and %d", ErrInvalidArgument, MinDayWindow, MaxDayWindow)
	}
	return nil
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

package domain

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceMiles(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		expected               float64
		delta                  float64
	}{
		{"identical points", 34.0, -117.5, 34.0, -117.5, 0, 0},
		{"one degree of latitude", 0, 0, 1, 0, 69.09, 0.01},
		{"los angeles to san francisco", 34.0522, -118.2437, 37.7749, -122.4194, 347.4, 1.0},
		{"across the antimeridian", 0, 179.5, 0, -179.5, 69.09, 0.01},
		{"antipodal points", 0, 0, 0, 180, math.Pi * EarthRadiusMiles, 0.001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceMiles(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			assert.InDelta(t, tt.expected, got, tt.delta)
		})
	}
}

func TestDistanceMiles_Symmetric(t *testing.T) {
	points := []Point{
		{Lat: 34.0, Lon: -117.5},
		{Lat: 35.0, Lon: -118.5},
		{Lat: -33.87, Lon: 151.21},
		{Lat: 64.84, Lon: -147.72},
		{Lat: 0, Lon: 0},
		{Lat: 90, Lon: 0},
	}

	for _, a := range points {
		assert.Zero(t, DistanceMiles(a.Lat, a.Lon, a.Lat, a.Lon), "distance to self should be zero for %v", a)
		for _, b := range points {
			ab := DistanceMiles(a.Lat, a.Lon, b.Lat, b.Lon)
			ba := DistanceMiles(b.Lat, b.Lon, a.Lat, a.Lon)
			assert.InDelta(t, ab, ba, 1e-9, "distance should be symmetric for %v / %v", a, b)
		}
	}
}

func TestDistanceMiles_NonFiniteInput(t *testing.T) {
	assert.True(t, math.IsNaN(DistanceMiles(math.NaN(), 0, 0, 0)))
	assert.True(t, math.IsNaN(DistanceMiles(0, 0, 0, math.NaN())))
}

func TestValidCoordinates(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
		expected bool
	}{
		{"origin", 0, 0, true},
		{"bounds inclusive", -90, 180, true},
		{"latitude too high", 90.1, 0, false},
		{"longitude too low", 0, -180.1, false},
		{"nan latitude", math.NaN(), 0, false},
		{"infinite longitude", 0, math.Inf(1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidCoordinates(tt.lat, tt.lon))
		})
	}
}

func TestValidateRadius(t *testing.T) {
	tests := []struct {
		name    string
		radius  float64
		wantErr bool
	}{
		{"small", 0.001, false},
		{"max", 500, false},
		{"zero", 0, true},
		{"negative", -5, true},
		{"over max", 500.5, true},
		{"nan", math.NaN(), true},
		{"infinite", math.Inf(1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRadius(tt.radius)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidArgument))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateDays(t *testing.T) {
	assert.NoError(t, ValidateDays(1))
	assert.NoError(t, ValidateDays(2))
	assert.ErrorIs(t, ValidateDays(0), ErrInvalidArgument)
	assert.ErrorIs(t, ValidateDays(3), ErrInvalidArgument)
}

func TestValidatePoint(t *testing.T) {
	assert.NoError(t, ValidatePoint(Point{Lat: 34, Lon: -117.5}))
	assert.ErrorIs(t, ValidatePoint(Point{Lat: 91, Lon: 0}), ErrInvalidArgument)
}

func TestParseDataset(t *testing.T) {
	d, err := ParseDataset("viirs_noaa21_nrt")
	assert.NoError(t, err)
	assert.Equal(t, DatasetNOAA21, d)

	d, err = ParseDataset(" VIIRS_SNPP_NRT ")
	assert.NoError(t, err)
	assert.Equal(t, DatasetSNPP, d)

	_, err = ParseDataset("MODIS_NRT")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

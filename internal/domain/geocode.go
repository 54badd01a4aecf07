package domain

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// zipRe accepts a US ZIP or ZIP+4; only the first five digits are geocoded.
var zipRe = regexp.MustCompile(`^(\d{5})(?:-\d{4})?$`)

// NormalizePostalCode validates a US ZIP code and returns its 5-digit form.
func NormalizePostalCode(raw string) (string, error) {
	m := zipRe.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return "", fmt.Errorf("%w: zipCode must be a 5-digit US ZIP code (e.g. 91730)", ErrInvalidArgument)
	}
	return m[1], nil
}

// ResolvePostalCode turns a ZIP code into a reference point for a nearby
// query. A nil geocoder is a configuration error; provider failures are
// reported as ErrUpstreamUnavailable and unknown codes as ErrNotFound.
func ResolvePostalCode(ctx context.Context, raw string, geocoder Geocoder, logger *slog.Logger) (GeocodingResult, error) {
	zip, err := NormalizePostalCode(raw)
	if err != nil {
		return GeocodingResult{}, err
	}
	if geocoder == nil {
		return GeocodingResult{}, fmt.Errorf("%w: geocoding is disabled, pass lat and lon instead", ErrConfiguration)
	}

	result, err := geocoder.GeocodePostalCode(ctx, zip)
	if err != nil {
		logger.Warn("postal code geocoding failed", "zip_code", zip, "error", err)
		return GeocodingResult{}, fmt.Errorf("%w: geocode %s: %v", ErrUpstreamUnavailable, zip, err)
	}
	if !result.Found() {
		return GeocodingResult{}, fmt.Errorf("%w: no location for zip code %s", ErrNotFound, zip)
	}
	result.PostalCode = zip
	return result, nil
}

package domain

import "context"

// GeocodingResult contains location data returned by a geocoding provider.
type GeocodingResult struct {
	Lat              float64
	Lon              float64
	FormattedAddress string
	PlaceName        string
	City             string
	State            string
	Country          string
	Confidence       float64 // 0.0–1.0 provider confidence score

	// PostalCode is the normalized code a lookup resolved, when known.
	PostalCode string
}

// Found reports whether the provider returned a usable coordinate.
func (r GeocodingResult) Found() bool {
	return r.FormattedAddress != "" && ValidCoordinates(r.Lat, r.Lon)
}

// Geocoder resolves postal codes to reference points for nearby queries.
type Geocoder interface {
	// GeocodePostalCode converts a postal code to coordinates. A code with no
	// match returns a zero result and a nil error.
	GeocodePostalCode(ctx context.Context, postalCode string) (GeocodingResult, error)
}

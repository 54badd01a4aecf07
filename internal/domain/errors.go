package domain

import "errors"

var (
	// ErrConfiguration means a required credential or setting is missing.
	ErrConfiguration = errors.New("configuration error")

	// ErrInvalidArgument means a query parameter is outside its accepted range.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUpstreamUnavailable covers network failures, timeouts, and non-2xx
	// responses from the detection feed or geocoder.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrNotFound means a lookup (e.g. a postal code) had no result.
	ErrNotFound = errors.New("not found")

	// ErrParseDegraded marks a feed body that could not be parsed as detection
	// CSV. It is reported through ParseResult.Degraded and never returned to
	// query callers.
	ErrParseDegraded = errors.New("feed parse degraded")
)

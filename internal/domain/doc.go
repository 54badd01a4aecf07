// Package domain models NASA FIRMS active-fire detections.
//
// # Data Source
//
// Detections come from the Fire Information for Resource Management System
// (FIRMS) area API, https://firms.modaps.eosdis.nasa.gov/api/area/. The API
// returns one CSV row per VIIRS hotspot inside a bounding box for a trailing
// window of days. Two near-real-time datasets are supported:
// VIIRS_SNPP_NRT (Suomi NPP) and VIIRS_NOAA21_NRT (NOAA-21).
//
// # FIRMS CSV Conventions
//
// Column order (the parser relies on position, not header names):
//
//	latitude, longitude, bright_ti4, scan, track, acq_date, acq_time,
//	satellite, instrument, confidence, version, bright_ti5, frp, daynight
//
// Rows with fewer than 14 columns are discarded. A header with fewer than 14
// columns means the body is not a detection CSV at all (FIRMS answers an
// invalid key with a one-line text message and HTTP 200) and is reported as
// degraded.
//
// Time format:
//
//	acq_date is YYYY-MM-DD, acq_time is HHMM in UTC without leading zeros,
//	e.g. "45" = 00:45 and "1230" = 12:30. Values are zero-padded to four digits.
//
// Confidence:
//
//	VIIRS reports a category letter: "l" (low), "n" (nominal), "h" (high).
//	MODIS reports a 0-100 number. Both are normalized to a percentage:
//	low=30, nominal=60, high=90; numbers are clamped to [0, 100].
//
// Brightness category (bright_ti4, Kelvin):
//
//	<320 calm | <340 moderate | <360 high | >=360 severe | missing: unknown
//
// Predictable detections have brightness >= 325 K and confidence >= 50 %.
//
// # Gas Flares
//
// Industrial gas flares burn at a fixed location every night and show up as
// small, low-power hotspots. A detection is treated as a likely flare when it
// is a night pass with low fire radiative power, sub-fire brightness, and no
// more than nominal confidence. See [FlareThresholds] for the defaults.
//
// # ID Generation
//
// Detection IDs are deterministic SHA-256 hashes of
// satellite|instrument|lat|lon|date|time, so refetching the same window yields
// the same IDs. See [generateID].
package domain

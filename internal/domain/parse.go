package domain

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	geohash "github.com/TomiHiltunen/geohash-golang"
)

// FeedColumns is the minimum column count of a FIRMS area CSV row.
const FeedColumns = 14

// Column positions in the FIRMS VIIRS area CSV.
const (
	colLatitude = iota
	colLongitude
	colBrightTI4
	colScan
	colTrack
	colAcqDate
	colAcqTime
	colSatellite
	colInstrument
	colConfidence
	colVersion
	colBrightTI5
	colFRP
	colDayNight
)

// geohashPrecision of 7 characters is a ~150 m cell, about one VIIRS I-band pixel.
const geohashPrecision = 7

// DiscardReason explains why a feed row produced no detection.
type DiscardReason string

const (
	DiscardShortRow       DiscardReason = "short_row"
	DiscardMalformed      DiscardReason = "malformed"
	DiscardBadCoordinates DiscardReason = "bad_coordinates"
	DiscardOutOfRadius    DiscardReason = "out_of_radius"
	DiscardFlare          DiscardReason = "flare"
	DiscardNotPredictable DiscardReason = "not_predictable"
)

// ParseOptions controls classification and filtering. When Reference is nil
// no distance is computed and RadiusMiles is ignored.
type ParseOptions struct {
	Filter      Filter
	Reference   *Point
	RadiusMiles float64
	Flare       FlareThresholds
}

// ParseResult is the outcome of parsing one feed body.
type ParseResult struct {
	Detections []FireDetection
	Rows       int
	Discarded  map[DiscardReason]int

	// Degraded is non-nil (wrapping ErrParseDegraded) when the body could not
	// be read as detection CSV. Detections are still valid but may be empty.
	Degraded error
}

func (r *ParseResult) discard(reason DiscardReason) {
	r.Discarded[reason]++
}

// ParseFeedCSV parses a FIRMS area CSV body into classified detections.
// It never returns an error: empty and header-only bodies yield no
// detections, and unreadable bodies are reported through Degraded.
func ParseFeedCSV(text string, opts ParseOptions) ParseResult {
	res := ParseResult{
		Detections: []FireDetection{},
		Discarded:  make(map[DiscardReason]int),
	}
	if strings.TrimSpace(text) == "" {
		return res
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return res
		}
		res.Degraded = fmt.Errorf("%w: read header: %v", ErrParseDegraded, err)
		return res
	}
	if len(header) < FeedColumns {
		res.Degraded = fmt.Errorf("%w: header has %d columns, want at least %d", ErrParseDegraded, len(header), FeedColumns)
		return res
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				res.Rows++
				res.discard(DiscardMalformed)
				continue
			}
			res.Degraded = fmt.Errorf("%w: read row %d: %v", ErrParseDegraded, res.Rows+1, err)
			break
		}

		res.Rows++
		det, reason, ok := parseRow(record, opts)
		if !ok {
			res.discard(reason)
			continue
		}
		res.Detections = append(res.Detections, det)
	}

	if res.Degraded == nil && res.Rows > 0 && res.Discarded[DiscardShortRow] == res.Rows {
		res.Degraded = fmt.Errorf("%w: all %d rows have fewer than %d columns", ErrParseDegraded, res.Rows, FeedColumns)
	}
	return res
}

// parseRow builds and filters one detection. The bool is false when the row
// is discarded, with the reason.
func parseRow(cols []string, opts ParseOptions) (FireDetection, DiscardReason, bool) {
	if len(cols) < FeedColumns {
		return FireDetection{}, DiscardShortRow, false
	}

	lat := parseFloatOrNaN(cols[colLatitude])
	lon := parseFloatOrNaN(cols[colLongitude])
	if !ValidCoordinates(lat, lon) {
		return FireDetection{}, DiscardBadCoordinates, false
	}

	brightness := parseFloatOrNaN(cols[colBrightTI4])
	frp := parseFloatOrNaN(cols[colFRP])
	confidence := ConfidenceToPercent(cols[colConfidence])
	dayNight := DayNight(strings.ToUpper(strings.TrimSpace(cols[colDayNight])))
	satellite := strings.TrimSpace(cols[colSatellite])
	instrument := strings.TrimSpace(cols[colInstrument])
	acqDate := strings.TrimSpace(cols[colAcqDate])
	acqTime := strings.TrimSpace(cols[colAcqTime])

	det := FireDetection{
		ID:                 generateID(satellite, instrument, lat, lon, acqDate, acqTime),
		Latitude:           lat,
		Longitude:          lon,
		Geohash:            geohashCell(lat, lon),
		Brightness:         brightness,
		Confidence:         confidence,
		Satellite:          satellite,
		Instrument:         instrument,
		FRP:                frp,
		DayNight:           dayNight,
		BrightnessCategory: CategorizeBrightness(brightness),
		Predictable:        IsPredictable(brightness, confidence),
		Timestamp:          parseAcquisition(acqDate, acqTime),
	}

	if opts.Reference != nil {
		dist := DistanceMiles(opts.Reference.Lat, opts.Reference.Lon, lat, lon)
		if math.IsNaN(dist) || math.IsInf(dist, 0) || dist > opts.RadiusMiles {
			return FireDetection{}, DiscardOutOfRadius, false
		}
		rounded := roundTo(dist, 2)
		if rounded > opts.RadiusMiles {
			rounded = math.Floor(dist*100) / 100
		}
		det.DistanceFromCenterMiles = &rounded
	}

	if opts.Filter.ExcludeFlares && opts.Flare.IsLikelyFlare(Signature{
		DayNight:   dayNight,
		FRP:        frp,
		Brightness: brightness,
		Confidence: confidence,
	}) {
		return FireDetection{}, DiscardFlare, false
	}

	if opts.Filter.PredictableOnly && !det.Predictable {
		return FireDetection{}, DiscardNotPredictable, false
	}

	return det, "", true
}

// parseFloatOrNaN parses a string as float64, returning NaN on failure.
func parseFloatOrNaN(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// parseAcquisition combines acq_date (YYYY-MM-DD) and acq_time (HHMM, UTC,
// leading zeros dropped) into a UTC instant. Returns zero time if either part
// is unusable.
func parseAcquisition(date, hhmm string) time.Time {
	day, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return time.Time{}
	}
	if hhmm == "" || len(hhmm) > 4 {
		return time.Time{}
	}
	for _, r := range hhmm {
		if r < '0' || r > '9' {
			return time.Time{}
		}
	}
	hhmm = strings.Repeat("0", 4-len(hhmm)) + hhmm

	hour, _ := strconv.Atoi(hhmm[:2])
	mins, _ := strconv.Atoi(hhmm[2:])
	if hour > 23 || mins > 59 {
		return time.Time{}
	}

	return time.Date(day.Year(), day.Month(), day.Day(), hour, mins, 0, 0, time.UTC)
}

// generateID produces a deterministic ID from the detection's key fields so
// the same hotspot keeps its ID across refetches.
func generateID(satellite, instrument string, lat, lon float64, date, hhmm string) string {
	input := fmt.Sprintf("%s|%s|%.5f|%.5f|%s|%s", satellite, instrument, lat, lon, date, hhmm)
	hash := sha256.Sum256([]byte(input))
	return "firms-" + hex.EncodeToString(hash[:8])
}

func geohashCell(lat, lon float64) string {
	gh := geohash.Encode(lat, lon)
	if len(gh) > geohashPrecision {
		return gh[:geohashPrecision]
	}
	return gh
}

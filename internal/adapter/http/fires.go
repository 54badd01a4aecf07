package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/firms-wildfire-service/internal/domain"
	"github.com/couchcryptid/firms-wildfire-service/internal/pipeline"
)

const defaultRadiusMiles = 100.0

type nearbyCenter struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	ZipCode   string  `json:"zipCode,omitempty"`
	City      string  `json:"city,omitempty"`
	State     string  `json:"state,omitempty"`
	Country   string  `json:"country,omitempty"`
}

type nearbyResponse struct {
	Center      nearbyCenter           `json:"center"`
	RadiusMiles float64                `json:"radiusMiles"`
	Dataset     domain.Dataset         `json:"dataset"`
	Days        int                    `json:"days"`
	Options     domain.Filter          `json:"opts"`
	Fires       []domain.FireDetection `json:"fires"`
	Count       int                    `json:"count"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleNearby(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	filter := filterParams(params.Get)

	radius := defaultRadiusMiles
	if raw := params.Get("radiusMiles"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			s.writeError(w, fmt.Errorf("%w: radiusMiles must be a number between 1 and 500", domain.ErrInvalidArgument))
			return
		}
		radius = v
	}

	days := 0
	if raw := params.Get("days"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, fmt.Errorf("%w: days must be an integer", domain.ErrInvalidArgument))
			return
		}
		if err := domain.ValidateDays(v); err != nil {
			s.writeError(w, err)
			return
		}
		days = v
	}

	center, err := s.resolveCenter(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	res, err := s.fires.QueryNearby(r.Context(), pipeline.NearbyQuery{
		Center:      domain.Point{Lat: center.Latitude, Lon: center.Longitude},
		RadiusMiles: radius,
		Filter:      filter,
		Dataset:     domain.Dataset(params.Get("dataset")),
		Days:        days,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	sharedobs.WriteJSON(w, http.StatusOK, nearbyResponse{
		Center:      center,
		RadiusMiles: radius,
		Dataset:     res.Dataset,
		Days:        res.Days,
		Options:     filter,
		Fires:       res.Detections,
		Count:       len(res.Detections),
	})
}

// resolveCenter takes the reference point from zipCode when present, otherwise
// from lat and lon.
func (s *Server) resolveCenter(r *http.Request) (nearbyCenter, error) {
	params := r.URL.Query()

	if zip := strings.TrimSpace(params.Get("zipCode")); zip != "" {
		geo, err := domain.ResolvePostalCode(r.Context(), zip, s.geocoder, s.logger)
		if err != nil {
			return nearbyCenter{}, err
		}
		return nearbyCenter{
			Latitude:  geo.Lat,
			Longitude: geo.Lon,
			ZipCode:   geo.PostalCode,
			City:      geo.City,
			State:     geo.State,
			Country:   geo.Country,
		}, nil
	}

	rawLat, rawLon := params.Get("lat"), params.Get("lon")
	if rawLat == "" || rawLon == "" {
		return nearbyCenter{}, fmt.Errorf("%w: zipCode (e.g. 91730) or lat and lon are required", domain.ErrInvalidArgument)
	}
	lat, errLat := strconv.ParseFloat(rawLat, 64)
	lon, errLon := strconv.ParseFloat(rawLon, 64)
	if errLat != nil || errLon != nil {
		return nearbyCenter{}, fmt.Errorf("%w: lat and lon must be numbers", domain.ErrInvalidArgument)
	}
	return nearbyCenter{Latitude: lat, Longitude: lon}, nil
}

func (s *Server) handleRegion(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	res, err := s.fires.QueryRegion(r.Context(), pipeline.RegionQuery{
		Filter:  filterParams(params.Get),
		Dataset: regionDataset(params.Get("dataset")),
		Days:    regionDays(params.Get("days")),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, res)
}

// filterParams reads excludeFlares (default true) and predictableOnly
// (default false). Only the literal "true" enables a flag.
func filterParams(get func(string) string) domain.Filter {
	boolParam := func(name string, def bool) bool {
		raw := get(name)
		if raw == "" {
			return def
		}
		return raw == "true"
	}
	return domain.Filter{
		ExcludeFlares:   boolParam("excludeFlares", true),
		PredictableOnly: boolParam("predictableOnly", false),
	}
}

// regionDays clamps the window to [MinDayWindow, MaxDayWindow]; unparsable
// input falls back to the minimum.
func regionDays(raw string) int {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return domain.MinDayWindow
	}
	return max(domain.MinDayWindow, min(domain.MaxDayWindow, v))
}

// regionDataset maps anything other than NOAA-21 to the default region
// dataset.
func regionDataset(raw string) domain.Dataset {
	if d, err := domain.ParseDataset(raw); err == nil && d == domain.DatasetNOAA21 {
		return d
	}
	return pipeline.DefaultRegionDataset
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("fire query failed", "status", status, "error", err)
	}
	sharedobs.WriteJSON(w, status, errorResponse{Error: err.Error()})
}

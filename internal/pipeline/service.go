package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/couchcryptid/firms-wildfire-service/internal/adapter/firms"
	"github.com/couchcryptid/firms-wildfire-service/internal/domain"
	"github.com/couchcryptid/firms-wildfire-service/internal/observability"
)

const (
	modeNearby = "nearby"
	modeRegion = "region"

	// DefaultNearbyDataset and DefaultNearbyDays apply when a nearby query leaves them unset.
	DefaultNearbyDataset = domain.DatasetNOAA21
	DefaultNearbyDays    = 2

	// DefaultRegionDataset and DefaultRegionDays apply when a region query leaves them unset.
	DefaultRegionDataset = domain.DatasetSNPP
	DefaultRegionDays    = 1

	publishTimeout = 10 * time.Second
)

// RegionCenter is the map center returned with region results.
var RegionCenter = domain.Point{Lat: 38, Lon: -98}

// RegionZoom is the map zoom returned with region results.
const RegionZoom = 4

// FeedFetcher retrieves raw area CSV from the detection feed.
type FeedFetcher interface {
	Configured() bool
	FetchArea(ctx context.Context, req firms.AreaRequest) (string, error)
}

// DetectionPublisher forwards freshly fetched region detections downstream.
type DetectionPublisher interface {
	PublishDetections(ctx context.Context, dataset domain.Dataset, detections []domain.FireDetection) error
}

// NearbyQuery asks for detections within RadiusMiles of Center.
type NearbyQuery struct {
	Center      domain.Point
	RadiusMiles float64
	Filter      domain.Filter
	Dataset     domain.Dataset // defaults to DefaultNearbyDataset
	Days        int            // defaults to DefaultNearbyDays
}

// NearbyResult holds the detections of a nearby query, each with its
// distance from the center, and the dataset and window actually queried.
type NearbyResult struct {
	Dataset    domain.Dataset
	Days       int
	Detections []domain.FireDetection
}

// RegionQuery asks for detections inside the CONUS box.
type RegionQuery struct {
	Filter  domain.Filter
	Dataset domain.Dataset // defaults to DefaultRegionDataset
	Days    int            // defaults to DefaultRegionDays
}

// RegionResult is the payload served for region queries. Cached instances
// are shared and must be treated as read-only.
type RegionResult struct {
	Mode       string                 `json:"mode"`
	BBox       firms.BBox             `json:"bbox"`
	Dataset    domain.Dataset         `json:"dataset"`
	Days       int                    `json:"days"`
	Options    domain.Filter          `json:"opts"`
	Detections []domain.FireDetection `json:"fires"`
	Count      int                    `json:"count"`
	Center     domain.Point           `json:"center"`
	Zoom       int                    `json:"zoom"`
	CachedAt   time.Time              `json:"cachedAt"`
}

// Options tunes a Service. Zero timeouts leave requests bounded only by the
// caller's context.
type Options struct {
	Flare         domain.FlareThresholds
	NearbyTimeout time.Duration
	RegionTimeout time.Duration

	// Publisher is optional; nil disables snapshot publishing.
	Publisher DetectionPublisher

	// Clock defaults to the real clock.
	Clock clockwork.Clock
}

// Service runs nearby and region queries against the detection feed.
type Service struct {
	feed      FeedFetcher
	cache     *ResultCache
	publisher DetectionPublisher
	opts      Options
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics

	flight singleflight.Group
	parse  func(text string, opts domain.ParseOptions) domain.ParseResult
}

// NewService wires a Service. cache must not be nil.
func NewService(feed FeedFetcher, cache *ResultCache, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Service {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{
		feed:      feed,
		cache:     cache,
		publisher: opts.Publisher,
		opts:      opts,
		clock:     clock,
		logger:    logger,
		metrics:   metrics,
		parse:     domain.ParseFeedCSV,
	}
}

// CheckReadiness fails while no FIRMS API key is configured.
func (s *Service) CheckReadiness(_ context.Context) error {
	if !s.feed.Configured() {
		return errors.New("FIRMS_API_KEY is not configured")
	}
	return nil
}

// QueryNearby fetches detections around a point. Results are never cached.
func (s *Service) QueryNearby(ctx context.Context, q NearbyQuery) (NearbyResult, error) {
	if q.Dataset == "" {
		q.Dataset = DefaultNearbyDataset
	}
	if q.Days == 0 {
		q.Days = DefaultNearbyDays
	}
	if err := domain.ValidatePoint(q.Center); err != nil {
		return NearbyResult{}, err
	}
	if err := domain.ValidateRadius(q.RadiusMiles); err != nil {
		return NearbyResult{}, err
	}
	dataset, err := domain.ParseDataset(string(q.Dataset))
	if err != nil {
		return NearbyResult{}, err
	}
	if err := domain.ValidateDays(q.Days); err != nil {
		return NearbyResult{}, err
	}

	body, err := s.fetch(ctx, firms.AreaRequest{
		BBox:    firms.BBoxAround(q.Center, q.RadiusMiles),
		Dataset: dataset,
		Days:    q.Days,
		Timeout: s.opts.NearbyTimeout,
		Mode:    modeNearby,
	})
	if err != nil {
		return NearbyResult{}, err
	}

	center := q.Center
	res := s.parseBody(modeNearby, body, domain.ParseOptions{
		Filter:      q.Filter,
		Reference:   &center,
		RadiusMiles: q.RadiusMiles,
		Flare:       s.opts.Flare,
	})

	s.logger.Info("nearby fires fetched",
		"dataset", dataset,
		"days", q.Days,
		"radius_miles", q.RadiusMiles,
		"count", len(res.Detections),
	)
	return NearbyResult{Dataset: dataset, Days: q.Days, Detections: res.Detections}, nil
}

// QueryRegion returns detections for the CONUS box. Results are cached per
// key for the cache TTL; concurrent misses for the same key share one fetch.
// A failed fetch leaves any cached entry untouched.
func (s *Service) QueryRegion(ctx context.Context, q RegionQuery) (*RegionResult, error) {
	if q.Dataset == "" {
		q.Dataset = DefaultRegionDataset
	}
	if q.Days == 0 {
		q.Days = DefaultRegionDays
	}
	dataset, err := domain.ParseDataset(string(q.Dataset))
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateDays(q.Days); err != nil {
		return nil, err
	}

	key := RegionKey{
		Dataset:         dataset,
		Days:            q.Days,
		ExcludeFlares:   q.Filter.ExcludeFlares,
		PredictableOnly: q.Filter.PredictableOnly,
	}

	if cached, ok := s.cache.Get(key); ok {
		s.metrics.RegionCache.WithLabelValues("hit").Inc()
		return cached, nil
	}

	// Waiters share one fetch, so it is detached from any single caller's
	// cancellation. The feed timeout still bounds it.
	fetchCtx := context.WithoutCancel(ctx)

	v, err, shared := s.flight.Do(key.String(), func() (any, error) {
		if cached, ok := s.cache.Get(key); ok {
			s.metrics.RegionCache.WithLabelValues("hit").Inc()
			return cached, nil
		}
		s.metrics.RegionCache.WithLabelValues("miss").Inc()
		return s.refreshRegion(fetchCtx, key)
	})
	if shared {
		s.metrics.RegionCache.WithLabelValues("shared").Inc()
	}
	if err != nil {
		return nil, err
	}
	return v.(*RegionResult), nil
}

func (s *Service) refreshRegion(ctx context.Context, key RegionKey) (*RegionResult, error) {
	body, err := s.fetch(ctx, firms.AreaRequest{
		BBox:    firms.ConusBBox,
		Dataset: key.Dataset,
		Days:    key.Days,
		Timeout: s.opts.RegionTimeout,
		Mode:    modeRegion,
	})
	if err != nil {
		return nil, err
	}

	filter := domain.Filter{ExcludeFlares: key.ExcludeFlares, PredictableOnly: key.PredictableOnly}
	res := s.parseBody(modeRegion, body, domain.ParseOptions{Filter: filter, Flare: s.opts.Flare})

	payload := &RegionResult{
		Mode:       "us",
		BBox:       firms.ConusBBox,
		Dataset:    key.Dataset,
		Days:       key.Days,
		Options:    filter,
		Detections: res.Detections,
		Count:      len(res.Detections),
		Center:     RegionCenter,
		Zoom:       RegionZoom,
		CachedAt:   s.clock.Now().UTC(),
	}
	s.cache.Put(key, payload)

	s.logger.Info("region fires fetched", "key", key.String(), "count", payload.Count)
	s.publish(ctx, payload)
	return payload, nil
}

// fetch calls the feed and records request metrics.
func (s *Service) fetch(ctx context.Context, req firms.AreaRequest) (string, error) {
	start := s.clock.Now()
	body, err := s.feed.FetchArea(ctx, req)
	s.metrics.FeedDuration.WithLabelValues(req.Mode).Observe(s.clock.Since(start).Seconds())

	if err != nil {
		s.metrics.FeedRequests.WithLabelValues(req.Mode, "error").Inc()
		if errors.Is(err, domain.ErrConfiguration) {
			s.logger.Error("firms feed not configured", "mode", req.Mode, "error", err)
		} else {
			s.logger.Warn("firms feed request failed", "mode", req.Mode, "dataset", req.Dataset, "error", err)
		}
		return "", err
	}
	s.metrics.FeedRequests.WithLabelValues(req.Mode, "success").Inc()
	return body, nil
}

// parseBody parses a feed body, turning a parser panic into an empty,
// degraded result, and records parse metrics.
func (s *Service) parseBody(mode, body string, opts domain.ParseOptions) (res domain.ParseResult) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("feed parse panicked, returning no detections", "mode", mode, "panic", r)
			s.metrics.ParseDegraded.Inc()
			s.metrics.DetectionsEmitted.WithLabelValues(mode).Observe(0)
			res = domain.ParseResult{
				Detections: []domain.FireDetection{},
				Discarded:  map[domain.DiscardReason]int{},
			}
		}
	}()

	res = s.parse(body, opts)

	if res.Degraded != nil {
		s.logger.Warn("feed body degraded", "mode", mode, "rows", res.Rows, "error", res.Degraded)
		s.metrics.ParseDegraded.Inc()
	}
	for reason, n := range res.Discarded {
		s.metrics.RowsDiscarded.WithLabelValues(string(reason)).Add(float64(n))
	}
	s.metrics.DetectionsEmitted.WithLabelValues(mode).Observe(float64(len(res.Detections)))
	return res
}

// publish forwards a fresh snapshot. Failures are logged and counted only.
func (s *Service) publish(ctx context.Context, payload *RegionResult) {
	if s.publisher == nil || len(payload.Detections) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	n := float64(len(payload.Detections))
	if err := s.publisher.PublishDetections(ctx, payload.Dataset, payload.Detections); err != nil {
		s.logger.Warn("publish detections failed", "dataset", payload.Dataset, "count", len(payload.Detections), "error", err)
		s.metrics.DetectionsPublished.WithLabelValues("error").Add(n)
		return
	}
	s.metrics.DetectionsPublished.WithLabelValues("success").Add(n)
}

package pipeline_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/firms-wildfire-service/internal/adapter/firms"
	"github.com/couchcryptid/firms-wildfire-service/internal/domain"
	"github.com/couchcryptid/firms-wildfire-service/internal/observability"
	"github.com/couchcryptid/firms-wildfire-service/internal/pipeline"
)

const feedHeader = "latitude,longitude,bright_ti4,scan,track,acq_date,acq_time,satellite,instrument,confidence,version,bright_ti5,frp,daynight"

var (
	// Daytime, predictable, moderate.
	rowFire = "34.0,-117.5,330,1,1,2024-01-01,1230,N,VIIRS,80,1,300,15,D"
	// Night-time low-power hotspot flagged by the flare heuristic.
	rowFlare = "31.8,-102.3,310,0.4,0.4,2024-01-01,845,N,VIIRS,n,2.0NRT,280,2.1,N"
	// Daytime, low confidence, calm.
	rowWeak = "40.1,-105.2,318,0.4,0.4,2024-01-01,1930,N,VIIRS,l,2.0NRT,290,4.5,D"
)

func feedCSV(rows ...string) string {
	return strings.Join(append([]string{feedHeader}, rows...), "\n") + "\n"
}

var testStart = time.Date(2024, time.January, 1, 18, 0, 0, 0, time.UTC)

// fakeFeed is an in-memory FeedFetcher. When release is non-nil each fetch
// signals started and then blocks until release is closed.
type fakeFeed struct {
	mu         sync.Mutex
	body       string
	err        error
	requests   []firms.AreaRequest
	configured bool

	started chan struct{}
	release chan struct{}
}

func newFakeFeed(body string) *fakeFeed {
	return &fakeFeed{body: body, configured: true}
}

func (f *fakeFeed) Configured() bool { return f.configured }

func (f *fakeFeed) FetchArea(_ context.Context, req firms.AreaRequest) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	started, release := f.started, f.release
	f.mu.Unlock()

	if release != nil {
		started <- struct{}{}
		<-release
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.body, f.err
}

func (f *fakeFeed) set(body string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.body, f.err = body, err
}

func (f *fakeFeed) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeFeed) lastRequest() firms.AreaRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

type fakePublisher struct {
	mu        sync.Mutex
	err       error
	published [][]domain.FireDetection
	datasets  []domain.Dataset
}

func (p *fakePublisher) PublishDetections(_ context.Context, dataset domain.Dataset, detections []domain.FireDetection) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, detections)
	p.datasets = append(p.datasets, dataset)
	return p.err
}

func (p *fakePublisher) batches() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

type harness struct {
	svc     *pipeline.Service
	feed    *fakeFeed
	clock   *clockwork.FakeClock
	metrics *observability.Metrics
}

func newHarness(feed *fakeFeed, publisher pipeline.DetectionPublisher) harness {
	clock := clockwork.NewFakeClockAt(testStart)
	metrics := observability.NewMetricsForTesting()
	cache := pipeline.NewResultCache(5*time.Minute, 16, clock)
	opts := pipeline.Options{
		Flare:         domain.DefaultFlareThresholds(),
		NearbyTimeout: 25 * time.Second,
		RegionTimeout: 60 * time.Second,
		Publisher:     publisher,
		Clock:         clock,
	}
	svc := pipeline.NewService(feed, cache, opts, slog.New(slog.NewTextHandler(io.Discard, nil)), metrics)
	return harness{svc: svc, feed: feed, clock: clock, metrics: metrics}
}

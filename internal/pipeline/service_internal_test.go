package pipeline

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/firms-wildfire-service/internal/adapter/firms"
	"github.com/couchcryptid/firms-wildfire-service/internal/domain"
	"github.com/couchcryptid/firms-wildfire-service/internal/observability"
)

type staticFeed string

func (staticFeed) Configured() bool { return true }

func (f staticFeed) FetchArea(context.Context, firms.AreaRequest) (string, error) {
	return string(f), nil
}

func TestService_ParsePanicYieldsEmptyResult(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	clock := clockwork.NewFakeClock()
	svc := NewService(staticFeed("anything"), NewResultCache(time.Minute, 4, clock),
		Options{Flare: domain.DefaultFlareThresholds(), Clock: clock},
		slog.New(slog.NewTextHandler(io.Discard, nil)), metrics)
	svc.parse = func(string, domain.ParseOptions) domain.ParseResult {
		panic("unexpected row shape")
	}

	nearby, err := svc.QueryNearby(context.Background(), NearbyQuery{Center: domain.Point{Lat: 34, Lon: -117.5}, RadiusMiles: 10})
	require.NoError(t, err)
	assert.NotNil(t, nearby.Detections)
	assert.Empty(t, nearby.Detections)

	region, err := svc.QueryRegion(context.Background(), RegionQuery{})
	require.NoError(t, err)
	assert.Zero(t, region.Count)

	assert.InDelta(t, 2, testutil.ToFloat64(metrics.ParseDegraded), 0)
}

func TestRegionKey_String(t *testing.T) {
	k := RegionKey{Dataset: domain.DatasetSNPP, Days: 1, ExcludeFlares: true}
	assert.Equal(t, "us|VIIRS_SNPP_NRT|days=1|excludeFlares=true|predictableOnly=false", k.String())
}

package mapbox

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/firms-wildfire-service/internal/observability"
)

const (
	testToken         = "test-token"
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

func testMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

func testClient(baseURL string) *Client {
	return &Client{
		token:      testToken,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		metrics:    testMetrics(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestClient_GeocodePostalCode_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/91730.json", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, "postcode", r.URL.Query().Get("types"))
		assert.Equal(t, "us", r.URL.Query().Get("country"))
		assert.Equal(t, testToken, r.URL.Query().Get("access_token"))

		resp := response{
			Features: []feature{
				{
					Center:    []float64{-117.5724, 34.1233},
					PlaceName: "Rancho Cucamonga, California 91730, United States",
					Text:      "91730",
					Relevance: 1,
					Context: []contextItem{
						{ID: "place.8623", Text: "Rancho Cucamonga"},
						{ID: "district.2", Text: "San Bernardino County"},
						{ID: "region.419", Text: "California", ShortCode: "US-CA"},
						{ID: "country.9053", Text: "United States", ShortCode: "us"},
					},
				},
			},
		}
		w.Header().Set(headerContentType, contentTypeJSON)
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	result, err := c.GeocodePostalCode(context.Background(), "91730")
	require.NoError(t, err)

	assert.Equal(t, 34.1233, result.Lat)
	assert.Equal(t, -117.5724, result.Lon)
	assert.Equal(t, "Rancho Cucamonga, California 91730, United States", result.FormattedAddress)
	assert.Equal(t, "91730", result.PlaceName)
	assert.Equal(t, "Rancho Cucamonga", result.City)
	assert.Equal(t, "CA", result.State)
	assert.Equal(t, "United States", result.Country)
	assert.Equal(t, 1.0, result.Confidence)
	assert.True(t, result.Found())
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.GeocodeRequests.WithLabelValues("success")), 0)
}

func TestClient_GeocodePostalCode_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		require.NoError(t, json.NewEncoder(w).Encode(response{Features: []feature{}}))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	result, err := c.GeocodePostalCode(context.Background(), "00000")
	require.NoError(t, err)
	assert.Equal(t, float64(0), result.Lat)
	assert.Empty(t, result.FormattedAddress)
	assert.False(t, result.Found())
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.GeocodeRequests.WithLabelValues("empty")), 0)
}

func TestClient_GeocodePostalCode_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Not Authorized"}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	c.token = "bad-token"

	_, err := c.GeocodePostalCode(context.Background(), "91730")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.GeocodeRequests.WithLabelValues("error")), 0)
}

func TestClient_GeocodePostalCode_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	c.httpClient = &http.Client{Timeout: 50 * time.Millisecond}

	_, err := c.GeocodePostalCode(context.Background(), "91730")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), testToken, "errors must not leak the access token")
}

func TestContextKind(t *testing.T) {
	assert.Equal(t, "place", contextKind("place.8623"))
	assert.Equal(t, "region", contextKind("region.419"))
	assert.Equal(t, "country", contextKind("country"))
}

package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWritePrometheus(t *testing.T) {
	ObserveAggregation(28, 15*time.Millisecond)
	ObserveAggregationFailure("mapping")
	ObserveAggregationFailure("mapping")
	ObserveSourceFetch(true)
	ObserveSourceFetch(false)
	ObserveCityConfigCache(true)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	assert.Equal(t, "text/plain; version=0.0.4", rec.Header().Get("Content-Type"))
	assert.Contains(t, body, "citypark_aggregations_total ")
	assert.Contains(t, body, `citypark_aggregation_failures_total{kind="mapping"} 2`)
	assert.Contains(t, body, `citypark_source_fetches_total{result="error"} `)
	assert.Contains(t, body, `citypark_city_config_cache_requests_total{result="hit"} `)
}

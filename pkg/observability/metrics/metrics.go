package metrics

import (
	"fmt"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

var (
	aggregationsSucceeded atomic.Int64
	facilitiesReturned    atomic.Int64
	aggregationMillis     atomic.Int64
	sourceFetchesOK       atomic.Int64
	sourceFetchesFailed   atomic.Int64
	cityConfigCacheHits   atomic.Int64
	cityConfigCacheMisses atomic.Int64

	failuresMu sync.Mutex
	failures   = map[string]int64{}
)

func ObserveAggregation(facilities int, took time.Duration) {
	aggregationsSucceeded.Add(1)
	facilitiesReturned.Add(int64(facilities))
	aggregationMillis.Add(took.Milliseconds())
}

// ObserveAggregationFailure counts a failed aggregation under its error kind.
func ObserveAggregationFailure(kind string) {
	failuresMu.Lock()
	failures[kind]++
	failuresMu.Unlock()
}

func ObserveSourceFetch(ok bool) {
	if ok {
		sourceFetchesOK.Add(1)
		return
	}
	sourceFetchesFailed.Add(1)
}

func ObserveCityConfigCache(hit bool) {
	if hit {
		cityConfigCacheHits.Add(1)
		return
	}
	cityConfigCacheMisses.Add(1)
}

// Handler serves the counters in the Prometheus text format.
func Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WritePrometheus(w)
	})
}

func WritePrometheus(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	fmt.Fprintf(w, "# HELP citypark_aggregations_total Number of city aggregations that completed.\n")
	fmt.Fprintf(w, "# TYPE citypark_aggregations_total counter\n")
	fmt.Fprintf(w, "citypark_aggregations_total %d\n", aggregationsSucceeded.Load())

	fmt.Fprintf(w, "# HELP citypark_aggregation_failures_total Number of city aggregations aborted, by error kind.\n")
	fmt.Fprintf(w, "# TYPE citypark_aggregation_failures_total counter\n")
	failuresMu.Lock()
	kinds := make([]string, 0, len(failures))
	for kind := range failures {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		fmt.Fprintf(w, "citypark_aggregation_failures_total{kind=%q} %d\n", kind, failures[kind])
	}
	failuresMu.Unlock()

	fmt.Fprintf(w, "# HELP citypark_aggregation_duration_milliseconds_total Time spent in successful aggregations.\n")
	fmt.Fprintf(w, "# TYPE citypark_aggregation_duration_milliseconds_total counter\n")
	fmt.Fprintf(w, "citypark_aggregation_duration_milliseconds_total %d\n", aggregationMillis.Load())

	fmt.Fprintf(w, "# HELP citypark_facilities_returned_total Number of facilities built by successful aggregations.\n")
	fmt.Fprintf(w, "# TYPE citypark_facilities_returned_total counter\n")
	fmt.Fprintf(w, "citypark_facilities_returned_total %d\n", facilitiesReturned.Load())

	fmt.Fprintf(w, "# HELP citypark_source_fetches_total Number of calls made to parking data sources.\n")
	fmt.Fprintf(w, "# TYPE citypark_source_fetches_total counter\n")
	fmt.Fprintf(w, "citypark_source_fetches_total{result=\"ok\"} %d\n", sourceFetchesOK.Load())
	fmt.Fprintf(w, "citypark_source_fetches_total{result=\"error\"} %d\n", sourceFetchesFailed.Load())

	fmt.Fprintf(w, "# HELP citypark_city_config_cache_requests_total City configuration cache lookups.\n")
	fmt.Fprintf(w, "# TYPE citypark_city_config_cache_requests_total counter\n")
	fmt.Fprintf(w, "citypark_city_config_cache_requests_total{result=\"hit\"} %d\n", cityConfigCacheHits.Load())
	fmt.Fprintf(w, "citypark_city_config_cache_requests_total{result=\"miss\"} %d\n", cityConfigCacheMisses.Load())
}

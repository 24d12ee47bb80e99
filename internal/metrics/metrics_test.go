package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounts(t *testing.T) {
	r := NewRecorder(prometheus.NewRegistry())

	r.ObserveSwap("buy", "success", 1500*time.Millisecond)
	r.ObserveSwap("buy", "success", 200*time.Millisecond)
	r.ObserveSwap("sell", "validation", time.Millisecond)
	r.ObserveQuote("sell", "success")
	r.ObservePairSearch(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.swaps.WithLabelValues("buy", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.swaps.WithLabelValues("sell", "validation")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.quotes.WithLabelValues("sell", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.pairSearches))
	assert.Equal(t, 2, testutil.CollectAndCount(r.swapDuration))
}

func TestNilRecorderIsSafe(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.ObserveSwap("buy", "success", time.Second)
		r.ObserveQuote("buy", "success")
		r.ObservePairSearch(1)
	})
}

func TestHandlerExposesMetrics(t *testing.T) {
	reg := NewRegistry()
	r := NewRecorder(reg)
	r.ObserveQuote("buy", "pool_not_found")

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `pumpswap_executor_quotes_total{outcome="pool_not_found",side="buy"} 1`)
	assert.Contains(t, body, "go_goroutines")
}

package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRequest(t *testing.T) {
	counter := RequestsTotal.WithLabelValues("GET", "GET /items/{id}", "200")
	before := testutil.ToFloat64(counter)

	ObserveRequest("GET", "GET /items/{id}", 200, 5*time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestObserveRequestUnmatched(t *testing.T) {
	counter := RequestsTotal.WithLabelValues("GET", "unmatched", "404")
	before := testutil.ToFloat64(counter)

	ObserveRequest("GET", "", 404, time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestHandlerExposesCollectors(t *testing.T) {
	ItemsPosted.WithLabelValues("lost").Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "lostfound_items_posted_total")
}

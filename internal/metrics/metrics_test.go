package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusOf(t *testing.T) {
	assert.Equal(t, StatusOK, StatusOf(nil))
	assert.Equal(t, StatusError, StatusOf(errors.New("boom")))
}

func TestObserveQuery(t *testing.T) {
	before := testutil.ToFloat64(QueriesTotal.WithLabelValues("metrics_test", StatusError))
	ObserveQuery("metrics_test", time.Now(), errors.New("boom"))
	after := testutil.ToFloat64(QueriesTotal.WithLabelValues("metrics_test", StatusError))
	assert.Equal(t, before+1, after)
}

func TestObserveBackend(t *testing.T) {
	before := testutil.ToFloat64(BackendRequestsTotal.WithLabelValues("test", "search", StatusOK))
	ObserveBackend("test", "search", time.Now(), nil)
	after := testutil.ToFloat64(BackendRequestsTotal.WithLabelValues("test", "search", StatusOK))
	assert.Equal(t, before+1, after)
}

func TestHandlerExposesCollectors(t *testing.T) {
	WindowClamps.Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "esquery_window_clamps_total"))
}

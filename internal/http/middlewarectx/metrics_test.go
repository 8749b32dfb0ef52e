package middlewarectx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/broadband-portal/internal/lib/metrics"
)

func TestMetrics_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics)
	r.Get("/subscriptions/{id}/renew", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	counter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/subscriptions/{id}/renew", "409")
	before := testutil.ToFloat64(counter)

	for _, id := range []string{"1", "2"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/subscriptions/"+id+"/renew", nil))
		assert.Equal(t, http.StatusConflict, rr.Code)
	}

	assert.InDelta(t, before+2, testutil.ToFloat64(counter), 0.001)
}

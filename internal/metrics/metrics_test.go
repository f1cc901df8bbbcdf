package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_CountsByRouteTemplate(t *testing.T) {
	e := echo.New()
	e.Use(Middleware())
	e.GET("/api/plans/:tier", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/plans/:tier", "204"))

	for _, tier := range []string{"pro", "starter"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/plans/"+tier, nil))
		require.Equal(t, http.StatusNoContent, rec.Code)
	}

	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/plans/:tier", "204"))
	assert.Equal(t, before+2, after)
}

func TestHandler_ExposesDomainCounters(t *testing.T) {
	RecordPurchase("pro")
	RecordSignalPublished("starter")
	RecordFanout("telegram", true)
	RecordExpired(3)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	for _, name := range []string{
		"signaldesk_billing_purchases_total",
		"signaldesk_signals_published_total",
		"signaldesk_notifications_fanout_total",
		"signaldesk_subscriptions_expired_total",
	} {
		assert.True(t, strings.Contains(body, name), "missing %s", name)
	}
}

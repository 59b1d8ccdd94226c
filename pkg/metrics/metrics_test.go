package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckoutMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewCheckoutMetrics(reg, "order")

	m.Attempt()
	m.Attempt()
	m.Observe("success", 12*time.Millisecond)
	m.Observe("insufficient_stock", 3*time.Millisecond)
	m.Observe("success", 7*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Checkouts.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Checkouts.WithLabelValues("insufficient_stock")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Attempts))
	assert.Equal(t, 1, testutil.CollectAndCount(m.DurationMS))

	var nilMetrics *CheckoutMetrics
	assert.NotPanics(t, func() {
		nilMetrics.Attempt()
		nilMetrics.Observe("success", time.Millisecond)
	})
}

func TestServerMetrics_MiddlewareAndHandler(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	sm := NewServerMetrics(reg, "order")

	e := echo.New()
	e.Use(sm.Middleware)
	e.GET("/orders/:id", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	})
	e.GET("/metrics", echo.WrapHandler(Handler(reg)))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/abc", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(sm.Requests.WithLabelValues(http.MethodGet, "/orders/:id", "404")))

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "shop_order_http_requests_total"))
}

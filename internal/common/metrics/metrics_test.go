package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.DashboardMembers.Set(3)
	m.Broadcasts.WithLabelValues("new_order_alert").Inc()
	m.Logins.WithLabelValues("success").Add(2)

	assert.Equal(t, float64(3), testutil.ToFloat64(m.DashboardMembers))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.Logins.WithLabelValues("success")))

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "restaurant_admin_dashboard_members 3")
	assert.Contains(t, string(body), `restaurant_admin_broadcasts_total{event="new_order_alert"} 1`)
}

func TestNew_IndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.DroppedEvents.Inc()
	assert.Equal(t, float64(1), testutil.ToFloat64(a.DroppedEvents))
	assert.Equal(t, float64(0), testutil.ToFloat64(b.DroppedEvents))
}

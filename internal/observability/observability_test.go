package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingSink struct{ calls int }

func (s *failingSink) Publish(context.Context, string, any) error {
	s.calls++
	return errors.New("channel closed")
}

func TestPublishEventCountsErrors(t *testing.T) {
	require.NoError(t, PublishEvent(context.Background(), "ws_events.calendar", WSEvent{EventName: "ws_connect"}))

	sink := &failingSink{}
	SetEventSink(sink)
	t.Cleanup(func() { SetEventSink(nil) })

	before := testutil.ToFloat64(amqpPublishErrorsTotal)
	require.Error(t, PublishEvent(context.Background(), "ws_events.calendar", WSEvent{EventName: "ws_connect"}))
	assert.Equal(t, 1, sink.calls)
	assert.Equal(t, before+1, testutil.ToFloat64(amqpPublishErrorsTotal))
}

func TestHTTPMetricsMiddlewareUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(HTTPMetricsMiddleware())
	r.GET("/events/:event_id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	counter := httpRequestsTotal.WithLabelValues(http.MethodGet, "/events/:event_id", "204")
	before := testutil.ToFloat64(counter)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events/memo_1", nil))

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestIPFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.RemoteAddr = "10.0.0.7:51234"
	assert.Equal(t, "10.0.0.7", IPFromRequest(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", IPFromRequest(req))
}

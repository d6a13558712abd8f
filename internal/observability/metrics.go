package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waz_http_requests_total",
			Help: "Total number of HTTP requests processed by the calendar service.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "waz_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	storeOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waz_store_operations_total",
			Help: "Total number of object store operations.",
		},
		[]string{"backend", "op", "result"},
	)
	storeOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "waz_store_operation_duration_seconds",
			Help:    "Object store operation latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "op"},
	)
	sagaCompensationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waz_saga_compensations_total",
			Help: "Total number of compensating writes after a failed cross-account step.",
		},
		[]string{"workflow", "result"},
	)
	busMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waz_bus_messages_total",
			Help: "Total number of domain messages published on the in-process bus.",
		},
		[]string{"type"},
	)
	wsActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "waz_ws_active_connections",
			Help: "Number of active websocket connections.",
		},
	)
	wsEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waz_ws_events_total",
			Help: "Total number of websocket events.",
		},
		[]string{"event"},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "waz_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
	jobRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waz_job_runs_total",
			Help: "Total number of scheduled job runs.",
		},
		[]string{"job", "result"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		storeOperationsTotal,
		storeOperationDuration,
		sagaCompensationsTotal,
		busMessagesTotal,
		wsActiveConnections,
		wsEventsTotal,
		amqpPublishErrorsTotal,
		jobRunsTotal,
	)
}

func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func ObserveStoreOp(backend, op, result string, elapsed time.Duration) {
	storeOperationsTotal.WithLabelValues(backend, op, result).Inc()
	storeOperationDuration.WithLabelValues(backend, op).Observe(elapsed.Seconds())
}

func IncSagaCompensation(workflow string, ok bool) {
	result := "ok"
	if !ok {
		result = "failed"
	}
	sagaCompensationsTotal.WithLabelValues(workflow, result).Inc()
}

func IncBusMessage(msgType string) {
	busMessagesTotal.WithLabelValues(msgType).Inc()
}

func IncWSActive() {
	wsActiveConnections.Inc()
}

func DecWSActive() {
	wsActiveConnections.Dec()
}

func IncWSEvent(event string) {
	wsEventsTotal.WithLabelValues(event).Inc()
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}

func IncJobRun(job string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	jobRunsTotal.WithLabelValues(job, result).Inc()
}

package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "depositscope_request_duration_seconds",
			Help:    "Dashboard request latency in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"route"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "depositscope_requests_total",
			Help: "Total dashboard requests served",
		},
		[]string{"route", "status"},
	)

	PredictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "depositscope_predictions_total",
			Help: "Prediction requests by model and outcome",
		},
		[]string{"model", "status"},
	)

	ArtifactLoadFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "depositscope_artifact_load_failures_total",
			Help: "Artifact loads that failed, by failure kind",
		},
		[]string{"kind"},
	)
)

var registerOnce sync.Once

// Init registers every collector with the default registry. Repeat
// calls are no-ops, so tests can build servers freely.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(RequestsTotal)
		prometheus.MustRegister(PredictionsTotal)
		prometheus.MustRegister(ArtifactLoadFailures)
	})
}

// Handler serves the registry for scraping.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

// Middleware observes request counts and latencies per route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		RequestsTotal.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

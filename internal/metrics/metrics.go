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
	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "forum_http_requests_total",
		Help: "HTTP requests processed, labelled by route and status.",
	}, []string{"method", "path", "status"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "forum_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	signIns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "forum_auth_sign_ins_total",
		Help: "Sign-in attempts by outcome.",
	}, []string{"outcome"})

	renewals = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "forum_auth_renewals_total",
		Help: "Refresh token renewals by outcome.",
	}, []string{"outcome"})

	sweptTokens = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "forum_auth_swept_tokens_total",
		Help: "Expired refresh tokens removed by the sweep.",
	})

	chatConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "forum_chat_connections",
		Help: "Open chat websocket connections.",
	})

	registerOnce sync.Once
)

// InitMetrics registers the collectors with the default registry. Safe to call repeatedly.
func InitMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, signIns, renewals, sweptTokens, chatConnections)
	})
}

// Middleware records request counts and latency per matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// Register attaches the Prometheus metrics endpoint to the router.
func Register(router *gin.Engine, path string) {
	router.GET(path, gin.WrapH(promhttp.Handler()))
}

// ObserveSignIn counts a sign-in attempt.
func ObserveSignIn(outcome string) { signIns.WithLabelValues(outcome).Inc() }

// ObserveRenewal counts a refresh token renewal attempt.
func ObserveRenewal(outcome string) { renewals.WithLabelValues(outcome).Inc() }

// AddSweptTokens adds the number of refresh tokens removed by one sweep.
func AddSweptTokens(n int64) {
	if n > 0 {
		sweptTokens.Add(float64(n))
	}
}

// ChatConnected tracks websocket connections opening and closing.
func ChatConnected(delta int) { chatConnections.Add(float64(delta)) }

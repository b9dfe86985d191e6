package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/unisupport/unisupport/internal/auth"
)

const profileKey = "profile"

var (
	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unisupport_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "unisupport_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "unisupport_quiz_sessions_active",
			Help: "Quiz sessions held in memory",
		},
	)

	attemptsSaved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unisupport_attempts_saved_total",
			Help: "Completed quiz attempts by category and outcome",
		},
		[]string{"category", "outcome"},
	)
)

func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// bearerAuth verifies the Authorization header and stores the caller's
// profile on the context.
func bearerAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "authorization header required"})
			return
		}

		profile, err := auth.ParseToken(secret, header)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid or expired token"})
			return
		}

		c.Set(profileKey, profile)
		c.Next()
	}
}

func profileFrom(c *gin.Context) auth.Profile {
	v, _ := c.Get(profileKey)
	p, _ := v.(auth.Profile)
	return p
}

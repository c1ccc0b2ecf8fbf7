// Package observability provides metrics and tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SignupsTotal counts successful signups.
	SignupsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "warbler_signups_total",
		Help: "Total number of successful signups",
	})

	// LoginsTotal counts login attempts by result (success, failure).
	LoginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "warbler_logins_total",
		Help: "Total number of login attempts by result",
	}, []string{"result"})

	// MessagesTotal counts message writes by operation (create, delete).
	MessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "warbler_messages_total",
		Help: "Total number of message writes by operation",
	}, []string{"op"})

	// FollowEdgesTotal counts follow edge writes by operation (follow, unfollow).
	FollowEdgesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "warbler_follow_edges_total",
		Help: "Total number of follow edge writes by operation",
	}, []string{"op"})

	// LikesTotal counts like edge writes by operation (like, unlike).
	LikesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "warbler_likes_total",
		Help: "Total number of like edge writes by operation",
	}, []string{"op"})

	// UnauthorizedTotal counts refused requests by route.
	UnauthorizedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "warbler_unauthorized_total",
		Help: "Total number of requests refused by the session gate",
	}, []string{"route"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "warbler_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})
)

// ObserveQuery records the latency of a database query that started at start.
func ObserveQuery(operation, table string, start time.Time) {
	DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
}

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests"},
		[]string{"route", "method", "status"},
	)
	ReqDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Request duration seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	InFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "http_in_flight_requests", Help: "In-flight HTTP requests"},
	)
	Toggles = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "actorset_mutations_total", Help: "Actor-set mutations by collection and outcome"},
		[]string{"collection", "outcome"},
	)
	Subscriptions = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "realtime_subscriptions", Help: "Live list subscriptions"},
	)
	SubscriptionErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "realtime_subscription_errors_total", Help: "Subscriptions that entered the failed state"},
		[]string{"collection"},
	)
	Sessions = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "realtime_sessions", Help: "Open realtime sessions"},
	)
	MessagesExpired = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "chat_messages_expired_total", Help: "Chat messages deleted after being read"},
	)
)

var once sync.Once

// MustRegister registers every collector once with the default registry.
func MustRegister() {
	once.Do(func() {
		prometheus.MustRegister(RequestsTotal, ReqDuration, InFlight,
			Toggles, Subscriptions, SubscriptionErrors, Sessions, MessagesExpired)
	})
}

package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HttpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	WagersSettled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wagers_settled_total",
			Help: "Total wagers settled",
		},
		[]string{"game", "result"},
	)

	WagerRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wager_rejections_total",
			Help: "Total wagers rejected before settlement",
		},
		[]string{"reason"},
	)

	SettlementDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "settlement_duration_seconds",
			Help:    "Time spent in the atomic settlement primitive",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"game"},
	)

	NotificationsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_dropped_total",
			Help: "Win notifications dropped because the queue was full",
		},
	)
)

func Init() {
	prometheus.MustRegister(HttpRequests)
	prometheus.MustRegister(WagersSettled)
	prometheus.MustRegister(WagerRejections)
	prometheus.MustRegister(SettlementDuration)
	prometheus.MustRegister(NotificationsDropped)
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP 指标
var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
)

// 业务指标
var (
	bookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookings_total",
			Help: "Booking attempts by outcome",
		},
		[]string{"outcome"}, // confirmed / package_not_found / insufficient_slots / invalid_coupon / overlap / error
	)

	bookedSlotsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "booked_slots_total",
			Help: "Total number of slots reserved by confirmed bookings",
		},
	)
)

// ObserveHTTPRequest 记录一次 HTTP 请求
func ObserveHTTPRequest(method, endpoint, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordBooking 记录一次下单结果
func RecordBooking(outcome string, slots int) {
	bookingsTotal.WithLabelValues(outcome).Inc()
	if outcome == "confirmed" && slots > 0 {
		bookedSlotsTotal.Add(float64(slots))
	}
}

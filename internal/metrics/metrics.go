package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Reservation outcome labels.
const (
	OutcomeCreated              = "created"
	OutcomeUpdated              = "updated"
	OutcomeDeleted              = "deleted"
	OutcomeSlotTaken            = "slot_taken"
	OutcomeInsufficientCapacity = "insufficient_capacity"
	OutcomeRejected             = "rejected"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "restaurant_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "restaurant_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	reservationOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "restaurant_reservation_outcomes_total",
		Help: "Reservation write attempts by outcome",
	}, []string{"outcome"})

	availabilityChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "restaurant_availability_checks_total",
		Help: "Availability checks by result",
	}, []string{"result"})
)

// ObserveHTTPRequest records an HTTP request metric.  route is the
// registered path pattern, not the raw URL, to bound label cardinality.
func ObserveHTTPRequest(method, route, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	httpRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

// ObserveReservation increments the reservation outcome counter.
func ObserveReservation(outcome string) {
	reservationOutcomes.WithLabelValues(outcome).Inc()
}

// ObserveAvailability increments the availability check counter.
func ObserveAvailability(result string) {
	availabilityChecks.WithLabelValues(result).Inc()
}

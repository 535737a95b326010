package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	VerificationSubmitted = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "portal_verification_submitted_total", Help: "Total verification requests submitted"},
	)
	VerificationReviewed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "portal_verification_reviewed_total", Help: "Total verification requests reviewed"},
		[]string{"outcome"},
	)
	ReviewsRecorded = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "portal_reviews_recorded_total", Help: "Total submission reviews recorded"},
		[]string{"qualification"},
	)
	BulkOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "portal_bulk_operations_total", Help: "Total bulk operations applied"},
		[]string{"action", "outcome"},
	)
	NotificationsDispatched = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "portal_notifications_dispatched_total", Help: "Total notifications dispatched"},
	)
	StatsRecomputed = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "portal_stats_recomputed_total", Help: "Total stats snapshot recomputations"},
	)
)

func Register() {
	prometheus.MustRegister(
		VerificationSubmitted,
		VerificationReviewed,
		ReviewsRecorded,
		BulkOperations,
		NotificationsDispatched,
		StatsRecomputed,
	)
}

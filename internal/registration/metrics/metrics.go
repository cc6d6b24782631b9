package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the registration workflow engine.
type Metrics struct {
	// Batch submissions by fee type
	BatchesSubmitted *prometheus.CounterVec

	// Review outcomes by decision
	ReviewOutcome *prometheus.CounterVec

	// Rule denials by machine reason (deadline_passed, sibling_threshold, ...)
	RuleDenials *prometheus.CounterVec

	// Time a batch spends waiting for review
	ReviewWait prometheus.Histogram
}

// New creates a Metrics instance with all registration metrics registered.
func New() *Metrics {
	return &Metrics{
		BatchesSubmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "campreg_batches_submitted_total",
			Help: "Total batches submitted by fee type",
		}, []string{"fee_type"}),

		ReviewOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "campreg_review_outcomes_total",
			Help: "Total batch review outcomes by decision",
		}, []string{"decision"}),

		RuleDenials: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "campreg_rule_denials_total",
			Help: "Total operations denied by a workflow rule, by reason",
		}, []string{"reason"}),

		ReviewWait: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "campreg_review_wait_seconds",
			Help:    "Time between batch submission and its review decision",
			Buckets: prometheus.ExponentialBuckets(60, 4, 8),
		}),
	}
}

// IncrementSubmitted records a successful batch submission.
func (m *Metrics) IncrementSubmitted(feeType string) {
	if m != nil {
		m.BatchesSubmitted.WithLabelValues(feeType).Inc()
	}
}

// IncrementReview records a review outcome.
func (m *Metrics) IncrementReview(decision string) {
	if m != nil {
		m.ReviewOutcome.WithLabelValues(decision).Inc()
	}
}

// IncrementDenial records a rule denial by machine reason.
func (m *Metrics) IncrementDenial(reason string) {
	if m != nil {
		m.RuleDenials.WithLabelValues(reason).Inc()
	}
}

// ObserveReviewWait records how long a batch waited for its decision.
func (m *Metrics) ObserveReviewWait(d time.Duration) {
	if m != nil {
		m.ReviewWait.Observe(d.Seconds())
	}
}

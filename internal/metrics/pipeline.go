// Package metrics exposes Prometheus instrumentation for the summary
// pipeline. Both the client engine and the server enricher record into a
// Pipeline; a nil *Pipeline is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Job outcomes.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeEmpty     = "empty"
	OutcomeDiscarded = "discarded"
)

// Poll outcomes.
const (
	PollComplete  = "complete"
	PollGivenUp   = "given_up"
	PollCancelled = "cancelled"
)

type Pipeline struct {
	jobsStarted  prometheus.Counter
	jobsFinished *prometheus.CounterVec
	jobDuration  prometheus.Histogram
	polls        *prometheus.CounterVec
	saves        *prometheus.CounterVec
	reviews      *prometheus.CounterVec
}

// NewPipeline registers the pipeline collectors on reg under namespace.
//
//	daylog_summary_jobs_started_total
//	daylog_summary_jobs_finished_total{outcome}
//	daylog_summary_job_duration_seconds
//	daylog_summary_polls_total{outcome}
//	daylog_record_saves_total{kind}
//	daylog_monthly_reviews_total{result}
func NewPipeline(reg prometheus.Registerer, namespace string) *Pipeline {
	f := promauto.With(reg)
	return &Pipeline{
		jobsStarted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summary_jobs_started_total",
			Help:      "Background summary generations started.",
		}),
		jobsFinished: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summary_jobs_finished_total",
			Help:      "Background summary generations by outcome.",
		}, []string{"outcome"}),
		jobDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "summary_job_duration_seconds",
			Help:      "Time spent generating one daily summary.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		polls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summary_polls_total",
			Help:      "Summary poll loops by final state.",
		}, []string{"outcome"}),
		saves: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "record_saves_total",
			Help:      "Record saves, split into upserts and deletions of meaningless content.",
		}, []string{"kind"}),
		reviews: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "monthly_reviews_total",
			Help:      "Monthly review requests by cache result.",
		}, []string{"result"}),
	}
}

func (p *Pipeline) JobStarted() {
	if p == nil {
		return
	}
	p.jobsStarted.Inc()
}

func (p *Pipeline) JobFinished(outcome string, took time.Duration) {
	if p == nil {
		return
	}
	p.jobsFinished.WithLabelValues(outcome).Inc()
	if outcome != OutcomeDiscarded {
		p.jobDuration.Observe(took.Seconds())
	}
}

func (p *Pipeline) PollFinished(outcome string) {
	if p == nil {
		return
	}
	p.polls.WithLabelValues(outcome).Inc()
}

// Saved counts a save; deleted is true when the content was meaningless.
func (p *Pipeline) Saved(deleted bool) {
	if p == nil {
		return
	}
	kind := "upsert"
	if deleted {
		kind = "delete"
	}
	p.saves.WithLabelValues(kind).Inc()
}

// Review counts a monthly review request; hit is true for a cache hit.
func (p *Pipeline) Review(hit bool) {
	if p == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	p.reviews.WithLabelValues(result).Inc()
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder holds the lifecycle collectors. A nil *Recorder records nothing.
type Recorder struct {
	assignments *prometheus.CounterVec
	starts      prometheus.Counter
	submissions *prometheus.CounterVec
	scoring     prometheus.Histogram
}

func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		assignments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "psych_assignments_created_total",
			Help: "Assignments created, by outcome (created|rejected).",
		}, []string{"outcome"}),
		starts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "psych_assignments_started_total",
			Help: "First starts of assignments.",
		}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "psych_submissions_total",
			Help: "Submit calls, by outcome (scored|expired|rejected|error).",
		}, []string{"outcome"}),
		scoring: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "psych_scoring_duration_seconds",
			Help:    "Time spent scoring and persisting one submission.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(r.assignments, r.starts, r.submissions, r.scoring)
	return r
}

func (r *Recorder) AssignmentCreated() {
	if r != nil {
		r.assignments.WithLabelValues("created").Inc()
	}
}

func (r *Recorder) AssignmentRejected() {
	if r != nil {
		r.assignments.WithLabelValues("rejected").Inc()
	}
}

func (r *Recorder) Started() {
	if r != nil {
		r.starts.Inc()
	}
}

func (r *Recorder) Submission(outcome string) {
	if r != nil {
		r.submissions.WithLabelValues(outcome).Inc()
	}
}

func (r *Recorder) ObserveScoring(d time.Duration) {
	if r != nil {
		r.scoring.Observe(d.Seconds())
	}
}

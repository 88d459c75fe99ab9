package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Job records scheduled job executions.
type Job struct {
	duration *prometheus.HistogramVec
	runs     *prometheus.CounterVec
	emails   *prometheus.CounterVec
}

// NewJob registers the job collectors on reg. A nil reg yields a no-op value.
func NewJob(reg prometheus.Registerer) *Job {
	if reg == nil {
		return &Job{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ndavault",
		Name:      "job_duration_seconds",
		Help:      "Duration of scheduled jobs in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"job"})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ndavault",
		Name:      "job_runs_total",
		Help:      "Scheduled job runs by outcome.",
	}, []string{"job", "outcome"})
	emails := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ndavault",
		Name:      "alert_emails_total",
		Help:      "Alert e-mails by delivery result.",
	}, []string{"result"})
	reg.MustRegister(duration, runs, emails)
	return &Job{duration: duration, runs: runs, emails: emails}
}

// Observe records one run of job. Outcome is "success", "failure" or "skipped".
func (j *Job) Observe(job, outcome string, took time.Duration) {
	if j == nil || j.runs == nil {
		return
	}
	job = label(job)
	j.runs.WithLabelValues(job, label(outcome)).Inc()
	if outcome != "skipped" {
		j.duration.WithLabelValues(job).Observe(took.Seconds())
	}
}

// Emails adds sent and failed delivery counts.
func (j *Job) Emails(sent, failed int) {
	if j == nil || j.emails == nil {
		return
	}
	j.emails.WithLabelValues("sent").Add(float64(sent))
	j.emails.WithLabelValues("failed").Add(float64(failed))
}

func label(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}

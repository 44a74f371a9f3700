package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProjectTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grantforge_project_transitions_total",
			Help: "Project status transitions by resulting status",
		},
		[]string{"company_id", "status"},
	)

	ApprovalDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grantforge_approval_decisions_total",
			Help: "Approval request decisions by outcome",
		},
		[]string{"decision"},
	)

	AIReviewsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grantforge_ai_reviews_total",
			Help: "AI review invocations by outcome",
		},
		[]string{"outcome"},
	)

	UploadBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "grantforge_upload_bytes_total",
			Help: "Total bytes accepted through file upload",
		},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "grantforge_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

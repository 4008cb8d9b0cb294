package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dissertation_transitions_total",
			Help: "Total number of request status transitions by outcome",
		},
		[]string{"status", "outcome"},
	)

	PolicyRejectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dissertation_policy_rejects_total",
			Help: "Approval attempts rejected by policy, by reason",
		},
		[]string{"reason"},
	)

	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dissertation_document_uploads_total",
			Help: "Document upload attempts by role and outcome",
		},
		[]string{"role", "outcome"},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dissertation_notifications_total",
			Help: "Transition notifications processed by the worker",
		},
		[]string{"type"},
	)
)

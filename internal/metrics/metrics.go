package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kazkleen_orders_created_total",
		Help: "Total number of orders successfully created.",
	})

	OrdersCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kazkleen_orders_completed_total",
		Help: "Total number of orders marked as completed.",
	})

	OrdersDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kazkleen_orders_deleted_total",
		Help: "Total number of orders removed from the document.",
	})

	UsersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kazkleen_users_created_total",
		Help: "Total number of user accounts created.",
	})

	UsersDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kazkleen_users_deleted_total",
		Help: "Total number of user accounts deleted.",
	})

	AuthFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kazkleen_auth_failures_total",
		Help: "Total number of rejected login attempts.",
	})

	DocumentsReseededTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kazkleen_documents_reseeded_total",
		Help: "Total number of times the persisted document was replaced by the seed.",
	},
		[]string{"reason"},
	)

	OperationErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kazkleen_operation_errors_total",
		Help: "Total number of errors encountered during specific operations.",
	},
		[]string{"operation"},
	)

	AuditEventsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kazkleen_audit_events_dropped_total",
		Help: "Total number of audit events dropped because the queue was full.",
	})
)

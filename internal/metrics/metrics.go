package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AlertsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "alerts_created_total",
		Help: "Alerts constructed by the factory, by type.",
	}, []string{"type"})

	Dispatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "alert_dispatch_total",
		Help: "Per-channel dispatch attempts, by channel and outcome.",
	}, []string{"channel", "outcome"})

	Deferred = promauto.NewCounter(prometheus.CounterOpts{
		Name: "alerts_deferred_total",
		Help: "Alerts deferred to the end of quiet hours.",
	})

	Suppressed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "alerts_suppressed_total",
		Help: "Alerts dismissed because their category is disabled.",
	})

	Snoozed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "alerts_snoozed_total",
		Help: "Alerts snoozed for later re-delivery.",
	})

	Expired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "alerts_expired_total",
		Help: "Alerts removed by the expiry sweep.",
	})

	CascadeContacts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "escalation_contacts_notified_total",
		Help: "Emergency-contact cascade sends, by channel and outcome.",
	}, []string{"channel", "outcome"})
)

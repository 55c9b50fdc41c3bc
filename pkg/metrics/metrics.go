package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OutboundSends counts Graph API send calls by payload kind and result.
	OutboundSends = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chatdesk",
			Subsystem: "whatsapp",
			Name:      "outbound_sends_total",
			Help:      "Total outbound WhatsApp send attempts",
		},
		[]string{"kind", "result"},
	)

	// InboundMessages counts webhook messages by what happened to them.
	InboundMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chatdesk",
			Subsystem: "whatsapp",
			Name:      "inbound_messages_total",
			Help:      "Total inbound webhook messages by outcome",
		},
		[]string{"outcome"},
	)

	CampaignDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chatdesk",
			Subsystem: "campaigns",
			Name:      "deliveries_total",
			Help:      "Total campaign recipient deliveries by result",
		},
		[]string{"result"},
	)
)

const (
	ResultSuccess = "success"
	ResultFailure = "failure"

	OutcomeFiled         = "filed"
	OutcomeDuplicate     = "duplicate"
	OutcomeUnknownTenant = "unknown_tenant"
	OutcomeFailed        = "failed"
)

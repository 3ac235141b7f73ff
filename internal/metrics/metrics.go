package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CampaignsTotal tracks campaign dispatches by recipient source and outcome
	CampaignsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaign_service_campaigns_total",
			Help: "Total number of campaign dispatches",
		},
		[]string{"source", "outcome"}, // outcome: sent, failed, no_recipients, resolution_error
	)

	// BatchesTotal tracks provider batch calls by outcome
	BatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaign_service_batches_total",
			Help: "Total number of campaign batches sent to the mail provider",
		},
		[]string{"outcome"},
	)

	// RecipientsTotal tracks recipients in successfully sent batches
	RecipientsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "campaign_service_recipients_total",
			Help: "Total number of recipients in successfully sent batches",
		},
	)

	// BatchDuration tracks the duration of a single provider batch call
	BatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "campaign_service_batch_duration_seconds",
			Help:    "Mail provider batch call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// TestSendsTotal tracks single test emails by outcome
	TestSendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaign_service_test_sends_total",
			Help: "Total number of test emails sent",
		},
		[]string{"outcome"},
	)

	// RateLimitExceeded tracks rate limit violations
	RateLimitExceeded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaign_service_rate_limit_exceeded_total",
			Help: "Total number of rate limit exceeded events",
		},
		[]string{"route"},
	)

	// DeliveryEvents tracks provider delivery webhooks by provider and event
	DeliveryEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaign_service_delivery_events_total",
			Help: "Total number of delivery events reported by mail providers",
		},
		[]string{"provider", "event"}, // delivered, bounce, dropped, spamreport, ...
	)

	// EventPublishFailures tracks campaign events that could not be published
	EventPublishFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "campaign_service_event_publish_failures_total",
			Help: "Total number of campaign events that failed to publish",
		},
	)
)

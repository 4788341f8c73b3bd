package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	Signups           prometheus.Counter
	Logins            prometheus.Counter
	MessagesSent      prometheus.Counter
	SendFailures      prometheus.Counter
	AttachmentsStored prometheus.Counter
	AttachmentBytes   prometheus.Histogram
}

// NewMetrics registers and returns the service metrics. Tests pass a fresh
// registry so registration never collides.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Signups: factory.NewCounter(prometheus.CounterOpts{
			Name: "messagerie_signups_total",
			Help: "Total number of successful signups",
		}),
		Logins: factory.NewCounter(prometheus.CounterOpts{
			Name: "messagerie_logins_total",
			Help: "Total number of successful logins",
		}),
		MessagesSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "messagerie_messages_sent_total",
			Help: "Total number of messages sent",
		}),
		SendFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "messagerie_send_failures_total",
			Help: "Total number of rejected or failed message sends",
		}),
		AttachmentsStored: factory.NewCounter(prometheus.CounterOpts{
			Name: "messagerie_attachments_stored_total",
			Help: "Total number of attachments written to storage",
		}),
		AttachmentBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "messagerie_attachment_bytes",
			Help:    "Size distribution of stored attachments",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
		}),
	}
}

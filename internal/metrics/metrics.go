package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the service counters exposed on /metrics.
type Metrics struct {
	Requests       *prometheus.CounterVec
	RequestLatency *prometheus.HistogramVec
	MessagesSent   prometheus.Counter
	PostsCreated   prometheus.Counter
	EmailFailures  *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pixora_http_requests_total",
				Help: "Total number of HTTP requests by route and status code",
			},
			[]string{"method", "route", "status"},
		),
		RequestLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pixora_http_request_duration_seconds",
				Help:    "HTTP request latency by route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		MessagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pixora_messages_sent_total",
			Help: "Total number of direct messages sent",
		}),
		PostsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pixora_posts_created_total",
			Help: "Total number of posts created",
		}),
		EmailFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pixora_email_failures_total",
				Help: "Emails that could not be delivered, by template",
			},
			[]string{"template"},
		),
	}

	reg.MustRegister(m.Requests, m.RequestLatency, m.MessagesSent, m.PostsCreated, m.EmailFailures)
	return m
}

// The helpers below are no-ops on a nil *Metrics.

func (m *Metrics) MessageSent() {
	if m != nil {
		m.MessagesSent.Inc()
	}
}

func (m *Metrics) PostCreated() {
	if m != nil {
		m.PostsCreated.Inc()
	}
}

func (m *Metrics) EmailFailed(template string) {
	if m != nil {
		m.EmailFailures.WithLabelValues(template).Inc()
	}
}

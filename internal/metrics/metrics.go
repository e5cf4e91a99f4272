// Package metrics holds the prometheus collectors exposed on /metrics
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CodesIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_codes_issued_total",
			Help: "Verification codes issued, by purpose",
		},
		[]string{"purpose"},
	)

	// result: ok, not_found, expired, too_many_attempts, incorrect, token_invalid
	Verifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_verifications_total",
			Help: "Code verification attempts, by purpose and result",
		},
		[]string{"purpose", "result"},
	)

	// result: ok, twofa_required, invalid_credentials, not_verified
	Logins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_logins_total",
			Help: "Password login attempts, by result",
		},
		[]string{"result"},
	)

	MailDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_mail_deliveries_total",
			Help: "Outgoing mails, by status (sent, failed, dropped)",
		},
		[]string{"status"},
	)

	MailQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "auth_mail_queue_depth",
			Help: "Mails waiting for a worker",
		},
	)

	CleanupRemoved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_cleanup_removed_total",
			Help: "Rows removed by background cleanup jobs",
		},
		[]string{"job"},
	)
)

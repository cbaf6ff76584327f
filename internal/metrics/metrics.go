// Package metrics exposes prometheus counters for the bot and the
// distribution run, plus an optional ops HTTP server serving /metrics
// and /healthz.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LettersSaved counts successful letter upserts.
	LettersSaved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snowpost_letters_saved_total",
		Help: "Number of letters stored or replaced.",
	})

	// LettersDeleted counts administrative letter deletions.
	LettersDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snowpost_letters_deleted_total",
		Help: "Number of letters removed by operators.",
	})

	// AccessDenied counts gatekeeper denials, including fail-closed ones.
	AccessDenied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snowpost_access_denied_total",
		Help: "Number of denied membership checks.",
	}, []string{"reason"})

	// DeliveriesOK counts letters delivered during distribution runs.
	DeliveriesOK = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snowpost_deliveries_ok_total",
		Help: "Number of letters delivered to recipients.",
	})

	// DeliveriesFailed counts per-recipient delivery failures.
	DeliveriesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snowpost_deliveries_failed_total",
		Help: "Number of letter deliveries that failed.",
	})
)

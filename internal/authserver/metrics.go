package authserver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Callback outcomes. No per-request labels.
const (
	outcomeSuccess   = "success"
	outcomeNoCode    = "no_code"
	outcomeBadQuery  = "bad_query"
	outcomeEmitError = "emit_error"
)

var (
	serversStartedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "deskhost_auth_servers_started_total",
		Help: "Total number of OAuth callback servers started.",
	})

	serversActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "deskhost_auth_servers_active",
		Help: "Number of OAuth callback server tasks currently running.",
	})

	callbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deskhost_auth_callbacks_total",
		Help: "Total number of requests to /callback, by outcome.",
	}, []string{"outcome"})
)

package bridge

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	invocationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deskhost_bridge_invocations_total",
		Help: "Total number of commands invoked over the bridge, by outcome.",
	}, []string{"command", "outcome"})

	eventSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "deskhost_bridge_event_subscribers",
		Help: "Number of open /events streams.",
	})

	eventsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "deskhost_bridge_events_dropped_total",
		Help: "Events dropped because a subscriber was too slow.",
	})
)

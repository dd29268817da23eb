package relay

import "github.com/prometheus/client_golang/prometheus"

var (
	relayEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_events_total",
			Help: "Total number of relay events handled, by event name.",
		},
		[]string{"event"},
	)

	relayRooms = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_rooms",
			Help: "Current number of chat rooms with at least one joined client.",
		},
	)

	relayDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_slow_consumers_dropped_total",
			Help: "Total number of clients dropped for not draining their send buffer.",
		},
	)
)

func init() {
	prometheus.MustRegister(relayEvents, relayRooms, relayDropped)
}

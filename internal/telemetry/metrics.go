package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// LoginOutcomes counts login decisions by outcome (admin, valid, fake, error)
	LoginOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "honeytrap",
			Name:      "login_outcomes_total",
			Help:      "Total number of login attempts by decision outcome",
		},
		[]string{"outcome"},
	)

	// CommandsDispatched counts requests dispatched to a handler
	CommandsDispatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "honeytrap",
			Name:      "commands_dispatched_total",
			Help:      "Total number of wire commands dispatched to handlers",
		},
		[]string{"command"},
	)

	// OpenConnections tracks live client connections per channel
	OpenConnections = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "honeytrap",
			Name:      "open_connections",
			Help:      "Number of currently open client connections",
		},
		[]string{"channel"},
	)

	// StealthResets counts connections reset by the port visibility workers
	StealthResets = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "honeytrap",
			Name:      "stealth_resets_total",
			Help:      "Total number of probe connections reset on masked ports",
		},
		[]string{"port"},
	)

	// SuspectsFlagged counts potential-attacker records written, by reason
	SuspectsFlagged = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "honeytrap",
			Name:      "suspects_flagged_total",
			Help:      "Total number of suspect records written",
		},
		[]string{"reason"},
	)

	// Ensure metrics are only registered once
	once sync.Once
)

// InitMetrics registers all metrics with the global Prometheus registry.
// This function is idempotent and can be called multiple times safely.
func InitMetrics() {
	once.Do(func() {
		prometheus.DefaultRegisterer.Register(LoginOutcomes)
		prometheus.DefaultRegisterer.Register(CommandsDispatched)
		prometheus.DefaultRegisterer.Register(OpenConnections)
		prometheus.DefaultRegisterer.Register(StealthResets)
		prometheus.DefaultRegisterer.Register(SuspectsFlagged)
	})
}

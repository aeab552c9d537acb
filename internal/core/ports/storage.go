package ports

import "github.com/lcalzada-xor/honeytrap/internal/core/domain"

// Storage is the persistent view over the six gateway collections. Each
// collection is read and written as a whole: a Save replaces the previous
// snapshot, and a concurrent reader observes either the pre- or post-image of
// any single write. Missing or malformed state loads as an empty snapshot.
// Cross-collection atomicity is not provided; the policy engine is written to
// tolerate interleaving.
type Storage interface {
	// Users maps username to password.
	Users() (map[string]string, error)
	SaveUsers(users map[string]string) error

	// Sessions maps username to its active session.
	Sessions() (map[string]domain.Session, error)
	SaveSessions(sessions map[string]domain.Session) error

	// Ports is the fronted-port policy table.
	Ports() ([]domain.ServicePort, error)
	SavePorts(ports []domain.ServicePort) error

	// BannedIPs is the set of banned source addresses.
	BannedIPs() ([]string, error)
	SaveBannedIPs(ips []string) error

	// Suspects holds potential-attacker records, one per (username, ip).
	Suspects() ([]domain.Suspect, error)
	SaveSuspects(suspects []domain.Suspect) error

	// Attackers is read-only from the gateway's point of view; confirmed
	// records are appended by external tooling.
	Attackers() ([]domain.Attacker, error)

	// Close releases the underlying connection.
	Close() error
}

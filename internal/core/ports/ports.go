package ports

import "github.com/lcalzada-xor/honeytrap/internal/core/domain"

// Gatekeeper is the deception decision engine consulted by the boundary
// handlers. All methods are safe for concurrent use.
type Gatekeeper interface {
	// CheckLogin turns a login attempt into one of the four outcomes. The
	// returned reason is empty unless the outcome carries a message for the
	// caller ("IP address banned", validation failures).
	CheckLogin(username, password, clientIP string, port int) (domain.Outcome, string)

	CreateUser(username, password string) (bool, string)
	Logout(username string) bool
	UpdateActivity(username string) bool

	// InactivitySweep flags idle sessions as suspects and removes them.
	InactivitySweep()

	TogglePort(port int, status *string, honeypot *bool) bool
	BanIP(ip string) bool
	UnbanIP(ip string) bool

	ActiveUsers() ([]domain.ActiveUser, error)
}

// VisibilityController reconciles RST-listener workers against port policy.
// A port marked inactive owns exactly one worker; an active port owns none.
type VisibilityController interface {
	SetVisibility(port int, active bool)
	SyncAll(ports []domain.ServicePort)
	Stop()
}

// Notifier pushes operator-facing events (suspect flagged, port policy
// changed, ban list changed) to any attached console. Implementations must
// not block the caller.
type Notifier interface {
	Notify(event string, payload any)
}

// MessageHandler serves one wire command. A nil response means the handler
// chose not to reply on this channel.
type MessageHandler func(msg domain.Message, peer domain.Peer) *domain.Response

package policy

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/lcalzada-xor/honeytrap/internal/core/domain"
	"github.com/lcalzada-xor/honeytrap/internal/core/ports"
	"github.com/lcalzada-xor/honeytrap/internal/telemetry"
)

// Compiled-in administrator credentials. The admin pair is never stored as a
// user and short-circuits every other login check.
const (
	AdminUsername = "admin"
	AdminPassword = "admin123"
)

// InactivityLimit is how long a session may sit idle before the sweep
// converts it into a suspect record.
const InactivityLimit = 5 * time.Minute

// Wire-visible diagnostic strings.
const (
	msgIPBanned       = "IP address banned"
	msgBadLength      = "Invalid username/password length"
	msgBadCredentials = "Incorrect username/password"
	msgUserExists     = "Username already exists"
	msgUserCreated    = "User created successfully"
)

// Engine is the deception decision engine. It owns the in-memory failed
// attempt counter and mutates gateway state exclusively through the Storage
// snapshots, so a process restart forgives all prior failures by design of
// the counter placement.
type Engine struct {
	store    ports.Storage
	notifier ports.Notifier

	attemptsMu sync.Mutex
	attempts   map[string]int
}

// NewEngine creates a decision engine over the given store.
func NewEngine(store ports.Storage) *Engine {
	return &Engine{
		store:    store,
		attempts: make(map[string]int),
	}
}

// SetNotifier attaches an operator event sink. May be left unset.
func (e *Engine) SetNotifier(n ports.Notifier) {
	e.notifier = n
}

// CheckLogin validates a login attempt and applies the deception rules.
// The decision order is strict: admin bypass, ban list, length validation,
// decoy-mode port, credential check, failure escalation.
func (e *Engine) CheckLogin(username, password, clientIP string, port int) (domain.Outcome, string) {
	outcome, reason := e.decide(username, password, clientIP, port)
	telemetry.LoginOutcomes.WithLabelValues(string(outcome)).Inc()
	return outcome, reason
}

func (e *Engine) decide(username, password, clientIP string, port int) (domain.Outcome, string) {
	// Admin login check - must be first to bypass all other checks
	if username == AdminUsername && password == AdminPassword {
		return domain.OutcomeAdmin, ""
	}

	// Load failures read as empty snapshots per the persistence contract.
	banned, _ := e.store.BannedIPs()
	for _, ip := range banned {
		if ip == clientIP {
			return domain.OutcomeFake, msgIPBanned
		}
	}

	if len(username) < domain.MinCredentialLength || len(password) < domain.MinCredentialLength {
		return domain.OutcomeError, msgBadLength
	}

	// A decoy-mode port routes every non-admin login to the fake interface,
	// valid credentials included.
	servicePorts, _ := e.store.Ports()
	for _, p := range servicePorts {
		if p.Number == port && p.IsActive() && p.Honeypot {
			return domain.OutcomeFake, ""
		}
	}

	users, _ := e.store.Users()
	if stored, ok := users[username]; ok && stored == password {
		e.clearAttempts(username, clientIP)
		e.upsertSession(username, clientIP, port)
		return domain.OutcomeValid, ""
	}

	// Failed attempt handling: the second strike flags a suspect and arms the
	// decoy on the attempted port.
	count := e.recordAttempt(username, clientIP)
	if count >= 2 {
		e.flagSuspect(domain.Suspect{
			Username:      username,
			IP:            clientIP,
			AttemptedPort: port,
			Attempts:      count,
			Reason:        domain.ReasonFailedLogins,
			Timestamp:     time.Now().Format(domain.TimestampLayout),
		})
		e.armHoneypot(port)
		return domain.OutcomeFake, ""
	}

	return domain.OutcomeError, msgBadCredentials
}

// CreateUser inserts a new user unless the username is taken.
func (e *Engine) CreateUser(username, password string) (bool, string) {
	users, _ := e.store.Users()
	if _, exists := users[username]; exists {
		return false, msgUserExists
	}
	users[username] = password
	if err := e.store.SaveUsers(users); err != nil {
		slog.Error("Failed to persist users", "error", err)
		return false, "Failed to create user"
	}
	return true, msgUserCreated
}

// Logout removes the session for username, if any.
func (e *Engine) Logout(username string) bool {
	sessions, _ := e.store.Sessions()
	if _, ok := sessions[username]; !ok {
		return false
	}
	delete(sessions, username)
	if err := e.store.SaveSessions(sessions); err != nil {
		slog.Error("Failed to persist sessions", "error", err)
	}
	return true
}

// UpdateActivity refreshes the session's activity timestamp. The caller is
// trusted to be authenticated, so a missing session still reports true.
func (e *Engine) UpdateActivity(username string) bool {
	sessions, _ := e.store.Sessions()
	if sess, ok := sessions[username]; ok {
		sess.LastActivityTime = time.Now()
		sessions[username] = sess
		if err := e.store.SaveSessions(sessions); err != nil {
			slog.Error("Failed to persist sessions", "error", err)
		}
	}
	return true
}

// InactivitySweep converts every idle non-admin session into a suspect
// record, arms the decoy on the session's port, and drops the session.
func (e *Engine) InactivitySweep() {
	sessions, _ := e.store.Sessions()
	now := time.Now()

	changed := false
	for username, sess := range sessions {
		if username == AdminUsername {
			continue
		}
		if now.Sub(sess.LastActivityTime) <= InactivityLimit {
			continue
		}

		e.flagSuspect(domain.Suspect{
			Username:      username,
			IP:            sess.IP,
			AttemptedPort: sess.Port,
			Reason:        domain.ReasonInactivity,
			Timestamp:     now.Format(domain.TimestampLayout),
		})
		e.armHoneypot(sess.Port)
		delete(sessions, username)
		changed = true

		slog.Info("Inactive session flagged", "username", username, "ip", sess.IP, "port", sess.Port)
	}

	if changed {
		if err := e.store.SaveSessions(sessions); err != nil {
			slog.Error("Failed to persist sessions", "error", err)
		}
	}
}

// TogglePort mutates a port's status and/or decoy flag in place. Returns
// false for an unknown port.
func (e *Engine) TogglePort(port int, status *string, honeypot *bool) bool {
	servicePorts, _ := e.store.Ports()
	for i := range servicePorts {
		if servicePorts[i].Number != port {
			continue
		}
		if status != nil {
			servicePorts[i].Status = *status
		}
		if honeypot != nil {
			servicePorts[i].Honeypot = *honeypot
		}
		if err := e.store.SavePorts(servicePorts); err != nil {
			slog.Error("Failed to persist ports", "error", err)
			return false
		}
		e.notify("port_updated", servicePorts[i])
		return true
	}
	return false
}

// BanIP adds ip to the ban list. Idempotent.
func (e *Engine) BanIP(ip string) bool {
	banned, _ := e.store.BannedIPs()
	for _, b := range banned {
		if b == ip {
			return true
		}
	}
	banned = append(banned, ip)
	if err := e.store.SaveBannedIPs(banned); err != nil {
		slog.Error("Failed to persist ban list", "error", err)
		return false
	}
	e.notify("ip_banned", ip)
	return true
}

// UnbanIP removes ip from the ban list. Idempotent.
func (e *Engine) UnbanIP(ip string) bool {
	banned, _ := e.store.BannedIPs()
	kept := banned[:0]
	removed := false
	for _, b := range banned {
		if b == ip {
			removed = true
			continue
		}
		kept = append(kept, b)
	}
	if removed {
		if err := e.store.SaveBannedIPs(kept); err != nil {
			slog.Error("Failed to persist ban list", "error", err)
			return false
		}
		e.notify("ip_unbanned", ip)
	}
	return true
}

// ActiveUsers renders the current sessions for the operator console.
func (e *Engine) ActiveUsers() ([]domain.ActiveUser, error) {
	sessions, err := e.store.Sessions()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	users := make([]domain.ActiveUser, 0, len(sessions))
	for _, sess := range sessions {
		users = append(users, sess.View(now))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

// Attempts reports the live failure count for a (username, ip) pair.
func (e *Engine) Attempts(username, ip string) int {
	e.attemptsMu.Lock()
	defer e.attemptsMu.Unlock()
	return e.attempts[attemptKey(username, ip)]
}

// --- internals ---

func attemptKey(username, ip string) string {
	return fmt.Sprintf("%s:%s", username, ip)
}

func (e *Engine) recordAttempt(username, ip string) int {
	e.attemptsMu.Lock()
	defer e.attemptsMu.Unlock()
	key := attemptKey(username, ip)
	e.attempts[key]++
	return e.attempts[key]
}

func (e *Engine) clearAttempts(username, ip string) {
	e.attemptsMu.Lock()
	defer e.attemptsMu.Unlock()
	delete(e.attempts, attemptKey(username, ip))
}

// upsertSession records a fresh login, replacing any earlier session for the
// same username.
func (e *Engine) upsertSession(username, ip string, port int) {
	sessions, _ := e.store.Sessions()
	now := time.Now()
	sessions[username] = domain.Session{
		Username:         username,
		LoginTime:        now,
		LastActivityTime: now,
		IP:               ip,
		Port:             port,
	}
	if err := e.store.SaveSessions(sessions); err != nil {
		slog.Error("Failed to persist sessions", "error", err)
	}
}

// flagSuspect upserts a potential-attacker record keyed by (username, ip).
func (e *Engine) flagSuspect(record domain.Suspect) {
	suspects, _ := e.store.Suspects()

	replaced := false
	for i := range suspects {
		if suspects[i].Username == record.Username && suspects[i].IP == record.IP {
			suspects[i] = record
			replaced = true
			break
		}
	}
	if !replaced {
		suspects = append(suspects, record)
	}

	if err := e.store.SaveSuspects(suspects); err != nil {
		slog.Error("Failed to persist suspects", "error", err)
		return
	}

	telemetry.SuspectsFlagged.WithLabelValues(record.Reason).Inc()
	e.notify("suspect_flagged", record)
}

// armHoneypot flips the decoy flag on the matching port and stamps the
// trigger time. Skipped silently when the port row is gone.
func (e *Engine) armHoneypot(port int) {
	servicePorts, _ := e.store.Ports()
	for i := range servicePorts {
		if servicePorts[i].Number != port {
			continue
		}
		servicePorts[i].Honeypot = true
		servicePorts[i].LastTriggered = time.Now().Format(domain.TimestampLayout)
		if err := e.store.SavePorts(servicePorts); err != nil {
			slog.Error("Failed to persist ports", "error", err)
			return
		}
		e.notify("port_updated", servicePorts[i])
		return
	}
}

func (e *Engine) notify(event string, payload any) {
	if e.notifier != nil {
		e.notifier.Notify(event, payload)
	}
}

// Ensure interface compliance
var _ ports.Gatekeeper = (*Engine)(nil)

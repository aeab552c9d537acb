package domain

import (
	"fmt"
	"time"
)

// TimestampLayout is the human-readable local-time format used everywhere a
// timestamp crosses the wire (suspect records, active-user listings).
const TimestampLayout = "2006-01-02 15:04:05"

// Session tracks a logged-in non-admin user. Keyed by username: a second
// login for the same username replaces the earlier session.
type Session struct {
	Username         string    `json:"-" gorm:"primaryKey"`
	LoginTime        time.Time `json:"login_time"`
	LastActivityTime time.Time `json:"last_activity_time"`
	IP               string    `json:"ip"`
	Port             int       `json:"port"`
}

// ActiveUser is the operator-facing view of a session returned by
// get_active_users.
type ActiveUser struct {
	Username      string `json:"username"`
	IP            string `json:"ip"`
	Port          int    `json:"port"`
	LoginTime     string `json:"login_time"`
	LastActivity  string `json:"last_activity"`
	SessionLength string `json:"session_length"`
	InactiveFor   string `json:"inactive_for"`
}

// View renders the session for the operator console. Minute counts truncate
// toward zero.
func (s Session) View(now time.Time) ActiveUser {
	return ActiveUser{
		Username:      s.Username,
		IP:            s.IP,
		Port:          s.Port,
		LoginTime:     s.LoginTime.Local().Format(TimestampLayout),
		LastActivity:  s.LastActivityTime.Local().Format(TimestampLayout),
		SessionLength: fmt.Sprintf("%d mins", int(now.Sub(s.LoginTime).Minutes())),
		InactiveFor:   fmt.Sprintf("%d mins", int(now.Sub(s.LastActivityTime).Minutes())),
	}
}

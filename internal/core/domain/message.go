package domain

import "encoding/json"

// Wire commands. Every request names one of these in its command field.
const (
	CmdLogin                 = "login"
	CmdSignup                = "signup"
	CmdLogout                = "logout"
	CmdUpdateActivity        = "update_activity"
	CmdGetPorts              = "get_ports"
	CmdUpdatePort            = "update_port"
	CmdGetAttackers          = "get_attackers"
	CmdGetPotentialAttackers = "get_potential_attackers"
	CmdBanIP                 = "ban_ip"
	CmdUnbanIP               = "unban_ip"
	CmdGetBannedIPs          = "get_banned_ips"
	CmdGetActiveUsers        = "get_active_users"
)

// Response status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusUpdated = "updated"
)

// Message is one framed request. Requests and responses are single JSON
// objects delimited by a trailing newline on the wire; see socket.Server.
type Message struct {
	Command   string          `json:"command"`
	Params    json.RawMessage `json:"params,omitempty"`
	Timestamp float64         `json:"timestamp,omitempty"`
	ID        string          `json:"id,omitempty"`
}

// Response is the single JSON object written back for a request. ID echoes
// the request id when one was supplied; clients use it only for correlation.
type Response struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	ID      string `json:"id,omitempty"`
}

// Peer identifies the remote end of a connection as seen by handlers.
type Peer struct {
	IP      string
	Channel string
}

// --- Request parameter shapes ---

// LoginParams carries login credentials plus the service port the caller is
// attempting to reach.
type LoginParams struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Port     int    `json:"port,omitempty"`
}

// UsernameParams is shared by logout and update_activity.
type UsernameParams struct {
	Username string `json:"username"`
}

// IPParams is shared by ban_ip and unban_ip.
type IPParams struct {
	IP string `json:"ip"`
}

// PortUpdateParams mutates a port's policy. Status and Honeypot are both
// optional but at least one must be present; honeypot is the wire spelling
// of the decoy-mode flag.
type PortUpdateParams struct {
	Port     int     `json:"port"`
	Status   *string `json:"status,omitempty"`
	Honeypot *bool   `json:"honeypot,omitempty"`
}

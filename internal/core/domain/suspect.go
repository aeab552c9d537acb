package domain

// Enumerated reasons attached to suspect records.
const (
	ReasonFailedLogins = "2 or more failed login attempts"
	ReasonInactivity   = "Inactive for 5+ minutes"
)

// Suspect is a potential-attacker record. At most one record exists per
// (username, ip); a later detection overwrites the earlier one in place.
// Attempts is only populated for failed-login escalations.
type Suspect struct {
	Username      string `json:"username" gorm:"primaryKey"`
	IP            string `json:"ip" gorm:"column:ip;primaryKey"`
	AttemptedPort int    `json:"attempted_port"`
	Attempts      int    `json:"attempts,omitempty"`
	Reason        string `json:"reason"`
	Timestamp     string `json:"timestamp"`
}

// Attacker is a confirmed-attacker record. Same shape as Suspect, held in a
// separate collection that the gateway only reads; entries are written by
// external tooling.
type Attacker struct {
	Username      string `json:"username"`
	IP            string `json:"ip" gorm:"column:ip"`
	AttemptedPort int    `json:"attempted_port"`
	Attempts      int    `json:"attempts,omitempty"`
	Reason        string `json:"reason"`
	Timestamp     string `json:"timestamp"`
}

package domain

// Port status values as stored and as seen on the wire.
const (
	PortActive   = "active"
	PortInactive = "inactive"
)

// NeverTriggered is the initial value of LastTriggered for a fresh port.
const NeverTriggered = "Never"

// ServicePort is one fronted service port and its deception policy.
// Honeypot is the decoy-mode flag: while set on an active port, every
// non-admin login on that port is routed to the decoy interface.
type ServicePort struct {
	Number        int    `json:"port" gorm:"column:port;primaryKey"`
	Status        string `json:"status"`
	Honeypot      bool   `json:"honeypot"`
	LastTriggered string `json:"last_triggered"`
}

// IsActive reports whether the port is accepting real traffic.
func (p ServicePort) IsActive() bool {
	return p.Status == PortActive
}

// DefaultPorts is the seed set written on first startup when the ports
// collection is empty.
func DefaultPorts() []ServicePort {
	return []ServicePort{
		{Number: 8001, Status: PortActive, LastTriggered: NeverTriggered},
		{Number: 8002, Status: PortActive, LastTriggered: NeverTriggered},
		{Number: 8003, Status: PortActive, LastTriggered: NeverTriggered},
		{Number: 8004, Status: PortInactive, LastTriggered: NeverTriggered},
		{Number: 8005, Status: PortInactive, LastTriggered: NeverTriggered},
	}
}

package domain

// Outcome is the result of a login decision. The values double as wire
// statuses: the decoy outcome is spelled "fake" on the wire.
type Outcome string

const (
	OutcomeAdmin Outcome = "admin"
	OutcomeValid Outcome = "valid"
	OutcomeFake  Outcome = "fake"
	OutcomeError Outcome = "error"
)

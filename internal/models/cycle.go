package models

// Phase is a periodization week type.
type Phase string

const (
	PhaseBuild       Phase = "BUILD"
	PhaseConsolidate Phase = "CONSOLIDATE"
	PhaseDeload      Phase = "DELOAD"
)

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	switch p {
	case PhaseBuild, PhaseConsolidate, PhaseDeload:
		return true
	}
	return false
}

// CycleState is the Advanced Mode periodization state of a user.
type CycleState struct {
	IsActive    bool    `json:"is_active"`
	CurrentWeek int     `json:"current_week"`
	CycleLength int     `json:"cycle_length"`
	Schedule    []Phase `json:"schedule"`
}

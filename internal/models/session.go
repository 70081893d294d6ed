package models

import "time"

// SetType classifies a set within an exercise.
type SetType string

const (
	SetRamp    SetType = "RAMP"
	SetTop     SetType = "TOP"
	SetBackoff SetType = "BACKOFF"
)

// Valid reports whether t is one of the known set types.
func (t SetType) Valid() bool {
	switch t {
	case SetRamp, SetTop, SetBackoff:
		return true
	}
	return false
}

// SessionStatus is the lifecycle state of a workout session.
type SessionStatus string

const (
	StatusDraft     SessionStatus = "DRAFT"
	StatusCompleted SessionStatus = "COMPLETED"
)

// ReductionLevel is a volume-reduction action suggested by autoregulation
// or implied by a periodization phase.
type ReductionLevel string

const (
	LevelNone             ReductionLevel = "NONE"
	LevelSupportReduction ReductionLevel = "SUPPORT_REDUCTION"
	LevelDeload           ReductionLevel = "DELOAD"
)

// SetEntry is a single performed (or prescribed) set.
type SetEntry struct {
	ID                        string  `json:"id"`
	Type                      SetType `json:"type"`
	Weight                    float64 `json:"weight"`
	Reps                      int     `json:"reps"`
	RIR                       *int    `json:"rir"`
	Completed                 bool    `json:"completed"`
	IsManual                  bool    `json:"is_manual,omitempty"`
	IsPrimaryTopSet           bool    `json:"is_primary_top_set,omitempty"`
	IsDisabledByPeriodization bool    `json:"is_disabled_by_periodization,omitempty"`
}

// ExerciseLog is the set ledger of one exercise inside a session.
type ExerciseLog struct {
	ExerciseID    string     `json:"exercise_id"`
	ExerciseName  string     `json:"exercise_name"`
	SupportVolume bool       `json:"support_volume,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	RIRHint       string     `json:"rir_hint,omitempty"` // display-only, set in deload weeks
	Sets          []SetEntry `json:"sets"`
}

// CountedSets returns the number of sets not disabled by periodization.
func (l ExerciseLog) CountedSets() int {
	n := 0
	for _, s := range l.Sets {
		if !s.IsDisabledByPeriodization {
			n++
		}
	}
	return n
}

// PrimaryCount returns how many counted sets are flagged as primary top set.
func (l ExerciseLog) PrimaryCount() int {
	n := 0
	for _, s := range l.Sets {
		if s.IsPrimaryTopSet && !s.IsDisabledByPeriodization {
			n++
		}
	}
	return n
}

// PrimaryTopSet returns the counted primary top set of the log, if any.
func (l ExerciseLog) PrimaryTopSet() (SetEntry, bool) {
	for _, s := range l.Sets {
		if s.IsPrimaryTopSet && !s.IsDisabledByPeriodization {
			return s, true
		}
	}
	return SetEntry{}, false
}

// ContextFlags are informational notes attached to a session.
type ContextFlags struct {
	SleepPoor     bool `json:"sleep_poor"`
	HighStress    bool `json:"high_stress"`
	JointPain     bool `json:"joint_pain"`
	PoorNutrition bool `json:"poor_nutrition"`
}

// WorkoutSession is one training session, DRAFT while being logged and
// read-only history once COMPLETED.
type WorkoutSession struct {
	ID              string        `json:"id"`
	UserID          string        `json:"user_id"`
	DayID           string        `json:"day_id"`
	Status          SessionStatus `json:"status"`
	Logs            []ExerciseLog `json:"logs"`
	DurationMinutes int           `json:"duration_minutes"`
	StartedAt       time.Time     `json:"started_at"`
	CompletedAt     *time.Time    `json:"completed_at,omitempty"`
	ContextFlags    *ContextFlags `json:"context_flags,omitempty"`
	Phase           Phase         `json:"phase,omitempty"`
	Notes           string        `json:"notes,omitempty"`
}

// IsCompleted reports whether the session is frozen history.
func (s WorkoutSession) IsCompleted() bool {
	return s.Status == StatusCompleted
}

// Clone returns a deep copy so transitions never share ledgers.
func (s WorkoutSession) Clone() WorkoutSession {
	out := s
	if s.Logs != nil {
		out.Logs = make([]ExerciseLog, len(s.Logs))
		for i, l := range s.Logs {
			out.Logs[i] = l.clone()
		}
	}
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		out.CompletedAt = &t
	}
	if s.ContextFlags != nil {
		f := *s.ContextFlags
		out.ContextFlags = &f
	}
	return out
}

func (l ExerciseLog) clone() ExerciseLog {
	out := l
	if l.Sets != nil {
		out.Sets = make([]SetEntry, len(l.Sets))
		for i, s := range l.Sets {
			if s.RIR != nil {
				r := *s.RIR
				s.RIR = &r
			}
			out.Sets[i] = s
		}
	}
	return out
}

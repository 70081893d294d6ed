// Package session implements the workout session lifecycle. Every edit is a
// pure transition that returns the next session value plus the side effects
// the host must carry out.
package session

import (
	"fmt"
	"time"

	"github.com/claude/topset/internal/models"
)

// IntentKind names a side effect requested by a transition.
type IntentKind string

const (
	IntentPersist        IntentKind = "persist"
	IntentStartRestTimer IntentKind = "start_rest_timer"
)

type Intent struct {
	Kind IntentKind `json:"kind"`
}

// Transition is the result of an action: the new session and its intents.
type Transition struct {
	Session models.WorkoutSession `json:"session"`
	Intents []Intent              `json:"intents"`
}

// Has reports whether the transition carries an intent of kind k.
func (t Transition) Has(k IntentKind) bool {
	for _, in := range t.Intents {
		if in.Kind == k {
			return true
		}
	}
	return false
}

func persisted(s models.WorkoutSession, extra ...Intent) Transition {
	return Transition{Session: s, Intents: append([]Intent{{Kind: IntentPersist}}, extra...)}
}

// DeloadRIRHint is shown on every exercise during a deload week.
const DeloadRIRHint = "RIR 1-2"

// IDFunc generates set and session identifiers.
type IDFunc func() string

// Build creates a fresh DRAFT for a program day. Each exercise gets its
// declared ramp-up sets, one top set when a target exists, and its back-off
// sets. The phase modifier is applied on top.
func Build(day models.ProgramDay, userID string, phase models.Phase, now time.Time, newID IDFunc) models.WorkoutSession {
	if phase == "" {
		phase = models.PhaseBuild
	}
	s := models.WorkoutSession{
		ID:        newID(),
		UserID:    userID,
		DayID:     day.ID,
		Status:    models.StatusDraft,
		StartedAt: now,
		Phase:     phase,
		Logs:      make([]models.ExerciseLog, 0, len(day.Exercises)),
	}
	for _, ex := range day.Exercises {
		log := models.ExerciseLog{
			ExerciseID:    ex.ID,
			ExerciseName:  ex.Name,
			SupportVolume: ex.SupportVolume(),
			Sets:          []models.SetEntry{},
		}
		for i := 0; i < ex.RampUpSets; i++ {
			log.Sets = append(log.Sets, models.SetEntry{ID: newID(), Type: models.SetRamp})
		}
		if ex.TopSet != nil {
			log.Sets = append(log.Sets, models.SetEntry{ID: newID(), Type: models.SetTop})
		}
		for i := 0; i < ex.BackOffSets; i++ {
			log.Sets = append(log.Sets, models.SetEntry{ID: newID(), Type: models.SetBackoff})
		}

		switch phase {
		case models.PhaseConsolidate:
			if log.SupportVolume {
				reduce(&log, models.LevelSupportReduction)
			}
		case models.PhaseDeload:
			reduce(&log, models.LevelDeload)
			log.RIRHint = DeloadRIRHint
		}
		s.Logs = append(s.Logs, log)
	}
	return s
}

// SetPatch is a partial update of a set. Nil fields are left untouched.
type SetPatch struct {
	Type            *models.SetType `json:"type,omitempty"`
	Weight          *float64        `json:"weight,omitempty"`
	Reps            *int            `json:"reps,omitempty"`
	RIR             *int            `json:"rir,omitempty"`
	ClearRIR        bool            `json:"clear_rir,omitempty"`
	Completed       *bool           `json:"completed,omitempty"`
	IsPrimaryTopSet *bool           `json:"is_primary_top_set,omitempty"`
}

func (p SetPatch) validate() error {
	if p.Type != nil && !p.Type.Valid() {
		return fmt.Errorf("%w: unknown set type %q", ErrValidation, *p.Type)
	}
	if p.Weight != nil && *p.Weight < 0 {
		return fmt.Errorf("%w: weight must be >= 0", ErrValidation)
	}
	if p.Reps != nil && *p.Reps < 0 {
		return fmt.Errorf("%w: reps must be >= 0", ErrValidation)
	}
	if p.RIR != nil && *p.RIR < 0 {
		return fmt.Errorf("%w: rir must be >= 0", ErrValidation)
	}
	return nil
}

func checkMutable(s models.WorkoutSession) error {
	if s.IsCompleted() {
		return ErrImmutableSession
	}
	return nil
}

func checkExercise(s models.WorkoutSession, exIdx int) error {
	if exIdx < 0 || exIdx >= len(s.Logs) {
		return fmt.Errorf("%w: exercise %d", ErrIndexOutOfRange, exIdx)
	}
	return nil
}

// UpdateSet applies a partial update to one set. Marking a set primary
// clears the flag on its siblings and forces it to TOP; moving the primary
// set to another type drops the flag.
func UpdateSet(s models.WorkoutSession, exIdx, setIdx int, p SetPatch) (Transition, error) {
	if err := checkMutable(s); err != nil {
		return Transition{}, err
	}
	if err := checkExercise(s, exIdx); err != nil {
		return Transition{}, err
	}
	if setIdx < 0 || setIdx >= len(s.Logs[exIdx].Sets) {
		return Transition{}, fmt.Errorf("%w: set %d", ErrIndexOutOfRange, setIdx)
	}
	if err := p.validate(); err != nil {
		return Transition{}, err
	}
	if s.Logs[exIdx].Sets[setIdx].IsDisabledByPeriodization {
		return Transition{}, ErrDisabledSet
	}

	next := s.Clone()
	sets := next.Logs[exIdx].Sets
	set := &sets[setIdx]

	if p.Type != nil {
		set.Type = *p.Type
		if set.Type != models.SetTop {
			set.IsPrimaryTopSet = false
		}
	}
	if p.Weight != nil {
		set.Weight = *p.Weight
	}
	if p.Reps != nil {
		set.Reps = *p.Reps
	}
	if p.ClearRIR {
		set.RIR = nil
	}
	if p.RIR != nil {
		r := *p.RIR
		set.RIR = &r
	}
	if p.Completed != nil {
		set.Completed = *p.Completed
	}
	if p.IsPrimaryTopSet != nil {
		if *p.IsPrimaryTopSet {
			for i := range sets {
				sets[i].IsPrimaryTopSet = false
			}
			set.IsPrimaryTopSet = true
			set.Type = models.SetTop
		} else {
			set.IsPrimaryTopSet = false
		}
	}

	var extra []Intent
	if p.Completed != nil && *p.Completed {
		extra = append(extra, Intent{Kind: IntentStartRestTimer})
	}
	return persisted(next, extra...), nil
}

// AddSet appends a blank manual set of the given type.
func AddSet(s models.WorkoutSession, exIdx int, t models.SetType, newID IDFunc) (Transition, error) {
	if err := checkMutable(s); err != nil {
		return Transition{}, err
	}
	if err := checkExercise(s, exIdx); err != nil {
		return Transition{}, err
	}
	if !t.Valid() {
		return Transition{}, fmt.Errorf("%w: unknown set type %q", ErrValidation, t)
	}
	next := s.Clone()
	next.Logs[exIdx].Sets = append(next.Logs[exIdx].Sets, models.SetEntry{
		ID:       newID(),
		Type:     t,
		IsManual: true,
	})
	return persisted(next), nil
}

// RemoveSet deletes the most recent active set of the given type.
func RemoveSet(s models.WorkoutSession, exIdx int, t models.SetType) (Transition, error) {
	if err := checkMutable(s); err != nil {
		return Transition{}, err
	}
	if err := checkExercise(s, exIdx); err != nil {
		return Transition{}, err
	}
	sets := s.Logs[exIdx].Sets
	idx := -1
	for i := len(sets) - 1; i >= 0; i-- {
		if sets[i].Type == t && !sets[i].IsDisabledByPeriodization {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Transition{}, ErrNoRemovableSet
	}
	if sets[idx].IsPrimaryTopSet {
		return Transition{}, ErrProtectedSet
	}

	next := s.Clone()
	ns := next.Logs[exIdx].Sets
	next.Logs[exIdx].Sets = append(ns[:idx:idx], ns[idx+1:]...)
	return persisted(next), nil
}

// ApplyReduction applies a volume-reduction level to one exercise.
// SUPPORT_REDUCTION disables the most recent active back-off set, DELOAD
// disables every back-off set. NONE is a no-op.
func ApplyReduction(s models.WorkoutSession, exIdx int, level models.ReductionLevel) (Transition, error) {
	if err := checkMutable(s); err != nil {
		return Transition{}, err
	}
	if err := checkExercise(s, exIdx); err != nil {
		return Transition{}, err
	}
	switch level {
	case models.LevelNone, models.LevelSupportReduction, models.LevelDeload:
	default:
		return Transition{}, fmt.Errorf("%w: unknown reduction level %q", ErrValidation, level)
	}
	next := s.Clone()
	reduce(&next.Logs[exIdx], level)
	return persisted(next), nil
}

func reduce(log *models.ExerciseLog, level models.ReductionLevel) {
	switch level {
	case models.LevelSupportReduction:
		for i := len(log.Sets) - 1; i >= 0; i-- {
			if log.Sets[i].Type == models.SetBackoff && !log.Sets[i].IsDisabledByPeriodization {
				log.Sets[i].IsDisabledByPeriodization = true
				return
			}
		}
	case models.LevelDeload:
		for i := range log.Sets {
			if log.Sets[i].Type == models.SetBackoff {
				log.Sets[i].IsDisabledByPeriodization = true
			}
		}
	}
}

// SetContextFlags records the informational context flags.
func SetContextFlags(s models.WorkoutSession, f models.ContextFlags) (Transition, error) {
	if err := checkMutable(s); err != nil {
		return Transition{}, err
	}
	next := s.Clone()
	next.ContextFlags = &f
	return persisted(next), nil
}

// SetNotes replaces the free-text session notes.
func SetNotes(s models.WorkoutSession, notes string) (Transition, error) {
	if err := checkMutable(s); err != nil {
		return Transition{}, err
	}
	next := s.Clone()
	next.Notes = notes
	return persisted(next), nil
}

// Tick refreshes the elapsed duration. It only persists when the whole
// minute count changed.
func Tick(s models.WorkoutSession, now time.Time) Transition {
	if s.IsCompleted() {
		return Transition{Session: s}
	}
	mins := elapsedMinutes(s.StartedAt, now)
	if mins == s.DurationMinutes {
		return Transition{Session: s}
	}
	next := s.Clone()
	next.DurationMinutes = mins
	return persisted(next)
}

func elapsedMinutes(start, now time.Time) int {
	if start.IsZero() || now.Before(start) {
		return 0
	}
	return int(now.Sub(start) / time.Minute)
}

// Validate checks that every exercise with at least one counted set has
// exactly one primary top set. Disabled sets are not counted.
func Validate(s models.WorkoutSession) error {
	for i, log := range s.Logs {
		if log.CountedSets() == 0 {
			continue
		}
		if n := log.PrimaryCount(); n != 1 {
			return &MissingPrimaryTopSetError{
				ExerciseIndex: i,
				ExerciseID:    log.ExerciseID,
				ExerciseName:  log.ExerciseName,
				Primaries:     n,
			}
		}
	}
	return nil
}

// Finalize freezes a valid DRAFT as COMPLETED.
func Finalize(s models.WorkoutSession, now time.Time) (Transition, error) {
	if err := checkMutable(s); err != nil {
		return Transition{}, err
	}
	if err := Validate(s); err != nil {
		return Transition{}, err
	}
	next := s.Clone()
	next.Status = models.StatusCompleted
	next.DurationMinutes = elapsedMinutes(s.StartedAt, now)
	done := now
	next.CompletedAt = &done
	return persisted(next), nil
}

// Package cycle implements the multi-week periodization schedule (Advanced
// Mode). State changes only through explicit toggle, week and reset calls.
package cycle

import (
	"context"
	"fmt"

	"github.com/claude/topset/internal/models"
)

// CanonicalSchedule returns the default ten-week phase sequence.
func CanonicalSchedule() []models.Phase {
	return []models.Phase{
		models.PhaseBuild, models.PhaseBuild, models.PhaseBuild,
		models.PhaseConsolidate, models.PhaseConsolidate,
		models.PhaseBuild, models.PhaseDeload, models.PhaseBuild,
		models.PhaseConsolidate, models.PhaseBuild,
	}
}

// Describe returns a one-line explanation of a phase.
func Describe(p models.Phase) string {
	switch p {
	case models.PhaseConsolidate:
		return "Consolidation. Support volume drops slightly."
	case models.PhaseDeload:
		return "Recovery. Back-off volume removed, no sets to failure (RIR 1-2)."
	default:
		return "Standard program. Top sets and full volume."
	}
}

// DefaultState is the state of a user who never configured a cycle.
func DefaultState() models.CycleState {
	s := CanonicalSchedule()
	return models.CycleState{IsActive: false, CurrentWeek: 1, CycleLength: len(s), Schedule: s}
}

// Reset returns the canonical schedule at week 1, active.
func Reset() models.CycleState {
	s := DefaultState()
	s.IsActive = true
	return s
}

func normalize(s models.CycleState) models.CycleState {
	if len(s.Schedule) == 0 {
		def := DefaultState()
		s.Schedule = def.Schedule
	}
	s.CycleLength = len(s.Schedule)
	s.CurrentWeek = clamp(s.CurrentWeek, s.CycleLength)
	return s
}

func clamp(week, length int) int {
	if week < 1 {
		return 1
	}
	if week > length {
		return length
	}
	return week
}

// Toggle flips Advanced Mode on or off.
func Toggle(s models.CycleState) models.CycleState {
	s = normalize(s)
	s.IsActive = !s.IsActive
	return s
}

// SetWeek moves the pointer, clamped to [1, cycleLength]. There is no wraparound.
func SetWeek(s models.CycleState, week int) models.CycleState {
	s = normalize(s)
	s.CurrentWeek = clamp(week, s.CycleLength)
	return s
}

// ActivePhase is the phase of the current week, BUILD when inactive.
func ActivePhase(s models.CycleState) models.Phase {
	if !s.IsActive {
		return models.PhaseBuild
	}
	s = normalize(s)
	p := s.Schedule[s.CurrentWeek-1]
	if !p.Valid() {
		return models.PhaseBuild
	}
	return p
}

// Repository persists cycle state per user.
type Repository interface {
	Cycle(ctx context.Context, userID string) (models.CycleState, bool, error)
	SaveCycle(ctx context.Context, userID string, state models.CycleState) error
}

// Status is the cycle state plus the derived phase.
type Status struct {
	models.CycleState
	ActivePhase models.Phase `json:"active_phase"`
	Description string       `json:"description"`
}

func statusOf(s models.CycleState) Status {
	p := ActivePhase(s)
	return Status{CycleState: s, ActivePhase: p, Description: Describe(p)}
}

// Scheduler applies cycle operations to stored state.
type Scheduler struct {
	repo Repository
}

func NewScheduler(repo Repository) *Scheduler {
	return &Scheduler{repo: repo}
}

// State loads the user's cycle, or the default when none is stored.
func (s *Scheduler) State(ctx context.Context, userID string) (Status, error) {
	st, err := s.load(ctx, userID)
	if err != nil {
		return Status{}, err
	}
	return statusOf(st), nil
}

func (s *Scheduler) load(ctx context.Context, userID string) (models.CycleState, error) {
	st, ok, err := s.repo.Cycle(ctx, userID)
	if err != nil {
		return models.CycleState{}, fmt.Errorf("loading cycle state: %w", err)
	}
	if !ok {
		return DefaultState(), nil
	}
	return normalize(st), nil
}

func (s *Scheduler) update(ctx context.Context, userID string, fn func(models.CycleState) models.CycleState) (Status, error) {
	st, err := s.load(ctx, userID)
	if err != nil {
		return Status{}, err
	}
	st = fn(st)
	if err := s.repo.SaveCycle(ctx, userID, st); err != nil {
		return Status{}, fmt.Errorf("saving cycle state: %w", err)
	}
	return statusOf(st), nil
}

// ActivePhase implements the phase lookup used when a session is instantiated.
func (s *Scheduler) ActivePhase(ctx context.Context, userID string) (models.Phase, error) {
	st, err := s.load(ctx, userID)
	if err != nil {
		return "", err
	}
	return ActivePhase(st), nil
}

func (s *Scheduler) Toggle(ctx context.Context, userID string) (Status, error) {
	return s.update(ctx, userID, Toggle)
}

func (s *Scheduler) SetWeek(ctx context.Context, userID string, week int) (Status, error) {
	return s.update(ctx, userID, func(st models.CycleState) models.CycleState {
		return SetWeek(st, week)
	})
}

func (s *Scheduler) NextWeek(ctx context.Context, userID string) (Status, error) {
	return s.update(ctx, userID, func(st models.CycleState) models.CycleState {
		return SetWeek(st, st.CurrentWeek+1)
	})
}

func (s *Scheduler) PrevWeek(ctx context.Context, userID string) (Status, error) {
	return s.update(ctx, userID, func(st models.CycleState) models.CycleState {
		return SetWeek(st, st.CurrentWeek-1)
	})
}

func (s *Scheduler) Reset(ctx context.Context, userID string) (Status, error) {
	return s.update(ctx, userID, func(models.CycleState) models.CycleState {
		return Reset()
	})
}

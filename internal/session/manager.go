package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/claude/topset/internal/models"
)

// Repository is the persistence the manager needs.
type Repository interface {
	Saver
	Drafts(ctx context.Context, userID string) ([]models.WorkoutSession, error)
	Session(ctx context.Context, userID, id string) (models.WorkoutSession, error)
	DeleteSession(ctx context.Context, userID, id string) error
}

// Program resolves program days.
type Program interface {
	Day(id string) (models.ProgramDay, error)
}

// PhaseSource reports the periodization phase in effect for a user.
type PhaseSource interface {
	ActivePhase(ctx context.Context, userID string) (models.Phase, error)
}

// Options tunes the live-session tasks.
type Options struct {
	SaveDebounce time.Duration
	DurationTick time.Duration
}

func (o Options) withDefaults() Options {
	if o.SaveDebounce <= 0 {
		o.SaveDebounce = 500 * time.Millisecond
	}
	if o.DurationTick <= 0 {
		o.DurationTick = 10 * time.Second
	}
	return o
}

// Manager owns the session lifecycle and at most one live session per user.
type Manager struct {
	repo    Repository
	program Program
	phases  PhaseSource
	opts    Options
	log     *slog.Logger

	now   func() time.Time
	newID IDFunc

	mu   sync.Mutex
	live map[string]*Live
}

func NewManager(repo Repository, program Program, phases PhaseSource, opts Options, log *slog.Logger) *Manager {
	return &Manager{
		repo:    repo,
		program: program,
		phases:  phases,
		opts:    opts.withDefaults(),
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
		live:    make(map[string]*Live),
	}
}

// Instantiate returns the user's session for dayID. A DRAFT for another day
// is deleted, a DRAFT for this day is resumed, otherwise a new DRAFT is built
// from the program and persisted immediately.
func (m *Manager) Instantiate(ctx context.Context, userID, dayID string) (models.WorkoutSession, error) {
	day, err := m.program.Day(dayID)
	if err != nil {
		return models.WorkoutSession{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var resume *models.WorkoutSession
	if l := m.live[userID]; l != nil {
		snap := l.Snapshot()
		if snap.DayID == dayID {
			resume = &snap
		} else {
			l.Close(false)
			delete(m.live, userID)
		}
	}

	drafts, err := m.repo.Drafts(ctx, userID)
	if err != nil {
		return models.WorkoutSession{}, fmt.Errorf("listing drafts: %w", err)
	}
	// Newest first, so the most recent same-day draft is the one resumed.
	for i := len(drafts) - 1; i >= 0; i-- {
		d := drafts[i]
		if resume != nil && d.ID == resume.ID {
			continue
		}
		if d.DayID == dayID && resume == nil {
			resume = &d
			continue
		}
		if err := m.repo.DeleteSession(ctx, userID, d.ID); err != nil {
			return models.WorkoutSession{}, fmt.Errorf("deleting stale draft: %w", err)
		}
		m.log.Info("stale draft deleted", "user_id", userID, "session_id", d.ID, "day_id", d.DayID)
	}

	if resume != nil {
		if l := m.live[userID]; l != nil && l.ID() == resume.ID {
			return l.Snapshot(), nil
		}
		m.startLocked(*resume)
		m.log.Info("draft resumed", "user_id", userID, "session_id", resume.ID, "day_id", dayID)
		return resume.Clone(), nil
	}

	phase, err := m.phases.ActivePhase(ctx, userID)
	if err != nil {
		return models.WorkoutSession{}, fmt.Errorf("reading active phase: %w", err)
	}
	s := Build(day, userID, phase, m.now(), m.newID)
	if err := m.repo.SaveSession(ctx, s); err != nil {
		return models.WorkoutSession{}, fmt.Errorf("saving new draft: %w", err)
	}
	m.startLocked(s)
	m.log.Info("draft created", "user_id", userID, "session_id", s.ID, "day_id", dayID, "phase", phase)
	return s.Clone(), nil
}

func (m *Manager) startLocked(s models.WorkoutSession) *Live {
	if old := m.live[s.UserID]; old != nil {
		old.Close(true)
	}
	l := startLive(s, m.repo, m.opts, m.now, m.log)
	m.live[s.UserID] = l
	return l
}

// Current returns the user's in-progress session, resuming a stored DRAFT
// when nothing is live.
func (m *Manager) Current(ctx context.Context, userID string) (models.WorkoutSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if l := m.live[userID]; l != nil {
		return l.Snapshot(), nil
	}
	drafts, err := m.repo.Drafts(ctx, userID)
	if err != nil {
		return models.WorkoutSession{}, fmt.Errorf("listing drafts: %w", err)
	}
	if len(drafts) == 0 {
		return models.WorkoutSession{}, ErrNoDraft
	}
	s := drafts[len(drafts)-1]
	m.startLocked(s)
	return s.Clone(), nil
}

// Open returns any session by id. COMPLETED sessions are read-only views.
func (m *Manager) Open(ctx context.Context, userID, id string) (models.WorkoutSession, error) {
	m.mu.Lock()
	if l := m.live[userID]; l != nil && l.ID() == id {
		defer m.mu.Unlock()
		return l.Snapshot(), nil
	}
	m.mu.Unlock()
	return m.repo.Session(ctx, userID, id)
}

// liveLocked returns the live host for sessionID, resuming a stored DRAFT if needed.
func (m *Manager) liveLocked(ctx context.Context, userID, sessionID string) (*Live, error) {
	if l := m.live[userID]; l != nil && l.ID() == sessionID {
		return l, nil
	}
	s, err := m.repo.Session(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if s.IsCompleted() {
		return nil, ErrImmutableSession
	}
	return m.startLocked(s), nil
}

// Mutate applies an action to a DRAFT session.
func (m *Manager) Mutate(ctx context.Context, userID, sessionID string, fn func(models.WorkoutSession) (Transition, error)) (Transition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, err := m.liveLocked(ctx, userID, sessionID)
	if err != nil {
		return Transition{}, err
	}
	return l.Apply(fn)
}

func (m *Manager) UpdateSet(ctx context.Context, userID, sessionID string, exIdx, setIdx int, p SetPatch) (Transition, error) {
	return m.Mutate(ctx, userID, sessionID, func(s models.WorkoutSession) (Transition, error) {
		return UpdateSet(s, exIdx, setIdx, p)
	})
}

func (m *Manager) AddSet(ctx context.Context, userID, sessionID string, exIdx int, t models.SetType) (Transition, error) {
	return m.Mutate(ctx, userID, sessionID, func(s models.WorkoutSession) (Transition, error) {
		return AddSet(s, exIdx, t, m.newID)
	})
}

func (m *Manager) RemoveSet(ctx context.Context, userID, sessionID string, exIdx int, t models.SetType) (Transition, error) {
	return m.Mutate(ctx, userID, sessionID, func(s models.WorkoutSession) (Transition, error) {
		return RemoveSet(s, exIdx, t)
	})
}

func (m *Manager) ApplyReduction(ctx context.Context, userID, sessionID string, exIdx int, level models.ReductionLevel) (Transition, error) {
	return m.Mutate(ctx, userID, sessionID, func(s models.WorkoutSession) (Transition, error) {
		return ApplyReduction(s, exIdx, level)
	})
}

func (m *Manager) SetContextFlags(ctx context.Context, userID, sessionID string, f models.ContextFlags) (Transition, error) {
	return m.Mutate(ctx, userID, sessionID, func(s models.WorkoutSession) (Transition, error) {
		return SetContextFlags(s, f)
	})
}

func (m *Manager) SetNotes(ctx context.Context, userID, sessionID, notes string) (Transition, error) {
	return m.Mutate(ctx, userID, sessionID, func(s models.WorkoutSession) (Transition, error) {
		return SetNotes(s, notes)
	})
}

// Finalize validates and completes a DRAFT. On failure the session is unchanged.
func (m *Manager) Finalize(ctx context.Context, userID, sessionID string) (models.WorkoutSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, err := m.liveLocked(ctx, userID, sessionID)
	if err != nil {
		return models.WorkoutSession{}, err
	}
	now := m.now()
	if _, err := Finalize(l.Snapshot(), now); err != nil {
		return models.WorkoutSession{}, err
	}

	// Stop the tasks first so no debounced write races the completed save.
	draft := l.Detach()
	delete(m.live, userID)
	tr, err := Finalize(draft, now)
	if err == nil {
		final := tr.Session
		err = m.repo.SaveSession(ctx, final)
		if err == nil {
			m.log.Info("session completed", "user_id", userID, "session_id", final.ID, "duration_min", final.DurationMinutes)
			return final, nil
		}
		err = fmt.Errorf("saving completed session: %w", err)
	}
	// Keep the draft live with its unsaved edits so the next write retries them.
	m.startLocked(draft).markDirty()
	return models.WorkoutSession{}, err
}

// Discard permanently deletes a DRAFT.
func (m *Manager) Discard(ctx context.Context, userID, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if l := m.live[userID]; l != nil && l.ID() == sessionID {
		l.Close(false)
		delete(m.live, userID)
	} else {
		s, err := m.repo.Session(ctx, userID, sessionID)
		if err != nil {
			return err
		}
		if s.IsCompleted() {
			return ErrImmutableSession
		}
	}
	if err := m.repo.DeleteSession(ctx, userID, sessionID); err != nil {
		return fmt.Errorf("deleting draft: %w", err)
	}
	m.log.Info("draft discarded", "user_id", userID, "session_id", sessionID)
	return nil
}

// Release flushes and stops the user's live session, if any.
func (m *Manager) Release(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l := m.live[userID]; l != nil {
		l.Close(true)
		delete(m.live, userID)
	}
}

// Close flushes and stops every live session.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for user, l := range m.live {
		l.Close(true)
		delete(m.live, user)
	}
}

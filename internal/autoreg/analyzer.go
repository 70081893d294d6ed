// Package autoreg reads completed top-set history and suggests volume
// reductions when performance trends down.
package autoreg

import (
	"context"
	"fmt"
	"time"

	"github.com/claude/topset/internal/models"
	"github.com/claude/topset/internal/progress"
)

// DefaultThreshold is the number of consecutive regressing steps that
// escalates a suggestion to DELOAD.
const DefaultThreshold = 2

// History supplies COMPLETED sessions, oldest first.
type History interface {
	Completed(ctx context.Context, userID string) ([]models.WorkoutSession, error)
}

// Entry is one primary top set from a completed session.
type Entry struct {
	SessionID string    `json:"session_id"`
	Date      time.Time `json:"date"`
	Weight    float64   `json:"weight"`
	Reps      int       `json:"reps"`
	RIR       *int      `json:"rir"`
	E1RM      *int      `json:"e1rm"`
}

// Suggestion is the analyzer's verdict for one exercise.
type Suggestion struct {
	Level       models.ReductionLevel `json:"level"`
	Description string                `json:"description"`
	Regressions int                   `json:"consecutive_regressions"`
}

type Analyzer struct {
	repo      History
	threshold int
}

// NewAnalyzer returns an analyzer. A threshold below 1 uses DefaultThreshold.
func NewAnalyzer(repo History, threshold int) *Analyzer {
	if threshold < 1 {
		threshold = DefaultThreshold
	}
	return &Analyzer{repo: repo, threshold: threshold}
}

// Threshold returns the configured DELOAD threshold.
func (a *Analyzer) Threshold() int { return a.threshold }

// History returns the exercise's primary top sets in chronological order.
// Sessions without a counted primary top set for it are skipped.
func (a *Analyzer) History(ctx context.Context, userID, exerciseID string) ([]Entry, error) {
	sessions, err := a.repo.Completed(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	return Extract(sessions, exerciseID), nil
}

// Extract pulls the exercise's primary top sets out of completed sessions.
func Extract(sessions []models.WorkoutSession, exerciseID string) []Entry {
	var out []Entry
	for _, s := range sessions {
		if s.Status != models.StatusCompleted {
			continue
		}
		for _, log := range s.Logs {
			if log.ExerciseID != exerciseID {
				continue
			}
			top, ok := log.PrimaryTopSet()
			if !ok {
				continue
			}
			out = append(out, entryFor(s, top))
			break
		}
	}
	return out
}

func entryFor(s models.WorkoutSession, set models.SetEntry) Entry {
	e := Entry{
		SessionID: s.ID,
		Date:      s.StartedAt,
		Weight:    set.Weight,
		Reps:      set.Reps,
	}
	if set.RIR != nil {
		r := *set.RIR
		e.RIR = &r
	}
	if v, ok := progress.EstimateOneRepMax(set.Weight, set.Reps); ok {
		e.E1RM = &v
	}
	return e
}

// LastTwo returns at most two entries, most recent first.
func (a *Analyzer) LastTwo(ctx context.Context, userID, exerciseID string) ([]Entry, error) {
	h, err := a.History(ctx, userID, exerciseID)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, 2)
	for i := len(h) - 1; i >= 0 && len(out) < 2; i-- {
		out = append(out, h[i])
	}
	return out, nil
}

// CheckRegression evaluates the exercise's trend. It never mutates anything.
func (a *Analyzer) CheckRegression(ctx context.Context, userID, exerciseID string) (Suggestion, error) {
	h, err := a.History(ctx, userID, exerciseID)
	if err != nil {
		return Suggestion{}, err
	}
	return Evaluate(h, a.threshold), nil
}

// Evaluate counts consecutive regressing steps ending at the newest entry.
func Evaluate(history []Entry, threshold int) Suggestion {
	if threshold < 1 {
		threshold = DefaultThreshold
	}
	n := 0
	for i := len(history) - 1; i > 0; i-- {
		if !Regressed(history[i-1], history[i]) {
			break
		}
		n++
	}
	switch {
	case n >= threshold:
		return Suggestion{
			Level:       models.LevelDeload,
			Description: fmt.Sprintf("Top set regressed %d sessions in a row. Drop all back-off sets today.", n),
			Regressions: n,
		}
	case n >= 1:
		return Suggestion{
			Level:       models.LevelSupportReduction,
			Description: "Top set regressed since last session. Drop one back-off set today.",
			Regressions: n,
		}
	default:
		return Suggestion{Level: models.LevelNone, Regressions: 0}
	}
}

// Regressed reports whether cur is worse than prev: fewer reps at equal or
// higher weight, or less weight at equal or higher reps.
func Regressed(prev, cur Entry) bool {
	if cur.Reps < prev.Reps && cur.Weight >= prev.Weight {
		return true
	}
	if cur.Weight < prev.Weight && cur.Reps >= prev.Reps {
		return true
	}
	return false
}

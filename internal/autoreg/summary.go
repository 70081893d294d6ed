package autoreg

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/claude/topset/internal/progress"
)

// ErrNoHistory is returned when an exercise has no recorded top sets.
var ErrNoHistory = errors.New("no top-set history")

// ExerciseProgress compares the latest top set with the one before it.
type ExerciseProgress struct {
	ExerciseID  string          `json:"exercise_id"`
	Sessions    int             `json:"sessions"`
	Latest      Entry           `json:"latest"`
	Previous    *Entry          `json:"previous,omitempty"`
	WeightDelta *progress.Delta `json:"weight_delta,omitempty"`
	E1RMDelta   *progress.Delta `json:"e1rm_delta,omitempty"`
}

// Progress summarises an exercise. The e1RM delta is only present when both
// entries have an estimate.
func (a *Analyzer) Progress(ctx context.Context, userID, exerciseID string) (ExerciseProgress, error) {
	h, err := a.History(ctx, userID, exerciseID)
	if err != nil {
		return ExerciseProgress{}, err
	}
	if len(h) == 0 {
		return ExerciseProgress{}, fmt.Errorf("%s: %w", exerciseID, ErrNoHistory)
	}
	return Summarize(exerciseID, h), nil
}

// Summarize builds the progress view from a chronological history.
func Summarize(exerciseID string, h []Entry) ExerciseProgress {
	p := ExerciseProgress{ExerciseID: exerciseID, Sessions: len(h), Latest: h[len(h)-1]}
	if len(h) < 2 {
		return p
	}
	prev := h[len(h)-2]
	p.Previous = &prev
	wd := progress.Compare(p.Latest.Weight, prev.Weight)
	p.WeightDelta = &wd
	if p.Latest.E1RM != nil && prev.E1RM != nil {
		ed := progress.Compare(float64(*p.Latest.E1RM), float64(*prev.E1RM))
		p.E1RMDelta = &ed
	}
	return p
}

// TrackedExercise is an exercise with at least one recorded top set.
type TrackedExercise struct {
	ExerciseID   string    `json:"exercise_id"`
	ExerciseName string    `json:"exercise_name"`
	Sessions     int       `json:"sessions"`
	LastDate     time.Time `json:"last_date"`
}

// Tracked lists exercises that have top-set history, most recently trained first.
func (a *Analyzer) Tracked(ctx context.Context, userID string) ([]TrackedExercise, error) {
	sessions, err := a.repo.Completed(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	byID := make(map[string]*TrackedExercise)
	for _, s := range sessions {
		for _, log := range s.Logs {
			if _, ok := log.PrimaryTopSet(); !ok {
				continue
			}
			te, ok := byID[log.ExerciseID]
			if !ok {
				te = &TrackedExercise{ExerciseID: log.ExerciseID}
				byID[log.ExerciseID] = te
			}
			te.ExerciseName = log.ExerciseName
			te.Sessions++
			if s.StartedAt.After(te.LastDate) {
				te.LastDate = s.StartedAt
			}
		}
	}
	out := make([]TrackedExercise, 0, len(byID))
	for _, te := range byID {
		out = append(out, *te)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastDate.Equal(out[j].LastDate) {
			return out[i].LastDate.After(out[j].LastDate)
		}
		return out[i].ExerciseID < out[j].ExerciseID
	})
	return out, nil
}

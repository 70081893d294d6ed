package alpha

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/claude/topset/internal/ingest"
	"github.com/claude/topset/internal/models"
)

// DayID is the program day recorded on imported sessions.
const DayID = "alpha-import"

// idNamespace scopes the name-based session ids so a re-import of the same
// export overwrites instead of duplicating.
var idNamespace = uuid.MustParse("6f1c3f4e-8a0d-4c53-9b7e-0e2f4d1a7c55")

var durationRe = regexp.MustCompile(`^(\d+):(\d{2})`)

// Sink stores imported sessions.
type Sink interface {
	SaveSession(ctx context.Context, s models.WorkoutSession) error
}

// Exercises resolves exported exercise names to program templates.
type Exercises interface {
	ExerciseByName(name string) (models.ExerciseTemplate, bool)
}

// Provider imports Alpha Progression CSV exports as completed sessions.
type Provider struct {
	sink      Sink
	exercises Exercises
	log       *slog.Logger
}

func NewProvider(sink Sink, exercises Exercises, log *slog.Logger) *Provider {
	return &Provider{sink: sink, exercises: exercises, log: log}
}

// Ingest parses a CSV export and saves each session for userID.
func (p *Provider) Ingest(ctx context.Context, r io.Reader, userID string) (*ingest.Result, error) {
	sessions, err := Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing CSV: %w", err)
	}

	result := &ingest.Result{SessionsReceived: len(sessions)}
	unmatched := map[string]bool{}

	for _, s := range sessions {
		for _, ex := range s.Exercises {
			result.SetsReceived += len(ex.Sets)
		}
		ws, ok := p.Convert(s, userID, unmatched)
		if !ok {
			result.SessionsSkipped++
			p.log.Debug("skipping session without working sets", "name", s.Name, "date", s.Date)
			continue
		}
		if err := p.sink.SaveSession(ctx, ws); err != nil {
			return nil, fmt.Errorf("saving session %s: %w", s.Date.Format("2006-01-02"), err)
		}
		result.SessionsImported++
		for _, l := range ws.Logs {
			result.SetsImported += len(l.Sets)
		}
	}

	for name := range unmatched {
		result.UnmatchedExercises = append(result.UnmatchedExercises, name)
	}
	slices.Sort(result.UnmatchedExercises)

	p.log.Info("alpha import complete",
		"user", userID,
		"received", result.SessionsReceived,
		"imported", result.SessionsImported,
		"skipped", result.SessionsSkipped,
	)
	return result, nil
}

// Convert turns a parsed session into a completed workout session. Exercises
// without working sets are dropped; ok is false when nothing remains.
func (p *Provider) Convert(s Session, userID string, unmatched map[string]bool) (models.WorkoutSession, bool) {
	id := uuid.NewSHA1(idNamespace, []byte(userID+"|"+s.Date.Format(time.RFC3339)+"|"+s.Name)).String()
	minutes := parseDuration(s.Duration)
	completedAt := s.Date.Add(time.Duration(minutes) * time.Minute)

	ws := models.WorkoutSession{
		ID:              id,
		UserID:          userID,
		DayID:           DayID,
		Status:          models.StatusCompleted,
		DurationMinutes: minutes,
		StartedAt:       s.Date,
		CompletedAt:     &completedAt,
		Notes:           s.Name,
	}

	for _, ex := range s.Exercises {
		primary := primaryIndex(ex.Sets)
		if primary < 0 {
			continue
		}
		log := models.ExerciseLog{ExerciseName: ex.Name}
		if tmpl, ok := p.exercises.ExerciseByName(ex.Name); ok {
			log.ExerciseID = tmpl.ID
			log.ExerciseName = tmpl.Name
			log.SupportVolume = tmpl.SupportVolume()
		} else {
			log.ExerciseID = slug(ex.Name)
			if unmatched != nil {
				unmatched[ex.Name] = true
			}
		}
		for i, set := range ex.Sets {
			entry := models.SetEntry{
				ID:        fmt.Sprintf("%s-%d-%d", id, ex.Number, i),
				Type:      models.SetBackoff,
				Weight:    set.WeightKg,
				Reps:      set.Reps,
				Completed: true,
			}
			switch {
			case set.IsWarmup:
				entry.Type = models.SetRamp
			case i == primary:
				entry.Type = models.SetTop
				entry.IsPrimaryTopSet = true
			}
			if !set.IsWarmup {
				rir := int(math.Round(set.RIR))
				entry.RIR = &rir
			}
			log.Sets = append(log.Sets, entry)
		}
		ws.Logs = append(ws.Logs, log)
	}
	return ws, len(ws.Logs) > 0
}

// primaryIndex picks the heaviest working set, preferring more reps on a tie.
// It returns -1 when the exercise has no working sets.
func primaryIndex(sets []Set) int {
	best := -1
	for i, s := range sets {
		if s.IsWarmup {
			continue
		}
		if best < 0 || s.WeightKg > sets[best].WeightKg ||
			(s.WeightKg == sets[best].WeightKg && s.Reps > sets[best].Reps) {
			best = i
		}
	}
	return best
}

// parseDuration reads "1:02 hr" as 62 minutes. Unknown formats yield 0.
func parseDuration(s string) int {
	m := durationRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0
	}
	h, _ := strconv.Atoi(m[1])
	mins, _ := strconv.Atoi(m[2])
	return h*60 + mins
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

func slug(name string) string {
	return strings.Trim(slugRe.ReplaceAllString(strings.ToLower(name), "-"), "-")
}

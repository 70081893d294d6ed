package mcp

import (
	"context"
	"slices"

	"github.com/claude/topset/internal/autoreg"
	"github.com/claude/topset/internal/catalog"
	"github.com/claude/topset/internal/cycle"
	"github.com/claude/topset/internal/journal"
	"github.com/claude/topset/internal/models"
)

// DataSource abstracts the engine for MCP tools. Both LocalSource (in-process)
// and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	ProgramDays(ctx context.Context) ([]models.ProgramDay, error)
	TopSetHistory(ctx context.Context, userID, exerciseID string) ([]autoreg.Entry, error)
	CheckRegression(ctx context.Context, userID, exerciseID string) (autoreg.Suggestion, error)
	Progress(ctx context.Context, userID, exerciseID string) (autoreg.ExerciseProgress, error)
	Tracked(ctx context.Context, userID string) ([]autoreg.TrackedExercise, error)
	CycleState(ctx context.Context, userID string) (cycle.Status, error)
	// RecentSessions returns up to limit completed sessions, newest first.
	RecentSessions(ctx context.Context, userID string, limit int) ([]models.WorkoutSession, error)
}

// LocalSource serves MCP tools straight from the journal.
type LocalSource struct {
	Catalog  *catalog.Catalog
	Journal  *journal.Journal
	Analyzer *autoreg.Analyzer
	Cycle    *cycle.Scheduler
}

var (
	_ DataSource = (*LocalSource)(nil)
	_ DataSource = (*HTTPClient)(nil)
)

func (l *LocalSource) ProgramDays(context.Context) ([]models.ProgramDay, error) {
	return l.Catalog.ProgramDays(), nil
}

func (l *LocalSource) TopSetHistory(ctx context.Context, userID, exerciseID string) ([]autoreg.Entry, error) {
	return l.Analyzer.History(ctx, userID, exerciseID)
}

func (l *LocalSource) CheckRegression(ctx context.Context, userID, exerciseID string) (autoreg.Suggestion, error) {
	return l.Analyzer.CheckRegression(ctx, userID, exerciseID)
}

func (l *LocalSource) Progress(ctx context.Context, userID, exerciseID string) (autoreg.ExerciseProgress, error) {
	return l.Analyzer.Progress(ctx, userID, exerciseID)
}

func (l *LocalSource) Tracked(ctx context.Context, userID string) ([]autoreg.TrackedExercise, error) {
	return l.Analyzer.Tracked(ctx, userID)
}

func (l *LocalSource) CycleState(ctx context.Context, userID string) (cycle.Status, error) {
	return l.Cycle.State(ctx, userID)
}

func (l *LocalSource) RecentSessions(ctx context.Context, userID string, limit int) ([]models.WorkoutSession, error) {
	done, err := l.Journal.Completed(ctx, userID)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(done) > limit {
		done = done[len(done)-limit:]
	}
	slices.Reverse(done)
	return done, nil
}

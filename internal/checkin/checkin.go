// Package checkin records weekly recovery questionnaires.
package checkin

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/claude/topset/internal/models"
)

// Answers are the three yes/no questions of a weekly check-in.
type Answers struct {
	FeelingFlat     bool `json:"feeling_flat"`
	JointPain       bool `json:"joint_pain"`
	PerformanceDrop bool `json:"performance_drop"`
}

// NeedsDeload is true when at least two of the three answers are yes.
func (a Answers) NeedsDeload() bool {
	n := 0
	for _, yes := range []bool{a.FeelingFlat, a.JointPain, a.PerformanceDrop} {
		if yes {
			n++
		}
	}
	return n >= 2
}

type Repository interface {
	Checkins(ctx context.Context, userID string) ([]models.WeeklyCheckin, error)
	AddCheckin(ctx context.Context, c models.WeeklyCheckin) error
}

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// Submit stores a new check-in with its deload vote.
func (s *Service) Submit(ctx context.Context, userID string, a Answers) (models.WeeklyCheckin, error) {
	c := models.WeeklyCheckin{
		ID:              uuid.NewString(),
		UserID:          userID,
		Date:            s.now(),
		FeelingFlat:     a.FeelingFlat,
		JointPain:       a.JointPain,
		PerformanceDrop: a.PerformanceDrop,
		NeedsDeload:     a.NeedsDeload(),
	}
	if err := s.repo.AddCheckin(ctx, c); err != nil {
		return models.WeeklyCheckin{}, fmt.Errorf("submitting check-in: %w", err)
	}
	return c, nil
}

// List returns the user's check-ins, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]models.WeeklyCheckin, error) {
	list, err := s.repo.Checkins(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]models.WeeklyCheckin, len(list))
	for i, c := range list {
		out[len(list)-1-i] = c
	}
	return out, nil
}

// NeedsDeload reports the newest check-in's signal. No check-ins means false.
func (s *Service) NeedsDeload(ctx context.Context, userID string) (bool, error) {
	list, err := s.repo.Checkins(ctx, userID)
	if err != nil {
		return false, err
	}
	if len(list) == 0 {
		return false, nil
	}
	return list[len(list)-1].NeedsDeload, nil
}

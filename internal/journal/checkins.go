package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/claude/topset/internal/models"
	"github.com/claude/topset/internal/storage"
)

// Checkins returns the user's weekly check-ins, oldest first.
func (j *Journal) Checkins(ctx context.Context, userID string) ([]models.WeeklyCheckin, error) {
	blob, err := j.store.Get(ctx, storage.NamespaceCheckins, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading check-ins: %w", err)
	}
	var out []models.WeeklyCheckin
	if err := json.Unmarshal(blob, &out); err != nil {
		return nil, fmt.Errorf("decoding check-ins: %w", err)
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Date.Before(out[b].Date) })
	return out, nil
}

// AddCheckin appends a check-in to the user's list.
func (j *Journal) AddCheckin(ctx context.Context, c models.WeeklyCheckin) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	list, err := j.Checkins(ctx, c.UserID)
	if err != nil {
		return err
	}
	list = append(list, c)
	blob, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encoding check-ins: %w", err)
	}
	if err := j.store.Set(ctx, storage.NamespaceCheckins, c.UserID, blob); err != nil {
		return fmt.Errorf("saving check-in: %w", err)
	}
	return nil
}

package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/claude/topset/internal/models"
	"github.com/claude/topset/internal/storage"
)

// Cycle loads the user's periodization state. ok is false when none is stored.
func (j *Journal) Cycle(ctx context.Context, userID string) (state models.CycleState, ok bool, err error) {
	blob, err := j.store.Get(ctx, storage.NamespaceCycle, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return models.CycleState{}, false, nil
	}
	if err != nil {
		return models.CycleState{}, false, fmt.Errorf("loading cycle: %w", err)
	}
	if err := json.Unmarshal(blob, &state); err != nil {
		return models.CycleState{}, false, fmt.Errorf("decoding cycle: %w", err)
	}
	return state, true, nil
}

// SaveCycle replaces the user's periodization state.
func (j *Journal) SaveCycle(ctx context.Context, userID string, state models.CycleState) error {
	blob, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding cycle: %w", err)
	}
	if err := j.store.Set(ctx, storage.NamespaceCycle, userID, blob); err != nil {
		return fmt.Errorf("saving cycle: %w", err)
	}
	return nil
}

package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/claude/topset/internal/models"
	"github.com/claude/topset/internal/storage"
)

// GetOrCreateUser finds or creates a user by login name. The login doubles
// as the user id. Updates last_seen and display_name on each call.
func (j *Journal) GetOrCreateUser(ctx context.Context, login, displayName string) (models.User, error) {
	if login == "" {
		return models.User{}, fmt.Errorf("user login is required")
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	now := time.Now().UTC()
	u := models.User{ID: login, Login: login, CreatedAt: now}

	blob, err := j.store.Get(ctx, storage.NamespaceUsers, login)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return models.User{}, fmt.Errorf("loading user: %w", err)
	default:
		if err := json.Unmarshal(blob, &u); err != nil {
			return models.User{}, fmt.Errorf("decoding user: %w", err)
		}
	}

	if displayName != "" {
		u.DisplayName = displayName
	}
	u.LastSeen = now

	out, err := json.Marshal(u)
	if err != nil {
		return models.User{}, fmt.Errorf("encoding user: %w", err)
	}
	if err := j.store.Set(ctx, storage.NamespaceUsers, login, out); err != nil {
		return models.User{}, fmt.Errorf("saving user: %w", err)
	}
	return u, nil
}

// Package journal is the typed repository over the blob store. Every
// operation is scoped by user id; each namespace holds one JSON document
// per user.
package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/claude/topset/internal/models"
	"github.com/claude/topset/internal/storage"
)

// ErrNotFound is returned when a session or record does not exist.
var ErrNotFound = errors.New("not found")

// Journal reads and writes sessions, check-ins, cycle state and users.
type Journal struct {
	store storage.Store

	// Serialises read-modify-write cycles on a user's documents.
	mu sync.Mutex
}

func New(store storage.Store) *Journal {
	return &Journal{store: store}
}

// Store exposes the underlying blob store for pass-through backup.
func (j *Journal) Store() storage.Store {
	return j.store
}

// RawSessions returns the user's session records without decoding them.
func (j *Journal) RawSessions(ctx context.Context, userID string) ([]json.RawMessage, error) {
	blob, err := j.store.Get(ctx, storage.NamespaceSessions, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading sessions: %w", err)
	}
	var records []json.RawMessage
	if err := json.Unmarshal(blob, &records); err != nil {
		return nil, fmt.Errorf("decoding session list: %w", err)
	}
	return records, nil
}

func (j *Journal) putRawSessions(ctx context.Context, userID string, records []json.RawMessage) error {
	if records == nil {
		records = []json.RawMessage{}
	}
	blob, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encoding session list: %w", err)
	}
	if err := j.store.Set(ctx, storage.NamespaceSessions, userID, blob); err != nil {
		return fmt.Errorf("saving sessions: %w", err)
	}
	return nil
}

type recordHeader struct {
	ID     string               `json:"id"`
	Status models.SessionStatus `json:"status"`
}

// Sessions returns every decodable session of the user, oldest first.
// Undecodable records are left in place for the integrity scanner.
func (j *Journal) Sessions(ctx context.Context, userID string) ([]models.WorkoutSession, error) {
	records, err := j.RawSessions(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]models.WorkoutSession, 0, len(records))
	for _, r := range records {
		var s models.WorkoutSession
		if err := json.Unmarshal(r, &s); err != nil || s.ID == "" {
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].StartedAt.Before(out[b].StartedAt)
	})
	return out, nil
}

// Completed returns the user's COMPLETED sessions, oldest first.
func (j *Journal) Completed(ctx context.Context, userID string) ([]models.WorkoutSession, error) {
	all, err := j.Sessions(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, s := range all {
		if s.Status == models.StatusCompleted {
			out = append(out, s)
		}
	}
	return out, nil
}

// Drafts returns the user's DRAFT sessions, oldest first.
func (j *Journal) Drafts(ctx context.Context, userID string) ([]models.WorkoutSession, error) {
	all, err := j.Sessions(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, s := range all {
		if s.Status == models.StatusDraft {
			out = append(out, s)
		}
	}
	return out, nil
}

// Session loads one session by id.
func (j *Journal) Session(ctx context.Context, userID, id string) (models.WorkoutSession, error) {
	all, err := j.Sessions(ctx, userID)
	if err != nil {
		return models.WorkoutSession{}, err
	}
	for _, s := range all {
		if s.ID == id {
			return s, nil
		}
	}
	return models.WorkoutSession{}, fmt.Errorf("session %s: %w", id, ErrNotFound)
}

// SaveSession inserts or replaces a session record by id.
func (j *Journal) SaveSession(ctx context.Context, s models.WorkoutSession) error {
	if s.ID == "" || s.UserID == "" {
		return fmt.Errorf("saving session: id and user id are required")
	}
	rec, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", s.ID, err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	records, err := j.RawSessions(ctx, s.UserID)
	if err != nil {
		return err
	}
	replaced := false
	for i, r := range records {
		var h recordHeader
		if json.Unmarshal(r, &h) == nil && h.ID == s.ID {
			records[i] = rec
			replaced = true
			break
		}
	}
	if !replaced {
		records = append(records, rec)
	}
	return j.putRawSessions(ctx, s.UserID, records)
}

// DeleteSession removes a session record by id. Missing ids are not an error.
func (j *Journal) DeleteSession(ctx context.Context, userID, id string) error {
	return j.DeleteRecords(ctx, userID, nil, id)
}

// DeleteRecords removes records by position (as reported by RawSessions) or
// by session id in one write.
func (j *Journal) DeleteRecords(ctx context.Context, userID string, byIndex func(int, json.RawMessage) bool, ids ...string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	records, err := j.RawSessions(ctx, userID)
	if err != nil {
		return err
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := records[:0]
	for i, r := range records {
		var h recordHeader
		_ = json.Unmarshal(r, &h)
		if (h.ID != "" && drop[h.ID]) || (byIndex != nil && byIndex(i, r)) {
			continue
		}
		kept = append(kept, r)
	}
	return j.putRawSessions(ctx, userID, kept)
}

// Package integrity scans stored sessions for structural anomalies and
// repairs them by deleting corrupt drafts. Completed history is never removed.
package integrity

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/claude/topset/internal/models"
)

// Kind classifies an anomaly.
type Kind string

const (
	KindUnknownDay       Kind = "unknown_day"
	KindDuplicatePrimary Kind = "duplicate_primary"
	KindMultipleDrafts   Kind = "multiple_drafts"
	KindUndecodable      Kind = "undecodable"
)

// DataIntegrityError describes one anomaly in a stored record.
type DataIntegrityError struct {
	Kind      Kind                 `json:"kind"`
	Index     int                  `json:"index"`
	SessionID string               `json:"session_id,omitempty"`
	Status    models.SessionStatus `json:"status,omitempty"`
	Detail    string               `json:"detail"`
	// Repairable is true when Repair would delete the record.
	Repairable bool `json:"repairable"`
}

func (e *DataIntegrityError) Error() string {
	if e.SessionID == "" {
		return fmt.Sprintf("record %d: %s: %s", e.Index, e.Kind, e.Detail)
	}
	return fmt.Sprintf("session %s: %s: %s", e.SessionID, e.Kind, e.Detail)
}

// Report is the result of a scan.
type Report struct {
	Scanned int                   `json:"scanned"`
	Issues  []*DataIntegrityError `json:"issues"`
}

// OK reports whether the scan found nothing.
func (r Report) OK() bool { return len(r.Issues) == 0 }

// Records is the raw session storage of a user.
type Records interface {
	RawSessions(ctx context.Context, userID string) ([]json.RawMessage, error)
	DeleteRecords(ctx context.Context, userID string, byIndex func(int, json.RawMessage) bool, ids ...string) error
}

// Days reports whether a program day exists.
type Days interface {
	HasDay(id string) bool
}

type Scanner struct {
	records Records
	days    Days
}

func NewScanner(records Records, days Days) *Scanner {
	return &Scanner{records: records, days: days}
}

type header struct {
	ID        string               `json:"id"`
	Status    models.SessionStatus `json:"status"`
	StartedAt time.Time            `json:"started_at"`
}

// Scan inspects every stored session record of the user.
func (s *Scanner) Scan(ctx context.Context, userID string) (Report, error) {
	raw, err := s.records.RawSessions(ctx, userID)
	if err != nil {
		return Report{}, fmt.Errorf("scanning sessions: %w", err)
	}
	return s.inspect(raw), nil
}

type draftRef struct {
	index   int
	id      string
	started time.Time
}

func (s *Scanner) inspect(raw []json.RawMessage) Report {
	rep := Report{Scanned: len(raw)}
	var drafts []draftRef

	for i, r := range raw {
		var sess models.WorkoutSession
		if err := json.Unmarshal(r, &sess); err != nil || sess.ID == "" {
			var h header
			_ = json.Unmarshal(r, &h)
			detail := "record has no id"
			if err != nil {
				detail = err.Error()
			}
			rep.Issues = append(rep.Issues, &DataIntegrityError{
				Kind:       KindUndecodable,
				Index:      i,
				SessionID:  h.ID,
				Status:     h.Status,
				Detail:     detail,
				Repairable: h.Status == models.StatusDraft,
			})
			continue
		}

		isDraft := sess.Status == models.StatusDraft
		if isDraft {
			drafts = append(drafts, draftRef{index: i, id: sess.ID, started: sess.StartedAt})
			if !s.days.HasDay(sess.DayID) {
				rep.Issues = append(rep.Issues, &DataIntegrityError{
					Kind:       KindUnknownDay,
					Index:      i,
					SessionID:  sess.ID,
					Status:     sess.Status,
					Detail:     fmt.Sprintf("draft references program day %q which no longer exists", sess.DayID),
					Repairable: true,
				})
			}
		}
		for _, log := range sess.Logs {
			if n := log.PrimaryCount(); n > 1 {
				rep.Issues = append(rep.Issues, &DataIntegrityError{
					Kind:       KindDuplicatePrimary,
					Index:      i,
					SessionID:  sess.ID,
					Status:     sess.Status,
					Detail:     fmt.Sprintf("exercise %s has %d primary top sets", log.ExerciseID, n),
					Repairable: isDraft,
				})
			}
		}
	}

	if len(drafts) > 1 {
		// The newest draft survives a repair.
		sort.SliceStable(drafts, func(a, b int) bool { return drafts[a].started.Before(drafts[b].started) })
		for _, d := range drafts[:len(drafts)-1] {
			rep.Issues = append(rep.Issues, &DataIntegrityError{
				Kind:       KindMultipleDrafts,
				Index:      d.index,
				SessionID:  d.id,
				Status:     models.StatusDraft,
				Detail:     fmt.Sprintf("one of %d drafts; only the newest is kept", len(drafts)),
				Repairable: true,
			})
		}
	}
	return rep
}

// Repair deletes every repairable record and returns one issue per removed
// record.
// Records of unknown status and completed sessions are kept.
func (s *Scanner) Repair(ctx context.Context, userID string) ([]*DataIntegrityError, error) {
	rep, err := s.Scan(ctx, userID)
	if err != nil {
		return nil, err
	}
	var removed []*DataIntegrityError
	ids := map[string]bool{}
	seen := map[int]bool{}
	undecodable := false
	for _, issue := range rep.Issues {
		if !issue.Repairable || seen[issue.Index] {
			continue
		}
		seen[issue.Index] = true
		removed = append(removed, issue)
		if issue.Kind == KindUndecodable {
			undecodable = true
			continue
		}
		ids[issue.SessionID] = true
	}
	if len(removed) == 0 {
		return nil, nil
	}

	var byIndex func(int, json.RawMessage) bool
	if undecodable {
		byIndex = func(_ int, r json.RawMessage) bool {
			var sess models.WorkoutSession
			if err := json.Unmarshal(r, &sess); err == nil && sess.ID != "" {
				return false
			}
			var h header
			_ = json.Unmarshal(r, &h)
			return h.Status == models.StatusDraft
		}
	}
	list := make([]string, 0, len(ids))
	for id := range ids {
		list = append(list, id)
	}
	if err := s.records.DeleteRecords(ctx, userID, byIndex, list...); err != nil {
		return nil, fmt.Errorf("repairing sessions: %w", err)
	}
	return removed, nil
}

package integrity

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/claude/topset/internal/catalog"
	"github.com/claude/topset/internal/journal"
	"github.com/claude/topset/internal/models"
	"github.com/claude/topset/internal/storage"
)

var t0 = time.Date(2026, 4, 1, 18, 0, 0, 0, time.UTC)

func sess(id string, status models.SessionStatus, day string, offset time.Duration, primaries int) models.WorkoutSession {
	log := models.ExerciseLog{ExerciseID: "squat-d2", ExerciseName: "Squat"}
	for i := 0; i < primaries; i++ {
		log.Sets = append(log.Sets, models.SetEntry{ID: id + "-s" + string(rune('0'+i)), Type: models.SetTop, Weight: 100, Reps: 5, IsPrimaryTopSet: true})
	}
	return models.WorkoutSession{
		ID:        id,
		UserID:    "alice",
		DayID:     day,
		Status:    status,
		StartedAt: t0.Add(offset),
		Logs:      []models.ExerciseLog{log},
	}
}

func setup(t *testing.T, extra string, sessions ...models.WorkoutSession) (*journal.Journal, *Scanner) {
	t.Helper()
	ctx := context.Background()
	mem := storage.NewMemory()
	j := journal.New(mem)
	for _, s := range sessions {
		if err := j.SaveSession(ctx, s); err != nil {
			t.Fatal(err)
		}
	}
	if extra != "" {
		raw, _ := j.RawSessions(ctx, "alice")
		raw = append(raw, json.RawMessage(extra))
		blob, _ := json.Marshal(raw)
		if err := mem.Set(ctx, storage.NamespaceSessions, "alice", blob); err != nil {
			t.Fatal(err)
		}
	}
	cat, err := catalog.Default()
	if err != nil {
		t.Fatal(err)
	}
	return j, NewScanner(j, cat)
}

func kinds(issues []*DataIntegrityError) map[Kind]int {
	out := map[Kind]int{}
	for _, i := range issues {
		out[i.Kind]++
	}
	return out
}

// TestScanCleanHistory verifies a healthy journal reports no issues.
func TestScanCleanHistory(t *testing.T) {
	_, sc := setup(t, "",
		sess("a", models.StatusCompleted, "day-1", 0, 1),
		sess("b", models.StatusDraft, "day-2", time.Hour, 0),
	)
	rep, err := sc.Scan(context.Background(), "alice")
	if err != nil {
		t.Fatal(err)
	}
	if !rep.OK() || rep.Scanned != 2 {
		t.Errorf("report = %+v, want 2 scanned and OK", rep)
	}
}

// TestScanFindsAnomalies verifies each anomaly kind is detected.
func TestScanFindsAnomalies(t *testing.T) {
	_, sc := setup(t, `{"id":"broken","status":"DRAFT","logs":42}`,
		sess("old-draft", models.StatusDraft, "day-1", 0, 0),
		sess("ghost-day", models.StatusDraft, "day-9", time.Hour, 0),
		sess("dup-done", models.StatusCompleted, "day-2", 2*time.Hour, 2),
		sess("new-draft", models.StatusDraft, "day-3", 3*time.Hour, 2),
	)
	rep, err := sc.Scan(context.Background(), "alice")
	if err != nil {
		t.Fatal(err)
	}
	got := kinds(rep.Issues)
	want := map[Kind]int{
		KindUndecodable:      1,
		KindUnknownDay:       1,
		KindDuplicatePrimary: 2,
		KindMultipleDrafts:   2,
	}
	for k, n := range want {
		if got[k] != n {
			t.Errorf("%s issues = %d, want %d", k, got[k], n)
		}
	}
	for _, issue := range rep.Issues {
		if issue.SessionID == "dup-done" && issue.Repairable {
			t.Error("completed session marked repairable")
		}
		if issue.Kind == KindMultipleDrafts && issue.SessionID == "new-draft" {
			t.Error("newest draft flagged as surplus")
		}
	}
}

// TestRepairKeepsCompletedHistory verifies repair removes corrupt drafts only.
func TestRepairKeepsCompletedHistory(t *testing.T) {
	ctx := context.Background()
	j, sc := setup(t, `{"id":"broken","status":"DRAFT","logs":42}`,
		sess("done", models.StatusCompleted, "day-2", 0, 2),
		sess("ghost-day", models.StatusDraft, "day-9", time.Hour, 0),
		sess("keep", models.StatusDraft, "day-1", 2*time.Hour, 1),
	)
	removed, err := sc.Repair(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(removed) != 2 {
		t.Errorf("removed %d records, want 2 (ghost-day, broken)", len(removed))
	}

	raw, _ := j.RawSessions(ctx, "alice")
	if len(raw) != 2 {
		t.Fatalf("records left = %d, want 2", len(raw))
	}
	if _, err := j.Session(ctx, "alice", "done"); err != nil {
		t.Errorf("completed session lost: %v", err)
	}
	if _, err := j.Session(ctx, "alice", "keep"); err != nil {
		t.Errorf("healthy draft lost: %v", err)
	}

	rep, _ := sc.Scan(ctx, "alice")
	for _, issue := range rep.Issues {
		if issue.Repairable {
			t.Errorf("repairable issue left after repair: %v", issue)
		}
	}
}

// TestRepairKeepsUndecodableOfUnknownStatus verifies records without a readable status are never deleted.
func TestRepairKeepsUndecodableOfUnknownStatus(t *testing.T) {
	ctx := context.Background()
	j, sc := setup(t, `"just a string"`, sess("done", models.StatusCompleted, "day-2", 0, 1))

	rep, _ := sc.Scan(ctx, "alice")
	if len(rep.Issues) != 1 || rep.Issues[0].Repairable {
		t.Fatalf("issues = %+v, want one non-repairable", rep.Issues)
	}
	removed, err := sc.Repair(ctx, "alice")
	if err != nil || len(removed) != 0 {
		t.Errorf("Repair = %v, %v, want nothing removed", removed, err)
	}
	if raw, _ := j.RawSessions(ctx, "alice"); len(raw) != 2 {
		t.Errorf("records = %d, want 2", len(raw))
	}
}

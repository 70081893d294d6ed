package session

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/claude/topset/internal/models"
)

func seqIDs() IDFunc {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func ptr[T any](v T) *T { return &v }

var testDay = models.ProgramDay{
	ID:   "day-2",
	Name: "Day 2",
	Exercises: []models.ExerciseTemplate{
		{ID: "squat", Name: "Squat", RampUpSets: 2, TopSet: &models.TopSetTarget{MinReps: 5, MaxReps: 8}, BackOffSets: 1, IsKeyLift: true},
		{ID: "leg-ext", Name: "Leg extension", RampUpSets: 1, TopSet: &models.TopSetTarget{MinReps: 10, MaxReps: 15}, BackOffSets: 2},
		{ID: "calf", Name: "Calf raise", BackOffSets: 3},
	},
}

func draft(t *testing.T, phase models.Phase) models.WorkoutSession {
	t.Helper()
	return Build(testDay, "alice", phase, time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC), seqIDs())
}

func types(log models.ExerciseLog) string {
	out := ""
	for _, s := range log.Sets {
		c := s.Type[:1]
		if s.IsDisabledByPeriodization {
			c = "x"
		}
		out += string(c)
	}
	return out
}

// TestBuildSkeleton verifies default sets follow the declared counts and nothing is primary.
func TestBuildSkeleton(t *testing.T) {
	s := draft(t, models.PhaseBuild)

	if s.Status != models.StatusDraft {
		t.Errorf("Status = %s, want DRAFT", s.Status)
	}
	if s.Phase != models.PhaseBuild {
		t.Errorf("Phase = %s, want BUILD", s.Phase)
	}
	want := []string{"RRTB", "RTBB", "BBB"}
	for i, w := range want {
		if got := types(s.Logs[i]); got != w {
			t.Errorf("log %d set types = %s, want %s", i, got, w)
		}
		if n := s.Logs[i].PrimaryCount(); n != 0 {
			t.Errorf("log %d primaries = %d, want 0", i, n)
		}
		for _, set := range s.Logs[i].Sets {
			if set.Completed || set.IsManual {
				t.Errorf("log %d set %s: completed=%v manual=%v, want both false", i, set.ID, set.Completed, set.IsManual)
			}
		}
	}
	if !s.Logs[1].SupportVolume || s.Logs[0].SupportVolume {
		t.Errorf("support volume flags = %v/%v, want false/true", s.Logs[0].SupportVolume, s.Logs[1].SupportVolume)
	}
}

// TestBuildPhaseModifiers verifies CONSOLIDATE trims support volume and DELOAD trims all back-off work.
func TestBuildPhaseModifiers(t *testing.T) {
	tests := []struct {
		phase models.Phase
		want  []string
		hint  string
	}{
		{models.PhaseBuild, []string{"RRTB", "RTBB", "BBB"}, ""},
		{models.PhaseConsolidate, []string{"RRTB", "RTBx", "BBx"}, ""},
		{models.PhaseDeload, []string{"RRTx", "RTxx", "xxx"}, DeloadRIRHint},
	}
	for _, tt := range tests {
		t.Run(string(tt.phase), func(t *testing.T) {
			s := draft(t, tt.phase)
			for i, w := range tt.want {
				if got := types(s.Logs[i]); got != w {
					t.Errorf("log %d = %s, want %s", i, got, w)
				}
				if s.Logs[i].RIRHint != tt.hint {
					t.Errorf("log %d RIRHint = %q, want %q", i, s.Logs[i].RIRHint, tt.hint)
				}
			}
		})
	}
}

// TestPrimaryTopSetIsUnique verifies marking a set primary clears siblings and forces TOP.
func TestPrimaryTopSetIsUnique(t *testing.T) {
	s := draft(t, models.PhaseBuild)

	tr, err := UpdateSet(s, 0, 2, SetPatch{IsPrimaryTopSet: ptr(true), Weight: ptr(120.0), Reps: ptr(6)})
	if err != nil {
		t.Fatal(err)
	}
	tr, err = UpdateSet(tr.Session, 0, 3, SetPatch{IsPrimaryTopSet: ptr(true)})
	if err != nil {
		t.Fatal(err)
	}
	log := tr.Session.Logs[0]
	if n := log.PrimaryCount(); n != 1 {
		t.Fatalf("PrimaryCount = %d, want 1", n)
	}
	if !log.Sets[3].IsPrimaryTopSet || log.Sets[3].Type != models.SetTop {
		t.Errorf("set 3 = %+v, want primary TOP", log.Sets[3])
	}
	if log.Sets[2].IsPrimaryTopSet {
		t.Error("set 2 still primary")
	}
	if !tr.Has(IntentPersist) {
		t.Error("missing persist intent")
	}
	// Input is never mutated.
	if s.Logs[0].Sets[2].IsPrimaryTopSet {
		t.Error("UpdateSet mutated its input")
	}
}

// TestChangingPrimaryTypeDropsFlag verifies a primary set moved off TOP is no longer primary.
func TestChangingPrimaryTypeDropsFlag(t *testing.T) {
	s := draft(t, models.PhaseBuild)
	tr, _ := UpdateSet(s, 0, 2, SetPatch{IsPrimaryTopSet: ptr(true)})
	tr, err := UpdateSet(tr.Session, 0, 2, SetPatch{Type: ptr(models.SetBackoff)})
	if err != nil {
		t.Fatal(err)
	}
	if tr.Session.Logs[0].PrimaryCount() != 0 {
		t.Error("primary flag kept on a BACKOFF set")
	}
}

// TestCompletedEmitsRestTimer verifies completing a set requests the rest timer.
func TestCompletedEmitsRestTimer(t *testing.T) {
	s := draft(t, models.PhaseBuild)
	tr, err := UpdateSet(s, 1, 0, SetPatch{Completed: ptr(true)})
	if err != nil {
		t.Fatal(err)
	}
	if !tr.Has(IntentStartRestTimer) {
		t.Error("missing start-rest-timer intent")
	}
	tr, _ = UpdateSet(tr.Session, 1, 0, SetPatch{Weight: ptr(40.0)})
	if tr.Has(IntentStartRestTimer) {
		t.Error("rest timer requested for a weight edit")
	}
}

// TestUpdateSetRejects verifies the error paths of UpdateSet.
func TestUpdateSetRejects(t *testing.T) {
	s := draft(t, models.PhaseConsolidate)
	done := s.Clone()
	done.Status = models.StatusCompleted

	tests := []struct {
		name    string
		s       models.WorkoutSession
		ex, set int
		patch   SetPatch
		want    error
	}{
		{"completed", done, 0, 0, SetPatch{Reps: ptr(5)}, ErrImmutableSession},
		{"exercise index", s, 9, 0, SetPatch{}, ErrIndexOutOfRange},
		{"set index", s, 0, 9, SetPatch{}, ErrIndexOutOfRange},
		{"negative weight", s, 0, 0, SetPatch{Weight: ptr(-1.0)}, ErrValidation},
		{"negative reps", s, 0, 0, SetPatch{Reps: ptr(-1)}, ErrValidation},
		{"negative rir", s, 0, 0, SetPatch{RIR: ptr(-1)}, ErrValidation},
		{"bad type", s, 0, 0, SetPatch{Type: ptr(models.SetType("AMRAP"))}, ErrValidation},
		{"disabled set", s, 1, 3, SetPatch{Reps: ptr(12)}, ErrDisabledSet},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := UpdateSet(tt.s, tt.ex, tt.set, tt.patch); !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

// TestRIRSetAndClear verifies RIR can be set and cleared back to null.
func TestRIRSetAndClear(t *testing.T) {
	s := draft(t, models.PhaseBuild)
	tr, _ := UpdateSet(s, 0, 0, SetPatch{RIR: ptr(2)})
	if r := tr.Session.Logs[0].Sets[0].RIR; r == nil || *r != 2 {
		t.Fatalf("RIR = %v, want 2", r)
	}
	tr, _ = UpdateSet(tr.Session, 0, 0, SetPatch{ClearRIR: true})
	if r := tr.Session.Logs[0].Sets[0].RIR; r != nil {
		t.Errorf("RIR = %d, want nil", *r)
	}
}

// TestAddSet verifies manual sets are appended blank.
func TestAddSet(t *testing.T) {
	s := draft(t, models.PhaseBuild)
	tr, err := AddSet(s, 2, models.SetBackoff, func() string { return "manual" })
	if err != nil {
		t.Fatal(err)
	}
	sets := tr.Session.Logs[2].Sets
	last := sets[len(sets)-1]
	if len(sets) != 4 || last.ID != "manual" || !last.IsManual || last.Type != models.SetBackoff {
		t.Errorf("appended set = %+v (len %d)", last, len(sets))
	}
	if _, err := AddSet(s, 2, "WARMUP", seqIDs()); !errors.Is(err, ErrValidation) {
		t.Errorf("AddSet(WARMUP) error = %v, want ErrValidation", err)
	}
}

// TestRemoveSet verifies the most recent active set of the type is removed and the primary is protected.
func TestRemoveSet(t *testing.T) {
	s := draft(t, models.PhaseBuild)

	tr, err := RemoveSet(s, 0, models.SetRamp)
	if err != nil {
		t.Fatal(err)
	}
	if got := types(tr.Session.Logs[0]); got != "RTB" {
		t.Errorf("after removing RAMP = %s, want RTB", got)
	}
	if tr.Session.Logs[0].Sets[0].ID != s.Logs[0].Sets[0].ID {
		t.Error("removed the wrong ramp set")
	}

	tr, _ = UpdateSet(s, 0, 2, SetPatch{IsPrimaryTopSet: ptr(true)})
	if _, err := RemoveSet(tr.Session, 0, models.SetTop); !errors.Is(err, ErrProtectedSet) {
		t.Errorf("removing primary error = %v, want ErrProtectedSet", err)
	}

	// A second TOP set after the primary can be removed.
	tr, _ = AddSet(tr.Session, 0, models.SetTop, func() string { return "extra" })
	tr, err = RemoveSet(tr.Session, 0, models.SetTop)
	if err != nil {
		t.Fatalf("removing non-primary TOP: %v", err)
	}
	if tr.Session.Logs[0].PrimaryCount() != 1 {
		t.Error("primary lost while removing a sibling")
	}

	if _, err := RemoveSet(s, 2, models.SetRamp); !errors.Is(err, ErrNoRemovableSet) {
		t.Errorf("removing missing type error = %v, want ErrNoRemovableSet", err)
	}
}

// TestRemoveSetSkipsDisabled verifies disabled sets are never removed.
func TestRemoveSetSkipsDisabled(t *testing.T) {
	s := draft(t, models.PhaseBuild)
	tr, _ := ApplyReduction(s, 1, models.LevelSupportReduction) // RTBx
	tr, err := RemoveSet(tr.Session, 1, models.SetBackoff)
	if err != nil {
		t.Fatal(err)
	}
	if got := types(tr.Session.Logs[1]); got != "RTx" {
		t.Errorf("sets = %s, want RTx", got)
	}
}

// TestApplyReduction verifies SUPPORT_REDUCTION and DELOAD on one exercise.
func TestApplyReduction(t *testing.T) {
	s := draft(t, models.PhaseBuild)

	tr, err := ApplyReduction(s, 2, models.LevelSupportReduction)
	if err != nil {
		t.Fatal(err)
	}
	if got := types(tr.Session.Logs[2]); got != "BBx" {
		t.Errorf("first reduction = %s, want BBx", got)
	}
	tr, _ = ApplyReduction(tr.Session, 2, models.LevelSupportReduction)
	if got := types(tr.Session.Logs[2]); got != "Bxx" {
		t.Errorf("second reduction = %s, want Bxx", got)
	}

	tr, err = ApplyReduction(s, 0, models.LevelDeload)
	if err != nil {
		t.Fatal(err)
	}
	if got := types(tr.Session.Logs[0]); got != "RRTx" {
		t.Errorf("deload = %s, want RRTx", got)
	}
	if n := tr.Session.Logs[0].CountedSets(); n != 3 {
		t.Errorf("counted sets after deload = %d, want 3", n)
	}

	tr, _ = ApplyReduction(s, 0, models.LevelNone)
	if got := types(tr.Session.Logs[0]); got != "RRTB" {
		t.Errorf("NONE changed sets to %s", got)
	}
	if _, err := ApplyReduction(s, 0, "HALF"); !errors.Is(err, ErrValidation) {
		t.Errorf("unknown level error = %v, want ErrValidation", err)
	}
}

func markPrimaries(t *testing.T, s models.WorkoutSession, skip int) models.WorkoutSession {
	t.Helper()
	for i, log := range s.Logs {
		if i == skip {
			continue
		}
		for j, set := range log.Sets {
			if set.IsDisabledByPeriodization {
				continue
			}
			tr, err := UpdateSet(s, i, j, SetPatch{IsPrimaryTopSet: ptr(true), Weight: ptr(50.0), Reps: ptr(8)})
			if err != nil {
				t.Fatal(err)
			}
			s = tr.Session
			break
		}
	}
	return s
}

// TestFinalize verifies completion succeeds only when every counted log has exactly one primary.
func TestFinalize(t *testing.T) {
	now := time.Date(2026, 3, 2, 19, 5, 30, 0, time.UTC)

	t.Run("missing primary", func(t *testing.T) {
		s := markPrimaries(t, draft(t, models.PhaseBuild), 1)
		_, err := Finalize(s, now)
		var mp *MissingPrimaryTopSetError
		if !errors.As(err, &mp) {
			t.Fatalf("error = %v, want MissingPrimaryTopSetError", err)
		}
		if mp.ExerciseName != "Leg extension" || mp.ExerciseIndex != 1 {
			t.Errorf("error names %q (#%d), want Leg extension (#1)", mp.ExerciseName, mp.ExerciseIndex)
		}
		if !errors.Is(err, ErrValidation) {
			t.Error("MissingPrimaryTopSetError should match ErrValidation")
		}
		if s.Status != models.StatusDraft {
			t.Error("failed finalize changed status")
		}
	})

	t.Run("empty log is exempt", func(t *testing.T) {
		s := markPrimaries(t, draft(t, models.PhaseBuild), 2)
		s.Logs[2].Sets = nil
		if _, err := Finalize(s, now); err != nil {
			t.Fatalf("Finalize: %v", err)
		}
	})

	t.Run("fully disabled log is exempt", func(t *testing.T) {
		s := draft(t, models.PhaseDeload)
		s = markPrimaries(t, s, 2) // calf log is all BACKOFF, all disabled
		if _, err := Finalize(s, now); err != nil {
			t.Fatalf("Finalize: %v", err)
		}
	})

	t.Run("success", func(t *testing.T) {
		s := markPrimaries(t, draft(t, models.PhaseBuild), -1)
		tr, err := Finalize(s, now)
		if err != nil {
			t.Fatal(err)
		}
		got := tr.Session
		if got.Status != models.StatusCompleted {
			t.Errorf("Status = %s, want COMPLETED", got.Status)
		}
		if got.CompletedAt == nil || !got.CompletedAt.Equal(now) {
			t.Errorf("CompletedAt = %v, want %v", got.CompletedAt, now)
		}
		if got.DurationMinutes != 65 {
			t.Errorf("DurationMinutes = %d, want 65", got.DurationMinutes)
		}
		if _, err := Finalize(got, now); !errors.Is(err, ErrImmutableSession) {
			t.Errorf("second Finalize error = %v, want ErrImmutableSession", err)
		}
		if _, err := AddSet(got, 0, models.SetRamp, seqIDs()); !errors.Is(err, ErrImmutableSession) {
			t.Errorf("AddSet on completed error = %v, want ErrImmutableSession", err)
		}
	})
}

// TestTick verifies the duration only persists when the minute count changes.
func TestTick(t *testing.T) {
	s := draft(t, models.PhaseBuild)
	tr := Tick(s, s.StartedAt.Add(30*time.Second))
	if tr.Has(IntentPersist) {
		t.Error("persist requested with no minute change")
	}
	tr = Tick(s, s.StartedAt.Add(3*time.Minute+10*time.Second))
	if tr.Session.DurationMinutes != 3 || !tr.Has(IntentPersist) {
		t.Errorf("DurationMinutes = %d persist=%v, want 3 true", tr.Session.DurationMinutes, tr.Has(IntentPersist))
	}
}

// TestContextFlagsAndNotes verifies the informational fields are recorded on drafts.
func TestContextFlagsAndNotes(t *testing.T) {
	s := draft(t, models.PhaseBuild)
	tr, err := SetContextFlags(s, models.ContextFlags{HighStress: true})
	if err != nil {
		t.Fatal(err)
	}
	if tr.Session.ContextFlags == nil || !tr.Session.ContextFlags.HighStress {
		t.Errorf("ContextFlags = %+v", tr.Session.ContextFlags)
	}
	tr, _ = SetNotes(tr.Session, "gym was packed")
	if tr.Session.Notes != "gym was packed" {
		t.Errorf("Notes = %q", tr.Session.Notes)
	}
}

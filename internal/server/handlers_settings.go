package server

import (
	"net/http"

	"github.com/claude/topset/internal/checkin"
	"github.com/claude/topset/internal/cycle"
	"github.com/claude/topset/internal/journal"
	"github.com/claude/topset/internal/models"
)

func (s *Server) writeCycle(w http.ResponseWriter, r *http.Request, st cycle.Status, err error) {
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleCycleState(w http.ResponseWriter, r *http.Request) {
	st, err := s.Cycle.State(r.Context(), UserID(r))
	s.writeCycle(w, r, st, err)
}

func (s *Server) handleCycleToggle(w http.ResponseWriter, r *http.Request) {
	st, err := s.Cycle.Toggle(r.Context(), UserID(r))
	s.writeCycle(w, r, st, err)
}

func (s *Server) handleCycleSetWeek(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Week int `json:"week"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	st, err := s.Cycle.SetWeek(r.Context(), UserID(r), body.Week)
	s.writeCycle(w, r, st, err)
}

func (s *Server) handleCycleNext(w http.ResponseWriter, r *http.Request) {
	st, err := s.Cycle.NextWeek(r.Context(), UserID(r))
	s.writeCycle(w, r, st, err)
}

func (s *Server) handleCyclePrev(w http.ResponseWriter, r *http.Request) {
	st, err := s.Cycle.PrevWeek(r.Context(), UserID(r))
	s.writeCycle(w, r, st, err)
}

func (s *Server) handleCycleReset(w http.ResponseWriter, r *http.Request) {
	st, err := s.Cycle.Reset(r.Context(), UserID(r))
	s.writeCycle(w, r, st, err)
}

func (s *Server) handleListCheckins(w http.ResponseWriter, r *http.Request) {
	list, err := s.Checkins.List(r.Context(), UserID(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if list == nil {
		list = []models.WeeklyCheckin{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleSubmitCheckin(w http.ResponseWriter, r *http.Request) {
	var a checkin.Answers
	if !decodeJSON(w, r, &a) {
		return
	}
	c, err := s.Checkins.Submit(r.Context(), UserID(r), a)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleNeedsDeload(w http.ResponseWriter, r *http.Request) {
	need, err := s.Checkins.NeedsDeload(r.Context(), UserID(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"needs_deload": need})
}

func (s *Server) handleIntegrityScan(w http.ResponseWriter, r *http.Request) {
	rep, err := s.Integrity.Scan(r.Context(), UserID(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleIntegrityRepair(w http.ResponseWriter, r *http.Request) {
	uid := UserID(r)
	// A live draft would write a removed record back on its next save.
	s.Sessions.Release(uid)
	removed, err := s.Integrity.Repair(r.Context(), uid)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.log.Info("integrity repair", "user_id", uid, "removed", len(removed))
	writeJSON(w, http.StatusOK, map[string]any{"removed": len(removed), "issues": removed})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	uid := UserID(r)
	s.Sessions.Release(uid)
	b, err := s.Journal.Export(r.Context(), uid)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var b journal.Backup
	if !decodeJSON(w, r, &b) {
		return
	}
	uid := UserID(r)
	s.Sessions.Release(uid)
	if err := s.Journal.Import(r.Context(), uid, b); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.log.Info("backup imported", "user_id", uid, "namespaces", len(b))
	w.WriteHeader(http.StatusNoContent)
}

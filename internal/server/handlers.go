package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/claude/topset/internal/autoreg"
	"github.com/claude/topset/internal/catalog"
	"github.com/claude/topset/internal/journal"
	"github.com/claude/topset/internal/models"
	"github.com/claude/topset/internal/progress"
	"github.com/claude/topset/internal/session"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps engine errors to HTTP statuses.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var missing *session.MissingPrimaryTopSetError
	switch {
	case errors.As(err, &missing):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":          err.Error(),
			"exercise_index": missing.ExerciseIndex,
			"exercise_id":    missing.ExerciseID,
		})
	case errors.Is(err, session.ErrValidation):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, session.ErrImmutableSession),
		errors.Is(err, session.ErrProtectedSet),
		errors.Is(err, session.ErrDisabledSet),
		errors.Is(err, session.ErrNoRemovableSet),
		errors.Is(err, journal.ErrUnexportable):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, session.ErrIndexOutOfRange):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, journal.ErrNotFound),
		errors.Is(err, session.ErrNoDraft),
		errors.Is(err, catalog.ErrUnknownDay),
		errors.Is(err, autoreg.ErrNoHistory):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		s.log.Error("request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

// pathIndex reads a non-negative integer URL parameter.
func pathIndex(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || n < 0 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s index", name))
		return 0, false
	}
	return n, true
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	weight, err := strconv.ParseFloat(r.URL.Query().Get("weight"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "weight parameter required")
		return
	}
	reps, err := strconv.Atoi(r.URL.Query().Get("reps"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "reps parameter required")
		return
	}
	resp := map[string]any{"weight": weight, "reps": reps, "available": false}
	if e1rm, ok := progress.EstimateOneRepMax(weight, reps); ok {
		resp["available"] = true
		resp["e1rm"] = e1rm
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleProgram(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Catalog.ProgramDays())
}

func (s *Server) handleProgramDay(w http.ResponseWriter, r *http.Request) {
	day, err := s.Catalog.Day(chi.URLParam(r, "dayID"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, day)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	var (
		sessions []models.WorkoutSession
		err      error
	)
	switch status := r.URL.Query().Get("status"); status {
	case "", "completed":
		sessions, err = s.Journal.Completed(r.Context(), UserID(r))
	case "draft":
		sessions, err = s.Journal.Drafts(r.Context(), UserID(r))
	case "all":
		sessions, err = s.Journal.Sessions(r.Context(), UserID(r))
	default:
		writeError(w, http.StatusBadRequest, "status must be completed, draft or all")
		return
	}
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && limit > 0 && limit < len(sessions) {
		sessions = sessions[len(sessions)-limit:]
	}
	if sessions == nil {
		sessions = []models.WorkoutSession{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleInstantiate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DayID string `json:"day_id"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.DayID == "" {
		writeError(w, http.StatusBadRequest, "day_id is required")
		return
	}
	sess, err := s.Sessions.Instantiate(r.Context(), UserID(r), body.DayID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Sessions.Current(r.Context(), UserID(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Sessions.Open(r.Context(), UserID(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleDiscard(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Discard(r.Context(), UserID(r), chi.URLParam(r, "id")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFinalize(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Sessions.Finalize(r.Context(), UserID(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) writeTransition(w http.ResponseWriter, r *http.Request, t session.Transition, err error) {
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleContextFlags(w http.ResponseWriter, r *http.Request) {
	var flags models.ContextFlags
	if !decodeJSON(w, r, &flags) {
		return
	}
	t, err := s.Sessions.SetContextFlags(r.Context(), UserID(r), chi.URLParam(r, "id"), flags)
	s.writeTransition(w, r, t, err)
}

func (s *Server) handleNotes(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Notes string `json:"notes"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	t, err := s.Sessions.SetNotes(r.Context(), UserID(r), chi.URLParam(r, "id"), body.Notes)
	s.writeTransition(w, r, t, err)
}

type setTypeBody struct {
	Type models.SetType `json:"type"`
}

func (s *Server) handleAddSet(w http.ResponseWriter, r *http.Request) {
	ex, ok := pathIndex(w, r, "ex")
	if !ok {
		return
	}
	var body setTypeBody
	if !decodeJSON(w, r, &body) {
		return
	}
	t, err := s.Sessions.AddSet(r.Context(), UserID(r), chi.URLParam(r, "id"), ex, body.Type)
	s.writeTransition(w, r, t, err)
}

func (s *Server) handleRemoveSet(w http.ResponseWriter, r *http.Request) {
	ex, ok := pathIndex(w, r, "ex")
	if !ok {
		return
	}
	typ := models.SetType(r.URL.Query().Get("type"))
	t, err := s.Sessions.RemoveSet(r.Context(), UserID(r), chi.URLParam(r, "id"), ex, typ)
	s.writeTransition(w, r, t, err)
}

func (s *Server) handleUpdateSet(w http.ResponseWriter, r *http.Request) {
	ex, ok := pathIndex(w, r, "ex")
	if !ok {
		return
	}
	set, ok := pathIndex(w, r, "set")
	if !ok {
		return
	}
	var patch session.SetPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	t, err := s.Sessions.UpdateSet(r.Context(), UserID(r), chi.URLParam(r, "id"), ex, set, patch)
	s.writeTransition(w, r, t, err)
}

func (s *Server) handleReduction(w http.ResponseWriter, r *http.Request) {
	ex, ok := pathIndex(w, r, "ex")
	if !ok {
		return
	}
	var body struct {
		Level models.ReductionLevel `json:"level"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	t, err := s.Sessions.ApplyReduction(r.Context(), UserID(r), chi.URLParam(r, "id"), ex, body.Level)
	s.writeTransition(w, r, t, err)
}

func (s *Server) handleAlphaIngest(w http.ResponseWriter, r *http.Request) {
	result, err := s.Alpha.Ingest(r.Context(), r.Body, UserID(r))
	if err != nil {
		s.log.Error("alpha ingest error", "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/claude/topset/internal/autoreg"
)

func (s *Server) handleTracked(w http.ResponseWriter, r *http.Request) {
	tracked, err := s.Analyzer.Tracked(r.Context(), UserID(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if tracked == nil {
		tracked = []autoreg.TrackedExercise{}
	}
	writeJSON(w, http.StatusOK, tracked)
}

func (s *Server) handleExerciseHistory(w http.ResponseWriter, r *http.Request) {
	h, err := s.Analyzer.History(r.Context(), UserID(r), chi.URLParam(r, "exerciseID"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if h == nil {
		h = []autoreg.Entry{}
	}
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) handleLastTwo(w http.ResponseWriter, r *http.Request) {
	h, err := s.Analyzer.LastTwo(r.Context(), UserID(r), chi.URLParam(r, "exerciseID"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if h == nil {
		h = []autoreg.Entry{}
	}
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) handleRegression(w http.ResponseWriter, r *http.Request) {
	sug, err := s.Analyzer.CheckRegression(r.Context(), UserID(r), chi.URLParam(r, "exerciseID"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sug)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	p, err := s.Analyzer.Progress(r.Context(), UserID(r), chi.URLParam(r, "exerciseID"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

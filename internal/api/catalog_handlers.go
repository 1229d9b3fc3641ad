package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/symposium-registry/internal/models"
)

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	category := models.EventCategory(r.URL.Query().Get("category"))
	if category != "" && !category.Valid() {
		respondError(w, http.StatusBadRequest, "validation_error", "category must be technical or non-technical")
		return
	}

	events := s.deps.Catalog.Events(category)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
		"total":  len(events),
	})
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	ev := s.deps.Catalog.Event(chi.URLParam(r, "id"))
	if ev == nil {
		respondError(w, http.StatusNotFound, "not_found", "event not found")
		return
	}
	respondJSON(w, http.StatusOK, ev)
}

func (s *Server) handleListCoordinators(w http.ResponseWriter, r *http.Request) {
	coords := s.deps.Catalog.Coordinators()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"coordinators": coords,
		"total":        len(coords),
	})
}

func (s *Server) handleListDepartments(w http.ResponseWriter, r *http.Request) {
	depts := s.deps.Catalog.Departments()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"departments": depts,
		"total":       len(depts),
	})
}

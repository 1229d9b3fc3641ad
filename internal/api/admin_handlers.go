package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/symposium-registry/internal/admin"
	"github.com/terra-clan/symposium-registry/internal/models"
	"github.com/terra-clan/symposium-registry/internal/workflow"
)

type loginRequest struct {
	Password string `json:"password"`
}

type flagRequest struct {
	Value *bool `json:"value"`
}

type settingRequest struct {
	Value json.RawMessage `json:"value"`
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.deps.Admin.Authenticate(req.Password); err != nil {
		respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"authenticated": true})
}

func (s *Server) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	d, err := s.deps.Admin.Dashboard(r.Context())
	if err != nil {
		respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, d)
}

func (s *Server) handleAdminList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var filter admin.Filter
	if v := q.Get("variant"); v != "" && v != "all" {
		variant, err := models.ParseVariant(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "unknown_variant", err.Error())
			return
		}
		filter.Variant = variant
	}

	tab, err := models.ParseTab(q.Get("tab"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	filter.Tab = tab
	filter.Query = q.Get("q")

	rows, err := s.deps.Admin.List(r.Context(), filter)
	if err != nil {
		respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"registrations": rows,
		"total":         len(rows),
		"tab":           tab,
	})
}

// handleManualCreate accepts a JSON entry, or a multipart form with the entry
// JSON in the "entry" field and an optional proof file.
func (s *Server) handleManualCreate(w http.ResponseWriter, r *http.Request) {
	v := VariantFromContext(r.Context())

	var (
		entry  models.ManualEntry
		upload *workflow.Upload
	)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		u, cleanup, ok := s.readUpload(w, r, false)
		if !ok {
			return
		}
		defer cleanup()

		if err := json.Unmarshal([]byte(r.FormValue("entry")), &entry); err != nil {
			respondError(w, http.StatusBadRequest, "invalid_request", "entry must be a JSON object")
			return
		}
		upload = u
	} else if !decodeJSON(w, r, &entry) {
		return
	}

	rec, err := s.deps.Manual.Create(r.Context(), v, entry, upload)
	if err != nil {
		respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleManualUpdate(w http.ResponseWriter, r *http.Request) {
	var patch models.RegistrationPatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	rec, err := s.deps.Manual.Update(r.Context(), VariantFromContext(r.Context()), chi.URLParam(r, "id"), patch)
	if err != nil {
		respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

func decodeFlag(w http.ResponseWriter, r *http.Request) (bool, bool) {
	var req flagRequest
	if !decodeJSON(w, r, &req) {
		return false, false
	}
	if req.Value == nil {
		respondError(w, http.StatusBadRequest, "validation_error", "value is required")
		return false, false
	}
	return *req.Value, true
}

func (s *Server) handleSetVerification(w http.ResponseWriter, r *http.Request) {
	value, ok := decodeFlag(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if err := s.deps.Admin.SetPaymentVerified(r.Context(), VariantFromContext(r.Context()), id, value); err != nil {
		respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"id": id, "payment_verified": value})
}

func (s *Server) handleSetEntry(w http.ResponseWriter, r *http.Request) {
	value, ok := decodeFlag(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if err := s.deps.Admin.SetEntryConfirmed(r.Context(), VariantFromContext(r.Context()), id, value); err != nil {
		respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"id": id, "entry_confirmed": value})
}

func (s *Server) handleDeleteRegistration(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := s.deps.Admin.Delete(r.Context(), VariantFromContext(r.Context()), id, r.Header.Get(deletePasswordHeader))
	if err != nil {
		respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "registration deleted",
	})
}

func (s *Server) handleAdminSettings(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.deps.Admin.Settings(r.Context()))
}

func (s *Server) handleUpdateSetting(w http.ResponseWriter, r *http.Request) {
	var req settingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Value) == 0 {
		respondError(w, http.StatusBadRequest, "validation_error", "value is required")
		return
	}

	key := chi.URLParam(r, "key")
	snap, err := s.deps.Admin.UpdateSetting(r.Context(), key, req.Value)
	if err != nil {
		respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	counts, err := s.deps.Admin.Export(r.Context())
	if err != nil {
		respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"exported": counts})
}

package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/terra-clan/symposium-registry/internal/admin"
	"github.com/terra-clan/symposium-registry/internal/health"
	"github.com/terra-clan/symposium-registry/internal/models"
	"github.com/terra-clan/symposium-registry/internal/settings"
	"github.com/terra-clan/symposium-registry/internal/storage"
	"github.com/terra-clan/symposium-registry/internal/workflow"
)

// Response helpers

type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Code     string                      `json:"code"`
	Message  string                      `json:"message"`
	Fields   map[string]string           `json:"fields,omitempty"`
	Reason   string                      `json:"reason,omitempty"`
	Existing *models.RegistrationSummary `json:"existing,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondAPIError(w, status, &apiError{Code: code, Message: message})
}

func respondAPIError(w http.ResponseWriter, status int, e *apiError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(apiResponse{Success: false, Error: e}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// respondFailure maps a workflow, admin or storage error onto the envelope
func respondFailure(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr *workflow.ValidationError
		uploadErr     *workflow.UploadValidationError
		closedErr     *workflow.ClosedError
		duplicateErr  *workflow.DuplicateError
		confirmErr    *workflow.ConfirmationError
		remoteErr     *storage.RemoteError
	)

	switch {
	case errors.As(err, &validationErr):
		respondAPIError(w, http.StatusBadRequest, &apiError{
			Code:    "validation_error",
			Message: "some fields are invalid",
			Fields:  validationErr.Fields,
		})
	case errors.As(err, &uploadErr):
		respondError(w, http.StatusBadRequest, "invalid_upload", uploadErr.Reason)
	case errors.Is(err, workflow.ErrMaintenance):
		respondError(w, http.StatusServiceUnavailable, "maintenance", "the site is under maintenance, please check back soon")
	case errors.As(err, &closedErr):
		respondAPIError(w, http.StatusForbidden, &apiError{
			Code:    "registration_closed",
			Message: closedErr.Error(),
			Reason:  string(closedErr.Reason),
		})
	case errors.As(err, &duplicateErr):
		respondAPIError(w, http.StatusConflict, &apiError{
			Code:     "duplicate",
			Message:  "a registration with these details already exists; resubmit with replace to overwrite it",
			Existing: &duplicateErr.Existing,
		})
	case errors.As(err, &confirmErr):
		respondAPIError(w, http.StatusConflict, &apiError{
			Code:     "confirmation_required",
			Message:  "confirm the update of this registration",
			Existing: &confirmErr.Record,
		})
	case errors.Is(err, workflow.ErrDraftNotFound):
		respondError(w, http.StatusNotFound, "draft_not_found", err.Error())
	case errors.Is(err, workflow.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		respondError(w, http.StatusNotFound, "not_found", "registration not found")
	case errors.Is(err, workflow.ErrNoEventSelection):
		respondError(w, http.StatusConflict, "no_event_selection", err.Error())
	case errors.Is(err, admin.ErrAuthFailure):
		respondError(w, http.StatusUnauthorized, "unauthorized", err.Error())
	case errors.Is(err, admin.ErrIrreversible), errors.Is(err, storage.ErrUnsupportedField):
		respondError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, admin.ErrUnknownVariant):
		respondError(w, http.StatusBadRequest, "unknown_variant", err.Error())
	case errors.Is(err, settings.ErrUnknownSetting), errors.Is(err, settings.ErrInvalidValue):
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, admin.ErrExportDisabled):
		respondError(w, http.StatusNotImplemented, "export_disabled", err.Error())
	case errors.As(err, &remoteErr):
		slog.Error("remote store failure", "op", remoteErr.Op, "error", remoteErr.Err, "path", r.URL.Path)
		respondError(w, http.StatusBadGateway, "remote_error", "a storage service is unavailable, please try again")
	default:
		slog.Error("unhandled error", "error", err, "path", r.URL.Path)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	results := s.deps.Health.HealthCheckAll(r.Context())

	checks := make(map[string]string, len(results))
	for name, err := range results {
		if err != nil {
			slog.Warn("readiness check failed", "dependency", name, "error", err)
			checks[name] = err.Error()
			continue
		}
		checks[name] = "ok"
	}

	if !health.Healthy(results) {
		respondAPIError(w, http.StatusServiceUnavailable, &apiError{
			Code:    "not_ready",
			Message: "service not ready",
			Fields:  checks,
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ready",
		"checks": checks,
	})
}

func (s *Server) handlePublicSettings(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.deps.Settings.Fetch(r.Context()))
}

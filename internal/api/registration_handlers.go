package api

import (
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/symposium-registry/internal/models"
	"github.com/terra-clan/symposium-registry/internal/workflow"
)

const proofField = "screenshot"

// multipart overhead allowed on top of the file size cap
const formOverhead = 1 << 20

func (s *Server) handleRegistrationStatus(w http.ResponseWriter, r *http.Request) {
	v := VariantFromContext(r.Context())

	var err error
	switch v {
	case models.VariantOuter:
		err = s.deps.Outer.Begin(r.Context())
	case models.VariantInter:
		err = s.deps.Inter.Begin(r.Context())
	case models.VariantDepartment:
		err = s.deps.Department.Begin(r.Context())
	}
	if err != nil {
		respondFailure(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"variant": string(v),
		"state":   "form",
	})
}

func (s *Server) handleSubmitOuter(w http.ResponseWriter, r *http.Request) {
	var form models.OuterForm
	if !decodeJSON(w, r, &form) {
		return
	}

	step, err := s.deps.Outer.Submit(r.Context(), form)
	if err != nil {
		respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusAccepted, step)
}

func (s *Server) handleUploadProof(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	upload, cleanup, ok := s.readUpload(w, r, true)
	if !ok {
		return
	}
	defer cleanup()

	conf, err := s.deps.Outer.UploadProof(r.Context(), token, *upload)
	if err != nil {
		respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, conf)
}

func (s *Server) handleSubmitInter(w http.ResponseWriter, r *http.Request) {
	var form models.InterForm
	if !decodeJSON(w, r, &form) {
		return
	}
	conf, err := s.deps.Inter.Submit(r.Context(), form, replaceRequested(r))
	respondConfirmation(w, r, conf, err)
}

func (s *Server) handleSubmitDepartment(w http.ResponseWriter, r *http.Request) {
	var form models.DepartmentForm
	if !decodeJSON(w, r, &form) {
		return
	}
	conf, err := s.deps.Department.Submit(r.Context(), form, replaceRequested(r))
	respondConfirmation(w, r, conf, err)
}

// replaceRequested reads the explicit overwrite confirmation after a duplicate
func replaceRequested(r *http.Request) bool {
	switch strings.ToLower(r.URL.Query().Get("replace")) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func respondConfirmation(w http.ResponseWriter, r *http.Request, conf *workflow.Confirmation, err error) {
	if err != nil {
		respondFailure(w, r, err)
		return
	}
	status := http.StatusCreated
	if conf.Replaced {
		status = http.StatusOK
	}
	respondJSON(w, status, conf)
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "email is required")
		return
	}

	rec, err := s.deps.UpdateEvents.Lookup(r.Context(), email)
	if err != nil {
		respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleUpdateEvents(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateEventsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rec, err := s.deps.UpdateEvents.Apply(r.Context(), req)
	if err != nil {
		respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

// readUpload parses a multipart body and returns its proof file. When the file is
// optional and absent, the returned upload is nil.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request, required bool) (*workflow.Upload, func(), bool) {
	noop := func() {}
	limit := s.opts.MaxUploadBytes + formOverhead
	tooLargeMsg := fmt.Sprintf("file must be at most %d MB", s.opts.MaxUploadBytes>>20)

	if r.ContentLength > limit {
		respondError(w, http.StatusBadRequest, "invalid_upload", tooLargeMsg)
		return nil, noop, false
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(formOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusBadRequest, "invalid_upload", tooLargeMsg)
			return nil, noop, false
		}
		respondError(w, http.StatusBadRequest, "invalid_request", "expected a multipart form")
		return nil, noop, false
	}
	cleanup := func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			slog.Warn("failed to remove multipart temp files", "error", err)
		}
	}

	file, hdr, err := r.FormFile(proofField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) && !required {
			return nil, cleanup, true
		}
		cleanup()
		respondError(w, http.StatusBadRequest, "invalid_upload", "a payment screenshot is required")
		return nil, noop, false
	}

	return uploadFrom(file, hdr), func() {
		file.Close()
		cleanup()
	}, true
}

func uploadFrom(file multipart.File, hdr *multipart.FileHeader) *workflow.Upload {
	return &workflow.Upload{
		Filename:    hdr.Filename,
		ContentType: hdr.Header.Get("Content-Type"),
		Size:        hdr.Size,
		Body:        file,
	}
}

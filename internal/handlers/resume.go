package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/resumatch/apiserver/internal/extract"
	"github.com/resumatch/apiserver/internal/services"
	"github.com/resumatch/apiserver/internal/store"
)

const (
	maxResumeMultipartMemory = 16 << 20
	maxResumeBytes           = 10 << 20
	formFieldFile            = "file"
)

// ResumeHandler provides HTTP handlers for resume uploads and history.
type ResumeHandler struct {
	resumeService *services.ResumeService
}

// NewResumeHandler constructs a handler with the provided service.
func NewResumeHandler(resumeService *services.ResumeService) *ResumeHandler {
	return &ResumeHandler{resumeService: resumeService}
}

// ResumeRouter registers resume routes on the given router.
func ResumeRouter(r chi.Router, resumeService *services.ResumeService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewResumeHandler(resumeService)

	r.Use(authMiddleware)
	r.Post("/", handler.Upload)
	r.Get("/", handler.History)
	r.Get("/active", handler.Active)
	r.Route("/{resumeID}", func(r chi.Router) {
		r.Get("/", handler.Get)
		r.Get("/file", handler.File)
		r.Post("/reanalyze", handler.Reanalyze)
		r.Delete("/", handler.Delete)
	})
}

// Upload accepts a resume file, extracts and structures its text and
// activates the new version.
func (h *ResumeHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := r.ParseMultipartForm(maxResumeMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile(formFieldFile)
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer func() { _ = file.Close() }()

	contentType := header.Header.Get("Content-Type")
	if !extract.Supported(contentType) {
		writeError(w, http.StatusBadRequest, "unsupported file type")
		return
	}

	data, err := extract.ReadAll(file, maxResumeBytes)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resume, err := h.resumeService.Upload(r.Context(), userID, header.Filename, contentType, data)
	if err != nil {
		if errors.Is(err, services.ErrUnsupportedFile) {
			writeError(w, http.StatusBadRequest, "unsupported file type")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to process resume")
		return
	}

	writeJSON(w, http.StatusCreated, resume)
}

func (h *ResumeHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	resumes, err := h.resumeService.History(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list resumes")
		return
	}

	writeJSON(w, http.StatusOK, resumes)
}

func (h *ResumeHandler) Active(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	resume, err := h.resumeService.GetActive(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no active resume")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch resume")
		return
	}

	writeJSON(w, http.StatusOK, resume)
}

func (h *ResumeHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseIDParam(chi.URLParam(r, "resumeID"), "resume id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resume, err := h.resumeService.Get(r.Context(), id, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "resume not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch resume")
		return
	}

	writeJSON(w, http.StatusOK, resume)
}

// File streams the originally uploaded resume document.
func (h *ResumeHandler) File(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseIDParam(chi.URLParam(r, "resumeID"), "resume id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reader, resume, err := h.resumeService.File(r.Context(), id, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "resume not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch file")
		return
	}
	defer func() { _ = reader.Close() }()

	w.Header().Set("Content-Type", resume.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", strconv.Quote(resume.FileName)))
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, reader)
}

// Reanalyze re-runs structuring over the stored raw text.
func (h *ResumeHandler) Reanalyze(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseIDParam(chi.URLParam(r, "resumeID"), "resume id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resume, err := h.resumeService.Reanalyze(r.Context(), id, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "resume not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to reanalyze resume")
		return
	}

	writeJSON(w, http.StatusOK, resume)
}

func (h *ResumeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseIDParam(chi.URLParam(r, "resumeID"), "resume id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.resumeService.Delete(r.Context(), id, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "resume not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete resume")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

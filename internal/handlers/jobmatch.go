package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/resumatch/apiserver/internal/services"
	"github.com/resumatch/apiserver/internal/store"
	"github.com/resumatch/apiserver/types"
)

// JobMatchHandler provides HTTP handlers for job discovery and tracking.
type JobMatchHandler struct {
	jobService *services.JobMatchService
}

// NewJobMatchHandler constructs a handler with the provided service.
func NewJobMatchHandler(jobService *services.JobMatchService) *JobMatchHandler {
	return &JobMatchHandler{jobService: jobService}
}

// JobMatchRouter registers job-match routes on the given router.
func JobMatchRouter(r chi.Router, jobService *services.JobMatchService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewJobMatchHandler(jobService)

	r.Use(authMiddleware)
	r.Post("/discover", handler.Discover)
	r.Get("/", handler.List)
	r.Route("/{jobID}", func(r chi.Router) {
		r.Get("/", handler.Get)
		r.Post("/apply", handler.Apply)
		r.Put("/status", handler.SetStatus)
		r.Post("/save", handler.ToggleSaved)
		r.Post("/hide", handler.Hide)
	})
}

type DiscoverRequest struct {
	Location string `json:"location,omitempty"`
	Limit    int    `json:"limit,omitempty" validate:"omitempty,min=1,max=50"`
}

type ApplyRequest struct {
	Notes string `json:"notes,omitempty"`
}

type SetStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// JobMatchListResponse is the paginated list response payload.
type JobMatchListResponse struct {
	Items []types.JobMatch `json:"items"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
	Total int              `json:"total"`
}

type ToggleSavedResponse struct {
	Saved bool `json:"saved"`
}

// Discover runs job search and scoring against the active resume.
func (h *JobMatchHandler) Discover(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req DiscoverRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request")
			return
		}
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid discover fields")
		return
	}

	matches, err := h.jobService.Discover(r.Context(), userID, strings.TrimSpace(req.Location), req.Limit)
	if err != nil {
		if errors.Is(err, services.ErrNoActiveResume) {
			writeError(w, http.StatusBadRequest, "no active resume")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to discover jobs")
		return
	}

	writeJSON(w, http.StatusCreated, matches)
}

func (h *JobMatchHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	filter := store.JobMatchFilter{
		SavedOnly:     r.URL.Query().Get("saved") == "true",
		IncludeHidden: r.URL.Query().Get("include_hidden") == "true",
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status := types.ApplicationStatus(raw)
		if !status.Valid() {
			writeError(w, http.StatusBadRequest, "invalid status filter")
			return
		}
		filter.Status = status
	}

	items, total, err := h.jobService.List(r.Context(), userID, filter, offset, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list job matches")
		return
	}

	resp := JobMatchListResponse{
		Items: items,
		Page:  page,
		Limit: limit,
		Total: total,
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *JobMatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseIDParam(chi.URLParam(r, "jobID"), "job id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	match, err := h.jobService.Get(r.Context(), id, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "job match not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch job match")
		return
	}

	writeJSON(w, http.StatusOK, match)
}

// Apply marks a match as applied. Repeated calls return the match
// unchanged.
func (h *JobMatchHandler) Apply(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseIDParam(chi.URLParam(r, "jobID"), "job id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req ApplyRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request")
			return
		}
	}

	match, err := h.jobService.MarkApplied(r.Context(), id, userID, strings.TrimSpace(req.Notes))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "job match not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to mark applied")
		return
	}

	writeJSON(w, http.StatusOK, match)
}

func (h *JobMatchHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseIDParam(chi.URLParam(r, "jobID"), "job id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req SetStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	match, err := h.jobService.SetStatus(r.Context(), id, userID, types.ApplicationStatus(strings.TrimSpace(req.Status)))
	if err != nil {
		if errors.Is(err, services.ErrInvalidStatus) {
			writeError(w, http.StatusBadRequest, "invalid application status")
			return
		}
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "job match not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update status")
		return
	}

	writeJSON(w, http.StatusOK, match)
}

func (h *JobMatchHandler) ToggleSaved(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseIDParam(chi.URLParam(r, "jobID"), "job id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	saved, err := h.jobService.ToggleSaved(r.Context(), id, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "job match not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to toggle saved")
		return
	}

	writeJSON(w, http.StatusOK, ToggleSavedResponse{Saved: saved})
}

func (h *JobMatchHandler) Hide(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseIDParam(chi.URLParam(r, "jobID"), "job id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.jobService.Hide(r.Context(), id, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "job match not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to hide job match")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

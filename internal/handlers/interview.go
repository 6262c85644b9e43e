package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/resumatch/apiserver/internal/services"
	"github.com/resumatch/apiserver/internal/store"
)

// InterviewHandler provides HTTP handlers for interview preps.
type InterviewHandler struct {
	interviewService *services.InterviewService
}

// NewInterviewHandler constructs a handler with the provided service.
func NewInterviewHandler(interviewService *services.InterviewService) *InterviewHandler {
	return &InterviewHandler{interviewService: interviewService}
}

// InterviewRouter registers interview prep routes on the given router.
func InterviewRouter(r chi.Router, interviewService *services.InterviewService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewInterviewHandler(interviewService)

	r.Use(authMiddleware)
	r.Post("/", handler.Generate)
	r.Get("/", handler.List)
	r.Route("/{prepID}", func(r chi.Router) {
		r.Get("/", handler.Get)
		r.Delete("/", handler.Delete)
		r.Put("/questions/{questionID}", handler.UpdateQuestionProgress)
		r.Post("/sessions", handler.RecordPracticeSession)
	})
}

type GenerateInterviewRequest struct {
	JobMatchID      *int     `json:"job_match_id,omitempty"`
	Company         string   `json:"company" validate:"required,min=1"`
	Role            string   `json:"role" validate:"required,min=1"`
	Technologies    []string `json:"technologies,omitempty"`
	ExperienceLevel string   `json:"experience_level,omitempty"`
	QuestionCount   int      `json:"question_count,omitempty" validate:"omitempty,min=1,max=30"`
}

type QuestionProgressRequest struct {
	ConfidenceLevel int    `json:"confidence_level,omitempty" validate:"omitempty,min=1,max=5"`
	Notes           string `json:"notes,omitempty"`
}

type PracticeSessionRequest struct {
	QuestionsAttempted int     `json:"questions_attempted" validate:"required,min=1"`
	DurationMinutes    int     `json:"duration_minutes" validate:"required,min=1"`
	AverageConfidence  float64 `json:"average_confidence,omitempty" validate:"omitempty,min=0,max=5"`
	Notes              string  `json:"notes,omitempty"`
}

// Generate creates a prep and fills it with generated questions.
func (h *InterviewHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req GenerateInterviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Company = strings.TrimSpace(req.Company)
	req.Role = strings.TrimSpace(req.Role)
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid interview fields")
		return
	}

	prep, err := h.interviewService.Generate(r.Context(), userID, services.GenerateRequest{
		JobMatchID:      req.JobMatchID,
		Company:         req.Company,
		Role:            req.Role,
		Technologies:    req.Technologies,
		ExperienceLevel: req.ExperienceLevel,
		QuestionCount:   req.QuestionCount,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate interview prep")
		return
	}

	writeJSON(w, http.StatusCreated, prep)
}

func (h *InterviewHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	preps, err := h.interviewService.List(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list interview preps")
		return
	}

	writeJSON(w, http.StatusOK, preps)
}

func (h *InterviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseIDParam(chi.URLParam(r, "prepID"), "prep id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	prep, err := h.interviewService.Get(r.Context(), id, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "interview prep not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch interview prep")
		return
	}

	writeJSON(w, http.StatusOK, prep)
}

// UpdateQuestionProgress marks practice on one question of the prep.
func (h *InterviewHandler) UpdateQuestionProgress(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseIDParam(chi.URLParam(r, "prepID"), "prep id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	questionID := strings.TrimSpace(chi.URLParam(r, "questionID"))
	if questionID == "" {
		writeError(w, http.StatusBadRequest, "invalid question id")
		return
	}

	var req QuestionProgressRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request")
			return
		}
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid progress fields")
		return
	}

	prep, err := h.interviewService.MarkQuestionPracticed(r.Context(), id, userID, questionID, req.ConfidenceLevel, req.Notes)
	if err != nil {
		if errors.Is(err, services.ErrQuestionNotFound) {
			writeError(w, http.StatusNotFound, "question not found")
			return
		}
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "interview prep not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update question progress")
		return
	}

	writeJSON(w, http.StatusOK, prep)
}

// RecordPracticeSession appends a practice session to the prep.
func (h *InterviewHandler) RecordPracticeSession(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseIDParam(chi.URLParam(r, "prepID"), "prep id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req PracticeSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid session fields")
		return
	}

	prep, err := h.interviewService.RecordPracticeSession(r.Context(), id, userID, req.QuestionsAttempted, req.DurationMinutes, req.AverageConfidence, req.Notes)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "interview prep not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to record session")
		return
	}

	writeJSON(w, http.StatusOK, prep)
}

func (h *InterviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseIDParam(chi.URLParam(r, "prepID"), "prep id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.interviewService.Delete(r.Context(), id, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "interview prep not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete interview prep")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

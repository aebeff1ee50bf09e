package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"lessonforge/internal/api/v1/dto"
	"lessonforge/internal/model"
	"lessonforge/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type LessonHandler struct {
	lessonService service.LessonService
	doubtService  service.DoubtService
	validate      *validator.Validate
	logger        zerolog.Logger
}

func NewLessonHandler(lessonService service.LessonService, doubtService service.DoubtService, v *validator.Validate, logger zerolog.Logger) *LessonHandler {
	return &LessonHandler{
		lessonService: lessonService,
		doubtService:  doubtService,
		validate:      v,
		logger:        logger.With().Str("handler", "LessonHandler").Logger(),
	}
}

// RegisterRoutes mounts lesson routes
func (h *LessonHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("POST /generate_lesson", authMw(http.HandlerFunc(h.generateLesson)))
	mux.HandleFunc("POST /ask_doubt", h.askDoubt)
}

func (h *LessonHandler) generateLesson(w http.ResponseWriter, r *http.Request) {
	var req dto.LessonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	lesson, err := h.lessonService.GenerateLesson(r.Context(), model.LessonSpec{
		UserID:   req.UserID,
		Username: req.Username,
		Topic:    req.Topic,
		Grade:    req.Grade,
		Language: req.Language,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFreePlanLimitReached):
			http.Error(w, "Free plan limit reached", http.StatusForbidden)
		case errors.Is(err, service.ErrVideoCreationFailed):
			http.Error(w, "Video creation failed", http.StatusInternalServerError)
		case errors.Is(err, service.ErrVideoTimeout):
			http.Error(w, "Video processing timeout", http.StatusInternalServerError)
		default:
			h.logger.Error().Err(err).Str("user_id", req.UserID).Msg("Lesson generation failed")
			http.Error(w, "Failed to generate lesson", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.LessonResponseDTO{
		Username: req.Username,
		Topic:    lesson.Topic,
		Script:   lesson.Script,
		VideoURL: lesson.VideoURL,
		Images:   lesson.Images,
		Quiz:     lesson.Quiz,
	})
}

func (h *LessonHandler) askDoubt(w http.ResponseWriter, r *http.Request) {
	var req dto.QuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	answer, err := h.doubtService.AnswerQuestion(r.Context(), req.Question)
	if err != nil {
		http.Error(w, "Failed to answer question", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, dto.AnswerResponseDTO{Answer: answer})
}

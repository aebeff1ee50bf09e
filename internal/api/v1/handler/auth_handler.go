package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"lessonforge/internal/api/v1/dto"
	"lessonforge/internal/service"
	"lessonforge/internal/supabase"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type AuthHandler struct {
	authService service.AuthService
	validate    *validator.Validate
	logger      zerolog.Logger
}

func NewAuthHandler(authService service.AuthService, v *validator.Validate, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, validate: v, logger: logger.With().Str("handler", "AuthHandler").Logger()}
}

// RegisterRoutes mounts the public sign-up and login routes
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /signup", h.signup)
	mux.HandleFunc("POST /login", h.login)
}

func (h *AuthHandler) decode(w http.ResponseWriter, r *http.Request) (dto.AuthRequest, bool) {
	var req dto.AuthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return req, false
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return req, false
	}
	return req, true
}

func (h *AuthHandler) signup(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	user, err := h.authService.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SignupResponseDTO{User: user.ID, Email: user.Email})
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	session, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}
	resp := dto.LoginResponseDTO{AccessToken: session.AccessToken}
	if session.User != nil {
		resp.User = dto.LoginUserDTO{ID: session.User.ID, Email: session.User.Email}
	}
	writeJSON(w, http.StatusOK, resp)
}

// writeAuthError passes backend 4xx responses through and hides everything else.
func (h *AuthHandler) writeAuthError(w http.ResponseWriter, err error) {
	var authErr *supabase.AuthError
	if errors.As(err, &authErr) && authErr.StatusCode >= 400 && authErr.StatusCode < 500 {
		http.Error(w, authErr.Message, authErr.StatusCode)
		return
	}
	h.logger.Error().Err(err).Msg("Auth backend request failed")
	http.Error(w, "Authentication service error", http.StatusInternalServerError)
}

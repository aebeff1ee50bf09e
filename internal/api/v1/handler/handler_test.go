package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lessonforge/internal/api/v1/dto"
	"lessonforge/internal/model"
	"lessonforge/internal/service"
	"lessonforge/internal/supabase"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLessonService struct {
	err   error
	specs []model.LessonSpec
}

func (f *fakeLessonService) GenerateLesson(_ context.Context, spec model.LessonSpec) (*model.Lesson, error) {
	f.specs = append(f.specs, spec)
	if f.err != nil {
		return nil, f.err
	}
	return &model.Lesson{
		LessonID: "lesson-1",
		UserID:   spec.UserID,
		Topic:    spec.Topic,
		Script:   "script",
		VideoURL: "https://videos.example/v",
		Images:   []string{},
		Quiz:     "quiz",
	}, nil
}

type fakeDoubtService struct{ err error }

func (f fakeDoubtService) AnswerQuestion(_ context.Context, q string) (string, error) {
	return "answer to " + q, f.err
}

type fakeAuthService struct{ err error }

func (f fakeAuthService) SignUp(_ context.Context, email, _ string) (*model.AuthUser, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &model.AuthUser{ID: "user-1", Email: email}, nil
}

func (f fakeAuthService) Login(_ context.Context, email, _ string) (*model.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &model.Session{AccessToken: "tok", User: &model.AuthUser{ID: "user-1", Email: email}}, nil
}

func passThrough(next http.Handler) http.Handler { return next }

func serve(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rr
}

const validLesson = `{"userId":"user-1","username":"ada","topic":"Volcanoes","grade":"5","language":"English"}`

func lessonMux(svc service.LessonService, doubt service.DoubtService) *http.ServeMux {
	mux := http.NewServeMux()
	NewLessonHandler(svc, doubt, validator.New(), zerolog.Nop()).RegisterRoutes(mux, passThrough)
	return mux
}

func TestGenerateLessonResponse(t *testing.T) {
	svc := &fakeLessonService{}
	rr := serve(lessonMux(svc, fakeDoubtService{}), http.MethodPost, "/generate_lesson", validLesson)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"username":"ada","topic":"Volcanoes","script":"script","video_url":"https://videos.example/v","images":[],"quiz":"quiz"}`, rr.Body.String())
	require.Len(t, svc.specs, 1)
	assert.Equal(t, model.LessonSpec{UserID: "user-1", Username: "ada", Topic: "Volcanoes", Grade: "5", Language: "English"}, svc.specs[0])
}

func TestGenerateLessonRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: `{`},
		{name: "short topic", body: `{"userId":"u","username":"ada","topic":"V","grade":"5","language":"English"}`},
		{name: "short language", body: `{"userId":"u","username":"ada","topic":"Volcanoes","grade":"5","language":"E"}`},
		{name: "missing user", body: `{"username":"ada","topic":"Volcanoes","grade":"5","language":"English"}`},
		{name: "missing grade", body: `{"userId":"u","username":"ada","topic":"Volcanoes","language":"English"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeLessonService{}
			rr := serve(lessonMux(svc, fakeDoubtService{}), http.MethodPost, "/generate_lesson", tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Empty(t, svc.specs)
		})
	}
}

func TestGenerateLessonErrorMapping(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantBody   string
	}{
		{err: service.ErrFreePlanLimitReached, wantStatus: http.StatusForbidden, wantBody: "Free plan limit reached\n"},
		{err: fmt.Errorf("generating video: %w", service.ErrVideoCreationFailed), wantStatus: http.StatusInternalServerError, wantBody: "Video creation failed\n"},
		{err: fmt.Errorf("generating video: %w", service.ErrVideoTimeout), wantStatus: http.StatusInternalServerError, wantBody: "Video processing timeout\n"},
		{err: errors.New("openai down"), wantStatus: http.StatusInternalServerError, wantBody: "Failed to generate lesson\n"},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rr := serve(lessonMux(&fakeLessonService{err: tt.err}, fakeDoubtService{}), http.MethodPost, "/generate_lesson", validLesson)
			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantBody, rr.Body.String())
		})
	}
}

func TestAskDoubt(t *testing.T) {
	mux := lessonMux(&fakeLessonService{}, fakeDoubtService{})

	rr := serve(mux, http.MethodPost, "/ask_doubt", `{"question":"What is lava?"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"answer":"answer to What is lava?"}`, rr.Body.String())

	rr = serve(mux, http.MethodPost, "/ask_doubt", `{"question":"Why"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	failing := lessonMux(&fakeLessonService{}, fakeDoubtService{err: errors.New("boom")})
	rr = serve(failing, http.MethodPost, "/ask_doubt", `{"question":"What is lava?"}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func authMux(svc service.AuthService) *http.ServeMux {
	mux := http.NewServeMux()
	NewAuthHandler(svc, validator.New(), zerolog.Nop()).RegisterRoutes(mux)
	return mux
}

func TestSignupAndLogin(t *testing.T) {
	mux := authMux(fakeAuthService{})
	body := `{"email":"ada@school.io","password":"secret1"}`

	rr := serve(mux, http.MethodPost, "/signup", body)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"user":"user-1","email":"ada@school.io"}`, rr.Body.String())

	rr = serve(mux, http.MethodPost, "/login", body)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"user":{"id":"user-1","email":"ada@school.io"},"access_token":"tok"}`, rr.Body.String())

	rr = serve(mux, http.MethodPost, "/login", `{"email":"ada@school.io","password":"123"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAuthErrorMapping(t *testing.T) {
	body := `{"email":"ada@school.io","password":"secret1"}`

	rejected := authMux(fakeAuthService{err: &supabase.AuthError{StatusCode: 400, Message: "Invalid login credentials"}})
	rr := serve(rejected, http.MethodPost, "/login", body)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Invalid login credentials\n", rr.Body.String())

	down := authMux(fakeAuthService{err: &supabase.AuthError{StatusCode: 503, Message: "unavailable"}})
	rr = serve(down, http.MethodPost, "/signup", body)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func billingMux(secret string) *http.ServeMux {
	mux := http.NewServeMux()
	NewBillingHandler(service.NewBillingService("https://mock-checkout.com", secret, zerolog.Nop())).RegisterRoutes(mux)
	return mux
}

func TestPricingRoute(t *testing.T) {
	rr := serve(billingMux(""), http.MethodGet, "/pricing", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp dto.PricingResponseDTO
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Plans, 2)
	assert.Equal(t, "Starter", resp.Plans[0].Name)
	assert.Equal(t, 100, resp.Plans[1].Price)
}

func TestCreateCheckoutRoute(t *testing.T) {
	rr := serve(billingMux(""), http.MethodPost, "/create_checkout", `{"plan":"pro","userId":"user-1"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"checkout_url":"https://mock-checkout.com/pro_plan?user_id=user-1"}`, rr.Body.String())
}

func TestWebhookRoute(t *testing.T) {
	rr := serve(billingMux(""), http.MethodPost, "/stripe_webhook", `{"data":{"object":{"metadata":{"user_id":"u"}}}}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	rr = serve(billingMux(""), http.MethodPost, "/stripe_webhook", `not json`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = serve(billingMux("whsec_test"), http.MethodPost, "/stripe_webhook", `{}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"lessonforge/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type stubVerifier struct {
	gotToken string
}

func (s *stubVerifier) VerifyToken(_ context.Context, token string) (string, error) {
	s.gotToken = token
	if token == "good" {
		return "user-1", nil
	}
	return "", errors.New("invalid or expired token")
}

func protectedHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := UserIDFromContext(r.Context())
		assert.True(t, ok)
		_, _ = w.Write([]byte(id))
	})
}

func TestAuthMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
		wantToken  string
	}{
		{name: "missing header", wantStatus: http.StatusUnauthorized, wantBody: "Missing token\n"},
		{name: "bearer token", header: "Bearer good", wantStatus: http.StatusOK, wantBody: "user-1", wantToken: "good"},
		{name: "bare token", header: "good", wantStatus: http.StatusOK, wantBody: "user-1", wantToken: "good"},
		{name: "rejected token", header: "Bearer stale", wantStatus: http.StatusUnauthorized, wantBody: "Invalid or expired token\n", wantToken: "stale"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &stubVerifier{}
			h := AuthMiddleware(v, zerolog.Nop())(protectedHandler(t))

			req := httptest.NewRequest(http.MethodPost, "/generate_lesson", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantBody, rr.Body.String())
			assert.Equal(t, tt.wantToken, v.gotToken)
		})
	}
}

func TestUserIDFromContextEmpty(t *testing.T) {
	_, ok := UserIDFromContext(context.Background())
	assert.False(t, ok)
}

func TestLoggerMiddlewareRecordsRoute(t *testing.T) {
	m := metrics.New()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /pricing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := LoggerMiddleware(zerolog.Nop(), m)(mux)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/pricing", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "GET /pricing", "418")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404")))
}

package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"lessonforge/internal/model"

	"github.com/rs/zerolog"
)

const defaultTimeout = 15 * time.Second

// AuthError is returned when the auth backend answers with a non-2xx status.
type AuthError struct {
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth backend returned status %d: %s", e.StatusCode, e.Message)
}

// ErrInvalidToken is returned by GetUser when the backend rejects the token.
var ErrInvalidToken = errors.New("invalid or expired token")

// Client talks to the Supabase auth (GoTrue) REST API.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  zerolog.Logger
}

func NewClient(baseURL, apiKey string, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: defaultTimeout},
		logger:  logger.With().Str("service", "SupabaseClient").Logger(),
	}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GetUser resolves an access token to its user.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*model.AuthUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	var user model.AuthUser
	if err := c.do(req, &user); err != nil {
		var authErr *AuthError
		if errors.As(err, &authErr) && authErr.StatusCode < http.StatusInternalServerError {
			return nil, fmt.Errorf("%w: %s", ErrInvalidToken, authErr.Message)
		}
		return nil, err
	}
	if user.ID == "" {
		return nil, ErrInvalidToken
	}
	return &user, nil
}

// VerifyToken satisfies middleware.TokenVerifier by asking the backend.
func (c *Client) VerifyToken(ctx context.Context, token string) (string, error) {
	u, err := c.GetUser(ctx, token)
	if err != nil {
		return "", err
	}
	return u.ID, nil
}

// SignUp registers a user. Depending on the project's confirmation settings
// the backend answers either with the user itself or with a session that
// embeds it; both shapes are accepted.
func (c *Client) SignUp(ctx context.Context, email, password string) (*model.AuthUser, error) {
	req, err := c.newJSONRequest(ctx, c.baseURL+"/auth/v1/signup", credentials{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	var resp struct {
		model.AuthUser
		User *model.AuthUser `json:"user"`
	}
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	if resp.User != nil {
		return resp.User, nil
	}
	return &resp.AuthUser, nil
}

// SignInWithPassword exchanges credentials for a session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*model.Session, error) {
	req, err := c.newJSONRequest(ctx, c.baseURL+"/auth/v1/token?grant_type=password", credentials{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	var session model.Session
	if err := c.do(req, &session); err != nil {
		return nil, err
	}
	if session.User == nil {
		return nil, errors.New("auth backend returned a session without a user")
	}
	return &session, nil
}

func (c *Client) newJSONRequest(ctx context.Context, url string, body any) (*http.Request, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("apikey", c.apiKey)
	if req.Header.Get("Authorization") == "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling auth backend: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn().Err(closeErr).Msg("Failed to close response body")
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading auth backend response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := errorMessage(body)
		c.logger.Error().
			Int("status_code", resp.StatusCode).
			Str("path", req.URL.Path).
			Str("error_body", msg).
			Msg("Auth backend returned error")
		return &AuthError{StatusCode: resp.StatusCode, Message: msg}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding auth backend response: %w", err)
	}
	return nil
}

// errorMessage picks the human-readable field out of a GoTrue error body.
func errorMessage(body []byte) string {
	var e struct {
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		ErrorDescription string `json:"error_description"`
		Error            string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err == nil {
		for _, m := range []string{e.Msg, e.Message, e.ErrorDescription, e.Error} {
			if m != "" {
				return m
			}
		}
	}
	return strings.TrimSpace(string(body))
}

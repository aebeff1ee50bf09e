package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var (
	ErrVideoCreationFailed = errors.New("video creation failed")
	ErrVideoTimeout        = errors.New("video processing timeout")
)

const videoRequestTimeout = 30 * time.Second

// PollPolicy bounds the wait for a hosted video: MaxAttempts status checks,
// each preceded by a pause of Interval.
type PollPolicy struct {
	MaxAttempts int
	Interval    time.Duration
}

func DefaultPollPolicy() PollPolicy {
	return PollPolicy{MaxAttempts: 10, Interval: 3 * time.Second}
}

// SleepFunc pauses for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Video is a hosted talking-head video.
type Video struct {
	VideoID   string
	HostedURL string
	// Polls is the number of status checks it took to see the hosted URL.
	Polls int
}

// VideoGenerator turns a script into a hosted video.
type VideoGenerator interface {
	Generate(ctx context.Context, script string) (*Video, error)
}

type tavusVideoGenerator struct {
	baseURL   string
	apiKey    string
	replicaID string
	policy    PollPolicy
	sleep     SleepFunc
	client    *http.Client
	logger    zerolog.Logger
}

// VideoOption customizes a VideoGenerator.
type VideoOption func(*tavusVideoGenerator)

// WithSleep replaces the pause between polls; tests use it to run instantly.
func WithSleep(fn SleepFunc) VideoOption {
	return func(g *tavusVideoGenerator) { g.sleep = fn }
}

// NewTavusVideoGenerator creates a VideoGenerator for the Tavus v2 API.
func NewTavusVideoGenerator(baseURL, apiKey, replicaID string, policy PollPolicy, logger zerolog.Logger, opts ...VideoOption) VideoGenerator {
	g := &tavusVideoGenerator{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		replicaID: replicaID,
		policy:    policy,
		sleep:     sleepContext,
		client:    &http.Client{Timeout: videoRequestTimeout},
		logger:    logger.With().Str("service", "VideoGenerator").Logger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type createVideoRequest struct {
	ReplicaID string `json:"replica_id"`
	Script    string `json:"script"`
}

type videoResponse struct {
	VideoID   string `json:"video_id"`
	Status    string `json:"status"`
	HostedURL string `json:"hosted_url"`
}

// Generate submits the script and polls until the video is hosted. It gives
// up with ErrVideoTimeout after the policy's attempts are spent.
func (g *tavusVideoGenerator) Generate(ctx context.Context, script string) (*Video, error) {
	videoID, err := g.create(ctx, script)
	if err != nil {
		return nil, err
	}
	log := g.logger.With().Str("video_id", videoID).Logger()

	for attempt := 1; attempt <= g.policy.MaxAttempts; attempt++ {
		if err := g.sleep(ctx, g.policy.Interval); err != nil {
			return nil, fmt.Errorf("waiting for video %s: %w", videoID, err)
		}
		status, err := g.status(ctx, videoID)
		if err != nil {
			return nil, err
		}
		if status.HostedURL != "" {
			log.Info().Int("attempt", attempt).Msg("Video is hosted")
			return &Video{VideoID: videoID, HostedURL: status.HostedURL, Polls: attempt}, nil
		}
		log.Debug().Int("attempt", attempt).Str("status", status.Status).Msg("Video not ready yet")
	}

	log.Error().Int("attempts", g.policy.MaxAttempts).Msg("Video was not hosted in time")
	return nil, ErrVideoTimeout
}

func (g *tavusVideoGenerator) create(ctx context.Context, script string) (string, error) {
	payload, err := json.Marshal(createVideoRequest{ReplicaID: g.replicaID, Script: script})
	if err != nil {
		return "", fmt.Errorf("marshaling video request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v2/videos", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrVideoCreationFailed, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		g.logger.Error().
			Int("status_code", resp.StatusCode).
			Str("error_body", string(body)).
			Msg("Video service rejected the script")
		return "", fmt.Errorf("%w: status %d", ErrVideoCreationFailed, resp.StatusCode)
	}

	var created videoResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("%w: decoding response: %v", ErrVideoCreationFailed, err)
	}
	if created.VideoID == "" {
		return "", fmt.Errorf("%w: response has no video_id", ErrVideoCreationFailed)
	}
	return created.VideoID, nil
}

func (g *tavusVideoGenerator) status(ctx context.Context, videoID string) (*videoResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/v2/videos/"+url.PathEscape(videoID), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("x-api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching video %s status: %w", videoID, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var status videoResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("decoding video %s status (http %d): %w", videoID, resp.StatusCode, err)
	}
	return &status, nil
}

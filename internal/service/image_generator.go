package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultImageCount = 2
	pngDataURIPrefix  = "data:image/png;base64,"
	imageTimeout      = 60 * time.Second
)

// ImageGenerator renders illustrations for a prompt.
type ImageGenerator interface {
	// Generate makes count attempts and returns one data URI per successful
	// attempt. Failed attempts are skipped, so the result may be shorter than
	// count or empty; it is never nil.
	Generate(ctx context.Context, prompt string, count int) ([]string, error)
}

type huggingFaceImageGenerator struct {
	endpoint string
	apiKey   string
	client   *http.Client
	logger   zerolog.Logger
}

// NewHuggingFaceImageGenerator targets {baseURL}/models/{model} on the
// Hugging Face inference API.
func NewHuggingFaceImageGenerator(baseURL, model, apiKey string, logger zerolog.Logger) ImageGenerator {
	return &huggingFaceImageGenerator{
		endpoint: fmt.Sprintf("%s/models/%s", strings.TrimRight(baseURL, "/"), strings.Trim(model, "/")),
		apiKey:   apiKey,
		client:   &http.Client{Timeout: imageTimeout},
		logger:   logger.With().Str("service", "ImageGenerator").Logger(),
	}
}

func (g *huggingFaceImageGenerator) Generate(ctx context.Context, prompt string, count int) ([]string, error) {
	payload, err := json.Marshal(map[string]string{"inputs": prompt})
	if err != nil {
		return nil, fmt.Errorf("marshaling image request: %w", err)
	}

	images := make([]string, 0, count)
	for attempt := 1; attempt <= count; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := g.generateOne(ctx, payload)
		if err != nil {
			g.logger.Warn().Err(err).Int("attempt", attempt).Msg("Image attempt failed, skipping")
			continue
		}
		images = append(images, pngDataURIPrefix+base64.StdEncoding.EncodeToString(img))
	}
	return images, nil
}

func (g *huggingFaceImageGenerator) generateOne(ctx context.Context, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling image service: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image service returned status %d", resp.StatusCode)
	}
	// Anything but a bare PNG (JSON "model loading" bodies, JPEGs, ...) is a miss.
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		return nil, fmt.Errorf("image service returned content type %q", ct)
	}
	img, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	return img, nil
}

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port          string `envconfig:"PORT" default:"8080"`
	Environment   string `envconfig:"ENV" default:"development"`
	AllowedOrigin string `envconfig:"CORS_ALLOWED_ORIGIN" default:"https://your-frontend.com"`

	// Completion service
	OpenAIAPIKey  string `envconfig:"OPENAI_API"`
	OpenAIBaseURL string `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com/v1"`
	OpenAIModel   string `envconfig:"OPENAI_MODEL" default:"gpt-4"`

	// Image service
	HuggingFaceAPIKey     string `envconfig:"HUGGINGFACE_API"`
	HuggingFaceBaseURL    string `envconfig:"HUGGINGFACE_BASE_URL" default:"https://api-inference.huggingface.co"`
	HuggingFaceImageModel string `envconfig:"HUGGINGFACE_IMAGE_MODEL" default:"runwayml/stable-diffusion-v1-5"`

	// Video service
	TavusAPIKey          string `envconfig:"TAVUS_API"`
	TavusReplicaID       string `envconfig:"TAVUS_REPLICA_ID"`
	TavusBaseURL         string `envconfig:"TAVUS_BASE_URL" default:"https://api.tavusapi.com"`
	VideoPollMaxAttempts int    `envconfig:"VIDEO_POLL_MAX_ATTEMPTS" default:"10"`
	VideoPollIntervalSec int    `envconfig:"VIDEO_POLL_INTERVAL_SEC" default:"3"`

	// Entitlement service
	RevenueCatAPIKey  string `envconfig:"REVENUECAT_API"`
	RevenueCatBaseURL string `envconfig:"REVENUECAT_BASE_URL" default:"https://api.revenuecat.com"`

	// Auth and storage backend
	SupabaseURL        string `envconfig:"SUPABASE_URL"`
	SupabaseKey        string `envconfig:"SUPABASE_KEY"`
	SupabaseJWTSecret  string `envconfig:"SUPABASE_JWT_SECRET"`
	DBConnectionString string `envconfig:"DB_CONNECTION_STRING"`

	// Billing
	FreeLessonLimit     int    `envconfig:"FREE_LESSON_LIMIT" default:"3"`
	CheckoutBaseURL     string `envconfig:"CHECKOUT_BASE_URL" default:"https://mock-checkout.com"`
	StripeWebhookSecret string `envconfig:"STRIPE_WEBHOOK_SECRET"`

	// Google Cloud (optional)
	GCPProjectID       string `envconfig:"GCP_PROJECT_ID"`
	GCPCredentialsFile string `envconfig:"GCP_CREDENTIALS_FILE"`
	LessonEventsTopic  string `envconfig:"LESSON_EVENTS_TOPIC" default:"lesson-generated"`

	// Postgres queue for lesson events when Pub/Sub is not configured (optional)
	LessonEventsQueue string `envconfig:"LESSON_EVENTS_QUEUE"`

	ServerWriteTimeoutSec int `envconfig:"SERVER_WRITE_TIMEOUT_SEC" default:"120"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every missing upstream credential at once.
func (c *Config) Validate() error {
	var missing []string
	for _, f := range c.secretFields() {
		if strings.TrimSpace(*f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	if c.VideoPollMaxAttempts <= 0 {
		return errors.New("VIDEO_POLL_MAX_ATTEMPTS must be positive")
	}
	if c.VideoPollIntervalSec < 0 {
		return errors.New("VIDEO_POLL_INTERVAL_SEC must not be negative")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) VideoPollInterval() time.Duration {
	return time.Duration(c.VideoPollIntervalSec) * time.Second
}

func (c *Config) ServerWriteTimeout() time.Duration {
	return time.Duration(c.ServerWriteTimeoutSec) * time.Second
}

type secretField struct {
	name  string
	value *string
}

// secretFields lists the credentials that may be sourced from Secret Manager.
// The secret id matches the environment variable name.
func (c *Config) secretFields() []secretField {
	return []secretField{
		{"OPENAI_API", &c.OpenAIAPIKey},
		{"HUGGINGFACE_API", &c.HuggingFaceAPIKey},
		{"TAVUS_API", &c.TavusAPIKey},
		{"TAVUS_REPLICA_ID", &c.TavusReplicaID},
		{"REVENUECAT_API", &c.RevenueCatAPIKey},
		{"SUPABASE_URL", &c.SupabaseURL},
		{"SUPABASE_KEY", &c.SupabaseKey},
		{"DB_CONNECTION_STRING", &c.DBConnectionString},
	}
}

package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"lessonforge/internal/model"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v76/webhook"
)

const unknownWebhookUser = "unknown_user"

var (
	// ErrInvalidWebhookSignature is returned when a configured signing secret
	// does not match the Stripe-Signature header.
	ErrInvalidWebhookSignature = errors.New("invalid webhook signature")
	ErrInvalidWebhookPayload   = errors.New("invalid webhook payload")
)

// BillingService serves the static plan catalogue, checkout links and
// payment webhooks.
type BillingService interface {
	Pricing() []model.Plan
	CreateCheckout(plan, userID string) string
	// HandleWebhook returns the user the event belongs to.
	HandleWebhook(payload []byte, signature string) (string, error)
}

type billingService struct {
	checkoutBaseURL string
	webhookSecret   string
	logger          zerolog.Logger
}

// NewBillingService skips signature checks when webhookSecret is empty.
func NewBillingService(checkoutBaseURL, webhookSecret string, logger zerolog.Logger) BillingService {
	return &billingService{
		checkoutBaseURL: strings.TrimRight(checkoutBaseURL, "/"),
		webhookSecret:   webhookSecret,
		logger:          logger.With().Str("service", "BillingService").Logger(),
	}
}

func (s *billingService) Pricing() []model.Plan {
	return []model.Plan{
		{Name: "Starter", Price: 60, Features: []string{"3 free lessons", "Basic support"}},
		{Name: "Pro", Price: 100, Features: []string{"Unlimited lessons", "Priority support"}},
	}
}

// CreateCheckout builds the hosted checkout link. The plan is not checked
// against the catalogue.
func (s *billingService) CreateCheckout(plan, userID string) string {
	return fmt.Sprintf("%s/%s_plan?user_id=%s", s.checkoutBaseURL, url.PathEscape(plan), url.QueryEscape(userID))
}

func (s *billingService) HandleWebhook(payload []byte, signature string) (string, error) {
	if s.webhookSecret != "" {
		if err := webhook.ValidatePayload(payload, signature, s.webhookSecret); err != nil {
			s.logger.Warn().Err(err).Msg("Signature verification failed for webhook")
			return "", fmt.Errorf("%w: %v", ErrInvalidWebhookSignature, err)
		}
	}

	var event map[string]any
	if err := json.Unmarshal(payload, &event); err != nil {
		s.logger.Warn().Err(err).Msg("Invalid webhook payload")
		return "", fmt.Errorf("%w: %v", ErrInvalidWebhookPayload, err)
	}

	userID := webhookUserID(event)
	s.logger.Info().Str("user_id", userID).Interface("event_type", event["type"]).Msg("Payment webhook received")
	return userID, nil
}

// webhookUserID reads data.object.metadata.user_id.
func webhookUserID(event map[string]any) string {
	var cur any = event
	for _, key := range []string{"data", "object", "metadata", "user_id"} {
		m, ok := cur.(map[string]any)
		if !ok {
			return unknownWebhookUser
		}
		cur = m[key]
	}
	if id, ok := cur.(string); ok && id != "" {
		return id
	}
	return unknownWebhookUser
}

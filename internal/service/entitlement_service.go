package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// EntitlementStatus is the outcome of a subscription lookup.
type EntitlementStatus string

const (
	EntitlementActive   EntitlementStatus = "active"
	EntitlementInactive EntitlementStatus = "inactive"
	// EntitlementUnknown means the lookup itself failed.
	EntitlementUnknown EntitlementStatus = "unknown"
)

const entitlementTimeout = 10 * time.Second

// EntitlementService reports whether a user holds an active paid plan.
type EntitlementService interface {
	// Check never fails the caller: lookup failures come back as
	// EntitlementUnknown together with the cause for logging.
	Check(ctx context.Context, userID string) (EntitlementStatus, error)
}

type revenueCatService struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewRevenueCatService creates an EntitlementService backed by the RevenueCat
// subscribers API.
func NewRevenueCatService(baseURL, apiKey string) EntitlementService {
	return &revenueCatService{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: entitlementTimeout},
	}
}

type subscriberResponse struct {
	Subscriber struct {
		Entitlements map[string]any `json:"entitlements"`
	} `json:"subscriber"`
}

func (s *revenueCatService) Check(ctx context.Context, userID string) (EntitlementStatus, error) {
	endpoint := fmt.Sprintf("%s/v1/subscribers/%s", s.baseURL, url.PathEscape(userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return EntitlementUnknown, fmt.Errorf("creating subscriber request: %w", err)
	}
	req.Header.Set("Authorization", bearer(s.apiKey))
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return EntitlementUnknown, fmt.Errorf("fetching subscriber: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return EntitlementUnknown, fmt.Errorf("subscriber lookup returned status %d", resp.StatusCode)
	}

	var body subscriberResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return EntitlementUnknown, fmt.Errorf("decoding subscriber: %w", err)
	}
	for _, v := range body.Subscriber.Entitlements {
		if truthy(v) {
			return EntitlementActive, nil
		}
	}
	return EntitlementInactive, nil
}

func bearer(key string) string {
	if strings.HasPrefix(key, "Bearer ") {
		return key
	}
	return "Bearer " + key
}

// truthy mirrors JSON truthiness: null, false, 0, "" and empty containers are false.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	case map[string]any:
		return len(t) > 0
	case []any:
		return len(t) > 0
	default:
		return true
	}
}

// hasEntitlement logs lookup failures and collapses the status to a bool.
func hasEntitlement(ctx context.Context, svc EntitlementService, userID string, logger zerolog.Logger) (EntitlementStatus, bool) {
	status, err := svc.Check(ctx, userID)
	if err != nil {
		logger.Warn().Err(err).Str("user_id", userID).Msg("Entitlement check failed, treating user as unsubscribed")
	}
	return status, status == EntitlementActive
}

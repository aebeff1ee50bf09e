package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"lessonforge/internal/api/v1/dto"
	"lessonforge/internal/service"
)

const maxWebhookBytes = 64 << 10

type BillingHandler struct {
	billingService service.BillingService
}

func NewBillingHandler(billingService service.BillingService) *BillingHandler {
	return &BillingHandler{billingService: billingService}
}

// RegisterRoutes mounts pricing, checkout and webhook routes
func (h *BillingHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /pricing", h.pricing)
	mux.HandleFunc("POST /create_checkout", h.createCheckout)
	mux.HandleFunc("POST /stripe_webhook", h.webhook)
}

func (h *BillingHandler) pricing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.PricingResponseDTO{Plans: h.billingService.Pricing()})
}

func (h *BillingHandler) createCheckout(w http.ResponseWriter, r *http.Request) {
	var req dto.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, dto.CheckoutResponseDTO{
		CheckoutURL: h.billingService.CreateCheckout(req.Plan, req.UserID),
	})
}

func (h *BillingHandler) webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		http.Error(w, "failed to read payload", http.StatusBadRequest)
		return
	}
	if _, err := h.billingService.HandleWebhook(payload, r.Header.Get("Stripe-Signature")); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidWebhookSignature):
			http.Error(w, "signature verification failed", http.StatusBadRequest)
		default:
			http.Error(w, "invalid payload", http.StatusBadRequest)
		}
		return
	}
	writeJSON(w, http.StatusOK, dto.WebhookResponseDTO{Status: "ok"})
}

package dto

import "lessonforge/internal/model"

type PricingResponseDTO struct {
	Plans []model.Plan `json:"plans"`
}

// CheckoutRequest fields are not validated; an empty plan still yields a link
type CheckoutRequest struct {
	Plan   string `json:"plan"`
	UserID string `json:"userId"`
}

type CheckoutResponseDTO struct {
	CheckoutURL string `json:"checkout_url"`
}

type WebhookResponseDTO struct {
	Status string `json:"status"`
}

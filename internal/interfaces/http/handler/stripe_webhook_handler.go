package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/teebalk/marketplace/internal/application/webhook"
	"github.com/teebalk/marketplace/internal/domain/shared"
)

// WebhookProcessor verifies and applies Stripe events
type WebhookProcessor interface {
	ProcessWebhook(ctx context.Context, payload []byte, signature string) (*webhook.WebhookResult, error)
}

// StripeWebhookHandler handles Stripe webhook endpoints.
// These endpoints are called by Stripe and do not require authentication.
type StripeWebhookHandler struct {
	BaseHandler
	webhooks WebhookProcessor
}

// NewStripeWebhookHandler creates a new StripeWebhookHandler
func NewStripeWebhookHandler(webhooks WebhookProcessor) *StripeWebhookHandler {
	return &StripeWebhookHandler{webhooks: webhooks}
}

// StripeWebhookResponse is the acknowledgement sent back to Stripe
type StripeWebhookResponse struct {
	Received  bool   `json:"received"`
	EventID   string `json:"event_id,omitempty"`
	EventType string `json:"event_type,omitempty"`
	Message   string `json:"message,omitempty"`
}

// HandleStripeWebhook godoc
//
//	@Summary		Receive Stripe payment events
//	@Description	Bad signatures get 400. Processing failures get 500 so
//	@Description	Stripe redelivers the event.
//	@Tags			webhooks
//	@Param			Stripe-Signature	header	string	true	"Stripe webhook signature"
//	@Router			/webhooks/stripe [post]
func (h *StripeWebhookHandler) HandleStripeWebhook(c *gin.Context) {
	// Stripe signs the raw body, so it is read before any binding
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, webhook.MaxPayloadBytes+1))
	if err != nil {
		h.Error(c, shared.NewValidationError("Failed to read request body"))
		return
	}

	result, err := h.webhooks.ProcessWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		if result == nil {
			h.Error(c, err)
			return
		}
		h.Error(c, shared.WrapApiError(shared.CodeInternal, "Webhook processing failed", err))
		return
	}

	c.JSON(http.StatusOK, StripeWebhookResponse{
		Received:  true,
		EventID:   result.EventID,
		EventType: result.EventType,
		Message:   result.Message,
	})
}

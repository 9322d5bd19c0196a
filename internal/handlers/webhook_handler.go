package handlers

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/SAP-F-2025/student-portal-service/internal/auth"
	"github.com/SAP-F-2025/student-portal-service/internal/cache"
	"github.com/SAP-F-2025/student-portal-service/internal/services"
	"github.com/SAP-F-2025/student-portal-service/internal/utils"
	"github.com/gin-gonic/gin"
)

const (
	WebhookSecretHeader   = "X-Webhook-Secret"
	WebhookDeliveryHeader = "X-Webhook-Delivery-Id"
	svixIDHeader          = "Svix-Id"

	maxWebhookBody = 1 << 20
)

// WebhookHandler reconciles identity provider events into the user store.
type WebhookHandler struct {
	BaseHandler
	identityService services.IdentityService
	guard           cache.DeliveryGuard
	secret          string
}

func NewWebhookHandler(identityService services.IdentityService, guard cache.DeliveryGuard, secret string, logger utils.Logger) *WebhookHandler {
	return &WebhookHandler{
		BaseHandler:     NewBaseHandler(logger),
		identityService: identityService,
		guard:           guard,
		secret:          secret,
	}
}

// HandleIdentityEvent upserts the user named by a user.created or user.updated event
// @Summary Identity provider webhook
// @Tags webhooks
// @Accept json
// @Produce json
// @Success 200 {object} Response
// @Failure 401 {object} Response
// @Failure 500 {object} Response
// @Router /identity-webhook [post]
func (h *WebhookHandler) HandleIdentityEvent(c *gin.Context) {
	if !auth.SecretMatches(h.secret, c.GetHeader(WebhookSecretHeader)) {
		h.LogWarn(c, "Webhook secret mismatch")
		c.JSON(http.StatusUnauthorized, Response{Error: "Invalid webhook secret"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		h.LogError(c, err, "Failed to read webhook body")
		c.JSON(http.StatusInternalServerError, Response{Error: "Failed to read request body"})
		return
	}

	event, err := auth.ParseWebhook(body)
	if err != nil {
		h.LogError(c, err, "Failed to parse webhook event")
		c.JSON(http.StatusInternalServerError, Response{Error: "Malformed webhook event"})
		return
	}
	if !event.Supported() {
		h.LogRequest(c, "Ignoring webhook event", "event_type", event.Type)
		h.respondSuccess(c, http.StatusOK, "Event ignored", nil)
		return
	}

	ctx := c.Request.Context()
	deliveryID := h.deliveryID(c)
	if deliveryID != "" && h.guard != nil {
		claimed, err := h.guard.Claim(ctx, deliveryID)
		if err != nil {
			// A broken guard must not block syncing; reconcile is idempotent.
			h.LogWarn(c, "Delivery guard unavailable", "delivery_id", deliveryID, "error", err.Error())
		} else if !claimed {
			h.LogInfo(c, "Webhook delivery already processed", "delivery_id", deliveryID)
			h.respondSuccess(c, http.StatusOK, "Delivery already processed", nil)
			return
		}
	}

	user, created, err := h.identityService.Reconcile(ctx, event.Identity)
	if err != nil {
		h.release(c, deliveryID)
		h.LogError(c, err, "Failed to reconcile identity", "event_type", event.Type, "external_id", event.Identity.ExternalID)
		c.JSON(http.StatusInternalServerError, Response{Error: "Failed to sync user"})
		return
	}

	h.LogInfo(c, "Identity synced",
		"event_type", event.Type,
		"user_id", user.ID.Hex(),
		"created", created)
	h.respondSuccess(c, http.StatusOK, "User synced", gin.H{
		"id":      user.ID.Hex(),
		"created": created,
	})
}

func (h *WebhookHandler) deliveryID(c *gin.Context) string {
	if id := c.GetHeader(WebhookDeliveryHeader); id != "" {
		return id
	}
	return c.GetHeader(svixIDHeader)
}

func (h *WebhookHandler) release(c *gin.Context, deliveryID string) {
	if deliveryID == "" || h.guard == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), 2*time.Second)
	defer cancel()
	if err := h.guard.Release(ctx, deliveryID); err != nil {
		h.LogWarn(c, "Failed to release webhook delivery", "delivery_id", deliveryID, "error", err.Error())
	}
}

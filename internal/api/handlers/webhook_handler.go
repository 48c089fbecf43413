package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KyleYagher/Jits-Apparel-sub000/internal/application"
	"github.com/KyleYagher/Jits-Apparel-sub000/internal/webhooks"
	apperrors "github.com/KyleYagher/Jits-Apparel-sub000/pkg/errors"
	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/logging"
	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/metrics"
	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/middleware"
)

const maxWebhookBody = 1 << 20

// WebhookResultIgnored is returned when a valid webhook could not be processed.
const WebhookResultIgnored = "ignored"

// WebhookHandler receives carrier tracking pushes. Once a body is
// authentic and well formed it is always acknowledged with 200 so the
// carrier does not retry into the same failure.
type WebhookHandler struct {
	tracking TrackingService
	parser   *webhooks.Parser
	secret   string
	metrics  *metrics.Metrics
	logger   *logging.Logger
}

// NewWebhookHandler creates a new WebhookHandler. An empty secret disables signature checks.
func NewWebhookHandler(tracking TrackingService, parser *webhooks.Parser, secret string, m *metrics.Metrics, logger *logging.Logger) *WebhookHandler {
	return &WebhookHandler{
		tracking: tracking,
		parser:   parser,
		secret:   secret,
		metrics:  m,
		logger:   logger.WithComponent("webhook-handler"),
	}
}

// RegisterRoutes registers webhook routes on the router
func (h *WebhookHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/webhooks/carrier", h.CarrierWebhook)
}

// CarrierWebhook authenticates, validates and applies a carrier status push.
func (h *WebhookHandler) CarrierWebhook(c *gin.Context) {
	ctx := c.Request.Context()

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		h.metrics.RecordWebhook("invalid")
		middleware.RespondWithAppError(c, h.logger, apperrors.ErrBadRequest("unreadable webhook body"))
		return
	}

	if h.secret != "" && !webhooks.VerifyHMAC(h.secret, body, c.GetHeader(webhooks.SignatureHeader)) {
		h.metrics.RecordWebhook("unauthorized")
		middleware.RespondWithAppError(c, h.logger, apperrors.ErrUnauthorized("invalid webhook signature"))
		return
	}

	hook, err := h.parser.Parse(body)
	if err != nil {
		h.metrics.RecordWebhook("invalid")
		middleware.RespondWithAppError(c, h.logger, apperrors.ErrBadRequest("webhook payload failed validation").Wrap(err))
		return
	}

	outcome, err := h.tracking.ApplyWebhook(ctx, application.WebhookPayload{
		CarrierShipmentID: hook.ShipmentID,
		TrackingReference: hook.TrackingReference,
		Status:            hook.Status,
		Timestamp:         hook.EventTime,
		Message:           hook.Message,
	})
	if err != nil {
		h.metrics.RecordWebhook(WebhookResultIgnored)
		h.logger.WithContext(ctx).WithError(err).Error("Carrier webhook could not be applied",
			"carrierShipmentId", hook.ShipmentID,
			"trackingReference", hook.TrackingReference,
			"carrierStatus", hook.Status,
		)
		c.JSON(http.StatusOK, application.WebhookOutcome{Result: WebhookResultIgnored})
		return
	}

	c.JSON(http.StatusOK, outcome)
}

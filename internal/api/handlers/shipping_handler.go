package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KyleYagher/Jits-Apparel-sub000/internal/application"
	"github.com/KyleYagher/Jits-Apparel-sub000/internal/domain"
	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/logging"
	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/middleware"
)

// RateService quotes shipping rates.
type RateService interface {
	GetAdHocRates(ctx context.Context, query application.GetRatesQuery) (*domain.ShippingRatesResult, error)
	GetRatesForOrder(ctx context.Context, orderID string) (*domain.ShippingRatesResult, error)
}

// ShipmentService books and cancels carrier shipments.
type ShipmentService interface {
	CreateShipment(ctx context.Context, cmd application.CreateShipmentCommand) (*application.ShipmentResult, error)
	CancelShipment(ctx context.Context, cmd application.CancelShipmentCommand) (*application.CancelResult, error)
	GetLabelURLForOrder(ctx context.Context, orderID string) (*application.LabelResult, error)
}

// TrackingService reads tracking and applies carrier webhooks.
type TrackingService interface {
	GetTracking(ctx context.Context, trackingReference string) (*domain.TrackingState, error)
	GetTrackingForOrder(ctx context.Context, query application.GetTrackingForOrderQuery) (*domain.TrackingState, error)
	ApplyWebhook(ctx context.Context, payload application.WebhookPayload) (*application.WebhookOutcome, error)
}

// ShippingHandler serves the checkout and order shipping endpoints.
type ShippingHandler struct {
	rates     RateService
	shipments ShipmentService
	tracking  TrackingService
	logger    *logging.Logger
}

// NewShippingHandler creates a new ShippingHandler
func NewShippingHandler(rates RateService, shipments ShipmentService, tracking TrackingService, logger *logging.Logger) *ShippingHandler {
	return &ShippingHandler{
		rates:     rates,
		shipments: shipments,
		tracking:  tracking,
		logger:    logger.WithComponent("shipping-handler"),
	}
}

// RegisterRoutes registers shipping routes on the router
func (h *ShippingHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/rates", h.GetRates)
	router.GET("/rates", h.GetRates)
	router.GET("/tracking/:reference", h.GetTracking)

	orders := router.Group("/orders/:orderId")
	{
		orders.GET("/rates", h.GetOrderRates)
		orders.POST("/shipment", h.CreateShipment)
		orders.POST("/cancel", h.CancelShipment)
		orders.GET("/tracking", h.GetOrderTracking)
		orders.GET("/label", h.GetLabel)
	}
}

func (h *ShippingHandler) fail(c *gin.Context, err error) {
	middleware.RespondWithAppError(c, h.logger, ToAppError(err))
}

// GetRates quotes an ad-hoc address, typically from checkout.
func (h *ShippingHandler) GetRates(c *gin.Context) {
	var req ratesRequest
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		middleware.RespondWithAppError(c, h.logger, appErr)
		return
	}

	result, err := h.rates.GetAdHocRates(c.Request.Context(), application.GetRatesQuery{
		Address:       req.Address.toDomain(),
		Parcels:       toParcels(req.Parcels),
		DeclaredValue: req.DeclaredValue,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetOrderRates quotes the order's destination and contents.
func (h *ShippingHandler) GetOrderRates(c *gin.Context) {
	result, err := h.rates.GetRatesForOrder(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// CreateShipment books the carrier shipment for an order.
func (h *ShippingHandler) CreateShipment(c *gin.Context) {
	var req createShipmentRequest
	if c.Request.ContentLength != 0 {
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			middleware.RespondWithAppError(c, h.logger, appErr)
			return
		}
	}

	result, err := h.shipments.CreateShipment(c.Request.Context(), application.CreateShipmentCommand{
		OrderID:          c.Param("orderId"),
		ServiceLevelCode: req.ServiceLevelCode,
		Parcels:          toParcels(req.Parcels),
		RequestedBy:      requesterFrom(c).UserID,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// CancelShipment cancels the order's active shipment.
func (h *ShippingHandler) CancelShipment(c *gin.Context) {
	result, err := h.shipments.CancelShipment(c.Request.Context(), application.CancelShipmentCommand{
		OrderID:     c.Param("orderId"),
		RequestedBy: requesterFrom(c).UserID,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetTracking returns the tracking view for a carrier reference.
func (h *ShippingHandler) GetTracking(c *gin.Context) {
	state, err := h.tracking.GetTracking(c.Request.Context(), c.Param("reference"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// GetOrderTracking returns tracking for an order the caller may see.
func (h *ShippingHandler) GetOrderTracking(c *gin.Context) {
	state, err := h.tracking.GetTrackingForOrder(c.Request.Context(), application.GetTrackingForOrderQuery{
		OrderID:   c.Param("orderId"),
		Requester: requesterFrom(c),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// GetLabel returns the waybill URL of the order's shipment.
func (h *ShippingHandler) GetLabel(c *gin.Context) {
	label, err := h.shipments.GetLabelURLForOrder(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, label)
}

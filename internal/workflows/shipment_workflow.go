package workflows

import (
	"errors"
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/KyleYagher/Jits-Apparel-sub000/internal/activities"
	"github.com/KyleYagher/Jits-Apparel-sub000/internal/application"
	"github.com/KyleYagher/Jits-Apparel-sub000/internal/domain"
)

// ShipmentWorkflowInput represents the input for the shipment workflow
type ShipmentWorkflowInput struct {
	OrderID          string          `json:"orderId"`
	ServiceLevelCode string          `json:"serviceLevelCode"`
	Parcels          []domain.Parcel `json:"parcels,omitempty"`
	RequestedBy      string          `json:"requestedBy"`
}

// ShipmentWorkflowResult represents the result of the shipment workflow
type ShipmentWorkflowResult struct {
	OrderID           string  `json:"orderId"`
	TrackingNumber    string  `json:"trackingNumber,omitempty"`
	CarrierShipmentID string  `json:"carrierShipmentId,omitempty"`
	ShippingCost      float64 `json:"shippingCost"`
	FreeShipping      bool    `json:"freeShipping"`
	LabelURL          string  `json:"labelUrl,omitempty"`
	Success           bool    `json:"success"`
	ErrorKind         string  `json:"errorKind,omitempty"`
	Error             string  `json:"error,omitempty"`
}

// ShipmentWorkflow books a carrier shipment for an order and then tries to
// collect its label. Creation is never retried.
func ShipmentWorkflow(ctx workflow.Context, input ShipmentWorkflowInput) (*ShipmentWorkflowResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting shipment workflow", "orderId", input.OrderID, "serviceLevel", input.ServiceLevelCode)

	result := &ShipmentWorkflowResult{OrderID: input.OrderID}

	createCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	})

	var shipment application.ShipmentResult
	err := workflow.ExecuteActivity(createCtx, activities.CreateShipmentActivity, activities.CreateShipmentInput{
		OrderID:          input.OrderID,
		ServiceLevelCode: input.ServiceLevelCode,
		Parcels:          input.Parcels,
		RequestedBy:      input.RequestedBy,
	}).Get(ctx, &shipment)
	if err != nil {
		result.ErrorKind = errorKind(err)
		result.Error = fmt.Sprintf("failed to create shipment: %v", err)
		logger.Error("Shipment creation failed", "orderId", input.OrderID, "kind", result.ErrorKind)
		return result, err
	}

	result.TrackingNumber = shipment.TrackingNumber
	result.CarrierShipmentID = shipment.CarrierShipmentID
	result.ShippingCost = shipment.ShippingCost
	result.FreeShipping = shipment.FreeShipping

	// Carriers render labels asynchronously, so poll with backoff.
	labelCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    10 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    2 * time.Minute,
			MaximumAttempts:    5,
		},
	})

	var label application.LabelResult
	if err := workflow.ExecuteActivity(labelCtx, activities.FetchLabelActivity, input.OrderID).Get(ctx, &label); err != nil {
		logger.Warn("Label not collected, shipment stands", "orderId", input.OrderID, "error", err)
	} else {
		result.LabelURL = label.LabelURL
	}

	result.Success = true
	logger.Info("Shipment workflow completed",
		"orderId", input.OrderID,
		"trackingNumber", result.TrackingNumber,
	)
	return result, nil
}

func errorKind(err error) string {
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) {
		return appErr.Type()
	}
	return ""
}

package carriers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/KyleYagher/Jits-Apparel-sub000/internal/domain"
	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/tracing"
)

// ShipLogicName is persisted as the order's carrier name.
const ShipLogicName = "Ship Logic"

// Sender is the collection point parcels are picked up from.
type Sender struct {
	Company       string
	ContactName   string
	Phone         string
	Email         string
	StreetAddress string
	LocalArea     string
	City          string
	Zone          string
	Country       string
	PostalCode    string
}

// ShipLogicConfig configures the Ship Logic client.
type ShipLogicConfig struct {
	BaseURL string
	APIKey  string
	// Timeout is an outer bound on the HTTP client; callers set tighter per-call deadlines.
	Timeout time.Duration
	Sender  Sender
}

// ShipLogicAdapter is the anti-corruption layer for the Ship Logic API.
type ShipLogicAdapter struct {
	config     ShipLogicConfig
	httpClient *http.Client
	tracer     trace.Tracer
}

// NewShipLogicAdapter creates a new Ship Logic adapter
func NewShipLogicAdapter(config ShipLogicConfig) *ShipLogicAdapter {
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	config.BaseURL = strings.TrimSuffix(config.BaseURL, "/")
	return &ShipLogicAdapter{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		tracer:     otel.Tracer("shipping/shiplogic"),
	}
}

// Name returns the carrier name
func (a *ShipLogicAdapter) Name() string {
	return ShipLogicName
}

// QuoteRates asks Ship Logic for rates from the collection point to the destination.
func (a *ShipLogicAdapter) QuoteRates(ctx context.Context, req domain.RateRequest) ([]domain.RateQuote, error) {
	return tracing.TracedOperation(ctx, a.tracer, "shiplogic.rates", func(ctx context.Context) ([]domain.RateQuote, error) {
		body := slRatesRequest{
			CollectionAddress: a.collectionAddress(),
			DeliveryAddress:   toSLAddress(req.Destination),
			Parcels:           toSLParcels(req.Parcels),
			DeclaredValue:     req.DeclaredValue,
		}

		var resp slRatesResponse
		if err := a.do(ctx, http.MethodPost, "/v2/rates", body, &resp, nil); err != nil {
			return nil, err
		}

		quotes := make([]domain.RateQuote, 0, len(resp.Rates))
		for _, r := range resp.Rates {
			quotes = append(quotes, domain.RateQuote{
				ServiceLevelCode: r.ServiceLevel.Code,
				ServiceLevelName: r.ServiceLevel.Name,
				TotalPrice:       r.Rate,
				DeliveryEstimate: deliveryEstimate(r.ServiceLevel.DeliveryDateFrom, r.ServiceLevel.DeliveryDateTo),
				DeliveryFrom:     r.ServiceLevel.DeliveryDateFrom,
				DeliveryTo:       r.ServiceLevel.DeliveryDateTo,
			})
		}
		return quotes, nil
	}, tracing.CarrierSpanAttributes(ShipLogicName, "quote-rates", "")...)
}

// CreateShipment books a shipment. The order id travels as the custom
// tracking reference and idempotency key so an operator can locate a
// shipment whose response was lost.
func (a *ShipLogicAdapter) CreateShipment(ctx context.Context, req domain.ShipmentRequest) (*domain.CarrierShipment, error) {
	return tracing.TracedOperation(ctx, a.tracer, "shiplogic.create-shipment", func(ctx context.Context) (*domain.CarrierShipment, error) {
		dest := req.Destination
		body := slShipmentRequest{
			CollectionAddress: a.collectionAddress(),
			CollectionContact: slContact{
				Name:         a.config.Sender.ContactName,
				MobileNumber: a.config.Sender.Phone,
				Email:        a.config.Sender.Email,
			},
			DeliveryAddress: toSLAddress(dest),
			DeliveryContact: slContact{
				Name:         dest.RecipientName,
				MobileNumber: dest.Phone,
				Email:        dest.Email,
			},
			Parcels:                 toSLParcels(req.Parcels),
			DeclaredValue:           req.DeclaredValue,
			ServiceLevelCode:        req.ServiceLevelCode,
			CustomTrackingReference: req.Reference,
		}

		headers := map[string]string{}
		if req.Reference != "" {
			headers["X-Idempotency-Key"] = req.Reference
		}

		var resp slShipmentResponse
		if err := a.do(ctx, http.MethodPost, "/v2/shipments", body, &resp, headers); err != nil {
			return nil, err
		}

		shipmentID := ""
		if resp.ID != 0 {
			shipmentID = strconv.FormatInt(resp.ID, 10)
		}
		reference := resp.ShortTrackingReference
		if reference == "" {
			reference = shipmentID
		}
		return &domain.CarrierShipment{
			CarrierShipmentID: shipmentID,
			TrackingReference: reference,
			CarrierName:       ShipLogicName,
		}, nil
	}, tracing.CarrierSpanAttributes(ShipLogicName, "create-shipment", req.Reference)...)
}

// cancelRefusalStatuses are the answers Ship Logic gives when a shipment can
// no longer be cancelled. Other failures stay errors.
var cancelRefusalStatuses = map[int]bool{
	http.StatusBadRequest:          true,
	http.StatusConflict:            true,
	http.StatusUnprocessableEntity: true,
}

// CancelShipment asks Ship Logic to cancel. A business refusal is a rejected
// outcome, not an error.
func (a *ShipLogicAdapter) CancelShipment(ctx context.Context, trackingReference string) (*domain.CancelOutcome, error) {
	return tracing.TracedOperation(ctx, a.tracer, "shiplogic.cancel-shipment", func(ctx context.Context) (*domain.CancelOutcome, error) {
		var resp slCancelResponse
		err := a.do(ctx, http.MethodPost, "/v2/shipments/cancel", slCancelRequest{TrackingReference: trackingReference}, &resp, nil)

		var ce *domain.CarrierError
		if errors.As(err, &ce) && cancelRefusalStatuses[ce.StatusCode] {
			return &domain.CancelOutcome{Cancelled: false, Reason: ce.Message}, nil
		}
		if err != nil {
			return nil, err
		}

		if resp.Status != "" && !strings.EqualFold(resp.Status, "cancelled") {
			reason := resp.Message
			if reason == "" {
				reason = "shipment is " + resp.Status
			}
			return &domain.CancelOutcome{Cancelled: false, Reason: reason}, nil
		}
		return &domain.CancelOutcome{Cancelled: true}, nil
	}, tracing.CarrierSpanAttributes(ShipLogicName, "cancel-shipment", trackingReference)...)
}

// GetTracking returns the raw tracking timeline.
func (a *ShipLogicAdapter) GetTracking(ctx context.Context, trackingReference string) (*domain.CarrierTracking, error) {
	return tracing.TracedOperation(ctx, a.tracer, "shiplogic.tracking", func(ctx context.Context) (*domain.CarrierTracking, error) {
		path := "/v2/tracking/shipments?tracking_reference=" + url.QueryEscape(trackingReference)

		var resp slTrackingResponse
		if err := a.do(ctx, http.MethodGet, path, nil, &resp, nil); err != nil {
			return nil, err
		}
		if len(resp.Shipments) == 0 {
			return &domain.CarrierTracking{TrackingReference: trackingReference}, nil
		}

		s := resp.Shipments[0]
		tracking := &domain.CarrierTracking{
			TrackingReference: trackingReference,
			Status:            s.Status,
			Events:            make([]domain.TrackingEvent, 0, len(s.TrackingEvents)),
		}
		for _, e := range s.TrackingEvents {
			tracking.Events = append(tracking.Events, domain.TrackingEvent{
				Timestamp: e.Date,
				RawStatus: e.Status,
				Message:   e.Message,
				Location:  e.Location,
			})
		}
		if s.ProofOfDelivery != nil {
			tracking.ProofOfDelivery = &domain.ProofOfDelivery{
				Method:        s.ProofOfDelivery.Method,
				RecipientName: s.ProofOfDelivery.Name,
				ImageURLs:     s.ProofOfDelivery.Images,
				DeliveredAt:   s.ProofOfDelivery.DeliveredAt,
			}
		}
		return tracking, nil
	}, tracing.CarrierSpanAttributes(ShipLogicName, "get-tracking", trackingReference)...)
}

// GetLabelURL returns the waybill URL. A 404 means the label is not generated yet.
func (a *ShipLogicAdapter) GetLabelURL(ctx context.Context, carrierShipmentID string) (string, error) {
	return tracing.TracedOperation(ctx, a.tracer, "shiplogic.label", func(ctx context.Context) (string, error) {
		path := "/v2/shipments/label?id=" + url.QueryEscape(carrierShipmentID)

		var resp slLabelResponse
		err := a.do(ctx, http.MethodGet, path, nil, &resp, nil)
		var ce *domain.CarrierError
		if errors.As(err, &ce) && ce.StatusCode == http.StatusNotFound {
			return "", fmt.Errorf("shipment %s: %w", carrierShipmentID, domain.ErrLabelNotReady)
		}
		if err != nil {
			return "", err
		}
		if resp.URL == "" {
			return "", fmt.Errorf("shipment %s: %w", carrierShipmentID, domain.ErrLabelNotReady)
		}
		return resp.URL, nil
	}, tracing.CarrierSpanAttributes(ShipLogicName, "get-label", carrierShipmentID)...)
}

func (a *ShipLogicAdapter) do(ctx context.Context, method, path string, in, out any, headers map[string]string) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.config.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+a.config.APIKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return &domain.CarrierError{
			Code:      "transport",
			Message:   fmt.Sprintf("%s %s failed", method, path),
			Retryable: true,
			Timeout:   domain.IsCarrierTimeout(err) || errors.Is(ctx.Err(), context.DeadlineExceeded),
			Err:       err,
		}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &domain.CarrierError{
			Code:      "read",
			Message:   "failed to read carrier response",
			Retryable: true,
			Timeout:   domain.IsCarrierTimeout(err),
			Err:       err,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp.StatusCode, raw)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &domain.CarrierError{
			Code:       "decode",
			Message:    "unexpected carrier response body",
			StatusCode: resp.StatusCode,
			Err:        err,
		}
	}
	return nil
}

func statusError(status int, raw []byte) *domain.CarrierError {
	var body slErrorResponse
	_ = json.Unmarshal(raw, &body)

	msg := body.Message
	if msg == "" {
		msg = strings.TrimSpace(string(raw))
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	code := body.Code
	if code == "" {
		code = "http_" + strconv.Itoa(status)
	}

	return &domain.CarrierError{
		Code:       code,
		Message:    msg,
		StatusCode: status,
		Retryable:  status >= 500 || status == http.StatusTooManyRequests,
		Timeout:    status == http.StatusGatewayTimeout,
	}
}

func (a *ShipLogicAdapter) collectionAddress() slAddress {
	s := a.config.Sender
	return slAddress{
		Type:          "business",
		Company:       s.Company,
		StreetAddress: s.StreetAddress,
		LocalArea:     s.LocalArea,
		City:          s.City,
		Zone:          s.Zone,
		Country:       s.Country,
		Code:          s.PostalCode,
	}
}

func toSLAddress(a domain.Address) slAddress {
	street := a.AddressLine1
	if a.AddressLine2 != "" {
		street += ", " + a.AddressLine2
	}
	addrType := "residential"
	if a.Company != "" {
		addrType = "business"
	}
	return slAddress{
		Type:          addrType,
		Company:       a.Company,
		StreetAddress: street,
		LocalArea:     a.Suburb,
		City:          a.City,
		Zone:          a.Province,
		Country:       a.Country,
		Code:          a.PostalCode,
	}
}

func toSLParcels(parcels []domain.Parcel) []slParcel {
	out := make([]slParcel, 0, len(parcels))
	for _, p := range parcels {
		out = append(out, slParcel{
			SubmittedLengthCm: p.LengthCm,
			SubmittedWidthCm:  p.WidthCm,
			SubmittedHeightCm: p.HeightCm,
			SubmittedWeightKg: p.WeightKg,
			ParcelDescription: p.Description,
		})
	}
	return out
}

func deliveryEstimate(from, to *time.Time) string {
	const layout = "2 Jan"
	switch {
	case from != nil && to != nil && !from.Equal(*to):
		return from.Format(layout) + " - " + to.Format(layout)
	case to != nil:
		return to.Format(layout)
	case from != nil:
		return from.Format(layout)
	}
	return ""
}

package domain

import (
	"sort"
	"strings"
	"time"
)

// CarrierStatus is the normalized carrier-side shipment status.
type CarrierStatus string

const (
	CarrierStatusCreated        CarrierStatus = "created"
	CarrierStatusCollected      CarrierStatus = "collected"
	CarrierStatusInTransit      CarrierStatus = "in-transit"
	CarrierStatusOutForDelivery CarrierStatus = "out-for-delivery"
	CarrierStatusDelivered      CarrierStatus = "delivered"
	CarrierStatusException      CarrierStatus = "exception"
	CarrierStatusUnknown        CarrierStatus = "unknown"
)

var carrierStatusAliases = map[string]CarrierStatus{
	"created":                 CarrierStatusCreated,
	"submitted":               CarrierStatusCreated,
	"collection-assigned":     CarrierStatusCreated,
	"collection-scheduled":    CarrierStatusCreated,
	"collected":               CarrierStatusCollected,
	"at-hub":                  CarrierStatusInTransit,
	"at-origin-hub":           CarrierStatusInTransit,
	"at-destination-hub":      CarrierStatusInTransit,
	"in-transit":              CarrierStatusInTransit,
	"out-for-delivery":        CarrierStatusOutForDelivery,
	"delivered":               CarrierStatusDelivered,
	"exception":               CarrierStatusException,
	"failed-delivery":         CarrierStatusException,
	"delivery-unsuccessful":   CarrierStatusException,
	"collection-unsuccessful": CarrierStatusException,
	"returned-to-sender":      CarrierStatusException,
}

// NormalizeCarrierStatus maps a raw carrier status string ("In Transit",
// "in_transit", "in-transit") to a CarrierStatus.
func NormalizeCarrierStatus(raw string) CarrierStatus {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.NewReplacer("_", "-", " ", "-").Replace(key)
	if s, ok := carrierStatusAliases[key]; ok {
		return s
	}
	return CarrierStatusUnknown
}

// OrderStatus returns the local order status a carrier status drives the order to.
// Exception and unknown statuses never move the order.
func (s CarrierStatus) OrderStatus() (OrderStatus, bool) {
	switch s {
	case CarrierStatusCreated:
		return OrderStatusProcessing, true
	case CarrierStatusCollected, CarrierStatusInTransit, CarrierStatusOutForDelivery:
		return OrderStatusShipped, true
	case CarrierStatusDelivered:
		return OrderStatusDelivered, true
	default:
		return "", false
	}
}

// TrackingEvent is one entry in a shipment's timeline.
type TrackingEvent struct {
	Timestamp time.Time `json:"timestamp"`
	RawStatus string    `json:"rawStatus"`
	Message   string    `json:"message"`
	Location  string    `json:"location,omitempty"`
}

// ProofOfDelivery is carrier evidence that the parcel reached the recipient.
type ProofOfDelivery struct {
	Method        string     `json:"method,omitempty"`
	RecipientName string     `json:"recipientName,omitempty"`
	ImageURLs     []string   `json:"imageUrls,omitempty"`
	DeliveredAt   *time.Time `json:"deliveredAt,omitempty"`
}

// TrackingState is a freshly projected view of a shipment. It is rebuilt on every fetch.
type TrackingState struct {
	TrackingReference string           `json:"trackingReference"`
	Status            CarrierStatus    `json:"status"`
	StatusDescription string           `json:"statusDescription"`
	Events            []TrackingEvent  `json:"events"`
	ProofOfDelivery   *ProofOfDelivery `json:"proofOfDelivery,omitempty"`
}

// SortEvents orders events ascending by timestamp, keeping carrier order for ties.
func SortEvents(events []TrackingEvent) []TrackingEvent {
	sorted := make([]TrackingEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	return sorted
}

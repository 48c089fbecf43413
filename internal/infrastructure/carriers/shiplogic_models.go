package carriers

import "time"

// Wire types for the Ship Logic v2 REST API.

type slAddress struct {
	Type          string `json:"type"`
	Company       string `json:"company,omitempty"`
	StreetAddress string `json:"street_address"`
	LocalArea     string `json:"local_area,omitempty"`
	City          string `json:"city"`
	Zone          string `json:"zone,omitempty"`
	Country       string `json:"country"`
	Code          string `json:"code"`
}

type slContact struct {
	Name         string `json:"name"`
	MobileNumber string `json:"mobile_number,omitempty"`
	Email        string `json:"email,omitempty"`
}

type slParcel struct {
	SubmittedLengthCm float64 `json:"submitted_length_cm"`
	SubmittedWidthCm  float64 `json:"submitted_width_cm"`
	SubmittedHeightCm float64 `json:"submitted_height_cm"`
	SubmittedWeightKg float64 `json:"submitted_weight_kg"`
	ParcelDescription string  `json:"parcel_description,omitempty"`
}

type slRatesRequest struct {
	CollectionAddress slAddress  `json:"collection_address"`
	DeliveryAddress   slAddress  `json:"delivery_address"`
	Parcels           []slParcel `json:"parcels"`
	DeclaredValue     float64    `json:"declared_value"`
}

type slServiceLevel struct {
	Code             string     `json:"code"`
	Name             string     `json:"name"`
	DeliveryDateFrom *time.Time `json:"delivery_date_from,omitempty"`
	DeliveryDateTo   *time.Time `json:"delivery_date_to,omitempty"`
}

type slRate struct {
	Rate         float64        `json:"rate"`
	ServiceLevel slServiceLevel `json:"service_level"`
}

type slRatesResponse struct {
	Rates []slRate `json:"rates"`
}

type slShipmentRequest struct {
	CollectionAddress       slAddress  `json:"collection_address"`
	CollectionContact       slContact  `json:"collection_contact"`
	DeliveryAddress         slAddress  `json:"delivery_address"`
	DeliveryContact         slContact  `json:"delivery_contact"`
	Parcels                 []slParcel `json:"parcels"`
	DeclaredValue           float64    `json:"declared_value"`
	ServiceLevelCode        string     `json:"service_level_code"`
	CustomTrackingReference string     `json:"custom_tracking_reference,omitempty"`
	MuteNotifications       bool       `json:"mute_notifications"`
}

type slShipmentResponse struct {
	ID                     int64  `json:"id"`
	ShortTrackingReference string `json:"short_tracking_reference"`
	CustomTrackingRef      string `json:"custom_tracking_reference"`
	Status                 string `json:"status"`
}

type slCancelRequest struct {
	TrackingReference string `json:"tracking_reference"`
}

type slCancelResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type slTrackingEvent struct {
	Date     time.Time `json:"date"`
	Status   string    `json:"status"`
	Message  string    `json:"message"`
	Location string    `json:"location,omitempty"`
}

type slPOD struct {
	Method      string     `json:"method,omitempty"`
	Name        string     `json:"name,omitempty"`
	Images      []string   `json:"images,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
}

type slTrackedShipment struct {
	ShipmentID             int64             `json:"shipment_id"`
	ShortTrackingReference string            `json:"short_tracking_reference"`
	Status                 string            `json:"status"`
	TrackingEvents         []slTrackingEvent `json:"tracking_events"`
	ProofOfDelivery        *slPOD            `json:"pod,omitempty"`
}

type slTrackingResponse struct {
	Shipments []slTrackedShipment `json:"shipments"`
}

type slLabelResponse struct {
	URL string `json:"url"`
}

type slErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

package cloudevents

import (
	"encoding/json"
	"time"
)

// Source identifies the shipping service in emitted events.
const SourceShipping = "/shop/shipping-service"

// Extension attribute names carried as ce- headers.
const (
	ExtCorrelationID = "shopcorrelationid"
	ExtOrderID       = "shoporderid"
	ExtTraceParent   = "traceparent"
	ExtTraceState    = "tracestate"
)

// Event is a CloudEvents v1.0 structured-mode envelope.
type Event struct {
	SpecVersion     string          `json:"specversion"`
	Type            string          `json:"type"`
	Source          string          `json:"source"`
	Subject         string          `json:"subject,omitempty"`
	ID              string          `json:"id"`
	Time            time.Time       `json:"time"`
	DataContentType string          `json:"datacontenttype"`
	Data            json.RawMessage `json:"data"`

	CorrelationID string `json:"shopcorrelationid,omitempty"`
	OrderID       string `json:"shoporderid,omitempty"`
	TraceParent   string `json:"traceparent,omitempty"`
	TraceState    string `json:"tracestate,omitempty"`
}

// DecodeData unmarshals the event payload into v.
func (e *Event) DecodeData(v any) error {
	return json.Unmarshal(e.Data, v)
}

// Extensions returns the populated extension attributes keyed by name.
func (e *Event) Extensions() map[string]string {
	ext := make(map[string]string, 4)
	if e.CorrelationID != "" {
		ext[ExtCorrelationID] = e.CorrelationID
	}
	if e.OrderID != "" {
		ext[ExtOrderID] = e.OrderID
	}
	if e.TraceParent != "" {
		ext[ExtTraceParent] = e.TraceParent
	}
	if e.TraceState != "" {
		ext[ExtTraceState] = e.TraceState
	}
	return ext
}

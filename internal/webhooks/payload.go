package webhooks

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

//go:embed carrier_webhook.schema.yaml
var carrierWebhookSchema []byte

const schemaURL = "shipping://schemas/carrier-webhook.json"

// ErrInvalidPayload wraps every parse or schema failure.
var ErrInvalidPayload = errors.New("invalid webhook payload")

// CarrierWebhook is a structurally valid carrier notification.
type CarrierWebhook struct {
	ShipmentID        string
	TrackingReference string
	Status            string
	EventTime         time.Time
	Message           string
	Location          string
}

type wirePayload struct {
	ShipmentID        any    `json:"shipment_id"`
	TrackingReference string `json:"tracking_reference"`
	Status            string `json:"status"`
	EventTime         string `json:"event_time"`
	Message           string `json:"message"`
	Location          string `json:"location"`
}

// Parser validates raw webhook bodies against the embedded schema.
type Parser struct {
	schema *jsonschema.Schema
	now    func() time.Time
}

// NewParser compiles the carrier webhook schema.
func NewParser() (*Parser, error) {
	schema, err := compileSchema(carrierWebhookSchema)
	if err != nil {
		return nil, err
	}
	return &Parser{schema: schema, now: time.Now}, nil
}

func compileSchema(yamlDoc []byte) (*jsonschema.Schema, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(yamlDoc, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse webhook schema: %w", err)
	}

	// Round-trip through JSON so numbers and maps have the types the compiler expects.
	asJSON, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to convert webhook schema: %w", err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(asJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to convert webhook schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat()
	if err := compiler.AddResource(schemaURL, doc); err != nil {
		return nil, fmt.Errorf("failed to add webhook schema: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile webhook schema: %w", err)
	}
	return schema, nil
}

// Parse validates body and decodes it. A missing event_time defaults to now.
func (p *Parser) Parse(body []byte) (*CarrierWebhook, error) {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if err := p.schema.Validate(inst); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var wire wirePayload
	if err := dec.Decode(&wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	hook := &CarrierWebhook{
		ShipmentID:        shipmentIDString(wire.ShipmentID),
		TrackingReference: strings.TrimSpace(wire.TrackingReference),
		Status:            strings.TrimSpace(wire.Status),
		Message:           wire.Message,
		Location:          wire.Location,
		EventTime:         p.now().UTC(),
	}
	if wire.EventTime != "" {
		t, err := time.Parse(time.RFC3339, wire.EventTime)
		if err != nil {
			return nil, fmt.Errorf("%w: event_time: %v", ErrInvalidPayload, err)
		}
		hook.EventTime = t
	}
	return hook, nil
}

func shipmentIDString(v any) string {
	switch id := v.(type) {
	case json.Number:
		return id.String()
	case string:
		return strings.TrimSpace(id)
	}
	return ""
}

package asyncapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/cloudevents"
)

const documentURL = "asyncapi://shipping/asyncapi.json"

// EventValidator validates CloudEvents against the payload schemas of an AsyncAPI document.
// A schema is bound to an event type through its x-event-type extension.
type EventValidator struct {
	schemas map[string]*jsonschema.Schema
}

type asyncAPISpec struct {
	AsyncAPI   string `yaml:"asyncapi"`
	Components struct {
		Schemas map[string]struct {
			EventType string `yaml:"x-event-type"`
		} `yaml:"schemas"`
	} `yaml:"components"`
}

// NewEventValidator creates a validator from an AsyncAPI file.
func NewEventValidator(asyncAPIPath string) (*EventValidator, error) {
	data, err := os.ReadFile(asyncAPIPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read AsyncAPI spec: %w", err)
	}
	return NewEventValidatorFromBytes(data)
}

// NewEventValidatorFromBytes creates a validator from AsyncAPI document bytes.
func NewEventValidatorFromBytes(specBytes []byte) (*EventValidator, error) {
	var spec asyncAPISpec
	if err := yaml.Unmarshal(specBytes, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse AsyncAPI spec: %w", err)
	}
	if spec.AsyncAPI == "" {
		return nil, fmt.Errorf("not an AsyncAPI document")
	}

	var raw map[string]any
	if err := yaml.Unmarshal(specBytes, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse AsyncAPI spec: %w", err)
	}
	asJSON, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to convert AsyncAPI spec: %w", err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(asJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to convert AsyncAPI spec: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat()
	if err := compiler.AddResource(documentURL, doc); err != nil {
		return nil, fmt.Errorf("failed to add AsyncAPI spec: %w", err)
	}

	schemas := make(map[string]*jsonschema.Schema)
	for name, s := range spec.Components.Schemas {
		if s.EventType == "" {
			continue
		}
		compiled, err := compiler.Compile(documentURL + "#/components/schemas/" + name)
		if err != nil {
			return nil, fmt.Errorf("failed to compile schema %s: %w", name, err)
		}
		schemas[s.EventType] = compiled
	}

	return &EventValidator{schemas: schemas}, nil
}

// ValidateEvent checks the CloudEvents envelope and validates data against the event type's schema.
func (v *EventValidator) ValidateEvent(event *cloudevents.Event) error {
	if event == nil {
		return fmt.Errorf("event is nil")
	}
	if event.SpecVersion != "1.0" {
		return fmt.Errorf("unsupported specversion %q", event.SpecVersion)
	}
	if event.ID == "" || event.Source == "" || event.Type == "" {
		return fmt.Errorf("event id, source and type are required")
	}

	schema, ok := v.schemas[event.Type]
	if !ok {
		return fmt.Errorf("no schema found for event type: %s", event.Type)
	}
	if len(event.Data) == 0 {
		return fmt.Errorf("event data is required")
	}

	data, err := jsonschema.UnmarshalJSON(bytes.NewReader(event.Data))
	if err != nil {
		return fmt.Errorf("failed to decode event data: %w", err)
	}
	if err := schema.Validate(data); err != nil {
		return fmt.Errorf("event data validation failed for type %s: %w", event.Type, err)
	}
	return nil
}

// EventTypes returns the event types with a registered schema, sorted.
func (v *EventValidator) EventTypes() []string {
	types := make([]string, 0, len(v.schemas))
	for eventType := range v.schemas {
		types = append(types, eventType)
	}
	sort.Strings(types)
	return types
}

package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ToolFunc executes a tool with the model-supplied input.
type ToolFunc func(ctx context.Context, input map[string]any) (string, error)

// Tool pairs an executable handler with the declared input schema that is
// advertised to the model service.
type Tool struct {
	Name        string
	Description string
	SchemaJSON  string
	Fn          ToolFunc
}

// ValidateInput validates the provided input against the tool's JSON schema.
func (t Tool) ValidateInput(input map[string]any) error {
	schemaLoader := gojsonschema.NewStringLoader(t.SchemaJSON)
	documentLoader := gojsonschema.NewGoLoader(input)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	if !result.Valid() {
		var msgs []string
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("invalid input for tool %s: %s", t.Name, strings.Join(msgs, "; "))
	}

	return nil
}

// ToolSchema is the declarative description of a tool sent to the model service.
type ToolSchema struct {
	Name        string
	Description string
	JSONSchema  string
}

// Registry maps tool names to their implementations.
type Registry map[string]Tool

// Schemas returns the declared schemas for every registered tool.
func (r Registry) Schemas() []ToolSchema {
	schemas := make([]ToolSchema, 0, len(r))
	for _, t := range r {
		schemas = append(schemas, ToolSchema{
			Name:        t.Name,
			Description: t.Description,
			JSONSchema:  t.SchemaJSON,
		})
	}
	return schemas
}

// Resolve executes the named tool and returns its serialized result. It is
// total: unknown tools, invalid input, and handler failures all produce a
// well-formed error payload with isError set, never a Go error, so the loop
// can always construct a ToolResult for every request it received.
func (r Registry) Resolve(ctx context.Context, name string, input map[string]any) (content string, isError bool) {
	t, ok := r[name]
	if !ok {
		return `{"error": "Unknown tool"}`, true
	}

	if err := t.ValidateInput(input); err != nil {
		return errorPayload(err), true
	}

	result, err := t.Fn(ctx, input)
	if err != nil {
		return errorPayload(err), true
	}

	return result, false
}

func errorPayload(err error) string {
	data, merr := json.Marshal(map[string]string{"error": err.Error()})
	if merr != nil {
		return `{"error": "tool execution failed"}`
	}
	return string(data)
}

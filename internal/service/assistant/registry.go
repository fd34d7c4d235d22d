package assistant

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/bebeku/farm/pkg/llm"
)

// ToolHandler runs one tool with the model-supplied JSON arguments and returns
// a value that is marshalled back to the model.
type ToolHandler func(ctx context.Context, args json.RawMessage) (any, error)

// ToolDefinition describes a single tool in the registry.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema map[string]any
	// Write marks tools that change farm records.
	Write   bool
	Handler ToolHandler
}

// ToolRegistry holds the tools offered to the model, in registration order.
type ToolRegistry struct {
	tools []ToolDefinition
	index map[string]int
}

// NewToolRegistry creates an empty ToolRegistry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{index: make(map[string]int)}
}

// Register adds a tool, replacing any tool with the same name.
func (r *ToolRegistry) Register(t ToolDefinition) {
	if i, ok := r.index[t.Name]; ok {
		r.tools[i] = t
		return
	}
	r.index[t.Name] = len(r.tools)
	r.tools = append(r.tools, t)
}

// Get returns the ToolDefinition for a given tool name, and whether it was found.
func (r *ToolRegistry) Get(name string) (ToolDefinition, bool) {
	i, ok := r.index[name]
	if !ok {
		return ToolDefinition{}, false
	}
	return r.tools[i], true
}

// All returns all registered tools.
func (r *ToolRegistry) All() []ToolDefinition {
	return r.tools
}

// Specs converts the registry to the provider-neutral tool list.
func (r *ToolRegistry) Specs() []llm.ToolSpec {
	out := make([]llm.ToolSpec, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, llm.ToolSpec{Name: t.Name, Description: t.Description, InputSchema: t.InputSchema})
	}
	return out
}

// schemaFor reflects the JSON schema of an argument struct. Fields without
// omitempty are required.
func schemaFor[T any]() map[string]any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	raw, err := json.Marshal(reflector.Reflect(v))
	if err != nil {
		panic(fmt.Sprintf("reflect tool schema: %v", err))
	}
	var schema map[string]any
	if err := json.Unmarshal(raw, &schema); err != nil {
		panic(fmt.Sprintf("decode tool schema: %v", err))
	}
	delete(schema, "$schema")
	delete(schema, "$id")
	if _, ok := schema["properties"]; !ok {
		schema["properties"] = map[string]any{}
	}
	return schema
}

// typed adapts a handler over a decoded argument struct.
func typed[T any](fn func(ctx context.Context, args T) (any, error)) ToolHandler {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		var args T
		if len(raw) > 0 && string(raw) != "null" {
			if err := json.Unmarshal(raw, &args); err != nil {
				return nil, fmt.Errorf("argumen tidak valid: %w", err)
			}
		}
		return fn(ctx, args)
	}
}

package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/oneshotmcp/mcp-oneshot-go/mcp"
)

// ToolHandler is the function signature used to handle a tool invocation.
// Execution failures are reported by returning a result with IsError set
// (see Errorf); a Go error from a handler is treated as an internal failure.
type ToolHandler func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error)

// StaticTool pairs a tool descriptor with its handler.
type StaticTool struct {
	Descriptor mcp.Tool
	Handler    ToolHandler
}

// ToolOption configures NewTool behavior.
type ToolOption func(*toolConfig)

type toolConfig struct {
	description               string
	allowAdditionalProperties bool // default false (strict)
}

// WithToolDescription sets the tool description used in listings.
func WithToolDescription(desc string) ToolOption {
	return func(c *toolConfig) { c.description = desc }
}

// WithToolAllowAdditionalProperties controls whether unknown argument fields
// are accepted. When false (default), the generated schema sets
// additionalProperties=false and runtime decoding rejects unknown fields.
func WithToolAllowAdditionalProperties(allow bool) ToolOption {
	return func(c *toolConfig) { c.allowAdditionalProperties = allow }
}

// NewTool constructs a StaticTool from a typed args struct A. It reflects a
// JSON Schema from A, down-converts it to the simplified tool input schema,
// and wraps the handler with runtime decoding. Decode failures surface as
// soft failures (IsError results), not protocol errors.
func NewTool[A any](name string, fn func(ctx context.Context, args A) (*mcp.CallToolResult, error), opts ...ToolOption) StaticTool {
	cfg := toolConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	desc := mcp.Tool{
		Name:        name,
		Description: cfg.description,
		InputSchema: reflectToolInputSchema[A](cfg.allowAdditionalProperties),
	}

	handler := func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var a A
		if len(req.Arguments) > 0 {
			if cfg.allowAdditionalProperties {
				if err := json.Unmarshal(req.Arguments, &a); err != nil {
					return Errorf("invalid arguments: %v", err), nil
				}
			} else {
				dec := json.NewDecoder(bytes.NewReader(req.Arguments))
				dec.DisallowUnknownFields()
				if err := dec.Decode(&a); err != nil {
					return Errorf("invalid arguments: %v", err), nil
				}
			}
		}
		return fn(ctx, a)
	}

	return StaticTool{Descriptor: desc, Handler: handler}
}

// reflectToolInputSchema reflects a Go type A into a jsonschema.Schema and
// converts it to the simplified mcp.ToolInputSchema. Non-object shapes fall
// back to an empty object schema.
func reflectToolInputSchema[A any](allowAdditional bool) mcp.ToolInputSchema {
	r := &jsonschema.Reflector{
		DoNotReference:            true, // inline defs
		ExpandedStruct:            true, // put struct at root
		AllowAdditionalProperties: allowAdditional,
	}
	s := r.Reflect(new(A))

	if s == nil || s.Type != "object" {
		return mcp.ToolInputSchema{
			Type:                 "object",
			Properties:           map[string]mcp.SchemaProperty{},
			AdditionalProperties: allowAdditional,
		}
	}

	props := make(map[string]mcp.SchemaProperty)
	if s.Properties != nil {
		for el := s.Properties.Oldest(); el != nil; el = el.Next() {
			props[el.Key] = toSchemaProperty(el.Value)
		}
	}
	var required []string
	if len(s.Required) > 0 {
		required = append(required, s.Required...)
	}

	return mcp.ToolInputSchema{
		Type:                 "object",
		Properties:           props,
		Required:             required,
		AdditionalProperties: allowAdditional,
	}
}

// toSchemaProperty recursively maps a jsonschema.Schema node to the
// simplified mcp.SchemaProperty.
func toSchemaProperty(s *jsonschema.Schema) mcp.SchemaProperty {
	if s == nil {
		return mcp.SchemaProperty{}
	}
	p := mcp.SchemaProperty{
		Type:        s.Type,
		Description: s.Description,
	}
	if len(s.Enum) > 0 {
		p.Enum = s.Enum
	}
	if s.Type == "array" && s.Items != nil {
		item := toSchemaProperty(s.Items)
		p.Items = &item
	}
	if s.Type == "object" && s.Properties != nil {
		m := make(map[string]mcp.SchemaProperty, s.Properties.Len())
		for el := s.Properties.Oldest(); el != nil; el = el.Next() {
			m[el.Key] = toSchemaProperty(el.Value)
		}
		p.Properties = m
	}
	return p
}

// ToolsContainer holds a fixed set of tool descriptors and handlers. The set
// is established at construction and read-only afterwards, matching the
// process-lifetime immutability of the capability registry.
type ToolsContainer struct {
	tools    []mcp.Tool
	handlers map[string]ToolHandler
	pageSize int
}

// ContainerOption configures a capability container.
type ContainerOption func(*containerConfig)

type containerConfig struct {
	pageSize int
}

// WithPageSize sets the pagination size used by list methods. Non-positive
// values disable pagination.
func WithPageSize(n int) ContainerOption {
	return func(c *containerConfig) { c.pageSize = n }
}

const defaultPageSize = 50

// NewToolsContainer constructs a ToolsContainer with the given definitions.
// Duplicate names resolve last-write-wins for the handler; the descriptor
// list preserves registration order.
func NewToolsContainer(defs []StaticTool, opts ...ContainerOption) *ToolsContainer {
	cfg := containerConfig{pageSize: defaultPageSize}
	for _, opt := range opts {
		opt(&cfg)
	}
	tc := &ToolsContainer{
		tools:    make([]mcp.Tool, 0, len(defs)),
		handlers: make(map[string]ToolHandler, len(defs)),
		pageSize: cfg.pageSize,
	}
	for _, d := range defs {
		tc.tools = append(tc.tools, d.Descriptor)
		if d.Handler != nil {
			tc.handlers[d.Descriptor.Name] = d.Handler
		}
	}
	return tc
}

// ListTools implements ToolsCapability.
func (tc *ToolsContainer) ListTools(ctx context.Context, cursor *string) (Page[mcp.Tool], error) {
	return pageSlice(tc.tools, cursor, tc.pageSize), nil
}

// CallTool implements ToolsCapability.
func (tc *ToolsContainer) CallTool(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if req == nil || req.Name == "" {
		return nil, fmt.Errorf("invalid tool request: missing name")
	}
	h := tc.handlers[req.Name]
	if h == nil {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, req.Name)
	}
	return h(ctx, req)
}

// TextResult builds a successful text CallToolResult.
func TextResult(s string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.ContentBlock{{Type: "text", Text: s}}}
}

// Errorf returns an error CallToolResult with a single text block and
// IsError=true. This is the domain soft-failure shape: the envelope that
// carries it is still a successful JSON-RPC response.
func Errorf(format string, a ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.ContentBlock{{Type: "text", Text: fmt.Sprintf(format, a...)}},
		IsError: true,
	}
}

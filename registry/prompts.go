package registry

import (
	"context"
	"fmt"

	"github.com/oneshotmcp/mcp-oneshot-go/mcp"
)

// PromptHandler materializes a prompt get request into messages.
type PromptHandler func(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error)

// StaticPrompt pairs a prompt descriptor with the handler that materializes it.
type StaticPrompt struct {
	Descriptor mcp.Prompt
	Handler    PromptHandler
}

// PromptsContainer holds a fixed set of prompt descriptors and handlers,
// established at construction and read-only afterwards.
type PromptsContainer struct {
	prompts  []mcp.Prompt
	handlers map[string]PromptHandler
	pageSize int
}

// NewPromptsContainer constructs a PromptsContainer with the given
// definitions.
func NewPromptsContainer(defs []StaticPrompt, opts ...ContainerOption) *PromptsContainer {
	cfg := containerConfig{pageSize: defaultPageSize}
	for _, opt := range opts {
		opt(&cfg)
	}
	pc := &PromptsContainer{
		prompts:  make([]mcp.Prompt, 0, len(defs)),
		handlers: make(map[string]PromptHandler, len(defs)),
		pageSize: cfg.pageSize,
	}
	for _, d := range defs {
		pc.prompts = append(pc.prompts, d.Descriptor)
		if d.Handler != nil {
			pc.handlers[d.Descriptor.Name] = d.Handler
		}
	}
	return pc
}

// ListPrompts implements PromptsCapability.
func (pc *PromptsContainer) ListPrompts(ctx context.Context, cursor *string) (Page[mcp.Prompt], error) {
	return pageSlice(pc.prompts, cursor, pc.pageSize), nil
}

// GetPrompt implements PromptsCapability. Unknown names return
// ErrPromptNotFound, which the dispatcher maps to an invalid-params
// protocol error.
func (pc *PromptsContainer) GetPrompt(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	if req == nil || req.Name == "" {
		return nil, fmt.Errorf("invalid prompt request: missing name")
	}
	h := pc.handlers[req.Name]
	if h == nil {
		return nil, fmt.Errorf("%w: %s", ErrPromptNotFound, req.Name)
	}
	return h(ctx, req)
}

// TextPromptMessage builds a single-block prompt message.
func TextPromptMessage(role mcp.Role, text string) mcp.PromptMessage {
	return mcp.PromptMessage{Role: role, Content: []mcp.ContentBlock{{Type: "text", Text: text}}}
}

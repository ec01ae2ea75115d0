package registry

import (
	"context"

	"github.com/oneshotmcp/mcp-oneshot-go/mcp"
)

// Option configures a concrete ServerCapabilities implementation.
type Option func(*registry)

type registry struct {
	info         mcp.ImplementationInfo
	instructions *string

	toolsCap       ToolsCapability
	resourcesCap   ResourcesCapability
	promptsCap     PromptsCapability
	loggingCap     LoggingCapability
	completionsCap CompletionsCapability
}

// New builds a ServerCapabilities from functional options. Every capability
// is optional; absent capabilities are not advertised in initialize results
// and their methods answer with method-not-found.
func New(opts ...Option) ServerCapabilities {
	r := &registry{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// WithServerInfo sets the implementation identity returned by initialize.
func WithServerInfo(info mcp.ImplementationInfo) Option {
	return func(r *registry) { r.info = info }
}

// WithInstructions sets human-readable instructions included in initialize
// results.
func WithInstructions(instr string) Option {
	return func(r *registry) { r.instructions = &instr }
}

// WithToolsCapability wires the tools capability.
func WithToolsCapability(cap ToolsCapability) Option {
	return func(r *registry) { r.toolsCap = cap }
}

// WithResourcesCapability wires the resources capability.
func WithResourcesCapability(cap ResourcesCapability) Option {
	return func(r *registry) { r.resourcesCap = cap }
}

// WithPromptsCapability wires the prompts capability.
func WithPromptsCapability(cap PromptsCapability) Option {
	return func(r *registry) { r.promptsCap = cap }
}

// WithLoggingCapability wires the logging capability.
func WithLoggingCapability(cap LoggingCapability) Option {
	return func(r *registry) { r.loggingCap = cap }
}

// WithCompletionsCapability wires the completions capability.
func WithCompletionsCapability(cap CompletionsCapability) Option {
	return func(r *registry) { r.completionsCap = cap }
}

// GetServerInfo implements ServerCapabilities.
func (r *registry) GetServerInfo(ctx context.Context) (mcp.ImplementationInfo, error) {
	return r.info, nil
}

// GetInstructions implements ServerCapabilities.
func (r *registry) GetInstructions(ctx context.Context) (string, bool, error) {
	if r.instructions != nil {
		return *r.instructions, true, nil
	}
	return "", false, nil
}

// GetToolsCapability implements ServerCapabilities.
func (r *registry) GetToolsCapability(ctx context.Context) (ToolsCapability, bool, error) {
	if r.toolsCap != nil {
		return r.toolsCap, true, nil
	}
	return nil, false, nil
}

// GetResourcesCapability implements ServerCapabilities.
func (r *registry) GetResourcesCapability(ctx context.Context) (ResourcesCapability, bool, error) {
	if r.resourcesCap != nil {
		return r.resourcesCap, true, nil
	}
	return nil, false, nil
}

// GetPromptsCapability implements ServerCapabilities.
func (r *registry) GetPromptsCapability(ctx context.Context) (PromptsCapability, bool, error) {
	if r.promptsCap != nil {
		return r.promptsCap, true, nil
	}
	return nil, false, nil
}

// GetLoggingCapability implements ServerCapabilities.
func (r *registry) GetLoggingCapability(ctx context.Context) (LoggingCapability, bool, error) {
	if r.loggingCap != nil {
		return r.loggingCap, true, nil
	}
	return nil, false, nil
}

// GetCompletionsCapability implements ServerCapabilities.
func (r *registry) GetCompletionsCapability(ctx context.Context) (CompletionsCapability, bool, error) {
	if r.completionsCap != nil {
		return r.completionsCap, true, nil
	}
	return nil, false, nil
}

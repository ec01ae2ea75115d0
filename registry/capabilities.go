package registry

import (
	"context"
	"errors"

	"github.com/oneshotmcp/mcp-oneshot-go/mcp"
)

// Sentinel errors the dispatcher uses to distinguish domain soft failures
// from internal failures. Tool and resource lookups that miss are reported
// inside successful envelopes; prompt misses and bad logging levels map to
// invalid-params protocol errors.
var (
	ErrToolNotFound        = errors.New("tool not found")
	ErrResourceNotFound    = errors.New("resource not found")
	ErrPromptNotFound      = errors.New("prompt not found")
	ErrInvalidLoggingLevel = errors.New("invalid logging level")
)

// ServerCapabilities is the registry contract the dispatcher consumes. All
// getters follow the (cap, ok, err) convention described in the package
// documentation.
type ServerCapabilities interface {
	// GetServerInfo returns the implementation identity surfaced in
	// initialize results.
	GetServerInfo(ctx context.Context) (mcp.ImplementationInfo, error)

	// GetInstructions returns optional human-readable instructions included
	// in initialize results. ok == false omits the field.
	GetInstructions(ctx context.Context) (instructions string, ok bool, err error)

	GetToolsCapability(ctx context.Context) (cap ToolsCapability, ok bool, err error)
	GetResourcesCapability(ctx context.Context) (cap ResourcesCapability, ok bool, err error)
	GetPromptsCapability(ctx context.Context) (cap PromptsCapability, ok bool, err error)
	GetLoggingCapability(ctx context.Context) (cap LoggingCapability, ok bool, err error)
	GetCompletionsCapability(ctx context.Context) (cap CompletionsCapability, ok bool, err error)
}

// ToolsCapability is the server's tools surface area.
type ToolsCapability interface {
	// ListTools returns a (possibly paginated) list of tools. A nil cursor
	// requests the first page.
	ListTools(ctx context.Context, cursor *string) (Page[mcp.Tool], error)

	// CallTool invokes a named tool. An unknown name returns ErrToolNotFound;
	// execution failures are reported inside the result via IsError rather
	// than as Go errors.
	CallTool(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// ResourcesCapability is the server's resources surface area.
type ResourcesCapability interface {
	ListResources(ctx context.Context, cursor *string) (Page[mcp.Resource], error)
	ListResourceTemplates(ctx context.Context, cursor *string) (Page[mcp.ResourceTemplate], error)

	// ReadResource returns the contents for a resource URI. An unknown URI
	// returns ErrResourceNotFound; the dispatcher reports it as an empty
	// contents list.
	ReadResource(ctx context.Context, uri string) ([]mcp.ResourceContents, error)
}

// PromptsCapability is the server's prompts surface area.
type PromptsCapability interface {
	ListPrompts(ctx context.Context, cursor *string) (Page[mcp.Prompt], error)

	// GetPrompt materializes the named prompt with the supplied argument
	// values. An unknown name returns ErrPromptNotFound.
	GetPrompt(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error)
}

// LoggingCapability receives logging/setLevel updates. Implementations decide
// what, if anything, the level controls; the provided slog-backed
// implementation feeds a LevelVar so the level actually filters server logs.
type LoggingCapability interface {
	SetLevel(ctx context.Context, level mcp.LoggingLevel) error
}

// CompletionsCapability produces argument autocompletion suggestions for
// prompt and resource template arguments.
type CompletionsCapability interface {
	Complete(ctx context.Context, req *mcp.CompleteRequest) (*mcp.CompleteResult, error)
}

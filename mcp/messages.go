package mcp

import "encoding/json"

// Method is a protocol method identifier used in JSON-RPC messages.
type Method string

// Supported method names. The dispatch table is built from exactly this set;
// method matching is case-sensitive.
const (
	InitializeMethod Method = "initialize"
	PingMethod       Method = "ping"

	ToolsListMethod Method = "tools/list"
	ToolsCallMethod Method = "tools/call"

	ResourcesListMethod          Method = "resources/list"
	ResourcesReadMethod          Method = "resources/read"
	ResourcesTemplatesListMethod Method = "resources/templates/list"

	PromptsListMethod Method = "prompts/list"
	PromptsGetMethod  Method = "prompts/get"

	CompletionCompleteMethod Method = "completion/complete"
	LoggingSetLevelMethod    Method = "logging/setLevel"

	// InitializedNotificationMethod is the lifecycle notification clients send
	// after initialize. Like every notification on this transport it is
	// acknowledged and discarded.
	InitializedNotificationMethod Method = "notifications/initialized"
)

// PaginatedRequest carries a cursor for paginated list requests.
type PaginatedRequest struct {
	Cursor string `json:"cursor,omitzero"`
}

// PaginatedResult carries a cursor for continuing pagination.
type PaginatedResult struct {
	NextCursor string `json:"nextCursor,omitzero"`
}

// BaseMetadata carries optional metadata for responses.
type BaseMetadata struct {
	Meta map[string]any `json:"_meta,omitempty"`
}

// InitializeRequest starts the protocol handshake. The stateless server
// ignores the proposed protocol version and client capabilities; the fields
// are parsed for logging only.
type InitializeRequest struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ClientCapabilities `json:"capabilities"`
	ClientInfo      ImplementationInfo `json:"clientInfo"`
}

// InitializeResult returns the server's fixed capabilities and identity.
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      ImplementationInfo `json:"serverInfo"`
	Instructions    string             `json:"instructions,omitzero"`
	BaseMetadata
}

// ListToolsRequest requests the set of available tools.
type ListToolsRequest struct {
	PaginatedRequest
}

// ListToolsResult returns the available tools.
type ListToolsResult struct {
	Tools []Tool `json:"tools"`
	PaginatedResult
	BaseMetadata
}

// CallToolRequest is the server-received representation of a tool call.
type CallToolRequest struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// CallToolResult represents a tool invocation outcome. Execution failures set
// IsError and describe the failure in Content; they are never surfaced as
// protocol errors so that callers can render them as conversational content.
type CallToolResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitzero"`
	BaseMetadata
}

// ListResourcesRequest requests a paginated list of resources.
type ListResourcesRequest struct {
	PaginatedRequest
}

// ListResourcesResult returns a page of resources.
type ListResourcesResult struct {
	Resources []Resource `json:"resources"`
	PaginatedResult
	BaseMetadata
}

// ListResourceTemplatesRequest requests resource templates.
type ListResourceTemplatesRequest struct {
	PaginatedRequest
}

// ListResourceTemplatesResult returns resource templates.
type ListResourceTemplatesResult struct {
	ResourceTemplates []ResourceTemplate `json:"resourceTemplates"`
	PaginatedResult
	BaseMetadata
}

// ReadResourceRequest requests the contents of a resource by URI.
type ReadResourceRequest struct {
	URI string `json:"uri"`
}

// ReadResourceResult returns resource contents. An unknown URI yields an
// empty (but present) contents list rather than an error.
type ReadResourceResult struct {
	Contents []ResourceContents `json:"contents"`
	BaseMetadata
}

// ListPromptsRequest requests available prompts.
type ListPromptsRequest struct {
	PaginatedRequest
}

// ListPromptsResult returns available prompts.
type ListPromptsResult struct {
	Prompts []Prompt `json:"prompts"`
	PaginatedResult
	BaseMetadata
}

// GetPromptRequest requests a prompt by name with concrete argument values.
type GetPromptRequest struct {
	Name      string            `json:"name"`
	Arguments map[string]string `json:"arguments,omitempty"`
}

// GetPromptResult returns the materialized prompt messages.
type GetPromptResult struct {
	Description string          `json:"description,omitzero"`
	Messages    []PromptMessage `json:"messages"`
	BaseMetadata
}

// SetLevelRequest sets the server logging level.
type SetLevelRequest struct {
	Level LoggingLevel `json:"level"`
}

// CompleteRequest requests completion suggestions for a prompt or resource
// template argument.
type CompleteRequest struct {
	Ref      CompletionReference `json:"ref"`
	Argument CompleteArgument    `json:"argument"`
}

// CompleteResult contains completion suggestions.
type CompleteResult struct {
	Completion Completion `json:"completion"`
	BaseMetadata
}

// EmptyResult is returned for operations that do not return data (ping,
// logging/setLevel).
type EmptyResult struct {
	BaseMetadata
}

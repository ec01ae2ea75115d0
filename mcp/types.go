package mcp

// ProtocolVersion is the single protocol revision this server speaks.
const ProtocolVersion = "2025-06-18"

// Role indicates the author of a prompt message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// LoggingLevel is a protocol-defined syslog severity.
type LoggingLevel string

const (
	LoggingLevelDebug     LoggingLevel = "debug"
	LoggingLevelInfo      LoggingLevel = "info"
	LoggingLevelNotice    LoggingLevel = "notice"
	LoggingLevelWarning   LoggingLevel = "warning"
	LoggingLevelError     LoggingLevel = "error"
	LoggingLevelCritical  LoggingLevel = "critical"
	LoggingLevelAlert     LoggingLevel = "alert"
	LoggingLevelEmergency LoggingLevel = "emergency"
)

// LoggingLevels lists the accepted severities in increasing order. The slice
// is surfaced in invalid-params diagnostics; do not mutate it.
var LoggingLevels = []LoggingLevel{
	LoggingLevelDebug,
	LoggingLevelInfo,
	LoggingLevelNotice,
	LoggingLevelWarning,
	LoggingLevelError,
	LoggingLevelCritical,
	LoggingLevelAlert,
	LoggingLevelEmergency,
}

// IsValidLoggingLevel reports whether level is one of the protocol-defined
// syslog severities.
func IsValidLoggingLevel(level LoggingLevel) bool {
	for _, l := range LoggingLevels {
		if level == l {
			return true
		}
	}
	return false
}

// ClientCapabilities advertises client features in an initialize request.
// A stateless server records none of them, but the shape is parsed so the
// envelope round-trips cleanly.
type ClientCapabilities struct {
	Roots *struct {
		ListChanged bool `json:"listChanged"`
	} `json:"roots,omitempty"`
	Sampling    *struct{} `json:"sampling,omitempty"`
	Elicitation *struct{} `json:"elicitation,omitempty"`
}

// ServerCapabilities advertises server features in an initialize result.
// The listChanged and subscribe flags are always false here: with no channel
// back to the client there is nothing to notify.
type ServerCapabilities struct {
	Logging *struct{} `json:"logging,omitempty"`
	Prompts *struct {
		ListChanged bool `json:"listChanged"`
	} `json:"prompts,omitempty"`
	Resources *struct {
		ListChanged bool `json:"listChanged"`
		Subscribe   bool `json:"subscribe"`
	} `json:"resources,omitempty"`
	Tools *struct {
		ListChanged bool `json:"listChanged"`
	} `json:"tools,omitempty"`
	Completions *struct{} `json:"completions,omitempty"`
}

// ImplementationInfo identifies an implementation by name and version.
type ImplementationInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Title   string `json:"title,omitzero"`
}

// ContentBlock is a typed content part of a tool result or prompt message.
type ContentBlock struct {
	Type string `json:"type"`
	// For text content
	Text string `json:"text,omitzero"`
	// For image and audio content
	Data     string `json:"data,omitzero"`
	MimeType string `json:"mimeType,omitzero"`
	// For embedded resources
	Resource *ResourceContents `json:"resource,omitempty"`
	// For resource links
	URI         string `json:"uri,omitzero"`
	Name        string `json:"name,omitzero"`
	Description string `json:"description,omitzero"`
}

// Tool describes a callable tool and its input schema.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema ToolInputSchema `json:"inputSchema"`
}

// ToolInputSchema is a JSON-schema-like description of tool input.
type ToolInputSchema struct {
	Type                 string                    `json:"type"`
	Properties           map[string]SchemaProperty `json:"properties,omitempty"`
	Required             []string                  `json:"required,omitempty"`
	AdditionalProperties bool                      `json:"additionalProperties,omitzero"`
}

// SchemaProperty is a simplified schema node used in tool input schemas.
type SchemaProperty struct {
	Type        string                    `json:"type,omitempty"`
	Description string                    `json:"description,omitzero"`
	Items       *SchemaProperty           `json:"items,omitempty"`
	Properties  map[string]SchemaProperty `json:"properties,omitempty"`
	Enum        []any                     `json:"enum,omitempty"`
}

// Resource represents an addressable resource.
type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitzero"`
	MimeType    string `json:"mimeType,omitzero"`
}

// ResourceTemplate describes an RFC 6570 template for resource URIs.
type ResourceTemplate struct {
	URITemplate string `json:"uriTemplate"`
	Name        string `json:"name"`
	Description string `json:"description,omitzero"`
	MimeType    string `json:"mimeType,omitzero"`
}

// ResourceContents is the value of a resource read. LastModified is the only
// time-varying field the protocol carries; providers that track change times
// (e.g. filesystem-backed resources) populate it.
type ResourceContents struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitzero"`
	// For text contents
	Text string `json:"text,omitzero"`
	// For binary contents (base64)
	Blob         string `json:"blob,omitzero"`
	LastModified string `json:"lastModified,omitzero"`
}

// Prompt describes a named prompt the server can materialize.
type Prompt struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitzero"`
	Arguments   []PromptArgument `json:"arguments,omitempty"`
}

// PromptArgument describes a single prompt argument.
type PromptArgument struct {
	Name        string `json:"name"`
	Description string `json:"description,omitzero"`
	Required    bool   `json:"required,omitzero"`
}

// PromptMessage is a message produced by a prompt get.
type PromptMessage struct {
	Role    Role           `json:"role"`
	Content []ContentBlock `json:"content"`
}

// CompletionReference identifies the target of a completion request: a prompt
// by name (type "ref/prompt") or a resource template by URI ("ref/resource").
type CompletionReference struct {
	Type string `json:"type"`
	Name string `json:"name,omitzero"`
	URI  string `json:"uri,omitzero"`
}

// CompleteArgument is the argument being completed and its partial value.
type CompleteArgument struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Completion contains completion suggestions. Total and HasMore are always
// serialized: callers rely on an explicit hasMore:false to know the value
// set is exhaustive.
type Completion struct {
	Values  []string `json:"values"`
	Total   int      `json:"total"`
	HasMore bool     `json:"hasMore"`
}

// Package dispatch routes classified JSON-RPC requests to capability
// implementations. It owns the protocol error taxonomy: unknown methods and
// absent capabilities answer method-not-found, malformed params answer
// invalid-params, and domain misses map to the soft-failure shapes each
// method defines. Go errors that are not protocol errors propagate to the
// transport, which reports them as internal errors.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oneshotmcp/mcp-oneshot-go/internal/jsonrpc"
	"github.com/oneshotmcp/mcp-oneshot-go/internal/logctx"
	"github.com/oneshotmcp/mcp-oneshot-go/mcp"
	"github.com/oneshotmcp/mcp-oneshot-go/registry"
)

type methodHandler func(ctx context.Context, req *jsonrpc.Request) (any, error)

// Dispatcher maps method names to handlers over a capability registry. The
// table is built once at construction; every instance handles any number of
// concurrent requests because neither the table nor the registry mutates.
type Dispatcher struct {
	caps     registry.ServerCapabilities
	log      *slog.Logger
	handlers map[mcp.Method]methodHandler
}

// New constructs a Dispatcher over the given capability registry.
func New(caps registry.ServerCapabilities, log *slog.Logger) *Dispatcher {
	d := &Dispatcher{caps: caps, log: log}
	d.handlers = map[mcp.Method]methodHandler{
		mcp.InitializeMethod:             d.handleInitialize,
		mcp.PingMethod:                   d.handlePing,
		mcp.ToolsListMethod:              d.handleToolsList,
		mcp.ToolsCallMethod:              d.handleToolsCall,
		mcp.ResourcesListMethod:          d.handleResourcesList,
		mcp.ResourcesTemplatesListMethod: d.handleResourcesTemplatesList,
		mcp.ResourcesReadMethod:          d.handleResourcesRead,
		mcp.PromptsListMethod:            d.handlePromptsList,
		mcp.PromptsGetMethod:             d.handlePromptsGet,
		mcp.CompletionCompleteMethod:     d.handleCompletionComplete,
		mcp.LoggingSetLevelMethod:        d.handleLoggingSetLevel,
	}
	return d
}

// HandleRequest dispatches one request and produces its response. The
// returned error is reserved for internal failures; every protocol-level
// failure comes back as an error response with the request's ID echoed.
func (d *Dispatcher) HandleRequest(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	ctx = logctx.WithRPCMessage(ctx, &logctx.RPCMessage{
		Method: req.Method,
		ID:     req.ID.String(),
		Type:   string(jsonrpc.TypeRequest),
	})

	if req.JSONRPCVersion != jsonrpc.Version {
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidRequest, "Invalid Request",
			fmt.Sprintf("unsupported jsonrpc version %q", req.JSONRPCVersion)), nil
	}

	handler, ok := d.handlers[mcp.Method(req.Method)]
	if !ok {
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeMethodNotFound, "Method not found", req.Method), nil
	}

	start := time.Now()
	result, err := handler(ctx, req)
	if err != nil {
		var rpcErr *jsonrpc.Error
		if errors.As(err, &rpcErr) {
			d.log.DebugContext(ctx, "dispatch.handle_request.rpc_error",
				slog.Int("code", int(rpcErr.Code)),
				slog.String("message", rpcErr.Message),
			)
			return &jsonrpc.Response{JSONRPCVersion: jsonrpc.Version, Error: rpcErr, ID: req.ID}, nil
		}
		return nil, err
	}

	res, err := jsonrpc.NewResultResponse(req.ID, result)
	if err != nil {
		return nil, fmt.Errorf("marshal %s result: %w", req.Method, err)
	}
	d.log.InfoContext(ctx, "dispatch.handle_request.ok",
		slog.Int64("dur_ms", time.Since(start).Milliseconds()),
	)
	return res, nil
}

// HandleNotification acknowledges a notification. With no channel back to the
// client there is nothing to do beyond logging; unknown notification methods
// are discarded the same way known ones are.
func (d *Dispatcher) HandleNotification(ctx context.Context, req *jsonrpc.Request) {
	ctx = logctx.WithRPCMessage(ctx, &logctx.RPCMessage{
		Method: req.Method,
		Type:   string(jsonrpc.TypeNotification),
	})
	d.log.DebugContext(ctx, "dispatch.notification.discarded")
}

// decodeParams unmarshals request params into T. Absent params decode to the
// zero value; malformed params become an invalid-params protocol error.
func decodeParams[T any](req *jsonrpc.Request) (*T, error) {
	var v T
	if len(req.Params) == 0 {
		return &v, nil
	}
	if err := json.Unmarshal(req.Params, &v); err != nil {
		return nil, jsonrpc.NewError(jsonrpc.ErrorCodeInvalidParams, "Invalid params", err.Error())
	}
	return &v, nil
}

func cursorArg(c string) *string {
	if c == "" {
		return nil
	}
	return &c
}

func (d *Dispatcher) handleInitialize(ctx context.Context, req *jsonrpc.Request) (any, error) {
	params, err := decodeParams[mcp.InitializeRequest](req)
	if err != nil {
		return nil, err
	}
	d.log.DebugContext(ctx, "dispatch.initialize",
		slog.String("client_name", params.ClientInfo.Name),
		slog.String("client_version", params.ClientInfo.Version),
		slog.String("proposed_protocol", params.ProtocolVersion),
	)

	info, err := d.caps.GetServerInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("get server info: %w", err)
	}

	res := mcp.InitializeResult{
		// The single supported revision, regardless of what the client
		// proposed. The transport-layer version gate handles rejection.
		ProtocolVersion: mcp.ProtocolVersion,
		ServerInfo:      info,
	}

	if instructions, ok, err := d.caps.GetInstructions(ctx); err != nil {
		return nil, fmt.Errorf("get instructions: %w", err)
	} else if ok {
		res.Instructions = instructions
	}

	if _, ok, err := d.caps.GetToolsCapability(ctx); err != nil {
		return nil, fmt.Errorf("get tools capability: %w", err)
	} else if ok {
		res.Capabilities.Tools = &struct {
			ListChanged bool `json:"listChanged"`
		}{}
	}
	if _, ok, err := d.caps.GetResourcesCapability(ctx); err != nil {
		return nil, fmt.Errorf("get resources capability: %w", err)
	} else if ok {
		res.Capabilities.Resources = &struct {
			ListChanged bool `json:"listChanged"`
			Subscribe   bool `json:"subscribe"`
		}{}
	}
	if _, ok, err := d.caps.GetPromptsCapability(ctx); err != nil {
		return nil, fmt.Errorf("get prompts capability: %w", err)
	} else if ok {
		res.Capabilities.Prompts = &struct {
			ListChanged bool `json:"listChanged"`
		}{}
	}
	if _, ok, err := d.caps.GetLoggingCapability(ctx); err != nil {
		return nil, fmt.Errorf("get logging capability: %w", err)
	} else if ok {
		res.Capabilities.Logging = &struct{}{}
	}
	if _, ok, err := d.caps.GetCompletionsCapability(ctx); err != nil {
		return nil, fmt.Errorf("get completions capability: %w", err)
	} else if ok {
		res.Capabilities.Completions = &struct{}{}
	}

	return &res, nil
}

func (d *Dispatcher) handlePing(ctx context.Context, req *jsonrpc.Request) (any, error) {
	return &mcp.EmptyResult{}, nil
}

func (d *Dispatcher) handleToolsList(ctx context.Context, req *jsonrpc.Request) (any, error) {
	tools, ok, err := d.caps.GetToolsCapability(ctx)
	if err != nil {
		return nil, fmt.Errorf("get tools capability: %w", err)
	}
	if !ok {
		return nil, jsonrpc.NewError(jsonrpc.ErrorCodeMethodNotFound, "Method not found", req.Method)
	}
	params, err := decodeParams[mcp.ListToolsRequest](req)
	if err != nil {
		return nil, err
	}
	page, err := tools.ListTools(ctx, cursorArg(params.Cursor))
	if err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}
	res := mcp.ListToolsResult{Tools: page.Items}
	if page.NextCursor != nil {
		res.NextCursor = *page.NextCursor
	}
	return &res, nil
}

func (d *Dispatcher) handleToolsCall(ctx context.Context, req *jsonrpc.Request) (any, error) {
	tools, ok, err := d.caps.GetToolsCapability(ctx)
	if err != nil {
		return nil, fmt.Errorf("get tools capability: %w", err)
	}
	if !ok {
		return nil, jsonrpc.NewError(jsonrpc.ErrorCodeMethodNotFound, "Method not found", req.Method)
	}
	params, err := decodeParams[mcp.CallToolRequest](req)
	if err != nil {
		return nil, err
	}
	if params.Name == "" {
		return nil, jsonrpc.NewError(jsonrpc.ErrorCodeInvalidParams, "Invalid params", "missing tool name")
	}

	ctx = logctx.WithToolCallData(ctx, &logctx.ToolCallData{ToolName: params.Name})
	start := time.Now()
	res, err := tools.CallTool(ctx, params)
	if err != nil {
		// An unknown tool is a domain failure the caller can render, not a
		// protocol violation.
		if errors.Is(err, registry.ErrToolNotFound) {
			return &mcp.CallToolResult{
				Content: []mcp.ContentBlock{{Type: "text", Text: err.Error()}},
				IsError: true,
			}, nil
		}
		return nil, fmt.Errorf("call tool %s: %w", params.Name, err)
	}
	d.log.InfoContext(ctx, "dispatch.tool_call.ok",
		slog.Bool("is_error", res.IsError),
		slog.Int64("dur_ms", time.Since(start).Milliseconds()),
	)
	return res, nil
}

func (d *Dispatcher) handleResourcesList(ctx context.Context, req *jsonrpc.Request) (any, error) {
	resources, ok, err := d.caps.GetResourcesCapability(ctx)
	if err != nil {
		return nil, fmt.Errorf("get resources capability: %w", err)
	}
	if !ok {
		return nil, jsonrpc.NewError(jsonrpc.ErrorCodeMethodNotFound, "Method not found", req.Method)
	}
	params, err := decodeParams[mcp.ListResourcesRequest](req)
	if err != nil {
		return nil, err
	}
	page, err := resources.ListResources(ctx, cursorArg(params.Cursor))
	if err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	res := mcp.ListResourcesResult{Resources: page.Items}
	if page.NextCursor != nil {
		res.NextCursor = *page.NextCursor
	}
	return &res, nil
}

func (d *Dispatcher) handleResourcesTemplatesList(ctx context.Context, req *jsonrpc.Request) (any, error) {
	resources, ok, err := d.caps.GetResourcesCapability(ctx)
	if err != nil {
		return nil, fmt.Errorf("get resources capability: %w", err)
	}
	if !ok {
		return nil, jsonrpc.NewError(jsonrpc.ErrorCodeMethodNotFound, "Method not found", req.Method)
	}
	params, err := decodeParams[mcp.ListResourceTemplatesRequest](req)
	if err != nil {
		return nil, err
	}
	page, err := resources.ListResourceTemplates(ctx, cursorArg(params.Cursor))
	if err != nil {
		return nil, fmt.Errorf("list resource templates: %w", err)
	}
	res := mcp.ListResourceTemplatesResult{ResourceTemplates: page.Items}
	if page.NextCursor != nil {
		res.NextCursor = *page.NextCursor
	}
	return &res, nil
}

func (d *Dispatcher) handleResourcesRead(ctx context.Context, req *jsonrpc.Request) (any, error) {
	resources, ok, err := d.caps.GetResourcesCapability(ctx)
	if err != nil {
		return nil, fmt.Errorf("get resources capability: %w", err)
	}
	if !ok {
		return nil, jsonrpc.NewError(jsonrpc.ErrorCodeMethodNotFound, "Method not found", req.Method)
	}
	params, err := decodeParams[mcp.ReadResourceRequest](req)
	if err != nil {
		return nil, err
	}
	if params.URI == "" {
		return nil, jsonrpc.NewError(jsonrpc.ErrorCodeInvalidParams, "Invalid params", "missing resource uri")
	}
	contents, err := resources.ReadResource(ctx, params.URI)
	if err != nil {
		// Unknown URIs read as empty, so probing for resources is cheap and
		// never trips a protocol error.
		if errors.Is(err, registry.ErrResourceNotFound) {
			d.log.DebugContext(ctx, "dispatch.resource_read.not_found", slog.String("uri", params.URI))
			return &mcp.ReadResourceResult{Contents: []mcp.ResourceContents{}}, nil
		}
		return nil, fmt.Errorf("read resource %s: %w", params.URI, err)
	}
	if contents == nil {
		contents = []mcp.ResourceContents{}
	}
	return &mcp.ReadResourceResult{Contents: contents}, nil
}

func (d *Dispatcher) handlePromptsList(ctx context.Context, req *jsonrpc.Request) (any, error) {
	prompts, ok, err := d.caps.GetPromptsCapability(ctx)
	if err != nil {
		return nil, fmt.Errorf("get prompts capability: %w", err)
	}
	if !ok {
		return nil, jsonrpc.NewError(jsonrpc.ErrorCodeMethodNotFound, "Method not found", req.Method)
	}
	params, err := decodeParams[mcp.ListPromptsRequest](req)
	if err != nil {
		return nil, err
	}
	page, err := prompts.ListPrompts(ctx, cursorArg(params.Cursor))
	if err != nil {
		return nil, fmt.Errorf("list prompts: %w", err)
	}
	res := mcp.ListPromptsResult{Prompts: page.Items}
	if page.NextCursor != nil {
		res.NextCursor = *page.NextCursor
	}
	return &res, nil
}

func (d *Dispatcher) handlePromptsGet(ctx context.Context, req *jsonrpc.Request) (any, error) {
	prompts, ok, err := d.caps.GetPromptsCapability(ctx)
	if err != nil {
		return nil, fmt.Errorf("get prompts capability: %w", err)
	}
	if !ok {
		return nil, jsonrpc.NewError(jsonrpc.ErrorCodeMethodNotFound, "Method not found", req.Method)
	}
	params, err := decodeParams[mcp.GetPromptRequest](req)
	if err != nil {
		return nil, err
	}
	if params.Name == "" {
		return nil, jsonrpc.NewError(jsonrpc.ErrorCodeInvalidParams, "Invalid params", "missing prompt name")
	}
	res, err := prompts.GetPrompt(ctx, params)
	if err != nil {
		if errors.Is(err, registry.ErrPromptNotFound) {
			return nil, jsonrpc.NewError(jsonrpc.ErrorCodeInvalidParams, "Invalid params", err.Error())
		}
		return nil, fmt.Errorf("get prompt %s: %w", params.Name, err)
	}
	return res, nil
}

func (d *Dispatcher) handleCompletionComplete(ctx context.Context, req *jsonrpc.Request) (any, error) {
	completions, ok, err := d.caps.GetCompletionsCapability(ctx)
	if err != nil {
		return nil, fmt.Errorf("get completions capability: %w", err)
	}
	if !ok {
		return nil, jsonrpc.NewError(jsonrpc.ErrorCodeMethodNotFound, "Method not found", req.Method)
	}
	params, err := decodeParams[mcp.CompleteRequest](req)
	if err != nil {
		return nil, err
	}
	res, err := completions.Complete(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("complete: %w", err)
	}
	return res, nil
}

func (d *Dispatcher) handleLoggingSetLevel(ctx context.Context, req *jsonrpc.Request) (any, error) {
	logging, ok, err := d.caps.GetLoggingCapability(ctx)
	if err != nil {
		return nil, fmt.Errorf("get logging capability: %w", err)
	}
	if !ok {
		return nil, jsonrpc.NewError(jsonrpc.ErrorCodeMethodNotFound, "Method not found", req.Method)
	}
	params, err := decodeParams[mcp.SetLevelRequest](req)
	if err != nil {
		return nil, err
	}
	if err := logging.SetLevel(ctx, params.Level); err != nil {
		if errors.Is(err, registry.ErrInvalidLoggingLevel) {
			return nil, jsonrpc.NewError(jsonrpc.ErrorCodeInvalidParams, "Invalid params", map[string]any{
				"level":    params.Level,
				"accepted": mcp.LoggingLevels,
			})
		}
		return nil, fmt.Errorf("set level: %w", err)
	}
	d.log.InfoContext(ctx, "dispatch.log_level.set", slog.String("level", string(params.Level)))
	return &mcp.EmptyResult{}, nil
}

package statelesshttp

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/elnormous/contenttype"
	"github.com/google/uuid"

	"github.com/oneshotmcp/mcp-oneshot-go/internal/dispatch"
	"github.com/oneshotmcp/mcp-oneshot-go/internal/jsonrpc"
	"github.com/oneshotmcp/mcp-oneshot-go/internal/logctx"
	"github.com/oneshotmcp/mcp-oneshot-go/mcp"
	"github.com/oneshotmcp/mcp-oneshot-go/registry"
)

const defaultMaxBodyBytes = 4 << 20

// Handler is the stateless HTTP transport. It owns the outermost error
// boundary: any failure below it (body decode, dispatch, handler panic) is
// reported as an internal JSON-RPC error with a null id and HTTP 500.
type Handler struct {
	endpoint     string
	caps         registry.ServerCapabilities
	dispatcher   *dispatch.Dispatcher
	log          *slog.Logger
	maxBodyBytes int64
	mux          *http.ServeMux

	jsonMediaType []contenttype.MediaType
	sseMediaType  []contenttype.MediaType
}

// Option configures the Handler.
type Option func(*Handler)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(h *Handler) { h.log = log }
}

// WithMaxBodyBytes caps the accepted request body size.
func WithMaxBodyBytes(n int64) Option {
	return func(h *Handler) { h.maxBodyBytes = n }
}

// New constructs the transport handler serving JSON-RPC at endpoint. The
// endpoint must be a rooted path ("/mcp").
func New(endpoint string, caps registry.ServerCapabilities, opts ...Option) (*Handler, error) {
	if !strings.HasPrefix(endpoint, "/") {
		return nil, fmt.Errorf("endpoint must be a rooted path, got %q", endpoint)
	}

	h := &Handler{
		endpoint:      endpoint,
		caps:          caps,
		maxBodyBytes:  defaultMaxBodyBytes,
		jsonMediaType: []contenttype.MediaType{contenttype.NewMediaType("application/json")},
		sseMediaType:  []contenttype.MediaType{contenttype.NewMediaType("text/event-stream")},
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.log == nil {
		h.log = slog.Default()
	}
	h.dispatcher = dispatch.New(caps, h.log)

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+endpoint, h.handlePost)
	mux.HandleFunc("GET "+endpoint, h.handleGet)
	mux.HandleFunc("OPTIONS "+endpoint, h.handleOptions)
	// Catch remaining verbs on the endpoint explicitly so they answer 405
	// rather than the mux default.
	mux.HandleFunc(endpoint, h.handleMethodNotAllowed)
	if endpoint != "/" {
		mux.HandleFunc("GET /{$}", h.handleDescriptor)
	}
	h.mux = mux
	return h, nil
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := logctx.WithRequestData(r.Context(), &logctx.RequestData{
		RequestID:  uuid.NewString(),
		Method:     r.Method,
		UserAgent:  r.UserAgent(),
		RemoteAddr: r.RemoteAddr,
		Path:       r.URL.Path,
	})
	r = r.WithContext(ctx)

	defer func() {
		if rec := recover(); rec != nil {
			h.log.ErrorContext(ctx, "http.panic", slog.Any("panic", rec))
			h.writeInternalError(w, fmt.Sprintf("%v", rec))
		}
	}()

	// A mismatched protocol version header fails before any envelope is
	// read; the response is deliberately not JSON-RPC shaped.
	if v := r.Header.Get("MCP-Protocol-Version"); v != "" && v != mcp.ProtocolVersion {
		h.log.InfoContext(ctx, "http.protocol_version.rejected", slog.String("version", v))
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "unsupported MCP-Protocol-Version %q; this server speaks %s\n", v, mcp.ProtocolVersion)
		return
	}

	h.mux.ServeHTTP(w, r)
}

func (h *Handler) handlePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Header.Get("Accept") == "" {
		h.writeError(w, http.StatusBadRequest, jsonrpc.NewErrorResponse(
			jsonrpc.NullID(), jsonrpc.ErrorCodeInvalidRequest, "Must accept application/json", nil))
		return
	}
	if _, _, err := contenttype.GetAcceptableMediaType(r, h.jsonMediaType); err != nil {
		h.writeError(w, http.StatusBadRequest, jsonrpc.NewErrorResponse(
			jsonrpc.NullID(), jsonrpc.ErrorCodeInvalidRequest, "Must accept application/json", nil))
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		h.writeInternalError(w, fmt.Sprintf("read body: %v", err))
		return
	}

	var msg jsonrpc.AnyMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		h.writeInternalError(w, err.Error())
		return
	}

	switch msg.Type() {
	case jsonrpc.TypeNotification:
		h.dispatcher.HandleNotification(ctx, msg.AsRequest())
		w.WriteHeader(http.StatusAccepted)
		return
	case jsonrpc.TypeResponse:
		// A stateless server issues no requests, so a response-shaped
		// envelope has nothing to correlate with. Acknowledge and drop.
		h.log.DebugContext(ctx, "http.response_envelope.discarded")
		w.WriteHeader(http.StatusAccepted)
		return
	}

	res, err := h.dispatcher.HandleRequest(ctx, msg.AsRequest())
	if err != nil {
		h.log.ErrorContext(ctx, "http.dispatch.internal_error", slog.String("err", err.Error()))
		h.writeInternalError(w, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(res); err != nil {
		h.log.ErrorContext(ctx, "http.write_response.failed", slog.String("err", err.Error()))
	}
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	// Streaming clients open a GET with an event-stream Accept; answer with
	// the one verb this transport supports so they fail fast.
	if r.Header.Get("Accept") != "" {
		if _, _, err := contenttype.GetAcceptableMediaType(r, h.sseMediaType); err == nil {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "streaming is not supported; POST one JSON-RPC message per request", http.StatusMethodNotAllowed)
			return
		}
	}
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
}

func (h *Handler) handleOptions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, MCP-Protocol-Version")
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", "POST, OPTIONS")
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
}

// handleDescriptor serves a small identity document at the root so operators
// can confirm what is running without speaking JSON-RPC.
func (h *Handler) handleDescriptor(w http.ResponseWriter, r *http.Request) {
	info, err := h.caps.GetServerInfo(r.Context())
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"name":      info.Name,
		"version":   info.Version,
		"protocol":  mcp.ProtocolVersion,
		"transport": "stateless-http",
	})
}

func (h *Handler) writeError(w http.ResponseWriter, status int, res *jsonrpc.Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(res)
}

func (h *Handler) writeInternalError(w http.ResponseWriter, detail string) {
	h.writeError(w, http.StatusInternalServerError, jsonrpc.NewErrorResponse(
		jsonrpc.NullID(), jsonrpc.ErrorCodeInternalError, "Internal error", detail))
}

package statelesshttp_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/oneshotmcp/mcp-oneshot-go/demoserver"
	"github.com/oneshotmcp/mcp-oneshot-go/mcp"
	"github.com/oneshotmcp/mcp-oneshot-go/statelesshttp"
)

type rpcError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type rpcEnvelope struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
	ID      json.RawMessage `json:"id"`
}

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	caps, err := demoserver.New(new(slog.LevelVar))
	if err != nil {
		t.Fatalf("build demo capabilities: %v", err)
	}
	h, err := statelesshttp.New("/mcp", caps,
		statelesshttp.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	return h
}

func post(t *testing.T, h http.Handler, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) rpcEnvelope {
	t.Helper()
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("expected application/json response, got %q", ct)
	}
	var env rpcEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v\nbody: %s", err, rec.Body.String())
	}
	return env
}

func TestPing(t *testing.T) {
	h := newTestHandler(t)

	rec := post(t, h, `{"jsonrpc":"2.0","method":"ping","id":7}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Error != nil {
		t.Fatalf("unexpected error: %+v", env.Error)
	}
	if string(env.ID) != "7" {
		t.Fatalf("expected echoed id 7, got %s", env.ID)
	}
	if string(env.Result) != "{}" {
		t.Fatalf("expected empty object result, got %s", env.Result)
	}
}

func TestEchoTool(t *testing.T) {
	h := newTestHandler(t)

	rec := post(t, h, `{"jsonrpc":"2.0","method":"tools/call","params":{"name":"echo","arguments":{"text":"hi"}},"id":1}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Error != nil {
		t.Fatalf("unexpected error: %+v", env.Error)
	}
	var result mcp.CallToolResult
	if err := json.Unmarshal(env.Result, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected isError: %+v", result)
	}
	if len(result.Content) != 1 || result.Content[0].Text != "Echo: hi" {
		t.Fatalf("expected Echo: hi, got %+v", result.Content)
	}
}

func TestEchoToolMissingTextIsSoftFailure(t *testing.T) {
	h := newTestHandler(t)

	rec := post(t, h, `{"jsonrpc":"2.0","method":"tools/call","params":{"name":"echo","arguments":{}},"id":1}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Error != nil {
		t.Fatalf("expected success envelope, got error %+v", env.Error)
	}
	var result mcp.CallToolResult
	if err := json.Unmarshal(env.Result, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if !result.IsError {
		t.Fatalf("expected isError result, got %+v", result)
	}
}

func TestCompletionComplete(t *testing.T) {
	h := newTestHandler(t)

	rec := post(t, h, `{"jsonrpc":"2.0","method":"completion/complete","params":{"ref":{"type":"ref/prompt","name":"greeting"},"argument":{"name":"language","value":"sp"}},"id":1}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Error != nil {
		t.Fatalf("unexpected error: %+v", env.Error)
	}

	// total and hasMore must be serialized even at their zero values.
	var raw struct {
		Completion map[string]json.RawMessage `json:"completion"`
	}
	if err := json.Unmarshal(env.Result, &raw); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if string(raw.Completion["values"]) != `["Spanish"]` {
		t.Fatalf("expected [\"Spanish\"], got %s", raw.Completion["values"])
	}
	if string(raw.Completion["total"]) != "1" {
		t.Fatalf("expected total 1, got %s", raw.Completion["total"])
	}
	if string(raw.Completion["hasMore"]) != "false" {
		t.Fatalf("expected explicit hasMore false, got %s", raw.Completion["hasMore"])
	}
}

func TestSetLevelRejectsUnknownSeverity(t *testing.T) {
	h := newTestHandler(t)

	rec := post(t, h, `{"jsonrpc":"2.0","method":"logging/setLevel","params":{"level":"bogus"},"id":1}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Error == nil || env.Error.Code != -32602 {
		t.Fatalf("expected -32602, got %+v", env.Error)
	}
	if !strings.Contains(string(env.Error.Data), "debug") {
		t.Fatalf("expected accepted levels in error data, got %s", env.Error.Data)
	}
}

func TestUnknownMethod(t *testing.T) {
	h := newTestHandler(t)

	for _, method := range []string{"no/such/method", "PING"} {
		rec := post(t, h, `{"jsonrpc":"2.0","method":"`+method+`","id":1}`, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", method, rec.Code)
		}
		env := decodeEnvelope(t, rec)
		if env.Error == nil || env.Error.Code != -32601 {
			t.Fatalf("%s: expected -32601, got %+v", method, env.Error)
		}
	}
}

func TestNotificationsAndResponsesAreAccepted(t *testing.T) {
	h := newTestHandler(t)

	bodies := []string{
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized","id":null}`,
		`{"jsonrpc":"2.0","result":{},"id":9}`,
	}
	for _, body := range bodies {
		rec := post(t, h, body, nil)
		if rec.Code != http.StatusAccepted {
			t.Fatalf("%s: expected 202, got %d", body, rec.Code)
		}
		if rec.Body.Len() != 0 {
			t.Fatalf("%s: expected empty body, got %s", body, rec.Body.String())
		}
	}
}

func TestMalformedBodyIsInternalError(t *testing.T) {
	h := newTestHandler(t)

	bodies := []string{
		`{not json`,
		`{"jsonrpc":"2.0","id":1}`,
		`{"jsonrpc":"2.0","method":"ping","result":{},"id":1}`,
	}
	for _, body := range bodies {
		rec := post(t, h, body, nil)
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("%s: expected 500, got %d", body, rec.Code)
		}
		env := decodeEnvelope(t, rec)
		if env.Error == nil || env.Error.Code != -32603 {
			t.Fatalf("%s: expected -32603, got %+v", body, env.Error)
		}
		if string(env.ID) != "null" {
			t.Fatalf("%s: expected id null, got %s", body, env.ID)
		}
	}
}

func TestAcceptHeaderIsRequired(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(`{"jsonrpc":"2.0","method":"ping","id":1}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Error == nil || env.Error.Code != -32600 {
		t.Fatalf("expected -32600, got %+v", env.Error)
	}
	if string(env.ID) != "null" {
		t.Fatalf("expected id null, got %s", env.ID)
	}

	rec = post(t, h, `{"jsonrpc":"2.0","method":"ping","id":1}`, map[string]string{"Accept": "text/html"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-json accept, got %d", rec.Code)
	}
}

func TestProtocolVersionHeaderGate(t *testing.T) {
	h := newTestHandler(t)

	rec := post(t, h, `{"jsonrpc":"2.0","method":"ping","id":1}`, map[string]string{
		"MCP-Protocol-Version": "1999-01-01",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("expected text/plain rejection, got %q", ct)
	}

	// The current version passes the gate.
	rec = post(t, h, `{"jsonrpc":"2.0","method":"ping","id":1}`, map[string]string{
		"MCP-Protocol-Version": mcp.ProtocolVersion,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestVerbGating(t *testing.T) {
	h := newTestHandler(t)

	// GET asking for an event stream advertises POST as the only verb.
	req := httptest.NewRequest(http.MethodGet, "/mcp", nil)
	req.Header.Set("Accept", "text/event-stream")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
	if got := rec.Header().Get("Allow"); got != http.MethodPost {
		t.Fatalf("expected Allow: POST, got %q", got)
	}

	// Plain GET and DELETE are rejected too.
	for _, method := range []string{http.MethodGet, http.MethodDelete, http.MethodPut} {
		req := httptest.NewRequest(method, "/mcp", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s: expected 405, got %d", method, rec.Code)
		}
	}
}

func TestOptionsPreflight(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodOptions, "/mcp", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("Allow"), http.MethodPost) {
		t.Fatalf("expected POST in Allow, got %q", rec.Header().Get("Allow"))
	}
}

func TestRootDescriptor(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var desc map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &desc); err != nil {
		t.Fatalf("decode descriptor: %v", err)
	}
	if desc["name"] != demoserver.ServerName {
		t.Fatalf("expected name %s, got %s", demoserver.ServerName, desc["name"])
	}
	if desc["protocol"] != mcp.ProtocolVersion {
		t.Fatalf("expected protocol %s, got %s", mcp.ProtocolVersion, desc["protocol"])
	}
	if desc["transport"] != "stateless-http" {
		t.Fatalf("expected stateless-http transport, got %s", desc["transport"])
	}
}

func TestUnknownPath(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestIdenticalRequestsProduceIdenticalResponses(t *testing.T) {
	h := newTestHandler(t)

	body := `{"jsonrpc":"2.0","method":"tools/list","id":1}`
	first := post(t, h, body, nil)
	second := post(t, h, body, nil)
	if first.Code != http.StatusOK || second.Code != http.StatusOK {
		t.Fatalf("expected 200s, got %d and %d", first.Code, second.Code)
	}
	if first.Body.String() != second.Body.String() {
		t.Fatalf("expected byte-identical responses:\n%s\n%s", first.Body.String(), second.Body.String())
	}
}

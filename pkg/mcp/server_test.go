package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/osbeck/labops/pkg/fault"
	"github.com/osbeck/labops/pkg/tool"
)

type stubTool struct {
	name    string
	result  any
	err     error
	gotArgs map[string]interface{}
}

func (s *stubTool) Name() string        { return s.name }
func (s *stubTool) Description() string { return "stub tool for transport tests" }

func (s *stubTool) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"n": map[string]string{"type": "integer"},
		},
		"additionalProperties": false,
	}
}

func (s *stubTool) Execute(ctx context.Context, input map[string]interface{}) (any, error) {
	s.gotArgs = input
	return s.result, s.err
}

type wireResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

func newStubServer(t *testing.T, tools ...tool.Tool) *Server {
	t.Helper()
	registry, err := tool.NewRegistry(tools...)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return NewServer(registry)
}

// runSession feeds the messages to a fresh server and returns every
// response it wrote, in order.
func runSession(t *testing.T, srv *Server, messages ...string) []wireResponse {
	t.Helper()
	var in bytes.Buffer
	for _, m := range messages {
		in.WriteString(m)
		if !strings.HasSuffix(m, "\n") && !strings.Contains(m, "Content-Length") {
			in.WriteString("\n")
		}
	}
	var out bytes.Buffer
	if err := srv.Serve(&in, &out); err != nil {
		t.Fatalf("Serve: %v", err)
	}

	responses := []wireResponse{}
	r := bufio.NewReader(&out)
	for {
		payload, err := readMessage(r)
		if err != nil {
			break
		}
		var resp wireResponse
		if err := json.Unmarshal(payload, &resp); err != nil {
			t.Fatalf("bad response %q: %v", payload, err)
		}
		responses = append(responses, resp)
	}
	return responses
}

const initRequest = `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","clientInfo":{"name":"test"}}}`

func TestServeInitializeHandshake(t *testing.T) {
	srv := newStubServer(t, &stubTool{name: "noop"})
	responses := runSession(t, srv,
		initRequest,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
	)
	if len(responses) != 2 {
		t.Fatalf("expected 2 responses (notification is silent), got %d", len(responses))
	}

	var init struct {
		ProtocolVersion string `json:"protocolVersion"`
		ServerInfo      struct {
			Name string `json:"name"`
		} `json:"serverInfo"`
		Capabilities map[string]any `json:"capabilities"`
	}
	if err := json.Unmarshal(responses[0].Result, &init); err != nil {
		t.Fatalf("initialize result: %v", err)
	}
	if init.ProtocolVersion != "2024-11-05" {
		t.Fatalf("unexpected protocol version %q", init.ProtocolVersion)
	}
	if init.ServerInfo.Name != "labops" {
		t.Fatalf("unexpected server name %q", init.ServerInfo.Name)
	}
	if _, ok := init.Capabilities["tools"]; !ok {
		t.Fatalf("expected tools capability, got %v", init.Capabilities)
	}
}

func TestServeGatesRequestsBeforeInitialize(t *testing.T) {
	srv := newStubServer(t, &stubTool{name: "noop"})
	responses := runSession(t, srv,
		`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`,
		`{"jsonrpc":"2.0","id":2,"method":"ping"}`,
	)
	if len(responses) != 2 {
		t.Fatalf("expected 2 responses, got %d", len(responses))
	}
	if responses[0].Error == nil || responses[0].Error.Code != -32002 {
		t.Fatalf("expected -32002 before initialize, got %+v", responses[0].Error)
	}
	if responses[1].Error != nil {
		t.Fatalf("ping should work before initialize, got %+v", responses[1].Error)
	}
}

func TestServeToolsList(t *testing.T) {
	srv := newStubServer(t, &stubTool{name: "alpha"}, &stubTool{name: "beta"})
	responses := runSession(t, srv,
		initRequest,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
	)
	var list struct {
		Tools []Tool `json:"tools"`
	}
	if err := json.Unmarshal(responses[1].Result, &list); err != nil {
		t.Fatalf("tools/list result: %v", err)
	}
	if len(list.Tools) != 2 || list.Tools[0].Name != "alpha" || list.Tools[1].Name != "beta" {
		t.Fatalf("unexpected tool list: %+v", list.Tools)
	}
	if list.Tools[0].InputSchema["type"] != "object" {
		t.Fatalf("expected input schema, got %v", list.Tools[0].InputSchema)
	}
}

func TestServeToolsCall(t *testing.T) {
	stub := &stubTool{name: "alpha", result: map[string]string{"state": "done"}}
	srv := newStubServer(t, stub)
	responses := runSession(t, srv,
		initRequest,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"alpha","arguments":{"n":3}}}`,
	)

	var result ToolResult
	if err := json.Unmarshal(responses[1].Result, &result); err != nil {
		t.Fatalf("tools/call result: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error result: %+v", result)
	}
	if len(result.Content) != 1 || result.Content[0].Type != "text" {
		t.Fatalf("expected one text block, got %+v", result.Content)
	}
	if !strings.Contains(result.Content[0].Text, `"state": "done"`) {
		t.Fatalf("expected rendered JSON, got %q", result.Content[0].Text)
	}

	n, ok := stub.gotArgs["n"].(json.Number)
	if !ok {
		t.Fatalf("expected json.Number argument, got %T", stub.gotArgs["n"])
	}
	if n.String() != "3" {
		t.Fatalf("expected 3, got %s", n)
	}
}

func TestServeToolsCallStringResult(t *testing.T) {
	srv := newStubServer(t, &stubTool{name: "alpha", result: "plain text"})
	responses := runSession(t, srv,
		initRequest,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"alpha","arguments":{}}}`,
	)
	var result ToolResult
	if err := json.Unmarshal(responses[1].Result, &result); err != nil {
		t.Fatalf("tools/call result: %v", err)
	}
	if result.Content[0].Text != "plain text" {
		t.Fatalf("string results should pass through, got %q", result.Content[0].Text)
	}
}

func TestServeToolsCallUnknownTool(t *testing.T) {
	srv := newStubServer(t, &stubTool{name: "alpha"})
	responses := runSession(t, srv,
		initRequest,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"ghost","arguments":{}}}`,
	)
	if responses[1].Error == nil || responses[1].Error.Code != -32602 {
		t.Fatalf("expected -32602 for unknown tool, got %+v", responses[1].Error)
	}
}

func TestServeToolsCallSchemaViolation(t *testing.T) {
	srv := newStubServer(t, &stubTool{name: "alpha"})
	responses := runSession(t, srv,
		initRequest,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"alpha","arguments":{"n":"three"}}}`,
	)
	var result ToolResult
	if err := json.Unmarshal(responses[1].Result, &result); err != nil {
		t.Fatalf("tools/call result: %v", err)
	}
	if !result.IsError {
		t.Fatalf("expected error result, got %+v", result)
	}
	data := result.Data.(map[string]any)
	if data["kind"] != "validation" {
		t.Fatalf("expected validation kind, got %v", data)
	}
	if data["retryable"] != false {
		t.Fatalf("validation must not be retryable: %v", data)
	}
}

func TestServeToolsCallFaultMapping(t *testing.T) {
	stub := &stubTool{name: "alpha", err: fault.Timeout("command exceeded 5s")}
	srv := newStubServer(t, stub)
	responses := runSession(t, srv,
		initRequest,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"alpha","arguments":{}}}`,
	)
	var result ToolResult
	if err := json.Unmarshal(responses[1].Result, &result); err != nil {
		t.Fatalf("tools/call result: %v", err)
	}
	if !result.IsError {
		t.Fatalf("expected error result, got %+v", result)
	}
	if !strings.Contains(result.Content[0].Text, "command exceeded") {
		t.Fatalf("expected fault message, got %q", result.Content[0].Text)
	}
	data := result.Data.(map[string]any)
	if data["kind"] != "timeout" || data["retryable"] != true {
		t.Fatalf("unexpected fault data: %v", data)
	}
}

func TestServeMethodNotFound(t *testing.T) {
	srv := newStubServer(t, &stubTool{name: "alpha"})
	responses := runSession(t, srv,
		initRequest,
		`{"jsonrpc":"2.0","id":2,"method":"labops/bogus"}`,
	)
	if responses[1].Error == nil || responses[1].Error.Code != -32601 {
		t.Fatalf("expected -32601, got %+v", responses[1].Error)
	}
}

func TestServeInvalidRequest(t *testing.T) {
	srv := newStubServer(t, &stubTool{name: "alpha"})
	responses := runSession(t, srv,
		`{"jsonrpc":"2.0","id":7}`,
	)
	if len(responses) != 1 || responses[0].Error == nil || responses[0].Error.Code != -32600 {
		t.Fatalf("expected -32600 for missing method, got %+v", responses)
	}
}

func TestServeSkipsGarbageAndRecovers(t *testing.T) {
	srv := newStubServer(t, &stubTool{name: "alpha"})
	responses := runSession(t, srv,
		`{this is not json`,
		initRequest,
	)
	// The garbage line has no usable id, so no parse-error response is
	// possible; the session must still continue.
	if len(responses) != 1 {
		t.Fatalf("expected 1 response, got %d", len(responses))
	}
	if responses[0].Error != nil {
		t.Fatalf("initialize after garbage failed: %+v", responses[0].Error)
	}
}

func TestServeContentLengthFraming(t *testing.T) {
	srv := newStubServer(t, &stubTool{name: "alpha"})
	framed := fmt.Sprintf("Content-Length: %d\r\n\r\n%s", len(initRequest), initRequest)
	responses := runSession(t, srv,
		framed,
		`{"jsonrpc":"2.0","id":2,"method":"ping"}`,
	)
	if len(responses) != 2 {
		t.Fatalf("expected 2 responses, got %d", len(responses))
	}
	if responses[0].Error != nil || responses[1].Error != nil {
		t.Fatalf("unexpected errors: %+v", responses)
	}
}

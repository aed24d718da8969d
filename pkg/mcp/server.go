package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"log/slog"

	"github.com/osbeck/labops/pkg/fault"
	"github.com/osbeck/labops/pkg/tool"
	"github.com/osbeck/labops/pkg/version"
)

const protocolVersion = "2024-11-05"

// Server speaks MCP over a reader/writer pair, stdio in production. One
// request is handled at a time, in arrival order.
type Server struct {
	registry    *tool.Registry
	logger      *slog.Logger
	initialized bool
}

func NewServer(registry *tool.Registry) *Server {
	return &Server{registry: registry}
}

func (s *Server) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

func (s *Server) Serve(reader io.Reader, writer io.Writer) error {
	bufReader := bufio.NewReader(reader)
	bufWriter := bufio.NewWriter(writer)

	for {
		payload, err := readMessage(bufReader)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			s.logError("mcp_read_failed", "error", err)
			return err
		}

		var req rpcRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			s.logWarn("mcp_parse_error", "error", err)
			_ = writeError(bufWriter, req.ID, -32700, "parse error", err.Error())
			continue
		}

		if req.Method == "" {
			_ = writeError(bufWriter, req.ID, -32600, "invalid request", "missing method")
			continue
		}

		switch req.Method {
		case "initialize":
			s.initialized = true
			_ = writeResult(bufWriter, req.ID, map[string]any{
				"protocolVersion": protocolVersion,
				"capabilities": map[string]any{
					"tools": map[string]any{},
				},
				"serverInfo": map[string]any{
					"name":    "labops",
					"version": version.Version,
				},
			})
		case "notifications/initialized":
			// Acknowledgment notification; nothing to answer.
		case "ping":
			_ = writeResult(bufWriter, req.ID, map[string]any{})
		default:
			if !s.initialized {
				_ = writeError(bufWriter, req.ID, -32002, "server not initialized", req.Method)
				continue
			}
			switch req.Method {
			case "tools/list":
				_ = writeResult(bufWriter, req.ID, map[string]any{
					"tools": s.listTools(),
				})
			case "tools/call":
				_ = s.handleToolsCall(req.ID, req.Params, bufWriter)
			default:
				_ = writeError(bufWriter, req.ID, -32601, "method not found", req.Method)
			}
		}
	}
}

func (s *Server) ServeStdio() error {
	return s.Serve(os.Stdin, os.Stdout)
}

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id,omitempty"`
	Result  interface{} `json:"result,omitempty"`
	Error   *rpcError   `json:"error,omitempty"`
}

type rpcError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type callParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

func (s *Server) listTools() []Tool {
	tools := s.registry.List()
	out := make([]Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, Tool{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: t.Schema(),
		})
	}
	return out
}

func (s *Server) handleToolsCall(id interface{}, params json.RawMessage, writer *bufio.Writer) error {
	var call callParams
	if err := decodeParams(params, &call); err != nil {
		return writeError(writer, id, -32602, "invalid params", err.Error())
	}
	if call.Name == "" {
		return writeError(writer, id, -32602, "invalid params", "missing tool name")
	}
	t, ok := s.registry.Get(call.Name)
	if !ok {
		return writeError(writer, id, -32602, "invalid params", "unknown tool: "+call.Name)
	}

	if err := s.registry.ValidateArgs(call.Name, call.Arguments); err != nil {
		s.logWarn("tool_args_rejected", "tool", call.Name, "error", err)
		return writeResult(writer, id, faultResult(err))
	}

	s.logInfo("tool_call", "tool", call.Name)
	out, err := t.Execute(context.Background(), call.Arguments)
	if err != nil {
		s.logWarn("tool_call_failed", "tool", call.Name, "kind", string(fault.KindOf(err)), "error", err)
		return writeResult(writer, id, faultResult(err))
	}
	return writeResult(writer, id, successResult(out))
}

// decodeParams keeps numbers as json.Number so integer arguments and
// override values survive without float mangling.
func decodeParams(params json.RawMessage, v any) error {
	if len(params) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(params))
	dec.UseNumber()
	return dec.Decode(v)
}

// faultResult renders a handler failure as an in-band tool result, not
// a protocol error: the request was well-formed, the operation failed.
func faultResult(err error) ToolResult {
	kind := fault.KindOf(err)
	return ToolResult{
		Content: []ToolContent{{Type: "text", Text: err.Error()}},
		IsError: true,
		Data: map[string]any{
			"kind":      string(kind),
			"retryable": fault.Retryable(kind),
		},
	}
}

func successResult(out any) ToolResult {
	text, ok := out.(string)
	if !ok {
		rendered, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			text = fmt.Sprintf("%v", out)
		} else {
			text = string(rendered)
		}
	}
	return ToolResult{
		Content: []ToolContent{{Type: "text", Text: text}},
		Data:    out,
	}
}

func writeResult(w *bufio.Writer, id interface{}, result interface{}) error {
	if id == nil {
		return nil
	}
	resp := rpcResponse{JSONRPC: "2.0", ID: id, Result: result}
	payload, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return writeMessage(w, payload)
}

func writeError(w *bufio.Writer, id interface{}, code int, message string, data interface{}) error {
	if id == nil {
		return nil
	}
	resp := rpcResponse{JSONRPC: "2.0", ID: id, Error: &rpcError{Code: code, Message: message, Data: data}}
	payload, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return writeMessage(w, payload)
}

func writeMessage(w *bufio.Writer, payload []byte) error {
	if _, err := fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(payload)); err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}
	return w.Flush()
}

// readMessage accepts either Content-Length framed messages or a bare
// JSON object on its own line, so both framing styles of stdio clients
// work.
func readMessage(r *bufio.Reader) ([]byte, error) {
	for {
		line, err := r.ReadString('\n')
		if err != nil && len(line) == 0 {
			return nil, err
		}
		trimmed := strings.TrimRight(line, "\r\n")
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "{") {
			return []byte(trimmed), nil
		}

		contentLength := 0
		if strings.HasPrefix(strings.ToLower(trimmed), "content-length:") {
			value := strings.TrimSpace(strings.SplitN(trimmed, ":", 2)[1])
			length, parseErr := strconv.Atoi(value)
			if parseErr != nil {
				return nil, parseErr
			}
			contentLength = length
		}

		for {
			headerLine, readErr := r.ReadString('\n')
			if readErr != nil && len(headerLine) == 0 {
				return nil, readErr
			}
			header := strings.TrimRight(headerLine, "\r\n")
			if header == "" {
				break
			}
			if strings.HasPrefix(strings.ToLower(header), "content-length:") {
				value := strings.TrimSpace(strings.SplitN(header, ":", 2)[1])
				length, parseErr := strconv.Atoi(value)
				if parseErr != nil {
					return nil, parseErr
				}
				contentLength = length
			}
		}

		if contentLength <= 0 {
			return nil, fmt.Errorf("missing Content-Length")
		}

		payload := make([]byte, contentLength)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, err
		}
		return payload, nil
	}
}

func (s *Server) logInfo(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

func (s *Server) logWarn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

func (s *Server) logError(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Error(msg, args...)
	}
}

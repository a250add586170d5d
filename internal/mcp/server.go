// Package mcp exposes the memory server's tiers as MCP tools over stdio.
// The adapter owns no storage: every tool call is delegated to the HTTP API.
package mcp

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const protocolVersion = "2024-11-05"

// Server implements an MCP stdio server that delegates to the memory server.
type Server struct {
	serverURL string
	apiKey    string
	client    *http.Client
}

// NewServer creates a new MCP server pointed at the memory server's base URL.
func NewServer(serverURL, apiKey string) *Server {
	return &Server{
		serverURL: strings.TrimRight(serverURL, "/"),
		apiKey:    apiKey,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Run starts the stdio event loop. Blocks until stdin is closed.
func (s *Server) Run() error {
	scanner := bufio.NewScanner(os.Stdin)
	// Increase buffer for large messages
	buf := make([]byte, 0, 1024*1024)
	scanner.Buffer(buf, 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.writeError(nil, -32700, "parse error: "+err.Error())
			continue
		}

		resp := s.handleRequest(&req)
		if resp != nil {
			s.writeResponse(resp)
		}
	}

	return scanner.Err()
}

func (s *Server) handleRequest(req *Request) *Response {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "initialized":
		// Notification — no response
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(req)
	case "ping":
		return &Response{JSONRPC: "2.0", ID: req.ID, Result: map[string]string{}}
	default:
		return s.errorResponse(req.ID, -32601, "method not found: "+req.Method)
	}
}

func (s *Server) handleInitialize(req *Request) *Response {
	return &Response{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: InitializeResult{
			ProtocolVersion: protocolVersion,
			Capabilities: ServerCapabilities{
				Tools: &ToolCapabilities{},
			},
			ServerInfo: ServerInfo{
				Name:    "voxagent-memory",
				Version: "1.0.0",
			},
		},
	}
}

func (s *Server) handleToolsList(req *Request) *Response {
	return &Response{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  ToolsListResult{Tools: ToolDefinitions()},
	}
}

func (s *Server) handleToolsCall(req *Request) *Response {
	paramsBytes, err := json.Marshal(req.Params)
	if err != nil {
		return s.errorResponse(req.ID, -32602, "invalid params")
	}

	var params CallToolParams
	if err := json.Unmarshal(paramsBytes, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "invalid params: "+err.Error())
	}

	result, isError := s.dispatchTool(params.Name, params.Arguments)

	return &Response{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: CallToolResult{
			Content: []ContentBlock{{Type: "text", Text: result}},
			IsError: isError,
		},
	}
}

func (s *Server) dispatchTool(name string, args map[string]any) (string, bool) {
	switch name {
	case "memory_store_context":
		return s.httpPost("/api/v1/memory/short-term/store", map[string]any{
			"sessionId":  args["sessionId"],
			"key":        args["key"],
			"value":      args["value"],
			"ttlSeconds": int(getFloat(args, "ttlSeconds", 0)),
		})
	case "memory_get_context":
		return s.httpPost("/api/v1/memory/short-term/retrieve", map[string]any{
			"sessionId": args["sessionId"],
			"key":       args["key"],
		})
	case "memory_store_preference":
		return s.httpPost("/api/v1/memory/long-term/preference", map[string]any{
			"userId":   args["userId"],
			"category": args["category"],
			"key":      args["key"],
			"value":    args["value"],
		})
	case "memory_get_preferences":
		return s.httpPost("/api/v1/memory/long-term/preferences", map[string]any{
			"userId":   args["userId"],
			"category": args["category"],
		})
	case "memory_record_behavior":
		return s.httpPost("/api/v1/memory/long-term/behavior", map[string]any{
			"userId":       args["userId"],
			"behaviorType": args["behaviorType"],
			"pattern":      args["pattern"],
		})
	case "memory_get_behaviors":
		return s.httpPost("/api/v1/memory/long-term/behaviors", map[string]any{
			"userId":        args["userId"],
			"behaviorType":  args["behaviorType"],
			"minConfidence": getFloat(args, "minConfidence", 0.5),
		})
	case "memory_store_event":
		return s.httpPost("/api/v1/memory/episodic/event", map[string]any{
			"userId":    args["userId"],
			"eventType": args["eventType"],
			"summary":   args["summary"],
		})
	case "memory_get_recent_events":
		userID, _ := args["userId"].(string)
		days := int(getFloat(args, "days", 7))
		return s.httpGet(fmt.Sprintf("/api/v1/memory/episodic/recent/%s?days=%d", userID, days))
	case "memory_semantic_store":
		return s.httpPost("/api/v1/memory/semantic/add", map[string]any{
			"userId":     args["userId"],
			"text":       args["text"],
			"memoryType": args["memoryType"],
		})
	case "memory_semantic_search":
		return s.httpPost("/api/v1/memory/semantic/search", map[string]any{
			"userId": args["userId"],
			"query":  args["query"],
			"topK":   int(getFloat(args, "topK", 10)),
		})
	case "memory_export_user":
		return s.httpPost("/api/v1/admin/export", map[string]any{
			"userId": args["userId"],
		})
	case "memory_delete_user":
		return s.httpPost("/api/v1/admin/delete", map[string]any{
			"userId":  args["userId"],
			"confirm": getBool(args, "confirm", false),
		})
	default:
		return fmt.Sprintf("unknown tool: %s", name), true
	}
}

// --- HTTP helpers ---

func (s *Server) httpPost(path string, body any) (string, bool) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Sprintf("marshal error: %s", err), true
	}
	return s.doRequest(http.MethodPost, path, bytes.NewReader(jsonBody))
}

func (s *Server) httpGet(path string) (string, bool) {
	return s.doRequest(http.MethodGet, path, nil)
}

func (s *Server) doRequest(method, path string, body io.Reader) (string, bool) {
	req, err := http.NewRequest(method, s.serverURL+path, body)
	if err != nil {
		return fmt.Sprintf("request error: %s", err), true
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Sprintf("HTTP error: %s", err), true
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Sprintf("read error: %s", err), true
	}

	if resp.StatusCode >= 400 {
		return string(respBody), true
	}

	return string(respBody), false
}

// --- Response helpers ---

func (s *Server) writeResponse(resp *Response) {
	data, _ := json.Marshal(resp)
	fmt.Fprintf(os.Stdout, "%s\n", data)
}

func (s *Server) writeError(id any, code int, message string) {
	s.writeResponse(&Response{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &RPCError{Code: code, Message: message},
	})
}

func (s *Server) errorResponse(id any, code int, message string) *Response {
	return &Response{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &RPCError{Code: code, Message: message},
	}
}

// --- Argument helpers ---

func getFloat(args map[string]any, key string, fallback float64) float64 {
	if v, ok := args[key]; ok {
		switch val := v.(type) {
		case float64:
			return val
		case int:
			return float64(val)
		}
	}
	return fallback
}

func getBool(args map[string]any, key string, fallback bool) bool {
	if v, ok := args[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return fallback
}

package api

import (
	"context"
	"encoding/json"
	"fmt"
)

// JSONRPCRequest represents a JSON-RPC 2.0 request
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      interface{}     `json:"id"`
}

// JSONRPCResponse represents a JSON-RPC 2.0 response
type JSONRPCResponse struct {
	JSONRPC string        `json:"jsonrpc"`
	Result  interface{}   `json:"result,omitempty"`
	Error   *JSONRPCError `json:"error,omitempty"`
	ID      interface{}   `json:"id"`
}

// JSONRPCError represents a JSON-RPC 2.0 error
type JSONRPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ExecuteParams are the parameters of shell.execute.
type ExecuteParams struct {
	SessionID string `json:"session_id"`
	Command   string `json:"command"`
}

// RunParams are the parameters of shell.run.
type RunParams struct {
	Command string `json:"command"`
	Cwd     string `json:"cwd"`
}

// Error codes
const (
	ParseError     = -32700
	InvalidRequest = -32600
	MethodNotFound = -32601
	InvalidParams  = -32602
	InternalError  = -32603
)

// HandleJSONRPC processes a JSON-RPC request
func HandleJSONRPC(ctx context.Context, sm *SessionManager, request *JSONRPCRequest) *JSONRPCResponse {
	response := &JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      request.ID,
	}

	if request.JSONRPC != "2.0" {
		response.Error = &JSONRPCError{
			Code:    InvalidRequest,
			Message: "Invalid JSON-RPC version",
		}
		return response
	}

	var (
		result *CommandResult
		rpcErr *JSONRPCError
	)
	switch request.Method {
	case "shell.execute":
		result, rpcErr = handleExecute(ctx, sm, request.Params)
	case "shell.run":
		result, rpcErr = handleRun(ctx, sm, request.Params)
	default:
		rpcErr = &JSONRPCError{
			Code:    MethodNotFound,
			Message: fmt.Sprintf("Method not found: %s", request.Method),
		}
	}

	if rpcErr != nil {
		response.Error = rpcErr
	} else {
		response.Result = result
	}
	return response
}

// handleExecute handles the shell.execute method
func handleExecute(ctx context.Context, sm *SessionManager, params json.RawMessage) (*CommandResult, *JSONRPCError) {
	var p ExecuteParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	if p.SessionID == "" {
		return nil, &JSONRPCError{
			Code:    InvalidParams,
			Message: "session_id is required",
		}
	}

	res, err := sm.Execute(ctx, p.SessionID, p.Command)
	if err != nil {
		return nil, &JSONRPCError{
			Code:    InvalidParams,
			Message: "Invalid session",
			Data:    err.Error(),
		}
	}

	result := newCommandResult(res)
	return &result, nil
}

// handleRun handles the sessionless shell.run method
func handleRun(ctx context.Context, sm *SessionManager, params json.RawMessage) (*CommandResult, *JSONRPCError) {
	var p RunParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	result := newCommandResult(sm.Run(ctx, p.Command, p.Cwd))
	return &result, nil
}

func decodeParams(params json.RawMessage, v interface{}) *JSONRPCError {
	if len(params) == 0 {
		return &JSONRPCError{
			Code:    InvalidParams,
			Message: "Invalid parameters",
			Data:    "params are required",
		}
	}
	if err := json.Unmarshal(params, v); err != nil {
		return &JSONRPCError{
			Code:    InvalidParams,
			Message: "Invalid parameters",
			Data:    err.Error(),
		}
	}
	return nil
}

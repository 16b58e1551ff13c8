package client

import (
	"encoding/json"
	"fmt"
	"time"
)

// SessionInfo represents session information
type SessionInfo struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	LastUsed  time.Time `json:"last_used"`
	Cwd       string    `json:"cwd"`
}

// CreateSessionResponse represents the response for session creation
type CreateSessionResponse struct {
	Session SessionInfo `json:"session"`
}

// ListSessionsResponse represents the response for listing sessions
type ListSessionsResponse struct {
	Sessions []SessionInfo `json:"sessions"`
}

// RemoveSessionRequest represents the request for removing a session
type RemoveSessionRequest struct {
	SessionID string `json:"session_id"`
}

// RemoveSessionResponse represents the response for session removal
type RemoveSessionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ExecRequest is the body of the stateless exec endpoint.
type ExecRequest struct {
	Command string `json:"command"`
	Cwd     string `json:"cwd"`
}

// ExecuteParams represents parameters for shell.execute
type ExecuteParams struct {
	SessionID string `json:"session_id"`
	Command   string `json:"command"`
}

// RunParams represents parameters for shell.run
type RunParams struct {
	Command string `json:"command"`
	Cwd     string `json:"cwd"`
}

// CommandResult is the outcome of one command line.
type CommandResult struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	Cwd      string `json:"cwd"`
	ExitCode int    `json:"exit_code"`
	// Clear is set when the display should be cleared instead of printing
	// Stdout.
	Clear bool `json:"clear"`
}

// Success reports whether the command exited with code 0.
func (r *CommandResult) Success() bool {
	return r.ExitCode == 0
}

// JSONRPCRequest represents a JSON-RPC 2.0 request
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      int64           `json:"id"`
}

// JSONRPCResponse represents a JSON-RPC 2.0 response
type JSONRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *JSONRPCError   `json:"error,omitempty"`
	ID      int64           `json:"id"`
}

// JSONRPCError represents a JSON-RPC 2.0 error
type JSONRPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *JSONRPCError) Error() string {
	return fmt.Sprintf("JSON-RPC error [%d]: %s", e.Code, e.Message)
}

// JSON-RPC error codes
const (
	ParseError     = -32700
	InvalidRequest = -32600
	MethodNotFound = -32601
	InvalidParams  = -32602
	InternalError  = -32603
)

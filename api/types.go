package api

import (
	"time"

	"github.com/telnet2/go-practice/go-sandsh"
)

// SessionInfo represents session information for API responses
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

// ExecRequest is the body of POST /api/v1/exec.
type ExecRequest struct {
	Command string `json:"command"`
	Cwd     string `json:"cwd"`
}

// CommandResult is a command outcome as sent to clients. Clear is set when
// the client should clear its display instead of printing stdout.
type CommandResult struct {
	sandsh.Result
	Clear bool `json:"clear"`
}

func newCommandResult(res sandsh.Result) CommandResult {
	return CommandResult{Result: res, Clear: res.Clear()}
}

// CommandInfo describes one supported command.
type CommandInfo struct {
	Name        string `json:"name"`
	Usage       string `json:"usage"`
	Description string `json:"description"`
}

// CommandsResponse lists the supported commands.
type CommandsResponse struct {
	Commands []CommandInfo `json:"commands"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/hlog"

	"github.com/telnet2/go-practice/go-sandsh"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// handleExec handles POST /api/v1/exec
func (s *Server) handleExec(w http.ResponseWriter, r *http.Request) {
	var req ExecRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res := s.sessions.Run(r.Context(), req.Command, req.Cwd)
	respondJSON(w, newCommandResult(res), http.StatusOK)
}

// handleCommands handles GET /api/v1/commands
func (s *Server) handleCommands(w http.ResponseWriter, r *http.Request) {
	var infos []CommandInfo
	for _, name := range sandsh.Commands() {
		h, ok := sandsh.LookupHelp(name)
		if !ok {
			// aliases such as --help
			continue
		}
		infos = append(infos, CommandInfo{
			Name:        h.Name,
			Usage:       h.Usage,
			Description: h.Description,
		})
	}
	respondJSON(w, CommandsResponse{Commands: infos}, http.StatusOK)
}

// handleCreateSession handles POST /api/v1/session/create
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	session := s.sessions.CreateSession()
	hlog.FromRequest(r).Debug().Str("session_id", session.ID).Msg("session created")

	respondJSON(w, CreateSessionResponse{Session: session.Info()}, http.StatusCreated)
}

// handleListSessions handles POST /api/v1/session/list
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := s.sessions.ListSessions()

	infos := make([]SessionInfo, 0, len(sessions))
	for _, session := range sessions {
		infos = append(infos, session.Info())
	}

	respondJSON(w, ListSessionsResponse{Sessions: infos}, http.StatusOK)
}

// handleRemoveSession handles POST /api/v1/session/remove
func (s *Server) handleRemoveSession(w http.ResponseWriter, r *http.Request) {
	var req RemoveSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.sessions.RemoveSession(req.SessionID); err != nil {
		respondError(w, err.Error(), http.StatusNotFound)
		return
	}

	respondJSON(w, RemoveSessionResponse{
		Success: true,
		Message: "Session removed successfully",
	}, http.StatusOK)
}

// handleREPL handles the WebSocket connection for /api/v1/session/repl
func (s *Server) handleREPL(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		hlog.FromRequest(r).Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var response *JSONRPCResponse
		var request JSONRPCRequest
		if err := json.Unmarshal(data, &request); err != nil {
			response = &JSONRPCResponse{
				JSONRPC: "2.0",
				Error: &JSONRPCError{
					Code:    ParseError,
					Message: "Parse error",
					Data:    err.Error(),
				},
			}
		} else {
			response = HandleJSONRPC(r.Context(), s.sessions, &request)
		}

		if err := conn.WriteJSON(response); err != nil {
			break
		}
	}
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, ErrorResponse{Error: message}, status)
}

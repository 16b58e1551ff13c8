// Package client is a Go SDK for the sandsh host API. Session management and
// one-shot execution go over HTTP; interactive sessions use the WebSocket
// JSON-RPC endpoint.
package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
)

var (
	// ErrConnectionLost is returned to requests pending when the WebSocket drops.
	ErrConnectionLost = errors.New("connection lost")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("client closed")
)

// ClientOptions configures the client
type ClientOptions struct {
	// BaseURL is the server URL (e.g., "http://localhost:8080")
	BaseURL string
	// Timeout for HTTP requests and JSON-RPC calls (default: 30s)
	Timeout time.Duration
	// AutoReconnect enables automatic WebSocket reconnection
	AutoReconnect bool
	// MaxReconnectAttempts limits reconnection attempts (default: 5)
	MaxReconnectAttempts int
	// ReconnectDelay is the initial delay between reconnection attempts
	// (default: 1s). Later attempts back off exponentially.
	ReconnectDelay time.Duration
}

// ConnectionState represents the WebSocket connection state
type ConnectionState string

const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
	StateReconnecting ConnectionState = "reconnecting"
)

// Client talks to a sandsh server.
type Client struct {
	options           ClientOptions
	httpClient        *http.Client
	ws                *websocket.Conn
	wsMu              sync.Mutex
	state             ConnectionState
	stateMu           sync.RWMutex
	requestID         int64
	pendingRequests   map[int64]chan *JSONRPCResponse
	pendingMu         sync.Mutex
	done              chan struct{}
	closeOnce         sync.Once
}

// NewClient creates a new client
func NewClient(opts ClientOptions) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxReconnectAttempts == 0 {
		opts.MaxReconnectAttempts = 5
	}
	if opts.ReconnectDelay == 0 {
		opts.ReconnectDelay = time.Second
	}

	return &Client{
		options: opts,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		state:           StateDisconnected,
		pendingRequests: make(map[int64]chan *JSONRPCResponse),
		done:            make(chan struct{}),
	}
}

// State returns the current connection state
func (c *Client) State() ConnectionState {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

func (c *Client) setState(state ConnectionState) {
	c.stateMu.Lock()
	c.state = state
	c.stateMu.Unlock()
}

// wsURL returns the WebSocket URL for REPL connection
func (c *Client) wsURL() (string, error) {
	u, err := url.Parse(c.options.BaseURL)
	if err != nil {
		return "", err
	}

	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}

	return fmt.Sprintf("%s://%s/api/v1/session/repl", scheme, u.Host), nil
}

// post sends body as JSON and decodes the response into out when the status
// is one of ok.
func (c *Client) post(path string, body, out interface{}, ok ...int) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	resp, err := c.httpClient.Post(c.options.BaseURL+path, "application/json", reader)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	accepted := false
	for _, code := range ok {
		if resp.StatusCode == code {
			accepted = true
			break
		}
	}
	if !accepted {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// CreateSession creates a new shell session
func (c *Client) CreateSession() (*SessionInfo, error) {
	var result CreateSessionResponse
	if err := c.post("/api/v1/session/create", nil, &result, http.StatusCreated, http.StatusOK); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return &result.Session, nil
}

// ListSessions lists all active sessions
func (c *Client) ListSessions() ([]SessionInfo, error) {
	var result ListSessionsResponse
	if err := c.post("/api/v1/session/list", nil, &result, http.StatusOK); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return result.Sessions, nil
}

// RemoveSession removes a session by ID
func (c *Client) RemoveSession(sessionID string) error {
	req := RemoveSessionRequest{SessionID: sessionID}
	if err := c.post("/api/v1/session/remove", req, nil, http.StatusOK); err != nil {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	return nil
}

// Exec runs a command line in cwd without a session or WebSocket.
func (c *Client) Exec(command, cwd string) (*CommandResult, error) {
	var result CommandResult
	if err := c.post("/api/v1/exec", ExecRequest{Command: command, Cwd: cwd}, &result, http.StatusOK); err != nil {
		return nil, fmt.Errorf("failed to exec: %w", err)
	}
	return &result, nil
}

// Connect establishes a WebSocket connection for REPL
func (c *Client) Connect() error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	state := c.State()
	if state == StateConnected || state == StateConnecting {
		return nil
	}

	c.setState(StateConnecting)

	wsURL, err := c.wsURL()
	if err != nil {
		c.setState(StateDisconnected)
		return err
	}

	c.wsMu.Lock()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		c.wsMu.Unlock()
		c.setState(StateDisconnected)
		return fmt.Errorf("failed to connect to WebSocket: %w", err)
	}
	c.ws = conn
	c.wsMu.Unlock()

	c.setState(StateConnected)

	go c.readMessages(conn)

	return nil
}

// Disconnect closes the WebSocket connection
func (c *Client) Disconnect() {
	c.setState(StateDisconnected)

	c.wsMu.Lock()
	if c.ws != nil {
		c.ws.Close()
		c.ws = nil
	}
	c.wsMu.Unlock()

	c.clearPendingRequests()
}

// Execute runs a command in a session over the WebSocket.
func (c *Client) Execute(params ExecuteParams) (*CommandResult, error) {
	return c.call("shell.execute", params)
}

// ExecuteCommand is a convenience method to execute a command string
func (c *Client) ExecuteCommand(sessionID, command string) (*CommandResult, error) {
	return c.Execute(ExecuteParams{
		SessionID: sessionID,
		Command:   command,
	})
}

// Run executes a command in cwd over the WebSocket without a session.
func (c *Client) Run(command, cwd string) (*CommandResult, error) {
	return c.call("shell.run", RunParams{Command: command, Cwd: cwd})
}

func (c *Client) call(method string, params interface{}) (*CommandResult, error) {
	if c.State() != StateConnected {
		if err := c.Connect(); err != nil {
			return nil, err
		}
	}

	resp, err := c.sendRequest(method, params)
	if err != nil {
		return nil, err
	}

	var result CommandResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return &result, nil
}

// sendRequest sends a JSON-RPC request and waits for response
func (c *Client) sendRequest(method string, params interface{}) (*JSONRPCResponse, error) {
	id := atomic.AddInt64(&c.requestID, 1)

	paramsBytes, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal params: %w", err)
	}

	request := JSONRPCRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  paramsBytes,
		ID:      id,
	}

	respChan := make(chan *JSONRPCResponse, 1)
	c.pendingMu.Lock()
	c.pendingRequests[id] = respChan
	c.pendingMu.Unlock()

	defer func() {
		c.pendingMu.Lock()
		delete(c.pendingRequests, id)
		c.pendingMu.Unlock()
	}()

	c.wsMu.Lock()
	if c.ws == nil {
		c.wsMu.Unlock()
		return nil, fmt.Errorf("WebSocket not connected")
	}
	err = c.ws.WriteJSON(request)
	c.wsMu.Unlock()

	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	timer := time.NewTimer(c.options.Timeout)
	defer timer.Stop()

	select {
	case resp, ok := <-respChan:
		if !ok {
			return nil, ErrConnectionLost
		}
		if resp.Error != nil {
			return nil, resp.Error
		}
		return resp, nil

	case <-timer.C:
		return nil, fmt.Errorf("request timeout")

	case <-c.done:
		return nil, ErrClosed
	}
}

// readMessages reads incoming WebSocket messages until conn fails
func (c *Client) readMessages(conn *websocket.Conn) {
	for {
		var response JSONRPCResponse
		if err := conn.ReadJSON(&response); err != nil {
			c.handleDisconnect(conn)
			return
		}

		if response.ID != 0 {
			c.pendingMu.Lock()
			if ch, ok := c.pendingRequests[response.ID]; ok {
				ch <- &response
			}
			c.pendingMu.Unlock()
		}
	}
}

// handleDisconnect handles WebSocket disconnection
func (c *Client) handleDisconnect(conn *websocket.Conn) {
	c.wsMu.Lock()
	current := c.ws == conn
	if current {
		c.ws = nil
	}
	c.wsMu.Unlock()

	// Disconnect already cleaned up.
	if !current {
		return
	}

	wasConnected := c.State() == StateConnected
	c.setState(StateDisconnected)
	c.clearPendingRequests()

	select {
	case <-c.done:
		return
	default:
	}

	if wasConnected && c.options.AutoReconnect {
		c.setState(StateReconnecting)
		err := backoff.Retry(func() error {
			select {
			case <-c.done:
				return backoff.Permanent(ErrClosed)
			default:
			}
			return c.Connect()
		}, c.reconnectBackoff())
		if err != nil {
			c.setState(StateDisconnected)
		}
	}
}

// reconnectBackoff returns the retry schedule for lost connections.
func (c *Client) reconnectBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.options.ReconnectDelay
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0
	b.RandomizationFactor = 0.5
	b.Multiplier = 2.0
	b.Reset()
	return backoff.WithMaxRetries(b, uint64(c.options.MaxReconnectAttempts))
}

// clearPendingRequests fails all pending requests
func (c *Client) clearPendingRequests() {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()

	for _, ch := range c.pendingRequests {
		close(ch)
	}
	c.pendingRequests = make(map[int64]chan *JSONRPCResponse)
}

// Close closes the client and all connections
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.Disconnect()
	})
}

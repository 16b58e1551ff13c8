package client

import (
	"fmt"
	"strings"
	"time"

	"mvdan.cc/sh/v3/syntax"
)

// SessionOptions configures a session
type SessionOptions struct {
	// BaseURL is the server URL (e.g., "http://localhost:8080")
	BaseURL string
	// SessionID to connect to an existing session (optional)
	SessionID string
	// Timeout for operations (default: 30s)
	Timeout time.Duration
	// AutoReconnect enables automatic reconnection
	AutoReconnect bool
}

// CommandFailedError is returned by the helpers when a command exits non-zero.
type CommandFailedError struct {
	Command  string
	ExitCode int
	Stderr   string
}

func (e *CommandFailedError) Error() string {
	msg := strings.TrimRight(e.Stderr, "\n")
	if msg == "" {
		msg = "no output"
	}
	return fmt.Sprintf("%s: exit code %d: %s", e.Command, e.ExitCode, msg)
}

// Session represents an active shell session
type Session struct {
	client  *Client
	info    *SessionInfo
	options SessionOptions
}

// NewSession creates a new session or connects to an existing one
func NewSession(opts SessionOptions) (*Session, error) {
	client := NewClient(ClientOptions{
		BaseURL:       opts.BaseURL,
		Timeout:       opts.Timeout,
		AutoReconnect: opts.AutoReconnect,
	})

	session := &Session{
		client:  client,
		options: opts,
	}

	if err := session.Init(); err != nil {
		client.Close()
		return nil, err
	}

	return session, nil
}

// Init initializes the session
func (s *Session) Init() error {
	if s.options.SessionID != "" {
		sessions, err := s.client.ListSessions()
		if err != nil {
			return fmt.Errorf("failed to list sessions: %w", err)
		}

		for i := range sessions {
			if sessions[i].ID == s.options.SessionID {
				s.info = &sessions[i]
				break
			}
		}

		if s.info == nil {
			return fmt.Errorf("session not found: %s", s.options.SessionID)
		}
	} else {
		info, err := s.client.CreateSession()
		if err != nil {
			return err
		}
		s.info = info
	}

	if err := s.client.Connect(); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	return nil
}

// ID returns the session ID
func (s *Session) ID() string {
	if s.info == nil {
		return ""
	}
	return s.info.ID
}

// Cwd returns the last known working directory
func (s *Session) Cwd() string {
	if s.info == nil {
		return ""
	}
	return s.info.Cwd
}

// Info returns the session info
func (s *Session) Info() *SessionInfo {
	return s.info
}

// Connected returns true if the session is connected
func (s *Session) Connected() bool {
	return s.client.State() == StateConnected
}

// Execute executes a command line and tracks the resulting directory.
func (s *Session) Execute(command string) (*CommandResult, error) {
	if s.info == nil {
		return nil, fmt.Errorf("session not initialized")
	}

	result, err := s.client.ExecuteCommand(s.info.ID, command)
	if err != nil {
		return nil, err
	}

	if result.Cwd != "" {
		s.info.Cwd = result.Cwd
	}
	s.info.LastUsed = time.Now()

	return result, nil
}

// Run executes a command and returns its stdout. A non-zero exit code is
// reported as a *CommandFailedError.
func (s *Session) Run(command string) (string, error) {
	result, err := s.Execute(command)
	if err != nil {
		return "", err
	}

	if !result.Success() {
		return "", &CommandFailedError{
			Command:  command,
			ExitCode: result.ExitCode,
			Stderr:   result.Stderr,
		}
	}

	return result.Stdout, nil
}

// Cd changes the working directory
func (s *Session) Cd(path string) (string, error) {
	if _, err := s.Run("cd " + quote(path)); err != nil {
		return "", err
	}
	return s.Cwd(), nil
}

// Pwd returns the current working directory
func (s *Session) Pwd() (string, error) {
	output, err := s.Run("pwd")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(output), nil
}

// ReadFile reads a file's contents
func (s *Session) ReadFile(path string) (string, error) {
	return s.Run("cat " + quote(path))
}

// WriteFile replaces a file with content followed by a newline.
func (s *Session) WriteFile(path, content string) error {
	_, err := s.Run(fmt.Sprintf("echo %s > %s", quote(content), quote(path)))
	return err
}

// AppendFile appends content followed by a newline to a file.
func (s *Session) AppendFile(path, content string) error {
	_, err := s.Run(fmt.Sprintf("echo %s >> %s", quote(content), quote(path)))
	return err
}

// Touch creates a file or updates its modification time.
func (s *Session) Touch(path string) error {
	_, err := s.Run("touch " + quote(path))
	return err
}

// Mkdir creates a directory and any missing parents
func (s *Session) Mkdir(path string) error {
	_, err := s.Run("mkdir " + quote(path))
	return err
}

// Rm removes a file, or a directory tree when recursive is set
func (s *Session) Rm(path string, recursive bool) error {
	cmd := "rm "
	if recursive {
		cmd += "-r "
	}
	_, err := s.Run(cmd + quote(path))
	return err
}

// Copy copies src to dest, recursing into directories when recursive is set.
func (s *Session) Copy(src, dest string, recursive bool) error {
	cmd := "cp "
	if recursive {
		cmd += "-r "
	}
	_, err := s.Run(cmd + quote(src) + " " + quote(dest))
	return err
}

// Move renames src to dest.
func (s *Session) Move(src, dest string) error {
	_, err := s.Run("mv " + quote(src) + " " + quote(dest))
	return err
}

// Ls lists directory entry names. With long set each line carries the size.
func (s *Session) Ls(path string, long bool) ([]string, error) {
	cmd := "ls"
	if long {
		cmd += " -l"
	}
	if path != "" {
		cmd += " " + quote(path)
	}

	output, err := s.Run(cmd)
	if err != nil {
		return nil, err
	}

	if long {
		return nonEmpty(strings.Split(output, "\n")), nil
	}
	// Short listings are one line of names separated by two spaces.
	line := strings.TrimSuffix(output, "\n")
	if line == "" {
		return nil, nil
	}
	return strings.Split(line, "  "), nil
}

// Close closes the session, removing it on the server when removeSession is set.
func (s *Session) Close(removeSession bool) error {
	defer s.client.Close()
	if removeSession && s.info != nil {
		return s.client.RemoveSession(s.info.ID)
	}
	return nil
}

func nonEmpty(lines []string) []string {
	result := make([]string, 0, len(lines))
	for _, line := range lines {
		if line != "" {
			result = append(result, line)
		}
	}
	return result
}

// quote makes s a single word for the server's tokenizer. Words with no
// special characters are left bare.
func quote(s string) string {
	if q, err := syntax.Quote(s, syntax.LangPOSIX); err == nil {
		return q
	}
	// Quote refuses control characters in POSIX mode; single quotes keep
	// them literal for the server.
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

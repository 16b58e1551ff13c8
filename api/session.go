package api

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/telnet2/go-practice/go-sandsh"
)

// Session is one client's view of the shell: the working directory it is in.
// All sessions share the manager's executor and filesystem.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu       sync.Mutex
	cwd      string
	lastUsed time.Time
}

// Cwd returns the session's working directory.
func (s *Session) Cwd() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cwd
}

// LastUsed returns when the session last ran a command.
func (s *Session) LastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// Info returns the session's API representation.
func (s *Session) Info() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionInfo{
		ID:        s.ID,
		CreatedAt: s.CreatedAt,
		LastUsed:  s.lastUsed,
		Cwd:       s.cwd,
	}
}

// SessionManager manages multiple shell sessions
type SessionManager struct {
	exec       *sandsh.Executor
	initialCwd string
	now        func() time.Time

	sessions map[string]*Session
	mu       sync.RWMutex
}

// NewSessionManager creates a session manager whose sessions start in
// initialCwd, or the executor's default scratch directory when empty.
func NewSessionManager(exec *sandsh.Executor, initialCwd string) *SessionManager {
	if initialCwd == "" {
		initialCwd = sandsh.DefaultScratchDir
	}
	return &SessionManager{
		exec:       exec,
		initialCwd: initialCwd,
		now:        time.Now,
		sessions:   make(map[string]*Session),
	}
}

// CreateSession creates a new shell session
func (sm *SessionManager) CreateSession() *Session {
	now := sm.now()
	session := &Session{
		ID:        uuid.New().String(),
		CreatedAt: now,
		cwd:       sm.initialCwd,
		lastUsed:  now,
	}

	sm.mu.Lock()
	sm.sessions[session.ID] = session
	sm.mu.Unlock()

	return session
}

// GetSession retrieves a session by ID
func (sm *SessionManager) GetSession(sessionID string) (*Session, error) {
	sm.mu.RLock()
	session, exists := sm.sessions[sessionID]
	sm.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("session not found: %s", sessionID)
	}
	return session, nil
}

// ListSessions returns all active sessions, oldest first.
func (sm *SessionManager) ListSessions() []*Session {
	sm.mu.RLock()
	sessions := make([]*Session, 0, len(sm.sessions))
	for _, session := range sm.sessions {
		sessions = append(sessions, session)
	}
	sm.mu.RUnlock()

	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].CreatedAt.Equal(sessions[j].CreatedAt) {
			return sessions[i].ID < sessions[j].ID
		}
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})
	return sessions
}

// RemoveSession removes a session by ID
func (sm *SessionManager) RemoveSession(sessionID string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if _, exists := sm.sessions[sessionID]; !exists {
		return fmt.Errorf("session not found: %s", sessionID)
	}

	delete(sm.sessions, sessionID)
	return nil
}

// PruneIdle removes sessions that have not run a command for maxIdle and
// returns how many were removed.
func (sm *SessionManager) PruneIdle(maxIdle time.Duration) int {
	cutoff := sm.now().Add(-maxIdle)

	sm.mu.Lock()
	defer sm.mu.Unlock()

	removed := 0
	for id, session := range sm.sessions {
		if session.LastUsed().Before(cutoff) {
			delete(sm.sessions, id)
			removed++
		}
	}
	return removed
}

// StartPruner calls PruneIdle every interval until ctx is done.
func (sm *SessionManager) StartPruner(ctx context.Context, interval, maxIdle time.Duration, onPrune func(int)) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := sm.PruneIdle(maxIdle); n > 0 && onPrune != nil {
					onPrune(n)
				}
			}
		}
	}()
}

// Execute runs line in the session's working directory and stores the
// directory the command leaves it in. Commands of one session run in order.
func (sm *SessionManager) Execute(ctx context.Context, sessionID, line string) (sandsh.Result, error) {
	session, err := sm.GetSession(sessionID)
	if err != nil {
		return sandsh.Result{}, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	res := sm.exec.Run(ctx, line, session.cwd)
	session.cwd = res.Cwd
	session.lastUsed = sm.now()
	return res, nil
}

// Run executes line without a session.
func (sm *SessionManager) Run(ctx context.Context, line, cwd string) sandsh.Result {
	return sm.exec.Run(ctx, line, cwd)
}

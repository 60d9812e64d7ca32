package session

import (
	"log/slog"
	"sync"
	"time"
)

const (
	// Sessions idle longer than this are evicted; the next request
	// rehydrates a fresh session from persisted answers.
	idleTimeout     = 30 * time.Minute
	cleanupInterval = 5 * time.Minute
)

// Manager tracks the active interview-taking sessions, keyed by interview
// and user. Session state is always reconstructible from persisted answers,
// so eviction only costs an unsaved draft.
type Manager struct {
	sessions map[string]*Session
	mutex    sync.RWMutex
	done     chan struct{}
}

func NewManager() *Manager {
	m := &Manager{
		sessions: make(map[string]*Session),
		done:     make(chan struct{}),
	}

	go m.cleanupIdleSessions()

	return m
}

func sessionKey(interviewID, userID string) string {
	return interviewID + "/" + userID
}

// Get returns the live session for an interview/user pair, if any.
func (m *Manager) Get(interviewID, userID string) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	s, ok := m.sessions[sessionKey(interviewID, userID)]
	return s, ok
}

// GetOrCreate returns the live session for an interview/user pair, creating
// one rehydrated from lockedIndices when none exists.
func (m *Manager) GetOrCreate(interviewID, userID string, questionCount int, lockedIndices []int) *Session {
	key := sessionKey(interviewID, userID)

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if s, ok := m.sessions[key]; ok {
		return s
	}

	s := New(interviewID, userID, questionCount, lockedIndices)
	m.sessions[key] = s
	slog.Info("Session created", "interview_id", interviewID, "user_id", userID, "questions", questionCount, "locked", len(lockedIndices))
	return s
}

// Remove drops the live session for an interview/user pair.
func (m *Manager) Remove(interviewID, userID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.sessions, sessionKey(interviewID, userID))
}

// Stop terminates the background cleanup loop.
func (m *Manager) Stop() {
	close(m.done)
}

func (m *Manager) cleanupIdleSessions() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.mutex.Lock()
			for key, s := range m.sessions {
				if time.Since(s.LastActivity()) > idleTimeout {
					delete(m.sessions, key)
					slog.Info("Evicted idle session", "key", key)
				}
			}
			m.mutex.Unlock()
		}
	}
}

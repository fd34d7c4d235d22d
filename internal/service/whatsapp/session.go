package whatsapp

import (
	"sync"
	"time"

	"github.com/bebeku/farm/pkg/llm"
)

const (
	defaultSessionTTL  = 30 * time.Minute
	defaultMaxMessages = 20
)

type session struct {
	history  []llm.Message
	lastSeen time.Time
}

// SessionManager keeps the assistant conversation of each sender.
type SessionManager struct {
	sessions    map[string]session
	mu          sync.RWMutex
	ttl         time.Duration
	maxMessages int
	now         func() time.Time
}

// NewSessionManager creates a session manager. Sessions idle for longer than
// ttl start over; histories are trimmed to about maxMessages.
func NewSessionManager(ttl time.Duration, maxMessages int) *SessionManager {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	if maxMessages <= 0 {
		maxMessages = defaultMaxMessages
	}
	return &SessionManager{
		sessions:    make(map[string]session),
		ttl:         ttl,
		maxMessages: maxMessages,
		now:         time.Now,
	}
}

// GetSession returns a copy of the sender's history, empty when expired.
func (sm *SessionManager) GetSession(userID string) []llm.Message {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	s, ok := sm.sessions[userID]
	if !ok || sm.now().Sub(s.lastSeen) > sm.ttl {
		return nil
	}
	return append([]llm.Message(nil), s.history...)
}

// UpdateSession stores the sender's history, trimmed.
func (sm *SessionManager) UpdateSession(userID string, history []llm.Message) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.sessions[userID] = session{history: trimHistory(history, sm.maxMessages), lastSeen: sm.now()}
}

// ClearSession removes a user's session.
func (sm *SessionManager) ClearSession(userID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.sessions, userID)
}

// Sweep drops expired sessions and returns how many were removed.
func (sm *SessionManager) Sweep() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	removed := 0
	for id, s := range sm.sessions {
		if sm.now().Sub(s.lastSeen) > sm.ttl {
			delete(sm.sessions, id)
			removed++
		}
	}
	return removed
}

// trimHistory keeps at most max messages and always starts at a plain user
// message, so a tool result never loses the call it answers.
func trimHistory(history []llm.Message, max int) []llm.Message {
	start := 0
	if len(history) > max {
		start = len(history) - max
	}
	for start < len(history) {
		m := history[start]
		if m.Role == llm.RoleUser && len(m.ToolResults) == 0 && m.Text != "" {
			break
		}
		start++
	}
	return append([]llm.Message(nil), history[start:]...)
}

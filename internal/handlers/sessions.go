package handlers

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"fioreria/internal/ordering"
)

type sessionEntry struct {
	session  *ordering.Session
	lastSeen time.Time
}

// SessionManager tracks live ordering sessions by id. Abandoned sessions
// are swept so their pending validation timers get cancelled instead of
// firing into a flow nobody is looking at.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*sessionEntry
	ttl      time.Duration
}

func NewSessionManager(ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SessionManager{
		sessions: make(map[string]*sessionEntry),
		ttl:      ttl,
	}
}

func (m *SessionManager) Put(session *ordering.Session) string {
	id := uuid.NewString()
	m.mu.Lock()
	m.sessions[id] = &sessionEntry{session: session, lastSeen: time.Now()}
	m.mu.Unlock()
	return id
}

func (m *SessionManager) Get(id string) (*ordering.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	entry.lastSeen = time.Now()
	return entry.session, true
}

// Remove detaches and returns the session; the caller closes it.
func (m *SessionManager) Remove(id string) (*ordering.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	delete(m.sessions, id)
	return entry.session, true
}

// Sweep closes sessions idle past the TTL. Run it as a goroutine.
func (m *SessionManager) Sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for range ticker.C {
		m.sweepOnce(time.Now())
	}
}

func (m *SessionManager) sweepOnce(now time.Time) {
	m.mu.Lock()
	var expired []*ordering.Session
	for id, entry := range m.sessions {
		if now.Sub(entry.lastSeen) > m.ttl {
			expired = append(expired, entry.session)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, session := range expired {
		session.Close()
	}
	if len(expired) > 0 {
		log.Printf("[SESSIONS] [INFO] swept %d expired ordering sessions", len(expired))
	}
}

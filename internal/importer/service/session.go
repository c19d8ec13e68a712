package service

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"wallgraph/internal/common/metrics"
	"wallgraph/internal/importer/models"
)

// ============================================================
// Import sessions
// ============================================================

// Session holds a parse result so downstream stages can be re-run with a
// new layer, unit or orientation selection without re-reading the file.
type Session struct {
	ID        string              `json:"id"`
	ProjectID string              `json:"projectId,omitempty"`
	FileName  string              `json:"fileName,omitempty"`
	Parsed    *models.ParseResult `json:"parsed"`
	CreatedAt time.Time           `json:"createdAt"`

	// last holds the most recent normalization, read through
	// SessionManager.Last.
	last    *models.NormalizedResult
	expires time.Time
}

type SessionManager struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]*Session
}

func NewSessionManager(ttl time.Duration) *SessionManager {
	return &SessionManager{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

func (m *SessionManager) Issue(projectID, fileName string, parsed *models.ParseResult) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweepLocked()

	now := m.now()
	s := &Session{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		FileName:  fileName,
		Parsed:    parsed,
		CreatedAt: now,
		expires:   now.Add(m.ttl),
	}
	m.sessions[s.ID] = s
	metrics.SessionsActive.Set(float64(len(m.sessions)))
	return s
}

// Resolve returns a live session and extends its lifetime.
func (m *SessionManager) Resolve(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	now := m.now()
	if now.After(s.expires) {
		m.dropLocked(id)
		return nil, false
	}
	s.expires = now.Add(m.ttl)
	return s, true
}

// Remember stores the latest normalization for the session.
func (m *SessionManager) Remember(id string, res *models.NormalizedResult) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[id]; ok {
		s.last = res
	}
}

// Last returns the latest normalization stored for a live session. The
// result is shared and must not be modified.
func (m *SessionManager) Last(id string) (*models.NormalizedResult, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok || m.now().After(s.expires) || s.last == nil {
		return nil, false
	}
	return s.last, true
}

func (m *SessionManager) Drop(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.sessions[id]
	if ok {
		m.dropLocked(id)
	}
	return ok
}

func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *SessionManager) dropLocked(id string) {
	delete(m.sessions, id)
	metrics.SessionsActive.Set(float64(len(m.sessions)))
}

func (m *SessionManager) sweepLocked() {
	now := m.now()
	for id, s := range m.sessions {
		if now.After(s.expires) {
			delete(m.sessions, id)
		}
	}
}

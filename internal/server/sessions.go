package server

import (
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
)

// Session is one websocket client. Writes are serialized by mu because a
// websocket connection supports one concurrent writer.
type Session struct {
	ID   int64
	conn *websocket.Conn
	mu   sync.Mutex
}

// WriteMessage sends one message of the given websocket type.
func (s *Session) WriteMessage(messageType int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(messageType, data)
}

// WriteJSON sends v as a JSON text message.
func (s *Session) WriteJSON(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(v)
}

// Sessions tracks all connected websocket clients.
type Sessions struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
	nextID   atomic.Int64
}

// NewSessions creates an empty session table.
func NewSessions() *Sessions {
	return &Sessions{sessions: make(map[int64]*Session)}
}

// Add registers conn and returns its session.
func (m *Sessions) Add(conn *websocket.Conn) *Session {
	s := &Session{ID: m.nextID.Add(1), conn: conn}
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

// Remove forgets the session with the given ID.
func (m *Sessions) Remove(id int64) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Count returns the number of connected sessions.
func (m *Sessions) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CloseAll sends a close frame to every session and closes its connection.
func (m *Sessions) CloseAll() {
	m.mu.RLock()
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.mu.RUnlock()

	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	for _, s := range all {
		s.WriteMessage(websocket.CloseMessage, msg)
		s.conn.Close()
	}
}

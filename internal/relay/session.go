package relay

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type State int

const (
	StateConnected State = iota + 1
	StateJoinedRoom
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateJoinedRoom:
		return "joined"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Session is one authenticated realtime connection. It is bound to at most
// one room at a time.
type Session struct {
	id     string
	userID uuid.UUID
	conn   *websocket.Conn
	send   chan []byte

	mu     sync.Mutex
	state  State
	roomID string
}

func newSession(userID uuid.UUID, conn *websocket.Conn, buffer int) *Session {
	return &Session{
		id:     uuid.NewString(),
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, buffer),
		state:  StateConnected,
	}
}

func (s *Session) ID() string        { return s.id }
func (s *Session) UserID() uuid.UUID { return s.userID }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// RoomID is empty unless the session is joined.
func (s *Session) RoomID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomID
}

// JoinedTo reports whether the session is currently joined to roomID.
func (s *Session) JoinedTo(roomID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateJoinedRoom && s.roomID == roomID
}

// join binds the session to roomID and returns the room it was bound to
// before, if any.
func (s *Session) join(roomID string) (previous string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateDisconnected {
		return "", false
	}
	previous = s.roomID
	s.roomID = roomID
	s.state = StateJoinedRoom
	return previous, true
}

func (s *Session) leave(roomID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateJoinedRoom || s.roomID != roomID {
		return false
	}
	s.roomID = ""
	s.state = StateConnected
	return true
}

func (s *Session) enqueue(msg []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateDisconnected {
		return false
	}
	select {
	case s.send <- msg:
		return true
	default:
		return false
	}
}

// Close moves the session to Disconnected and stops its writer. It returns
// the room the session was joined to.
func (s *Session) Close() string {
	s.mu.Lock()
	if s.state == StateDisconnected {
		s.mu.Unlock()
		return ""
	}
	roomID := s.roomID
	s.state = StateDisconnected
	s.roomID = ""
	close(s.send)
	s.mu.Unlock()

	if s.conn != nil {
		_ = s.conn.Close()
	}
	return roomID
}

package relay

import (
	"log/slog"
	"sync"
)

// Hub tracks which sessions are subscribed to which room channel. It holds
// membership only; translation work happens in Relay.
type Hub struct {
	log   *slog.Logger
	mu    sync.RWMutex
	rooms map[string]map[*Session]struct{}
	// conns holds every live session, joined or not.
	conns  map[*Session]struct{}
	closed bool
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		log:   log,
		rooms: make(map[string]map[*Session]struct{}),
		conns: make(map[*Session]struct{}),
	}
}

// Register tracks a connected session so CloseAll can reach it before it
// joins a room. It returns false once CloseAll has run.
func (h *Hub) Register(s *Session) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.conns[s] = struct{}{}
	return true
}

func (h *Hub) Unregister(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, s)
}

// Subscribe adds s to roomID. A session that is already closed is refused,
// so a drop racing with a join cannot leave a dead member behind.
func (h *Hub) Subscribe(roomID string, s *Session) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed || s.State() == StateDisconnected {
		return false
	}

	members, ok := h.rooms[roomID]
	if !ok {
		members = make(map[*Session]struct{})
		h.rooms[roomID] = members
	}
	members[s] = struct{}{}
	return true
}

func (h *Hub) Unsubscribe(roomID string, s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[roomID]
	if !ok {
		return
	}
	delete(members, s)
	if len(members) == 0 {
		delete(h.rooms, roomID)
	}
}

// Members returns the sessions subscribed to roomID right now.
func (h *Hub) Members(roomID string) []*Session {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]*Session, 0, len(h.rooms[roomID]))
	for s := range h.rooms[roomID] {
		out = append(out, s)
	}
	return out
}

// Publish delivers msg to every member of roomID without blocking. A member
// whose queue is full is disconnected.
func (h *Hub) Publish(roomID string, msg []byte) int {
	delivered := 0
	for _, s := range h.Members(roomID) {
		if s.enqueue(msg) {
			delivered++
			continue
		}
		h.log.Warn("dropping slow session",
			slog.String("room_id", roomID),
			slog.String("session_id", s.ID()),
		)
		h.Unsubscribe(roomID, s)
		s.Close()
	}
	return delivered
}

// CloseAll empties every room and closes every known session.
func (h *Hub) CloseAll() int {
	h.mu.Lock()
	all := h.conns
	for _, members := range h.rooms {
		for s := range members {
			all[s] = struct{}{}
		}
	}
	h.rooms = make(map[string]map[*Session]struct{})
	h.conns = make(map[*Session]struct{})
	h.closed = true
	h.mu.Unlock()

	for s := range all {
		s.Close()
	}
	return len(all)
}

func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

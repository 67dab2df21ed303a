package relay

import (
	"log/slog"
	"sync"

	"crew-relay/contract"
)

// Hub owns the set of live sessions. Registration happens on handshake,
// removal on close or transport error. Broadcast is a plain fan-out with
// no ordering guarantee relative to other sessions' sends; clients treat
// broadcasts as idempotent state refreshes.
type Hub struct {
	mu       sync.RWMutex
	sessions map[contract.Session]struct{}
	log      *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{sessions: make(map[contract.Session]struct{}), log: log}
}

func (h *Hub) Register(session contract.Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[session] = struct{}{}
	h.log.Debug("session registered", "total", len(h.sessions))
}

func (h *Hub) Unregister(session contract.Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, session)
	h.log.Debug("session unregistered", "total", len(h.sessions))
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Broadcast sends the frame to every open session. Closing and closed
// sessions are skipped, not errored; a failing write only affects that
// session.
func (h *Hub) Broadcast(frame any) {
	h.mu.RLock()
	snapshot := make([]contract.Session, 0, len(h.sessions))
	for session := range h.sessions {
		snapshot = append(snapshot, session)
	}
	h.mu.RUnlock()

	for _, session := range snapshot {
		if !session.IsOpen() {
			continue
		}
		if err := session.Send(frame); err != nil {
			h.log.Debug("broadcast write failed", "error", err)
		}
	}
}

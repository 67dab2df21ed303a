package relay

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"crew-relay/errors"
)

// Connection lifecycle. Only open sessions receive dispatch and
// broadcast traffic; transitions are driven by the transport.
const (
	stateConnecting int32 = iota
	stateOpen
	stateClosing
	stateClosed
)

// wsSession wraps one gorilla connection. Writes are serialized with a
// mutex because broadcasts and handler responses come from different
// goroutines.
type wsSession struct {
	conn  *websocket.Conn
	state atomic.Int32
	mu    sync.Mutex
	log   *slog.Logger
}

func newWSSession(conn *websocket.Conn, log *slog.Logger) *wsSession {
	s := &wsSession{conn: conn, log: log}
	s.state.Store(stateConnecting)
	return s
}

func (s *wsSession) open() {
	s.state.CompareAndSwap(stateConnecting, stateOpen)
}

func (s *wsSession) IsOpen() bool {
	return s.state.Load() == stateOpen
}

func (s *wsSession) Send(frame any) error {
	if !s.IsOpen() {
		return errors.ErrConnectionClosed
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(frame)
}

// close tears the session down. Safe to call more than once.
func (s *wsSession) close() {
	if !s.state.CompareAndSwap(stateOpen, stateClosing) &&
		!s.state.CompareAndSwap(stateConnecting, stateClosing) {
		return
	}
	_ = s.conn.Close()
	s.state.Store(stateClosed)
}

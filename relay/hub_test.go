package relay

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"crew-relay/errors"
)

type fakeSession struct {
	isOpen bool
	frames []any
}

func (f *fakeSession) IsOpen() bool { return f.isOpen }

func (f *fakeSession) Send(frame any) error {
	if !f.isOpen {
		return errors.ErrConnectionClosed
	}
	f.frames = append(f.frames, frame)
	return nil
}

func TestHub_Broadcast_Reaches_Every_Open_Session(t *testing.T) {
	req := require.New(t)
	hub := NewHub(slog.Default())

	first := &fakeSession{isOpen: true}
	second := &fakeSession{isOpen: true}
	closed := &fakeSession{isOpen: false}
	hub.Register(first)
	hub.Register(second)
	hub.Register(closed)
	req.Equal(3, hub.Count())

	hub.Broadcast(ErrorFrame{Type: "error", Message: "ping"})

	req.Len(first.frames, 1)
	req.Len(second.frames, 1)
	req.Empty(closed.frames)
}

func TestHub_Unregister_Stops_Delivery(t *testing.T) {
	req := require.New(t)
	hub := NewHub(slog.Default())

	session := &fakeSession{isOpen: true}
	hub.Register(session)
	hub.Unregister(session)
	req.Zero(hub.Count())

	hub.Broadcast(ErrorFrame{Type: "error", Message: "ping"})
	req.Empty(session.frames)
}

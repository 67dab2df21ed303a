package relay

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"crew-relay/domain"
	"crew-relay/intent"
	"crew-relay/notify"
)

type failingCommandRepo struct {
	fakeCommandRepo
}

func (f *failingCommandRepo) Store(command domain.Command) error {
	return fmt.Errorf("disk full")
}

func TestCommandHandler_Storage_Failure_Is_Fatal(t *testing.T) {
	req := require.New(t)
	log := slog.Default()

	classifier, err := intent.NewClassifier(log, nil)
	req.NoError(err)

	hub := NewHub(log)
	sender := &fakeSession{isOpen: true}
	other := &fakeSession{isOpen: true}
	hub.Register(sender)
	hub.Register(other)

	handler := NewCommandHandler(&failingCommandRepo{},
		&fakeJobsiteRepo{jobsites: []domain.Jobsite{
			{ID: uuid.New(), Name: "Downtown Renovation", Status: domain.JobsiteActive},
		}},
		classifier, notify.LogNotifier{Log: log}, nil, hub, log)

	handler.Handle(context.Background(), sender, CommandFrame{
		Command:   "I'll be late to Downtown Renovation",
		RequestID: "late-1",
	}, "boss-1")

	// The sender gets an error frame and nothing else; the failed command
	// is never broadcast to other sessions.
	req.Len(sender.frames, 1)
	errFrame, ok := sender.frames[0].(ErrorFrame)
	req.True(ok)
	req.Equal("Failed to save command", errFrame.Message)
	req.Equal("late-1", errFrame.RequestID)
	req.Empty(other.frames)
}

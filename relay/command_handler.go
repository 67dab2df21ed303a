package relay

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"crew-relay/contract"
	"crew-relay/domain"
	"crew-relay/intent"
	"crew-relay/notify"
	"crew-relay/repositories"
)

// CommandHandler persists boss commands, detects side effects by keyword
// and fans the persisted command out to every connection.
type CommandHandler struct {
	commands   repositories.ICommandRepository
	jobsites   repositories.IJobsiteRepository
	classifier *intent.Classifier
	notifier   notify.Notifier
	recipients []notify.Recipient
	hub        *Hub
	log        *slog.Logger
}

func NewCommandHandler(
	commands repositories.ICommandRepository,
	jobsites repositories.IJobsiteRepository,
	classifier *intent.Classifier,
	notifier notify.Notifier,
	recipients []notify.Recipient,
	hub *Hub,
	log *slog.Logger,
) *CommandHandler {
	return &CommandHandler{
		commands:   commands,
		jobsites:   jobsites,
		classifier: classifier,
		notifier:   notifier,
		recipients: recipients,
		hub:        hub,
		log:        log,
	}
}

func (h *CommandHandler) Handle(ctx context.Context, session contract.Session, frame CommandFrame, userID string) {
	if frame.UserID != "" {
		userID = frame.UserID
	}
	command := domain.Command{
		ID:        uuid.New(),
		Text:      frame.Command,
		UserID:    userID,
		JobsiteID: frame.JobsiteID,
		CreatedAt: parseTimestamp(frame.Timestamp),
	}

	// A failed write is fatal for this command: error frame, no broadcast.
	if err := h.commands.Store(command); err != nil {
		h.log.Error("failed to persist command", "error", err)
		sendError(session, "Failed to save command", frame.RequestID)
		return
	}

	classified := h.classifier.Classify(ctx, frame.Command, frame.JobsiteID != "")
	responseText, notification := h.detectSideEffect(frame.Command)

	notificationSent := false
	if notification != "" {
		notificationSent = notify.NotifyAll(ctx, h.log, h.notifier, h.recipients, notification)
	}

	if err := session.Send(CommandResponse{
		Type:             "command-response",
		Message:          responseText,
		CommandID:        command.ID.String(),
		NotificationSent: notificationSent,
		Intent:           classified,
		RequestID:        frame.RequestID,
		Timestamp:        time.Now().UTC(),
	}); err != nil {
		h.log.Warn("failed to send command response", "error", err)
	}

	h.hub.Broadcast(CommandUpdate{
		Type:      "command-update",
		Command:   toCommandPayload(command),
		Timestamp: time.Now().UTC(),
	})
}

// detectSideEffect applies the keyword precedence: late, then weather,
// then equipment/material, then safety. Exactly one side effect fires.
// Returns the response text for the requester and the notification text
// for the crew (empty when no side effect applies).
func (h *CommandHandler) detectSideEffect(text string) (string, string) {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "late"):
		response := "Got it. The crew has been notified about the delay."
		if jobsite, ok := h.markDelayed(lower); ok {
			response = fmt.Sprintf("Got it. %s is marked as delayed and the crew has been notified.", jobsite.Name)
		}
		return response, fmt.Sprintf("Schedule update: %s", text)
	case strings.Contains(lower, "weather"):
		return "Weather alert sent to all crews.", fmt.Sprintf("Weather alert: %s", text)
	case strings.Contains(lower, "equipment"), strings.Contains(lower, "material"):
		return "Supply request forwarded to the office.", fmt.Sprintf("Supply request: %s", text)
	case strings.Contains(lower, "safety"):
		return "Safety notice sent to all crews.", fmt.Sprintf("Safety notice: %s", text)
	default:
		return "Command received.", ""
	}
}

// markDelayed flips the first jobsite whose name appears in the text.
// First substring match wins; the rest are not checked.
func (h *CommandHandler) markDelayed(lowerText string) (domain.Jobsite, bool) {
	jobsites, err := h.jobsites.List()
	if err != nil {
		h.log.Warn("failed to list jobsites", "error", err)
		return domain.Jobsite{}, false
	}
	for _, jobsite := range jobsites {
		if !strings.Contains(lowerText, strings.ToLower(jobsite.Name)) {
			continue
		}
		jobsite.Status = domain.JobsiteDelayed
		if err := h.jobsites.Save(jobsite); err != nil {
			h.log.Warn("failed to update jobsite status", "jobsite", jobsite.Name, "error", err)
			return domain.Jobsite{}, false
		}
		return jobsite, true
	}
	return domain.Jobsite{}, false
}

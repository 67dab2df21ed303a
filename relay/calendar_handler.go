package relay

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"crew-relay/contract"
	"crew-relay/domain"
	"crew-relay/errors"
	"crew-relay/repositories"
)

// CalendarHandler keeps shared state in sync: messages flagged as
// calendar events, jobsite dates, reactions and read receipts. Every
// mutation is answered to the requester first, then broadcast so all
// clients converge.
type CalendarHandler struct {
	messages  repositories.IMessageRepository
	jobsites  repositories.IJobsiteRepository
	reactions repositories.IReactionRepository
	hub       *Hub
	log       *slog.Logger
}

func NewCalendarHandler(
	messages repositories.IMessageRepository,
	jobsites repositories.IJobsiteRepository,
	reactions repositories.IReactionRepository,
	hub *Hub,
	log *slog.Logger,
) *CalendarHandler {
	return &CalendarHandler{
		messages:  messages,
		jobsites:  jobsites,
		reactions: reactions,
		hub:       hub,
		log:       log,
	}
}

func (h *CalendarHandler) HandleCalendar(ctx context.Context, session contract.Session, frame CalendarFrame) {
	switch frame.Action {
	case "create":
		h.createEvent(ctx, session, frame)
	case "update":
		h.updateJobsite(ctx, session, frame)
	case "fetch":
		h.fetchEvents(ctx, session, frame)
	}
}

// createEvent marks an existing message as a calendar event.
func (h *CalendarHandler) createEvent(ctx context.Context, session contract.Session, frame CalendarFrame) {
	messageID, err := uuid.Parse(frame.MessageID)
	if err != nil {
		sendError(session, "missing or invalid field: messageId", frame.RequestID)
		return
	}
	message, err := h.messages.Mutate(messageID, func(m *domain.Message) {
		m.IsCalendarEvent = true
		m.EventTitle = frame.Title
		m.EventDate = frame.Date
	})
	if err == errors.ErrMessageNotFound {
		sendError(session, "Message not found", frame.RequestID)
		return
	}
	if err != nil {
		h.log.Error("failed to update message", "error", err)
		sendError(session, "Failed to save calendar event", frame.RequestID)
		return
	}
	message.Reactions = h.aggregateOrEmpty(message.ID)

	payload := toMessagePayload(message)
	if err := session.Send(CalendarEventResponse{
		Type:      "calendar-event-response",
		Message:   &payload,
		RequestID: frame.RequestID,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		h.log.Warn("failed to send calendar response", "error", err)
	}

	h.hub.Broadcast(CalendarEventUpdate{
		Type:      "calendar-event-update",
		Message:   &payload,
		Timestamp: time.Now().UTC(),
	})
}

// updateJobsite moves a jobsite's start or end date.
func (h *CalendarHandler) updateJobsite(_ context.Context, session contract.Session, frame CalendarFrame) {
	jobsiteID, err := uuid.Parse(frame.JobsiteID)
	if err != nil {
		sendError(session, "missing or invalid field: jobsiteId", frame.RequestID)
		return
	}
	jobsite, err := h.jobsites.Get(jobsiteID)
	if err != nil {
		sendError(session, "Jobsite not found", frame.RequestID)
		return
	}

	if frame.StartDate != "" {
		start, err := time.Parse("2006-01-02", frame.StartDate)
		if err != nil {
			sendError(session, "missing or invalid field: startDate", frame.RequestID)
			return
		}
		jobsite.StartDate = start.UTC()
	}
	if frame.EndDate != "" {
		end, err := time.Parse("2006-01-02", frame.EndDate)
		if err != nil {
			sendError(session, "missing or invalid field: endDate", frame.RequestID)
			return
		}
		endUTC := end.UTC()
		jobsite.EndDate = &endUTC
	}
	if err := h.jobsites.Save(jobsite); err != nil {
		h.log.Error("failed to save jobsite", "error", err)
		sendError(session, "Failed to save jobsite", frame.RequestID)
		return
	}

	payload := toJobsitePayload(jobsite)
	if err := session.Send(CalendarEventResponse{
		Type:      "calendar-event-response",
		Jobsite:   &payload,
		RequestID: frame.RequestID,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		h.log.Warn("failed to send calendar response", "error", err)
	}

	h.hub.Broadcast(CalendarEventUpdate{
		Type:      "calendar-event-update",
		Jobsite:   &payload,
		Timestamp: time.Now().UTC(),
	})
}

// fetchEvents is read-only and never broadcasts.
func (h *CalendarHandler) fetchEvents(_ context.Context, session contract.Session, frame CalendarFrame) {
	events, err := h.messages.CalendarEvents()
	if err != nil {
		h.log.Error("failed to fetch calendar events", "error", err)
		sendError(session, "Failed to fetch calendar events", frame.RequestID)
		return
	}
	jobsites, err := h.jobsites.List()
	if err != nil {
		h.log.Error("failed to list jobsites", "error", err)
		sendError(session, "Failed to fetch jobsites", frame.RequestID)
		return
	}

	for i := range events {
		events[i].Reactions = h.aggregateOrEmpty(events[i].ID)
	}
	if err := session.Send(CalendarEventsResponse{
		Type:      "calendar-events-response",
		Events:    lo.Map(events, func(m domain.Message, _ int) MessagePayload { return toMessagePayload(m) }),
		Jobsites:  lo.Map(jobsites, func(j domain.Jobsite, _ int) JobsitePayload { return toJobsitePayload(j) }),
		RequestID: frame.RequestID,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		h.log.Warn("failed to send calendar events", "error", err)
	}
}

// HandleReaction toggles a reaction and re-derives the aggregate.
// Add and remove are idempotent at (messageId, userId, emoji) granularity.
func (h *CalendarHandler) HandleReaction(_ context.Context, session contract.Session, frame ReactionFrame) {
	messageID, err := uuid.Parse(frame.MessageID)
	if err != nil {
		sendError(session, "missing or invalid field: messageId", frame.RequestID)
		return
	}
	if _, err := h.messages.Get(messageID); err != nil {
		sendError(session, "Message not found", frame.RequestID)
		return
	}

	switch frame.Action {
	case "add":
		err = h.reactions.Add(domain.Reaction{
			MessageID: messageID,
			UserID:    frame.UserID,
			UserName:  frame.UserName,
			Emoji:     frame.Emoji,
		})
	case "remove":
		err = h.reactions.Remove(messageID, frame.UserID, frame.Emoji)
	}
	if err != nil {
		h.log.Error("failed to store reaction", "error", err)
		sendError(session, "Failed to save reaction", frame.RequestID)
		return
	}

	// Always recomputed from the normalized records, never incremented.
	aggregate, err := h.reactions.Aggregate(messageID)
	if err != nil {
		h.log.Error("failed to aggregate reactions", "error", err)
		sendError(session, "Failed to load reactions", frame.RequestID)
		return
	}

	if err := session.Send(ReactionResponse{
		Type:      "reaction-response",
		MessageID: frame.MessageID,
		Reactions: aggregate,
		RequestID: frame.RequestID,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		h.log.Warn("failed to send reaction response", "error", err)
	}

	h.hub.Broadcast(ReactionUpdate{
		Type:      "message-reaction-update",
		MessageID: frame.MessageID,
		Reactions: aggregate,
		Timestamp: time.Now().UTC(),
	})
}

// HandleRead records a read receipt and broadcasts the updated set.
func (h *CalendarHandler) HandleRead(_ context.Context, session contract.Session, frame ReadFrame) {
	messageID, err := uuid.Parse(frame.MessageID)
	if err != nil {
		sendError(session, "missing or invalid field: messageId", frame.RequestID)
		return
	}
	message, err := h.messages.Mutate(messageID, func(m *domain.Message) {
		if !lo.Contains(m.ReadBy, frame.UserID) {
			m.ReadBy = append(m.ReadBy, frame.UserID)
		}
	})
	if err == errors.ErrMessageNotFound {
		sendError(session, "Message not found", frame.RequestID)
		return
	}
	if err != nil {
		h.log.Error("failed to update read receipts", "error", err)
		sendError(session, "Failed to save read receipt", frame.RequestID)
		return
	}

	if err := session.Send(ReadResponse{
		Type:      "message-read-response",
		MessageID: frame.MessageID,
		ReadBy:    message.ReadBy,
		RequestID: frame.RequestID,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		h.log.Warn("failed to send read response", "error", err)
	}

	h.hub.Broadcast(ReadUpdate{
		Type:      "message-read-update",
		MessageID: frame.MessageID,
		ReadBy:    message.ReadBy,
		Timestamp: time.Now().UTC(),
	})
}

func (h *CalendarHandler) aggregateOrEmpty(messageID uuid.UUID) map[string][]string {
	aggregate, err := h.reactions.Aggregate(messageID)
	if err != nil {
		h.log.Warn("failed to aggregate reactions", "error", err)
		return map[string][]string{}
	}
	return aggregate
}

// Package relay is the WebSocket hub that routes commands, chat turns and
// calendar state between the boss and the crew.
package relay

import (
	"time"

	"crew-relay/domain"
)

// Inbound frame discriminators.
const (
	TypeCommand     = "command"
	TypeChatMessage = "chat-message"
	TypeCalendar    = "calendar-event"
	TypeReaction    = "message-reaction"
	TypeRead        = "message-read"
)

// envelope is the minimal shape every inbound frame must carry.
type envelope struct {
	Type      string `json:"type"`
	RequestID string `json:"requestId"`
}

type CommandFrame struct {
	Command   string `json:"command" validate:"required"`
	Timestamp string `json:"timestamp"`
	UserID    string `json:"userId"`
	JobsiteID string `json:"jobsiteId"`
	RequestID string `json:"requestId"`
}

type ChatFrame struct {
	Text      string `json:"text" validate:"required"`
	Role      string `json:"role" validate:"required,oneof=boss worker"`
	Language  string `json:"language" validate:"omitempty,oneof=en es"`
	Timestamp string `json:"timestamp"`
	UserID    string `json:"userId"`
	RequestID string `json:"requestId"`
}

type CalendarFrame struct {
	Action    string `json:"action" validate:"required,oneof=create update fetch"`
	MessageID string `json:"messageId" validate:"required_if=Action create"`
	Title     string `json:"title"`
	Date      string `json:"date"`
	JobsiteID string `json:"jobsiteId" validate:"required_if=Action update"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	RequestID string `json:"requestId"`
}

type ReactionFrame struct {
	MessageID string `json:"messageId" validate:"required"`
	UserID    string `json:"userId" validate:"required"`
	UserName  string `json:"userName"`
	Emoji     string `json:"emoji" validate:"required"`
	Action    string `json:"action" validate:"required,oneof=add remove"`
	RequestID string `json:"requestId"`
}

type ReadFrame struct {
	MessageID string `json:"messageId" validate:"required"`
	UserID    string `json:"userId" validate:"required"`
	RequestID string `json:"requestId"`
}

// Outbound frames. Every one carries a timestamp; responses echo the
// triggering requestId when it was present, and omit it entirely when not.

type ErrorFrame struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	RequestID string    `json:"requestId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type CommandResponse struct {
	Type             string        `json:"type"`
	Message          string        `json:"message"`
	CommandID        string        `json:"commandId"`
	NotificationSent bool          `json:"notificationSent"`
	Intent           domain.Intent `json:"intent"`
	RequestID        string        `json:"requestId,omitempty"`
	Timestamp        time.Time     `json:"timestamp"`
}

type CommandUpdate struct {
	Type      string         `json:"type"`
	Command   CommandPayload `json:"command"`
	Timestamp time.Time      `json:"timestamp"`
}

type ChatResponse struct {
	Type            string    `json:"type"`
	Text            string    `json:"text"`
	TranslatedText  string    `json:"translatedText"`
	Reply           string    `json:"reply"`
	ReplyTranslated string    `json:"replyTranslated"`
	MessageID       string    `json:"messageId"`
	ReplyMessageID  string    `json:"replyMessageId"`
	Role            string    `json:"role"`
	SourceLanguage  string    `json:"sourceLanguage"`
	TargetLanguage  string    `json:"targetLanguage"`
	RequestID       string    `json:"requestId,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

type CalendarEventResponse struct {
	Type      string          `json:"type"`
	Message   *MessagePayload `json:"message,omitempty"`
	Jobsite   *JobsitePayload `json:"jobsite,omitempty"`
	RequestID string          `json:"requestId,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

type CalendarEventsResponse struct {
	Type      string           `json:"type"`
	Events    []MessagePayload `json:"events"`
	Jobsites  []JobsitePayload `json:"jobsites"`
	RequestID string           `json:"requestId,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

type CalendarEventUpdate struct {
	Type      string          `json:"type"`
	Message   *MessagePayload `json:"message,omitempty"`
	Jobsite   *JobsitePayload `json:"jobsite,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

type ReactionResponse struct {
	Type      string              `json:"type"`
	MessageID string              `json:"messageId"`
	Reactions map[string][]string `json:"reactions"`
	RequestID string              `json:"requestId,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
}

type ReactionUpdate struct {
	Type      string              `json:"type"`
	MessageID string              `json:"messageId"`
	Reactions map[string][]string `json:"reactions"`
	Timestamp time.Time           `json:"timestamp"`
}

type ReadResponse struct {
	Type      string    `json:"type"`
	MessageID string    `json:"messageId"`
	ReadBy    []string  `json:"readBy"`
	RequestID string    `json:"requestId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// DaySummary is pushed to every session by the morning summary job.
type DaySummary struct {
	Type      string    `json:"type"`
	Text      string    `json:"text"`
	TextES    string    `json:"textEs"`
	Timestamp time.Time `json:"timestamp"`
}

type ReadUpdate struct {
	Type      string    `json:"type"`
	MessageID string    `json:"messageId"`
	ReadBy    []string  `json:"readBy"`
	Timestamp time.Time `json:"timestamp"`
}

// CommandPayload is the wire form of a persisted command.
type CommandPayload struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	UserID    string    `json:"userId"`
	JobsiteID string    `json:"jobsiteId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// MessagePayload is the wire form of a chat message, reactions aggregate
// included.
type MessagePayload struct {
	ID              string              `json:"id"`
	Text            string              `json:"text"`
	TranslatedText  string              `json:"translatedText,omitempty"`
	IsUser          bool                `json:"isUser"`
	UserID          string              `json:"userId"`
	IsCalendarEvent bool                `json:"isCalendarEvent"`
	EventTitle      string              `json:"eventTitle,omitempty"`
	EventDate       string              `json:"eventDate,omitempty"`
	ReadBy          []string            `json:"readBy,omitempty"`
	Reactions       map[string][]string `json:"reactions,omitempty"`
	Timestamp       time.Time           `json:"timestamp"`
}

type JobsitePayload struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Status    string     `json:"status"`
	StartDate time.Time  `json:"startDate"`
	EndDate   *time.Time `json:"endDate,omitempty"`
}

func toCommandPayload(command domain.Command) CommandPayload {
	return CommandPayload{
		ID:        command.ID.String(),
		Text:      command.Text,
		UserID:    command.UserID,
		JobsiteID: command.JobsiteID,
		Timestamp: command.CreatedAt,
	}
}

func toMessagePayload(message domain.Message) MessagePayload {
	return MessagePayload{
		ID:              message.ID.String(),
		Text:            message.Text,
		TranslatedText:  message.TranslatedText,
		IsUser:          message.IsUser,
		UserID:          message.UserID,
		IsCalendarEvent: message.IsCalendarEvent,
		EventTitle:      message.EventTitle,
		EventDate:       message.EventDate,
		ReadBy:          message.ReadBy,
		Reactions:       message.Reactions,
		Timestamp:       message.CreatedAt,
	}
}

func toJobsitePayload(jobsite domain.Jobsite) JobsitePayload {
	return JobsitePayload{
		ID:        jobsite.ID.String(),
		Name:      jobsite.Name,
		Status:    string(jobsite.Status),
		StartDate: jobsite.StartDate,
		EndDate:   jobsite.EndDate,
	}
}

// parseTimestamp accepts the client's RFC3339 timestamp and falls back
// to server time when absent or malformed.
func parseTimestamp(raw string) time.Time {
	if raw != "" {
		if at, err := time.Parse(time.RFC3339, raw); err == nil {
			return at.UTC()
		}
	}
	return time.Now().UTC()
}

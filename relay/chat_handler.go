package relay

import (
	"context"
	"log/slog"
	"time"

	"github.com/abadojack/whatlanggo"
	"github.com/google/uuid"

	"crew-relay/contract"
	"crew-relay/domain"
	"crew-relay/repositories"
	"crew-relay/translation"
)

// relayUserID authors the generated replies.
const relayUserID = "relay"

// ChatHandler runs one conversational turn: persist the inbound text,
// translate it toward the other party, pick a canned reply, and hand both
// directions back to the requester. Chat is point-to-point, so nothing is
// broadcast.
type ChatHandler struct {
	messages repositories.IMessageRepository
	pipeline *translation.Pipeline
	replies  *ReplyBook
	log      *slog.Logger
}

func NewChatHandler(
	messages repositories.IMessageRepository,
	pipeline *translation.Pipeline,
	replies *ReplyBook,
	log *slog.Logger,
) *ChatHandler {
	return &ChatHandler{messages: messages, pipeline: pipeline, replies: replies, log: log}
}

func (h *ChatHandler) Handle(ctx context.Context, session contract.Session, frame ChatFrame, userID string) {
	if frame.UserID != "" {
		userID = frame.UserID
	}
	isBoss := frame.Role == "boss"

	source := h.sourceLanguage(frame)
	// The boss's side reads English, the crew's side reads Spanish. When
	// the text already arrives in the needed language, translation is a
	// no-op.
	target := translation.English
	if isBoss {
		target = translation.Spanish
	}
	translated := frame.Text
	if source != target {
		translated = h.pipeline.Translate(ctx, frame.Text, target)
	}

	inbound := domain.Message{
		ID:             uuid.New(),
		Text:           frame.Text,
		TranslatedText: translated,
		IsUser:         isBoss,
		UserID:         userID,
		CreatedAt:      parseTimestamp(frame.Timestamp),
	}
	if err := h.messages.Store(inbound); err != nil {
		h.log.Error("failed to persist chat message", "error", err)
		sendError(session, "Failed to save message", frame.RequestID)
		return
	}

	// The reply is authored on the responder's side of the conversation
	// and rendered in both languages by the rule itself.
	bilingual := h.replies.Reply(ctx, translated)
	reply := bilingual.In(target)
	replyTranslated := bilingual.In(target.Other())

	outbound := domain.Message{
		ID:             uuid.New(),
		Text:           reply,
		TranslatedText: replyTranslated,
		IsUser:         !isBoss,
		UserID:         relayUserID,
		CreatedAt:      time.Now().UTC(),
	}
	if err := h.messages.Store(outbound); err != nil {
		h.log.Error("failed to persist reply message", "error", err)
		sendError(session, "Failed to save reply", frame.RequestID)
		return
	}

	if err := session.Send(ChatResponse{
		Type:            "chat-response",
		Text:            frame.Text,
		TranslatedText:  translated,
		Reply:           reply,
		ReplyTranslated: replyTranslated,
		MessageID:       inbound.ID.String(),
		ReplyMessageID:  outbound.ID.String(),
		Role:            frame.Role,
		SourceLanguage:  string(source),
		TargetLanguage:  string(target),
		RequestID:       frame.RequestID,
		Timestamp:       time.Now().UTC(),
	}); err != nil {
		h.log.Warn("failed to send chat response", "error", err)
	}
}

// sourceLanguage trusts the frame's language field and falls back to
// detection when the client didn't say.
func (h *ChatHandler) sourceLanguage(frame ChatFrame) translation.Language {
	switch frame.Language {
	case "en":
		return translation.English
	case "es":
		return translation.Spanish
	}
	info := whatlanggo.Detect(frame.Text)
	if info.Lang == whatlanggo.Spa {
		return translation.Spanish
	}
	return translation.English
}

package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"crew-relay/domain"
	"crew-relay/intent"
	"crew-relay/notify"
	"crew-relay/repositories"
	"crew-relay/translation"
)

type relayFixture struct {
	server   *Server
	hub      *Hub
	messages repositories.MessageRepository
	jobsites repositories.JobsiteRepository
}

func newRelayFixture(t *testing.T) relayFixture {
	t.Helper()
	log := slog.Default()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	messages := repositories.NewMessageRepository(db, log)
	commands := repositories.NewCommandRepository(db, log)
	jobsites := repositories.NewJobsiteRepository(db, log)
	reactions := repositories.NewReactionRepository(db, log)

	classifier, err := intent.NewClassifier(log, nil)
	require.NoError(t, err)

	pipeline := translation.NewPipeline(log, translation.NewStaticProvider())
	hub := NewHub(log)
	commandHandler := NewCommandHandler(commands, jobsites, classifier, notify.LogNotifier{Log: log},
		[]notify.Recipient{"crew-chat"}, hub, log)
	chatHandler := NewChatHandler(messages, pipeline, NewReplyBook(jobsites, commands), log)
	calendarHandler := NewCalendarHandler(messages, jobsites, reactions, hub, log)

	server := NewServer("localhost:0", hub, commandHandler, chatHandler, calendarHandler,
		"boss-1", nil, log)
	return relayFixture{server: server, hub: hub, messages: messages, jobsites: jobsites}
}

func dispatchJSON(f relayFixture, session *fakeSession, frame string) {
	f.server.dispatch(context.Background(), session, []byte(frame))
}

func TestDispatch_Unknown_Type_Unicast_Error(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)
	sender := &fakeSession{isOpen: true}
	other := &fakeSession{isOpen: true}
	f.hub.Register(sender)
	f.hub.Register(other)

	dispatchJSON(f, sender, `{"type":"bogus"}`)

	req.Len(sender.frames, 1)
	errFrame, ok := sender.frames[0].(ErrorFrame)
	req.True(ok)
	req.Equal("Unknown message type", errFrame.Message)
	req.Empty(other.frames)

	// The connection stays usable for subsequent valid frames.
	dispatchJSON(f, sender, fmt.Sprintf(
		`{"type":"command","command":"all good","timestamp":%q}`, time.Now().UTC().Format(time.RFC3339)))
	req.Len(sender.frames, 3) // error + command-response + command-update
}

func TestDispatch_Invalid_JSON_Unicast_Error(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)
	sender := &fakeSession{isOpen: true}
	f.hub.Register(sender)

	dispatchJSON(f, sender, `{not json`)

	req.Len(sender.frames, 1)
	errFrame := sender.frames[0].(ErrorFrame)
	req.Equal("Invalid JSON", errFrame.Message)
}

func TestDispatch_Validation_Error_Names_Field(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)
	sender := &fakeSession{isOpen: true}
	f.hub.Register(sender)

	dispatchJSON(f, sender, `{"type":"chat-message","role":"boss","requestId":"r1"}`)

	req.Len(sender.frames, 1)
	errFrame := sender.frames[0].(ErrorFrame)
	req.Equal("missing or invalid field: text", errFrame.Message)
	req.Equal("r1", errFrame.RequestID)
}

func TestDispatch_Late_Command_Scenario(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)

	jobsite := domain.Jobsite{
		ID:        uuid.New(),
		Name:      "Downtown Renovation",
		Status:    domain.JobsiteActive,
		StartDate: time.Now().UTC(),
	}
	req.NoError(f.jobsites.Save(jobsite))

	sender := &fakeSession{isOpen: true}
	other := &fakeSession{isOpen: true}
	closed := &fakeSession{isOpen: false}
	f.hub.Register(sender)
	f.hub.Register(other)
	f.hub.Register(closed)

	dispatchJSON(f, sender,
		`{"type":"command","command":"I'll be 20 minutes late to Downtown Renovation","requestId":"late-1"}`)

	// Exactly one response to the sender plus the broadcast copy.
	req.Len(sender.frames, 2)
	response, ok := sender.frames[0].(CommandResponse)
	req.True(ok)
	req.Equal("command-response", response.Type)
	req.True(response.NotificationSent)
	req.Contains(response.Message, "delayed")
	req.Contains(response.Message, "Downtown Renovation")
	req.Equal("late-1", response.RequestID)
	req.NotEmpty(response.CommandID)

	// Every other open connection receives exactly one broadcast with
	// the persisted command; closed connections receive nothing.
	req.Len(other.frames, 1)
	update, ok := other.frames[0].(CommandUpdate)
	req.True(ok)
	req.Equal("command-update", update.Type)
	req.Equal(response.CommandID, update.Command.ID)
	req.Contains(update.Command.Text, "late")
	req.Empty(closed.frames)

	// Jobsite flipped to delayed.
	updated, err := f.jobsites.Get(jobsite.ID)
	req.NoError(err)
	req.Equal(domain.JobsiteDelayed, updated.Status)
}

func TestDispatch_Command_Without_Side_Effect(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)
	sender := &fakeSession{isOpen: true}
	f.hub.Register(sender)

	dispatchJSON(f, sender, `{"type":"command","command":"good morning everyone"}`)

	response := sender.frames[0].(CommandResponse)
	req.False(response.NotificationSent)
	req.Equal("Command received.", response.Message)
	// No requestId on the way in means none on the way out.
	req.Empty(response.RequestID)
}

func TestDispatch_Chat_Request_Correlation(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)
	sender := &fakeSession{isOpen: true}
	other := &fakeSession{isOpen: true}
	f.hub.Register(sender)
	f.hub.Register(other)

	dispatchJSON(f, sender, `{"type":"chat-message","text":"where is the crew?","role":"boss","language":"en","requestId":"req-a"}`)
	dispatchJSON(f, sender, `{"type":"chat-message","text":"need more cement","role":"worker","language":"es","requestId":"req-b"}`)

	req.Len(sender.frames, 2)
	first := sender.frames[0].(ChatResponse)
	second := sender.frames[1].(ChatResponse)
	req.Equal("req-a", first.RequestID)
	req.Equal("req-b", second.RequestID)
	req.NotEqual(first.MessageID, second.MessageID)

	// Chat is point-to-point: no broadcast.
	req.Empty(other.frames)
}

func TestDispatch_Chat_Boss_To_Worker_Direction(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)
	sender := &fakeSession{isOpen: true}
	f.hub.Register(sender)

	dispatchJSON(f, sender, `{"type":"chat-message","text":"need more cement","role":"boss","language":"en"}`)

	response := sender.frames[0].(ChatResponse)
	req.Equal("en", response.SourceLanguage)
	req.Equal("es", response.TargetLanguage)
	req.Equal("Necesito más cemento", response.TranslatedText)
	req.NotEmpty(response.Reply)
	req.NotEmpty(response.ReplyTranslated)
}

func TestDispatch_Chat_Already_In_Needed_Language(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)
	sender := &fakeSession{isOpen: true}
	f.hub.Register(sender)

	// A boss speaking Spanish already matches the crew's language.
	dispatchJSON(f, sender, `{"type":"chat-message","text":"hola equipo","role":"boss","language":"es"}`)

	response := sender.frames[0].(ChatResponse)
	req.Equal("hola equipo", response.TranslatedText)
}

func TestDispatch_Reaction_Add_Twice_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)
	sender := &fakeSession{isOpen: true}
	f.hub.Register(sender)

	message := domain.Message{ID: uuid.New(), Text: "hola", UserID: "worker-7", CreatedAt: time.Now().UTC()}
	req.NoError(f.messages.Store(message))

	frame := fmt.Sprintf(
		`{"type":"message-reaction","messageId":%q,"userId":"boss-1","emoji":"👍","action":"add"}`, message.ID)
	dispatchJSON(f, sender, frame)
	dispatchJSON(f, sender, frame)

	req.Len(sender.frames, 4) // two responses, two broadcast copies
	first := sender.frames[0].(ReactionResponse)
	second := sender.frames[2].(ReactionResponse)
	req.Len(first.Reactions["👍"], 1)
	req.Len(second.Reactions["👍"], 1)
}

func TestDispatch_Reaction_On_Missing_Message(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)
	sender := &fakeSession{isOpen: true}
	other := &fakeSession{isOpen: true}
	f.hub.Register(sender)
	f.hub.Register(other)

	frame := fmt.Sprintf(
		`{"type":"message-reaction","messageId":%q,"userId":"boss-1","emoji":"👍","action":"add","requestId":"rx"}`,
		uuid.New())
	dispatchJSON(f, sender, frame)

	req.Len(sender.frames, 1)
	errFrame := sender.frames[0].(ErrorFrame)
	req.Equal("Message not found", errFrame.Message)
	req.Equal("rx", errFrame.RequestID)
	req.Empty(other.frames)
}

func TestDispatch_Calendar_Create_And_Fetch(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)
	sender := &fakeSession{isOpen: true}
	other := &fakeSession{isOpen: true}
	f.hub.Register(sender)
	f.hub.Register(other)

	message := domain.Message{ID: uuid.New(), Text: "Inspection Friday 9am", UserID: "boss-1", CreatedAt: time.Now().UTC()}
	req.NoError(f.messages.Store(message))

	dispatchJSON(f, sender, fmt.Sprintf(
		`{"type":"calendar-event","action":"create","messageId":%q,"title":"Inspection","date":"2026-09-04","requestId":"c1"}`,
		message.ID))

	req.Len(sender.frames, 2)
	response := sender.frames[0].(CalendarEventResponse)
	req.NotNil(response.Message)
	req.True(response.Message.IsCalendarEvent)
	req.Equal("Inspection", response.Message.EventTitle)
	req.Equal("c1", response.RequestID)

	req.Len(other.frames, 1)
	update := other.frames[0].(CalendarEventUpdate)
	req.Equal("calendar-event-update", update.Type)
	req.NotNil(update.Message)

	// Fetch is read-only: responds to the requester, no broadcast.
	otherBefore := len(other.frames)
	dispatchJSON(f, sender, `{"type":"calendar-event","action":"fetch"}`)
	events := sender.frames[len(sender.frames)-1].(CalendarEventsResponse)
	req.Len(events.Events, 1)
	req.Len(other.frames, otherBefore)
}

func TestDispatch_Calendar_Update_Jobsite_Dates(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)
	sender := &fakeSession{isOpen: true}
	f.hub.Register(sender)

	jobsite := domain.Jobsite{ID: uuid.New(), Name: "Pier 40", Status: domain.JobsiteActive, StartDate: time.Now().UTC()}
	req.NoError(f.jobsites.Save(jobsite))

	dispatchJSON(f, sender, fmt.Sprintf(
		`{"type":"calendar-event","action":"update","jobsiteId":%q,"startDate":"2026-09-07","endDate":"2026-10-01"}`,
		jobsite.ID))

	response := sender.frames[0].(CalendarEventResponse)
	req.NotNil(response.Jobsite)
	req.Equal("2026-09-07", response.Jobsite.StartDate.Format("2006-01-02"))
	req.NotNil(response.Jobsite.EndDate)

	updated, err := f.jobsites.Get(jobsite.ID)
	req.NoError(err)
	req.NotNil(updated.EndDate)
}

func TestDispatch_Read_Receipt(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)
	sender := &fakeSession{isOpen: true}
	f.hub.Register(sender)

	message := domain.Message{ID: uuid.New(), Text: "hola", UserID: "boss-1", CreatedAt: time.Now().UTC()}
	req.NoError(f.messages.Store(message))

	frame := fmt.Sprintf(`{"type":"message-read","messageId":%q,"userId":"worker-7"}`, message.ID)
	dispatchJSON(f, sender, frame)
	dispatchJSON(f, sender, frame)

	last := sender.frames[len(sender.frames)-2].(ReadResponse)
	req.Equal([]string{"worker-7"}, last.ReadBy)
}

func TestChatResponse_RequestID_Omitted_When_Absent(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)
	sender := &fakeSession{isOpen: true}
	f.hub.Register(sender)

	dispatchJSON(f, sender, `{"type":"chat-message","text":"hello","role":"boss","language":"en"}`)

	raw, err := json.Marshal(sender.frames[0])
	req.NoError(err)
	req.NotContains(string(raw), "requestId")
}

package relay

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"

	"crew-relay/contract"
)

// Server accepts WebSocket connections on /ws and dispatches inbound
// frames to the handlers. One goroutine per connection reads frames and
// processes each to completion before the next; frames on different
// connections interleave freely. A malformed frame gets a unicast error
// and the connection stays up.
type Server struct {
	addr          string
	hub           *Hub
	commands      *CommandHandler
	chats         *ChatHandler
	calendar      *CalendarHandler
	defaultUserID string
	validate      *validator.Validate
	upgrader      websocket.Upgrader
	healthProbe   func(ctx context.Context) error
	log           *slog.Logger
}

func NewServer(
	addr string,
	hub *Hub,
	commands *CommandHandler,
	chats *ChatHandler,
	calendar *CalendarHandler,
	defaultUserID string,
	healthProbe func(ctx context.Context) error,
	log *slog.Logger,
) *Server {
	validate := validator.New()
	// Report json field names in validation errors, not Go field names.
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return field.Name
		}
		return name
	})
	return &Server{
		addr:          addr,
		hub:           hub,
		commands:      commands,
		chats:         chats,
		calendar:      calendar,
		defaultUserID: defaultUserID,
		validate:      validate,
		upgrader:      websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		healthProbe:   healthProbe,
		log:           log,
	}
}

// Run starts the HTTP server and blocks until the context is canceled.
// Implements contract.Worker, so a crash gets the server restarted by
// the supervisor.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/health", s.handleHealth)

	server := &http.Server{Addr: s.addr, Handler: mux}
	errChan := make(chan error, 1)
	go func() {
		s.log.Info("Relay listening", "address", s.addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("relay server: %w", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok", "connections": fmt.Sprintf("%d", s.hub.Count())}
	if s.healthProbe != nil {
		if err := s.healthProbe(r.Context()); err != nil {
			status["provider"] = err.Error()
		} else {
			status["provider"] = "ok"
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(status)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	session := newWSSession(conn, s.log)
	session.open()
	s.hub.Register(session)
	defer func() {
		s.hub.Unregister(session)
		session.close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			s.log.Debug("connection closed", "error", err)
			return
		}
		s.dispatch(r.Context(), session, raw)
	}
}

// dispatch parses one frame and routes it by its type discriminator.
// Any failure answers the originating session only; other connections
// are never affected.
func (s *Server) dispatch(ctx context.Context, session contract.Session, raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		sendError(session, "Invalid JSON", "")
		return
	}

	switch env.Type {
	case TypeCommand:
		var frame CommandFrame
		if !s.decode(session, raw, &frame, env.RequestID) {
			return
		}
		s.commands.Handle(ctx, session, frame, s.defaultUserID)
	case TypeChatMessage:
		var frame ChatFrame
		if !s.decode(session, raw, &frame, env.RequestID) {
			return
		}
		s.chats.Handle(ctx, session, frame, s.defaultUserID)
	case TypeCalendar:
		var frame CalendarFrame
		if !s.decode(session, raw, &frame, env.RequestID) {
			return
		}
		s.calendar.HandleCalendar(ctx, session, frame)
	case TypeReaction:
		var frame ReactionFrame
		if !s.decode(session, raw, &frame, env.RequestID) {
			return
		}
		s.calendar.HandleReaction(ctx, session, frame)
	case TypeRead:
		var frame ReadFrame
		if !s.decode(session, raw, &frame, env.RequestID) {
			return
		}
		s.calendar.HandleRead(ctx, session, frame)
	default:
		sendError(session, "Unknown message type", env.RequestID)
	}
}

// decode unmarshals and validates a typed frame, answering the session
// with a field-naming error frame on failure.
func (s *Server) decode(session contract.Session, raw []byte, frame any, requestID string) bool {
	if err := json.Unmarshal(raw, frame); err != nil {
		sendError(session, "Invalid JSON", requestID)
		return false
	}
	if err := s.validate.Struct(frame); err != nil {
		var fieldErrors validator.ValidationErrors
		if ok := stderrors.As(err, &fieldErrors); ok && len(fieldErrors) > 0 {
			sendError(session, fmt.Sprintf("missing or invalid field: %s", fieldErrors[0].Field()), requestID)
		} else {
			sendError(session, "Invalid frame", requestID)
		}
		return false
	}
	return true
}

func sendError(session contract.Session, message, requestID string) {
	_ = session.Send(ErrorFrame{
		Type:      "error",
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
	})
}

package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"crew-relay/domain"
	"crew-relay/errors"
)

type IMessageRepository interface {
	Store(message domain.Message) error
	Get(id uuid.UUID) (domain.Message, error)
	Update(message domain.Message) error
	Mutate(id uuid.UUID, apply func(*domain.Message)) (domain.Message, error)
	List(limit *int) ([]domain.Message, error)
	CalendarEvents() ([]domain.Message, error)
}

type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) MessageRepository {
	return MessageRepository{db: db, log: log}
}

type diskMessage struct {
	ID              string   `json:"id"`
	Text            string   `json:"text"`
	TranslatedText  string   `json:"translatedText,omitempty"`
	IsUser          bool     `json:"isUser"`
	UserID          string   `json:"userId"`
	IsCalendarEvent bool     `json:"isCalendarEvent,omitempty"`
	EventTitle      string   `json:"eventTitle,omitempty"`
	EventDate       string   `json:"eventDate,omitempty"`
	ReadBy          []string `json:"readBy,omitempty"`
	At              int64    `json:"at"`
}

// Store persists a message under two keys:
//  1. "msg:{timestamp_padded}:{uuid}" holds the payload. The 19-digit zero
//     padding keeps keys in chronological order under lexicographic sort,
//     with the UUID as a collision disconnector.
//  2. "msgix:{uuid}" points at the payload key so lookups by ID stay cheap.
func (m MessageRepository) Store(message domain.Message) error {
	key := messageKey(message)
	bytes, err := json.Marshal(fromMessage(message))
	if err != nil {
		return err
	}
	return m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(key), bytes); err != nil {
			return err
		}
		return txn.Set([]byte(messageIndexKey(message.ID)), []byte(key))
	})
}

func (m MessageRepository) Get(id uuid.UUID) (domain.Message, error) {
	var message domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		value, err := m.resolve(txn, id)
		if err != nil {
			return err
		}
		message, err = toMessage(value)
		return err
	})
	return message, err
}

// Update rewrites the payload in place. CreatedAt never changes after
// Store, so the chronological key stays stable.
func (m MessageRepository) Update(message domain.Message) error {
	bytes, err := json.Marshal(fromMessage(message))
	if err != nil {
		return err
	}
	return m.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(messageIndexKey(message.ID)))
		if err == badger.ErrKeyNotFound {
			return errors.ErrMessageNotFound
		}
		if err != nil {
			return err
		}
		key, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		return txn.Set(key, bytes)
	})
}

// Mutate reads, applies and rewrites a message inside one transaction,
// so two concurrent mutations of the same message conflict in Badger
// instead of silently losing one of the writes.
func (m MessageRepository) Mutate(id uuid.UUID, apply func(*domain.Message)) (domain.Message, error) {
	var message domain.Message
	err := m.db.Update(func(txn *badger.Txn) error {
		value, err := m.resolve(txn, id)
		if err != nil {
			return err
		}
		message, err = toMessage(value)
		if err != nil {
			return err
		}
		apply(&message)
		bytes, err := json.Marshal(fromMessage(message))
		if err != nil {
			return err
		}
		return txn.Set([]byte(messageKey(message)), bytes)
	})
	return message, err
}

// List returns messages newest first, stopping at limit when provided.
func (m MessageRepository) List(limit *int) ([]domain.Message, error) {
	var messages []domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte("msg:")
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Seek past the newest possible timestamp, then walk backwards.
		seekKey := append(append([]byte{}, prefix...), []byte("9999999999999999999")...)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if limit != nil && len(messages) == *limit {
				m.log.Debug(fmt.Sprintf("Maximum of %d messages reached", *limit))
				break
			}
			var value []byte
			if err := it.Item().Value(func(v []byte) error {
				value = append([]byte{}, v...)
				return nil
			}); err != nil {
				return err
			}
			message, err := toMessage(value)
			if err != nil {
				return err
			}
			messages = append(messages, message)
		}
		return nil
	})
	return messages, err
}

// CalendarEvents returns every message flagged as a calendar event,
// oldest first.
func (m MessageRepository) CalendarEvents() ([]domain.Message, error) {
	var events []domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte("msg:")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var value []byte
			if err := it.Item().Value(func(v []byte) error {
				value = append([]byte{}, v...)
				return nil
			}); err != nil {
				return err
			}
			message, err := toMessage(value)
			if err != nil {
				return err
			}
			if message.IsCalendarEvent {
				events = append(events, message)
			}
		}
		return nil
	})
	return events, err
}

func (m MessageRepository) resolve(txn *badger.Txn, id uuid.UUID) ([]byte, error) {
	item, err := txn.Get([]byte(messageIndexKey(id)))
	if err == badger.ErrKeyNotFound {
		return nil, errors.ErrMessageNotFound
	}
	if err != nil {
		return nil, err
	}
	key, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}
	item, err = txn.Get(key)
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

func messageKey(message domain.Message) string {
	return fmt.Sprintf("msg:%019d:%s", message.CreatedAt.UnixNano(), message.ID)
}

func messageIndexKey(id uuid.UUID) string {
	return fmt.Sprintf("msgix:%s", id)
}

func fromMessage(message domain.Message) diskMessage {
	return diskMessage{
		ID:              message.ID.String(),
		Text:            message.Text,
		TranslatedText:  message.TranslatedText,
		IsUser:          message.IsUser,
		UserID:          message.UserID,
		IsCalendarEvent: message.IsCalendarEvent,
		EventTitle:      message.EventTitle,
		EventDate:       message.EventDate,
		ReadBy:          message.ReadBy,
		At:              message.CreatedAt.UnixNano(),
	}
}

func toMessage(value []byte) (domain.Message, error) {
	var dm diskMessage
	if err := json.Unmarshal(value, &dm); err != nil {
		return domain.Message{}, err
	}
	parsedID, err := uuid.Parse(dm.ID)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:              parsedID,
		Text:            dm.Text,
		TranslatedText:  dm.TranslatedText,
		IsUser:          dm.IsUser,
		UserID:          dm.UserID,
		IsCalendarEvent: dm.IsCalendarEvent,
		EventTitle:      dm.EventTitle,
		EventDate:       dm.EventDate,
		ReadBy:          dm.ReadBy,
		CreatedAt:       time.Unix(0, dm.At).UTC(),
	}, nil
}

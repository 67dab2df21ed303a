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

type ICommandRepository interface {
	Store(command domain.Command) error
	Get(id uuid.UUID) (domain.Command, error)
	Recent(limit int) ([]domain.Command, error)
}

type CommandRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewCommandRepository(db *badger.DB, log *slog.Logger) CommandRepository {
	return CommandRepository{db: db, log: log}
}

type diskCommand struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	UserID    string `json:"userId"`
	JobsiteID string `json:"jobsiteId,omitempty"`
	At        int64  `json:"at"`
}

// Store uses the same double-key scheme as messages: a timestamp-padded
// payload key for chronological scans plus an ID index for point lookups.
func (c CommandRepository) Store(command domain.Command) error {
	key := fmt.Sprintf("cmd:%019d:%s", command.CreatedAt.UnixNano(), command.ID)
	bytes, err := json.Marshal(diskCommand{
		ID:        command.ID.String(),
		Text:      command.Text,
		UserID:    command.UserID,
		JobsiteID: command.JobsiteID,
		At:        command.CreatedAt.UnixNano(),
	})
	if err != nil {
		return err
	}
	return c.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(key), bytes); err != nil {
			return err
		}
		return txn.Set([]byte(fmt.Sprintf("cmdix:%s", command.ID)), []byte(key))
	})
}

func (c CommandRepository) Get(id uuid.UUID) (domain.Command, error) {
	var command domain.Command
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(fmt.Sprintf("cmdix:%s", id)))
		if err == badger.ErrKeyNotFound {
			return errors.ErrCommandNotFound
		}
		if err != nil {
			return err
		}
		key, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		item, err = txn.Get(key)
		if err != nil {
			return err
		}
		value, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		command, err = toCommand(value)
		return err
	})
	return command, err
}

// Recent returns the latest commands, newest first.
func (c CommandRepository) Recent(limit int) ([]domain.Command, error) {
	var commands []domain.Command
	err := c.db.View(func(txn *badger.Txn) error {
		prefix := []byte("cmd:")
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		seekKey := append(append([]byte{}, prefix...), []byte("9999999999999999999")...)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if len(commands) == limit {
				break
			}
			var value []byte
			if err := it.Item().Value(func(v []byte) error {
				value = append([]byte{}, v...)
				return nil
			}); err != nil {
				return err
			}
			command, err := toCommand(value)
			if err != nil {
				return err
			}
			commands = append(commands, command)
		}
		return nil
	})
	return commands, err
}

func toCommand(value []byte) (domain.Command, error) {
	var dc diskCommand
	if err := json.Unmarshal(value, &dc); err != nil {
		return domain.Command{}, err
	}
	parsedID, err := uuid.Parse(dc.ID)
	if err != nil {
		return domain.Command{}, err
	}
	return domain.Command{
		ID:        parsedID,
		Text:      dc.Text,
		UserID:    dc.UserID,
		JobsiteID: dc.JobsiteID,
		CreatedAt: time.Unix(0, dc.At).UTC(),
	}, nil
}

package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"crew-relay/domain"
)

type IReactionRepository interface {
	Add(reaction domain.Reaction) error
	Remove(messageID uuid.UUID, userID, emoji string) error
	Aggregate(messageID uuid.UUID) (map[string][]string, error)
}

// ReactionRepository stores one record per (message, user, emoji) tuple.
// The key itself carries the full tuple, which makes Add and Remove
// naturally idempotent: re-adding overwrites the same key, removing an
// absent key is a no-op in Badger.
type ReactionRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewReactionRepository(db *badger.DB, log *slog.Logger) ReactionRepository {
	return ReactionRepository{db: db, log: log}
}

type diskReaction struct {
	MessageID string `json:"messageId"`
	UserID    string `json:"userId"`
	UserName  string `json:"userName,omitempty"`
	Emoji     string `json:"emoji"`
}

func (r ReactionRepository) Add(reaction domain.Reaction) error {
	key := reactionKey(reaction.MessageID, reaction.UserID, reaction.Emoji)
	bytes, err := json.Marshal(diskReaction{
		MessageID: reaction.MessageID.String(),
		UserID:    reaction.UserID,
		UserName:  reaction.UserName,
		Emoji:     reaction.Emoji,
	})
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
}

func (r ReactionRepository) Remove(messageID uuid.UUID, userID, emoji string) error {
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(reactionKey(messageID, userID, emoji)))
	})
}

// Aggregate recomputes the emoji -> user names map from the normalized
// records. Always a full prefix scan, never an incremental counter, so
// concurrent adds and removes on the same message converge.
func (r ReactionRepository) Aggregate(messageID uuid.UUID) (map[string][]string, error) {
	aggregate := make(map[string][]string)
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("react:%s:", messageID))
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
			var dr diskReaction
			if err := json.Unmarshal(value, &dr); err != nil {
				return err
			}
			name := dr.UserName
			if name == "" {
				name = dr.UserID
			}
			aggregate[dr.Emoji] = append(aggregate[dr.Emoji], name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return aggregate, nil
}

func reactionKey(messageID uuid.UUID, userID, emoji string) string {
	return fmt.Sprintf("react:%s:%s:%s", messageID, userID, emoji)
}

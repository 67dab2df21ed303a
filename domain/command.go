package domain

import (
	"time"

	"github.com/google/uuid"
)

// Command is a voice or typed instruction from the boss.
// Immutable once persisted.
type Command struct {
	ID        uuid.UUID
	Text      string
	UserID    string
	JobsiteID string
	CreatedAt time.Time
}

// Package domain contains core concepts of the crew relay.
// This file defines chat messages exchanged between the boss and the crew.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message represents one chat turn between the boss and the crew.
// Text is stored verbatim as received; TranslatedText carries the other
// party's rendition. Calendar fields and ReadBy are mutated in place by
// later frames. Reactions is a derived aggregate recomputed from the
// normalized Reaction records, never updated incrementally.
type Message struct {
	ID              uuid.UUID
	Text            string
	TranslatedText  string
	IsUser          bool // true when the boss side authored the message
	UserID          string
	IsCalendarEvent bool
	EventTitle      string
	EventDate       string
	ReadBy          []string
	Reactions       map[string][]string
	CreatedAt       time.Time
}

// Reaction is the normalized record behind the Reactions aggregate.
// One record per (message, user, emoji) tuple.
type Reaction struct {
	MessageID uuid.UUID
	UserID    string
	UserName  string
	Emoji     string
}

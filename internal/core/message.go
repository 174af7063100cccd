package core

import "time"

// Message is the domain model for a chat message. Messages are never mutated.
type Message struct {
	ID     string
	Author string
	Text   string
	SentAt time.Time
}

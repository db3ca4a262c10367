package domain

import (
	"slices"
	"strings"
	"time"
)

// AuthorType identifies who wrote a message
type AuthorType string

const (
	AuthorUser AuthorType = "user"
	AuthorAI   AuthorType = "ai"
)

// Source is a citation attached to an AI message
type Source struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Message is one entry in a space's append-only message log
type Message struct {
	ID        string     `json:"id"`
	Content   string     `json:"content"`
	Type      AuthorType `json:"type"`
	UserID    string     `json:"userId"`
	Timestamp time.Time  `json:"timestamp"`
	Sources   []Source   `json:"sources,omitempty"`
}

// Clone returns a copy that shares no slices with m
func (m Message) Clone() Message {
	m.Sources = slices.Clone(m.Sources)
	return m
}

// NewMessage is a message before the log assigns its id and timestamp
type NewMessage struct {
	Content string     `json:"content"`
	Type    AuthorType `json:"type"`
	UserID  string     `json:"userId"`
	Sources []Source   `json:"sources,omitempty"`
}

// Validate checks the message content and author
func (m *NewMessage) Validate() error {
	var invalid []string
	if strings.TrimSpace(m.Content) == "" || len(m.Content) > MaxMessageLength {
		invalid = append(invalid, "content")
	}
	if m.Type != AuthorUser && m.Type != AuthorAI {
		invalid = append(invalid, "type")
	}
	if len(invalid) > 0 {
		return NewValidationError("invalid message", invalid...)
	}
	return nil
}

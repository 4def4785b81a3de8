package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// MessageStatus represents where a contact message is in the inbox workflow
type MessageStatus string

const (
	MessageStatusPending  MessageStatus = "PENDING"
	MessageStatusRead     MessageStatus = "READ"
	MessageStatusResolved MessageStatus = "RESOLVED"
)

// IsValid reports whether s is one of the known statuses
func (s MessageStatus) IsValid() bool {
	switch s {
	case MessageStatusPending, MessageStatusRead, MessageStatusResolved:
		return true
	}
	return false
}

// Message represents a contact message left through the public form
type Message struct {
	ID        uuid.UUID     `json:"id" db:"id"`
	FullName  string        `json:"full_name" db:"full_name"`
	Email     string        `json:"email" db:"email"`
	Phone     *string       `json:"phone" db:"phone"`
	Message   string        `json:"message" db:"message"`
	Status    MessageStatus `json:"status" db:"status"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt time.Time     `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Message model
func (Message) TableName() string {
	return "messages"
}

// NewMessage creates a new pending Message. An empty phone is stored as NULL.
func NewMessage(fullName, email, phone, body string) *Message {
	now := time.Now().UTC()
	m := &Message{
		ID:        uuid.New(),
		FullName:  strings.TrimSpace(fullName),
		Email:     strings.TrimSpace(email),
		Message:   body,
		Status:    MessageStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if p := strings.TrimSpace(phone); p != "" {
		m.Phone = &p
	}
	return m
}

// MessageTotals counts messages per status
type MessageTotals struct {
	All      int `json:"all"`
	Pending  int `json:"pending"`
	Read     int `json:"read"`
	Resolved int `json:"resolved"`
}

// MessagesByStatus holds messages grouped by status
type MessagesByStatus struct {
	Pending  []*Message `json:"pending"`
	Read     []*Message `json:"read"`
	Resolved []*Message `json:"resolved"`
}

// MessageInbox is the grouped listing returned to the inbox owner
type MessageInbox struct {
	Total    MessageTotals    `json:"total"`
	Messages MessagesByStatus `json:"messages"`
}

// GroupMessages buckets messages by status, keeping their order. Every bucket
// is non-nil so it serializes as an empty list.
func GroupMessages(messages []*Message) *MessageInbox {
	inbox := &MessageInbox{
		Messages: MessagesByStatus{
			Pending:  []*Message{},
			Read:     []*Message{},
			Resolved: []*Message{},
		},
	}
	for _, m := range messages {
		switch m.Status {
		case MessageStatusPending:
			inbox.Messages.Pending = append(inbox.Messages.Pending, m)
		case MessageStatusRead:
			inbox.Messages.Read = append(inbox.Messages.Read, m)
		case MessageStatusResolved:
			inbox.Messages.Resolved = append(inbox.Messages.Resolved, m)
		}
	}
	inbox.Total = MessageTotals{
		All:      len(messages),
		Pending:  len(inbox.Messages.Pending),
		Read:     len(inbox.Messages.Read),
		Resolved: len(inbox.Messages.Resolved),
	}
	return inbox
}

package models

import "time"

type ConversationStatus string

const (
	ConversationActive   ConversationStatus = "active"
	ConversationArchived ConversationStatus = "archived"
)

type Conversation struct {
	ID            string             `db:"id" json:"id"`
	EmployerID    int64              `db:"employer_id" json:"employerId"`
	WorkerID      int64              `db:"worker_id" json:"workerId"`
	MatchID       *string            `db:"match_id" json:"matchId,omitempty"`
	LastMessageID *string            `db:"last_message_id" json:"lastMessageId,omitempty"`
	LastMessageAt *time.Time         `db:"last_message_at" json:"lastMessageAt,omitempty"`
	Status        ConversationStatus `db:"status" json:"status"`
	CreatedAt     time.Time          `db:"created_at" json:"createdAt"`
}

// HasParticipant reports whether userID is either side of the conversation.
func (c *Conversation) HasParticipant(userID int64) bool {
	return c.EmployerID == userID || c.WorkerID == userID
}

// Other returns the participant that is not userID.
func (c *Conversation) Other(userID int64) int64 {
	if c.EmployerID == userID {
		return c.WorkerID
	}
	return c.EmployerID
}

type MessageType string

const (
	MessageText   MessageType = "text"
	MessageImage  MessageType = "image"
	MessageFile   MessageType = "file"
	MessageSystem MessageType = "system"
)

func (t MessageType) Valid() bool {
	switch t {
	case MessageText, MessageImage, MessageFile, MessageSystem:
		return true
	}
	return false
}

type MessageStatus string

const (
	MessageSent      MessageStatus = "sent"
	MessageDelivered MessageStatus = "delivered"
	MessageRead      MessageStatus = "read"
)

type Message struct {
	ID             string        `db:"id" json:"id"`
	ConversationID string        `db:"conversation_id" json:"conversationId"`
	SenderID       int64         `db:"sender_id" json:"senderId"`
	Content        string        `db:"content" json:"content"`
	Type           MessageType   `db:"type" json:"type"`
	Status         MessageStatus `db:"status" json:"status"`
	CreatedAt      time.Time     `db:"created_at" json:"createdAt"`
}

package models

type EventType string

const (
	EventNewApplication      EventType = "application.new"
	EventApplicationApproved EventType = "application.approved"
	EventMatchCreated        EventType = "match.created"
	EventNewMessage          EventType = "message.new"
)

// Event is something a user gets notified about.
type Event struct {
	Type           EventType `json:"type"`
	ListingID      string    `json:"listingId,omitempty"`
	ApplicationID  string    `json:"applicationId,omitempty"`
	MatchID        string    `json:"matchId,omitempty"`
	ConversationID string    `json:"conversationId,omitempty"`
	Text           string    `json:"text,omitempty"`
}

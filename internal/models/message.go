package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message is a direct message between two users. IsRead only moves from
// false to true, when the recipient opens the conversation.
type Message struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Sender    primitive.ObjectID `bson:"sender" json:"sender"`
	Recipient primitive.ObjectID `bson:"recipient" json:"recipient"`
	Text      string             `bson:"text,omitempty" json:"text,omitempty"`
	Image     string             `bson:"image,omitempty" json:"image,omitempty"`
	IsRead    bool               `bson:"isRead" json:"isRead"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Counterpart returns the participant of m that is not userID.
func (m *Message) Counterpart(userID primitive.ObjectID) primitive.ObjectID {
	if m.Sender == userID {
		return m.Recipient
	}
	return m.Sender
}

// MessageView is a message with sender and recipient profiles populated.
type MessageView struct {
	ID        primitive.ObjectID `json:"_id"`
	Sender    PublicProfile      `json:"sender"`
	Recipient PublicProfile      `json:"recipient"`
	Text      string             `json:"text,omitempty"`
	Image     string             `json:"image,omitempty"`
	IsRead    bool               `json:"isRead"`
	CreatedAt time.Time          `json:"createdAt"`
}

// ConversationSummary is one entry of a user's message directory.
type ConversationSummary struct {
	UserID          primitive.ObjectID `bson:"userId" json:"userId"`
	User            PublicProfile      `bson:"user" json:"user"`
	LastMessage     string             `bson:"lastMessage" json:"lastMessage"`
	LastMessageTime time.Time          `bson:"lastMessageTime" json:"lastMessageTime"`
	UnreadCount     int                `bson:"unreadCount" json:"unreadCount"`
}

// Package domain defines the persistence models for users, chats, and
// messages. These types are mapped with GORM and form the core data layer
// of the messaging application.
package domain

import (
	"time"
)

// Message status values. New messages are persisted as StatusSent; the
// delivered/seen transitions are driven by clients and never rewritten by
// the relay.
const (
	StatusSent      = 0
	StatusDelivered = 1
	StatusSeen      = 2
)

// User represents an account. The password column stores a bcrypt hash and
// is never serialized to clients.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Username: display name shown to contacts.
//   - Email: login identifier; unique across all accounts.
//   - Password: bcrypt hash of the account password.
type User struct {
	ID       string `json:"id"       gorm:"type:char(36);primaryKey"`
	Username string `json:"username" gorm:"type:varchar(64);not null"`
	Email    string `json:"email"    gorm:"type:varchar(255);not null;uniqueIndex:ux_users_email"`
	Password string `json:"-"        gorm:"type:varchar(255);not null"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Chat represents a conversation between exactly two accounts. The pair is
// stored canonicalized (User1 < User2) so the composite unique index rejects
// a second chat for the same pair regardless of argument order.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - User1 / User2: participant account ids; canonicalized unordered pair.
//   - CreatedAt: set on first contact-add.
//   - UpdatedAt: bumped on every new message; drives the thread-list order.
type Chat struct {
	ID        string    `json:"id"        gorm:"type:char(36);primaryKey"`
	User1     string    `json:"user1"     gorm:"column:user1;type:char(36);not null;uniqueIndex:ux_chats_pair,priority:1;index"`
	User2     string    `json:"user2"     gorm:"column:user2;type:char(36);not null;uniqueIndex:ux_chats_pair,priority:2;index"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName returns the database table name for Chat.
func (Chat) TableName() string { return "chats" }

// HasParticipant reports whether id is one of the two chat members.
func (c Chat) HasParticipant(id string) bool {
	return c.User1 == id || c.User2 == id
}

// ContactOf returns the other participant relative to id. Callers are
// expected to check membership first; for a non-member the first
// participant is returned.
func (c Chat) ContactOf(id string) string {
	if c.User1 == id {
		return c.User2
	}
	return c.User1
}

// Message represents a single persisted message within a chat. Messages are
// immutable once created (no edit/delete).
//
// Fields:
//   - ID: UUID primary key (char(36)); assigned at persistence time and
//     echoed back on the realtime broadcast.
//   - ChatID: foreign key to the owning chat (indexed with CreatedAt).
//   - SenderID: account id of the author (serialized as "userId" on the wire).
//   - Text: message body; may be empty when a file is attached.
//   - FileURL: optional blob-store reference for an attached file.
//   - Status: StatusSent on insert.
//   - CreatedAt: insertion timestamp; history replay orders by it.
type Message struct {
	ID        string    `json:"id"        gorm:"type:char(36);primaryKey"`
	ChatID    string    `json:"chatId"    gorm:"type:char(36);not null;index:idx_chat_messages,priority:1"`
	SenderID  string    `json:"userId"    gorm:"type:char(36);not null"`
	Text      string    `json:"text"      gorm:"type:text;not null"`
	FileURL   *string   `json:"file,omitempty" gorm:"type:text"`
	Status    int       `json:"status"    gorm:"not null;default:0"`
	CreatedAt time.Time `json:"createdAt" gorm:"index:idx_chat_messages,priority:2"`

	// Chat is the parent conversation. Messages are cascade-deleted if
	// their chat is removed.
	Chat Chat `json:"-" gorm:"foreignKey:ChatID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// ChatSummary is the thread-list projection returned by GET /chat/all: one
// row per chat involving the caller, enriched with the contact and the most
// recent message (nil when the chat is still empty).
type ChatSummary struct {
	ID          string    `json:"id"`
	ContactID   string    `json:"contactId"`
	ContactName string    `json:"contactName"`
	LastMessage *Message  `json:"lastMessage"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

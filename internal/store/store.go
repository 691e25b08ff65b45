package store

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors surfaced by store implementations.
var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicateReaction = errors.New("reaction already exists")
)

// User represents a registered account.
type User struct {
	ID           int64
	Username     string
	DisplayName  string
	PasswordHash string
	CreatedAt    time.Time
}

// MessageKind defines the content type of a message.
type MessageKind string

const (
	MessageKindText  MessageKind = "text"
	MessageKindImage MessageKind = "image"
	MessageKindVoice MessageKind = "voice"
	MessageKindEmoji MessageKind = "emoji"
)

// Message is a persisted direct message between two users.
// Exactly one content field is populated depending on Kind; voice messages
// additionally carry a duration in seconds.
type Message struct {
	ID         string // UUID
	SenderID   int64
	ReceiverID int64
	Kind       MessageKind
	Text       string
	ImageURL   string
	VoiceURL   string
	Duration   int
	Emoji      string
	Reactions  []Reaction
	CreatedAt  time.Time
}

// Reaction is an emoji attached to a message by one of its participants.
// At most one reaction exists per (message, user, emoji) triple.
type Reaction struct {
	ID        string // UUID
	MessageID string
	UserID    int64
	Emoji     string
	CreatedAt time.Time
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a new user with hashed password.
	CreateUser(ctx context.Context, username, displayName, passwordHash string) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// GetUserByUsername retrieves a user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// ListUsersExcept lists all users except the given one, ordered by username.
	ListUsersExcept(ctx context.Context, userID int64) ([]*User, error)
}

// MessageStore handles message persistence.
type MessageStore interface {
	// SaveMessage persists a message.
	SaveMessage(ctx context.Context, msg *Message) error

	// GetMessageByID retrieves a message with its reactions.
	GetMessageByID(ctx context.Context, id string) (*Message, error)

	// ListConversation returns all messages between two users in either
	// direction, ordered by creation time ascending.
	ListConversation(ctx context.Context, userID, peerID int64) ([]*Message, error)

	// DeleteMessage removes a message and its reactions.
	DeleteMessage(ctx context.Context, id string) error
}

// ReactionStore handles reaction persistence.
type ReactionStore interface {
	// AddReaction attaches a reaction to a message. Returns
	// ErrDuplicateReaction if the (message, user, emoji) triple exists.
	AddReaction(ctx context.Context, r *Reaction) error

	// GetReaction retrieves a reaction by ID.
	GetReaction(ctx context.Context, id string) (*Reaction, error)

	// RemoveReaction deletes a reaction owned by the given user. Returns
	// ErrNotFound when no such reaction exists.
	RemoveReaction(ctx context.Context, reactionID string, userID int64) error

	// ListReactions returns all reactions on a message, oldest first.
	ListReactions(ctx context.Context, messageID string) ([]Reaction, error)
}

// Store combines all persistence interfaces.
type Store interface {
	UserStore
	MessageStore
	ReactionStore

	// Close releases underlying resources.
	Close() error
}

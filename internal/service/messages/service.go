package messages

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vovakirdan/duochat/internal/store"
)

// Common errors for message operations.
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrSelfMessage      = errors.New("cannot message yourself")
	ErrEmptyContent     = errors.New("message content is required")
	ErrAmbiguousContent = errors.New("exactly one content field must be set")
	ErrMessageNotFound  = errors.New("message not found")
	ErrNotSender        = errors.New("only the sender may delete a message")
	ErrNotParticipant   = errors.New("not a participant of this conversation")
	ErrDuplicateReact   = errors.New("reaction already exists")
	ErrReactionNotFound = errors.New("reaction not found")
)

// Pusher is the slice of the event hub the write boundary needs. Every push
// happens strictly after the durable commit and is fire-and-forget.
type Pusher interface {
	PushMessage(msg *store.Message, senderName string)
	PushMessageDeleted(messageID string, senderID, receiverID int64)
	PushReactionAdded(messageID string, senderID, receiverID int64, reaction *store.Reaction)
	PushReactionRemoved(messageID, reactionID string, senderID, receiverID int64)
}

// Service provides the durable message write boundary: commit first, then
// push to live connections.
type Service struct {
	store store.Store
	hub   Pusher
}

// New creates a message service.
func New(st store.Store, hub Pusher) *Service {
	return &Service{store: st, hub: hub}
}

// SendInput carries the content of an outgoing message. Exactly one of
// Text, ImageURL, VoiceURL, Emoji must be set; Duration accompanies voice.
type SendInput struct {
	Text     string
	ImageURL string
	VoiceURL string
	Duration int
	Emoji    string
}

// kind derives the message kind from the populated content field.
func (in SendInput) kind() (store.MessageKind, error) {
	populated := 0
	var kind store.MessageKind
	if in.Text != "" {
		populated++
		kind = store.MessageKindText
	}
	if in.ImageURL != "" {
		populated++
		kind = store.MessageKindImage
	}
	if in.VoiceURL != "" {
		populated++
		kind = store.MessageKindVoice
	}
	if in.Emoji != "" {
		populated++
		kind = store.MessageKindEmoji
	}

	switch {
	case populated == 0:
		return "", ErrEmptyContent
	case populated > 1:
		return "", ErrAmbiguousContent
	}
	if kind != store.MessageKindVoice && in.Duration != 0 {
		return "", ErrAmbiguousContent
	}
	return kind, nil
}

// Send persists a message and pushes it to both live participants.
func (s *Service) Send(ctx context.Context, senderID, receiverID int64, in SendInput) (*store.Message, error) {
	kind, err := in.kind()
	if err != nil {
		return nil, err
	}
	if senderID == receiverID {
		return nil, ErrSelfMessage
	}

	sender, err := s.store.GetUserByID(ctx, senderID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if _, err := s.store.GetUserByID(ctx, receiverID); err != nil {
		return nil, ErrUserNotFound
	}

	msg := &store.Message{
		ID:         uuid.NewString(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Kind:       kind,
		Text:       in.Text,
		ImageURL:   in.ImageURL,
		VoiceURL:   in.VoiceURL,
		Duration:   in.Duration,
		Emoji:      in.Emoji,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.store.SaveMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("save message: %w", err)
	}

	s.hub.PushMessage(msg, sender.DisplayName)
	return msg, nil
}

// Delete removes a message. Only the original sender may delete.
func (s *Service) Delete(ctx context.Context, userID int64, messageID string) error {
	msg, err := s.store.GetMessageByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrMessageNotFound
		}
		return fmt.Errorf("load message: %w", err)
	}
	if msg.SenderID != userID {
		return ErrNotSender
	}

	if err := s.store.DeleteMessage(ctx, messageID); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}

	s.hub.PushMessageDeleted(messageID, msg.SenderID, msg.ReceiverID)
	return nil
}

// AddReaction attaches an emoji reaction. Duplicates per (message, user,
// emoji) are rejected here, before any push is attempted. Returns the
// message's full reaction list after the write.
func (s *Service) AddReaction(ctx context.Context, userID int64, messageID, emoji string) ([]store.Reaction, error) {
	if emoji == "" {
		return nil, ErrEmptyContent
	}

	msg, err := s.store.GetMessageByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("load message: %w", err)
	}
	if userID != msg.SenderID && userID != msg.ReceiverID {
		return nil, ErrNotParticipant
	}

	reaction := &store.Reaction{
		ID:        uuid.NewString(),
		MessageID: messageID,
		UserID:    userID,
		Emoji:     emoji,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.AddReaction(ctx, reaction); err != nil {
		if errors.Is(err, store.ErrDuplicateReaction) {
			return nil, ErrDuplicateReact
		}
		return nil, fmt.Errorf("add reaction: %w", err)
	}

	s.hub.PushReactionAdded(messageID, msg.SenderID, msg.ReceiverID, reaction)

	return s.store.ListReactions(ctx, messageID)
}

// RemoveReaction deletes a reaction owned by the caller. Returns the
// message's reaction list after the write.
func (s *Service) RemoveReaction(ctx context.Context, userID int64, messageID, reactionID string) ([]store.Reaction, error) {
	msg, err := s.store.GetMessageByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("load message: %w", err)
	}

	reaction, err := s.store.GetReaction(ctx, reactionID)
	if err != nil || reaction.MessageID != messageID {
		return nil, ErrReactionNotFound
	}

	if err := s.store.RemoveReaction(ctx, reactionID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrReactionNotFound
		}
		return nil, fmt.Errorf("remove reaction: %w", err)
	}

	s.hub.PushReactionRemoved(messageID, reactionID, msg.SenderID, msg.ReceiverID)

	return s.store.ListReactions(ctx, messageID)
}

// History returns the full conversation between the caller and a peer,
// oldest first.
func (s *Service) History(ctx context.Context, userID, peerID int64) ([]*store.Message, error) {
	if _, err := s.store.GetUserByID(ctx, peerID); err != nil {
		return nil, ErrUserNotFound
	}
	return s.store.ListConversation(ctx, userID, peerID)
}

// SidebarUsers returns every other user, ordered by username.
func (s *Service) SidebarUsers(ctx context.Context, userID int64) ([]*store.User, error) {
	return s.store.ListUsersExcept(ctx, userID)
}

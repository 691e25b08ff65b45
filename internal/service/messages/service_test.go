package messages

import (
	"context"
	"errors"
	"testing"

	"github.com/vovakirdan/duochat/internal/store"
	"github.com/vovakirdan/duochat/internal/store/sqlite"
)

// recordingPusher captures hub pushes for assertions.
type recordingPusher struct {
	messages []*store.Message
	deleted  []string
	added    []*store.Reaction
	removed  []string
}

func (p *recordingPusher) PushMessage(msg *store.Message, senderName string) {
	p.messages = append(p.messages, msg)
}

func (p *recordingPusher) PushMessageDeleted(messageID string, senderID, receiverID int64) {
	p.deleted = append(p.deleted, messageID)
}

func (p *recordingPusher) PushReactionAdded(messageID string, senderID, receiverID int64, reaction *store.Reaction) {
	p.added = append(p.added, reaction)
}

func (p *recordingPusher) PushReactionRemoved(messageID, reactionID string, senderID, receiverID int64) {
	p.removed = append(p.removed, reactionID)
}

func newTestService(t *testing.T) (*Service, *recordingPusher, int64, int64) {
	t.Helper()

	st, err := sqlite.New(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	ctx := context.Background()
	alice, err := st.CreateUser(ctx, "alice", "Alice A", "x")
	if err != nil {
		t.Fatalf("create alice: %v", err)
	}
	bob, err := st.CreateUser(ctx, "bob", "Bob B", "x")
	if err != nil {
		t.Fatalf("create bob: %v", err)
	}

	pusher := &recordingPusher{}
	return New(st, pusher), pusher, alice.ID, bob.ID
}

func TestSendCommitsThenPushes(t *testing.T) {
	svc, pusher, alice, bob := newTestService(t)
	ctx := context.Background()

	msg, err := svc.Send(ctx, alice, bob, SendInput{Text: "hello"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if msg.Kind != store.MessageKindText || msg.ID == "" {
		t.Fatalf("unexpected message: %+v", msg)
	}

	if len(pusher.messages) != 1 || pusher.messages[0].ID != msg.ID {
		t.Fatalf("expected exactly one push for the committed message, got %+v", pusher.messages)
	}

	history, err := svc.History(ctx, bob, alice)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 || history[0].ID != msg.ID {
		t.Fatalf("message not durable: %+v", history)
	}
}

func TestSendContentValidation(t *testing.T) {
	svc, pusher, alice, bob := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Send(ctx, alice, bob, SendInput{}); !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}
	if _, err := svc.Send(ctx, alice, bob, SendInput{Text: "hi", Emoji: "🎉"}); !errors.Is(err, ErrAmbiguousContent) {
		t.Fatalf("expected ErrAmbiguousContent, got %v", err)
	}
	if _, err := svc.Send(ctx, alice, bob, SendInput{Text: "hi", Duration: 3}); !errors.Is(err, ErrAmbiguousContent) {
		t.Fatalf("expected ErrAmbiguousContent for non-voice duration, got %v", err)
	}
	if _, err := svc.Send(ctx, alice, alice, SendInput{Text: "hi"}); !errors.Is(err, ErrSelfMessage) {
		t.Fatalf("expected ErrSelfMessage, got %v", err)
	}
	if _, err := svc.Send(ctx, alice, 9999, SendInput{Text: "hi"}); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	// Voice carries a duration alongside its single content field.
	if _, err := svc.Send(ctx, alice, bob, SendInput{VoiceURL: "https://cdn/x.ogg", Duration: 12}); err != nil {
		t.Fatalf("voice send: %v", err)
	}

	if len(pusher.messages) != 1 {
		t.Fatalf("rejected writes must not push, got %d pushes", len(pusher.messages))
	}
}

func TestDeleteOnlyBySender(t *testing.T) {
	svc, pusher, alice, bob := newTestService(t)
	ctx := context.Background()

	msg, err := svc.Send(ctx, alice, bob, SendInput{Text: "hello"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if err := svc.Delete(ctx, bob, msg.ID); !errors.Is(err, ErrNotSender) {
		t.Fatalf("expected ErrNotSender, got %v", err)
	}
	if err := svc.Delete(ctx, alice, "nope"); !errors.Is(err, ErrMessageNotFound) {
		t.Fatalf("expected ErrMessageNotFound, got %v", err)
	}

	if err := svc.Delete(ctx, alice, msg.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(pusher.deleted) != 1 || pusher.deleted[0] != msg.ID {
		t.Fatalf("expected one deletion push, got %v", pusher.deleted)
	}

	history, err := svc.History(ctx, alice, bob)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("message should be gone, got %+v", history)
	}
}

func TestDuplicateReactionRejectedBeforePush(t *testing.T) {
	svc, pusher, alice, bob := newTestService(t)
	ctx := context.Background()

	msg, err := svc.Send(ctx, alice, bob, SendInput{Text: "hello"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if _, err := svc.AddReaction(ctx, bob, msg.ID, "👍"); err != nil {
		t.Fatalf("add reaction: %v", err)
	}
	if _, err := svc.AddReaction(ctx, bob, msg.ID, "👍"); !errors.Is(err, ErrDuplicateReact) {
		t.Fatalf("expected ErrDuplicateReact, got %v", err)
	}

	if len(pusher.added) != 1 {
		t.Fatalf("the rejected duplicate must not push, got %d pushes", len(pusher.added))
	}
}

func TestReactionRoundTrip(t *testing.T) {
	svc, _, alice, bob := newTestService(t)
	ctx := context.Background()

	msg, err := svc.Send(ctx, alice, bob, SendInput{Text: "hello"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	reactions, err := svc.AddReaction(ctx, bob, msg.ID, "👍")
	if err != nil {
		t.Fatalf("add reaction: %v", err)
	}
	if len(reactions) != 1 {
		t.Fatalf("expected one reaction, got %+v", reactions)
	}

	reactions, err = svc.RemoveReaction(ctx, bob, msg.ID, reactions[0].ID)
	if err != nil {
		t.Fatalf("remove reaction: %v", err)
	}
	if len(reactions) != 0 {
		t.Fatalf("reaction list should be back to empty, got %+v", reactions)
	}

	if _, err := svc.RemoveReaction(ctx, bob, msg.ID, "missing"); !errors.Is(err, ErrReactionNotFound) {
		t.Fatalf("expected ErrReactionNotFound, got %v", err)
	}
}

func TestReactionRequiresParticipant(t *testing.T) {
	svc, _, alice, bob := newTestService(t)
	ctx := context.Background()

	msg, err := svc.Send(ctx, alice, bob, SendInput{Text: "hello"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if _, err := svc.AddReaction(ctx, 9999, msg.ID, "👍"); !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}
}

func TestSidebarUsersAlphabetical(t *testing.T) {
	svc, _, alice, _ := newTestService(t)
	ctx := context.Background()

	users, err := svc.SidebarUsers(ctx, alice)
	if err != nil {
		t.Fatalf("sidebar users: %v", err)
	}
	if len(users) != 1 || users[0].Username != "bob" {
		t.Fatalf("unexpected sidebar: %+v", users)
	}
}

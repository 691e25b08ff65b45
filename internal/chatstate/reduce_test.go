package chatstate

import (
	"testing"
	"time"

	"github.com/vovakirdan/duochat/internal/proto"
)

const self int64 = 1

func seeded(t *testing.T, savedOrder []int64) State {
	t.Helper()

	s := NewState(self, savedOrder)
	s, _ = Apply(s, UsersFetched{Users: []proto.UserData{
		{ID: 2, Username: "bob", DisplayName: "Bob"},
		{ID: 3, Username: "carol", DisplayName: "Carol"},
		{ID: 4, Username: "dave", DisplayName: "Dave"},
	}})
	return s
}

func msg(id string, senderID, receiverID int64, text string, at time.Time) proto.MessageData {
	return proto.MessageData{
		ID:         id,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Kind:       "text",
		Text:       text,
		CreatedAt:  at,
	}
}

func rosterIDs(s State) []int64 {
	ids := make([]int64, 0, len(s.Roster))
	for _, e := range s.Roster {
		ids = append(ids, e.UserID)
	}
	return ids
}

func TestUsersFetchedRestoresSavedOrder(t *testing.T) {
	s := seeded(t, []int64{4, 2})

	got := rosterIDs(s)
	want := []int64{4, 2, 3} // saved order first, unknown peers after
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("roster order %v, want %v", got, want)
		}
	}
}

func TestUsersFetchedDefaultsAlphabetical(t *testing.T) {
	s := seeded(t, nil)

	got := rosterIDs(s)
	want := []int64{2, 3, 4} // server returns alphabetical; order preserved
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("roster order %v, want %v", got, want)
		}
	}
}

func TestHistoryThenDuplicatePushAppearsOnce(t *testing.T) {
	s := seeded(t, nil)
	s, effects := Apply(s, ConversationOpened{PeerID: 2})
	if len(effects) != 1 {
		t.Fatalf("opening must request a history fetch, got %v", effects)
	}

	now := time.Now()
	m := msg("m1", 2, self, "hi", now)
	s, _ = Apply(s, HistoryFetched{PeerID: 2, Messages: []proto.MessageData{m}})

	// The same message races in over the push path.
	s, _ = Apply(s, MessagePushed{Message: m})

	if len(s.Messages) != 1 {
		t.Fatalf("message must appear exactly once, got %d", len(s.Messages))
	}
}

func TestPushForClosedPeerNotAppended(t *testing.T) {
	s := seeded(t, nil)
	s, _ = Apply(s, ConversationOpened{PeerID: 2})
	s, _ = Apply(s, HistoryFetched{PeerID: 2, Messages: nil})

	s, _ = Apply(s, MessagePushed{Message: msg("m9", 3, self, "psst", time.Now())})
	if len(s.Messages) != 0 {
		t.Fatalf("messages from other peers must not enter the open conversation")
	}
}

func TestNotificationUnreadGating(t *testing.T) {
	s := seeded(t, nil)
	s, _ = Apply(s, ConversationOpened{PeerID: 2})
	s, _ = Apply(s, HistoryFetched{PeerID: 2, Messages: nil})

	// Open peer: no increment.
	s, _ = Apply(s, NotificationPushed{Notification: proto.NotificationData{MessageID: "m1", SenderID: 2}})
	if s.TotalUnread != 0 {
		t.Fatalf("open conversation must not accumulate unread, got %d", s.TotalUnread)
	}

	// Different peer: exactly one.
	s, _ = Apply(s, NotificationPushed{Notification: proto.NotificationData{MessageID: "m2", SenderID: 3}})
	if s.TotalUnread != 1 {
		t.Fatalf("expected total unread 1, got %d", s.TotalUnread)
	}
	for _, e := range s.Roster {
		if e.UserID == 3 && e.Unread != 1 {
			t.Fatalf("expected unread 1 for peer 3, got %d", e.Unread)
		}
	}
}

func TestHistoryFetchResetsUnread(t *testing.T) {
	s := seeded(t, nil)
	s, _ = Apply(s, NotificationPushed{Notification: proto.NotificationData{MessageID: "m1", SenderID: 3}})
	s, _ = Apply(s, NotificationPushed{Notification: proto.NotificationData{MessageID: "m2", SenderID: 3}})
	if s.TotalUnread != 2 {
		t.Fatalf("expected unread 2, got %d", s.TotalUnread)
	}

	s, _ = Apply(s, ConversationOpened{PeerID: 3})
	s, _ = Apply(s, HistoryFetched{PeerID: 3, Messages: nil})
	if s.TotalUnread != 0 {
		t.Fatalf("opening and fetching must reset the peer's unread, got %d", s.TotalUnread)
	}
}

func TestBackgroundHistoryFetchKeepsUnread(t *testing.T) {
	s := seeded(t, nil)
	s, _ = Apply(s, ConversationOpened{PeerID: 2})
	s, _ = Apply(s, HistoryFetched{PeerID: 2, Messages: nil})

	// Unread from a closed peer, then the mutual-fact fetch for that peer
	// resolves. The fetch must feed the mutual cache without resetting the
	// counter the way an explicit open does.
	s, _ = Apply(s, NotificationPushed{Notification: proto.NotificationData{MessageID: "m1", SenderID: 3}})
	m := msg("m1", 3, self, "hi", time.Now())
	s, _ = Apply(s, HistoryFetched{PeerID: 3, Messages: []proto.MessageData{m}})

	if s.TotalUnread != 1 {
		t.Fatalf("background fetch must not reset unread, got %d", s.TotalUnread)
	}
	if !s.Mutual[3] {
		t.Fatal("background fetch should still cache the mutual fact")
	}
	if len(s.Messages) != 0 {
		t.Fatalf("closed peer's history must not replace the open conversation, got %d", len(s.Messages))
	}
}

func TestRosterResortsByRecency(t *testing.T) {
	s := seeded(t, nil)

	now := time.Now()
	s, _ = Apply(s, MessagePushed{Message: msg("m1", 3, self, "a", now)})
	s, _ = Apply(s, MessagePushed{Message: msg("m2", 4, self, "b", now.Add(time.Second))})

	got := rosterIDs(s)
	if got[0] != 4 || got[1] != 3 || got[2] != 2 {
		t.Fatalf("expected recency order [4 3 2], got %v", got)
	}
}

func TestMutualFactFetchedOnceThenCached(t *testing.T) {
	s := seeded(t, nil)

	// First push from an unknown sender requests a history fetch.
	s, effects := Apply(s, MessagePushed{Message: msg("m1", 3, self, "a", time.Now())})
	if !hasFetch(effects, 3) {
		t.Fatalf("expected FetchHistory for unknown sender, got %v", effects)
	}

	s, _ = Apply(s, MutualFetched{PeerID: 3, HasMutual: true})
	if !s.Mutual[3] {
		t.Fatal("mutual fact should be cached")
	}

	// Second push: fact known, no fetch.
	_, effects = Apply(s, MessagePushed{Message: msg("m2", 3, self, "b", time.Now())})
	if hasFetch(effects, 3) {
		t.Fatalf("cached mutual fact must not refetch, got %v", effects)
	}
}

func TestDeletedAndUnknownMutationsAreSilent(t *testing.T) {
	s := seeded(t, nil)
	s, _ = Apply(s, ConversationOpened{PeerID: 2})
	m := msg("m1", 2, self, "hi", time.Now())
	s, _ = Apply(s, HistoryFetched{PeerID: 2, Messages: []proto.MessageData{m}})

	s, _ = Apply(s, MessageDeletedPushed{MessageID: "m1"})
	if len(s.Messages) != 0 {
		t.Fatalf("message should be removed, got %d", len(s.Messages))
	}

	// Mutating absent messages is a no-op either way.
	s, _ = Apply(s, MessageDeletedPushed{MessageID: "ghost"})
	s, _ = Apply(s, ReactionAddedPushed{MessageID: "ghost", Reaction: proto.ReactionData{ID: "r1"}})
	if len(s.Messages) != 0 {
		t.Fatalf("unexpected messages: %+v", s.Messages)
	}
}

func TestReactionRoundTripRestoresMessage(t *testing.T) {
	s := seeded(t, nil)
	s, _ = Apply(s, ConversationOpened{PeerID: 2})
	m := msg("m1", 2, self, "hi", time.Now())
	s, _ = Apply(s, HistoryFetched{PeerID: 2, Messages: []proto.MessageData{m}})

	r := proto.ReactionData{ID: "r1", UserID: self, Emoji: "👍"}
	s, _ = Apply(s, ReactionAddedPushed{MessageID: "m1", Reaction: r})
	if len(s.Messages[0].Reactions) != 1 {
		t.Fatalf("expected one reaction, got %+v", s.Messages[0].Reactions)
	}

	s, _ = Apply(s, ReactionRemovedPushed{MessageID: "m1", ReactionID: "r1"})
	if len(s.Messages[0].Reactions) != 0 {
		t.Fatalf("reaction list should be back to empty, got %+v", s.Messages[0].Reactions)
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	s := seeded(t, nil)
	s, _ = Apply(s, ConversationOpened{PeerID: 2})
	m := msg("m1", 2, self, "hi", time.Now())
	s, _ = Apply(s, HistoryFetched{PeerID: 2, Messages: []proto.MessageData{m}})

	before := len(s.Messages)
	next, _ := Apply(s, MessageDeletedPushed{MessageID: "m1"})

	if len(s.Messages) != before {
		t.Fatal("input state was mutated")
	}
	if len(next.Messages) != 0 {
		t.Fatal("next state missing the deletion")
	}
}

func TestPresenceSnapshotReplaces(t *testing.T) {
	s := seeded(t, nil)
	s, _ = Apply(s, PresencePushed{Online: []int64{2, 3}})
	s, _ = Apply(s, PresencePushed{Online: []int64{3}})

	if s.Online[2] || !s.Online[3] {
		t.Fatalf("unexpected online set: %v", s.Online)
	}
}

func hasFetch(effects []Effect, peerID int64) bool {
	for _, e := range effects {
		if f, ok := e.(FetchHistory); ok && f.PeerID == peerID {
			return true
		}
	}
	return false
}

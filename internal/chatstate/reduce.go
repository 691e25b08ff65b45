package chatstate

import (
	"sort"
	"time"

	"github.com/vovakirdan/duochat/internal/proto"
)

// Apply folds one event into the state and returns the effects the shell
// must run. The input state is never mutated.
func Apply(s State, ev Event) (State, []Effect) {
	switch e := ev.(type) {
	case UsersFetched:
		return s.applyUsersFetched(e)
	case ConversationOpened:
		s.OpenPeer = e.PeerID
		s.Messages = nil
		return s, []Effect{FetchHistory{PeerID: e.PeerID}}
	case ConversationClosed:
		s.OpenPeer = 0
		s.Messages = nil
		return s, nil
	case HistoryFetched:
		return s.applyHistoryFetched(e)
	case MutualFetched:
		s.Mutual = withBool(s.Mutual, e.PeerID, e.HasMutual)
		return s, nil
	case MessagePushed:
		return s.applyMessagePushed(e)
	case NotificationPushed:
		return s.applyNotificationPushed(e)
	case MessageDeletedPushed:
		return s.applyMessageDeleted(e)
	case ReactionAddedPushed:
		return s.applyReactionAdded(e)
	case ReactionRemovedPushed:
		return s.applyReactionRemoved(e)
	case PresencePushed:
		online := make(map[int64]bool, len(e.Online))
		for _, id := range e.Online {
			online[id] = true
		}
		s.Online = online
		return s, nil
	default:
		// Unknown events are informational only.
		return s, nil
	}
}

// applyUsersFetched seeds the roster. A persisted ordering from the prior
// session wins; otherwise the server's alphabetical order stands. Unread
// counters are rebuilt from zero on login.
func (s State) applyUsersFetched(e UsersFetched) (State, []Effect) {
	roster := make([]RosterEntry, 0, len(e.Users))
	for _, u := range e.Users {
		roster = append(roster, RosterEntry{
			UserID:      u.ID,
			Username:    u.Username,
			DisplayName: u.DisplayName,
		})
	}

	if len(s.savedOrder) > 0 {
		rank := make(map[int64]int, len(s.savedOrder))
		for i, id := range s.savedOrder {
			rank[id] = i + 1
		}
		sort.SliceStable(roster, func(i, j int) bool {
			ri, rj := rank[roster[i].UserID], rank[roster[j].UserID]
			switch {
			case ri != 0 && rj != 0:
				return ri < rj
			case ri != 0:
				return true
			default:
				return false
			}
		})
	}

	s.Roster = roster
	s.TotalUnread = 0
	return s, []Effect{SaveRoster{}}
}

// applyHistoryFetched replaces the open conversation wholesale, clears the
// open peer's unread counter, and derives the mutual-contact fact from the
// fetched set. A fetch for a peer that is no longer open still feeds the
// mutual cache but must not touch messages or unread counts.
func (s State) applyHistoryFetched(e HistoryFetched) (State, []Effect) {
	open := e.PeerID == s.OpenPeer
	if open {
		s.Messages = append([]proto.MessageData(nil), e.Messages...)
	}

	hasMutual := false
	for _, m := range e.Messages {
		if m.SenderID == e.PeerID && m.ReceiverID == s.SelfID {
			hasMutual = true
			break
		}
	}
	s.Mutual = withBool(s.Mutual, e.PeerID, hasMutual)

	if !open {
		return s, nil
	}
	s = s.withUnread(e.PeerID, 0)
	return s, []Effect{SaveRoster{}}
}

// applyMessagePushed reconciles a live message push against the REST state:
// append to the open conversation only when it belongs there and is not
// already present, bump roster recency, and lazily compute the
// mutual-contact fact for unknown senders.
func (s State) applyMessagePushed(e MessagePushed) (State, []Effect) {
	msg := e.Message
	var effects []Effect

	belongsToOpen := s.OpenPeer != 0 &&
		(msg.SenderID == s.OpenPeer || msg.ReceiverID == s.OpenPeer)
	if belongsToOpen && s.indexOfMessage(msg.ID) < 0 {
		messages := make([]proto.MessageData, len(s.Messages), len(s.Messages)+1)
		copy(messages, s.Messages)
		s.Messages = append(messages, msg)
	}

	if msg.SenderID != s.SelfID {
		if _, known := s.Mutual[msg.SenderID]; !known {
			effects = append(effects, FetchHistory{PeerID: msg.SenderID})
		}
	}

	s = s.withRecency(msg.SenderID, msg.CreatedAt)
	s = s.withRecency(msg.ReceiverID, msg.CreatedAt)
	s.Roster = resorted(s.Roster)
	effects = append(effects, SaveRoster{})
	return s, effects
}

// applyNotificationPushed increments the unread counter unless the sender
// is the open conversation (or ourselves, for the multi-tab echo case).
func (s State) applyNotificationPushed(e NotificationPushed) (State, []Effect) {
	n := e.Notification
	if n.SenderID == s.SelfID || n.SenderID == s.OpenPeer {
		return s, nil
	}

	for _, entry := range s.Roster {
		if entry.UserID == n.SenderID {
			s = s.withUnread(n.SenderID, entry.Unread+1)
			return s, []Effect{SaveRoster{}}
		}
	}
	// Sender not in roster: count it anyway so the badge stays truthful.
	s.Roster = append(append([]RosterEntry(nil), s.Roster...), RosterEntry{UserID: n.SenderID, Unread: 1})
	s.TotalUnread++
	return s, []Effect{SaveRoster{}}
}

func (s State) applyMessageDeleted(e MessageDeletedPushed) (State, []Effect) {
	idx := s.indexOfMessage(e.MessageID)
	if idx < 0 {
		return s, nil
	}
	messages := make([]proto.MessageData, 0, len(s.Messages)-1)
	messages = append(messages, s.Messages[:idx]...)
	messages = append(messages, s.Messages[idx+1:]...)
	s.Messages = messages
	return s, nil
}

func (s State) applyReactionAdded(e ReactionAddedPushed) (State, []Effect) {
	idx := s.indexOfMessage(e.MessageID)
	if idx < 0 {
		return s, nil
	}
	messages := append([]proto.MessageData(nil), s.Messages...)
	msg := messages[idx]
	msg.Reactions = append(append([]proto.ReactionData(nil), msg.Reactions...), e.Reaction)
	messages[idx] = msg
	s.Messages = messages
	return s, nil
}

func (s State) applyReactionRemoved(e ReactionRemovedPushed) (State, []Effect) {
	idx := s.indexOfMessage(e.MessageID)
	if idx < 0 {
		return s, nil
	}
	messages := append([]proto.MessageData(nil), s.Messages...)
	msg := messages[idx]
	reactions := make([]proto.ReactionData, 0, len(msg.Reactions))
	for _, r := range msg.Reactions {
		if r.ID != e.ReactionID {
			reactions = append(reactions, r)
		}
	}
	if len(reactions) == 0 {
		reactions = nil
	}
	msg.Reactions = reactions
	messages[idx] = msg
	s.Messages = messages
	return s, nil
}

// ==== helpers ====

func (s State) indexOfMessage(id string) int {
	for i, m := range s.Messages {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// withUnread sets a peer's unread counter and recomputes the total.
func (s State) withUnread(peerID int64, count int) State {
	roster := append([]RosterEntry(nil), s.Roster...)
	total := 0
	for i := range roster {
		if roster[i].UserID == peerID {
			roster[i].Unread = count
		}
		total += roster[i].Unread
	}
	s.Roster = roster
	s.TotalUnread = total
	return s
}

// withRecency bumps a roster entry's lastMessageAt if the event is newer.
func (s State) withRecency(peerID int64, at time.Time) State {
	roster := append([]RosterEntry(nil), s.Roster...)
	for i := range roster {
		if roster[i].UserID == peerID && at.After(roster[i].LastMessageAt) {
			roster[i].LastMessageAt = at
		}
	}
	s.Roster = roster
	return s
}

// resorted returns the roster ordered by most recent message first. The
// sort is stable so peers with no history keep their alphabetical order.
func resorted(roster []RosterEntry) []RosterEntry {
	out := append([]RosterEntry(nil), roster...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastMessageAt.After(out[j].LastMessageAt)
	})
	return out
}

func withBool(m map[int64]bool, key int64, val bool) map[int64]bool {
	out := make(map[int64]bool, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	out[key] = val
	return out
}

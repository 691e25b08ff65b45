// Package chatstate is the client-side reconciliation store: a pure reducer
// that merges REST responses with pushed events without duplication or
// ordering inversion. The shell (cmd/client) feeds it events and performs
// the effects it returns; nothing here touches the network.
package chatstate

import (
	"time"

	"github.com/vovakirdan/duochat/internal/proto"
)

// RosterEntry is one peer in the sidebar with derived facts.
type RosterEntry struct {
	UserID        int64
	Username      string
	DisplayName   string
	LastMessageAt time.Time
	Unread        int
}

// State is the full client cache. Values are treated as immutable: Apply
// returns a new State and never mutates its input, so every reconciliation
// rule is testable by replay.
type State struct {
	SelfID   int64
	OpenPeer int64 // 0 when no conversation is open

	// Messages of the open conversation, ascending by creation time.
	Messages []proto.MessageData

	// Roster is the ordered sidebar view, most recent conversation first,
	// alphabetical when no history exists.
	Roster []RosterEntry

	// Online is the latest presence snapshot.
	Online map[int64]bool

	// Mutual caches "this peer has previously messaged me". A missing key
	// means the fact is unknown and must be computed by a one-time fetch.
	Mutual map[int64]bool

	TotalUnread int

	// savedOrder seeds roster ordering on the first users fetch after login.
	savedOrder []int64
}

// NewState builds the initial state for an identity. savedOrder restores
// the persisted sidebar ordering from a previous session; nil is fine.
func NewState(selfID int64, savedOrder []int64) State {
	return State{
		SelfID:     selfID,
		Online:     map[int64]bool{},
		Mutual:     map[int64]bool{},
		savedOrder: savedOrder,
	}
}

// Event is a closed set of reducer inputs. Exactly the REST responses and
// push events of the protocol; reduce.go matches every variant.
type Event interface{ isEvent() }

// UsersFetched seeds the roster from the sidebar REST response.
type UsersFetched struct{ Users []proto.UserData }

// ConversationOpened selects the active peer.
type ConversationOpened struct{ PeerID int64 }

// ConversationClosed deselects the active peer.
type ConversationClosed struct{}

// HistoryFetched replaces the open conversation wholesale.
type HistoryFetched struct {
	PeerID   int64
	Messages []proto.MessageData
}

// MutualFetched records the result of a one-time mutual-contact lookup.
type MutualFetched struct {
	PeerID    int64
	HasMutual bool
}

// MessagePushed is a live message.new push.
type MessagePushed struct{ Message proto.MessageData }

// NotificationPushed is a live notification.new push.
type NotificationPushed struct{ Notification proto.NotificationData }

// MessageDeletedPushed is a live message.deleted push.
type MessageDeletedPushed struct{ MessageID string }

// ReactionAddedPushed is a live reaction.added push.
type ReactionAddedPushed struct {
	MessageID string
	Reaction  proto.ReactionData
}

// ReactionRemovedPushed is a live reaction.removed push.
type ReactionRemovedPushed struct {
	MessageID  string
	ReactionID string
}

// PresencePushed is a live presence snapshot.
type PresencePushed struct{ Online []int64 }

func (UsersFetched) isEvent()          {}
func (ConversationOpened) isEvent()    {}
func (ConversationClosed) isEvent()    {}
func (HistoryFetched) isEvent()        {}
func (MutualFetched) isEvent()         {}
func (MessagePushed) isEvent()         {}
func (NotificationPushed) isEvent()    {}
func (MessageDeletedPushed) isEvent()  {}
func (ReactionAddedPushed) isEvent()   {}
func (ReactionRemovedPushed) isEvent() {}
func (PresencePushed) isEvent()        {}

// Effect is a side effect the shell must perform after a reduce step.
type Effect interface{ isEffect() }

// FetchHistory asks the shell to fetch a peer's conversation from REST.
// Used both when opening a conversation and for the one-time
// mutual-contact computation.
type FetchHistory struct{ PeerID int64 }

// SaveRoster asks the shell to persist the current roster order and unread
// counts.
type SaveRoster struct{}

func (FetchHistory) isEffect() {}
func (SaveRoster) isEffect()   {}

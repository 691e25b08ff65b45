package core

import (
	"encoding/json"

	"github.com/vovakirdan/duochat/internal/store"
)

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventPresence carries the full set of online user IDs after every
	// registry change.
	EventPresence EventKind = iota
	// EventMessageNew notifies both participants about a freshly persisted message.
	EventMessageNew
	// EventMessageDeleted notifies both participants that a message was removed.
	EventMessageDeleted
	// EventNotification is the receiver-only companion to EventMessageNew,
	// carrying a truncated preview and the sender's display name.
	EventNotification
	// EventReactionAdded notifies both participants about a new reaction.
	EventReactionAdded
	// EventReactionRemoved notifies both participants about a removed reaction.
	EventReactionRemoved

	// Call events
	// EventCallIncoming notifies the callee of an incoming call.
	EventCallIncoming
	// EventCallStatus notifies participants of a call status change.
	EventCallStatus
	// EventSignal relays an opaque WebRTC payload to the other participant.
	EventSignal
)

// CallStatus is a wire-level call status as exchanged with clients.
type CallStatus string

const (
	CallStatusRinging  CallStatus = "ringing"
	CallStatusAccepted CallStatus = "accepted"
	CallStatusRejected CallStatus = "rejected"
	CallStatusEnded    CallStatus = "ended"
)

// SignalKind discriminates WebRTC signaling payloads.
type SignalKind string

const (
	SignalOffer        SignalKind = "offer"
	SignalAnswer       SignalKind = "answer"
	SignalICECandidate SignalKind = "ice-candidate"
)

// Event is sent to clients to describe what happened in the system.
// Exactly one payload field is populated depending on Kind.
type Event struct {
	Kind EventKind

	Online       []int64         // EventPresence
	Message      *store.Message  // EventMessageNew
	MessageID    string          // EventMessageDeleted, EventReaction*
	Notification *Notification   // EventNotification
	Reaction     *store.Reaction // EventReactionAdded
	ReactionID   string          // EventReactionRemoved
	Call         *CallEvent      // EventCallIncoming, EventCallStatus
	Signal       *SignalEvent    // EventSignal
}

// Notification accompanies a new message on the receiver's side only.
type Notification struct {
	MessageID  string
	SenderID   int64
	Preview    string
	SenderName string
}

// CallEvent holds data specific to call events.
type CallEvent struct {
	CallID   string
	CallType string // "audio" or "video"
	CallerID int64
	CalleeID int64
	Status   CallStatus
	Reason   string // for rejected/ended
}

// SignalEvent relays an offer/answer/ICE payload between call participants.
// The payload is opaque to the server.
type SignalEvent struct {
	CallID   string
	Kind     SignalKind
	FromID   int64
	TargetID int64
	Payload  json.RawMessage
}

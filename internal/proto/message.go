package proto

import (
	"encoding/json"
	"time"
)

// Inbound is the envelope for frames coming from the client over the
// WebSocket. Data is decoded according to Type.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeCallInitiate = "call.initiate"
	InboundTypeCallStatus   = "call.status"
	InboundTypeSignalOffer  = "signal.offer"
	InboundTypeSignalAnswer = "signal.answer"
	InboundTypeSignalICE    = "signal.ice-candidate"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"
)

// Outbound event names.
const (
	EventPresence        = "presence"
	EventMessageNew      = "message.new"
	EventMessageDeleted  = "message.deleted"
	EventNotificationNew = "notification.new"
	EventReactionAdded   = "reaction.added"
	EventReactionRemoved = "reaction.removed"
	EventCallIncoming    = "call.incoming"
	EventCallStatus      = "call.status"
	EventSignalOffer     = "signal.offer"
	EventSignalAnswer    = "signal.answer"
	EventSignalICE       = "signal.ice-candidate"
)

// CallInitiateData asks the hub to ring another user.
type CallInitiateData struct {
	CallID   string `json:"call_id"`
	CallType string `json:"call_type"`
	CalleeID int64  `json:"callee_id"`
}

// CallStatusData updates the lifecycle of an existing call.
type CallStatusData struct {
	CallID string `json:"call_id"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// SignalData carries an opaque WebRTC payload between participants.
type SignalData struct {
	CallID   string          `json:"call_id"`
	TargetID int64           `json:"target_id"`
	FromID   int64           `json:"from_id,omitempty"`
	Payload  json.RawMessage `json:"payload"`
}

// Outbound is the envelope for frames sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// PresenceData is the full online snapshot after a registry change.
type PresenceData struct {
	Online []int64 `json:"online"`
}

// ReactionData mirrors a persisted reaction on the wire.
type ReactionData struct {
	ID     string `json:"id"`
	UserID int64  `json:"user_id"`
	Emoji  string `json:"emoji"`
}

// MessageData mirrors a persisted message on the wire. It doubles as the
// REST representation so push and fetch paths deliver identical shapes.
type MessageData struct {
	ID         string         `json:"id"`
	SenderID   int64          `json:"sender_id"`
	ReceiverID int64          `json:"receiver_id"`
	Kind       string         `json:"kind"`
	Text       string         `json:"text,omitempty"`
	ImageURL   string         `json:"image_url,omitempty"`
	VoiceURL   string         `json:"voice_url,omitempty"`
	Duration   int            `json:"duration,omitempty"`
	Emoji      string         `json:"emoji,omitempty"`
	Reactions  []ReactionData `json:"reactions,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// MessageDeletedData names a removed message by identifier only.
type MessageDeletedData struct {
	MessageID string `json:"message_id"`
}

// NotificationData is delivered to the receiver alongside message.new.
type NotificationData struct {
	MessageID  string `json:"message_id"`
	SenderID   int64  `json:"sender_id"`
	Preview    string `json:"preview"`
	SenderName string `json:"sender_name"`
}

// ReactionAddedData announces a new reaction on a message.
type ReactionAddedData struct {
	MessageID string       `json:"message_id"`
	Reaction  ReactionData `json:"reaction"`
}

// ReactionRemovedData announces a removed reaction by ID.
type ReactionRemovedData struct {
	MessageID  string `json:"message_id"`
	ReactionID string `json:"reaction_id"`
}

// CallData describes call lifecycle events.
type CallData struct {
	CallID   string `json:"call_id"`
	CallType string `json:"call_type"`
	CallerID int64  `json:"caller_id"`
	CalleeID int64  `json:"callee_id"`
	Status   string `json:"status"`
	Reason   string `json:"reason,omitempty"`
}

// UserData mirrors a user on the REST surface.
type UserData struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

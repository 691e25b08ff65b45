package core

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/duochat/internal/store"
)

// previewLimit caps notification previews in runes.
const previewLimit = 80

// Hub owns the connection lifecycle and all event fan-out. Every mutation
// of the presence registry and call tracker is serialized through a single
// dispatch goroutine, so neither structure needs a lock. The REST write
// path and the WebSocket connection path both feed the same channel and may
// do so concurrently.
type Hub struct {
	presence *presence
	calls    *callTracker
	commands chan command

	// ringTimeout bounds how long a session may stay ringing. Zero means
	// no server-side expiry.
	ringTimeout time.Duration

	log *zerolog.Logger
}

// NewHub creates a hub. ringTimeout of zero disables ring expiry.
func NewHub(logger *zerolog.Logger, ringTimeout time.Duration) *Hub {
	p := newPresence()
	return &Hub{
		presence:    p,
		calls:       newCallTracker(p),
		commands:    make(chan command, 256),
		ringTimeout: ringTimeout,
		log:         logger,
	}
}

// Run processes commands until the context is cancelled. It must be running
// before any client is registered or push is attempted.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case cmd := <-h.commands:
			h.dispatch(cmd)
		case <-ctx.Done():
			return
		}
	}
}

// dispatch handles one command. The switch is exhaustive over commandKind;
// an unknown kind can only mean a programming error and is dropped with a
// log line rather than crashing the loop.
func (h *Hub) dispatch(cmd command) {
	switch cmd.kind {
	case cmdRegister:
		h.presence.register(cmd.client)
		h.broadcastPresence()

	case cmdUnregister:
		// Sessions created against this handle die with the connection even
		// when a newer connection already superseded it in the registry.
		h.calls.teardownForHandle(cmd.client)
		if h.presence.unregister(cmd.client) {
			h.broadcastPresence()
		}

	case cmdCallInitiate:
		session := h.calls.initiate(cmd.client, cmd.callID, cmd.callType, cmd.calleeID)
		if session == nil {
			h.log.Debug().Str("call_id", cmd.callID).Int64("callee_id", cmd.calleeID).
				Msg("call initiate dropped, callee offline")
			return
		}
		if h.ringTimeout > 0 {
			callID := cmd.callID
			time.AfterFunc(h.ringTimeout, func() {
				h.enqueue(command{kind: cmdRingExpired, callID: callID})
			})
		}

	case cmdCallStatus:
		h.calls.updateStatus(cmd.callID, cmd.status, cmd.reason)

	case cmdRingExpired:
		if h.calls.ringing(cmd.callID) {
			h.calls.updateStatus(cmd.callID, CallStatusEnded, "ring timeout")
		}

	case cmdSignal:
		h.calls.relaySignal(cmd.signal)

	case cmdPushMessage:
		h.pushMessage(cmd.message, cmd.senderName)

	case cmdPushMessageDeleted:
		event := &Event{Kind: EventMessageDeleted, MessageID: cmd.messageID}
		h.presence.lookup(cmd.senderID).deliver(event)
		h.presence.lookup(cmd.receiverID).deliver(event)

	case cmdPushReactionAdded:
		event := &Event{Kind: EventReactionAdded, MessageID: cmd.messageID, Reaction: cmd.reaction}
		h.presence.lookup(cmd.senderID).deliver(event)
		h.presence.lookup(cmd.receiverID).deliver(event)

	case cmdPushReactionRemoved:
		event := &Event{Kind: EventReactionRemoved, MessageID: cmd.messageID, ReactionID: cmd.reactionID}
		h.presence.lookup(cmd.senderID).deliver(event)
		h.presence.lookup(cmd.receiverID).deliver(event)

	case cmdQueryOnline:
		cmd.onlineReply <- h.presence.online()

	case cmdQueryCalls:
		cmd.callsReply <- h.calls.ids()

	default:
		h.log.Error().Int("kind", int(cmd.kind)).Msg("unhandled hub command")
	}
}

// pushMessage fans a committed message out to both participants and sends
// the receiver-only notification companion.
func (h *Hub) pushMessage(msg *store.Message, senderName string) {
	event := &Event{Kind: EventMessageNew, Message: msg}

	h.presence.lookup(msg.SenderID).deliver(event)

	receiver := h.presence.lookup(msg.ReceiverID)
	if receiver == nil {
		return
	}
	receiver.deliver(event)
	receiver.deliver(&Event{
		Kind: EventNotification,
		Notification: &Notification{
			MessageID:  msg.ID,
			SenderID:   msg.SenderID,
			Preview:    messagePreview(msg),
			SenderName: senderName,
		},
	})
}

// broadcastPresence sends the current online snapshot to every connection.
func (h *Hub) broadcastPresence() {
	online := h.presence.online()
	h.presence.each(func(c *Client) {
		c.deliver(&Event{Kind: EventPresence, Online: online})
	})
}

func (h *Hub) enqueue(cmd command) {
	h.commands <- cmd
}

// messagePreview derives the human-readable notification preview.
func messagePreview(msg *store.Message) string {
	preview := msg.Text
	if preview == "" {
		preview = msg.Emoji
	}
	if preview == "" {
		preview = "Media message"
	}
	if runes := []rune(preview); len(runes) > previewLimit {
		preview = string(runes[:previewLimit])
	}
	return preview
}

// ==== public API: connection lifecycle ====

// Register announces a new connection. Any prior connection for the same
// identity is silently superseded.
func (h *Hub) Register(c *Client) {
	h.enqueue(command{kind: cmdRegister, client: c})
}

// Unregister withdraws a connection and tears down its call sessions. A
// stale handle that was already superseded does not disturb the newer one.
func (h *Hub) Unregister(c *Client) {
	h.enqueue(command{kind: cmdUnregister, client: c})
}

// ==== public API: inbound call signaling ====

// InitiateCall starts ringing the callee, or does nothing if they are offline.
func (h *Hub) InitiateCall(caller *Client, callID, callType string, calleeID int64) {
	h.enqueue(command{
		kind:     cmdCallInitiate,
		client:   caller,
		callID:   callID,
		callType: callType,
		calleeID: calleeID,
	})
}

// UpdateCallStatus delivers a status change to both participants. Unknown
// call IDs are ignored so duplicate or late updates are harmless.
func (h *Hub) UpdateCallStatus(callID string, status CallStatus, reason string) {
	h.enqueue(command{kind: cmdCallStatus, callID: callID, status: status, reason: reason})
}

// RelaySignal forwards an offer/answer/ICE payload to the target identity.
func (h *Hub) RelaySignal(sig *SignalEvent) {
	h.enqueue(command{kind: cmdSignal, signal: sig})
}

// ==== public API: pushes from the REST write path ====

// PushMessage fans out a durably committed message. Fire-and-forget:
// offline participants simply receive nothing.
func (h *Hub) PushMessage(msg *store.Message, senderName string) {
	h.enqueue(command{kind: cmdPushMessage, message: msg, senderName: senderName})
}

// PushMessageDeleted notifies both participants of a deletion by ID.
func (h *Hub) PushMessageDeleted(messageID string, senderID, receiverID int64) {
	h.enqueue(command{
		kind:       cmdPushMessageDeleted,
		messageID:  messageID,
		senderID:   senderID,
		receiverID: receiverID,
	})
}

// PushReactionAdded notifies the message's two original participants.
func (h *Hub) PushReactionAdded(messageID string, senderID, receiverID int64, reaction *store.Reaction) {
	h.enqueue(command{
		kind:       cmdPushReactionAdded,
		messageID:  messageID,
		senderID:   senderID,
		receiverID: receiverID,
		reaction:   reaction,
	})
}

// PushReactionRemoved notifies the message's two original participants.
func (h *Hub) PushReactionRemoved(messageID, reactionID string, senderID, receiverID int64) {
	h.enqueue(command{
		kind:       cmdPushReactionRemoved,
		messageID:  messageID,
		reactionID: reactionID,
		senderID:   senderID,
		receiverID: receiverID,
	})
}

// ==== public API: state queries ====

// Online returns the identities currently registered, answered through the
// dispatch loop so the result is consistent with in-flight events.
func (h *Hub) Online() []int64 {
	reply := make(chan []int64, 1)
	h.enqueue(command{kind: cmdQueryOnline, onlineReply: reply})
	return <-reply
}

// ActiveCalls returns the IDs of live call sessions.
func (h *Hub) ActiveCalls() []string {
	reply := make(chan []string, 1)
	h.enqueue(command{kind: cmdQueryCalls, callsReply: reply})
	return <-reply
}

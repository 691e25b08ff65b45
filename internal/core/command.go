package core

import "github.com/vovakirdan/duochat/internal/store"

// commandKind describes an action serialized through the hub dispatch loop.
// The set is closed: the dispatch switch in hub.go handles every kind.
type commandKind int

const (
	// Connection lifecycle.
	cmdRegister commandKind = iota
	cmdUnregister

	// Inbound call signaling from a connection.
	cmdCallInitiate
	cmdCallStatus
	cmdSignal

	// Scheduled by the hub itself when call_ring_timeout is configured.
	cmdRingExpired

	// Pushes enqueued by the REST write path after a durable commit.
	cmdPushMessage
	cmdPushMessageDeleted
	cmdPushReactionAdded
	cmdPushReactionRemoved

	// State queries answered through reply channels.
	cmdQueryOnline
	cmdQueryCalls
)

// command is the single envelope flowing through the hub's dispatch channel.
type command struct {
	kind   commandKind
	client *Client // lifecycle and signaling origin

	// Call fields.
	callID   string
	callType string
	calleeID int64
	status   CallStatus
	reason   string
	signal   *SignalEvent

	// Push fields.
	message    *store.Message
	senderName string
	messageID  string
	senderID   int64
	receiverID int64
	reaction   *store.Reaction
	reactionID string

	// Query replies.
	onlineReply chan []int64
	callsReply  chan []string
}

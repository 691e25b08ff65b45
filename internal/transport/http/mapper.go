package http

import (
	"encoding/json"

	"github.com/vovakirdan/duochat/internal/core"
	"github.com/vovakirdan/duochat/internal/proto"
	"github.com/vovakirdan/duochat/internal/store"
)

// Error codes for protocol-level rejections.
const (
	errCodeBadRequest  = "bad_request"
	errCodeRateLimited = "rate_limited"
	errCodeInvalidMsg  = "invalid_message"
)

func messageData(msg *store.Message) proto.MessageData {
	return proto.MessageData{
		ID:         msg.ID,
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
		Kind:       string(msg.Kind),
		Text:       msg.Text,
		ImageURL:   msg.ImageURL,
		VoiceURL:   msg.VoiceURL,
		Duration:   msg.Duration,
		Emoji:      msg.Emoji,
		Reactions:  reactionData(msg.Reactions),
		CreatedAt:  msg.CreatedAt,
	}
}

func reactionData(reactions []store.Reaction) []proto.ReactionData {
	if len(reactions) == 0 {
		return nil
	}
	out := make([]proto.ReactionData, 0, len(reactions))
	for _, r := range reactions {
		out = append(out, proto.ReactionData{ID: r.ID, UserID: r.UserID, Emoji: r.Emoji})
	}
	return out
}

func userData(users []*store.User) []proto.UserData {
	out := make([]proto.UserData, 0, len(users))
	for _, u := range users {
		out = append(out, proto.UserData{ID: u.ID, Username: u.Username, DisplayName: u.DisplayName})
	}
	return out
}

// inboundAction applies one decoded frame to the hub on behalf of a client.
// A non-nil proto.Error means the frame was rejected; a nil, nil return
// means the frame was accepted. Decoding failures are returned as protocol
// errors, never as crashes: out-of-order or junk signaling is dropped.
func inboundAction(hub *core.Hub, client *core.Client, inbound proto.Inbound) *proto.Error {
	switch inbound.Type {
	case proto.InboundTypeCallInitiate:
		var data proto.CallInitiateData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return &proto.Error{Code: errCodeBadRequest, Msg: "malformed call.initiate"}
		}
		if data.CallID == "" || data.CalleeID == 0 {
			return &proto.Error{Code: errCodeBadRequest, Msg: "call_id and callee_id are required"}
		}
		if data.CallType == "" {
			data.CallType = "audio"
		}
		hub.InitiateCall(client, data.CallID, data.CallType, data.CalleeID)
		return nil

	case proto.InboundTypeCallStatus:
		var data proto.CallStatusData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return &proto.Error{Code: errCodeBadRequest, Msg: "malformed call.status"}
		}
		status := core.CallStatus(data.Status)
		switch status {
		case core.CallStatusAccepted, core.CallStatusRejected, core.CallStatusEnded:
		default:
			return &proto.Error{Code: errCodeBadRequest, Msg: "unknown call status"}
		}
		hub.UpdateCallStatus(data.CallID, status, data.Reason)
		return nil

	case proto.InboundTypeSignalOffer, proto.InboundTypeSignalAnswer, proto.InboundTypeSignalICE:
		var data proto.SignalData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return &proto.Error{Code: errCodeBadRequest, Msg: "malformed signal"}
		}
		if data.CallID == "" || data.TargetID == 0 {
			return &proto.Error{Code: errCodeBadRequest, Msg: "call_id and target_id are required"}
		}
		hub.RelaySignal(&core.SignalEvent{
			CallID:   data.CallID,
			Kind:     signalKind(inbound.Type),
			FromID:   client.UserID, // stamped server-side, never trusted from the frame
			TargetID: data.TargetID,
			Payload:  data.Payload,
		})
		return nil

	default:
		return &proto.Error{Code: errCodeInvalidMsg, Msg: "unknown message type"}
	}
}

func signalKind(inboundType string) core.SignalKind {
	switch inboundType {
	case proto.InboundTypeSignalAnswer:
		return core.SignalAnswer
	case proto.InboundTypeSignalICE:
		return core.SignalICECandidate
	default:
		return core.SignalOffer
	}
}

// outboundFromEvent converts a core event into its wire envelope. The
// switch is exhaustive over core.EventKind.
func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventPresence:
		return outboundEvent(proto.EventPresence, proto.PresenceData{Online: event.Online})

	case core.EventMessageNew:
		return outboundEvent(proto.EventMessageNew, messageData(event.Message))

	case core.EventMessageDeleted:
		return outboundEvent(proto.EventMessageDeleted, proto.MessageDeletedData{MessageID: event.MessageID})

	case core.EventNotification:
		n := event.Notification
		return outboundEvent(proto.EventNotificationNew, proto.NotificationData{
			MessageID:  n.MessageID,
			SenderID:   n.SenderID,
			Preview:    n.Preview,
			SenderName: n.SenderName,
		})

	case core.EventReactionAdded:
		r := event.Reaction
		return outboundEvent(proto.EventReactionAdded, proto.ReactionAddedData{
			MessageID: event.MessageID,
			Reaction:  proto.ReactionData{ID: r.ID, UserID: r.UserID, Emoji: r.Emoji},
		})

	case core.EventReactionRemoved:
		return outboundEvent(proto.EventReactionRemoved, proto.ReactionRemovedData{
			MessageID:  event.MessageID,
			ReactionID: event.ReactionID,
		})

	case core.EventCallIncoming, core.EventCallStatus:
		name := proto.EventCallIncoming
		if event.Kind == core.EventCallStatus {
			name = proto.EventCallStatus
		}
		c := event.Call
		return outboundEvent(name, proto.CallData{
			CallID:   c.CallID,
			CallType: c.CallType,
			CallerID: c.CallerID,
			CalleeID: c.CalleeID,
			Status:   string(c.Status),
			Reason:   c.Reason,
		})

	case core.EventSignal:
		sig := event.Signal
		return outboundEvent(signalEventName(sig.Kind), proto.SignalData{
			CallID:   sig.CallID,
			TargetID: sig.TargetID,
			FromID:   sig.FromID,
			Payload:  sig.Payload,
		})

	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}

func signalEventName(kind core.SignalKind) string {
	switch kind {
	case core.SignalAnswer:
		return proto.EventSignalAnswer
	case core.SignalICECandidate:
		return proto.EventSignalICE
	default:
		return proto.EventSignalOffer
	}
}

func outboundEvent(name string, data any) proto.Outbound {
	return proto.Outbound{Type: proto.OutboundTypeEvent, Event: name, Data: data}
}

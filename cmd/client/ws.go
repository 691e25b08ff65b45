package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/duochat/internal/chatstate"
	"github.com/vovakirdan/duochat/internal/proto"
)

// frame mirrors proto.Outbound with raw data so each event can be decoded
// into its concrete payload.
type frame struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func dialWS(ctx context.Context, serverURL, token string) (*websocket.Conn, error) {
	wsURL := serverURL
	switch {
	case strings.HasPrefix(wsURL, "https://"):
		wsURL = "wss://" + strings.TrimPrefix(wsURL, "https://")
	case strings.HasPrefix(wsURL, "http://"):
		wsURL = "ws://" + strings.TrimPrefix(wsURL, "http://")
	}
	wsURL = strings.TrimRight(wsURL, "/") + "/ws?token=" + token

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial websocket: %w", err)
	}
	return conn, nil
}

// pumpEvents reads frames until the connection or context dies, converting
// each push into a reducer event. Call and signal frames have no reducer
// representation; they are surfaced directly to the terminal.
func pumpEvents(ctx context.Context, conn *websocket.Conn, events chan<- chatstate.Event, logger *zerolog.Logger) {
	defer close(events)

	for {
		var f frame
		if err := wsjson.Read(ctx, conn, &f); err != nil {
			if ctx.Err() == nil {
				logger.Warn().Err(err).Msg("connection lost")
			}
			return
		}

		if f.Type == proto.OutboundTypeError && f.Error != nil {
			logger.Warn().Str("code", f.Error.Code).Str("msg", f.Error.Msg).Msg("server rejected a frame")
			continue
		}

		ev, err := eventFromFrame(f)
		if err != nil {
			logger.Warn().Err(err).Str("event", f.Event).Msg("undecodable push")
			continue
		}
		if ev == nil {
			continue
		}

		select {
		case events <- ev:
		case <-ctx.Done():
			return
		}
	}
}

func eventFromFrame(f frame) (chatstate.Event, error) {
	switch f.Event {
	case proto.EventPresence:
		var data proto.PresenceData
		if err := json.Unmarshal(f.Data, &data); err != nil {
			return nil, err
		}
		return chatstate.PresencePushed{Online: data.Online}, nil

	case proto.EventMessageNew:
		var data proto.MessageData
		if err := json.Unmarshal(f.Data, &data); err != nil {
			return nil, err
		}
		return chatstate.MessagePushed{Message: data}, nil

	case proto.EventMessageDeleted:
		var data proto.MessageDeletedData
		if err := json.Unmarshal(f.Data, &data); err != nil {
			return nil, err
		}
		return chatstate.MessageDeletedPushed{MessageID: data.MessageID}, nil

	case proto.EventNotificationNew:
		var data proto.NotificationData
		if err := json.Unmarshal(f.Data, &data); err != nil {
			return nil, err
		}
		return chatstate.NotificationPushed{Notification: data}, nil

	case proto.EventReactionAdded:
		var data proto.ReactionAddedData
		if err := json.Unmarshal(f.Data, &data); err != nil {
			return nil, err
		}
		return chatstate.ReactionAddedPushed{MessageID: data.MessageID, Reaction: data.Reaction}, nil

	case proto.EventReactionRemoved:
		var data proto.ReactionRemovedData
		if err := json.Unmarshal(f.Data, &data); err != nil {
			return nil, err
		}
		return chatstate.ReactionRemovedPushed{MessageID: data.MessageID, ReactionID: data.ReactionID}, nil

	case proto.EventCallIncoming, proto.EventCallStatus:
		var data proto.CallData
		if err := json.Unmarshal(f.Data, &data); err != nil {
			return nil, err
		}
		if f.Event == proto.EventCallIncoming {
			fmt.Printf("\n* incoming %s call from user %d (call %s)\n> ", data.CallType, data.CallerID, data.CallID)
		} else {
			fmt.Printf("\n* call %s is now %s %s\n> ", data.CallID, data.Status, data.Reason)
		}
		return nil, nil

	case proto.EventSignalOffer, proto.EventSignalAnswer, proto.EventSignalICE:
		// WebRTC payloads are meaningless in a terminal.
		return nil, nil

	default:
		return nil, nil
	}
}

package core

// sessionState is the internal lifecycle of a call session. There is no
// transition back to ringing; rejected/ended/peer-disconnected sessions are
// removed from the tracker instead of being kept in a terminal state.
type sessionState int

const (
	stateRinging sessionState = iota
	stateActive
)

// CallSession pairs two identities for the duration of a signaling exchange.
// Stored handles are the connections that were live when the session was
// created; signal relay always resolves handles through the registry instead
// because identity-to-handle can change across the session's life.
type CallSession struct {
	ID       string
	Type     string
	CallerID int64
	CalleeID int64

	callerHandle *Client
	calleeHandle *Client
	state        sessionState
}

// other returns the participant on the opposite side of userID.
func (s *CallSession) other(userID int64) int64 {
	if userID == s.CallerID {
		return s.CalleeID
	}
	return s.CallerID
}

// references reports whether the session was created against this handle.
func (s *CallSession) references(c *Client) bool {
	return s.callerHandle == c || s.calleeHandle == c
}

// callTracker owns all live call sessions. Like presence it has no internal
// locking: it is only touched from the hub's dispatch goroutine.
type callTracker struct {
	presence *presence
	sessions map[string]*CallSession
}

func newCallTracker(p *presence) *callTracker {
	return &callTracker{
		presence: p,
		sessions: make(map[string]*CallSession),
	}
}

// initiate creates a ringing session and notifies the callee. When the
// callee is not registered nothing happens: no session, no event. The
// caller learns the peer is offline from the absence of any ringing signal,
// never from an error.
func (t *callTracker) initiate(caller *Client, callID, callType string, calleeID int64) *CallSession {
	callee := t.presence.lookup(calleeID)
	if callee == nil {
		return nil
	}

	session := &CallSession{
		ID:           callID,
		Type:         callType,
		CallerID:     caller.UserID,
		CalleeID:     calleeID,
		callerHandle: caller,
		calleeHandle: callee,
		state:        stateRinging,
	}
	t.sessions[callID] = session

	callee.deliver(&Event{
		Kind: EventCallIncoming,
		Call: &CallEvent{
			CallID:   callID,
			CallType: callType,
			CallerID: caller.UserID,
			CalleeID: calleeID,
			Status:   CallStatusRinging,
		},
	})
	return session
}

// updateStatus pushes the status to both participants' stored handles and
// tears the session down after delivery when the status is terminal.
// An unknown callID is a no-op so that late or duplicate status messages
// are harmless.
func (t *callTracker) updateStatus(callID string, status CallStatus, reason string) {
	session, ok := t.sessions[callID]
	if !ok {
		return
	}

	event := &Event{
		Kind: EventCallStatus,
		Call: &CallEvent{
			CallID:   session.ID,
			CallType: session.Type,
			CallerID: session.CallerID,
			CalleeID: session.CalleeID,
			Status:   status,
			Reason:   reason,
		},
	}
	session.callerHandle.deliver(event)
	session.calleeHandle.deliver(event)

	switch status {
	case CallStatusAccepted:
		session.state = stateActive
	case CallStatusRejected, CallStatusEnded:
		delete(t.sessions, callID)
	}
}

// relaySignal forwards an opaque WebRTC payload to the target identity's
// current handle. The target is resolved through the registry at relay
// time; an unregistered target means the signal is silently dropped.
func (t *callTracker) relaySignal(sig *SignalEvent) {
	target := t.presence.lookup(sig.TargetID)
	if target == nil {
		return
	}
	target.deliver(&Event{Kind: EventSignal, Signal: sig})
}

// teardownForHandle removes every session referencing the disconnecting
// handle, synthesizing an ended status for the remaining participant if it
// is still registered. Safe to call for handles in zero sessions.
func (t *callTracker) teardownForHandle(c *Client) {
	for id, session := range t.sessions {
		if !session.references(c) {
			continue
		}

		remaining := t.presence.lookup(session.other(c.UserID))
		if remaining != nil && remaining != c {
			remaining.deliver(&Event{
				Kind: EventCallStatus,
				Call: &CallEvent{
					CallID:   session.ID,
					CallType: session.Type,
					CallerID: session.CallerID,
					CalleeID: session.CalleeID,
					Status:   CallStatusEnded,
					Reason:   "peer disconnected",
				},
			})
		}
		delete(t.sessions, id)
	}
}

// ringing reports whether the session exists and has not been accepted yet.
func (t *callTracker) ringing(callID string) bool {
	session, ok := t.sessions[callID]
	return ok && session.state == stateRinging
}

// ids returns the identifiers of all live sessions.
func (t *callTracker) ids() []string {
	out := make([]string, 0, len(t.sessions))
	for id := range t.sessions {
		out = append(out, id)
	}
	return out
}

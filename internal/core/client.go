package core

// Client is a live connection handle tied to exactly one user identity.
// The hub delivers outbound events through the buffered Events channel;
// sends never block, a slow consumer simply misses events.
type Client struct {
	// ConnID distinguishes this connection from any other connection the
	// same user may have opened. The presence registry compares handles by
	// pointer, ConnID exists for logging.
	ConnID      string
	UserID      int64
	DisplayName string
	Events      chan *Event
}

// NewClient constructs a connection handle with an initialized event channel.
func NewClient(connID string, userID int64, displayName string) *Client {
	return &Client{
		ConnID:      connID,
		UserID:      userID,
		DisplayName: displayName,
		Events:      make(chan *Event, 32),
	}
}

// deliver hands an event to the client without blocking dispatch.
func (c *Client) deliver(event *Event) {
	if c == nil {
		return
	}
	select {
	case c.Events <- event:
	default:
		// Drop if slow consumer.
	}
}

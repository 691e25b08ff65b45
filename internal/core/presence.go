package core

import "sort"

// presence is the session registry: user identity to live connection
// handle, at most one handle per identity. It holds process-lifetime state
// only and is rebuilt from nothing on restart.
//
// presence has no internal locking: every mutation and read happens on the
// hub's dispatch goroutine.
type presence struct {
	byUser map[int64]*Client
}

func newPresence() *presence {
	return &presence{byUser: make(map[int64]*Client)}
}

// register maps the identity to the handle, silently superseding any prior
// connection for the same user.
func (p *presence) register(c *Client) {
	p.byUser[c.UserID] = c
}

// lookup returns the live handle for the identity, or nil if offline.
func (p *presence) lookup(userID int64) *Client {
	return p.byUser[userID]
}

// unregister removes the mapping only when the stored handle is the one
// disconnecting. A stale disconnect racing a newer connection for the same
// identity is ignored. Reports whether the mapping was removed.
func (p *presence) unregister(c *Client) bool {
	current, ok := p.byUser[c.UserID]
	if !ok || current != c {
		return false
	}
	delete(p.byUser, c.UserID)
	return true
}

// online returns the sorted set of currently registered identities.
func (p *presence) online() []int64 {
	ids := make([]int64, 0, len(p.byUser))
	for id := range p.byUser {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// each invokes fn for every registered handle.
func (p *presence) each(fn func(*Client)) {
	for _, c := range p.byUser {
		fn(c)
	}
}

package tlscore

// PendingAction services one deferred post-handshake message. The initial
// handshake installs one action per message it knows the peer will send
// later, e.g. the Certificate / CertificateVerify / Finished sequence of
// post-handshake client authentication. Handlers run under the context's
// read/write lock and may both send and receive.
type PendingAction interface {
	Handle(msg Handshake13) error
}

// PushPendingAction appends an action to the context's FIFO.
func (c *Context) PushPendingAction(a PendingAction) {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	c.pending = append(c.pending, a)
}

// popPendingAction removes and returns the oldest action, or nil.
func (c *Context) popPendingAction() PendingAction {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	if len(c.pending) == 0 {
		return nil
	}
	a := c.pending[0]
	c.pending = c.pending[1:]
	return a
}

// PendingActionCount reports how many deferred handlers remain installed.
func (c *Context) PendingActionCount() int {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	return len(c.pending)
}

package tlscore

import (
	"errors"
	"io"

	"go.uber.org/zap"
)

// terminateFn converts a failure into a TerminatedError after running the
// shutdown sequence for the session's protocol version.
type terminateFn func(err error, level AlertLevel, desc Alert, reason string) error

// terminate is the only abnormal exit out of the driver. It invalidates
// the session, writes a best-effort alert through send, sets EOF, and
// returns the TerminatedError every later API call will fail fast with.
func (c *Context) terminate(send func(AlertLevel, Alert) error, err error, level AlertLevel, desc Alert, reason string) error {
	c.invalidateSession()
	if serr := send(level, desc); serr != nil {
		c.logger.Debug("alert send failed during termination", zap.Error(serr))
	}
	c.setEOF()

	terr := &TerminatedError{Clean: false, Reason: reason, Err: err}
	c.term.CompareAndSwap(nil, terr)
	c.logger.Debug("session terminated",
		zap.String("alert", desc.String()),
		zap.String("level", level.String()),
		zap.String("reason", reason))
	return terr
}

func (c *Context) terminate12(err error, level AlertLevel, desc Alert, reason string) error {
	return c.terminate(func(l AlertLevel, d Alert) error {
		return c.rec.SendPacket(PacketAlert{Alerts: []AlertEntry{{Level: l, Description: d}}})
	}, err, level, desc, reason)
}

func (c *Context) terminate13(err error, level AlertLevel, desc Alert, reason string) error {
	return c.terminate(func(l AlertLevel, d Alert) error {
		return c.rec.SendPacket13(PacketAlert13{Alerts: []AlertEntry{{Level: l, Description: d}}})
	}, err, level, desc, reason)
}

// peerTerminated handles a fatal alert from the remote side: the session
// is no longer resumable, EOF is set, and the fault carries Clean=true
// since the peer ended the conversation in protocol terms.
func (c *Context) peerTerminated(desc Alert) error {
	c.invalidateSession()
	c.setEOF()
	terr := &TerminatedError{
		Clean:  true,
		Reason: "received fatal error: " + desc.String(),
		Err:    &ProtocolError{Reason: "remote side fatal error", Fatal: true, Desc: desc},
	}
	c.term.CompareAndSwap(nil, terr)
	c.logger.Debug("peer sent fatal alert", zap.String("alert", desc.String()))
	return terr
}

func (c *Context) invalidateSession() {
	if c.sessionMgr == nil {
		return
	}
	if sid := c.SessionID(); len(sid) > 0 {
		c.sessionMgr.Invalidate(sid)
	}
}

// onError maps a record-layer failure to this layer's contract: EOF is a
// clean close surfaced as an empty chunk, protocol errors alert at their
// indicated level, and anything else is a fatal internal_error.
func (c *Context) onError(term terminateFn, err error) ([]byte, error) {
	if errors.Is(err, ErrEOF) || errors.Is(err, io.EOF) {
		c.setEOF()
		return nil, nil
	}
	var pe *ProtocolError
	if errors.As(err, &pe) {
		level := AlertLevelWarning
		if pe.Fatal {
			level = AlertLevelError
		}
		return nil, term(pe, level, pe.Desc, pe.Reason)
	}
	return nil, term(err, AlertLevelError, AlertInternalError, err.Error())
}

package tlscore

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/cryptobyte"
)

// RecvData returns the next non-empty chunk of application data, or an
// empty chunk once the peer closed cleanly. Handshake and alert records
// are consumed here; a fatal condition surfaces as a TerminatedError.
func (c *Context) RecvData() ([]byte, error) {
	if err := c.checkValid(); err != nil {
		if err == ErrEOF {
			return nil, nil
		}
		return nil, err
	}
	if c.version == VersionTLS13 {
		return c.recvData13()
	}
	return c.recvData12()
}

// RecvDataLazy returns the next application data as a chunk sequence.
//
// Deprecated: use RecvData.
func (c *Context) RecvDataLazy() ([][]byte, error) {
	chunk, err := c.RecvData()
	if err != nil || len(chunk) == 0 {
		return nil, err
	}
	return [][]byte{chunk}, nil
}

func (c *Context) recvData12() ([]byte, error) {
	for {
		c.readLock.Lock()
		pkt, err := c.rec.RecvPacket()
		c.readLock.Unlock()
		if err != nil {
			return c.onError(c.terminate12, err)
		}

		switch p := pkt.(type) {
		case PacketHandshake:
			if len(p.Messages) == 1 {
				m := p.Messages[0]
				if m.Type == HandshakeTypeClientHello || m.Type == HandshakeTypeHelloRequest {
					if err := c.renegotiate(m); err != nil {
						return nil, err
					}
					continue
				}
			}

		case PacketAlert:
			if len(p.Alerts) == 1 {
				a := p.Alerts[0]
				if a.Level == AlertLevelWarning && a.Description == AlertCloseNotify {
					// Keep the session resumable: answer with our own
					// close_notify before reporting the close.
					_ = c.Bye()
					c.setEOF()
					return nil, nil
				}
				if a.Level == AlertLevelError {
					return nil, c.peerTerminated(a.Description)
				}
			}

		case PacketAppData:
			// Zero-length application records never reach the caller.
			if len(p.Data) == 0 {
				continue
			}
			return p.Data, nil
		}

		reason := fmt.Sprintf("unexpected message %s", packetDesc(pkt))
		return nil, c.terminate12(&MiscError{Reason: reason}, AlertLevelError, AlertUnexpectedMessage, reason)
	}
}

// renegotiate re-enters the handshake: a ClientHello on the server side,
// a HelloRequest on the client side.
func (c *Context) renegotiate(m HandshakeMessage) error {
	if c.handshaker == nil {
		reason := "renegotiation requested without a handshake handler"
		return c.terminate12(&MiscError{Reason: reason}, AlertLevelError, AlertHandshakeFailure, reason)
	}
	c.logger.Debug("entering renegotiation", zap.Uint8("trigger", uint8(m.Type)))
	return c.handshaker.HandshakeWith(c, m)
}

func (c *Context) recvData13() ([]byte, error) {
	for {
		c.readLock.Lock()
		pkt, err := c.rec.RecvPacket13()
		c.readLock.Unlock()
		if err != nil {
			return c.onError(c.terminate13, err)
		}

		switch p := pkt.(type) {
		case PacketHandshake13:
			if err := c.processHandshake13(p.Messages); err != nil {
				return nil, err
			}

		case PacketAlert13:
			if len(p.Alerts) == 1 {
				a := p.Alerts[0]
				if a.Level == AlertLevelWarning && a.Description == AlertCloseNotify {
					_ = c.Bye()
					c.setEOF()
					return nil, nil
				}
				if a.Level == AlertLevelError {
					return nil, c.peerTerminated(a.Description)
				}
			}
			reason := "unexpected alert"
			return nil, c.terminate13(&MiscError{Reason: reason}, AlertLevelError, AlertUnexpectedMessage, reason)

		case PacketAppData13:
			if len(p.Data) == 0 {
				continue
			}
			switch c.EstablishedState() {
			case Established:
				return p.Data, nil
			case EarlyDataAllowed:
				if c.takeEarlyData(uint32(len(p.Data))) {
					c.logger.Debug("early data accepted",
						zap.Int("bytes", len(p.Data)),
						zap.Uint32("remaining", c.EarlyDataRemaining()))
					return p.Data, nil
				}
				reason := "early data overflow"
				return nil, c.terminate13(&MiscError{Reason: reason}, AlertLevelError, AlertUnexpectedMessage, reason)
			case EarlyDataNotAllowed:
				c.logger.Debug("dropping early data", zap.Int("bytes", len(p.Data)))
				continue
			default:
				pe := &ProtocolError{Reason: "application data at not-established state", Fatal: true, Desc: AlertUnexpectedMessage}
				return nil, c.terminate13(pe, AlertLevelError, pe.Desc, pe.Reason)
			}

		case PacketChangeCipherSpec13:
			// Middlebox compatibility; drop.
			continue

		default:
			reason := fmt.Sprintf("unexpected message %T", pkt)
			return nil, c.terminate13(&MiscError{Reason: reason}, AlertLevelError, AlertUnexpectedMessage, reason)
		}
	}
}

// processHandshake13 walks a post-handshake flight in order. A non-nil
// return is always a TerminatedError.
func (c *Context) processHandshake13(msgs []Handshake13) error {
	for _, m := range msgs {
		switch h := m.(type) {
		case NewSessionTicket13:
			if err := c.handleNewSessionTicket(h); err != nil {
				return err
			}

		case KeyUpdate13:
			if err := c.handleKeyUpdate(h); err != nil {
				return err
			}

		case ClientHello13:
			reason := "renegotiation is not allowed in TLS 1.3"
			return c.terminate13(&MiscError{Reason: reason}, AlertLevelError, AlertUnexpectedMessage, reason)

		default:
			action := c.popPendingAction()
			if action == nil {
				reason := fmt.Sprintf("unexpected handshake message %s", handshake13Desc(m))
				return c.terminate13(&MiscError{Reason: reason}, AlertLevelError, AlertUnexpectedMessage, reason)
			}
			c.rwLock.Lock()
			err := action.Handle(m)
			c.rwLock.Unlock()
			if err != nil {
				return c.terminate13(err, AlertLevelError, AlertInternalError, err.Error())
			}
		}
	}
	return nil
}

// handleKeyUpdate rotates the receive secret and, when the peer asked for
// it, answers before rotating the send secret. The order is mandatory:
// the responding key_update must be the last record written under the old
// send key, and the new receive secret must be live before the next
// inbound record.
func (c *Context) handleKeyUpdate(h KeyUpdate13) error {
	if c.EstablishedState() != Established {
		reason := fmt.Sprintf("%s received in handshake establishment", handshake13Desc(h))
		return c.terminate13(&MiscError{Reason: reason}, AlertLevelError, AlertUnexpectedMessage, reason)
	}

	switch h.Request {
	case KeyUpdateNotRequested:
		c.rekeyRx()
		return nil

	case KeyUpdateRequested:
		c.rekeyRx()
		c.rwLock.Lock()
		err := c.rec.SendPacket13(PacketHandshake13{Messages: []Handshake13{KeyUpdate13{Request: KeyUpdateNotRequested}}})
		if err == nil {
			c.rekeyTx()
		}
		c.rwLock.Unlock()
		if err != nil {
			return c.terminate13(err, AlertLevelError, AlertInternalError, err.Error())
		}
		return nil

	default:
		reason := fmt.Sprintf("invalid key_update request value %d", uint8(h.Request))
		return c.terminate13(&MiscError{Reason: reason}, AlertLevelError, AlertUnexpectedMessage, reason)
	}
}

func (c *Context) rekeyRx() {
	st := c.rec.RxState()
	st.Secret = nextTrafficSecret(st.Hash, st.Secret)
	c.rec.SetRxState(st)
	c.logger.Debug("rx traffic secret advanced", zap.String("hash", st.Hash.String()))
}

func (c *Context) rekeyTx() {
	st := c.rec.TxState()
	st.Secret = nextTrafficSecret(st.Hash, st.Secret)
	c.rec.SetTxState(st)
	c.logger.Debug("tx traffic secret advanced", zap.String("hash", st.Hash.String()))
}

// handleNewSessionTicket derives the resumption PSK for one ticket and
// installs it in the shared session manager. Each ticket of a flight is
// installed independently; which one resumption prefers is the manager's
// call.
func (c *Context) handleNewSessionTicket(t NewSessionTicket13) error {
	if c.sessionMgr == nil {
		c.logger.Debug("dropping session ticket: no session manager")
		return nil
	}

	hs := c.HandshakeState()
	if hs == nil || hs.MasterSecret() == nil {
		reason := "session ticket received without a resumption secret"
		return c.terminate13(&MiscError{Reason: reason}, AlertLevelError, AlertInternalError, reason)
	}

	st := c.rec.TxState()
	psk := HkdfExpandLabel(st.Hash, hs.MasterSecret(), labelResumption, t.Nonce, st.Hash.Size())
	maxEarlyData := parseEarlyDataIndication(t.Extensions)

	sdata := &SessionData{
		Version:      c.version,
		Suite:        st.Suite,
		Secret:       psk,
		ALPN:         c.NegotiatedProtocol(),
		MaxEarlyData: maxEarlyData,
		Ticket: &TicketInfo{
			Lifetime:   t.Lifetime,
			AgeAdd:     t.AgeAdd,
			Nonce:      nil,
			ReceivedAt: time.Now(),
		},
	}
	c.sessionMgr.Establish(t.Label, sdata)
	c.logger.Debug("session ticket installed",
		zap.Int("label_bytes", len(t.Label)),
		zap.Uint32("lifetime", t.Lifetime),
		zap.Uint32("max_early_data", maxEarlyData))
	return nil
}

const extensionEarlyData = 42

// parseEarlyDataIndication extracts max_early_data_size from a ticket's
// extension block, 0 when absent or malformed.
func parseEarlyDataIndication(exts []byte) uint32 {
	s := cryptobyte.String(exts)
	for !s.Empty() {
		var ext uint16
		var body cryptobyte.String
		if !s.ReadUint16(&ext) || !s.ReadUint16LengthPrefixed(&body) {
			return 0
		}
		if ext != extensionEarlyData {
			continue
		}
		var max uint32
		if !body.ReadUint32(&max) || !body.Empty() {
			return 0
		}
		return max
	}
	return 0
}

package tlscore

import (
	"go.uber.org/zap"
)

// SendData chunks b into plaintext fragments of at most 16384 bytes and
// pushes each through the record layer. Validity is checked once, before
// the first chunk; serialization of concurrent sends is the record
// layer's contract.
func (c *Context) SendData(b []byte) error {
	if err := c.checkValid(); err != nil {
		return err
	}
	for len(b) > 0 {
		n := len(b)
		if n > maxFragmentLen {
			n = maxFragmentLen
		}
		if err := c.sendAppData(b[:n]); err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}

func (c *Context) sendAppData(chunk []byte) error {
	if c.version == VersionTLS13 {
		return c.rec.SendPacket13(PacketAppData13{Data: chunk})
	}
	return c.rec.SendPacket(PacketAppData{Data: chunk})
}

// Bye sends a close_notify unless the session already hit EOF. It does
// not close the transport; the application owns that. Sending it before
// the transport close keeps a TLS <= 1.2 session resumable.
func (c *Context) Bye() error {
	if c.eof.Load() {
		return nil
	}
	c.logger.Debug("sending close_notify")
	entry := AlertEntry{Level: AlertLevelWarning, Description: AlertCloseNotify}
	if c.version == VersionTLS13 {
		return c.rec.SendPacket13(PacketAlert13{Alerts: []AlertEntry{entry}})
	}
	return c.rec.SendPacket(PacketAlert{Alerts: []AlertEntry{entry}})
}

// UpdateKey initiates an application-driven key update. On TLS <= 1.2 it
// reports false without touching the wire. OneWay rotates only our send
// secret; TwoWay additionally asks the peer to rotate theirs. The send
// and the rotation happen under the read/write lock so the key_update is
// the last record written under the old send key.
func (c *Context) UpdateKey(mode KeyUpdateMode) (bool, error) {
	if err := c.checkValid(); err != nil {
		return false, err
	}
	if c.version != VersionTLS13 {
		return false, nil
	}
	if c.EstablishedState() != Established {
		return false, &MiscError{Reason: "key update initiated before establishment"}
	}

	request := KeyUpdateNotRequested
	if mode == TwoWay {
		request = KeyUpdateRequested
	}

	c.rwLock.Lock()
	defer c.rwLock.Unlock()
	err := c.rec.SendPacket13(PacketHandshake13{Messages: []Handshake13{KeyUpdate13{Request: request}}})
	if err != nil {
		return false, err
	}
	c.rekeyTx()
	c.logger.Debug("key update initiated", zap.Bool("two_way", mode == TwoWay))
	return true, nil
}

package tlscore

import (
	"errors"
	"testing"
)

func newContext12(rec *fakeRecordLayer, config *Config) *Context {
	c := NewContext(rec, VersionTLS12, config)
	c.SetEstablished(Established)
	return c
}

func TestRecvData12CleanClose(t *testing.T) {
	rec := newFakeRecordLayer()
	rec.in12 = []Packet{
		PacketAppData{Data: []byte("hi")},
		PacketAlert{Alerts: []AlertEntry{{AlertLevelWarning, AlertCloseNotify}}},
	}
	c := newContext12(rec, nil)

	data, err := c.RecvData()
	assertNotError(t, err, "first RecvData")
	assertByteEquals(t, data, []byte("hi"))

	data, err = c.RecvData()
	assertNotError(t, err, "RecvData at close")
	assertEquals(t, len(data), 0)
	assertTrue(t, c.EOF(), "EOF after close_notify")

	sent := rec.sentPackets12()
	assertEquals(t, len(sent), 1)
	alert, ok := sent[0].(PacketAlert)
	assertTrue(t, ok, "outbound close_notify")
	assertEquals(t, alert.Alerts[0], AlertEntry{AlertLevelWarning, AlertCloseNotify})

	// A closed context keeps reporting the clean close.
	data, err = c.RecvData()
	assertNotError(t, err, "RecvData after close")
	assertEquals(t, len(data), 0)
}

func TestRecvData12FatalAlert(t *testing.T) {
	mgr := NewMemorySessionManager()
	mgr.Establish([]byte("sid-1"), &SessionData{Version: VersionTLS12})

	rec := newFakeRecordLayer()
	rec.in12 = []Packet{
		PacketAlert{Alerts: []AlertEntry{{AlertLevelError, AlertHandshakeFailure}}},
	}
	c := newContext12(rec, &Config{SessionManager: mgr})
	c.SetSessionID([]byte("sid-1"))

	_, err := c.RecvData()
	assertError(t, err, "fatal alert must terminate")

	var terr *TerminatedError
	assertTrue(t, errors.As(err, &terr), "TerminatedError expected")
	assertTrue(t, terr.Clean, "peer-driven termination is clean")
	assertEquals(t, terr.Reason, "received fatal error: handshake_failure")

	var pe *ProtocolError
	assertTrue(t, errors.As(terr.Err, &pe), "underlying ProtocolError")
	assertEquals(t, pe.Reason, "remote side fatal error")
	assertTrue(t, pe.Fatal, "underlying error is fatal")
	assertEquals(t, pe.Desc, AlertHandshakeFailure)

	assertTrue(t, c.EOF(), "EOF set")
	_, found := mgr.Resume([]byte("sid-1"))
	assertTrue(t, !found, "session invalidated")
}

func TestRecvData12SkipsEmptyAppData(t *testing.T) {
	rec := newFakeRecordLayer()
	rec.in12 = []Packet{
		PacketAppData{Data: nil},
		PacketAppData{Data: []byte{}},
		PacketAppData{Data: []byte("x")},
	}
	c := newContext12(rec, nil)

	data, err := c.RecvData()
	assertNotError(t, err, "RecvData")
	assertByteEquals(t, data, []byte("x"))
}

func TestRecvData12Renegotiation(t *testing.T) {
	hs := &countingHandshaker{}
	rec := newFakeRecordLayer()
	rec.in12 = []Packet{
		PacketHandshake{Messages: []HandshakeMessage{{Type: HandshakeTypeClientHello, Body: []byte{1}}}},
		PacketHandshake{Messages: []HandshakeMessage{{Type: HandshakeTypeHelloRequest}}},
		PacketAppData{Data: []byte("after")},
	}
	c := newContext12(rec, &Config{Handshaker: hs})

	data, err := c.RecvData()
	assertNotError(t, err, "RecvData")
	assertByteEquals(t, data, []byte("after"))
	assertDeepEquals(t, hs.triggers, []HandshakeType{HandshakeTypeClientHello, HandshakeTypeHelloRequest})
}

func TestRecvData12RenegotiationWithoutHandshaker(t *testing.T) {
	rec := newFakeRecordLayer()
	rec.in12 = []Packet{
		PacketHandshake{Messages: []HandshakeMessage{{Type: HandshakeTypeHelloRequest}}},
	}
	c := newContext12(rec, nil)

	_, err := c.RecvData()
	assertError(t, err, "renegotiation without handler")
	var terr *TerminatedError
	assertTrue(t, errors.As(err, &terr), "TerminatedError expected")
}

func TestRecvData12UnexpectedRecord(t *testing.T) {
	rec := newFakeRecordLayer()
	rec.in12 = []Packet{PacketChangeCipherSpec{}}
	c := newContext12(rec, nil)

	_, err := c.RecvData()
	assertError(t, err, "unexpected record must terminate")

	var terr *TerminatedError
	assertTrue(t, errors.As(err, &terr), "TerminatedError expected")
	var me *MiscError
	assertTrue(t, errors.As(terr.Err, &me), "MiscError expected")

	sent := rec.sentPackets12()
	assertEquals(t, len(sent), 1)
	alert := sent[0].(PacketAlert)
	assertEquals(t, alert.Alerts[0], AlertEntry{AlertLevelError, AlertUnexpectedMessage})
	assertTrue(t, c.EOF(), "EOF set")

	// Fail fast from now on, same fault.
	_, err2 := c.RecvData()
	assertError(t, err2, "post-termination RecvData")
	assertEquals(t, err2, err)
	assertError(t, c.SendData([]byte("nope")), "post-termination SendData")
}

func TestRecvData12RecordErrorEOF(t *testing.T) {
	rec := newFakeRecordLayer()
	c := newContext12(rec, nil)

	data, err := c.RecvData()
	assertNotError(t, err, "EOF is a clean close")
	assertEquals(t, len(data), 0)
	assertTrue(t, c.EOF(), "EOF set")
	assertEquals(t, len(rec.sentPackets12()), 0)
}

func TestRecvData12RecordProtocolError(t *testing.T) {
	rec := newFakeRecordLayer()
	rec.recvErr = &ProtocolError{Reason: "bad mac", Fatal: true, Desc: AlertBadRecordMAC}
	c := newContext12(rec, nil)

	_, err := c.RecvData()
	assertError(t, err, "protocol error must terminate")

	sent := rec.sentPackets12()
	assertEquals(t, len(sent), 1)
	alert := sent[0].(PacketAlert)
	assertEquals(t, alert.Alerts[0], AlertEntry{AlertLevelError, AlertBadRecordMAC})
}

func TestRecvData12RecordWarningProtocolError(t *testing.T) {
	rec := newFakeRecordLayer()
	rec.recvErr = &ProtocolError{Reason: "stray", Fatal: false, Desc: AlertUserCanceled}
	c := newContext12(rec, nil)

	_, err := c.RecvData()
	assertError(t, err, "warning protocol error still terminates")

	sent := rec.sentPackets12()
	assertEquals(t, len(sent), 1)
	alert := sent[0].(PacketAlert)
	assertEquals(t, alert.Alerts[0].Level, AlertLevelWarning)
}

func TestRecvData12RecordInternalError(t *testing.T) {
	rec := newFakeRecordLayer()
	rec.recvErr = errors.New("socket exploded")
	c := newContext12(rec, nil)

	_, err := c.RecvData()
	assertError(t, err, "internal error must terminate")

	sent := rec.sentPackets12()
	assertEquals(t, len(sent), 1)
	alert := sent[0].(PacketAlert)
	assertEquals(t, alert.Alerts[0], AlertEntry{AlertLevelError, AlertInternalError})
}

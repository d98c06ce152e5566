package tlscore

import (
	"bytes"
	"reflect"
	"sync"
	"testing"
)

func assertTrue(t *testing.T, b bool, msg string) {
	t.Helper()
	if !b {
		t.Fatalf("Assertion failed: %s", msg)
	}
}

func assertError(t *testing.T, err error, msg string) {
	t.Helper()
	if err == nil {
		t.Fatalf("Expected error: %s", msg)
	}
}

func assertNotError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", msg, err)
	}
}

func assertEquals(t *testing.T, a, b interface{}) {
	t.Helper()
	if a != b {
		t.Fatalf("%+v != %+v", a, b)
	}
}

func assertByteEquals(t *testing.T, a, b []byte) {
	t.Helper()
	if !bytes.Equal(a, b) {
		t.Fatalf("%x != %x", a, b)
	}
}

func assertNotByteEquals(t *testing.T, a, b []byte) {
	t.Helper()
	if bytes.Equal(a, b) {
		t.Fatalf("%x == %x", a, b)
	}
}

func assertDeepEquals(t *testing.T, a, b interface{}) {
	t.Helper()
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("%+v != %+v", a, b)
	}
}

// sentRecord13 snapshots the send-direction secret current when the
// record went out, so tests can check rekey ordering.
type sentRecord13 struct {
	pkt      Packet13
	txSecret []byte
}

// fakeRecordLayer plays scripted inbound records and captures outbound
// ones, standing in for the framing/encryption collaborator.
type fakeRecordLayer struct {
	mu sync.Mutex

	in12 []Packet
	in13 []Packet13

	sent12 []Packet
	sent13 []sentRecord13

	rx, tx RecordState

	recvErr error // returned once the inbound script is drained
}

func newFakeRecordLayer() *fakeRecordLayer {
	return &fakeRecordLayer{recvErr: ErrEOF}
}

func (f *fakeRecordLayer) RecvPacket() (Packet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.in12) == 0 {
		return nil, f.recvErr
	}
	pkt := f.in12[0]
	f.in12 = f.in12[1:]
	return pkt, nil
}

func (f *fakeRecordLayer) SendPacket(p Packet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent12 = append(f.sent12, p)
	return nil
}

func (f *fakeRecordLayer) RecvPacket13() (Packet13, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.in13) == 0 {
		return nil, f.recvErr
	}
	pkt := f.in13[0]
	f.in13 = f.in13[1:]
	return pkt, nil
}

func (f *fakeRecordLayer) SendPacket13(p Packet13) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent13 = append(f.sent13, sentRecord13{
		pkt:      p,
		txSecret: append([]byte(nil), f.tx.Secret...),
	})
	return nil
}

func (f *fakeRecordLayer) RxState() RecordState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rx
}

func (f *fakeRecordLayer) SetRxState(st RecordState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rx = st
}

func (f *fakeRecordLayer) TxState() RecordState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tx
}

func (f *fakeRecordLayer) SetTxState(st RecordState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tx = st
}

func (f *fakeRecordLayer) sentPackets13() []sentRecord13 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentRecord13(nil), f.sent13...)
}

func (f *fakeRecordLayer) sentPackets12() []Packet {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Packet(nil), f.sent12...)
}

// countingHandshaker records renegotiation dispatches.
type countingHandshaker struct {
	mu         sync.Mutex
	handshakes int
	triggers   []HandshakeType
	err        error
}

func (h *countingHandshaker) Handshake(ctx *Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handshakes++
	return h.err
}

func (h *countingHandshaker) HandshakeWith(ctx *Context, msg HandshakeMessage) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.triggers = append(h.triggers, msg.Type)
	return h.err
}

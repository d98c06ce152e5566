package tlscore

import (
	"path/filepath"
	"testing"
	"time"
)

func sampleSessionData() *SessionData {
	return &SessionData{
		Version:      VersionTLS13,
		Suite:        TLS_AES_256_GCM_SHA384,
		Secret:       []byte("0123456789abcdef0123456789abcdef0123456789abcdef"),
		ALPN:         "h2",
		MaxEarlyData: 16384,
		Ticket: &TicketInfo{
			Lifetime:   7200,
			AgeAdd:     0x01020304,
			ReceivedAt: time.Unix(1754000000, 0),
		},
	}
}

func TestMemorySessionManager(t *testing.T) {
	mgr := NewMemorySessionManager()

	mgr.Establish([]byte("a"), sampleSessionData())
	assertEquals(t, mgr.Size(), 1)

	data, ok := mgr.Resume([]byte("a"))
	assertTrue(t, ok, "resume installed session")
	assertEquals(t, data.ALPN, "h2")

	mgr.Invalidate([]byte("a"))
	_, ok = mgr.Resume([]byte("a"))
	assertTrue(t, !ok, "session invalidated")

	// Invalidation is idempotent.
	mgr.Invalidate([]byte("a"))
	mgr.Invalidate([]byte("missing"))
	assertEquals(t, mgr.Size(), 0)
}

func TestSessionDataRoundTrip(t *testing.T) {
	orig := sampleSessionData()
	parsed, err := unmarshalSessionData(marshalSessionData(orig))
	assertNotError(t, err, "unmarshal")

	assertEquals(t, parsed.Version, orig.Version)
	assertEquals(t, parsed.Suite, orig.Suite)
	assertByteEquals(t, parsed.Secret, orig.Secret)
	assertEquals(t, parsed.ALPN, orig.ALPN)
	assertEquals(t, parsed.MaxEarlyData, orig.MaxEarlyData)
	assertEquals(t, parsed.Ticket.Lifetime, orig.Ticket.Lifetime)
	assertEquals(t, parsed.Ticket.AgeAdd, orig.Ticket.AgeAdd)
	assertTrue(t, parsed.Ticket.ReceivedAt.Equal(orig.Ticket.ReceivedAt), "received-at preserved")
}

func TestSessionDataTruncated(t *testing.T) {
	raw := marshalSessionData(sampleSessionData())
	for _, cut := range []int{0, 10, 23, 25, len(raw) - 1} {
		_, err := unmarshalSessionData(raw[:cut])
		assertError(t, err, "truncated session data")
	}
}

func TestSessionStore(t *testing.T) {
	store, err := OpenSessionStore(filepath.Join(t.TempDir(), "sessions.db"), nil)
	assertNotError(t, err, "open store")
	defer store.Close()

	store.Establish([]byte("id-1"), sampleSessionData())

	data, ok := store.Resume([]byte("id-1"))
	assertTrue(t, ok, "resume stored session")
	assertEquals(t, data.Suite, TLS_AES_256_GCM_SHA384)
	assertByteEquals(t, data.Secret, sampleSessionData().Secret)

	// Re-establishing under the same id replaces the session.
	updated := sampleSessionData()
	updated.ALPN = "http/1.1"
	store.Establish([]byte("id-1"), updated)
	data, ok = store.Resume([]byte("id-1"))
	assertTrue(t, ok, "resume replaced session")
	assertEquals(t, data.ALPN, "http/1.1")

	store.Invalidate([]byte("id-1"))
	_, ok = store.Resume([]byte("id-1"))
	assertTrue(t, !ok, "session invalidated")
	store.Invalidate([]byte("id-1")) // idempotent
}

func TestSessionStoreExpiry(t *testing.T) {
	store, err := OpenSessionStore(filepath.Join(t.TempDir(), "sessions.db"), nil)
	assertNotError(t, err, "open store")
	defer store.Close()

	expired := sampleSessionData()
	expired.Ticket.Lifetime = 0
	store.Establish([]byte("stale"), expired)

	_, ok := store.Resume([]byte("stale"))
	assertTrue(t, !ok, "expired session is not resumable")
}

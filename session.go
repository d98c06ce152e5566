package tlscore

import (
	"encoding/binary"
	"errors"
	"sync"
	"time"
)

// TicketInfo is the bookkeeping attached to a resumption ticket. Nonce is
// cleared once the PSK has been derived from it; ReceivedAt anchors the
// obfuscated ticket age on resumption.
type TicketInfo struct {
	Lifetime   uint32
	AgeAdd     uint32
	Nonce      []byte
	ReceivedAt time.Time
}

// SessionData is everything needed to resume a session: the negotiated
// parameters, the resumption PSK, and the early-data budget the ticket
// grants.
type SessionData struct {
	Version      ProtocolVersion
	Suite        CipherSuite
	Secret       []byte
	ALPN         string
	MaxEarlyData uint32
	Ticket       *TicketInfo
}

// SessionManager is the shared store for resumable sessions. Establish
// and Invalidate must be safe under concurrent calls; Invalidate is
// idempotent. Which of several installed tickets is preferred on
// resumption is the manager's decision.
type SessionManager interface {
	Establish(id []byte, data *SessionData)
	Invalidate(id []byte)
}

// MemorySessionManager keeps sessions in a map. It serves tests and
// callers that do not need resumption to survive the process.
type MemorySessionManager struct {
	mu       sync.Mutex
	sessions map[string]*SessionData
}

func NewMemorySessionManager() *MemorySessionManager {
	return &MemorySessionManager{sessions: make(map[string]*SessionData)}
}

func (m *MemorySessionManager) Establish(id []byte, data *SessionData) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[string(id)] = data
}

func (m *MemorySessionManager) Invalidate(id []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, string(id))
}

// Resume returns the stored session for id, if any.
func (m *MemorySessionManager) Resume(id []byte) (*SessionData, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.sessions[string(id)]
	return data, ok
}

func (m *MemorySessionManager) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

var errSessionDataTruncated = errors.New("tlscore: truncated session data")

// marshalSessionData frames a SessionData for persistent stores:
// version(2) suite(2) maxEarlyData(4) lifetime(4) ageAdd(4)
// receivedAt(8, unix) secretLen(2)+secret alpnLen(1)+alpn.
func marshalSessionData(data *SessionData) []byte {
	var lifetime, ageAdd uint32
	var received int64
	if data.Ticket != nil {
		lifetime = data.Ticket.Lifetime
		ageAdd = data.Ticket.AgeAdd
		received = data.Ticket.ReceivedAt.Unix()
	}

	out := make([]byte, 0, 24+2+len(data.Secret)+1+len(data.ALPN))
	out = binary.BigEndian.AppendUint16(out, uint16(data.Version))
	out = binary.BigEndian.AppendUint16(out, uint16(data.Suite))
	out = binary.BigEndian.AppendUint32(out, data.MaxEarlyData)
	out = binary.BigEndian.AppendUint32(out, lifetime)
	out = binary.BigEndian.AppendUint32(out, ageAdd)
	out = binary.BigEndian.AppendUint64(out, uint64(received))
	out = binary.BigEndian.AppendUint16(out, uint16(len(data.Secret)))
	out = append(out, data.Secret...)
	out = append(out, byte(len(data.ALPN)))
	out = append(out, data.ALPN...)
	return out
}

func unmarshalSessionData(raw []byte) (*SessionData, error) {
	if len(raw) < 24 {
		return nil, errSessionDataTruncated
	}
	data := &SessionData{
		Version:      ProtocolVersion(binary.BigEndian.Uint16(raw[0:2])),
		Suite:        CipherSuite(binary.BigEndian.Uint16(raw[2:4])),
		MaxEarlyData: binary.BigEndian.Uint32(raw[4:8]),
		Ticket: &TicketInfo{
			Lifetime:   binary.BigEndian.Uint32(raw[8:12]),
			AgeAdd:     binary.BigEndian.Uint32(raw[12:16]),
			ReceivedAt: time.Unix(int64(binary.BigEndian.Uint64(raw[16:24])), 0),
		},
	}
	rest := raw[24:]
	if len(rest) < 2 {
		return nil, errSessionDataTruncated
	}
	secretLen := int(binary.BigEndian.Uint16(rest[0:2]))
	rest = rest[2:]
	if len(rest) < secretLen {
		return nil, errSessionDataTruncated
	}
	data.Secret = append([]byte(nil), rest[:secretLen]...)
	rest = rest[secretLen:]
	if len(rest) < 1 {
		return nil, errSessionDataTruncated
	}
	alpnLen := int(rest[0])
	rest = rest[1:]
	if len(rest) < alpnLen {
		return nil, errSessionDataTruncated
	}
	data.ALPN = string(rest[:alpnLen])
	return data, nil
}

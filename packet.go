package tlscore

import "fmt"

// AlertEntry is one (level, description) pair from an alert record.
type AlertEntry struct {
	Level       AlertLevel
	Description Alert
}

// Packet is a plaintext record in a TLS 1.2 or earlier session.
type Packet interface {
	isPacket()
}

type PacketHandshake struct {
	Messages []HandshakeMessage
}

type PacketAlert struct {
	Alerts []AlertEntry
}

type PacketAppData struct {
	Data []byte
}

type PacketChangeCipherSpec struct{}

func (PacketHandshake) isPacket()        {}
func (PacketAlert) isPacket()            {}
func (PacketAppData) isPacket()          {}
func (PacketChangeCipherSpec) isPacket() {}

// HandshakeMessage is a raw handshake message in a TLS 1.2 or earlier
// session. The driver only inspects the type; bodies are handed to the
// handshake collaborator untouched.
type HandshakeMessage struct {
	Type HandshakeType
	Body []byte
}

// Packet13 is a plaintext record in a TLS 1.3 session.
type Packet13 interface {
	isPacket13()
}

type PacketHandshake13 struct {
	Messages []Handshake13
}

type PacketAlert13 struct {
	Alerts []AlertEntry
}

type PacketAppData13 struct {
	Data []byte
}

// PacketChangeCipherSpec13 is legacy middlebox compatibility noise; the
// receive loop drops it.
type PacketChangeCipherSpec13 struct{}

func (PacketHandshake13) isPacket13()        {}
func (PacketAlert13) isPacket13()            {}
func (PacketAppData13) isPacket13()          {}
func (PacketChangeCipherSpec13) isPacket13() {}

// Handshake13 is a post-handshake TLS 1.3 handshake message.
type Handshake13 interface {
	isHandshake13()
}

// NewSessionTicket13 conveys a resumption PSK.
type NewSessionTicket13 struct {
	Lifetime   uint32
	AgeAdd     uint32
	Nonce      []byte
	Label      []byte // ticket identity, the lookup key for resumption
	Extensions []byte // raw extension block
}

type KeyUpdate13 struct {
	Request KeyUpdateRequest
}

// ClientHello13 inside an established 1.3 session is always a protocol
// violation; it exists as a variant so the dispatch can reject it by name.
type ClientHello13 struct {
	Raw []byte
}

// RawHandshake13 carries any other post-handshake message, e.g. the
// Certificate/CertificateVerify/Finished sequence of post-handshake
// authentication. These are serviced by pending actions.
type RawHandshake13 struct {
	Type HandshakeType
	Body []byte
}

func (NewSessionTicket13) isHandshake13() {}
func (KeyUpdate13) isHandshake13()        {}
func (ClientHello13) isHandshake13()      {}
func (RawHandshake13) isHandshake13()     {}

func packetDesc(p Packet) string {
	switch pkt := p.(type) {
	case PacketHandshake:
		if len(pkt.Messages) > 0 {
			return fmt.Sprintf("handshake[%d]", pkt.Messages[0].Type)
		}
		return "handshake[]"
	case PacketAlert:
		return "alert"
	case PacketAppData:
		return fmt.Sprintf("application_data[%d]", len(pkt.Data))
	case PacketChangeCipherSpec:
		return "change_cipher_spec"
	}
	return fmt.Sprintf("%T", p)
}

func handshake13Desc(m Handshake13) string {
	switch hm := m.(type) {
	case NewSessionTicket13:
		return "new_session_ticket"
	case KeyUpdate13:
		if hm.Request == KeyUpdateRequested {
			return "key_update(update_requested)"
		}
		return "key_update(update_not_requested)"
	case ClientHello13:
		return "client_hello"
	case RawHandshake13:
		return fmt.Sprintf("handshake(%d)", hm.Type)
	}
	return fmt.Sprintf("%T", m)
}

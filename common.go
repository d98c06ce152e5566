package tlscore

import (
	"crypto"
	_ "crypto/sha1"
	_ "crypto/sha256"
	_ "crypto/sha512"
	"fmt"
	"hash"
)

const maxFragmentLen = 16384

type ProtocolVersion uint16

const (
	VersionTLS10 ProtocolVersion = 0x0301
	VersionTLS11 ProtocolVersion = 0x0302
	VersionTLS12 ProtocolVersion = 0x0303
	VersionTLS13 ProtocolVersion = 0x0304
)

func (v ProtocolVersion) String() string {
	switch v {
	case VersionTLS10:
		return "TLS1.0"
	case VersionTLS11:
		return "TLS1.1"
	case VersionTLS12:
		return "TLS1.2"
	case VersionTLS13:
		return "TLS1.3"
	}
	return fmt.Sprintf("ProtocolVersion(%04x)", uint16(v))
}

type AlertLevel uint8

const (
	AlertLevelWarning AlertLevel = 1
	AlertLevelError   AlertLevel = 2
)

func (l AlertLevel) String() string {
	switch l {
	case AlertLevelWarning:
		return "warning"
	case AlertLevelError:
		return "fatal"
	}
	return fmt.Sprintf("AlertLevel(%d)", uint8(l))
}

// Alert is a TLS alert description.
type Alert uint8

const (
	AlertCloseNotify            Alert = 0
	AlertUnexpectedMessage      Alert = 10
	AlertBadRecordMAC           Alert = 20
	AlertRecordOverflow         Alert = 22
	AlertHandshakeFailure       Alert = 40
	AlertBadCertificate         Alert = 42
	AlertCertificateExpired     Alert = 45
	AlertUnknownCA              Alert = 48
	AlertDecodeError            Alert = 50
	AlertDecryptError           Alert = 51
	AlertProtocolVersion        Alert = 70
	AlertInternalError          Alert = 80
	AlertUserCanceled           Alert = 90
	AlertNoRenegotiation        Alert = 100
	AlertMissingExtension       Alert = 109
	AlertUnsupportedExtension   Alert = 110
	AlertUnrecognizedName       Alert = 112
	AlertNoApplicationProtocol  Alert = 120
	AlertCertificateRequired    Alert = 116
	AlertUnknownPSKIdentity     Alert = 115
	AlertInappropriateFallback  Alert = 86
	AlertInsufficientSecurity   Alert = 71
	AlertIllegalParameter       Alert = 47
	AlertAccessDenied           Alert = 49
	AlertUnsupportedCertificate Alert = 43
)

var alertText = map[Alert]string{
	AlertCloseNotify:            "close_notify",
	AlertUnexpectedMessage:      "unexpected_message",
	AlertBadRecordMAC:           "bad_record_mac",
	AlertRecordOverflow:         "record_overflow",
	AlertHandshakeFailure:       "handshake_failure",
	AlertBadCertificate:         "bad_certificate",
	AlertCertificateExpired:     "certificate_expired",
	AlertUnknownCA:              "unknown_ca",
	AlertDecodeError:            "decode_error",
	AlertDecryptError:           "decrypt_error",
	AlertProtocolVersion:        "protocol_version",
	AlertInternalError:          "internal_error",
	AlertUserCanceled:           "user_canceled",
	AlertNoRenegotiation:        "no_renegotiation",
	AlertMissingExtension:       "missing_extension",
	AlertUnsupportedExtension:   "unsupported_extension",
	AlertUnrecognizedName:       "unrecognized_name",
	AlertNoApplicationProtocol:  "no_application_protocol",
	AlertCertificateRequired:    "certificate_required",
	AlertUnknownPSKIdentity:     "unknown_psk_identity",
	AlertInappropriateFallback:  "inappropriate_fallback",
	AlertInsufficientSecurity:   "insufficient_security",
	AlertIllegalParameter:       "illegal_parameter",
	AlertAccessDenied:           "access_denied",
	AlertUnsupportedCertificate: "unsupported_certificate",
}

func (a Alert) String() string {
	if s, ok := alertText[a]; ok {
		return s
	}
	return fmt.Sprintf("alert(%d)", uint8(a))
}

type HandshakeType uint8

const (
	HandshakeTypeHelloRequest        HandshakeType = 0
	HandshakeTypeClientHello         HandshakeType = 1
	HandshakeTypeServerHello         HandshakeType = 2
	HandshakeTypeNewSessionTicket    HandshakeType = 4
	HandshakeTypeEndOfEarlyData      HandshakeType = 5
	HandshakeTypeEncryptedExtensions HandshakeType = 8
	HandshakeTypeCertificate         HandshakeType = 11
	HandshakeTypeCertificateRequest  HandshakeType = 13
	HandshakeTypeCertificateVerify   HandshakeType = 15
	HandshakeTypeFinished            HandshakeType = 20
	HandshakeTypeKeyUpdate           HandshakeType = 24
)

// CipherSuite values are as registered with IANA.
type CipherSuite uint16

const (
	TLS_AES_128_GCM_SHA256       CipherSuite = 0x1301
	TLS_AES_256_GCM_SHA384       CipherSuite = 0x1302
	TLS_CHACHA20_POLY1305_SHA256 CipherSuite = 0x1303
)

type SignatureScheme uint16

// KeyUpdateRequest is the wire flag carried in a KeyUpdate message.
type KeyUpdateRequest uint8

const (
	KeyUpdateNotRequested KeyUpdateRequest = 0
	KeyUpdateRequested    KeyUpdateRequest = 1
)

// KeyUpdateMode selects the request flag when the application initiates an
// update: OneWay rotates only our send direction, TwoWay additionally asks
// the peer to rotate theirs.
type KeyUpdateMode int

const (
	OneWay KeyUpdateMode = iota
	TwoWay
)

// Hash identifies the digest backing the key schedule.
type Hash int

const (
	HashSHA1 Hash = iota + 1
	HashSHA256
	HashSHA384
	HashSHA512
)

func (h Hash) cryptoHash() crypto.Hash {
	switch h {
	case HashSHA1:
		return crypto.SHA1
	case HashSHA256:
		return crypto.SHA256
	case HashSHA384:
		return crypto.SHA384
	case HashSHA512:
		return crypto.SHA512
	}
	panic(fmt.Sprintf("tlscore: unsupported hash %d", int(h)))
}

// Size returns the digest size in bytes.
func (h Hash) Size() int {
	return h.cryptoHash().Size()
}

// New returns a fresh digest context.
func (h Hash) New() hash.Hash {
	return h.cryptoHash().New()
}

func (h Hash) String() string {
	switch h {
	case HashSHA1:
		return "SHA-1"
	case HashSHA256:
		return "SHA-256"
	case HashSHA384:
		return "SHA-384"
	case HashSHA512:
		return "SHA-512"
	}
	return fmt.Sprintf("Hash(%d)", int(h))
}

package tlscore

import (
	"crypto"
	"crypto/x509"
	"hash"
	"sync"
)

// CertificateRequestInfo is the payload of a CertificateRequest received
// during the handshake, kept around so a deferred client-certificate
// decision can still consult it.
type CertificateRequestInfo struct {
	CertTypes      []byte
	SignatureAlgs  []SignatureScheme
	AuthorityNames [][]byte
}

// HandshakeState is the per-handshake mutable record: transcript buffer,
// digest accumulator, and certificate-request bookkeeping. It exists only
// while a handshake is in flight; in TLS 1.3 it is re-created via
// key-schedule transitions, never via renegotiation.
//
// The transcript list and the digest context must be updated together by
// the caller; divergence is a bug.
type HandshakeState struct {
	mu sync.Mutex

	clientVersion ProtocolVersion
	clientRandom  []byte
	serverRandom  []byte
	masterSecret  []byte

	localKey crypto.Signer
	peerKey  crypto.PublicKey

	digest   hash.Hash
	messages [][]byte // newest first

	certReq        *CertificateRequestInfo
	clientCertSent bool
	certReqSent    bool
	clientChain    []*x509.Certificate
}

func NewHandshakeState(ver ProtocolVersion, clientRandom []byte, h Hash) *HandshakeState {
	return &HandshakeState{
		clientVersion: ver,
		clientRandom:  clientRandom,
		digest:        h.New(),
	}
}

// AddHandshakeMessage prepends raw to the transcript buffer.
func (hs *HandshakeState) AddHandshakeMessage(raw []byte) {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	hs.messages = append([][]byte{raw}, hs.messages...)
}

// HandshakeMessages returns the transcript in chronological order.
func (hs *HandshakeState) HandshakeMessages() [][]byte {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	out := make([][]byte, len(hs.messages))
	for i, m := range hs.messages {
		out[len(hs.messages)-1-i] = m
	}
	return out
}

// UpdateHandshakeDigest folds raw into the running transcript hash.
func (hs *HandshakeState) UpdateHandshakeDigest(raw []byte) {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	hs.digest.Write(raw)
}

// HandshakeDigest returns the current transcript hash without disturbing
// the accumulator.
func (hs *HandshakeState) HandshakeDigest() []byte {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	return hs.digest.Sum(nil)
}

func (hs *HandshakeState) ClientVersion() ProtocolVersion {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	return hs.clientVersion
}

func (hs *HandshakeState) ClientRandom() []byte {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	return hs.clientRandom
}

func (hs *HandshakeState) ServerRandom() []byte {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	return hs.serverRandom
}

func (hs *HandshakeState) SetServerRandom(r []byte) {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	hs.serverRandom = r
}

func (hs *HandshakeState) MasterSecret() []byte {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	return hs.masterSecret
}

func (hs *HandshakeState) SetMasterSecret(s []byte) {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	hs.masterSecret = s
}

func (hs *HandshakeState) LocalKey() crypto.Signer {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	return hs.localKey
}

func (hs *HandshakeState) SetLocalKey(k crypto.Signer) {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	hs.localKey = k
}

func (hs *HandshakeState) PeerKey() crypto.PublicKey {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	return hs.peerKey
}

func (hs *HandshakeState) SetPeerKey(k crypto.PublicKey) {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	hs.peerKey = k
}

func (hs *HandshakeState) CertificateRequest() *CertificateRequestInfo {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	return hs.certReq
}

func (hs *HandshakeState) SetCertificateRequest(req *CertificateRequestInfo) {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	hs.certReq = req
}

func (hs *HandshakeState) ClientCertSent() bool {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	return hs.clientCertSent
}

func (hs *HandshakeState) SetClientCertSent(v bool) {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	hs.clientCertSent = v
}

func (hs *HandshakeState) CertReqSent() bool {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	return hs.certReqSent
}

func (hs *HandshakeState) SetCertReqSent(v bool) {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	hs.certReqSent = v
}

func (hs *HandshakeState) ClientCertChain() []*x509.Certificate {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	return hs.clientChain
}

func (hs *HandshakeState) SetClientCertChain(chain []*x509.Certificate) {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	hs.clientChain = chain
}

package tlscore

// RecordState is one direction's cipher state as seen by this layer: the
// digest backing the key schedule, the negotiated suite, and the current
// traffic secret. Advancing the secret reseeds the AEAD key and IV
// deterministically inside the record layer.
type RecordState struct {
	Hash   Hash
	Suite  CipherSuite
	Secret []byte
}

// RecordLayer is the framing/encryption collaborator underneath the
// driver. Implementations own the transport and serialize concurrent
// sends; the driver adds its own read lock around each RecvPacket call.
//
// RecvPacket and RecvPacket13 return ErrEOF (or io.EOF) once the peer's
// transport is cleanly exhausted.
type RecordLayer interface {
	RecvPacket() (Packet, error)
	SendPacket(Packet) error

	RecvPacket13() (Packet13, error)
	SendPacket13(Packet13) error

	RxState() RecordState
	SetRxState(RecordState)
	TxState() RecordState
	SetTxState(RecordState)
}

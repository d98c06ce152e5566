package tlscore

import (
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	labelResumption    = "resumption"
	labelTrafficUpdate = "traffic upd"
)

// HkdfExtract is HKDF-Extract under h. A nil salt means a string of
// hashLen zero bytes, per RFC 5869.
func HkdfExtract(h Hash, salt, ikm []byte) []byte {
	if salt == nil {
		salt = make([]byte, h.Size())
	}
	return hkdf.Extract(h.New, ikm, salt)
}

// HkdfExpandLabel is HKDF-Expand under h with the RFC 8446 HkdfLabel
// structure as info: uint16 length, the "tls13 "-prefixed label as an
// opaque<0..255>, and the context value as an opaque<0..255>.
func HkdfExpandLabel(h Hash, secret []byte, label string, context []byte, length int) []byte {
	info := make([]byte, 0, 2+1+len("tls13 ")+len(label)+1+len(context))
	info = append(info, byte(length>>8), byte(length))
	info = append(info, byte(len("tls13 ")+len(label)))
	info = append(info, "tls13 "...)
	info = append(info, label...)
	info = append(info, byte(len(context)))
	info = append(info, context...)

	out := make([]byte, length)
	if _, err := io.ReadFull(hkdf.Expand(h.New, secret, info), out); err != nil {
		panic("tlscore: hkdf expand: " + err.Error())
	}
	return out
}

// DeriveSecret is Derive-Secret(secret, label, transcriptHash): an
// expand-label producing a full digest worth of output.
func DeriveSecret(h Hash, secret []byte, label string, transcriptHash []byte) []byte {
	return HkdfExpandLabel(h, secret, label, transcriptHash, h.Size())
}

// nextTrafficSecret advances one direction's application traffic secret,
// secret_N+1 = HKDF-Expand-Label(secret_N, "traffic upd", "", Hash.length).
func nextTrafficSecret(h Hash, secret []byte) []byte {
	return HkdfExpandLabel(h, secret, labelTrafficUpdate, nil, h.Size())
}

// Package intimate holds the wire constants for the inter-node protocol
// between an encryption node and its decryption peer (spec.md §4.4). It is
// pure data — framing and crypto plumbing live in infrastructure/protocol.
package intimate

const (
	// RSARequestMarker0/1 are the two cleartext bytes an encryption node
	// sends to ask its peer for an RSA public key.
	RSARequestMarker0 byte = 0x0F
	RSARequestMarker1 byte = 0x0A

	// RSAResponseType prefixes the cleartext PEM response.
	RSAResponseType byte = 0x0E

	// AESAck is the cleartext single-byte acknowledgement the decryption
	// side sends once its cipher contexts are primed. The encryption side
	// must not begin encrypted traffic before receiving it — see
	// spec.md §4.4.2 and §9's "ordering bug/quirk to preserve".
	AESAck byte = 0x0F
)

// MaxCredentialLength bounds username/password length on the wire
// (spec.md §4.4.3: ULEN, PLEN ≤ 64).
const MaxCredentialLength = 64

// AESKeySize and AESIVSize are the wire sizes of one (key, iv) pair as
// exchanged during AES negotiation. The key field is 32 bytes wide on the
// wire though only the first 16 bytes seed the AES-128 cipher — this
// asymmetry is preserved verbatim for wire compatibility (spec.md §4.2).
const (
	AESKeySize = 32
	AESIVSize  = 16
	aesPairLen = AESKeySize + AESIVSize
	// AESExchangePlaintextLen is the length of the RSA-encrypted plaintext
	// carrying both (key, iv) pairs: 2 * (32 + 16) = 96 bytes.
	AESExchangePlaintextLen = 2 * aesPairLen
)

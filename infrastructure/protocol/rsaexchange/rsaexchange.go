// Package rsaexchange implements spec.md §4.4.1: the cleartext RSA
// public-key delivery that precedes AES negotiation. Framing follows the
// tunnel's cleartext read/write helpers since no cipher context exists
// yet at this phase.
package rsaexchange

import (
	"encoding/binary"
	"fmt"

	"github.com/y5a9f2y/proxy/domain/intimate"
	"github.com/y5a9f2y/proxy/infrastructure/tunnel"
)

// RequestFromPeer is called by the encryption side: send the two-byte
// marker on ep1 (the peer decryption node) and read back the PEM public
// key, storing it on t.RSAPub.
func RequestFromPeer(t *tunnel.Tunnel) error {
	if err := t.WriteExactCleartext(tunnel.EP1, []byte{intimate.RSARequestMarker0, intimate.RSARequestMarker1}); err != nil {
		return fmt.Errorf("rsaexchange: send request: %w", err)
	}

	typeByte, err := t.ReadExactCleartext(tunnel.EP1, 1)
	if err != nil {
		return fmt.Errorf("rsaexchange: read response type: %w", err)
	}
	if typeByte[0] != intimate.RSAResponseType {
		return fmt.Errorf("rsaexchange: unexpected response type 0x%02x", typeByte[0])
	}

	lenBytes, err := t.ReadExactCleartext(tunnel.EP1, 4)
	if err != nil {
		return fmt.Errorf("rsaexchange: read response length: %w", err)
	}
	length := binary.BigEndian.Uint32(lenBytes)
	if length == 0 {
		return fmt.Errorf("rsaexchange: response PEM length is zero")
	}

	pem, err := t.ReadExactCleartext(tunnel.EP1, int(length))
	if err != nil {
		return fmt.Errorf("rsaexchange: read PEM body: %w", err)
	}

	t.RSAPub = string(pem)
	return nil
}

// ServeRequest is called by the decryption side: wait for the two-byte
// marker on ep0 (the peer encryption node), then send the type byte,
// length, and PEM text of pub.
func ServeRequest(t *tunnel.Tunnel, pub string) error {
	marker, err := t.ReadExactCleartext(tunnel.EP0, 2)
	if err != nil {
		return fmt.Errorf("rsaexchange: read request: %w", err)
	}
	if marker[0] != intimate.RSARequestMarker0 || marker[1] != intimate.RSARequestMarker1 {
		return fmt.Errorf("rsaexchange: unexpected request marker 0x%02x 0x%02x", marker[0], marker[1])
	}

	lenBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(lenBuf, uint32(len(pub)))

	frame := make([]byte, 0, 1+4+len(pub))
	frame = append(frame, intimate.RSAResponseType)
	frame = append(frame, lenBuf...)
	frame = append(frame, []byte(pub)...)

	if err := t.WriteExactCleartext(tunnel.EP0, frame); err != nil {
		return fmt.Errorf("rsaexchange: send response: %w", err)
	}
	return nil
}

// Package aesexchange implements spec.md §4.4.2: RSA-wrapped delivery of
// two AES key/IV pairs, the mandatory role swap on the decryption side,
// and the cleartext ACK that gates the start of encrypted traffic.
package aesexchange

import (
	"encoding/binary"
	"fmt"

	"github.com/y5a9f2y/proxy/domain/intimate"
	"github.com/y5a9f2y/proxy/infrastructure/cryptoprim"
	"github.com/y5a9f2y/proxy/infrastructure/tunnel"
)

// Send is called by the encryption side. It generates two independent
// (key, iv) pairs — one for its own outbound stream, one for the peer's
// outbound stream — RSA-encrypts both with the peer's public key
// (t.RSAPub, learned during rsaexchange), frames and sends the
// ciphertext on ep1, then blocks for the peer's cleartext ACK before
// priming its own cipher contexts.
func Send(t *tunnel.Tunnel) error {
	ownKey, ownIV, err := cryptoprim.GenerateAESKeyIV()
	if err != nil {
		return fmt.Errorf("aesexchange: generate own key/iv: %w", err)
	}
	peerKey, peerIV, err := cryptoprim.GenerateAESKeyIV()
	if err != nil {
		return fmt.Errorf("aesexchange: generate peer key/iv: %w", err)
	}

	plaintext := make([]byte, 0, intimate.AESExchangePlaintextLen)
	plaintext = append(plaintext, ownKey[:]...)
	plaintext = append(plaintext, ownIV[:]...)
	plaintext = append(plaintext, peerKey[:]...)
	plaintext = append(plaintext, peerIV[:]...)

	pub, err := cryptoprim.ParseRSAPublicKeyPEM(t.RSAPub)
	if err != nil {
		return fmt.Errorf("aesexchange: parse peer public key: %w", err)
	}
	ciphertext, err := cryptoprim.RSAEncrypt(plaintext, pub)
	if err != nil {
		return fmt.Errorf("aesexchange: rsa encrypt: %w", err)
	}

	lenBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(lenBuf, uint32(len(ciphertext)))
	frame := append(lenBuf, ciphertext...)
	if err := t.WriteExactCleartext(tunnel.EP1, frame); err != nil {
		return fmt.Errorf("aesexchange: send key frame: %w", err)
	}

	ack, err := t.ReadExactCleartext(tunnel.EP1, 1)
	if err != nil {
		return fmt.Errorf("aesexchange: read ack: %w", err)
	}
	if ack[0] != intimate.AESAck {
		return fmt.Errorf("aesexchange: unexpected ack byte 0x%02x", ack[0])
	}

	t.AESKey, t.AESIV = ownKey, ownIV
	t.AESCtx, err = cryptoprim.NewCipherCtx(cryptoprim.DirEncrypt, ownKey, ownIV)
	if err != nil {
		return fmt.Errorf("aesexchange: build own cipher: %w", err)
	}
	t.AESKeyPeer, t.AESIVPeer = peerKey, peerIV
	t.AESCtxPeer, err = cryptoprim.NewCipherCtx(cryptoprim.DirDecrypt, peerKey, peerIV)
	if err != nil {
		return fmt.Errorf("aesexchange: build peer cipher: %w", err)
	}
	return nil
}

// Receive is called by the decryption side. It reads the length-prefixed
// RSA ciphertext from ep0, decrypts with keypair's private key, and
// performs the mandatory role swap: the first (key, iv) pair — the
// encryption side's own outbound key — becomes this side's aes_ctx_peer
// (decrypts inbound); the second pair becomes aes_ctx (encrypts
// outbound). It then sends the cleartext ACK on ep0.
func Receive(t *tunnel.Tunnel, keypair *cryptoprim.RSAKeyPair) error {
	lenBytes, err := t.ReadExactCleartext(tunnel.EP0, 4)
	if err != nil {
		return fmt.Errorf("aesexchange: read key frame length: %w", err)
	}
	length := binary.BigEndian.Uint32(lenBytes)
	if length == 0 {
		return fmt.Errorf("aesexchange: key frame length is zero")
	}

	ciphertext, err := t.ReadExactCleartext(tunnel.EP0, int(length))
	if err != nil {
		return fmt.Errorf("aesexchange: read key frame body: %w", err)
	}

	plaintext, err := keypair.RSADecrypt(ciphertext)
	if err != nil {
		return fmt.Errorf("aesexchange: rsa decrypt: %w", err)
	}
	if len(plaintext) != intimate.AESExchangePlaintextLen {
		return fmt.Errorf("aesexchange: decrypted length %d, want %d", len(plaintext), intimate.AESExchangePlaintextLen)
	}

	var firstKey, secondKey [intimate.AESKeySize]byte
	var firstIV, secondIV [intimate.AESIVSize]byte
	off := 0
	copy(firstKey[:], plaintext[off:off+intimate.AESKeySize])
	off += intimate.AESKeySize
	copy(firstIV[:], plaintext[off:off+intimate.AESIVSize])
	off += intimate.AESIVSize
	copy(secondKey[:], plaintext[off:off+intimate.AESKeySize])
	off += intimate.AESKeySize
	copy(secondIV[:], plaintext[off:off+intimate.AESIVSize])

	t.AESKeyPeer, t.AESIVPeer = firstKey, firstIV
	t.AESCtxPeer, err = cryptoprim.NewCipherCtx(cryptoprim.DirDecrypt, firstKey, firstIV)
	if err != nil {
		return fmt.Errorf("aesexchange: build peer cipher: %w", err)
	}
	t.AESKey, t.AESIV = secondKey, secondIV
	t.AESCtx, err = cryptoprim.NewCipherCtx(cryptoprim.DirEncrypt, secondKey, secondIV)
	if err != nil {
		return fmt.Errorf("aesexchange: build own cipher: %w", err)
	}

	if err := t.WriteExactCleartext(tunnel.EP0, []byte{intimate.AESAck}); err != nil {
		return fmt.Errorf("aesexchange: send ack: %w", err)
	}
	return nil
}

// Package auth implements spec.md §4.4.3: shared-secret username/password
// authentication, sent under AES from the encryption side and verified
// on the decryption side.
package auth

import (
	"encoding/binary"
	"fmt"

	"github.com/y5a9f2y/proxy/domain/intimate"
	"github.com/y5a9f2y/proxy/infrastructure/tunnel"
)

// Send is called by the encryption side once AES negotiation has
// completed. username and password must each be at most
// intimate.MaxCredentialLength bytes.
func Send(t *tunnel.Tunnel, username, password string) error {
	if len(username) > intimate.MaxCredentialLength {
		return fmt.Errorf("auth: username length %d exceeds %d", len(username), intimate.MaxCredentialLength)
	}
	if len(password) > intimate.MaxCredentialLength {
		return fmt.Errorf("auth: password length %d exceeds %d", len(password), intimate.MaxCredentialLength)
	}

	frame := make([]byte, 0, 4+len(username)+4+len(password))
	frame = appendLenPrefixed(frame, username)
	frame = appendLenPrefixed(frame, password)

	if err := t.WriteEncrypted(tunnel.EP1, frame); err != nil {
		return fmt.Errorf("auth: send credentials: %w", err)
	}
	return nil
}

func appendLenPrefixed(dst []byte, s string) []byte {
	lenBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(lenBuf, uint32(len(s)))
	dst = append(dst, lenBuf...)
	dst = append(dst, []byte(s)...)
	return dst
}

// Verify is called by the decryption side. It reads the length-prefixed
// username/password under AES and compares them to the configured
// credentials. A mismatch is reported as a single error that does not say
// which field differed, matching spec.md §7's "no leak of which field
// mismatched" requirement; a length overflow or short read is reported
// with the name of the field being read.
func Verify(t *tunnel.Tunnel, wantUsername, wantPassword string) error {
	username, err := readCredential(t)
	if err != nil {
		return fmt.Errorf("auth: read username: %w", err)
	}
	password, err := readCredential(t)
	if err != nil {
		return fmt.Errorf("auth: read password: %w", err)
	}

	if username != wantUsername || password != wantPassword {
		return fmt.Errorf("auth: credential mismatch")
	}
	return nil
}

func readCredential(t *tunnel.Tunnel) (string, error) {
	length, err := t.ReadUint32Decrypted(tunnel.EP0)
	if err != nil {
		return "", fmt.Errorf("read length: %w", err)
	}
	if length > intimate.MaxCredentialLength {
		return "", fmt.Errorf("length %d exceeds %d", length, intimate.MaxCredentialLength)
	}
	return t.ReadStringDecrypted(tunnel.EP0, int(length))
}

package tunnel

import (
	"encoding/binary"
	"fmt"

	"github.com/y5a9f2y/proxy/infrastructure/buffer"
)

// Endpoint selects which socket a decrypt helper reads from.
type Endpoint int

const (
	EP0 Endpoint = iota
	EP1
)

func (t *Tunnel) reader(ep Endpoint) buffer.Reader {
	if ep == EP0 {
		return t.EP0
	}
	return t.EP1
}

// ReadByteDecrypted reads exactly one enciphered byte from ep, decrypts
// it with AESCtxPeer, and returns the plaintext byte. This, together with
// ReadUint32Decrypted, ReadStringDecrypted and io.go's ReadDecryptedN, are
// the tunnel's helpers that couple reads to decryption (spec.md §4.1); the
// relay pump decrypts its chunks on its own.
func (t *Tunnel) ReadByteDecrypted(ep Endpoint) (byte, error) {
	if !t.ReadyForRelay() {
		return 0, fmt.Errorf("tunnel: decrypt helper called before cipher contexts exist")
	}
	buf := buffer.New(1)
	n, err := buffer.ReadExact(t.reader(ep), buf, 1, t.touchN)
	if err != nil {
		return 0, fmt.Errorf("read byte: %w", err)
	}
	if n != 1 {
		return 0, fmt.Errorf("read byte: short read: got %d want 1", n)
	}
	plain := t.AESCtxPeer.Decrypt(buf.Readable())
	return plain[0], nil
}

// ReadUint32Decrypted reads exactly 4 enciphered bytes from ep, decrypts,
// and parses them as a big-endian uint32.
func (t *Tunnel) ReadUint32Decrypted(ep Endpoint) (uint32, error) {
	if !t.ReadyForRelay() {
		return 0, fmt.Errorf("tunnel: decrypt helper called before cipher contexts exist")
	}
	buf := buffer.New(4)
	n, err := buffer.ReadExact(t.reader(ep), buf, 4, t.touchN)
	if err != nil {
		return 0, fmt.Errorf("read uint32: %w", err)
	}
	if n != 4 {
		return 0, fmt.Errorf("read uint32: short read: got %d want 4", n)
	}
	plain := t.AESCtxPeer.Decrypt(buf.Readable())
	return binary.BigEndian.Uint32(plain), nil
}

// ReadStringDecrypted reads exactly n enciphered bytes from ep, decrypts,
// and returns them as a string. The caller is expected to have already
// read the length prefix: protocol/auth reads a uint32 via
// ReadUint32Decrypted and checks it against MaxCredentialLength;
// socksdialogue reads a one-byte domain length via ReadByteDecrypted.
func (t *Tunnel) ReadStringDecrypted(ep Endpoint, n int) (string, error) {
	if !t.ReadyForRelay() {
		return "", fmt.Errorf("tunnel: decrypt helper called before cipher contexts exist")
	}
	if n < 0 {
		return "", fmt.Errorf("read string: negative length %d", n)
	}
	buf := buffer.New(n)
	got, err := buffer.ReadExact(t.reader(ep), buf, n, t.touchN)
	if err != nil {
		return "", fmt.Errorf("read string: %w", err)
	}
	if got != n {
		return "", fmt.Errorf("read string: short read: got %d want %d", got, n)
	}
	plain := t.AESCtxPeer.Decrypt(buf.Readable())
	if len(plain) != n {
		return "", fmt.Errorf("read string: decrypted length mismatch: got %d want %d", len(plain), n)
	}
	return string(plain), nil
}

func (t *Tunnel) touchN(int) { t.Touch() }

package tunnel

import (
	"fmt"

	"github.com/y5a9f2y/proxy/infrastructure/buffer"
)

func (t *Tunnel) writer(ep Endpoint) buffer.Writer {
	if ep == EP0 {
		return t.EP0
	}
	return t.EP1
}

// ReadExactCleartext reads exactly n bytes from ep with no decryption —
// used by the RSA negotiation phase, which runs before any cipher
// context exists (spec.md §4.4.1).
func (t *Tunnel) ReadExactCleartext(ep Endpoint, n int) ([]byte, error) {
	buf := buffer.New(n)
	got, err := buffer.ReadExact(t.reader(ep), buf, n, t.touchN)
	if err != nil {
		return nil, err
	}
	if got != n {
		return nil, fmt.Errorf("tunnel: short read: got %d want %d", got, n)
	}
	out := make([]byte, n)
	copy(out, buf.Readable())
	return out, nil
}

// WriteExactCleartext writes p to ep with no encryption.
func (t *Tunnel) WriteExactCleartext(ep Endpoint, p []byte) error {
	buf := buffer.New(len(p))
	_ = buf.Append(p)
	n, err := buffer.WriteExact(t.writer(ep), buf, len(p), t.touchN)
	if err != nil {
		return err
	}
	if n != len(p) {
		return fmt.Errorf("tunnel: short write: wrote %d want %d", n, len(p))
	}
	return nil
}

// WriteEncrypted encrypts p with AESCtx and writes the ciphertext to ep.
func (t *Tunnel) WriteEncrypted(ep Endpoint, p []byte) error {
	if t.AESCtx == nil {
		return fmt.Errorf("tunnel: WriteEncrypted called before AESCtx exists")
	}
	ct := t.AESCtx.Encrypt(p)
	return t.WriteExactCleartext(ep, ct)
}

// ReadDecryptedN reads exactly n enciphered bytes from ep and returns the
// decrypted plaintext. socksdialogue uses it for fixed-size fields (the
// method list, the IPv4 address, the port); the relay phase does not use
// it and decrypts each chunk it reads itself.
func (t *Tunnel) ReadDecryptedN(ep Endpoint, n int) ([]byte, error) {
	if !t.ReadyForRelay() {
		return nil, fmt.Errorf("tunnel: decrypt helper called before cipher contexts exist")
	}
	buf := buffer.New(n)
	got, err := buffer.ReadExact(t.reader(ep), buf, n, t.touchN)
	if err != nil {
		return nil, err
	}
	if got != n {
		return nil, fmt.Errorf("tunnel: short read: got %d want %d", got, n)
	}
	return t.AESCtxPeer.Decrypt(buf.Readable()), nil
}

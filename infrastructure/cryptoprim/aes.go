package cryptoprim

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"github.com/y5a9f2y/proxy/domain/intimate"
)

// Direction marks which way a CipherCtx runs; CFB is stateful so a
// context is only ever stepped in its declared direction (spec.md §4.2).
type Direction int

const (
	DirEncrypt Direction = iota
	DirDecrypt
)

// CipherCtx is a stateful AES-128-CFB context. Only the first 16 bytes of
// the 32-byte key material are consumed by the 128-bit cipher; the extra
// 16 bytes exist purely for wire compatibility with the original
// implementation (spec.md §4.2) and are otherwise ignored.
type CipherCtx struct {
	dir    Direction
	stream cipher.Stream
}

// NewCipherCtx primes a CFB context from a 32-byte key and 16-byte IV. The
// same context must be reused for every subsequent chunk on one logical
// stream — constructing a new one per chunk would restart the keystream.
func NewCipherCtx(dir Direction, key [intimate.AESKeySize]byte, iv [intimate.AESIVSize]byte) (*CipherCtx, error) {
	block, err := aes.NewCipher(key[:16])
	if err != nil {
		return nil, fmt.Errorf("aes: new cipher: %w", err)
	}

	var stream cipher.Stream
	switch dir {
	case DirEncrypt:
		stream = cipher.NewCFBEncrypter(block, iv[:])
	case DirDecrypt:
		stream = cipher.NewCFBDecrypter(block, iv[:])
	default:
		return nil, fmt.Errorf("aes: unknown direction %d", dir)
	}

	return &CipherCtx{dir: dir, stream: stream}, nil
}

// XORKeyStream encrypts or decrypts src into dst in place, advancing the
// context's internal state. CFB is stream-length-preserving: len(dst) ==
// len(src) always (spec.md §4.2), so dst must have at least len(src) of
// free capacity.
func (c *CipherCtx) XORKeyStream(dst, src []byte) {
	c.stream.XORKeyStream(dst, src)
}

// Encrypt returns a freshly allocated ciphertext; len(out) == len(src).
func (c *CipherCtx) Encrypt(src []byte) []byte {
	out := make([]byte, len(src))
	c.stream.XORKeyStream(out, src)
	return out
}

// Decrypt returns a freshly allocated plaintext; len(out) == len(src).
func (c *CipherCtx) Decrypt(src []byte) []byte {
	out := make([]byte, len(src))
	c.stream.XORKeyStream(out, src)
	return out
}

// GenerateAESKeyIV returns fresh random key/iv material for one cipher
// direction (spec.md §4.4.2: the encryption side generates two such pairs
// per tunnel).
func GenerateAESKeyIV() (key [intimate.AESKeySize]byte, iv [intimate.AESIVSize]byte, err error) {
	if _, err = rand.Read(key[:]); err != nil {
		return key, iv, fmt.Errorf("aes: generate key: %w", err)
	}
	if _, err = rand.Read(iv[:]); err != nil {
		return key, iv, fmt.Errorf("aes: generate iv: %w", err)
	}
	return key, iv, nil
}

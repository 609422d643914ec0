// Package cryptoprim wraps the RSA-1024/PKCS#1 v1.5 and AES-128-CFB
// primitives spec.md §4.2 assumes. Wire compatibility with the original
// protocol requires these exact algorithms, not the AEAD/curve25519 stack
// the teacher reaches for in its VPN handshake — see DESIGN.md for why
// golang.org/x/crypto isn't wired here.
package cryptoprim

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
)

// RSAKeyBits is fixed by spec.md §4.2.
const RSAKeyBits = 1024

// RSAKeyPair holds a generated keypair serialized as PEM text, matching
// the wire representation exchanged in spec.md §4.4.1.
type RSAKeyPair struct {
	PublicPEM  string
	PrivatePEM string

	private *rsa.PrivateKey
}

// GenerateRSAKeyPair creates a fresh 1024-bit RSA keypair.
func GenerateRSAKeyPair() (*RSAKeyPair, error) {
	priv, err := rsa.GenerateKey(rand.Reader, RSAKeyBits)
	if err != nil {
		return nil, fmt.Errorf("rsa keygen: %w", err)
	}

	pubDER, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("rsa marshal public key: %w", err)
	}
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})

	privDER := x509.MarshalPKCS1PrivateKey(priv)
	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: privDER})

	return &RSAKeyPair{
		PublicPEM:  string(pubPEM),
		PrivatePEM: string(privPEM),
		private:    priv,
	}, nil
}

// ParseRSAPublicKeyPEM decodes a PEM-encoded public key as received from a
// peer during RSA negotiation (spec.md §4.4.1).
func ParseRSAPublicKeyPEM(pubPEM string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(pubPEM))
	if block == nil {
		return nil, errors.New("rsa: no PEM block found in public key")
	}
	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("rsa: parse public key: %w", err)
	}
	pub, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("rsa: PEM block is not an RSA public key")
	}
	return pub, nil
}

// RSAEncrypt applies PKCS#1 v1.5 padding with the peer's public key and
// returns a newly allocated ciphertext the size of the key modulus (128
// bytes for a 1024-bit key).
func RSAEncrypt(src []byte, pub *rsa.PublicKey) ([]byte, error) {
	ct, err := rsa.EncryptPKCS1v15(rand.Reader, pub, src)
	if err != nil {
		return nil, fmt.Errorf("rsa encrypt: %w", err)
	}
	return ct, nil
}

// RSADecrypt is the inverse of RSAEncrypt using this pair's private key.
func (kp *RSAKeyPair) RSADecrypt(ciphertext []byte) ([]byte, error) {
	pt, err := rsa.DecryptPKCS1v15(rand.Reader, kp.private, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("rsa decrypt: %w", err)
	}
	return pt, nil
}

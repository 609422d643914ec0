package cryptoprim

import (
	"bytes"
	"testing"
)

func TestRSAEncryptDecryptRoundTrip(t *testing.T) {
	kp, err := GenerateRSAKeyPair()
	if err != nil {
		t.Fatalf("GenerateRSAKeyPair: %v", err)
	}

	pub, err := ParseRSAPublicKeyPEM(kp.PublicPEM)
	if err != nil {
		t.Fatalf("ParseRSAPublicKeyPEM: %v", err)
	}

	plaintext := []byte("this is well within the 1024-bit PKCS1v15 limit")
	ct, err := RSAEncrypt(plaintext, pub)
	if err != nil {
		t.Fatalf("RSAEncrypt: %v", err)
	}

	pt, err := kp.RSADecrypt(ct)
	if err != nil {
		t.Fatalf("RSADecrypt: %v", err)
	}
	if !bytes.Equal(pt, plaintext) {
		t.Errorf("RSADecrypt = %q, want %q", pt, plaintext)
	}
}

func TestParseRSAPublicKeyPEMRejectsGarbage(t *testing.T) {
	if _, err := ParseRSAPublicKeyPEM("not a pem block"); err == nil {
		t.Errorf("expected an error parsing a non-PEM string")
	}
}

func TestCipherCtxEncryptDecryptRoundTrip(t *testing.T) {
	key, iv, err := GenerateAESKeyIV()
	if err != nil {
		t.Fatalf("GenerateAESKeyIV: %v", err)
	}

	enc, err := NewCipherCtx(DirEncrypt, key, iv)
	if err != nil {
		t.Fatalf("NewCipherCtx(encrypt): %v", err)
	}
	dec, err := NewCipherCtx(DirDecrypt, key, iv)
	if err != nil {
		t.Fatalf("NewCipherCtx(decrypt): %v", err)
	}

	plaintext := []byte("relay this chunk of bytes across the tunnel")
	ct := enc.Encrypt(plaintext)
	if bytes.Equal(ct, plaintext) {
		t.Errorf("ciphertext must differ from plaintext")
	}

	pt := dec.Decrypt(ct)
	if !bytes.Equal(pt, plaintext) {
		t.Errorf("Decrypt = %q, want %q", pt, plaintext)
	}
}

func TestCipherCtxStreamsAcrossMultipleChunks(t *testing.T) {
	key, iv, err := GenerateAESKeyIV()
	if err != nil {
		t.Fatalf("GenerateAESKeyIV: %v", err)
	}
	enc, _ := NewCipherCtx(DirEncrypt, key, iv)
	dec, _ := NewCipherCtx(DirDecrypt, key, iv)

	chunks := [][]byte{[]byte("first "), []byte("second "), []byte("third")}
	for _, c := range chunks {
		ct := enc.Encrypt(c)
		pt := dec.Decrypt(ct)
		if !bytes.Equal(pt, c) {
			t.Fatalf("chunk round trip: got %q, want %q", pt, c)
		}
	}
}

func TestNewCipherCtxRejectsUnknownDirection(t *testing.T) {
	var key [32]byte
	var iv [16]byte
	if _, err := NewCipherCtx(Direction(99), key, iv); err == nil {
		t.Errorf("expected an error for an unknown direction")
	}
}

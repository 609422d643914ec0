package relay

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/y5a9f2y/proxy/infrastructure/cryptoprim"
	"github.com/y5a9f2y/proxy/infrastructure/netsocket"
	"github.com/y5a9f2y/proxy/infrastructure/tunnel"
)

type fakeRecorder struct {
	up, down int
}

func (f *fakeRecorder) AddUp(n int)   { f.up += n }
func (f *fakeRecorder) AddDown(n int) { f.down += n }

func TestRunPassThroughCopiesBothDirections(t *testing.T) {
	ep0Near, ep0Far := net.Pipe()
	ep1Near, ep1Far := net.Pipe()

	tun := tunnel.New(1, netsocket.New(ep0Near))
	tun.EP1 = netsocket.New(ep1Near)

	rec := &fakeRecorder{}
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- Run(ctx, tun, rec, PassThrough, PassThrough) }()

	if _, err := ep0Far.Write([]byte("hello")); err != nil {
		t.Fatalf("write ep0Far: %v", err)
	}
	buf := make([]byte, 5)
	if _, err := ep1Far.Read(buf); err != nil {
		t.Fatalf("read ep1Far: %v", err)
	}
	if string(buf) != "hello" {
		t.Fatalf("got %q, want hello", buf)
	}

	if _, err := ep1Far.Write([]byte("world")); err != nil {
		t.Fatalf("write ep1Far: %v", err)
	}
	if _, err := ep0Far.Read(buf); err != nil {
		t.Fatalf("read ep0Far: %v", err)
	}
	if string(buf) != "world" {
		t.Fatalf("got %q, want world", buf)
	}

	ep0Far.Close()
	ep1Far.Close()
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("Run did not return after both endpoints closed")
	}

	if rec.up != 5 || rec.down != 5 {
		t.Fatalf("recorder up=%d down=%d, want 5,5", rec.up, rec.down)
	}
}

func TestRunEncryptDecryptRoundTrip(t *testing.T) {
	ep0Near, ep0Far := net.Pipe()
	ep1Near, ep1Far := net.Pipe()

	tun := tunnel.New(1, netsocket.New(ep0Near))
	tun.EP1 = netsocket.New(ep1Near)

	key, iv, err := cryptoprim.GenerateAESKeyIV()
	if err != nil {
		t.Fatalf("generate key/iv: %v", err)
	}
	tun.AESCtx, err = cryptoprim.NewCipherCtx(cryptoprim.DirEncrypt, key, iv)
	if err != nil {
		t.Fatalf("new encrypt ctx: %v", err)
	}
	tun.AESCtxPeer, err = cryptoprim.NewCipherCtx(cryptoprim.DirDecrypt, key, iv)
	if err != nil {
		t.Fatalf("new decrypt ctx: %v", err)
	}

	rec := &fakeRecorder{}
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- Run(ctx, tun, rec, PassEncrypt, PassDecrypt) }()

	if _, err := ep0Far.Write([]byte("plaintext")); err != nil {
		t.Fatalf("write ep0Far: %v", err)
	}
	buf := make([]byte, 9)
	if _, err := ep1Far.Read(buf); err != nil {
		t.Fatalf("read ep1Far: %v", err)
	}
	if string(buf) == "plaintext" {
		t.Fatalf("expected ciphertext on ep1, got plaintext verbatim")
	}

	ep0Far.Close()
	ep1Far.Close()
	cancel()

	select {
	case <-errCh:
	case <-time.After(time.Second):
		t.Fatalf("Run did not return after both endpoints closed")
	}
}

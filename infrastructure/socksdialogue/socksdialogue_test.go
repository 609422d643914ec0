package socksdialogue

import (
	"context"
	"net"
	"testing"

	"github.com/y5a9f2y/proxy/domain/socks5"
	"github.com/y5a9f2y/proxy/infrastructure/cryptoprim"
	"github.com/y5a9f2y/proxy/infrastructure/netsocket"
	"github.com/y5a9f2y/proxy/infrastructure/tunnel"
)

type stubResolver struct {
	ip  [4]byte
	err error
}

func (s stubResolver) ResolveIPv4(ctx context.Context, name string) ([4]byte, error) {
	return s.ip, s.err
}

// pairedCodec builds a tunnel whose ep0 is one end of a net.Pipe, with
// cipher contexts primed from a shared key/iv, plus a matching pair of
// contexts the test drives the raw pipe's other end with: encrypting
// what it sends (so the tunnel's AESCtxPeer recovers it) and decrypting
// what it reads back (so it recovers what the tunnel's AESCtx produced).
func pairedCodec(t *testing.T) (local *tunnel.Tunnel, remoteConn net.Conn, remoteEncrypt, remoteDecrypt *cryptoprim.CipherCtx) {
	t.Helper()
	a, b := net.Pipe()
	local = tunnel.New(1, netsocket.New(a))

	key, iv, err := cryptoprim.GenerateAESKeyIV()
	if err != nil {
		t.Fatalf("generate key/iv: %v", err)
	}
	local.AESCtxPeer, err = cryptoprim.NewCipherCtx(cryptoprim.DirDecrypt, key, iv)
	if err != nil {
		t.Fatalf("new decrypt ctx: %v", err)
	}
	local.AESCtx, err = cryptoprim.NewCipherCtx(cryptoprim.DirEncrypt, key, iv)
	if err != nil {
		t.Fatalf("new encrypt ctx: %v", err)
	}

	remoteEncrypt, err = cryptoprim.NewCipherCtx(cryptoprim.DirEncrypt, key, iv)
	if err != nil {
		t.Fatalf("remote encrypt ctx: %v", err)
	}
	remoteDecrypt, err = cryptoprim.NewCipherCtx(cryptoprim.DirDecrypt, key, iv)
	if err != nil {
		t.Fatalf("remote decrypt ctx: %v", err)
	}
	return local, b, remoteEncrypt, remoteDecrypt
}

func TestHandshakeSelectsNoAuth(t *testing.T) {
	local, remote, encrypt, decrypt := pairedCodec(t)

	done := make(chan error, 1)
	go func() { done <- Handshake(local) }()

	request := []byte{socks5.Version, 0x01, socks5.MethodNoAuth}
	if _, err := remote.Write(encrypt.Encrypt(request)); err != nil {
		t.Fatalf("write request: %v", err)
	}

	replyCipher := make([]byte, 2)
	if _, err := remote.Read(replyCipher); err != nil {
		t.Fatalf("read reply: %v", err)
	}
	reply := decrypt.Decrypt(replyCipher)
	if reply[0] != socks5.Version || reply[1] != socks5.MethodNoAuth {
		t.Fatalf("reply = % x, want version/no-auth", reply)
	}

	if err := <-done; err != nil {
		t.Fatalf("Handshake: %v", err)
	}
}

func TestHandshakeRejectsNoAcceptableMethod(t *testing.T) {
	local, remote, encrypt, decrypt := pairedCodec(t)

	done := make(chan error, 1)
	go func() { done <- Handshake(local) }()

	request := []byte{socks5.Version, 0x01, 0x02} // only GSSAPI offered
	if _, err := remote.Write(encrypt.Encrypt(request)); err != nil {
		t.Fatalf("write request: %v", err)
	}

	replyCipher := make([]byte, 2)
	if _, err := remote.Read(replyCipher); err != nil {
		t.Fatalf("read reply: %v", err)
	}
	reply := decrypt.Decrypt(replyCipher)
	if reply[1] != socks5.MethodNoAcceptable {
		t.Fatalf("reply method = 0x%02x, want 0xFF", reply[1])
	}

	if err := <-done; err == nil {
		t.Fatalf("expected Handshake to fail when no-auth isn't offered")
	}
}

func TestRequestConnectsToResolvedIPv4Domain(t *testing.T) {
	local, remote, encrypt, decrypt := pairedCodec(t)
	resolver := stubResolver{ip: [4]byte{127, 0, 0, 1}}

	backend, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer backend.Close()
	backendPort := backend.Addr().(*net.TCPAddr).Port

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, aerr := backend.Accept()
		if aerr == nil {
			accepted <- conn
		}
	}()

	done := make(chan error, 1)
	go func() {
		dial := func(ctx context.Context, network, address string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, network, address)
		}
		done <- Request(context.Background(), local, resolver, dial)
	}()

	domain := "example.test"
	req := []byte{socks5.Version, socks5.CmdConnect, 0x00, socks5.ATYPDomain, byte(len(domain))}
	req = append(req, []byte(domain)...)
	portBuf := []byte{byte(backendPort >> 8), byte(backendPort)}
	req = append(req, portBuf...)

	if _, err := remote.Write(encrypt.Encrypt(req)); err != nil {
		t.Fatalf("write request: %v", err)
	}

	select {
	case <-accepted:
	case <-done:
		t.Fatalf("Request returned before backend accept")
	}

	replyCipher := make([]byte, 10)
	if _, err := remote.Read(replyCipher); err != nil {
		t.Fatalf("read reply: %v", err)
	}
	reply := decrypt.Decrypt(replyCipher)
	if reply[1] != socks5.RepSucceeded {
		t.Fatalf("reply REP = 0x%02x, want success", reply[1])
	}

	if err := <-done; err != nil {
		t.Fatalf("Request: %v", err)
	}
	if local.EP1 == nil {
		t.Fatalf("expected ep1 to be set on success")
	}
}

func TestRequestRejectsNonConnectCommand(t *testing.T) {
	local, remote, encrypt, decrypt := pairedCodec(t)
	resolver := stubResolver{}

	done := make(chan error, 1)
	go func() {
		dial := func(ctx context.Context, network, address string) (net.Conn, error) {
			return nil, context.Canceled
		}
		done <- Request(context.Background(), local, resolver, dial)
	}()

	req := []byte{socks5.Version, socks5.CmdBind, 0x00, socks5.ATYPIPv4, 1, 2, 3, 4, 0, 80}
	if _, err := remote.Write(encrypt.Encrypt(req)); err != nil {
		t.Fatalf("write request: %v", err)
	}

	replyCipher := make([]byte, 10)
	if _, err := remote.Read(replyCipher); err != nil {
		t.Fatalf("read failure reply: %v", err)
	}
	reply := decrypt.Decrypt(replyCipher)
	if reply[1] != socks5.RepGeneralFailure {
		t.Fatalf("reply REP = 0x%02x, want general failure", reply[1])
	}

	if err := <-done; err == nil {
		t.Fatalf("expected Request to reject a non-CONNECT command")
	}
}

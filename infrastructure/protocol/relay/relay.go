// Package relay implements spec.md §4.4.4: the bidirectional relay fiber
// pair that moves bytes between a tunnel's two endpoints once AES
// negotiation (and, on the decryption side, authentication and SOCKS5
// setup) has completed. Fiber joining uses golang.org/x/sync/errgroup,
// the same mechanism the teacher's server routing layer uses to join its
// per-connection goroutines.
package relay

import (
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/y5a9f2y/proxy/application"
	"github.com/y5a9f2y/proxy/infrastructure/tunnel"
)

// ChunkSize is the relay's read buffer size (spec.md §4.4.4).
const ChunkSize = 128 * 1024

// CipherMode selects what a relay direction does to each chunk before
// it is written to the destination.
type CipherMode int

const (
	// PassEncrypt encrypts the chunk read from the source with aes_ctx
	// before writing it to the destination (the local outbound cipher).
	PassEncrypt CipherMode = iota
	// PassDecrypt decrypts the chunk read from the source with
	// aes_ctx_peer before writing it to the destination.
	PassDecrypt
	// PassThrough writes the chunk unmodified (transmission mode).
	PassThrough
)

// Run drives both relay fibers to completion and returns once both have
// joined, as spec.md §4.4.4 requires before the state-machine completion
// event fires. ep0ToEp1 and ep1ToEp0 select each direction's cipher
// treatment; recorder receives the byte count written in each direction.
func Run(ctx context.Context, t *tunnel.Tunnel, recorder application.TrafficRecorder, ep0ToEp1, ep1ToEp0 CipherMode) error {
	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error {
		return pump(t, tunnel.EP0, tunnel.EP1, ep0ToEp1, recorder.AddUp)
	})
	g.Go(func() error {
		return pump(t, tunnel.EP1, tunnel.EP0, ep1ToEp0, recorder.AddDown)
	})

	return g.Wait()
}

func socketFor(t *tunnel.Tunnel, ep tunnel.Endpoint) application.Socket {
	if ep == tunnel.EP0 {
		return t.EP0
	}
	return t.EP1
}

// pump copies from src to dst until src returns EOF (clean end of this
// direction, spec.md's TRANSMIT_OK) or an error (TRANSMIT_FAIL).
func pump(t *tunnel.Tunnel, srcEP, dstEP tunnel.Endpoint, mode CipherMode, record func(int)) error {
	src := socketFor(t, srcEP)
	dst := socketFor(t, dstEP)

	buf := make([]byte, ChunkSize)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			t.Touch()
			chunk := buf[:n]

			var out []byte
			switch mode {
			case PassEncrypt:
				out = t.AESCtx.Encrypt(chunk)
			case PassDecrypt:
				out = t.AESCtxPeer.Decrypt(chunk)
			default:
				out = chunk
			}

			if werr := writeAll(dst, out); werr != nil {
				return fmt.Errorf("relay: write: %w", werr)
			}
			t.Touch()
			record(len(out))
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("relay: read: %w", err)
		}
	}
}

func writeAll(dst application.Socket, p []byte) error {
	for len(p) > 0 {
		n, err := dst.Write(p)
		if err != nil {
			return err
		}
		p = p[n:]
	}
	return nil
}

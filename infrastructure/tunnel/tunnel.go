// Package tunnel implements the central entity of the design: the Tunnel
// connecting two endpoints through the encrypted relay (spec.md §3).
package tunnel

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/y5a9f2y/proxy/application"
	"github.com/y5a9f2y/proxy/domain/tunnelstate"
	"github.com/y5a9f2y/proxy/infrastructure/cryptoprim"
)

// Tunnel is the two-endpoint connection object driven through a per-mode
// state machine (spec.md §3). ep1 may be nil until the outbound connect
// succeeds. Field access beyond State()/Touch()/Ktime() is expected to
// happen only from the single goroutine driving this tunnel's flow, with
// the exception of the relay phase's two fibers, each of which only ever
// touches its own direction's cipher context (spec.md §5).
type Tunnel struct {
	ID uint64

	EP0 application.Socket
	EP1 application.Socket

	state atomic.Int32 // tunnelstate.State, accessed via State()/SetState()

	Mtime time.Time
	ktime atomic.Int64 // unix nano, updated on every byte moved

	// RSAPub is the peer's RSA public PEM, learned during negotiation.
	RSAPub string

	// AESKey/AESIV/AESCtx are the local outbound (encrypt) cipher.
	AESKey [32]byte
	AESIV  [16]byte
	AESCtx *cryptoprim.CipherCtx

	// AESKeyPeer/AESIVPeer/AESCtxPeer decrypt traffic received from the
	// peer. Decrypt helpers must not be called before this is set
	// (spec.md §3 invariant).
	AESKeyPeer [32]byte
	AESIVPeer  [16]byte
	AESCtxPeer *cryptoprim.CipherCtx

	closeOnce sync.Once
}

// New creates a Tunnel in the READY state with its creation/idle
// timestamps set to now.
func New(id uint64, ep0 application.Socket) *Tunnel {
	t := &Tunnel{
		ID:    id,
		EP0:   ep0,
		Mtime: time.Now(),
	}
	t.state.Store(int32(tunnelstate.Ready))
	t.ktime.Store(time.Now().UnixNano())
	return t
}

// State returns the tunnel's current state-machine state.
func (t *Tunnel) State() tunnelstate.State {
	return tunnelstate.State(t.state.Load())
}

// SetState is called only by the state machine dispatcher after a
// successful table lookup.
func (t *Tunnel) SetState(s tunnelstate.State) {
	t.state.Store(int32(s))
}

// Touch records I/O activity now. Called after every successful
// underlying read or write of the tunnel's exact-read/exact-write helpers
// (through touchN) and by the relay pump for each chunk (spec.md §3).
func (t *Tunnel) Touch() {
	t.ktime.Store(time.Now().UnixNano())
}

// Ktime returns the last-I/O timestamp.
func (t *Tunnel) Ktime() time.Time {
	return time.Unix(0, t.ktime.Load())
}

// IdleFor reports how long the tunnel has had no I/O activity.
func (t *Tunnel) IdleFor(now time.Time) time.Duration {
	return now.Sub(t.Ktime())
}

// Close closes both endpoints exactly once. Eviction of a live tunnel
// (idle GC) and normal teardown both route through here, which unblocks
// any relay fiber blocked in a read/write on either socket (spec.md §4.6).
func (t *Tunnel) Close() {
	t.closeOnce.Do(func() {
		if t.EP0 != nil {
			_ = t.EP0.Close()
		}
		if t.EP1 != nil {
			_ = t.EP1.Close()
		}
	})
}

// ReadyForRelay reports whether both cipher contexts exist, the
// precondition spec.md §3 requires before decrypt helpers may be called.
func (t *Tunnel) ReadyForRelay() bool {
	return t.AESCtx != nil && t.AESCtxPeer != nil
}

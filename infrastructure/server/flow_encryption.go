package server

import (
	"context"
	"fmt"
	"net"

	"github.com/y5a9f2y/proxy/application"
	"github.com/y5a9f2y/proxy/domain/tunnelstate"
	"github.com/y5a9f2y/proxy/infrastructure/netsocket"
	"github.com/y5a9f2y/proxy/infrastructure/protocol/aesexchange"
	"github.com/y5a9f2y/proxy/infrastructure/protocol/auth"
	"github.com/y5a9f2y/proxy/infrastructure/protocol/relay"
	"github.com/y5a9f2y/proxy/infrastructure/protocol/rsaexchange"
	"github.com/y5a9f2y/proxy/infrastructure/statemachine"
	"github.com/y5a9f2y/proxy/infrastructure/tunnel"
)

// runEncryption drives one client connection through the encryption
// node's chain (spec.md §4.3 Encryption mode): dial the decryption peer,
// negotiate RSA/AES, send credentials, relay.
func (s *Server) runEncryption(ctx context.Context, id uint64, ep0 application.Socket) error {
	t := tunnel.New(id, ep0)
	s.Registry.Add(t)
	defer func() {
		t.Close()
		s.Registry.Remove(id)
	}()

	sm := statemachine.New(tunnelstate.EncryptionTable, t.State, t.SetState, s.Logger, fmt.Sprintf("tunnel#%d", id))
	sm.SwitchState(tunnelstate.Establish)

	remoteAddr := fmt.Sprintf("%s:%d", s.Config.RemoteHost, s.Config.RemotePort)
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp4", remoteAddr)
	if err != nil {
		sm.SwitchState(tunnelstate.RSANegotiatingFail)
		return fmt.Errorf("dial peer %s: %w", remoteAddr, err)
	}
	t.EP1 = netsocket.New(conn)

	if err := rsaexchange.RequestFromPeer(t); err != nil {
		sm.SwitchState(tunnelstate.RSANegotiatingFail)
		return err
	}
	sm.SwitchState(tunnelstate.RSAPubkeyReceive)

	if err := aesexchange.Send(t); err != nil {
		sm.SwitchState(tunnelstate.AESNegotiatingFail)
		return err
	}
	sm.SwitchState(tunnelstate.AESKeySend)

	// The wire protocol has no explicit auth acknowledgement (spec.md
	// §4.4.3 only describes the encryption side's send); a credential
	// mismatch surfaces as the decryption side closing the tunnel, which
	// the relay phase observes as TRANSMIT_FAIL.
	if err := auth.Send(t, s.Config.AuthUsername, s.Config.AuthPassword); err != nil {
		sm.SwitchState(tunnelstate.AuthFail)
		return err
	}
	sm.SwitchState(tunnelstate.AuthOK)

	if err := relay.Run(ctx, t, s.Stats, relay.PassEncrypt, relay.PassDecrypt); err != nil {
		sm.SwitchState(tunnelstate.TransmitFail)
		return err
	}
	sm.SwitchState(tunnelstate.TransmitOK)
	return nil
}

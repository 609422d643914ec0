package server

import (
	"context"
	"fmt"
	"net"

	"github.com/y5a9f2y/proxy/application"
	"github.com/y5a9f2y/proxy/domain/tunnelstate"
	"github.com/y5a9f2y/proxy/infrastructure/protocol/aesexchange"
	"github.com/y5a9f2y/proxy/infrastructure/protocol/auth"
	"github.com/y5a9f2y/proxy/infrastructure/protocol/relay"
	"github.com/y5a9f2y/proxy/infrastructure/protocol/rsaexchange"
	"github.com/y5a9f2y/proxy/infrastructure/socksdialogue"
	"github.com/y5a9f2y/proxy/infrastructure/statemachine"
	"github.com/y5a9f2y/proxy/infrastructure/tunnel"
)

// runDecryption drives one peer connection through the decryption
// node's chain (spec.md §4.3 Decryption mode): serve RSA/AES
// negotiation, verify credentials, run the SOCKS5 dialogue against the
// decrypted stream, dial the real destination, relay.
func (s *Server) runDecryption(ctx context.Context, id uint64, ep0 application.Socket) error {
	t := tunnel.New(id, ep0)
	s.Registry.Add(t)
	defer func() {
		t.Close()
		s.Registry.Remove(id)
	}()

	sm := statemachine.New(tunnelstate.DecryptionTable, t.State, t.SetState, s.Logger, fmt.Sprintf("tunnel#%d", id))
	sm.SwitchState(tunnelstate.Establish)

	if err := rsaexchange.ServeRequest(t, s.RSAKeys.PublicPEM); err != nil {
		sm.SwitchState(tunnelstate.RSANegotiatingFail)
		return err
	}
	sm.SwitchState(tunnelstate.RSAPubkeySend)

	if err := aesexchange.Receive(t, s.RSAKeys); err != nil {
		sm.SwitchState(tunnelstate.AESNegotiatingFail)
		return err
	}
	sm.SwitchState(tunnelstate.AESKeyReceive)

	if err := auth.Verify(t, s.Config.AuthUsername, s.Config.AuthPassword); err != nil {
		sm.SwitchState(tunnelstate.AuthFail)
		return err
	}
	sm.SwitchState(tunnelstate.AuthOK)

	if err := socksdialogue.Handshake(t); err != nil {
		sm.SwitchState(tunnelstate.SOCKS5HandshakeFail)
		return err
	}
	sm.SwitchState(tunnelstate.SOCKS5HandshakeOK)

	dial := func(ctx context.Context, network, address string) (net.Conn, error) {
		var d net.Dialer
		return d.DialContext(ctx, network, address)
	}
	if err := socksdialogue.Request(ctx, t, s.Resolver, dial); err != nil {
		sm.SwitchState(tunnelstate.SOCKS5RequestFail)
		return err
	}
	sm.SwitchState(tunnelstate.SOCKS5RequestOK)

	if err := relay.Run(ctx, t, s.Stats, relay.PassDecrypt, relay.PassEncrypt); err != nil {
		sm.SwitchState(tunnelstate.TransmitFail)
		return err
	}
	sm.SwitchState(tunnelstate.TransmitOK)
	return nil
}

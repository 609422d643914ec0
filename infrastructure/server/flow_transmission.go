package server

import (
	"context"
	"fmt"
	"net"

	"github.com/y5a9f2y/proxy/application"
	"github.com/y5a9f2y/proxy/domain/tunnelstate"
	"github.com/y5a9f2y/proxy/infrastructure/netsocket"
	"github.com/y5a9f2y/proxy/infrastructure/protocol/relay"
	"github.com/y5a9f2y/proxy/infrastructure/statemachine"
	"github.com/y5a9f2y/proxy/infrastructure/tunnel"
)

// runTransmission drives one connection through the transmission node's
// chain (spec.md §4.3 Transmission mode): dial the fixed remote, relay
// bytes with no cryptography at all.
func (s *Server) runTransmission(ctx context.Context, id uint64, ep0 application.Socket) error {
	t := tunnel.New(id, ep0)
	s.Registry.Add(t)
	defer func() {
		t.Close()
		s.Registry.Remove(id)
	}()

	sm := statemachine.New(tunnelstate.TransmissionTable, t.State, t.SetState, s.Logger, fmt.Sprintf("tunnel#%d", id))
	sm.SwitchState(tunnelstate.Establish)

	remoteAddr := fmt.Sprintf("%s:%d", s.Config.RemoteHost, s.Config.RemotePort)
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp4", remoteAddr)
	if err != nil {
		sm.SwitchState(tunnelstate.TransmitFail)
		return fmt.Errorf("dial remote %s: %w", remoteAddr, err)
	}
	t.EP1 = netsocket.New(conn)

	if err := relay.Run(ctx, t, s.Stats, relay.PassThrough, relay.PassThrough); err != nil {
		sm.SwitchState(tunnelstate.TransmitFail)
		return err
	}
	sm.SwitchState(tunnelstate.TransmitOK)
	return nil
}

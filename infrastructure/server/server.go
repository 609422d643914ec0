// Package server implements spec.md §4.6: the accept loop, per-mode
// driver dispatch, idle-GC, and statistics loop, tying together every
// lower layer (tunnel, state machine, protocol phases, SOCKS5 dialogue,
// registry, telemetry).
package server

import (
	"context"
	"net"
	"sync/atomic"

	"github.com/y5a9f2y/proxy/application"
	"github.com/y5a9f2y/proxy/domain/mode"
	"github.com/y5a9f2y/proxy/infrastructure/config"
	"github.com/y5a9f2y/proxy/infrastructure/cryptoprim"
	"github.com/y5a9f2y/proxy/infrastructure/netsocket"
	"github.com/y5a9f2y/proxy/infrastructure/registry"
	"github.com/y5a9f2y/proxy/infrastructure/telemetry"
)

// Server holds everything a driver fiber needs: configuration, the
// optional decryption-mode RSA keypair, the tunnel registry, and the
// traffic counters (spec.md §3).
type Server struct {
	Config   *config.Config
	Logger   application.Logger
	Registry *registry.Registry
	Stats    *telemetry.Collector
	Resolver application.Resolver

	// RSAKeys is populated only in decryption mode (spec.md §3: "optional
	// RSA keypair (decryption-mode only)").
	RSAKeys *cryptoprim.RSAKeyPair

	nextID atomic.Uint64
}

// New builds a Server from cfg. RSAKeys must be non-nil when
// cfg.Mode == mode.Decryption.
func New(cfg *config.Config, logger application.Logger, rsaKeys *cryptoprim.RSAKeyPair, resolver application.Resolver) *Server {
	return &Server{
		Config:   cfg,
		Logger:   logger,
		Registry: registry.New(logger, cfg.MaxIdleTime),
		Stats:    telemetry.NewCollector(logger, cfg.StatisticInterval),
		Resolver: resolver,
		RSAKeys:  rsaKeys,
	}
}

// Serve runs the accept loop on ln until ctx is cancelled, spawning one
// driver fiber per accepted connection (spec.md §4.6). It also starts
// the idle-reaper and statistics background loops and blocks until ctx
// is done and the listener is closed.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go s.Registry.RunIdleReaperLoop(ctx, s.Config.StatisticInterval)
	go s.Stats.Run(ctx)

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			s.Logger.Printf("server: accept error: %v", err)
			continue
		}
		go s.drive(ctx, conn)
	}
}

// drive dispatches an accepted connection to its mode's flow. The
// tunnel reference is dropped (and both sockets closed) when the flow
// returns, per spec.md §4.6.
func (s *Server) drive(ctx context.Context, conn net.Conn) {
	sock := netsocket.New(conn)
	id := s.nextID.Add(1)

	var err error
	switch s.Config.Mode {
	case mode.Encryption:
		err = s.runEncryption(ctx, id, sock)
	case mode.Decryption:
		err = s.runDecryption(ctx, id, sock)
	case mode.Transmission:
		err = s.runTransmission(ctx, id, sock)
	default:
		sock.Close()
		return
	}
	if err != nil {
		s.Logger.Printf("server: tunnel#%d: %v", id, err)
	}
}

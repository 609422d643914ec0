// Package netsocket wraps net.Conn with the remembered host:port and
// idempotent Close spec.md §3 requires of a Socket.
package netsocket

import (
	"net"
	"sync"

	"github.com/y5a9f2y/proxy/application"
)

// Socket adapts a net.Conn to application.Socket. Ownership: a Socket is
// created once per accepted/connected connection and handed to exactly
// one Tunnel endpoint (spec.md §3) or to the listener.
type Socket struct {
	conn     net.Conn
	hostPort string

	closeOnce sync.Once
	closeErr  error
}

// New wraps conn, remembering its remote address as host:port.
func New(conn net.Conn) *Socket {
	return &Socket{conn: conn, hostPort: conn.RemoteAddr().String()}
}

func (s *Socket) Read(b []byte) (int, error)  { return s.conn.Read(b) }
func (s *Socket) Write(b []byte) (int, error) { return s.conn.Write(b) }

// Close is idempotent: the underlying conn is closed at most once no
// matter how many times Close is called, satisfying spec.md §3's
// "Close is idempotent and happens at destruction or explicit close".
func (s *Socket) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}

func (s *Socket) RemoteHostPort() string { return s.hostPort }

var _ application.Socket = (*Socket)(nil)

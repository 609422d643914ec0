//go:build !linux

package listener

import (
	"fmt"
	"net"
)

// Listen falls back to net.Listen on non-Linux platforms. backlog is
// best-effort here: the standard library does not expose listen(2)'s
// backlog argument outside of Linux's raw-socket path.
func Listen(host string, port int, backlog int) (net.Listener, error) {
	l, err := net.Listen("tcp4", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return nil, fmt.Errorf("listener: listen %s:%d: %w", host, port, err)
	}
	return l, nil
}

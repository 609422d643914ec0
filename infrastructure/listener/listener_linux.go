//go:build linux

// Package listener builds the proxy's single listening socket, honoring
// the spec's listen_backlog knob (spec.md §6) that net.Listen cannot
// express — Go's net package never exposes the backlog argument of
// listen(2). On Linux this is built from a raw socket/bind/listen
// sequence via golang.org/x/sys/unix, the same low-level socket package
// the teacher imports (there for TUN device ioctls, here for listen
// backlog), then wrapped with net.FileListener so callers see a normal
// net.Listener.
package listener

import (
	"fmt"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// Listen opens a TCPv4 listener on host:port with the given backlog and
// SO_REUSEADDR set (SPEC_FULL.md §3, adapted from the original's
// socket.cc).
func Listen(host string, port int, backlog int) (net.Listener, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, fmt.Errorf("listener: socket: %w", err)
	}

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("listener: setsockopt SO_REUSEADDR: %w", err)
	}

	ip, err := resolveIPv4(host)
	if err != nil {
		unix.Close(fd)
		return nil, err
	}

	addr := unix.SockaddrInet4{Port: port}
	copy(addr.Addr[:], ip)
	if err := unix.Bind(fd, &addr); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("listener: bind %s:%d: %w", host, port, err)
	}

	if backlog <= 0 {
		backlog = 128
	}
	if err := unix.Listen(fd, backlog); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("listener: listen backlog=%d: %w", backlog, err)
	}

	// os.NewFile does not dup fd; net.FileListener does, internally, so
	// f must be closed here regardless of outcome.
	f := os.NewFile(uintptr(fd), fmt.Sprintf("proxy-listener-%s:%d", host, port))
	l, err := net.FileListener(f)
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("listener: wrap fd: %w", err)
	}
	return l, nil
}

func resolveIPv4(host string) ([4]byte, error) {
	var out [4]byte
	if host == "" {
		return out, nil // INADDR_ANY
	}
	ip := net.ParseIP(host)
	if ip == nil {
		resolved, err := net.ResolveIPAddr("ip4", host)
		if err != nil {
			return out, fmt.Errorf("listener: resolve %s: %w", host, err)
		}
		ip = resolved.IP
	}
	ip4 := ip.To4()
	if ip4 == nil {
		return out, fmt.Errorf("listener: %s is not an IPv4 address", host)
	}
	copy(out[:], ip4)
	return out, nil
}

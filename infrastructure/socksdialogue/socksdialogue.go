// Package socksdialogue implements spec.md §4.5: the SOCKS5 method
// negotiation and CONNECT-only request/reply, run by the decryption
// node against the client's decrypted byte stream on ep0. Every read
// from ep0 is decrypted via the tunnel's aes_ctx_peer; every write is
// encrypted before transmission.
package socksdialogue

import (
	"context"
	"encoding/binary"
	"fmt"
	"net"

	"github.com/y5a9f2y/proxy/application"
	"github.com/y5a9f2y/proxy/domain/socks5"
	"github.com/y5a9f2y/proxy/infrastructure/netsocket"
	"github.com/y5a9f2y/proxy/infrastructure/tunnel"
)

// Dialer opens the TCP connection to the resolved destination. Production
// wiring passes net.Dialer.DialContext; tests supply a stub.
type Dialer func(ctx context.Context, network, address string) (net.Conn, error)

// Handshake performs method negotiation. The server selects no-auth
// (0x00) if offered, otherwise replies 0xFF and fails.
func Handshake(t *tunnel.Tunnel) error {
	ver, err := t.ReadByteDecrypted(tunnel.EP0)
	if err != nil {
		return fmt.Errorf("socksdialogue: read version: %w", err)
	}
	if ver != socks5.Version {
		return fmt.Errorf("socksdialogue: unsupported version 0x%02x", ver)
	}

	nmethods, err := t.ReadByteDecrypted(tunnel.EP0)
	if err != nil {
		return fmt.Errorf("socksdialogue: read nmethods: %w", err)
	}
	var methods []byte
	if nmethods > 0 {
		methods, err = t.ReadDecryptedN(tunnel.EP0, int(nmethods))
		if err != nil {
			return fmt.Errorf("socksdialogue: read methods: %w", err)
		}
	}

	offered := false
	for _, m := range methods {
		if m == socks5.MethodNoAuth {
			offered = true
			break
		}
	}
	if !offered {
		_ = t.WriteEncrypted(tunnel.EP0, []byte{socks5.Version, socks5.MethodNoAcceptable})
		return fmt.Errorf("socksdialogue: client did not offer no-auth method")
	}

	if err := t.WriteEncrypted(tunnel.EP0, []byte{socks5.Version, socks5.MethodNoAuth}); err != nil {
		return fmt.Errorf("socksdialogue: send method reply: %w", err)
	}
	return nil
}

// Request reads the CONNECT request, dials the resolved destination, and
// attaches the resulting socket as the tunnel's ep1. On success it sends
// the success reply carrying ep1's local host:port. A non-CONNECT command
// (checked right after the four header bytes, before the address is
// read), an unsupported or unreadable address, an unreadable port, or a
// dial failure gets a general-failure reply (spec.md §4.5: "the design
// does not require the distinct REP codes"); a wrong version byte or a
// failed read of the header bytes returns an error without any reply.
func Request(ctx context.Context, t *tunnel.Tunnel, resolver application.Resolver, dial Dialer) error {
	ver, err := t.ReadByteDecrypted(tunnel.EP0)
	if err != nil {
		return fmt.Errorf("socksdialogue: read request version: %w", err)
	}
	if ver != socks5.Version {
		return fmt.Errorf("socksdialogue: unsupported request version 0x%02x", ver)
	}

	cmd, err := t.ReadByteDecrypted(tunnel.EP0)
	if err != nil {
		return fmt.Errorf("socksdialogue: read cmd: %w", err)
	}

	_, err = t.ReadByteDecrypted(tunnel.EP0) // RSV, always 0x00
	if err != nil {
		return fmt.Errorf("socksdialogue: read rsv: %w", err)
	}

	atyp, err := t.ReadByteDecrypted(tunnel.EP0)
	if err != nil {
		return fmt.Errorf("socksdialogue: read atyp: %w", err)
	}

	if cmd != socks5.CmdConnect {
		sendFailureReply(t)
		return fmt.Errorf("socksdialogue: unsupported command 0x%02x", cmd)
	}

	host, err := readDestAddr(ctx, t, atyp, resolver)
	if err != nil {
		sendFailureReply(t)
		return err
	}

	portBytes, err := t.ReadDecryptedN(tunnel.EP0, 2)
	if err != nil {
		sendFailureReply(t)
		return fmt.Errorf("socksdialogue: read port: %w", err)
	}
	port := binary.BigEndian.Uint16(portBytes)

	if cmd != socks5.CmdConnect {
		sendFailureReply(t)
		return fmt.Errorf("socksdialogue: unsupported command 0x%02x", cmd)
	}

	address := net.JoinHostPort(host, fmt.Sprintf("%d", port))
	conn, err := dial(ctx, "tcp4", address)
	if err != nil {
		sendFailureReply(t)
		return fmt.Errorf("socksdialogue: dial %s: %w", address, err)
	}

	t.EP1 = netsocket.New(conn)

	bndAddr, bndPort := localBound(conn)
	reply := make([]byte, 0, 10)
	reply = append(reply, socks5.Version, socks5.RepSucceeded, 0x00, socks5.ATYPIPv4)
	reply = append(reply, bndAddr[:]...)
	portBuf := make([]byte, 2)
	binary.BigEndian.PutUint16(portBuf, bndPort)
	reply = append(reply, portBuf...)

	if err := t.WriteEncrypted(tunnel.EP0, reply); err != nil {
		return fmt.Errorf("socksdialogue: send success reply: %w", err)
	}
	return nil
}

func sendFailureReply(t *tunnel.Tunnel) {
	_ = t.WriteEncrypted(tunnel.EP0, []byte{socks5.Version, socks5.RepGeneralFailure, 0x00, socks5.ATYPIPv4, 0, 0, 0, 0, 0, 0})
}

func readDestAddr(ctx context.Context, t *tunnel.Tunnel, atyp byte, resolver application.Resolver) (string, error) {
	switch atyp {
	case socks5.ATYPIPv4:
		raw, err := t.ReadDecryptedN(tunnel.EP0, 4)
		if err != nil {
			return "", fmt.Errorf("socksdialogue: read ipv4 addr: %w", err)
		}
		return net.IPv4(raw[0], raw[1], raw[2], raw[3]).String(), nil
	case socks5.ATYPDomain:
		length, err := t.ReadByteDecrypted(tunnel.EP0)
		if err != nil {
			return "", fmt.Errorf("socksdialogue: read domain length: %w", err)
		}
		name, err := t.ReadStringDecrypted(tunnel.EP0, int(length))
		if err != nil {
			return "", fmt.Errorf("socksdialogue: read domain name: %w", err)
		}
		ip, err := resolver.ResolveIPv4(ctx, name)
		if err != nil {
			return "", fmt.Errorf("socksdialogue: resolve %s: %w", name, err)
		}
		return net.IPv4(ip[0], ip[1], ip[2], ip[3]).String(), nil
	case socks5.ATYPIPv6:
		return "", fmt.Errorf("socksdialogue: IPv6 destinations are unsupported")
	default:
		return "", fmt.Errorf("socksdialogue: unknown ATYP 0x%02x", atyp)
	}
}

// localBound extracts the 4-byte IPv4 address and port conn is bound to
// locally, used for the reply's BND.ADDR/BND.PORT (spec.md §4.5: "ep1
// host").
func localBound(conn net.Conn) ([4]byte, uint16) {
	var addr [4]byte
	addrPort, ok := conn.LocalAddr().(*net.TCPAddr)
	if !ok {
		return addr, 0
	}
	ip4 := addrPort.IP.To4()
	if ip4 == nil {
		return addr, uint16(addrPort.Port)
	}
	copy(addr[:], ip4)
	return addr, uint16(addrPort.Port)
}

// Package socks5 holds the wire constants for the CONNECT-only SOCKS5
// dialogue described in spec.md §4.5. UDP ASSOCIATE and BIND are out of
// scope (spec.md §1 Non-goals).
package socks5

const Version byte = 0x05

// Authentication methods (method-negotiation reply).
const (
	MethodNoAuth       byte = 0x00
	MethodNoAcceptable byte = 0xFF
)

// Commands. Only CmdConnect is honored; any other value fails the
// request (spec.md §4.5).
const (
	CmdConnect byte = 0x01
	CmdBind    byte = 0x02
	CmdUDP     byte = 0x03
)

// Address types.
const (
	ATYPIPv4   byte = 0x01
	ATYPDomain byte = 0x03
	ATYPIPv6   byte = 0x04
)

// Reply codes. The design does not require distinguishing failure causes
// (spec.md §4.5): RepGeneralFailure covers every non-success case.
const (
	RepSucceeded      byte = 0x00
	RepGeneralFailure byte = 0x01
)

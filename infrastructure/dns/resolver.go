// Package dns implements the black-box resolver spec.md §1 and §6
// deliberately put out of scope: "DNS resolution library (treated as a
// black-box resolve(name) -> IPv4 or failure)". A real third-party
// resolver library has nothing to ground itself on here — the spec
// names the standard resolution semantics the net package already gives
// us — see DESIGN.md for why this package, like several others in the
// tree, is built directly on the standard library.
package dns

import (
	"context"
	"fmt"
	"net"

	"github.com/y5a9f2y/proxy/application"
)

// Resolver looks up the first IPv4 address for a name via the host
// system's resolver. localHost is unused beyond documenting which
// interface's resolver configuration a future implementation bound to a
// specific UDP source address would need.
type Resolver struct {
	localHost string
}

// NewResolver builds a Resolver. localHost is currently informational
// only (see Resolver's doc comment).
func NewResolver(localHost string) *Resolver {
	return &Resolver{localHost: localHost}
}

var _ application.Resolver = (*Resolver)(nil)

// ResolveIPv4 returns the first IPv4 address for name, or an error if
// none exists (spec.md §4.5: "the server calls the external resolver to
// obtain one IPv4 address").
func (r *Resolver) ResolveIPv4(ctx context.Context, name string) ([4]byte, error) {
	var out [4]byte
	addrs, err := net.DefaultResolver.LookupIP(ctx, "ip4", name)
	if err != nil {
		return out, fmt.Errorf("dns: resolve %s: %w", name, err)
	}
	for _, addr := range addrs {
		if ip4 := addr.To4(); ip4 != nil {
			copy(out[:], ip4)
			return out, nil
		}
	}
	return out, fmt.Errorf("dns: no IPv4 address found for %s", name)
}

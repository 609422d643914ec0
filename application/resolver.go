package application

import "context"

// Resolver is the external DNS collaborator spec.md §1 and §6 treat as a
// black box: resolve(name) -> IPv4, or failure. No IPv6 destinations
// (spec.md §1 Non-goals).
type Resolver interface {
	ResolveIPv4(ctx context.Context, name string) ([4]byte, error)
}

// Package netguard decides whether an operator-supplied host is safe to
// contact. It is the SSRF defense for every outbound probe: loopback,
// link-local, multicast, reserved, and unspecified addresses are never
// legitimate remote camera hosts and are always blocked; private (RFC1918
// and ULA) ranges are blocked unless the operator opts in.
package netguard

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"syscall"
	"time"
)

// BlockedReason is the reason string attached to blocked probe results.
const BlockedReason = "target is blocked"

// ErrBlocked is returned from the dial path when the resolved address is
// not allowed. Callers use errors.Is to distinguish policy rejections
// from ordinary network failures.
var ErrBlocked = errors.New(BlockedReason)

// LookupFunc resolves a hostname to IP addresses. Injectable for tests.
type LookupFunc func(ctx context.Context, host string) ([]netip.Addr, error)

// Reserved IPv4/IPv6 ranges that are blocked in addition to the
// classifications net/netip already knows about.
var reservedPrefixes = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/8"),        // "this network"
	netip.MustParsePrefix("100.64.0.0/10"),    // CGNAT shared space
	netip.MustParsePrefix("192.0.0.0/24"),     // IETF protocol assignments
	netip.MustParsePrefix("192.0.2.0/24"),     // TEST-NET-1
	netip.MustParsePrefix("198.18.0.0/15"),    // benchmarking
	netip.MustParsePrefix("198.51.100.0/24"),  // TEST-NET-2
	netip.MustParsePrefix("203.0.113.0/24"),   // TEST-NET-3
	netip.MustParsePrefix("240.0.0.0/4"),      // class E
	netip.MustParsePrefix("2001:db8::/32"),    // IPv6 documentation
}

// Checker validates target addresses before outbound connections.
type Checker struct {
	allowPrivate bool
	lookup       LookupFunc
	timeout      time.Duration
}

// Option customizes a Checker.
type Option func(*Checker)

// WithLookup overrides DNS resolution (used by tests).
func WithLookup(fn LookupFunc) Option {
	return func(c *Checker) { c.lookup = fn }
}

// WithResolveTimeout bounds DNS resolution during validation.
func WithResolveTimeout(d time.Duration) Option {
	return func(c *Checker) { c.timeout = d }
}

// New creates a Checker. When allowPrivate is true the private-range
// check is skipped; every other classification remains blocked.
func New(allowPrivate bool, opts ...Option) *Checker {
	c := &Checker{
		allowPrivate: allowPrivate,
		timeout:      3 * time.Second,
		lookup: func(ctx context.Context, host string) ([]netip.Addr, error) {
			return net.DefaultResolver.LookupNetIP(ctx, "ip", host)
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// IsBlocked reports whether the host (IP literal or DNS name) must not
// be contacted.
func (c *Checker) IsBlocked(ctx context.Context, host string) bool {
	blocked, _ := c.Check(ctx, host)
	return blocked
}

// Check reports whether the host is blocked and why. DNS names are
// resolved here and every resolved address is validated; the result of
// the resolution is deliberately discarded afterwards -- the probe's
// dial path re-validates the address it actually connects to (see
// DialControl), so a DNS answer that changes between validation and
// connect is still caught.
func (c *Checker) Check(ctx context.Context, host string) (bool, string) {
	if host == "" {
		return true, "empty host"
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		return c.checkAddr(addr)
	}

	resolveCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	addrs, err := c.lookup(resolveCtx, host)
	if err != nil || len(addrs) == 0 {
		// Fail closed: an unresolvable target cannot be vetted.
		return true, fmt.Sprintf("cannot resolve %q", host)
	}
	for _, addr := range addrs {
		if blocked, reason := c.checkAddr(addr); blocked {
			return true, reason
		}
	}
	return false, ""
}

// checkAddr classifies a single IP address.
func (c *Checker) checkAddr(addr netip.Addr) (bool, string) {
	// Treat ::ffff:a.b.c.d as the IPv4 address it wraps.
	addr = addr.Unmap()

	switch {
	case addr.IsUnspecified():
		return true, "unspecified address"
	case addr.IsLoopback():
		return true, "loopback address"
	case addr.IsLinkLocalUnicast(), addr.IsLinkLocalMulticast():
		return true, "link-local address"
	case addr.IsInterfaceLocalMulticast(), addr.IsMulticast():
		return true, "multicast address"
	}

	for _, p := range reservedPrefixes {
		if p.Contains(addr) {
			return true, "reserved address"
		}
	}

	if !c.allowPrivate && addr.IsPrivate() {
		return true, "private address"
	}

	return false, ""
}

// DialControl is a net.Dialer Control hook that re-validates the address
// actually being dialed. The dialer hands us "ip:port", already resolved,
// so no DNS round trip happens here.
func (c *Checker) DialControl(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("netguard: malformed dial address %q: %w", address, err)
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return fmt.Errorf("netguard: non-IP dial address %q: %w", host, err)
	}
	if blocked, reason := c.checkAddr(addr); blocked {
		return fmt.Errorf("netguard: %w: %s", ErrBlocked, reason)
	}
	return nil
}

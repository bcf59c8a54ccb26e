package onramp

import (
	"net/netip"
	"strings"
)

var sharedAddressSpace = netip.MustParsePrefix("100.64.0.0/10")

// IsPrivateIP reports whether ip is unusable as a client address: unparsable,
// loopback, private, carrier-grade NAT or link-local.
func IsPrivateIP(ip string) bool {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return true
	}
	addr = addr.Unmap()
	return addr.IsLoopback() ||
		addr.IsPrivate() ||
		addr.IsLinkLocalUnicast() ||
		addr.IsUnspecified() ||
		sharedAddressSpace.Contains(addr)
}

// ClientIP picks the first public address among the preferred value, the
// first X-Forwarded-For hop, CF-Connecting-IP and the configured override.
// It returns "" when none qualifies.
func ClientIP(preferred, forwardedFor, cfConnectingIP, override string) string {
	first, _, _ := strings.Cut(forwardedFor, ",")
	for _, candidate := range []string{preferred, first, cfConnectingIP, override} {
		candidate = strings.TrimSpace(candidate)
		if candidate != "" && !IsPrivateIP(candidate) {
			return candidate
		}
	}
	return ""
}

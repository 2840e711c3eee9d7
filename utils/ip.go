package utils

import "net"

// NormalizeIP canonicalizes a client address for comparison: IPv4-mapped IPv6
// addresses (::ffff:1.2.3.4) collapse to their dotted-quad form so a token
// issued over one representation validates over the other. Unparseable input
// is returned unchanged.
func NormalizeIP(addr string) string {
	ip := net.ParseIP(addr)
	if ip == nil {
		return addr
	}
	if v4 := ip.To4(); v4 != nil {
		return v4.String()
	}
	return ip.String()
}

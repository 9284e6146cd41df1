package httpclient

import (
	"net"
	"strings"
)

var privateBlocks = []*net.IPNet{
	mustCIDR("10.0.0.0/8"),     // RFC 1918
	mustCIDR("172.16.0.0/12"),  // RFC 1918
	mustCIDR("192.168.0.0/16"), // RFC 1918
	mustCIDR("127.0.0.0/8"),    // loopback
	mustCIDR("169.254.0.0/16"), // link-local
	mustCIDR("100.64.0.0/10"),  // carrier-grade NAT
	mustCIDR("0.0.0.0/8"),
	mustCIDR("224.0.0.0/4"), // multicast
	mustCIDR("240.0.0.0/4"), // reserved
	mustCIDR("fc00::/7"),    // unique local
	mustCIDR("fec0::/10"),   // site-local (deprecated)
	mustCIDR("2001:db8::/32"),
}

func mustCIDR(s string) *net.IPNet {
	_, block, err := net.ParseCIDR(s)
	if err != nil {
		panic(err)
	}
	return block
}

// isPrivateIP checks if an IP is in private/special use ranges
func isPrivateIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsMulticast() || ip.IsUnspecified() {
		return true
	}
	// IPv4-mapped addresses are checked as IPv4
	if ip4 := ip.To4(); ip4 != nil {
		ip = ip4
	}
	for _, block := range privateBlocks {
		if block.Contains(ip) {
			return true
		}
	}
	return false
}

// isLocalhost checks for localhost variants
func isLocalhost(hostname string) bool {
	hostname = strings.ToLower(hostname)
	return hostname == "localhost" ||
		hostname == "localhost.localdomain" ||
		strings.HasSuffix(hostname, ".localhost")
}

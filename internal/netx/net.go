// Package netx holds small network helpers shared by the HTTP layer and the
// session builder.
package netx

import (
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/dmitrijs2005/registrar/internal/common"
)

// EnsureIPIsValid checks that ip is a syntactically valid IPv4 or IPv6
// address and returns its canonical form. Zone identifiers are rejected.
func EnsureIPIsValid(ip string) (string, error) {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil || addr.Zone() != "" {
		return "", common.ValidationError("ip", "not a valid IP address")
	}
	return addr.Unmap().String(), nil
}

// IsPublicIP reports whether ip is worth sending to a geolocation service.
func IsPublicIP(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	return !(addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast() ||
		addr.IsUnspecified() || addr.IsMulticast())
}

// ClientIP returns the host part of r.RemoteAddr. Behind a trusted proxy the
// router installs chi's RealIP, which rewrites RemoteAddr first.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

package dbcapabilities

import (
	"net"
	"regexp"
	"strconv"
	"strings"
)

// DefaultHost is used when a configuration names no host at all.
const DefaultHost = "localhost"

var (
	ipv4HostPattern    = regexp.MustCompile(`^((25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)(:(.+))?$`)
	ipv6BracketPattern = regexp.MustCompile(`^(\[.*\])(:(.+))?$`)
	hostnamePattern    = regexp.MustCompile(`(?i)^((\w+:/{2,3})?[a-z0-9.\-]+)(:([^:]+))?$`)
	barePortPattern    = regexp.MustCompile(`^:([^:]+)$`)
)

// HostSpec is the result of parsing a host string: the host part and the raw
// port token that followed it, if any.
type HostSpec struct {
	Host      string
	PortToken string
}

// Endpoint is a resolved network location. Exactly one of Port and Socket is set.
type Endpoint struct {
	Host   string
	Port   int
	Socket string
}

// ParseHost splits a host string into host and port token. Forms are tried in
// order and the first match wins:
//
//	127.0.0.1[:port]          dotted-quad IPv4
//	[::1][:port]              bracketed IPv6 literal
//	[scheme://]host[:port]    hostname, scheme optional
//	:port                     host defaults to localhost
//	anything else             naked IPv6, no port token
//
// The port token may be a TCP port or a socket path.
func ParseHost(host string) HostSpec {
	host = strings.TrimSpace(host)
	if host == "" {
		return HostSpec{Host: DefaultHost}
	}

	if ipv4HostPattern.MatchString(host) {
		parts := strings.SplitN(host, ":", 2)
		spec := HostSpec{Host: parts[0]}
		if len(parts) == 2 {
			spec.PortToken = parts[1]
		}
		return spec
	}

	if m := ipv6BracketPattern.FindStringSubmatch(host); m != nil {
		return HostSpec{Host: m[1], PortToken: m[3]}
	}

	if m := hostnamePattern.FindStringSubmatch(host); m != nil {
		return HostSpec{Host: m[1], PortToken: m[4]}
	}

	if m := barePortPattern.FindStringSubmatch(host); m != nil {
		return HostSpec{Host: DefaultHost, PortToken: m[1]}
	}

	return HostSpec{Host: host}
}

// ResolveEndpoint parses host and decides between TCP port and socket. The port
// token embedded in host wins, then the configured port, then the configured
// socket, then defaultPort. A numeric token becomes the port, anything else the
// socket path.
func ResolveEndpoint(host string, port int, socket string, defaultPort int) Endpoint {
	spec := ParseHost(host)

	token := spec.PortToken
	if token == "" {
		switch {
		case port > 0:
			token = strconv.Itoa(port)
		case socket != "":
			token = socket
		default:
			token = strconv.Itoa(defaultPort)
		}
	}

	ep := Endpoint{Host: spec.Host}
	if n, err := strconv.Atoi(token); err == nil && n >= 0 {
		ep.Port = n
	} else {
		ep.Socket = token
	}
	return ep
}

// IsSocket reports whether the endpoint addresses a local socket.
func (e Endpoint) IsSocket() bool {
	return e.Socket != ""
}

// Address renders host:port suitable for net.Dial, bracketing IPv6 literals.
// Socket endpoints return the socket path.
func (e Endpoint) Address() string {
	if e.IsSocket() {
		return e.Socket
	}
	return net.JoinHostPort(e.BareHost(), strconv.Itoa(e.Port))
}

// BareHost returns the host without IPv6 brackets or a URL scheme.
func (e Endpoint) BareHost() string {
	h := e.Host
	if i := strings.Index(h, "://"); i >= 0 {
		h = h[i+3:]
	}
	return strings.TrimSuffix(strings.TrimPrefix(h, "["), "]")
}

// NormalizeHost converts localhost variants to a canonical form.
// It converts "localhost", "127.0.0.1", and "::1" to "localhost".
// All other hosts remain unchanged (no DNS resolution is performed).
func NormalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")

	if host == "localhost" {
		return "localhost"
	}

	ip := net.ParseIP(host)
	if ip != nil && ip.IsLoopback() {
		return "localhost"
	}

	return host
}

// IsLocalhostVariant checks if the given host is a localhost variant.
// This includes "localhost", "127.x.x.x", "::1" and "[::1]".
func IsLocalhostVariant(host string) bool {
	return NormalizeHost(host) == "localhost"
}

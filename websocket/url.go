package websocket

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

const (
	schemeWS  = "ws"
	schemeWSS = "wss"

	defaultPort     = 80
	defaultResource = "/"
)

// Endpoint is the parsed form of a ws:// URL.
type Endpoint struct {
	Scheme   string
	Host     string
	Port     int
	Resource string
}

// Address returns host:port, suitable for dialing.
func (e Endpoint) Address() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// String reassembles the endpoint as a URL. The default port is omitted.
func (e Endpoint) String() string {
	return e.Scheme + "://" + e.hostHeader() + e.Resource
}

// hostHeader returns the host, with the port appended unless it is the
// default port.
func (e Endpoint) hostHeader() string {
	if e.Port == defaultPort {
		if e.isIPv6() {
			return "[" + e.Host + "]"
		}
		return e.Host
	}
	return e.Address()
}

// isIPv6 reports whether the host is an IPv6 literal.
func (e Endpoint) isIPv6() bool {
	return strings.Contains(e.Host, ":")
}

// ParseURL splits a URL of the form ws://host[:port][/resource] into its
// parts. The scheme and host are lower-cased; the resource is kept as is.
// The port defaults to 80 and the resource to "/". A query that directly
// follows the host is kept as part of the resource.
//
// wss:// URLs are recognised and rejected with ErrSecureUnsupported.
func ParseURL(raw string) (Endpoint, error) {
	idx := strings.Index(raw, "://")
	if idx == -1 {
		return Endpoint{}, ErrMissingDelimiter
	}

	scheme := strings.ToLower(raw[:idx])
	switch scheme {
	case schemeWS:
	case schemeWSS:
		return Endpoint{}, ErrSecureUnsupported
	default:
		return Endpoint{}, fmt.Errorf("%w: %q", ErrBadScheme, scheme)
	}

	rest := raw[idx+3:]

	hostPort, resource := rest, defaultResource
	if i := strings.IndexAny(rest, "/?"); i != -1 {
		hostPort, resource = rest[:i], rest[i:]
		if resource[0] == '?' {
			resource = "/" + resource
		}
	}

	host, portStr, err := splitHostPort(hostPort)
	if err != nil {
		return Endpoint{}, err
	}

	if host == "" {
		return Endpoint{}, ErrEmptyHost
	}

	port := defaultPort
	if portStr != nil {
		port, err = parsePort(*portStr)
		if err != nil {
			return Endpoint{}, err
		}
	}

	return Endpoint{
		Scheme:   scheme,
		Host:     strings.ToLower(host),
		Port:     port,
		Resource: resource,
	}, nil
}

// splitHostPort separates host and port. The port is nil when no ':' follows
// the host. IPv6 literals must be bracketed.
func splitHostPort(hostPort string) (string, *string, error) {
	if strings.HasPrefix(hostPort, "[") {
		end := strings.IndexByte(hostPort, ']')
		if end == -1 {
			return "", nil, fmt.Errorf("%w: missing ']' in %q", ErrBadHost, hostPort)
		}

		host, after := hostPort[1:end], hostPort[end+1:]
		if after == "" {
			return host, nil, nil
		}
		if after[0] != ':' {
			return "", nil, fmt.Errorf("%w %q", ErrBadPort, after)
		}

		port := after[1:]
		return host, &port, nil
	}

	i := strings.IndexByte(hostPort, ':')
	if i == -1 {
		return hostPort, nil, nil
	}

	port := hostPort[i+1:]
	return hostPort[:i], &port, nil
}

func parsePort(s string) (int, error) {
	port, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w %q: %w", ErrBadPort, s, err)
	}

	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("%w %q: out of range", ErrBadPort, s)
	}

	return port, nil
}

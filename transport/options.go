package transport

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

const defaultReadBufferSize = 4096

// Options configures the sockets opened by TCP.
type Options struct {
	// IPv6 dials over IPv6 only. The default is IPv4 only.
	IPv6 bool `yaml:"ipv6" mapstructure:"ipv6"`

	// DoNotRoute sets SO_DONTROUTE on the socket.
	DoNotRoute bool `yaml:"donotroute" mapstructure:"donotroute"`

	// KeepAlive enables TCP keep-alive probes.
	KeepAlive bool `yaml:"keepalive" mapstructure:"keepalive"`

	// NoDelay sets TCP_NODELAY to the given value. Nil leaves the
	// platform default untouched.
	NoDelay *bool `yaml:"nodelay" mapstructure:"nodelay"`

	// KeepAliveTimeout is the idle time before the first keep-alive probe.
	// A non-zero value implies KeepAlive.
	KeepAliveTimeout time.Duration `yaml:"keepalivetimeout" mapstructure:"keepalivetimeout"`

	// DialTimeout bounds resolving and connecting. Zero means no limit.
	DialTimeout time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout"`

	// Proxy is a proxy URL such as socks5://127.0.0.1:1080.
	Proxy string `yaml:"proxy" mapstructure:"proxy"`

	// ProxyFromEnvironment uses ALL_PROXY and NO_PROXY when Proxy is empty.
	ProxyFromEnvironment bool `yaml:"proxy_from_environment" mapstructure:"proxy_from_environment"`

	// ReadBufferSize is the size of the per-connection read buffer.
	ReadBufferSize int `yaml:"read_buffer_size" mapstructure:"read_buffer_size"`
}

// ParseOptions builds Options from the classic plugin option map. Keys are
// matched case-insensitively: ipv6, donotroute, keepalive, nodelay take
// "true" or "false"; keepalivetimeout takes whole seconds.
func ParseOptions(m map[string]string) (Options, error) {
	var o Options

	for k, v := range m {
		v = strings.TrimSpace(v)

		switch strings.ToLower(strings.TrimSpace(k)) {
		case "ipv6":
			o.IPv6 = parseBool(v)
		case "donotroute":
			o.DoNotRoute = parseBool(v)
		case "keepalive":
			o.KeepAlive = parseBool(v)
		case "nodelay":
			b := parseBool(v)
			o.NoDelay = &b
		case "keepalivetimeout":
			secs, err := strconv.Atoi(v)
			if err != nil || secs < 0 {
				return Options{}, fmt.Errorf("transport: bad keepalivetimeout %q", v)
			}
			o.KeepAliveTimeout = time.Duration(secs) * time.Second
		}
	}

	return o, nil
}

func parseBool(v string) bool {
	return strings.EqualFold(v, "true")
}

// LogValue implements slog.LogValuer.
func (o Options) LogValue() slog.Value {
	network := "ipv4"
	if o.IPv6 {
		network = "ipv6"
	}

	delay := "default"
	if o.NoDelay != nil {
		delay = strconv.FormatBool(!*o.NoDelay)
	}

	return slog.GroupValue(
		slog.String("network", network),
		slog.Bool("route", !o.DoNotRoute),
		slog.String("delay", delay),
		slog.Bool("keepalive", o.keepAliveEnabled()),
		slog.Duration("keepalive_timeout", o.KeepAliveTimeout),
	)
}

func (o Options) network() string {
	if o.IPv6 {
		return "tcp6"
	}
	return "tcp4"
}

func (o Options) keepAliveEnabled() bool {
	return o.KeepAlive || o.KeepAliveTimeout > 0
}

func (o Options) readBufferSize() int {
	if o.ReadBufferSize > 0 {
		return o.ReadBufferSize
	}
	return defaultReadBufferSize
}

// contextDialer returns the dialer used to reach the remote host, wrapping
// forward with a proxy when one is configured.
func (o Options) contextDialer(forward *net.Dialer) (proxy.ContextDialer, error) {
	var d proxy.Dialer = forward

	switch {
	case o.Proxy != "":
		u, err := url.Parse(o.Proxy)
		if err != nil {
			return nil, fmt.Errorf("transport: bad proxy url: %w", err)
		}

		d, err = proxy.FromURL(u, forward)
		if err != nil {
			return nil, fmt.Errorf("transport: bad proxy: %w", err)
		}
	case o.ProxyFromEnvironment:
		d = proxy.FromEnvironmentUsing(forward)
	}

	if cd, ok := d.(proxy.ContextDialer); ok {
		return cd, nil
	}

	return contextDialerFunc(func(_ context.Context, network, addr string) (net.Conn, error) {
		return d.Dial(network, addr)
	}), nil
}

type contextDialerFunc func(ctx context.Context, network, addr string) (net.Conn, error)

func (f contextDialerFunc) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	return f(ctx, network, addr)
}

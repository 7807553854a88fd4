//go:build !linux

package transport

import (
	"log/slog"
	"net"
	"time"
)

const (
	keepAliveInterval = time.Second
	keepAliveProbes   = 10
)

func (o Options) applySocketOptions(d *net.Dialer, logger *slog.Logger) {
	if o.DoNotRoute {
		logger.Warn("donotroute is not supported on this platform, ignoring")
	}

	if !o.keepAliveEnabled() {
		return
	}

	d.KeepAliveConfig = net.KeepAliveConfig{
		Enable:   true,
		Idle:     o.KeepAliveTimeout,
		Interval: keepAliveInterval,
		Count:    keepAliveProbes,
	}
}

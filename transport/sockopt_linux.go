//go:build linux

package transport

import (
	"fmt"
	"log/slog"
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

const (
	keepAliveInterval = 1
	keepAliveProbes   = 10
)

// applySocketOptions configures d so that keep-alive and routing options are
// set on the raw socket before it connects.
func (o Options) applySocketOptions(d *net.Dialer, _ *slog.Logger) {
	if !o.DoNotRoute && !o.keepAliveEnabled() {
		return
	}

	if o.keepAliveEnabled() {
		// Probing is configured on the socket, keep the runtime out of it.
		d.KeepAlive = -1
	}

	d.Control = func(_, _ string, rc syscall.RawConn) error {
		var serr error
		if err := rc.Control(func(fd uintptr) {
			serr = o.setSockopts(int(fd))
		}); err != nil {
			return err
		}
		return serr
	}
}

func (o Options) setSockopts(fd int) error {
	if o.DoNotRoute {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_DONTROUTE, 1); err != nil {
			return fmt.Errorf("transport: set SO_DONTROUTE: %w", err)
		}
	}

	if !o.keepAliveEnabled() {
		return nil
	}

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_KEEPALIVE, 1); err != nil {
		return fmt.Errorf("transport: set SO_KEEPALIVE: %w", err)
	}

	if o.KeepAliveTimeout <= 0 {
		return nil
	}

	idle := max(int(o.KeepAliveTimeout.Seconds()), 1)

	opts := []struct {
		name string
		opt  int
		val  int
	}{
		{"TCP_KEEPIDLE", unix.TCP_KEEPIDLE, idle},
		{"TCP_KEEPINTVL", unix.TCP_KEEPINTVL, keepAliveInterval},
		{"TCP_KEEPCNT", unix.TCP_KEEPCNT, keepAliveProbes},
	}

	for _, so := range opts {
		if err := unix.SetsockoptInt(fd, unix.IPPROTO_TCP, so.opt, so.val); err != nil {
			return fmt.Errorf("transport: set %s: %w", so.name, err)
		}
	}

	return nil
}

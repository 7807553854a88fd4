package transport

import (
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOptions(t *testing.T) {
	t.Run("All keys", func(t *testing.T) {
		o, err := ParseOptions(map[string]string{
			"IPv6":             "true",
			"doNotRoute":       "TRUE",
			"keepalive":        "true",
			"nodelay":          "false",
			"keepAliveTimeout": "30",
		})
		require.NoError(t, err)

		assert.True(t, o.IPv6)
		assert.True(t, o.DoNotRoute)
		assert.True(t, o.KeepAlive)
		require.NotNil(t, o.NoDelay)
		assert.False(t, *o.NoDelay)
		assert.Equal(t, 30*time.Second, o.KeepAliveTimeout)
	})

	t.Run("Empty map", func(t *testing.T) {
		o, err := ParseOptions(nil)
		require.NoError(t, err)
		assert.Equal(t, Options{}, o)
	})

	t.Run("Unknown keys ignored", func(t *testing.T) {
		o, err := ParseOptions(map[string]string{"reuseaddr": "true"})
		require.NoError(t, err)
		assert.Equal(t, Options{}, o)
	})

	t.Run("Non true values are false", func(t *testing.T) {
		o, err := ParseOptions(map[string]string{"ipv6": "yes"})
		require.NoError(t, err)
		assert.False(t, o.IPv6)
	})

	t.Run("Bad keepalivetimeout", func(t *testing.T) {
		for _, v := range []string{"abc", "-1", ""} {
			_, err := ParseOptions(map[string]string{"keepalivetimeout": v})
			assert.Error(t, err, v)
		}
	})
}

func TestOptionsDefaults(t *testing.T) {
	var o Options

	assert.Equal(t, "tcp4", o.network())
	assert.Equal(t, defaultReadBufferSize, o.readBufferSize())
	assert.False(t, o.keepAliveEnabled())

	o.IPv6 = true
	o.ReadBufferSize = 512
	o.KeepAliveTimeout = time.Second

	assert.Equal(t, "tcp6", o.network())
	assert.Equal(t, 512, o.readBufferSize())
	assert.True(t, o.keepAliveEnabled())
}

func TestOptionsLogValue(t *testing.T) {
	noDelay := true
	o := Options{IPv6: true, NoDelay: &noDelay, KeepAlive: true}

	v := o.LogValue()
	require.Equal(t, slog.KindGroup, v.Kind())

	attrs := map[string]slog.Value{}
	for _, a := range v.Group() {
		attrs[a.Key] = a.Value
	}

	assert.Equal(t, "ipv6", attrs["network"].String())
	assert.True(t, attrs["route"].Bool())
	assert.Equal(t, "false", attrs["delay"].String())
	assert.True(t, attrs["keepalive"].Bool())
}

func TestOptionsContextDialer(t *testing.T) {
	t.Run("Direct", func(t *testing.T) {
		forward := &net.Dialer{}
		d, err := Options{}.contextDialer(forward)
		require.NoError(t, err)
		assert.Same(t, forward, d)
	})

	t.Run("SOCKS5 proxy", func(t *testing.T) {
		d, err := Options{Proxy: "socks5://127.0.0.1:1080"}.contextDialer(&net.Dialer{})
		require.NoError(t, err)
		assert.NotNil(t, d)
	})

	t.Run("Unsupported proxy scheme", func(t *testing.T) {
		_, err := Options{Proxy: "gopher://127.0.0.1:70"}.contextDialer(&net.Dialer{})
		assert.ErrorContains(t, err, "bad proxy")
	})

	t.Run("Bad proxy url", func(t *testing.T) {
		_, err := Options{Proxy: "://nope"}.contextDialer(&net.Dialer{})
		assert.ErrorContains(t, err, "bad proxy url")
	})
}

func TestApplySocketOptions(t *testing.T) {
	t.Run("Nothing to apply", func(t *testing.T) {
		d := &net.Dialer{}
		Options{}.applySocketOptions(d, slog.New(slog.DiscardHandler))
		assert.Nil(t, d.Control)
		assert.Zero(t, d.KeepAlive)
	})
}

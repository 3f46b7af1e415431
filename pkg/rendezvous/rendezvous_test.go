package rendezvous

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestConnectorTickWithoutListenerIsSilent(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "nobody.sock")
	c := New(sock, testLogger(), nil, "test")

	fd, err := os.CreateTemp(t.TempDir(), "fd")
	require.NoError(t, err)
	defer fd.Close()

	c.Tick(int(fd.Fd())) // no listener; must not panic or report the fd as sent
	assert.False(t, c.FDSent())
}

func TestConnectorSendsFDOnceListenerAppears(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "fb.sock")
	c := New(sock, testLogger(), nil, "test")

	fd, err := os.CreateTemp(t.TempDir(), "region")
	require.NoError(t, err)
	defer fd.Close()

	c.Tick(int(fd.Fd())) // nothing listening yet

	ln, err := Listen(sock)
	require.NoError(t, err)
	defer ln.Close()

	received := make(chan int, 1)
	go func() {
		got, err := ln.Accept()
		if err == nil {
			received <- got
		}
	}()

	require.Eventually(t, func() bool {
		c.Tick(int(fd.Fd()))
		return c.FDSent()
	}, time.Second, 10*time.Millisecond)

	select {
	case got := <-received:
		assert.Greater(t, got, 0)
	case <-time.After(time.Second):
		t.Fatal("listener never received an fd")
	}
}

func TestConnectorResetClearsFDSent(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "fb.sock")
	c := New(sock, testLogger(), nil, "test")
	c.fdSent = true
	c.Reset()
	assert.False(t, c.FDSent())
}

func TestConnectorIncrementsReconnectsOnFDSent(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "fb.sock")
	reconnects := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_reconnects_total"}, []string{"channel"})
	c := New(sock, testLogger(), reconnects, "framebuffer")

	fd, err := os.CreateTemp(t.TempDir(), "region")
	require.NoError(t, err)
	defer fd.Close()

	ln, err := Listen(sock)
	require.NoError(t, err)
	defer ln.Close()

	go func() { _, _ = ln.Accept() }()

	require.Eventually(t, func() bool {
		c.Tick(int(fd.Fd()))
		return c.FDSent()
	}, time.Second, 10*time.Millisecond)

	var m dto.Metric
	require.NoError(t, reconnects.WithLabelValues("framebuffer").Write(&m))
	assert.Equal(t, float64(1), m.GetCounter().GetValue())
}

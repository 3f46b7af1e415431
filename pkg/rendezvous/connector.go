// Package rendezvous implements the producer side of the fd-passing
// handshake: connect to the consumer's listening Unix socket, and once
// connected, hand over the region's memfd via SCM_RIGHTS. Connection and
// send failures are never fatal — the caller retries on the next refresh
// tick, the same "dial, log, move on" shape as api/pkg/drm.Client.RequestLease
// but with a producer that never blocks waiting for the peer to exist.
package rendezvous

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sys/unix"
)

// Connector tracks one channel's connection to its consumer.
type Connector struct {
	socketPath string
	logger     *slog.Logger
	reconnects *prometheus.CounterVec
	channel    string

	mu     sync.Mutex
	conn   *net.UnixConn
	fdSent bool
}

// New creates a Connector for the given rendezvous socket path. reconnects,
// if non-nil, is bumped under the given channel label every time a fd
// handoff to a newly (re)connected consumer completes; pass nil to disable
// the counter, e.g. from a test that has no registry to hand it.
func New(socketPath string, logger *slog.Logger, reconnects *prometheus.CounterVec, channel string) *Connector {
	return &Connector{socketPath: socketPath, logger: logger, reconnects: reconnects, channel: channel}
}

// Connected reports whether a client connection is currently held.
func (c *Connector) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// FDSent reports whether the memfd has already been handed to the current
// connection.
func (c *Connector) FDSent() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fdSent
}

// Connect attempts to dial the consumer's listening socket. On success it
// records the connection and clears fd_sent for the new pairing. On
// failure it silently leaves the connector disconnected — this is not an
// error the caller should propagate; the consumer may simply not be
// listening yet. Reports only operational errors such as local socket
// creation failure (fd exhaustion), which also do not disable the driver.
func (c *Connector) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return nil
	}

	raddr, err := net.ResolveUnixAddr("unix", c.socketPath)
	if err != nil {
		// Malformed path is a configuration error, not a transient one,
		// but we still never treat it as fatal to the data path.
		c.logger.Debug("resolve rendezvous socket", "path", c.socketPath, "err", err)
		return nil
	}

	conn, err := net.DialUnix("unix", nil, raddr)
	if err != nil {
		var serr *os.SyscallError
		if errors.As(err, &serr) && serr.Syscall == "socket" {
			// Local socket creation failed (e.g. fd exhaustion): reported,
			// but still retried next tick.
			return fmt.Errorf("create rendezvous socket: %w", err)
		}
		// Consumer absent or refused: silent, retried next tick.
		return nil
	}

	c.conn = conn
	c.fdSent = false
	c.logger.Info("rendezvous connected", "path", c.socketPath)
	return nil
}

// SendFD transmits fd as SCM_RIGHTS ancillary data over the connected
// socket, along with a single zero payload byte. It is a no-op if not
// connected, already sent for this pairing, or fd is not yet allocated.
func (c *Connector) SendFD(fd int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil || c.fdSent || fd < 0 {
		return nil
	}

	rights := unix.UnixRights(fd)
	_, _, err := c.conn.WriteMsgUnix([]byte{0}, rights, nil)
	if err != nil {
		// Transient send failure: report once, retry on the next tick.
		c.logger.Warn("send fd over rendezvous socket failed", "path", c.socketPath, "err", err)
		return fmt.Errorf("send fd: %w", err)
	}

	c.fdSent = true
	c.logger.Info("fd sent to consumer", "path", c.socketPath, "fd", fd)
	if c.reconnects != nil {
		c.reconnects.WithLabelValues(c.channel).Inc()
	}
	return nil
}

// Reset drops the current connection and clears fd_sent, as required when
// the region is reallocated or the producer detects the peer is gone.
func (c *Connector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

func (c *Connector) resetLocked() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.fdSent = false
}

// Tick is the single entry point a refresh loop or a write() path calls
// every cycle: connect if needed, then try to hand over fd if one is ready.
// Both steps are no-ops when already satisfied, so calling Tick with fd=-1
// is safe and only drives the connect half.
func (c *Connector) Tick(fd int) {
	if err := c.Connect(); err != nil {
		c.logger.Debug("rendezvous connect error", "err", err)
	}
	if err := c.SendFD(fd); err != nil {
		// Already logged in SendFD; nothing further to do here.
		_ = err
	}
}

// jukeclient is a reference consumer: it accepts the framebuffer rendezvous
// handshake, maps the region a producer shares, and logs frame-counter and
// cursor-version progress. It exists to demonstrate round-trip plausibility
// of the protocol jukehost implements, not as a real display backend.
package main

import (
	"errors"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sys/unix"

	"github.com/jukevm/juke/pkg/jukecfg"
	"github.com/jukevm/juke/pkg/memregion"
	"github.com/jukevm/juke/pkg/rendezvous"
	"github.com/jukevm/juke/pkg/wire"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := jukecfg.Load()
	if err != nil {
		logger.Error("config load failed", "err", err)
		os.Exit(1)
	}

	ln, err := rendezvous.Listen(cfg.FbSocket)
	if err != nil {
		logger.Error("listen failed", "socket", cfg.FbSocket, "err", err)
		os.Exit(1)
	}
	defer ln.Close()

	logger.Info("jukeclient listening", "socket", cfg.FbSocket)

	for {
		fd, err := acceptWithBackoff(ln, logger)
		if err != nil {
			logger.Error("giving up accepting rendezvous connections", "err", err)
			return
		}
		watchRegion(fd, logger)
	}
}

// acceptWithBackoff retries Accept with jittered backoff on transient
// errors (e.g. a producer that connects and disconnects before sending its
// fd). It never gives up on its own; it only returns an error if the
// listener itself is closed.
func acceptWithBackoff(ln *rendezvous.Listener, logger *slog.Logger) (int, error) {
	var fd int
	op := func() error {
		var err error
		fd, err = ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return backoff.Permanent(err)
			}
			logger.Warn("accept failed, retrying", "err", err)
		}
		return err
	}
	b := backoff.NewExponentialBackOff()
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = 0 // retry indefinitely; only a closed listener ends this loop
	if err := backoff.Retry(op, b); err != nil {
		return -1, err
	}
	return fd, nil
}

// watchRegion maps the region backing fd and logs frame-counter and
// cursor-version changes until they stop advancing across several polls,
// which this reference implementation treats as "producer gone".
func watchRegion(fd int, logger *slog.Logger) {
	// Peek the header alone first, via a throwaway mapping, to learn the
	// geometry needed to size the real mapping. unmapped directly (not
	// through memregion.Region.Close, which would also close fd).
	headerBytes, err := unix.Mmap(fd, 0, wire.FbHeaderSize, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		logger.Error("map header failed", "err", err)
		return
	}
	header := wire.NewFbHeader(headerBytes)
	width, height, stride, format := header.Geometry()
	_ = unix.Munmap(headerBytes)

	size := wire.FbRegionSize(stride, height)
	region, err := memregion.FromFD(fd, size)
	if err != nil {
		logger.Error("map full region failed", "err", err, "size", size)
		return
	}
	defer region.Close()

	full := wire.NewFbHeader(region.Data)
	logger.Info("region mapped", "width", width, "height", height, "stride", stride, "format", format, "size", size)

	var lastFrame uint64
	var lastCursor uint32
	stale := 0
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for range ticker.C {
		frame := full.FrameCounter()
		cursor := full.CursorVersion()
		if frame != lastFrame || cursor != lastCursor {
			x, y, visible := full.CursorPosition()
			logger.Info("frame observed", "frame", frame, "cursor_version", cursor,
				"cursor_x", x, "cursor_y", y, "cursor_visible", visible)
			lastFrame, lastCursor = frame, cursor
			stale = 0
			continue
		}
		stale++
		if stale > 50 { // ~5s with no progress
			logger.Info("producer appears idle, waiting for next rendezvous connection")
			return
		}
	}
}

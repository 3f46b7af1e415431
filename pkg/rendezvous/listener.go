package rendezvous

import (
	"fmt"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// Listener is the consumer side of the rendezvous protocol: bind, listen,
// accept, and receive exactly one fd per accepted connection. It exists in
// this module so tests (and a reference consumer, see cmd/jukeclient) can
// exercise the full handshake without a second, independently-built process.
type Listener struct {
	socketPath string
	ln         *net.UnixListener
}

// Listen binds and listens on socketPath, removing any stale socket file
// first.
func Listen(socketPath string) (*Listener, error) {
	_ = os.Remove(socketPath)
	addr, err := net.ResolveUnixAddr("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", socketPath, err)
	}
	ln, err := net.ListenUnix("unix", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", socketPath, err)
	}
	return &Listener{socketPath: socketPath, ln: ln}, nil
}

// Close stops listening and removes the socket file.
func (l *Listener) Close() error {
	err := l.ln.Close()
	_ = os.Remove(l.socketPath)
	return err
}

// Accept blocks for one incoming connection and returns once it has
// received exactly one fd over SCM_RIGHTS on that connection, per the
// rendezvous protocol's "no handshake, no framing" wire contract.
func (l *Listener) Accept() (fd int, err error) {
	conn, err := l.ln.AcceptUnix()
	if err != nil {
		return -1, err
	}
	defer conn.Close()

	buf := make([]byte, 1)
	oob := make([]byte, unix.CmsgSpace(4))
	n, oobn, _, _, err := conn.ReadMsgUnix(buf, oob)
	if err != nil {
		return -1, fmt.Errorf("read rendezvous message: %w", err)
	}
	if n < 1 {
		return -1, fmt.Errorf("short rendezvous message: %d bytes", n)
	}

	scms, err := unix.ParseSocketControlMessage(oob[:oobn])
	if err != nil {
		return -1, fmt.Errorf("parse control message: %w", err)
	}
	for _, scm := range scms {
		fds, err := unix.ParseUnixRights(&scm)
		if err != nil {
			continue
		}
		if len(fds) > 0 {
			for _, extra := range fds[1:] {
				unix.Close(extra)
			}
			return fds[0], nil
		}
	}
	return -1, fmt.Errorf("rendezvous message carried no fd")
}

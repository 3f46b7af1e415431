// Package memregion allocates and maps the anonymous memory-backed file
// descriptors that back each shared-memory region. It wraps
// golang.org/x/sys/unix the way api/pkg/drm uses it for DRM lease fds: a
// thin, fallible syscall layer with no retry logic of its own — callers
// decide how to degrade on failure.
package memregion

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Region is a memfd mapped read-write into this process.
type Region struct {
	Name string
	Fd   int
	Data []byte
	size int
}

// Create allocates a new anonymous memfd of the given size and maps it
// read-write. name is used only for debugging (visible in /proc/<pid>/fd).
func Create(name string, size int) (*Region, error) {
	fd, err := unix.MemfdCreate(name, 0)
	if err != nil {
		return nil, fmt.Errorf("memfd_create %s: %w", name, err)
	}
	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("ftruncate %s to %d: %w", name, size, err)
	}
	data, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("mmap %s: %w", name, err)
	}
	return &Region{Name: name, Fd: fd, Data: data, size: size}, nil
}

// FromFD maps an already-open fd (typically received over the rendezvous
// socket via SCM_RIGHTS) read-write, sized size bytes. The returned Region
// takes ownership of fd; Close will close it.
func FromFD(fd int, size int) (*Region, error) {
	data, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap fd %d: %w", fd, err)
	}
	return &Region{Fd: fd, Data: data, size: size}, nil
}

// Size returns the mapped region size in bytes.
func (r *Region) Size() int { return r.size }

// Close unmaps the region and closes the backing fd.
func (r *Region) Close() error {
	var err error
	if r.Data != nil {
		err = unix.Munmap(r.Data)
		r.Data = nil
	}
	if r.Fd >= 0 {
		if cerr := unix.Close(r.Fd); err == nil {
			err = cerr
		}
		r.Fd = -1
	}
	return err
}

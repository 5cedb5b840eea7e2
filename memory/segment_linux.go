//go:build linux

package memory

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Protection flags for NewFromFd, matching the mmap protection bits.
const (
	ProtRead  = unix.PROT_READ
	ProtWrite = unix.PROT_WRITE
)

// newAnonymousSegment allocates size bytes of shared host memory backed by
// a memfd, the runtime's equivalent of a driver-less allocation. The
// mapping is established eagerly: an anonymous segment is always written
// right after creation.
func newAnonymousSegment(label string, size int) (*Segment, error) {
	fd, err := unix.MemfdCreate("edgerun_"+label, unix.MFD_CLOEXEC)
	if err != nil {
		return nil, errors.Wrapf(err, "memfd_create(%d bytes)", size)
	}
	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		_ = unix.Close(fd)
		return nil, errors.Wrapf(err, "ftruncate(%d bytes)", size)
	}
	s := &Segment{label: label, size: size, fd: fd, prot: ProtRead | ProtWrite}
	if err := s.mapFd(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// newFdSegment wraps a client file descriptor. The descriptor is
// duplicated so the segment owns its own handle and the caller may close
// theirs independently.
func newFdSegment(size, prot, fd int, offset int64) (*Segment, error) {
	dupfd, err := unix.Dup(fd)
	if err != nil {
		return nil, errors.Wrap(err, "failed to dup the fd")
	}
	unix.CloseOnExec(dupfd)
	return &Segment{label: "mmap_fd", size: size, fd: dupfd, prot: prot, offset: offset}, nil
}

// mapFd mmaps the owned descriptor. Callers hold s.mu.
func (s *Segment) mapFd() error {
	data, err := unix.Mmap(s.fd, s.offset, s.size, s.prot, unix.MAP_SHARED)
	if err != nil {
		return errors.Wrapf(err, "mmap(%d bytes)", s.size)
	}
	s.data = data
	s.mapped = true
	return nil
}

// flushMapping msyncs the mapping. Callers hold s.mu.
func (s *Segment) flushMapping() error {
	return errors.Wrap(unix.Msync(s.data, unix.MS_SYNC), "msync")
}

// unmap releases the mapping. Callers hold s.mu.
func (s *Segment) unmap() {
	_ = unix.Munmap(s.data)
	s.mapped = false
}

// closeFd closes the owned descriptor. Callers hold s.mu.
func (s *Segment) closeFd() {
	_ = unix.Close(s.fd)
}

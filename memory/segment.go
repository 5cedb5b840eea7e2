package memory

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/edgerun-ml/edgerun/backends"
)

// Segment is host-side backing for a memory object: an anonymous shared
// allocation, a mapping of a client file descriptor, or a wrapped platform
// hardware buffer. The mapping is established lazily, on the first call
// that needs the bytes.
type Segment struct {
	label string
	size  int

	// fd-backed segments. fd is owned by the segment (a dup of the
	// client's); -1 otherwise.
	fd     int
	prot   int
	offset int64

	// Hardware-buffer backing, nil otherwise. Mapping is delegated to the
	// platform buffer and may fail (non-blob formats).
	hwb backends.HardwareBuffer

	mu     sync.Mutex
	data   []byte
	mapped bool // data is an OS mapping that needs msync/munmap
	closed bool
}

// Label returns the segment's kind label, for diagnostics.
func (s *Segment) Label() string { return s.label }

// Size returns the segment's byte size. Zero for non-blob hardware
// buffers, whose size is not used.
func (s *Segment) Size() int { return s.size }

// newHardwareSegment wraps a platform hardware buffer. size is the byte
// width for blob buffers and 0 otherwise.
func newHardwareSegment(label string, size int, hwb backends.HardwareBuffer) *Segment {
	return &Segment{label: label, size: size, fd: -1, hwb: hwb}
}

// Bytes returns the segment's host mapping, establishing it on first use.
func (s *Segment) Bytes() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errors.Errorf("segment %q already closed", s.label)
	}
	if s.data != nil {
		return s.data, nil
	}
	if s.hwb != nil {
		data, err := s.hwb.Map()
		if err != nil {
			return nil, errors.WithMessagef(err, "cannot map hardware buffer segment %q", s.label)
		}
		s.data = data
		return s.data, nil
	}
	if s.fd >= 0 {
		if err := s.mapFd(); err != nil {
			return nil, errors.WithMessagef(err, "cannot map segment %q", s.label)
		}
		return s.data, nil
	}
	return nil, errors.Errorf("segment %q has no host mapping", s.label)
}

// Flush syncs a written mapping back to its backing, after the segment was
// used as a copy destination.
func (s *Segment) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mapped || s.data == nil {
		return nil
	}
	return s.flushMapping()
}

// Close releases the mapping and the owned file descriptor. Idempotent.
func (s *Segment) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.mapped && s.data != nil {
		s.unmap()
	}
	s.data = nil
	if s.fd >= 0 {
		s.closeFd()
		s.fd = -1
	}
}

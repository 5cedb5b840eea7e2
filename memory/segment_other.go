//go:build !linux

package memory

import (
	"github.com/pkg/errors"
)

// Protection flags for NewFromFd. Values mirror the POSIX mmap bits.
const (
	ProtRead  = 0x1
	ProtWrite = 0x2
)

// newAnonymousSegment allocates size bytes of host memory. Without memfd
// support the segment is plain heap memory, which is still shareable
// within the process.
func newAnonymousSegment(label string, size int) (*Segment, error) {
	return &Segment{label: label, size: size, fd: -1, data: make([]byte, size)}, nil
}

// newFdSegment is only supported on platforms with mmap-able descriptors.
func newFdSegment(size, prot, fd int, offset int64) (*Segment, error) {
	return nil, errors.New("file-descriptor backed memory is not supported on this platform")
}

func (s *Segment) mapFd() error {
	return errors.New("file-descriptor backed memory is not supported on this platform")
}

func (s *Segment) flushMapping() error { return nil }

func (s *Segment) unmap() {}

func (s *Segment) closeFd() {}

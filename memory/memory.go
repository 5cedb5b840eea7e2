// Package memory implements the memory-object subsystem of the runtime:
// uniform, validated handles to buffers that can be bound as model inputs,
// outputs or constants across compiled executions.
//
// A memory object is backed by exactly one of a host segment (anonymous
// shared memory, a client file descriptor, or a platform hardware buffer)
// or a driver-opaque buffer addressed by an allocation token. Every object
// owns a Validator that enforces role, offset and shape legality and
// tracks the initialization state machine; Copy moves logical tensor
// content between any pair of backing kinds; Builder accumulates the roles
// a not-yet-allocated object will serve and allocates it on the one device
// all roles agree on, falling back to host shared memory.
//
// All failures are returned as errors carrying a closed Status code; see
// StatusOf. No error is thrown across the package boundary.
package memory

import (
	"sync"
	"weak"

	"github.com/edgerun-ml/edgerun/backends"
	"github.com/edgerun-ml/edgerun/compile"
)

// Memory is a handle to one buffer. Its identity is the handle itself:
// the *Memory pointer is used as an opaque key, never a content hash.
type Memory struct {
	// Host backing, nil for driver-owned buffers.
	segment *Segment

	// Driver backing: buffer plus positive allocation token. nil/0 for
	// host-backed objects.
	buffer backends.Buffer
	token  backends.Token

	validator Validator

	mu       sync.Mutex
	usedBy   map[weak.Pointer[Burst]]struct{}
	released bool
}

// NewFromSharedSegment creates a memory object backed by a fresh anonymous
// host shared segment of the given byte size.
func NewFromSharedSegment(size int) (*Memory, error) {
	if size <= 0 {
		return nil, badDataf("invalid size %d for shared memory", size)
	}
	segment, err := newAnonymousSegment("shared", size)
	if err != nil {
		return nil, withStatus(OutOfMemory, err)
	}
	return &Memory{segment: segment, validator: newSizedValidator(size)}, nil
}

// NewFromFd creates a memory object backed by a client file descriptor.
// The descriptor is duplicated, so the caller's descriptor can be closed
// independently. prot takes the ProtRead/ProtWrite mapping bits.
func NewFromFd(size, prot, fd int, offset int64) (*Memory, error) {
	if size <= 0 || fd < 0 {
		return nil, badDataf("invalid size (%d) or fd (%d)", size, fd)
	}
	segment, err := newFdSegment(size, prot, fd, offset)
	if err != nil {
		return nil, withStatus(UnexpectedNull, err)
	}
	return &Memory{segment: segment, validator: newSizedValidator(size)}, nil
}

// NewFromHardwareBuffer creates a memory object wrapping a platform
// hardware buffer. A blob-format buffer behaves like a host segment of its
// declared byte width; any other format installs the non-blob policy, is
// only usable as an execution input or output, and its declared size is
// ignored.
func NewFromHardwareBuffer(hwb backends.HardwareBuffer) (*Memory, error) {
	if hwb == nil {
		return nil, unexpectedNullf("nil hardware buffer")
	}
	if hwb.Format() == backends.FormatBlob {
		width := hwb.ByteWidth()
		if width <= 0 {
			return nil, badDataf("invalid byte width %d for blob hardware buffer", width)
		}
		return &Memory{
			segment:   newHardwareSegment("hardware_buffer_blob", width, hwb),
			validator: newSizedValidator(width),
		}, nil
	}
	// Memory size is not used for non-blob formats.
	return &Memory{
		segment:   newHardwareSegment("hardware_buffer", 0, hwb),
		validator: nonBlobValidator{},
	}, nil
}

// NewFromDevice creates a memory object around an allocator-issued
// driver-opaque buffer and its positive allocation token.
func NewFromDevice(buffer backends.Buffer, token backends.Token) (*Memory, error) {
	if buffer == nil {
		return nil, badDataf("nil buffer for device memory")
	}
	if token <= 0 {
		return nil, badDataf("invalid token for device memory: %d", token)
	}
	// The final device-role validator is installed by Builder.Allocate;
	// until then no role is legal and the object is uninitialized.
	return &Memory{buffer: buffer, token: token, validator: newDeviceValidator(nil, compile.Operand{}, nil)}, nil
}

// Validator returns the object's policy object.
func (m *Memory) Validator() Validator { return m.validator }

// setValidator installs the object's final policy. Used once, by
// Builder.Allocate, after a descriptor-backed allocation.
func (m *Memory) setValidator(v Validator) { m.validator = v }

// Segment returns the host backing, or nil for driver-owned buffers.
func (m *Memory) Segment() *Segment { return m.segment }

// DeviceBuffer returns the driver backing, or nil for host-backed objects.
func (m *Memory) DeviceBuffer() backends.Buffer { return m.buffer }

// Token returns the driver allocation token, 0 for host-backed objects.
func (m *Memory) Token() backends.Token { return m.token }

// UsedBy records that burst caches this memory object. Registration
// happens from execution threads and may race with Release; the registry
// is mutex-guarded and holds the burst weakly.
func (m *Memory) UsedBy(burst *Burst) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.usedBy == nil {
		m.usedBy = make(map[weak.Pointer[Burst]]struct{})
	}
	m.usedBy[weak.Make(burst)] = struct{}{}
}

// Release destroys the memory object: every burst still alive that cached
// it is told to forget it, and the host backing is unmapped and closed.
// Bursts that did not outlive their own collection are skipped. Idempotent.
func (m *Memory) Release() {
	m.mu.Lock()
	if m.released {
		m.mu.Unlock()
		return
	}
	m.released = true
	registered := make([]weak.Pointer[Burst], 0, len(m.usedBy))
	for wp := range m.usedBy {
		registered = append(registered, wp)
	}
	m.usedBy = nil
	m.mu.Unlock()

	for _, wp := range registered {
		if burst := wp.Value(); burst != nil {
			burst.Forget(m)
		}
	}
	if m.segment != nil {
		m.segment.Close()
	}
}

// Free releases the memory object. It always succeeds and is a no-op on
// nil, matching the behavior expected from the public surface.
func Free(m *Memory) {
	if m == nil {
		return
	}
	m.Release()
}

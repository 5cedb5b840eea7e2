// Package backends defines the boundary between the runtime's memory
// subsystem and the accelerator device drivers.
//
// A Device is the allocation service of one accelerator: the memory
// descriptor machinery asks it to provide driver-owned buffers for the
// roles a future memory object will serve. A Buffer is such a driver-owned
// buffer: it is opaque to the runtime, addressed only through an allocation
// Token, and its content can only be moved in and out through the transfer
// calls declared here.
//
// Device enumeration and the wire-level driver transport are out of scope:
// implementations register themselves with Register, typically during
// package initialization, the way compute backends usually do.
//
// Allocation and transfer calls may block on an out-of-process driver.
// There is no timeout or cancellation at this layer; callers that need
// bounded latency must impose it above.
package backends

import (
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/gomlx/gopjrt/dtypes"
)

// Token identifies a driver-owned buffer within its device. Valid tokens
// are positive; 0 means "no token" (the buffer is not driver-owned).
type Token uint32

// Buffer is a driver-opaque buffer. The runtime never addresses its
// content directly: the only data paths are the two transfer calls below,
// both mediated by the driver.
type Buffer interface {
	// CopyTo transfers the whole logical content of the buffer into dst,
	// which must be at least the buffer's logical size.
	CopyTo(dst []byte) error

	// CopyFrom replaces the buffer content with src. dimensions is the
	// expected shape of the incoming data; drivers use it to settle
	// dimensions that were unknown at allocation time.
	CopyFrom(src []byte, dimensions []int) error
}

// BufferRole describes one use of a future buffer in one prepared-model
// step: the step's index in AllocateRequest.Models, the input or output
// slot, and the rate at which the buffer is expected to be used in that
// role, in (0.0, 1.0].
type BufferRole struct {
	Model     int
	Slot      int
	Frequency float32
}

// AllocateRequest is everything a device needs to allocate a buffer for a
// finished memory descriptor: the element type, the accumulated dimensions
// (possibly with unknown axes) and the roles the buffer will serve, split
// by direction.
type AllocateRequest struct {
	DType       dtypes.DType
	Dimensions  []int
	Models      []string
	InputRoles  []BufferRole
	OutputRoles []BufferRole
}

// Allocation is a successful device allocation: the driver-opaque buffer
// plus its positive token.
type Allocation struct {
	Buffer Buffer
	Token  Token
}

// Device is the allocation interface of one accelerator.
type Device interface {
	// Name returns the short name of the device, e.g. "npu0".
	Name() string

	// Allocate asks the device driver for a buffer serving the given
	// roles. Failure is not fatal to the caller: the memory subsystem
	// falls back to host shared memory.
	Allocate(req AllocateRequest) (Allocation, error)
}

// Constructor takes a config string (optionally empty) and returns a Device.
type Constructor func(config string) (Device, error)

var registeredConstructors = make(map[string]Constructor)

// Register a device driver with the given name, and a constructor that
// takes a driver-specific configuration string.
//
// To be safe, call Register during initialization of a package.
func Register(name string, constructor Constructor) {
	registeredConstructors[name] = constructor
}

// EDGERUN_DEVICE is the environment variable with the default device
// configuration to use with New.
//
// The format of config is "<device_name>:<device_configuration>".
const EDGERUN_DEVICE = "EDGERUN_DEVICE"

// New returns a Device built from a configuration string formatted as
// "<device_name>:<device_configuration>". An empty config falls back to
// the EDGERUN_DEVICE environment variable.
func New(config string) (Device, error) {
	if config == "" {
		config = os.Getenv(EDGERUN_DEVICE)
	}
	name := config
	deviceConfig := ""
	if idx := strings.Index(config, ":"); idx != -1 {
		name = config[:idx]
		deviceConfig = config[idx+1:]
	}
	constructor, found := registeredConstructors[name]
	if !found {
		return nil, errors.Errorf("can't find device driver %q for configuration %q given", name, config)
	}
	return constructor(deviceConfig)
}

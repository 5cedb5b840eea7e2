package memory

import (
	"slices"

	"github.com/dustin/go-humanize"
	"github.com/gomlx/exceptions"
	"k8s.io/klog/v2"

	"github.com/edgerun-ml/edgerun/backends"
	"github.com/edgerun-ml/edgerun/compile"
	"github.com/edgerun-ml/edgerun/types"
	"github.com/edgerun-ml/edgerun/types/shapes"
)

// Builder accumulates the roles a not-yet-allocated memory object will
// serve, merges their shape constraints, and selects the single device
// allowed to allocate it. Mutating calls must be serialized by the caller;
// after Finish the descriptor is immutable and safe for concurrent reads.
type Builder struct {
	finished bool

	// Role keys registered so far; duplicate registration is an error.
	roles types.Set[compile.Role]

	// The operand all roles must agree on. Set by the first AddRole.
	operand *compile.Operand

	// Accumulated dimensions, merged across all roles and explicit
	// SetDimensions calls.
	dimensions []int

	// Distinct prepared-model steps referenced by the roles, and the
	// per-step buffer roles, split by direction.
	steps       []*compile.Step
	inputRoles  []backends.BufferRole
	outputRoles []backends.BufferRole

	// The single device allowed to allocate, selected at Finish. nil
	// means pure host fallback.
	allocator backends.Device
}

// NewBuilder returns an empty memory descriptor builder.
func NewBuilder() *Builder {
	return &Builder{roles: types.MakeSet[compile.Role]()}
}

// AddInputRole declares that the future memory object will be the index-th
// input of the given compiled execution, used at the given frequency in
// (0.0, 1.0].
func (b *Builder) AddInputRole(execution *compile.Execution, index int, frequency float32) error {
	return b.addRole(execution, compile.Input, index, frequency)
}

// AddOutputRole declares that the future memory object will be the
// index-th output of the given compiled execution.
func (b *Builder) AddOutputRole(execution *compile.Execution, index int, frequency float32) error {
	return b.addRole(execution, compile.Output, index, frequency)
}

func (b *Builder) addRole(execution *compile.Execution, io compile.IOType, index int, frequency float32) error {
	if b.finished {
		return badStatef("cannot add a role after the descriptor is finished")
	}
	if execution == nil {
		return unexpectedNullf("nil execution")
	}
	key := compile.Role{Execution: execution.ID(), IO: io, Index: index}
	if b.roles.Has(key) {
		return badDataf("the same operand is specified twice (%s %d)", io, index)
	}

	var stepRoles []compile.StepRole
	var operand compile.Operand
	var err error
	if io == compile.Input {
		stepRoles, err = execution.StepRolesOfInput(index)
		if err == nil {
			operand, err = execution.Model().InputOperand(index)
		}
	} else {
		stepRoles, err = execution.StepRolesOfOutput(index)
		if err == nil {
			operand, err = execution.Model().OutputOperand(index)
		}
	}
	if err != nil {
		return withStatus(BadData, err)
	}

	if b.operand != nil && !operand.SameMetadata(*b.operand) {
		return badDataf("incompatible operand metadata for %s %d", io, index)
	}
	if !operand.IsTensor() && len(b.dimensions) != 0 {
		return badDataf("incompatible dimensions: operand of %s %d is a scalar", io, index)
	}
	combined, err := shapes.Combine(b.dimensions, operand.Dimensions)
	if err != nil {
		return withStatus(BadData, err)
	}
	if frequency > 1.0 || frequency <= 0.0 {
		return badDataf("invalid frequency %v", frequency)
	}

	b.roles.Insert(key)
	for _, stepRole := range stepRoles {
		role := backends.BufferRole{
			Model:     b.addStep(stepRole.Step),
			Slot:      stepRole.Index,
			Frequency: frequency,
		}
		if stepRole.IO == compile.Input {
			b.inputRoles = append(b.inputRoles, role)
		} else {
			b.outputRoles = append(b.outputRoles, role)
		}
	}
	b.operand = &operand
	b.dimensions = combined
	return nil
}

// addStep records a prepared-model step, deduplicated, and returns its
// index.
func (b *Builder) addStep(step *compile.Step) int {
	if idx := slices.Index(b.steps, step); idx >= 0 {
		return idx
	}
	b.steps = append(b.steps, step)
	return len(b.steps) - 1
}

// SetDimensions merges explicitly supplied dimensions into the
// accumulated ones.
func (b *Builder) SetDimensions(dimensions []int) error {
	if b.finished {
		return badStatef("cannot set dimensions after the descriptor is finished")
	}
	for _, dim := range dimensions {
		if dim < 0 {
			return badDataf("invalid dimension %d", dim)
		}
	}
	if b.operand != nil && !b.operand.IsTensor() && len(dimensions) != 0 {
		return badDataf("incompatible dimensions for scalars")
	}
	combined, err := shapes.Combine(b.dimensions, dimensions)
	if err != nil {
		return withStatus(BadData, err)
	}
	b.dimensions = combined
	return nil
}

// Finish validates the role set and freezes the descriptor. Subsequent
// mutating calls fail with BadState. Roles spanning more than one distinct
// device are not an error: no device allocator is selected and Allocate
// takes the host fallback path.
func (b *Builder) Finish() error {
	if b.finished {
		return badStatef("descriptor is already finished")
	}
	if len(b.roles) == 0 {
		return badDataf("no role has been specified")
	}
	if b.operand == nil {
		exceptions.Panicf("memory.Builder: roles registered without an operand")
	}
	if klog.V(2).Enabled() {
		b.logDescriptor()
	}
	b.allocator = b.selectDeviceAllocator()
	b.finished = true
	return nil
}

func (b *Builder) selectDeviceAllocator() backends.Device {
	var allocator backends.Device
	for _, step := range b.steps {
		device := step.Device()
		if allocator == nil {
			allocator = device
		} else if allocator != device {
			klog.V(1).Infof("memory.Builder: roles span multiple devices, using host fallback")
			return nil
		}
	}
	if allocator == nil {
		exceptions.Panicf("memory.Builder: no device behind the registered steps")
	}
	klog.V(2).Infof("memory.Builder: using %s as allocator", allocator.Name())
	return allocator
}

func (b *Builder) logDescriptor() {
	klog.Infof("MemoryDescriptor start")
	klog.Infof("    Data type: %s", b.operand.DType)
	klog.Infof("    Scale: %v", b.operand.Scale)
	klog.Infof("    Zero point: %d", b.operand.ZeroPoint)
	klog.Infof("    Dimensions: %v", b.dimensions)
	klog.Infof("    Steps [%d]:", len(b.steps))
	for _, step := range b.steps {
		klog.Infof("        %s on device %s", step.Name(), step.Device().Name())
	}
	klog.Infof("    Input roles [%d]: %v", len(b.inputRoles), b.inputRoles)
	klog.Infof("    Output roles [%d]: %v", len(b.outputRoles), b.outputRoles)
	klog.Infof("MemoryDescriptor end")
}

// Finished returns whether Finish completed successfully.
func (b *Builder) Finished() bool { return b.finished }

// Dimensions returns the accumulated dimensions merged so far.
func (b *Builder) Dimensions() []int { return slices.Clone(b.dimensions) }

// Descriptor returns the read-only view of the finished descriptor, as the
// request a device allocator receives: element type, accumulated
// dimensions, the referenced step names and the per-step buffer roles.
// Fails with BadState before Finish.
func (b *Builder) Descriptor() (backends.AllocateRequest, error) {
	if !b.finished {
		return backends.AllocateRequest{}, badStatef("descriptor is not finished")
	}
	return b.allocateRequest(), nil
}

// allocateRequest converts the descriptor into the request handed to the
// device allocator.
func (b *Builder) allocateRequest() backends.AllocateRequest {
	models := make([]string, len(b.steps))
	for i, step := range b.steps {
		models[i] = step.Name()
	}
	return backends.AllocateRequest{
		DType:       b.operand.DType,
		Dimensions:  slices.Clone(b.dimensions),
		Models:      models,
		InputRoles:  slices.Clone(b.inputRoles),
		OutputRoles: slices.Clone(b.outputRoles),
	}
}

// Allocate produces the memory object the descriptor describes. The
// selected device is asked first; on failure, or when no single device was
// selected, a host shared segment of the computed size is allocated
// instead -- one fallback attempt, no retries. The new object starts
// Uninitialized with the device-role validator installed.
func (b *Builder) Allocate() (*Memory, error) {
	if !b.finished {
		return nil, badStatef("cannot allocate from an unfinished descriptor")
	}
	size := b.operand.SizeOfData(b.dimensions)
	if size == 0 {
		return nil, opFailedf("cannot allocate with unknown dimensions %v", b.dimensions)
	}

	var mem *Memory
	if b.allocator != nil {
		allocation, err := b.allocator.Allocate(b.allocateRequest())
		if err == nil {
			mem, err = NewFromDevice(allocation.Buffer, allocation.Token)
		}
		if err != nil {
			klog.V(1).Infof("memory.Builder: device %s failed to allocate (%v), falling back to host shared memory",
				b.allocator.Name(), err)
			mem = nil
		}
	}
	if mem == nil {
		var err error
		mem, err = NewFromSharedSegment(size)
		if err != nil {
			return nil, err
		}
		klog.V(2).Infof("memory.Builder: allocated %s host shared segment", humanize.IBytes(uint64(size)))
	}

	mem.setValidator(newDeviceValidator(b.roles.Clone(), *b.operand, b.dimensions))
	return mem, nil
}

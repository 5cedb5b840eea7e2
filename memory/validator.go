package memory

import (
	"slices"

	"github.com/gomlx/exceptions"

	"github.com/edgerun-ml/edgerun/compile"
	"github.com/edgerun-ml/edgerun/types"
	"github.com/edgerun-ml/edgerun/types/shapes"
)

// RoleContext describes how a caller intends to use a memory object: as a
// slot of a compiled execution, or as a model constant when Execution is
// nil. Declared optionally carries the operand type and dimensions the
// caller announced for the binding.
type RoleContext struct {
	Execution *compile.Execution
	IO        compile.IOType
	Index     int
	Declared  *compile.Operand
}

// Metadata is the resolved description of a memory object's content,
// exchanged between validators by the copy engine. A zero LogicalSize or
// empty Dimensions means "no constraint". Operand, when present, pins the
// element type and quantization parameters.
type Metadata struct {
	LogicalSize int
	Dimensions  []int
	Operand     *compile.Operand
}

// Validator is the per-memory-object policy: it decides whether a given
// use of the object is legal, carries the object's resolved metadata, and
// tracks the initialized/uninitialized state machine.
//
// Each memory object owns exactly one Validator; the implementations are
// closed within this package.
type Validator interface {
	// Validate checks the legality of using the memory object in the given
	// role at the given byte window.
	Validate(ctx RoleContext, offset, length int) error

	// ValidateInputDimensions checks the object can be bound as an
	// execution input with precisely the given dimensions.
	ValidateInputDimensions(dimensions []int) error

	// Metadata returns the object's resolved size, shape and operand type.
	Metadata() Metadata

	// UpdateMetadata attempts to apply metadata coming from a copy source,
	// failing if it conflicts with the object's fixed operand type or
	// recorded dimensions.
	UpdateMetadata(metadata Metadata) error

	// SetInitialized moves the object between the Uninitialized and
	// Initialized states. Invoked by the finalize step of copy or
	// execution.
	SetInitialized(initialized bool)

	// IsInitialized returns whether the object holds valid content.
	IsInitialized() bool
}

// sizedValidator guards a client-managed byte pool of known size. The
// memory may be used for execution inputs, execution outputs, or model
// constants. Client-managed memory is considered initialized from the
// start: the runtime has no way to know when the client writes it.
type sizedValidator struct {
	size int
}

func newSizedValidator(size int) *sizedValidator { return &sizedValidator{size: size} }

func (v *sizedValidator) Validate(_ RoleContext, offset, length int) error {
	if offset < 0 || length < 0 || offset+length > v.size {
		return badDataf("request window [%d, %d) larger than the memory size %d", offset, offset+length, v.size)
	}
	if offset == 0 && length == 0 {
		return badDataf("memory size cannot be implied")
	}
	return nil
}

func (v *sizedValidator) ValidateInputDimensions([]int) error { return nil }

func (v *sizedValidator) Metadata() Metadata { return Metadata{LogicalSize: v.size} }

func (v *sizedValidator) UpdateMetadata(metadata Metadata) error {
	if metadata.LogicalSize != 0 && metadata.LogicalSize != v.size {
		return badDataf("logical size %d does not match the memory size %d", metadata.LogicalSize, v.size)
	}
	return nil
}

func (v *sizedValidator) SetInitialized(bool) {}

func (v *sizedValidator) IsInitialized() bool { return true }

// nonBlobValidator guards a hardware buffer with a non-blob format: no
// intrinsic byte size, only usable as an execution input or output, with
// both offset and length zero.
type nonBlobValidator struct{}

func (nonBlobValidator) Validate(ctx RoleContext, offset, length int) error {
	if ctx.Execution == nil {
		return badDataf("cannot use a non-blob hardware buffer as model constant")
	}
	if offset != 0 || length != 0 {
		return badDataf("non-zero offset (%d) and/or length (%d) for a non-blob hardware buffer", offset, length)
	}
	return nil
}

func (nonBlobValidator) ValidateInputDimensions([]int) error { return nil }

func (nonBlobValidator) Metadata() Metadata { return Metadata{} }

func (nonBlobValidator) UpdateMetadata(Metadata) error { return nil }

func (nonBlobValidator) SetInitialized(bool) {}

func (nonBlobValidator) IsInitialized() bool { return true }

// deviceValidator guards a memory object allocated from a finished
// descriptor: only the pre-declared roles are legal, offset and length
// must be zero, and the initialization state machine starts Uninitialized.
type deviceValidator struct {
	roles types.Set[compile.Role]

	// The element type, scale, zero point and quantization parameters of
	// the target operand, fixed at allocation. Operand dimensions and
	// everything else are ignored.
	operand compile.Operand

	// The dimensions at allocation time. May have unknown axes or rank.
	initialDimensions []int

	// The resolved dimensions after a successful execution or copy.
	updatedDimensions []int

	initialized bool
}

func newDeviceValidator(roles types.Set[compile.Role], operand compile.Operand, dimensions []int) *deviceValidator {
	return &deviceValidator{
		roles:             roles,
		operand:           operand,
		initialDimensions: slices.Clone(dimensions),
		updatedDimensions: slices.Clone(dimensions),
	}
}

func (v *deviceValidator) Validate(ctx RoleContext, offset, length int) error {
	if ctx.Execution == nil {
		return badDataf("cannot use driver-allocated memory as model constant")
	}
	key := compile.Role{Execution: ctx.Execution.ID(), IO: ctx.IO, Index: ctx.Index}
	if !v.roles.Has(key) {
		return badDataf("memory was not declared for use as %s %d of this execution", ctx.IO, ctx.Index)
	}
	if offset != 0 || length != 0 {
		return badDataf("non-zero offset and/or length for driver-allocated memory")
	}
	if ctx.Declared != nil {
		if !v.operand.IsTensor() && len(ctx.Declared.Dimensions) != 0 {
			return badDataf("invalid dimensions for scalar memory")
		}
		// Only checked against the initial dimensions here. For input
		// bindings the updated dimensions are checked in
		// ValidateInputDimensions at the beginning of a computation.
		if _, err := shapes.Combine(ctx.Declared.Dimensions, v.initialDimensions); err != nil {
			return badDataf("incompatible dimensions between request and memory (request: %v, memory: %v)",
				ctx.Declared.Dimensions, v.initialDimensions)
		}
	}
	return nil
}

func (v *deviceValidator) ValidateInputDimensions(dimensions []int) error {
	if !v.initialized {
		return badDataf("using an uninitialized memory as input")
	}
	if !slices.Equal(dimensions, v.updatedDimensions) {
		return badDataf("incompatible input dimensions between request and memory (request: %v, memory: %v)",
			dimensions, v.updatedDimensions)
	}
	return nil
}

func (v *deviceValidator) Metadata() Metadata {
	if !v.initialized {
		exceptions.Panicf("memory.deviceValidator.Metadata() called on uninitialized memory")
	}
	return Metadata{
		LogicalSize: v.operand.SizeOfData(v.updatedDimensions),
		Dimensions:  slices.Clone(v.updatedDimensions),
		Operand:     &v.operand,
	}
}

func (v *deviceValidator) UpdateMetadata(metadata Metadata) error {
	if metadata.Operand != nil && !metadata.Operand.SameMetadata(v.operand) {
		return badDataf("incompatible operand metadata")
	}
	if len(metadata.Dimensions) != 0 && !v.operand.IsTensor() {
		return badDataf("invalid dimensions for scalar memory")
	}
	combined, err := shapes.Combine(metadata.Dimensions, v.initialDimensions)
	if err != nil {
		return badDataf("incompatible dimensions (incoming: %v, memory: %v)", metadata.Dimensions, v.initialDimensions)
	}
	if metadata.LogicalSize != 0 && metadata.LogicalSize != v.operand.SizeOfData(combined) {
		return badDataf("incompatible logical size %d for dimensions %v", metadata.LogicalSize, combined)
	}
	v.updatedDimensions = combined
	return nil
}

func (v *deviceValidator) SetInitialized(initialized bool) { v.initialized = initialized }

func (v *deviceValidator) IsInitialized() bool { return v.initialized }

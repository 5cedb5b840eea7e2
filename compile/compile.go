// Package compile exposes the part of the compilation pipeline the memory
// subsystem consumes: models with typed input/output operands, and compiled
// executions whose logical input/output slots fan out to one or more
// prepared-model steps, each pinned to a device.
//
// The compilation pipeline itself (partitioning, driver preparation) is an
// external collaborator; this package only carries the role bookkeeping
// that memory descriptors are built from.
package compile

import (
	"slices"

	"github.com/pkg/errors"

	"github.com/edgerun-ml/edgerun/types/shapes"
	"github.com/gomlx/gopjrt/dtypes"
)

// IOType distinguishes the direction of a model or step slot.
type IOType int

const (
	// Input marks a model or step input slot.
	Input IOType = iota
	// Output marks a model or step output slot.
	Output
)

// String implements fmt.Stringer.
func (io IOType) String() string {
	if io == Input {
		return "input"
	}
	return "output"
}

// OperandKind distinguishes tensor operands, whose dimensions are
// meaningful, from scalar operands, which carry a single value and for
// which any non-empty dimensions are an error.
type OperandKind int

const (
	// TensorOperand is an operand with (possibly still unknown) dimensions.
	TensorOperand OperandKind = iota
	// ScalarOperand is a single-value operand, e.g. an activation enum.
	ScalarOperand
)

// ChannelQuant holds per-channel quantization parameters of an operand.
type ChannelQuant struct {
	Scales     []float32
	ChannelDim int
}

// Equal reports whether both parameter sets are equivalent.
func (cq *ChannelQuant) Equal(other *ChannelQuant) bool {
	if cq == nil || other == nil {
		return cq == other
	}
	return cq.ChannelDim == other.ChannelDim && slices.Equal(cq.Scales, other.Scales)
}

// Operand describes one model operand: element type, quantization
// parameters and dimensions. Dimensions may contain shapes.UnknownDim axes
// or be empty for unknown rank.
type Operand struct {
	DType        dtypes.DType
	Kind         OperandKind
	Scale        float64
	ZeroPoint    int32
	ChannelQuant *ChannelQuant
	Dimensions   []int
}

// IsTensor returns whether dimensions are meaningful for this operand.
func (op Operand) IsTensor() bool { return op.Kind == TensorOperand }

// Shape returns the operand's shape.
func (op Operand) Shape() shapes.Shape {
	return shapes.Make(op.DType, op.Dimensions...)
}

// SizeOfData returns the number of bytes needed to store this operand with
// the given dimensions, or 0 when the size is still unknown. Unlike
// shapes.SizeOfData, an empty dimensions slice on a tensor operand means
// unknown rank, not a scalar.
func (op Operand) SizeOfData(dimensions []int) int {
	if op.IsTensor() && len(dimensions) == 0 {
		return 0
	}
	return shapes.SizeOfData(op.DType, dimensions)
}

// SameMetadata reports whether two operands agree on the fields a memory
// descriptor must hold fixed across all of its roles: element type, scale,
// zero point and extra quantization parameters. Dimensions are excluded,
// they are reconciled separately by the dimension combiner.
func (op Operand) SameMetadata(other Operand) bool {
	return op.DType == other.DType &&
		op.Kind == other.Kind &&
		op.Scale == other.Scale &&
		op.ZeroPoint == other.ZeroPoint &&
		op.ChannelQuant.Equal(other.ChannelQuant)
}

// Model is an operand table plus the selection of operands exposed as the
// model's inputs and outputs. Only the surface needed for role bookkeeping
// is represented; graph construction is out of scope.
type Model struct {
	operands []Operand
	inputs   []int
	outputs  []int
}

// NewModel returns an empty model.
func NewModel() *Model { return &Model{} }

// AddOperand appends an operand and returns its index in the model.
func (m *Model) AddOperand(op Operand) int {
	m.operands = append(m.operands, op)
	return len(m.operands) - 1
}

// IdentifyInputsAndOutputs marks which operands, by index, are the model's
// inputs and outputs.
func (m *Model) IdentifyInputsAndOutputs(inputs, outputs []int) error {
	for _, idx := range inputs {
		if idx < 0 || idx >= len(m.operands) {
			return errors.Errorf("input operand index %d out of range, model has %d operands", idx, len(m.operands))
		}
	}
	for _, idx := range outputs {
		if idx < 0 || idx >= len(m.operands) {
			return errors.Errorf("output operand index %d out of range, model has %d operands", idx, len(m.operands))
		}
	}
	m.inputs = slices.Clone(inputs)
	m.outputs = slices.Clone(outputs)
	return nil
}

// InputCount returns the number of model inputs.
func (m *Model) InputCount() int { return len(m.inputs) }

// OutputCount returns the number of model outputs.
func (m *Model) OutputCount() int { return len(m.outputs) }

// InputOperand returns the operand behind the index-th model input.
func (m *Model) InputOperand(index int) (Operand, error) {
	if index < 0 || index >= len(m.inputs) {
		return Operand{}, errors.Errorf("input index %d out of range, model has %d inputs", index, len(m.inputs))
	}
	return m.operands[m.inputs[index]], nil
}

// OutputOperand returns the operand behind the index-th model output.
func (m *Model) OutputOperand(index int) (Operand, error) {
	if index < 0 || index >= len(m.outputs) {
		return Operand{}, errors.Errorf("output index %d out of range, model has %d outputs", index, len(m.outputs))
	}
	return m.operands[m.outputs[index]], nil
}

package compile

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/edgerun-ml/edgerun/backends"
)

// ExecutionID is the identity of one compiled execution, minted once at
// construction and compared by value. Descriptor role keys are built from
// it, so the same (execution, direction, slot) can never be registered
// twice no matter how execution objects are copied or re-created.
type ExecutionID uuid.UUID

// String implements fmt.Stringer.
func (id ExecutionID) String() string { return uuid.UUID(id).String() }

// Role is the key of one declared use of a memory object: a specific input
// or output slot of a specific compiled execution.
type Role struct {
	Execution ExecutionID
	IO        IOType
	Index     int
}

// Step is one prepared-model step of a compiled execution, pinned to the
// device that will run it.
type Step struct {
	name   string
	device backends.Device
}

// NewStep returns a step running on the given device.
func NewStep(name string, device backends.Device) *Step {
	return &Step{name: name, device: device}
}

// Name returns the step's name, for diagnostics.
func (s *Step) Name() string { return s.name }

// Device returns the device the step runs on.
func (s *Step) Device() backends.Device { return s.device }

// StepRole is one physical use of a buffer: a slot of one step. A logical
// execution-level role may fan out to several of these when the model was
// partitioned across steps.
type StepRole struct {
	Step  *Step
	IO    IOType
	Index int
}

// Execution is one compiled execution: a model compiled into one or more
// prepared-model steps, with the mapping from the model's logical
// input/output slots to the steps' physical slots.
type Execution struct {
	id    ExecutionID
	model *Model
	steps []*Step

	// Fan-out from logical slot to physical step slots, indexed by the
	// model input/output index.
	inputRoles  [][]StepRole
	outputRoles [][]StepRole
}

// NewExecution builds a compiled execution from its steps and the fan-out
// of every model input and output. inputRoles and outputRoles must have
// one entry per model input and output respectively, each naming at least
// one step slot.
func NewExecution(model *Model, steps []*Step, inputRoles, outputRoles [][]StepRole) (*Execution, error) {
	if model == nil {
		return nil, errors.New("nil model")
	}
	if len(inputRoles) != model.InputCount() || len(outputRoles) != model.OutputCount() {
		return nil, errors.Errorf("fan-out mismatch: got %d input and %d output role lists for a model with %d inputs and %d outputs",
			len(inputRoles), len(outputRoles), model.InputCount(), model.OutputCount())
	}
	for _, roles := range [2][][]StepRole{inputRoles, outputRoles} {
		for slot, stepRoles := range roles {
			if len(stepRoles) == 0 {
				return nil, errors.Errorf("slot %d maps to no step", slot)
			}
		}
	}
	return &Execution{
		id:          ExecutionID(uuid.New()),
		model:       model,
		steps:       steps,
		inputRoles:  inputRoles,
		outputRoles: outputRoles,
	}, nil
}

// NewWholeModelExecution builds the common unpartitioned execution: a
// single step on one device whose i-th input/output is the model's i-th
// input/output.
func NewWholeModelExecution(name string, model *Model, device backends.Device) (*Execution, error) {
	step := NewStep(name, device)
	inputRoles := make([][]StepRole, model.InputCount())
	for i := range inputRoles {
		inputRoles[i] = []StepRole{{Step: step, IO: Input, Index: i}}
	}
	outputRoles := make([][]StepRole, model.OutputCount())
	for i := range outputRoles {
		outputRoles[i] = []StepRole{{Step: step, IO: Output, Index: i}}
	}
	return NewExecution(model, []*Step{step}, inputRoles, outputRoles)
}

// ID returns the execution's minted identity.
func (e *Execution) ID() ExecutionID { return e.id }

// Model returns the model this execution was compiled from.
func (e *Execution) Model() *Model { return e.model }

// Steps returns the execution's prepared-model steps.
func (e *Execution) Steps() []*Step { return e.steps }

// StepRolesOfInput returns the physical step slots the index-th model
// input fans out to.
func (e *Execution) StepRolesOfInput(index int) ([]StepRole, error) {
	if index < 0 || index >= len(e.inputRoles) {
		return nil, errors.Errorf("input index %d out of range, execution has %d inputs", index, len(e.inputRoles))
	}
	return e.inputRoles[index], nil
}

// StepRolesOfOutput returns the physical step slots the index-th model
// output fans out to.
func (e *Execution) StepRolesOfOutput(index int) ([]StepRole, error) {
	if index < 0 || index >= len(e.outputRoles) {
		return nil, errors.Errorf("output index %d out of range, execution has %d outputs", index, len(e.outputRoles))
	}
	return e.outputRoles[index], nil
}

package memory

import (
	"slices"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/edgerun-ml/edgerun/backends"
	"github.com/edgerun-ml/edgerun/compile"
	"github.com/gomlx/gopjrt/dtypes"
)

// fakeBuffer is a driver-opaque buffer living in process memory.
type fakeBuffer struct {
	data     []byte
	lastDims []int
	failCopy bool
}

func (b *fakeBuffer) CopyTo(dst []byte) error {
	if b.failCopy {
		return errors.New("injected driver failure")
	}
	copy(dst, b.data)
	return nil
}

func (b *fakeBuffer) CopyFrom(src []byte, dimensions []int) error {
	if b.failCopy {
		return errors.New("injected driver failure")
	}
	b.data = slices.Clone(src)
	b.lastDims = slices.Clone(dimensions)
	return nil
}

// fakeDevice counts allocations and can be told to fail them.
type fakeDevice struct {
	name      string
	size      int
	failAlloc bool

	allocCalls atomic.Int32
	nextToken  atomic.Uint32
}

func (d *fakeDevice) Name() string { return d.name }

func (d *fakeDevice) Allocate(req backends.AllocateRequest) (backends.Allocation, error) {
	d.allocCalls.Add(1)
	if d.failAlloc {
		return backends.Allocation{}, errors.New("injected allocation failure")
	}
	return backends.Allocation{
		Buffer: &fakeBuffer{data: make([]byte, d.size)},
		Token:  backends.Token(d.nextToken.Add(1)),
	}, nil
}

// fakeHardwareBuffer is an in-process stand-in for a platform buffer.
type fakeHardwareBuffer struct {
	format backends.HardwareBufferFormat
	data   []byte
	mapErr bool
}

func (hb *fakeHardwareBuffer) Format() backends.HardwareBufferFormat { return hb.format }

func (hb *fakeHardwareBuffer) ByteWidth() int { return len(hb.data) }

func (hb *fakeHardwareBuffer) Map() ([]byte, error) {
	if hb.mapErr || hb.format != backends.FormatBlob {
		return nil, errors.New("hardware buffer is not host-mappable")
	}
	return hb.data, nil
}

// conv2dModel returns a model with one Float32 tensor input of dimensions
// inputDims and one of outputDims, both NHWC.
func conv2dModel(inputDims, outputDims []int) *compile.Model {
	model := compile.NewModel()
	in := model.AddOperand(compile.Operand{DType: dtypes.Float32, Dimensions: inputDims})
	out := model.AddOperand(compile.Operand{DType: dtypes.Float32, Dimensions: outputDims})
	if err := model.IdentifyInputsAndOutputs([]int{in}, []int{out}); err != nil {
		panic(err)
	}
	return model
}

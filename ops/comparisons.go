package ops

import (
	"github.com/pkg/errors"
	"github.com/x448/float16"
)

// ComparisonOp selects which element-wise comparison to apply.
type ComparisonOp int

const (
	Equal ComparisonOp = iota
	NotEqual
	Less
	LessEqual
	Greater
	GreaterEqual
)

func compare(op ComparisonOp, a, b float32) (bool, error) {
	switch op {
	case Equal:
		return a == b, nil
	case NotEqual:
		return a != b, nil
	case Less:
		return a < b, nil
	case LessEqual:
		return a <= b, nil
	case Greater:
		return a > b, nil
	case GreaterEqual:
		return a >= b, nil
	}
	return false, errors.Errorf("unknown comparison op %d", op)
}

// CompareFloat32 applies op element-wise, writing into output, which must
// have the same length as both inputs.
func CompareFloat32(op ComparisonOp, lhs, rhs []float32, output []bool) error {
	if len(lhs) != len(rhs) || len(output) != len(lhs) {
		return errors.Errorf("mismatched lengths: lhs=%d rhs=%d output=%d", len(lhs), len(rhs), len(output))
	}
	for i := range lhs {
		result, err := compare(op, lhs[i], rhs[i])
		if err != nil {
			return err
		}
		output[i] = result
	}
	return nil
}

// CompareFloat16 is the half-precision variant; operands are widened to
// float32 before comparing, matching the reference kernels.
func CompareFloat16(op ComparisonOp, lhs, rhs []float16.Float16, output []bool) error {
	if len(lhs) != len(rhs) || len(output) != len(lhs) {
		return errors.Errorf("mismatched lengths: lhs=%d rhs=%d output=%d", len(lhs), len(rhs), len(output))
	}
	for i := range lhs {
		result, err := compare(op, lhs[i].Float32(), rhs[i].Float32())
		if err != nil {
			return err
		}
		output[i] = result
	}
	return nil
}

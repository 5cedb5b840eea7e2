// Package ops validates the inputs of the operation-level kernels the
// runtime dispatches and calculates their output shapes.
//
// Only the shape and dtype contracts live here: the numeric work itself is
// delegated to optimized kernel libraries, with small reference
// implementations provided for the host fallback path. Numeric precision
// of the kernels is out of scope.
package ops

import (
	"github.com/pkg/errors"

	"github.com/edgerun-ml/edgerun/types/shapes"
	"github.com/gomlx/gopjrt/dtypes"
)

// comparableDTypes are the element types comparison ops accept.
var comparableDTypes = []dtypes.DType{
	dtypes.Bool,
	dtypes.Float16,
	dtypes.Float32,
	dtypes.Int32,
	dtypes.Uint8,
	dtypes.Int8,
}

func isComparable(dtype dtypes.DType) bool {
	for _, d := range comparableDTypes {
		if d == dtype {
			return true
		}
	}
	return false
}

// ValidateComparison checks the operand contract of the element-wise
// comparison ops: both inputs share one supported element type, their
// shapes reconcile, and the output is a boolean tensor of the combined
// shape.
func ValidateComparison(lhs, rhs, output shapes.Shape) error {
	combined, err := ComparisonOutputShape(lhs, rhs)
	if err != nil {
		return err
	}
	if output.DType != dtypes.Bool {
		return errors.Errorf("comparison output must be %s, got %s", dtypes.Bool, output)
	}
	if _, err := shapes.Combine(output.Dimensions, combined.Dimensions); err != nil {
		return errors.WithMessagef(err, "comparison output shape %s does not match inputs", output)
	}
	return nil
}

// ComparisonOutputShape returns the boolean shape produced by comparing
// lhs and rhs element-wise.
func ComparisonOutputShape(lhs, rhs shapes.Shape) (shapes.Shape, error) {
	if !isComparable(lhs.DType) {
		return shapes.Invalid(), errors.Errorf("unsupported input operand type for comparison op: %s", lhs.DType)
	}
	if lhs.DType != rhs.DType {
		return shapes.Invalid(), errors.Errorf("mismatched comparison operand types: %s and %s", lhs.DType, rhs.DType)
	}
	dims, err := shapes.Combine(lhs.Dimensions, rhs.Dimensions)
	if err != nil {
		return shapes.Invalid(), errors.WithMessagef(err, "comparison operands %s and %s", lhs, rhs)
	}
	return shapes.Make(dtypes.Bool, dims...), nil
}

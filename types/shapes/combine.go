/*
 *	Copyright 2024 The EdgeRun Authors
 *
 *	Licensed under the Apache License, Version 2.0 (the "License");
 *	you may not use this file except in compliance with the License.
 *	You may obtain a copy of the License at
 *
 *	http://www.apache.org/licenses/LICENSE-2.0
 *
 *	Unless required by applicable law or agreed to in writing, software
 *	distributed under the License is distributed on an "AS IS" BASIS,
 *	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *	See the License for the specific language governing permissions and
 *	limitations under the License.
 */

package shapes

import (
	"slices"

	"github.com/pkg/errors"
)

// Combine merges two partially-specified dimension vectors into the most
// specific vector compatible with both, or returns an error if they are
// incompatible.
//
// An empty vector means the rank itself is unknown and combines to exactly
// the other vector. Two vectors of equal rank combine axis by axis: an
// UnknownDim axis yields the other vector's value, and two known values
// must match exactly. Vectors of different non-zero ranks never combine.
func Combine(lhs, rhs []int) ([]int, error) {
	if len(lhs) == 0 {
		return slices.Clone(rhs), nil
	}
	if len(rhs) == 0 {
		return slices.Clone(lhs), nil
	}
	if len(lhs) != len(rhs) {
		return nil, errors.Errorf("incompatible ranks: %d and %d", len(lhs), len(rhs))
	}
	combined := make([]int, len(lhs))
	for axis, dim := range lhs {
		other := rhs[axis]
		switch {
		case dim == UnknownDim:
			combined[axis] = other
		case other == UnknownDim || other == dim:
			combined[axis] = dim
		default:
			return nil, errors.Errorf("incompatible dimensions at axis %d: %d and %d", axis, dim, other)
		}
	}
	return combined, nil
}

// CombineShapes merges two shapes of the same DType with Combine.
func CombineShapes(lhs, rhs Shape) (Shape, error) {
	if lhs.DType != rhs.DType {
		return Invalid(), errors.Errorf("cannot combine shapes of different dtypes: %s and %s", lhs, rhs)
	}
	dims, err := Combine(lhs.Dimensions, rhs.Dimensions)
	if err != nil {
		return Invalid(), errors.WithMessagef(err, "cannot combine shapes %s and %s", lhs, rhs)
	}
	return Shape{DType: lhs.DType, Dimensions: dims}, nil
}

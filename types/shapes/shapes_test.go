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
	"testing"

	. "github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/require"
)

func TestShape(t *testing.T) {
	invalidShape := Invalid()
	require.False(t, invalidShape.Ok())

	shape0 := Make(Float64)
	require.True(t, shape0.Ok())
	require.True(t, shape0.IsScalar())
	require.Equal(t, 0, shape0.Rank())
	require.Equal(t, 1, shape0.Size())
	require.Equal(t, 8, int(shape0.Memory()))
	require.True(t, shape0.IsFullySpecified())

	shape1 := Make(Float32, 1, 4, 4, 3)
	require.Equal(t, 4, shape1.Rank())
	require.Equal(t, 48, shape1.Size())
	require.Equal(t, 4*48, int(shape1.Memory()))
	require.Equal(t, 3, shape1.Dim(-1))
	require.True(t, shape1.Equal(shape1.Clone()))

	unknown := Make(Float32, UnknownDim, 4, 4, 3)
	require.False(t, unknown.IsFullySpecified())
	require.Equal(t, 0, unknown.Size())
	require.Equal(t, 0, int(unknown.Memory()))
	require.Equal(t, "(Float32)[? 4 4 3]", unknown.String())
	require.False(t, unknown.Equal(shape1))
	require.Panics(t, func() { Make(Float32, -1) })
	require.Panics(t, func() { unknown.Dim(4) })
}

func TestCombine(t *testing.T) {
	testCases := []struct {
		name     string
		lhs, rhs []int
		want     []int
		wantErr  bool
	}{
		{name: "both unknown rank", lhs: nil, rhs: nil, want: nil},
		{name: "unknown rank yields other", lhs: nil, rhs: []int{1, 4, 4, 3}, want: []int{1, 4, 4, 3}},
		{name: "other unknown rank", lhs: []int{1, 4, 4, 3}, rhs: nil, want: []int{1, 4, 4, 3}},
		{name: "all-unknown axes yield other", lhs: []int{0, 0, 0, 0}, rhs: []int{1, 4, 4, 3}, want: []int{1, 4, 4, 3}},
		{name: "identical", lhs: []int{1, 4, 4, 3}, rhs: []int{1, 4, 4, 3}, want: []int{1, 4, 4, 3}},
		{name: "fills single unknown axis", lhs: []int{0, 4, 4, 3}, rhs: []int{1, 4, 4, 3}, want: []int{1, 4, 4, 3}},
		{name: "merges interleaved unknowns", lhs: []int{1, 0, 4, 0}, rhs: []int{0, 4, 0, 3}, want: []int{1, 4, 4, 3}},
		{name: "conflicting axis", lhs: []int{1, 4, 4, 3}, rhs: []int{1, 5, 4, 3}, wantErr: true},
		{name: "rank mismatch", lhs: []int{1, 4}, rhs: []int{1, 4, 4}, wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Combine(tc.lhs, tc.rhs)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestCombineDoesNotAliasInputs(t *testing.T) {
	rhs := []int{1, 4, 4, 3}
	got, err := Combine(nil, rhs)
	require.NoError(t, err)
	got[0] = 7
	require.Equal(t, []int{1, 4, 4, 3}, rhs)
}

func TestCombineShapes(t *testing.T) {
	a := Make(Float32, 0, 4, 4, 3)
	b := Make(Float32, 1, 4, 4, 3)
	combined, err := CombineShapes(a, b)
	require.NoError(t, err)
	require.Equal(t, Make(Float32, 1, 4, 4, 3), combined)

	_, err = CombineShapes(a, Make(Int32, 1, 4, 4, 3))
	require.Error(t, err)
}

func TestSizeOfData(t *testing.T) {
	require.Equal(t, 4*48, SizeOfData(Float32, []int{1, 4, 4, 3}))
	require.Equal(t, 0, SizeOfData(Float32, []int{0, 4, 4, 3}))
	require.Equal(t, 4, SizeOfData(Int32, nil))
	require.Equal(t, 2*6, SizeOfData(Float16, []int{2, 3}))
}

package ops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgerun-ml/edgerun/types/shapes"
	"github.com/gomlx/gopjrt/dtypes"
)

func TestPoolingOutputShape(t *testing.T) {
	same := func(w, h int) PoolingParams {
		return PoolingParams{
			StrideWidth: 1, StrideHeight: 1,
			FilterWidth: w, FilterHeight: h,
		}
	}
	testCases := []struct {
		name    string
		input   shapes.Shape
		params  PoolingParams
		want    shapes.Shape
		wantErr bool
	}{
		{
			name:   "2x2 valid",
			input:  shapes.Make(dtypes.Float32, 1, 4, 4, 3),
			params: same(2, 2),
			want:   shapes.Make(dtypes.Float32, 1, 3, 3, 3),
		},
		{
			name: "2x2 stride 2",
			input: shapes.Make(dtypes.Float32, 1, 4, 6, 1),
			params: PoolingParams{
				StrideWidth: 2, StrideHeight: 2,
				FilterWidth: 2, FilterHeight: 2,
			},
			want: shapes.Make(dtypes.Float32, 1, 2, 3, 1),
		},
		{
			name: "3x3 same padding",
			input: shapes.Make(dtypes.Float32, 2, 5, 5, 4),
			params: PoolingParams{
				PaddingLeft: 1, PaddingRight: 1, PaddingTop: 1, PaddingBottom: 1,
				StrideWidth: 1, StrideHeight: 1,
				FilterWidth: 3, FilterHeight: 3,
			},
			want: shapes.Make(dtypes.Float32, 2, 5, 5, 4),
		},
		{
			name:   "unknown batch stays unknown",
			input:  shapes.Make(dtypes.Float32, 0, 4, 4, 3),
			params: same(2, 2),
			want:   shapes.Make(dtypes.Float32, 0, 3, 3, 3),
		},
		{
			name:    "window larger than input",
			input:   shapes.Make(dtypes.Float32, 1, 2, 2, 1),
			params:  same(3, 3),
			wantErr: true,
		},
		{
			name:    "unknown height",
			input:   shapes.Make(dtypes.Float32, 1, 0, 4, 3),
			params:  same(2, 2),
			wantErr: true,
		},
		{
			name:    "not rank 4",
			input:   shapes.Make(dtypes.Float32, 4, 4, 3),
			params:  same(2, 2),
			wantErr: true,
		},
		{
			name:  "zero stride",
			input: shapes.Make(dtypes.Float32, 1, 4, 4, 3),
			params: PoolingParams{
				FilterWidth: 2, FilterHeight: 2,
			},
			wantErr: true,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := PoolingOutputShape(tc.input, tc.params)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tc.want.Equal(got), "want %s, got %s", tc.want, got)
		})
	}
}

func TestAveragePool2D(t *testing.T) {
	// 1x4x4x1 input, row-major values 0..15.
	input := make([]float32, 16)
	for i := range input {
		input[i] = float32(i)
	}
	inputShape := shapes.Make(dtypes.Float32, 1, 4, 4, 1)
	params := PoolingParams{
		StrideWidth: 2, StrideHeight: 2,
		FilterWidth: 2, FilterHeight: 2,
	}
	outputShape := shapes.Make(dtypes.Float32, 1, 2, 2, 1)
	output := make([]float32, outputShape.Size())

	require.NoError(t, AveragePool2D(input, inputShape, params, output, outputShape))
	assert.Equal(t, []float32{2.5, 4.5, 10.5, 12.5}, output)
}

func TestAveragePool2DPaddingExcluded(t *testing.T) {
	// With one cell of padding the corner windows cover a single input
	// value, so the average over the window equals that value.
	input := []float32{1, 2, 3, 4}
	inputShape := shapes.Make(dtypes.Float32, 1, 2, 2, 1)
	params := PoolingParams{
		PaddingLeft: 1, PaddingRight: 1, PaddingTop: 1, PaddingBottom: 1,
		StrideWidth: 2, StrideHeight: 2,
		FilterWidth: 2, FilterHeight: 2,
	}
	outputShape := shapes.Make(dtypes.Float32, 1, 2, 2, 1)
	output := make([]float32, outputShape.Size())

	require.NoError(t, AveragePool2D(input, inputShape, params, output, outputShape))
	assert.Equal(t, []float32{1, 2, 3, 4}, output)
}

func TestMaxPool2D(t *testing.T) {
	input := []float32{
		1, 3, 2, 4,
		5, 7, 6, 8,
		4, 2, 3, 1,
		8, 6, 7, 5,
	}
	inputShape := shapes.Make(dtypes.Float32, 1, 4, 4, 1)
	params := PoolingParams{
		StrideWidth: 2, StrideHeight: 2,
		FilterWidth: 2, FilterHeight: 2,
	}
	outputShape := shapes.Make(dtypes.Float32, 1, 2, 2, 1)
	output := make([]float32, outputShape.Size())

	require.NoError(t, MaxPool2D(input, inputShape, params, output, outputShape))
	assert.Equal(t, []float32{7, 8, 8, 7}, output)
}

func TestPoolingBufferValidation(t *testing.T) {
	inputShape := shapes.Make(dtypes.Float32, 1, 4, 4, 1)
	params := PoolingParams{
		StrideWidth: 2, StrideHeight: 2,
		FilterWidth: 2, FilterHeight: 2,
	}
	outputShape := shapes.Make(dtypes.Float32, 1, 2, 2, 1)
	input := make([]float32, inputShape.Size())
	output := make([]float32, outputShape.Size())

	err := MaxPool2D(input[:3], inputShape, params, output, outputShape)
	require.Error(t, err)

	err = MaxPool2D(input, inputShape, params, output, shapes.Make(dtypes.Float32, 1, 3, 3, 1))
	require.Error(t, err)
}

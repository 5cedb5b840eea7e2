package ops

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/edgerun-ml/edgerun/types/shapes"
	"github.com/gomlx/gopjrt/dtypes"
)

// PoolingParams are the explicit-padding 2D pooling parameters over an
// NHWC input.
type PoolingParams struct {
	PaddingLeft, PaddingRight int
	PaddingTop, PaddingBottom int
	StrideWidth, StrideHeight int
	FilterWidth, FilterHeight int
}

func (p PoolingParams) validate() error {
	if p.StrideWidth <= 0 || p.StrideHeight <= 0 {
		return errors.Errorf("strides must be positive, got %dx%d", p.StrideWidth, p.StrideHeight)
	}
	if p.FilterWidth <= 0 || p.FilterHeight <= 0 {
		return errors.Errorf("filter must be positive, got %dx%d", p.FilterWidth, p.FilterHeight)
	}
	if p.PaddingLeft < 0 || p.PaddingRight < 0 || p.PaddingTop < 0 || p.PaddingBottom < 0 {
		return errors.New("paddings must be non-negative")
	}
	return nil
}

func computeOutSize(size, filter, stride, paddingBefore, paddingAfter int) int {
	return (size-filter+paddingBefore+paddingAfter)/stride + 1
}

// PoolingOutputShape returns the NHWC output shape of a 2D pooling over
// input with the given parameters. The input must be rank 4 with known
// height and width.
func PoolingOutputShape(input shapes.Shape, p PoolingParams) (shapes.Shape, error) {
	if err := p.validate(); err != nil {
		return shapes.Invalid(), err
	}
	if input.Rank() != 4 {
		return shapes.Invalid(), errors.Errorf("pooling input must be rank-4 NHWC, got %s", input)
	}
	batches := input.Dim(0)
	height := input.Dim(1)
	width := input.Dim(2)
	channels := input.Dim(3)
	if height == shapes.UnknownDim || width == shapes.UnknownDim {
		return shapes.Invalid(), errors.Errorf("pooling input height and width must be known, got %s", input)
	}
	outHeight := computeOutSize(height, p.FilterHeight, p.StrideHeight, p.PaddingTop, p.PaddingBottom)
	outWidth := computeOutSize(width, p.FilterWidth, p.StrideWidth, p.PaddingLeft, p.PaddingRight)
	if outHeight <= 0 || outWidth <= 0 {
		return shapes.Invalid(), errors.Errorf("pooling window %dx%d does not fit input %s", p.FilterHeight, p.FilterWidth, input)
	}
	return shapes.Make(input.DType, batches, outHeight, outWidth, channels), nil
}

// poolFloat32 runs a 2D pooling with the given window reduction. The
// window values of one (batch, oh, ow, channel) position are gathered
// into scratch and reduced in one call.
func poolFloat32(input []float32, inputShape shapes.Shape, p PoolingParams,
	output []float32, outputShape shapes.Shape, reduce func([]float32) float32) error {
	if err := validatePoolingBuffers(input, inputShape, p, output, outputShape); err != nil {
		return err
	}
	batches, height, width, channels := inputShape.Dim(0), inputShape.Dim(1), inputShape.Dim(2), inputShape.Dim(3)
	outHeight, outWidth := outputShape.Dim(1), outputShape.Dim(2)

	scratch := make([]float32, 0, p.FilterHeight*p.FilterWidth)
	for b := 0; b < batches; b++ {
		for oh := 0; oh < outHeight; oh++ {
			hStart := oh*p.StrideHeight - p.PaddingTop
			for ow := 0; ow < outWidth; ow++ {
				wStart := ow*p.StrideWidth - p.PaddingLeft
				for c := 0; c < channels; c++ {
					scratch = scratch[:0]
					for h := max(hStart, 0); h < min(hStart+p.FilterHeight, height); h++ {
						for w := max(wStart, 0); w < min(wStart+p.FilterWidth, width); w++ {
							scratch = append(scratch, input[((b*height+h)*width+w)*channels+c])
						}
					}
					output[((b*outHeight+oh)*outWidth+ow)*channels+c] = reduce(scratch)
				}
			}
		}
	}
	return nil
}

func validatePoolingBuffers(input []float32, inputShape shapes.Shape, p PoolingParams,
	output []float32, outputShape shapes.Shape) error {
	want, err := PoolingOutputShape(inputShape, p)
	if err != nil {
		return err
	}
	if !want.Equal(outputShape) {
		return errors.Errorf("pooling output shape mismatch: want %s, got %s", want, outputShape)
	}
	if inputShape.DType != dtypes.Float32 {
		return errors.Errorf("reference pooling kernels only support %s, got %s", dtypes.Float32, inputShape.DType)
	}
	if len(input) != inputShape.Size() || len(output) != outputShape.Size() {
		return errors.Errorf("buffer sizes do not match shapes: input %d for %s, output %d for %s",
			len(input), inputShape, len(output), outputShape)
	}
	return nil
}

// AveragePool2D is the reference host kernel for average pooling. Padded
// positions are excluded from the average, matching the driver kernels.
func AveragePool2D(input []float32, inputShape shapes.Shape, p PoolingParams,
	output []float32, outputShape shapes.Shape) error {
	sum := make([]float64, 0, p.FilterHeight*p.FilterWidth)
	return poolFloat32(input, inputShape, p, output, outputShape, func(window []float32) float32 {
		if len(window) == 0 {
			return 0
		}
		sum = sum[:0]
		for _, v := range window {
			sum = append(sum, float64(v))
		}
		return float32(floats.Sum(sum) / float64(len(sum)))
	})
}

// MaxPool2D is the reference host kernel for max pooling.
func MaxPool2D(input []float32, inputShape shapes.Shape, p PoolingParams,
	output []float32, outputShape shapes.Shape) error {
	scratch := make([]float64, 0, p.FilterHeight*p.FilterWidth)
	return poolFloat32(input, inputShape, p, output, outputShape, func(window []float32) float32 {
		if len(window) == 0 {
			return 0
		}
		scratch = scratch[:0]
		for _, v := range window {
			scratch = append(scratch, float64(v))
		}
		return float32(floats.Max(scratch))
	})
}

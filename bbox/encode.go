// Package bbox - Conversion between bounding boxes and the offset/scale "loc"
// encoding regressed by region-proposal detectors.
//
// Given a source box with center (px, py) and size (pw, ph) and a destination
// box with center (gx, gy) and size (gw, gh), the encoding is
//
//	dx = (gx - px) / pw
//	dy = (gy - py) / ph
//	dw = log(gw / pw)
//	dh = log(gh / ph)
//
// Boxes are (x_min, y_min, x_max, y_max) rows of an (R, 4) tensor. Widths and
// heights of source boxes are divisors and are not guarded: zero or negative
// extents yield Inf or NaN.
package bbox

import (
	"math"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/go-evaluations/common"
)

// LocEncoder is implemented by tensor engines that compute the loc encoding
// on their own device. Encode hands the work to the source tensor's engine
// when it implements this interface.
type LocEncoder interface {
	EncodeLoc(src, dst tensor.Tensor) (tensor.Tensor, error)
}

// LocDecoder is the Decode counterpart of LocEncoder.
type LocDecoder interface {
	DecodeLoc(src, loc tensor.Tensor) (tensor.Tensor, error)
}

type float interface {
	~float32 | ~float64
}

// Encode computes the offsets and scales that move each src box onto the
// dst box in the same row.
//
// Arguments:
//   - src: (R, 4) Float32 or Float64 tensor of source boxes.
//   - dst: (R, 4) tensor of destination boxes with the same dtype.
//
// Returns:
//   - (R, 4) tensor of (dx, dy, dw, dh) rows, same dtype and engine as src.
//   - common.ErrShapeMismatch when the shapes are not (R, 4) or R differs.
//   - common.ErrInvalidArgument for unsupported or mixed dtypes.
//
// An empty (0, 4) pair yields an empty (0, 4) result.
//
// @example
//
//	src := tensor.New(tensor.WithShape(1, 4), tensor.WithBacking([]float64{0, 0, 10, 10}))
//	dst := tensor.New(tensor.WithShape(1, 4), tensor.WithBacking([]float64{5, 5, 15, 15}))
//	loc, _ := Encode(src, dst) // [[0.5 0.5 0 0]]
func Encode(src, dst tensor.Tensor) (tensor.Tensor, error) {
	if err := checkPair(src, dst); err != nil {
		return nil, errors.Wrap(err, "encode")
	}
	if enc, ok := src.Engine().(LocEncoder); ok {
		return enc.EncodeLoc(src, dst)
	}
	if src.Shape()[0] == 0 {
		return newLike(src, emptyBacking(src.Dtype())), nil
	}

	var loc interface{}
	switch s := hostData(src).(type) {
	case []float32:
		loc = encodeRows(s, hostData(dst).([]float32), math32.Log)
	case []float64:
		loc = encodeRows(s, hostData(dst).([]float64), math.Log)
	}
	return newLike(src, loc), nil
}

// Decode applies loc offsets and scales to src boxes, reversing Encode.
//
// Arguments:
//   - src: (R, 4) tensor of source boxes.
//   - loc: (R, 4) tensor of (dx, dy, dw, dh) rows with the same dtype.
//
// Returns:
//   - (R, 4) tensor of decoded boxes, same dtype and engine as src.
//   - The same errors as Encode.
func Decode(src, loc tensor.Tensor) (tensor.Tensor, error) {
	if err := checkPair(src, loc); err != nil {
		return nil, errors.Wrap(err, "decode")
	}
	if dec, ok := src.Engine().(LocDecoder); ok {
		return dec.DecodeLoc(src, loc)
	}
	if src.Shape()[0] == 0 {
		return newLike(src, emptyBacking(src.Dtype())), nil
	}

	var dst interface{}
	switch s := hostData(src).(type) {
	case []float32:
		dst = decodeRows(s, hostData(loc).([]float32), math32.Exp)
	case []float64:
		dst = decodeRows(s, hostData(loc).([]float64), math.Exp)
	}
	return newLike(src, dst), nil
}

func encodeRows[T float](src, dst []T, log func(T) T) []T {
	loc := make([]T, len(src))
	for i := 0; i < len(src); i += 4 {
		w := src[i+2] - src[i]
		h := src[i+3] - src[i+1]
		cx := src[i] + 0.5*w
		cy := src[i+1] + 0.5*h

		bw := dst[i+2] - dst[i]
		bh := dst[i+3] - dst[i+1]
		bcx := dst[i] + 0.5*bw
		bcy := dst[i+1] + 0.5*bh

		loc[i] = (bcx - cx) / w
		loc[i+1] = (bcy - cy) / h
		loc[i+2] = log(bw / w)
		loc[i+3] = log(bh / h)
	}
	return loc
}

func decodeRows[T float](src, loc []T, exp func(T) T) []T {
	dst := make([]T, len(src))
	for i := 0; i < len(src); i += 4 {
		w := src[i+2] - src[i]
		h := src[i+3] - src[i+1]
		cx := src[i] + 0.5*w
		cy := src[i+1] + 0.5*h

		ncx := loc[i]*w + cx
		ncy := loc[i+1]*h + cy
		nw := exp(loc[i+2]) * w
		nh := exp(loc[i+3]) * h

		dst[i] = ncx - 0.5*nw
		dst[i+1] = ncy - 0.5*nh
		dst[i+2] = ncx + 0.5*nw
		dst[i+3] = ncy + 0.5*nh
	}
	return dst
}

// checkPair validates that a and b are (R, 4) float tensors of one dtype.
func checkPair(a, b tensor.Tensor) error {
	sa, sb := a.Shape(), b.Shape()
	if len(sa) != 2 || sa[1] != 4 || len(sb) != 2 || sb[1] != 4 {
		return errors.Wrapf(common.ErrShapeMismatch, "expected (R, 4) boxes, got %v and %v", sa, sb)
	}
	if sa[0] != sb[0] {
		return errors.Wrapf(common.ErrShapeMismatch, "box counts differ: %d vs %d", sa[0], sb[0])
	}
	if a.Dtype() != b.Dtype() {
		return errors.Wrapf(common.ErrInvalidArgument, "dtypes differ: %v vs %v", a.Dtype(), b.Dtype())
	}
	if a.Dtype() != tensor.Float32 && a.Dtype() != tensor.Float64 {
		return errors.Wrapf(common.ErrInvalidArgument, "unsupported dtype %v", a.Dtype())
	}
	return nil
}

// hostData returns the contiguous backing slice of t, copying views first.
func hostData(t tensor.Tensor) interface{} {
	if v, ok := t.(tensor.View); ok && v.IsView() {
		return v.Materialize().Data()
	}
	return t.Data()
}

// emptyBacking returns a zero-length slice of the given float dtype.
func emptyBacking(dt tensor.Dtype) interface{} {
	if dt == tensor.Float32 {
		return []float32{}
	}
	return []float64{}
}

func newLike(like tensor.Tensor, backing interface{}) *tensor.Dense {
	return tensor.New(
		tensor.WithShape(like.Shape().Clone()...),
		tensor.WithBacking(backing),
		tensor.WithEngine(like.Engine()),
	)
}

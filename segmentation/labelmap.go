package segmentation

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/go-evaluations/common"
)

// IgnoreLabel marks pixels that are excluded from every statistic.
//
// Any ground-truth value outside [0, n_class) is excluded as well; IgnoreLabel
// is the conventional value datasets use for unlabeled regions.
const IgnoreLabel = -1

type integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32
}

// NewLabelMap builds a 2-D Int label map from equal-length rows.
//
// Arguments:
// - rows: Class ids per pixel, row-major; IgnoreLabel for unlabeled pixels.
//
// Returns:
// - The (H, W) label map.
// - common.ErrShapeMismatch if the rows are ragged or empty.
//
// @example
// gt, err := NewLabelMap([][]int{{1, 0, 0}, {0, IgnoreLabel, 1}})
func NewLabelMap(rows [][]int) (*tensor.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, errors.Wrap(common.ErrShapeMismatch, "label map has no pixels")
	}
	w := len(rows[0])
	backing := make([]int, 0, len(rows)*w)
	for i, r := range rows {
		if len(r) != w {
			return nil, errors.Wrapf(common.ErrShapeMismatch, "row %d has %d pixels, want %d", i, len(r), w)
		}
		backing = append(backing, r...)
	}
	return tensor.New(tensor.WithShape(len(rows), w), tensor.WithBacking(backing)), nil
}

// SplitStack splits a (K, H, W) stack of label maps into K (H, W) maps.
// A 2-D map is returned as a stack of one.
func SplitStack(t tensor.Tensor) ([]tensor.Tensor, error) {
	switch t.Dims() {
	case 2:
		return []tensor.Tensor{t}, nil
	case 3:
		k := t.Shape()[0]
		maps := make([]tensor.Tensor, k)
		for i := range maps {
			v, err := t.Slice(tensor.S(i))
			if err != nil {
				return nil, errors.Wrapf(err, "slice map %d", i)
			}
			maps[i] = v
		}
		return maps, nil
	default:
		return nil, errors.Wrapf(common.ErrShapeMismatch, "expected (H, W) or (K, H, W) labels, got %v", t.Shape())
	}
}

// labelsOf returns the pixels of a label map as ints, in row-major order.
func labelsOf(t tensor.Tensor) ([]int, error) {
	var data interface{}
	if v, ok := t.(tensor.View); ok && v.IsView() {
		data = v.Materialize().Data()
	} else {
		data = t.Data()
	}

	switch d := data.(type) {
	case []int:
		return d, nil
	case []int64:
		return widen(d), nil
	case []int32:
		return widen(d), nil
	case []int16:
		return widen(d), nil
	case []int8:
		return widen(d), nil
	case []uint8:
		return widen(d), nil
	case []uint16:
		return widen(d), nil
	case []uint32:
		return widen(d), nil
	case int:
		// single-pixel maps may come back as a scalar
		return []int{d}, nil
	case int64:
		return []int{int(d)}, nil
	default:
		return nil, errors.Wrapf(common.ErrInvalidArgument, "label maps must hold integers, got %v", t.Dtype())
	}
}

func widen[T integer](s []T) []int {
	out := make([]int, len(s))
	for i, v := range s {
		out[i] = int(v)
	}
	return out
}

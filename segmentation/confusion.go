// Package segmentation - Pixel-level evaluation of semantic segmentation.
//
// Predicted and ground-truth label maps are accumulated into a confusion
// matrix, from which pixel accuracy, per-class accuracy, per-class IoU and
// frequency-weighted IoU are derived. Ratios that are undefined because a
// class never occurs are NaN; they are data, not errors.
package segmentation

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/go-evaluations/common"
)

// ConfusionCounter is implemented by tensor engines that can build the
// confusion counts of a label-map pair on their own device.
//
// CountConfusion returns nClass*nClass counts in row-major [gt, pred] order,
// with ground-truth pixels outside [0, nClass) excluded.
type ConfusionCounter interface {
	CountConfusion(pred, gt tensor.Tensor, nClass int) ([]int64, error)
}

// ConfusionMatrix counts pixels by (ground-truth class, predicted class).
//
// Entry [i, j] is the number of pixels whose ground truth is i and whose
// prediction is j. A ConfusionMatrix is not safe for concurrent use.
type ConfusionMatrix struct {
	n      int
	counts *mat.Dense
}

// NewConfusionMatrix returns an empty nClass x nClass matrix.
//
// Arguments:
// - nClass: The number of valid classes, at least 1.
//
// Returns:
// - The zeroed matrix.
// - common.ErrInvalidArgument if nClass is not positive.
func NewConfusionMatrix(nClass int) (*ConfusionMatrix, error) {
	if nClass <= 0 {
		return nil, errors.Wrapf(common.ErrInvalidArgument, "n_class must be positive, got %d", nClass)
	}
	return &ConfusionMatrix{n: nClass, counts: mat.NewDense(nClass, nClass, nil)}, nil
}

// NumClasses returns n_class.
func (c *ConfusionMatrix) NumClasses() int {
	return c.n
}

// Add counts every valid pixel of one prediction/ground-truth pair.
//
// The pair is counted on the ground truth's engine when that engine
// implements ConfusionCounter, and on the host otherwise. The matrix is left
// unchanged when an error is returned.
//
// Arguments:
// - pred: (H, W) integer map of predicted class ids.
// - gt: (H, W) integer map of ground-truth class ids.
//
// Returns:
// - common.ErrShapeMismatch if the maps are not 2-D or differ in shape.
// - common.ErrInvalidArgument for non-integer maps or a counted pixel whose
// prediction is outside [0, n_class).
func (c *ConfusionMatrix) Add(pred, gt tensor.Tensor) error {
	if gt.Dims() != 2 {
		return errors.Wrapf(common.ErrShapeMismatch, "label maps must be 2-D, got %v", gt.Shape())
	}
	if !pred.Shape().Eq(gt.Shape()) {
		return errors.Wrapf(common.ErrShapeMismatch, "pred %v vs gt %v", pred.Shape(), gt.Shape())
	}

	var (
		counts []int64
		err    error
	)
	if cc, ok := gt.Engine().(ConfusionCounter); ok {
		counts, err = cc.CountConfusion(pred, gt, c.n)
		if err == nil && len(counts) != c.n*c.n {
			err = errors.Errorf("engine returned %d counts, want %d", len(counts), c.n*c.n)
		}
	} else {
		counts, err = c.hostCount(pred, gt)
	}
	if err != nil {
		return err
	}

	for i := 0; i < c.n; i++ {
		row := c.counts.RawRowView(i)
		for j, v := range counts[i*c.n : (i+1)*c.n] {
			row[j] += float64(v)
		}
	}
	return nil
}

// hostCount is a bincount over gt*n + pred for pixels with gt in [0, n).
func (c *ConfusionMatrix) hostCount(pred, gt tensor.Tensor) ([]int64, error) {
	p, err := labelsOf(pred)
	if err != nil {
		return nil, errors.Wrap(err, "pred")
	}
	g, err := labelsOf(gt)
	if err != nil {
		return nil, errors.Wrap(err, "gt")
	}

	counts := make([]int64, c.n*c.n)
	for i, gv := range g {
		if gv < 0 || gv >= c.n {
			continue
		}
		pv := p[i]
		if pv < 0 || pv >= c.n {
			return nil, errors.Wrapf(common.ErrInvalidArgument,
				"predicted label %d at pixel %d is outside [0, %d)", pv, i, c.n)
		}
		counts[gv*c.n+pv]++
	}
	return counts, nil
}

// At returns the number of pixels of ground-truth class gt predicted as pred.
func (c *ConfusionMatrix) At(gt, pred int) float64 {
	return c.counts.At(gt, pred)
}

// Total returns the number of counted pixels.
func (c *ConfusionMatrix) Total() float64 {
	return mat.Sum(c.counts)
}

// Trace returns the number of correctly predicted pixels.
func (c *ConfusionMatrix) Trace() float64 {
	return mat.Trace(c.counts)
}

// Matrix returns a copy of the counts.
func (c *ConfusionMatrix) Matrix() *mat.Dense {
	return mat.DenseCopyOf(c.counts)
}

// Merge adds the counts of o, which must have the same number of classes.
func (c *ConfusionMatrix) Merge(o *ConfusionMatrix) error {
	if o.n != c.n {
		return errors.Wrapf(common.ErrInvalidArgument, "cannot merge %d-class counts into %d classes", o.n, c.n)
	}
	c.counts.Add(c.counts, o.counts)
	return nil
}

// Reset zeroes every count.
func (c *ConfusionMatrix) Reset() {
	c.counts.Zero()
}

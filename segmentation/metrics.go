package segmentation

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/nvr-ai/go-evaluations/common"
	"github.com/nvr-ai/go-evaluations/labels"
)

// Result holds the statistics derived from one confusion matrix.
type Result struct {
	// Accuracy is trace / total: the fraction of counted pixels predicted correctly.
	Accuracy float64
	// ClassAccuracy[i] is the recall of class i, NaN if class i never occurs in the ground truth.
	ClassAccuracy []float64
	// IoU[i] is the intersection over union of class i, NaN if class i occurs nowhere.
	IoU []float64
	// FWAVAcc is the IoU averaged with weights proportional to ground-truth class frequency.
	FWAVAcc float64
}

// ClassMetric is one named row of a per-class report.
type ClassMetric struct {
	Index    int
	Name     string
	Accuracy float64
	IoU      float64
}

// Metrics derives the Result of the counts accumulated so far.
//
// Every division is checked: 0/0 becomes NaN, so an empty matrix yields NaN
// accuracies and a zero FWAVAcc.
func (c *ConfusionMatrix) Metrics() *Result {
	n := c.n
	total := c.Total()

	res := &Result{
		Accuracy:      ratio(c.Trace(), total),
		ClassAccuracy: make([]float64, n),
		IoU:           make([]float64, n),
	}

	col := make([]float64, n)
	for i := 0; i < n; i++ {
		tp := c.counts.At(i, i)
		rowSum := floats.Sum(c.counts.RawRowView(i))
		colSum := floats.Sum(mat.Col(col, i, c.counts))

		res.ClassAccuracy[i] = ratio(tp, rowSum)
		res.IoU[i] = ratio(tp, rowSum+colSum-tp)

		// classes absent from the ground truth carry no weight
		if rowSum > 0 && !math.IsNaN(res.IoU[i]) {
			res.FWAVAcc += rowSum / total * res.IoU[i]
		}
	}
	return res
}

// MeanClassAccuracy returns the mean of ClassAccuracy over classes where it is defined.
func (r *Result) MeanClassAccuracy() float64 {
	return nanMean(r.ClassAccuracy)
}

// MeanIoU returns the mean of IoU over classes where it is defined.
func (r *Result) MeanIoU() float64 {
	return nanMean(r.IoU)
}

// Replicate returns the four summary values repeated k times each.
//
// The statistics of a batch come from one shared confusion matrix, so every
// map pair reports the same values.
//
// Returns:
// - acc: Accuracy per pair.
// - accCls: MeanClassAccuracy per pair.
// - meanIoU: MeanIoU per pair.
// - fwavacc: FWAVAcc per pair.
func (r *Result) Replicate(k int) (acc, accCls, meanIoU, fwavacc []float64) {
	acc, accCls, meanIoU, fwavacc = make([]float64, k), make([]float64, k), make([]float64, k), make([]float64, k)
	mc, mi := r.MeanClassAccuracy(), r.MeanIoU()
	for i := 0; i < k; i++ {
		acc[i], accCls[i], meanIoU[i], fwavacc[i] = r.Accuracy, mc, mi, r.FWAVAcc
	}
	return acc, accCls, meanIoU, fwavacc
}

// PerClass names the per-class values with set.
//
// Returns:
// - One ClassMetric per class.
// - common.ErrInvalidArgument if set does not have exactly as many classes as the result.
func (r *Result) PerClass(set *labels.Set) ([]ClassMetric, error) {
	if set.Len() != len(r.IoU) {
		return nil, errors.Wrapf(common.ErrInvalidArgument,
			"label set %q has %d classes, result has %d", set.Name, set.Len(), len(r.IoU))
	}
	rows := make([]ClassMetric, len(r.IoU))
	for i, c := range set.Classes {
		rows[i] = ClassMetric{Index: c.Index, Name: c.Name, Accuracy: r.ClassAccuracy[i], IoU: r.IoU[i]}
	}
	return rows, nil
}

func (r *Result) String() string {
	return fmt.Sprintf("pixel accuracy %.4f, mean class accuracy %.4f, mean IoU %.4f, fwavacc %.4f",
		r.Accuracy, r.MeanClassAccuracy(), r.MeanIoU(), r.FWAVAcc)
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return math.NaN()
	}
	return num / den
}

// nanMean is the mean of the non-NaN values of s, NaN if there are none.
func nanMean(s []float64) float64 {
	var sum float64
	var n int
	for _, v := range s {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

package segmentation

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/go-evaluations/common"
)

// Evaluate scores a single predicted label map against its ground truth.
//
// Arguments:
//   - pred: (H, W) map of predicted class ids.
//   - gt: (H, W) map of ground-truth class ids; IgnoreLabel pixels are skipped.
//   - nClass: The number of classes.
//
// Returns:
//   - The metrics of the pair.
//   - An error as described for EvaluateBatch.
//
// @example
//
//	pred, _ := NewLabelMap([][]int{{1, 1, 0}, {0, 0, 1}})
//	gt, _ := NewLabelMap([][]int{{1, 0, 0}, {0, IgnoreLabel, 1}})
//	res, err := Evaluate(pred, gt, 2)
//	// res.Accuracy == 0.8
func Evaluate(pred, gt tensor.Tensor, nClass int) (*Result, error) {
	return EvaluateBatch([]tensor.Tensor{pred}, []tensor.Tensor{gt}, nClass)
}

// EvaluateBatch accumulates every pair into one confusion matrix and derives
// the metrics once for the whole batch.
//
// Arguments:
//   - preds: Predicted label maps.
//   - gts: Ground-truth label maps, preds[i] paired with gts[i].
//   - nClass: The number of classes.
//
// Returns:
//   - The metrics of the batch.
//   - common.ErrInvalidArgument if nClass is not positive (checked first).
//   - common.ErrCountMismatch if the slices differ in length.
//   - common.ErrShapeMismatch if a pair differs in shape.
func EvaluateBatch(preds, gts []tensor.Tensor, nClass int) (*Result, error) {
	cm, err := NewConfusionMatrix(nClass)
	if err != nil {
		return nil, err
	}
	if err := accumulate(cm, preds, gts); err != nil {
		return nil, err
	}
	return cm.Metrics(), nil
}

// EvaluateSemanticSegmentation evaluates k label-map pairs and reports each
// summary value once per pair.
//
// The values come from a single confusion matrix shared by the batch, so the
// k entries of each slice are identical.
//
// Returns:
//   - acc: Pixel accuracy.
//   - accCls: Mean class accuracy, ignoring classes absent from the ground truth.
//   - meanIoU: Mean IoU, ignoring classes absent from both maps.
//   - fwavacc: Frequency-weighted IoU.
//   - err: As described for EvaluateBatch.
func EvaluateSemanticSegmentation(preds, gts []tensor.Tensor, nClass int) (acc, accCls, meanIoU, fwavacc []float64, err error) {
	res, err := EvaluateBatch(preds, gts, nClass)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	acc, accCls, meanIoU, fwavacc = res.Replicate(len(preds))
	return acc, accCls, meanIoU, fwavacc, nil
}

// EvaluateStack evaluates pred against gt where each is a single (H, W) map
// or a (K, H, W) stack of maps.
func EvaluateStack(pred, gt tensor.Tensor, nClass int) (*Result, error) {
	cm, err := NewConfusionMatrix(nClass)
	if err != nil {
		return nil, err
	}
	preds, err := SplitStack(pred)
	if err != nil {
		return nil, errors.Wrap(err, "pred")
	}
	gts, err := SplitStack(gt)
	if err != nil {
		return nil, errors.Wrap(err, "gt")
	}
	if err := accumulate(cm, preds, gts); err != nil {
		return nil, err
	}
	return cm.Metrics(), nil
}

func accumulate(cm *ConfusionMatrix, preds, gts []tensor.Tensor) error {
	if len(preds) != len(gts) {
		return errors.Wrapf(common.ErrCountMismatch, "%d predictions vs %d ground truths", len(preds), len(gts))
	}
	for i := range preds {
		if err := cm.Add(preds[i], gts[i]); err != nil {
			return errors.Wrapf(err, "pair %d", i)
		}
	}
	return nil
}

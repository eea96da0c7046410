package bbox

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-evaluations/common"
)

// Loc is the (dx, dy, dw, dh) encoding of one source/destination box pair.
type Loc struct {
	DX, DY, DW, DH float32
}

func (l Loc) String() string {
	return fmt.Sprintf("Loc(dx=%.4f, dy=%.4f, dw=%.4f, dh=%.4f)", l.DX, l.DY, l.DW, l.DH)
}

// EncodeBox encodes a single pair of boxes.
//
// Arguments:
// - src: The reference box whose extent normalizes the offsets.
// - dst: The target box.
//
// Returns:
// - The loc encoding of dst relative to src.
//
// @example
// loc := EncodeBox(common.BoundingBox{X2: 10, Y2: 10}, common.BoundingBox{X1: 5, Y1: 5, X2: 15, Y2: 15})
// // Loc{DX: 0.5, DY: 0.5, DW: 0, DH: 0}
func EncodeBox(src, dst common.BoundingBox) Loc {
	w, h := src.Width(), src.Height()
	cx, cy := src.Center()
	bw, bh := dst.Width(), dst.Height()
	bcx, bcy := dst.Center()

	return Loc{
		DX: (bcx - cx) / w,
		DY: (bcy - cy) / h,
		DW: math32.Log(bw / w),
		DH: math32.Log(bh / h),
	}
}

// DecodeBox applies loc to src. The label and confidence of src are carried over.
func DecodeBox(src common.BoundingBox, loc Loc) common.BoundingBox {
	w, h := src.Width(), src.Height()
	cx, cy := src.Center()

	ncx := loc.DX*w + cx
	ncy := loc.DY*h + cy
	nw := math32.Exp(loc.DW) * w
	nh := math32.Exp(loc.DH) * h

	out := src
	out.X1, out.Y1 = ncx-0.5*nw, ncy-0.5*nh
	out.X2, out.Y2 = ncx+0.5*nw, ncy+0.5*nh
	return out
}

// EncodeBoxes encodes src[i] against dst[i] for every i.
func EncodeBoxes(src, dst []common.BoundingBox) ([]Loc, error) {
	if len(src) != len(dst) {
		return nil, errors.Wrapf(common.ErrShapeMismatch, "box counts differ: %d vs %d", len(src), len(dst))
	}
	locs := make([]Loc, len(src))
	for i := range src {
		locs[i] = EncodeBox(src[i], dst[i])
	}
	return locs, nil
}

// DecodeBoxes applies locs[i] to src[i] for every i.
func DecodeBoxes(src []common.BoundingBox, locs []Loc) ([]common.BoundingBox, error) {
	if len(src) != len(locs) {
		return nil, errors.Wrapf(common.ErrShapeMismatch, "box and loc counts differ: %d vs %d", len(src), len(locs))
	}
	out := make([]common.BoundingBox, len(src))
	for i := range src {
		out[i] = DecodeBox(src[i], locs[i])
	}
	return out, nil
}

// Target is the regression target of one source box.
type Target struct {
	// Loc moves the source box onto its matched ground-truth box.
	Loc Loc
	// GT is the index of the matched ground-truth box.
	GT int
	// IoU is the overlap between the source box and the matched box.
	IoU float32
}

// AssignTargets matches every src box to the gts box it overlaps most and
// encodes it against that box.
//
// Ties go to the lower gts index, so a source box that overlaps nothing is
// matched to gts[0] with an IoU of 0. Callers split foreground from background
// by thresholding Target.IoU.
//
// Arguments:
// - src: Proposal or anchor boxes.
// - gts: Ground-truth boxes, at least one when src is not empty.
//
// Returns:
// - One Target per src box, in src order.
// - common.ErrInvalidArgument when src is not empty and gts is.
//
// @example
// targets, err := AssignTargets(proposals, groundTruth)
// // targets[i].IoU >= 0.5 marks proposal i as foreground with regression target targets[i].Loc
func AssignTargets(src, gts []common.BoundingBox) ([]Target, error) {
	if len(src) > 0 && len(gts) == 0 {
		return nil, errors.Wrapf(common.ErrInvalidArgument, "%d boxes but no ground truth to assign", len(src))
	}

	targets := make([]Target, len(src))
	for i := range src {
		best, bestIoU := 0, float32(-1)
		for j := range gts {
			if iou := src[i].IoU(&gts[j]); iou > bestIoU {
				best, bestIoU = j, iou
			}
		}
		targets[i] = Target{
			Loc: EncodeBox(src[i], gts[best]),
			GT:  best,
			IoU: bestIoU,
		}
	}
	return targets, nil
}

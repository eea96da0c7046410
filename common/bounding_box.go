package common

import (
	"fmt"

	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// BoundingBox represents a bounding box with its label, confidence, and coordinates.
//
// (X1, Y1) is the top-left corner and (X2, Y2) the bottom-right corner in image
// coordinates.
type BoundingBox struct {
	Label          string
	Confidence     float32
	X1, Y1, X2, Y2 float32
}

func (b *BoundingBox) String() string {
	return fmt.Sprintf("Object %s (confidence %f): (%.2f, %.2f), (%.2f, %.2f)",
		b.Label, b.Confidence, b.X1, b.Y1, b.X2, b.Y2)
}

// Width returns X2 - X1.
func (b *BoundingBox) Width() float32 {
	return b.X2 - b.X1
}

// Height returns Y2 - Y1.
func (b *BoundingBox) Height() float32 {
	return b.Y2 - b.Y1
}

// Center returns the center point of the box.
//
// Returns:
// - cx: X1 + Width/2.
// - cy: Y1 + Height/2.
//
// @example
// box := BoundingBox{X1: 0, Y1: 0, X2: 10, Y2: 20}
// cx, cy := box.Center() // 5, 10
func (b *BoundingBox) Center() (float32, float32) {
	return b.X1 + 0.5*b.Width(), b.Y1 + 0.5*b.Height()
}

// Area returns the area of the box, or 0 for degenerate boxes.
func (b *BoundingBox) Area() float32 {
	w, h := b.Width(), b.Height()
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// Intersection calculates the intersection area between two bounding boxes.
//
// Arguments:
// - other: The other bounding box to calculate intersection with.
//
// Returns:
// - The area of intersection, 0 when the boxes do not overlap.
//
// @example
// box1 := BoundingBox{X1: 0, Y1: 0, X2: 100, Y2: 100}
// box2 := BoundingBox{X1: 50, Y1: 50, X2: 150, Y2: 150}
// area := box1.Intersection(&box2) // Returns 2500.0 (50x50 overlap)
func (b *BoundingBox) Intersection(other *BoundingBox) float32 {
	iw := min(b.X2, other.X2) - max(b.X1, other.X1)
	ih := min(b.Y2, other.Y2) - max(b.Y1, other.Y1)
	if iw <= 0 || ih <= 0 {
		return 0
	}
	return iw * ih
}

// Union calculates the union area between two bounding boxes.
func (b *BoundingBox) Union(other *BoundingBox) float32 {
	return b.Area() + other.Area() - b.Intersection(other)
}

// IoU calculates the Intersection over Union between two bounding boxes.
//
// Returns:
// - The IoU value between 0 and 1, or 0 when both boxes are empty.
//
// @example
// box1 := BoundingBox{X1: 0, Y1: 0, X2: 100, Y2: 100}
// box2 := BoundingBox{X1: 50, Y1: 50, X2: 150, Y2: 150}
// iou := box1.IoU(&box2) // Returns ~0.143 (2500/17500)
func (b *BoundingBox) IoU(other *BoundingBox) float32 {
	union := b.Union(other)
	if union <= 0 {
		return 0
	}
	return b.Intersection(other) / union
}

// BoxesToTensor packs boxes into an (R, 4) tensor of (x_min, y_min, x_max, y_max) rows.
//
// Arguments:
// - boxes: The boxes to pack. No boxes yield a (0, 4) tensor.
// - dt: tensor.Float32 or tensor.Float64.
//
// Returns:
// - The (R, 4) dense tensor.
// - ErrInvalidArgument for an unsupported dtype.
//
// @example
// t, err := BoxesToTensor([]BoundingBox{{X1: 0, Y1: 0, X2: 10, Y2: 10}}, tensor.Float64)
func BoxesToTensor(boxes []BoundingBox, dt tensor.Dtype) (*tensor.Dense, error) {
	switch dt {
	case tensor.Float32:
		backing := make([]float32, 0, 4*len(boxes))
		for _, b := range boxes {
			backing = append(backing, b.X1, b.Y1, b.X2, b.Y2)
		}
		return tensor.New(tensor.WithShape(len(boxes), 4), tensor.WithBacking(backing)), nil
	case tensor.Float64:
		backing := make([]float64, 0, 4*len(boxes))
		for _, b := range boxes {
			backing = append(backing, float64(b.X1), float64(b.Y1), float64(b.X2), float64(b.Y2))
		}
		return tensor.New(tensor.WithShape(len(boxes), 4), tensor.WithBacking(backing)), nil
	default:
		return nil, errors.Wrapf(ErrInvalidArgument, "unsupported box dtype %v", dt)
	}
}

// BoxesFromTensor unpacks an (R, 4) Float32 or Float64 tensor into boxes.
//
// Labels and confidences of the returned boxes are left empty.
func BoxesFromTensor(t tensor.Tensor) ([]BoundingBox, error) {
	shape := t.Shape()
	if len(shape) != 2 || shape[1] != 4 {
		return nil, errors.Wrapf(ErrShapeMismatch, "expected (R, 4) boxes, got %v", shape)
	}
	if v, ok := t.(tensor.View); ok && v.IsView() {
		t = v.Materialize()
	}

	boxes := make([]BoundingBox, shape[0])
	switch data := t.Data().(type) {
	case []float32:
		for i := range boxes {
			row := data[4*i : 4*i+4]
			boxes[i] = BoundingBox{X1: row[0], Y1: row[1], X2: row[2], Y2: row[3]}
		}
	case []float64:
		for i := range boxes {
			row := data[4*i : 4*i+4]
			boxes[i] = BoundingBox{
				X1: float32(row[0]), Y1: float32(row[1]),
				X2: float32(row[2]), Y2: float32(row[3]),
			}
		}
	default:
		return nil, errors.Wrapf(ErrInvalidArgument, "unsupported box dtype %v", t.Dtype())
	}
	return boxes, nil
}

package bbox

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/go-evaluations/common"
)

// TestEncodeBox verifies the single-box float32 encoding.
func TestEncodeBox(t *testing.T) {
	tests := []struct {
		name     string
		src      common.BoundingBox
		dst      common.BoundingBox
		expected Loc
	}{
		{
			name:     "shifted by half a box",
			src:      common.BoundingBox{X1: 0, Y1: 0, X2: 10, Y2: 10},
			dst:      common.BoundingBox{X1: 5, Y1: 5, X2: 15, Y2: 15},
			expected: Loc{DX: 0.5, DY: 0.5},
		},
		{
			name:     "half the width, same center",
			src:      common.BoundingBox{X1: 0, Y1: 0, X2: 8, Y2: 8},
			dst:      common.BoundingBox{X1: 2, Y1: 0, X2: 6, Y2: 8},
			expected: Loc{DW: math32.Log(0.5)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc := EncodeBox(tt.src, tt.dst)
			assert.InDelta(t, tt.expected.DX, loc.DX, 1e-6)
			assert.InDelta(t, tt.expected.DY, loc.DY, 1e-6)
			assert.InDelta(t, tt.expected.DW, loc.DW, 1e-6)
			assert.InDelta(t, tt.expected.DH, loc.DH, 1e-6)
		})
	}
}

// TestDecodeBoxRoundTrip decodes an encoded pair and keeps the source label.
func TestDecodeBoxRoundTrip(t *testing.T) {
	src := common.BoundingBox{Label: "person", Confidence: 0.9, X1: 12, Y1: 40, X2: 80, Y2: 200}
	dst := common.BoundingBox{X1: 20, Y1: 35, X2: 95, Y2: 180}

	got := DecodeBox(src, EncodeBox(src, dst))
	assert.InDelta(t, dst.X1, got.X1, 1e-3)
	assert.InDelta(t, dst.Y1, got.Y1, 1e-3)
	assert.InDelta(t, dst.X2, got.X2, 1e-3)
	assert.InDelta(t, dst.Y2, got.Y2, 1e-3)
	assert.Equal(t, "person", got.Label)
}

// TestEncodeBoxesMatchesTensor checks the struct and tensor paths agree.
func TestEncodeBoxesMatchesTensor(t *testing.T) {
	src := []common.BoundingBox{{X1: 0, Y1: 0, X2: 10, Y2: 10}, {X1: 3, Y1: 1, X2: 7, Y2: 9}}
	dst := []common.BoundingBox{{X1: 5, Y1: 5, X2: 15, Y2: 15}, {X1: 2, Y1: 2, X2: 9, Y2: 6}}

	locs, err := EncodeBoxes(src, dst)
	require.NoError(t, err)

	st, err := common.BoxesToTensor(src, tensor.Float32)
	require.NoError(t, err)
	dt, err := common.BoxesToTensor(dst, tensor.Float32)
	require.NoError(t, err)
	loc, err := Encode(st, dt)
	require.NoError(t, err)

	data := loc.Data().([]float32)
	for i, l := range locs {
		assert.InDeltaSlice(t, []float32{l.DX, l.DY, l.DW, l.DH}, data[4*i:4*i+4], 1e-6)
	}

	back, err := DecodeBoxes(src, locs)
	require.NoError(t, err)
	for i := range dst {
		assert.InDelta(t, dst[i].X2, back[i].X2, 1e-4)
		assert.InDelta(t, dst[i].Y1, back[i].Y1, 1e-4)
	}
}

// TestEncodeBoxesCountMismatch checks unequal slices fail with ErrShapeMismatch.
func TestEncodeBoxesCountMismatch(t *testing.T) {
	_, err := EncodeBoxes(make([]common.BoundingBox, 2), make([]common.BoundingBox, 1))
	assert.True(t, errors.Is(err, common.ErrShapeMismatch))

	_, err = DecodeBoxes(make([]common.BoundingBox, 2), make([]Loc, 3))
	assert.True(t, errors.Is(err, common.ErrShapeMismatch))
}

// TestAssignTargets verifies best-overlap matching and the encoded targets.
func TestAssignTargets(t *testing.T) {
	gts := []common.BoundingBox{
		{Label: "car", X1: 0, Y1: 0, X2: 10, Y2: 10},
		{Label: "person", X1: 20, Y1: 20, X2: 30, Y2: 30},
	}

	tests := []struct {
		name     string
		src      common.BoundingBox
		expected Target
	}{
		{
			name:     "exact match",
			src:      common.BoundingBox{X1: 0, Y1: 0, X2: 10, Y2: 10},
			expected: Target{GT: 0, IoU: 1},
		},
		{
			name: "partial overlap with the second box",
			src:  common.BoundingBox{X1: 20, Y1: 20, X2: 40, Y2: 40},
			expected: Target{
				Loc: Loc{DX: -0.25, DY: -0.25, DW: math32.Log(0.5), DH: math32.Log(0.5)},
				GT:  1,
				IoU: 0.25,
			},
		},
		{
			name:     "no overlap falls back to the first box",
			src:      common.BoundingBox{X1: 100, Y1: 100, X2: 110, Y2: 110},
			expected: Target{Loc: Loc{DX: -10, DY: -10}, GT: 0, IoU: 0},
		},
	}

	src := make([]common.BoundingBox, len(tests))
	for i, tt := range tests {
		src[i] = tt.src
	}
	targets, err := AssignTargets(src, gts)
	require.NoError(t, err)
	require.Len(t, targets, len(tests))

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := targets[i]
			assert.Equal(t, tt.expected.GT, got.GT)
			assert.InDelta(t, tt.expected.IoU, got.IoU, 1e-6)
			assert.InDelta(t, tt.expected.Loc.DX, got.Loc.DX, 1e-6)
			assert.InDelta(t, tt.expected.Loc.DY, got.Loc.DY, 1e-6)
			assert.InDelta(t, tt.expected.Loc.DW, got.Loc.DW, 1e-6)
			assert.InDelta(t, tt.expected.Loc.DH, got.Loc.DH, 1e-6)

			decoded := DecodeBox(tt.src, got.Loc)
			want := gts[got.GT]
			assert.InDelta(t, want.X1, decoded.X1, 1e-4)
			assert.InDelta(t, want.Y1, decoded.Y1, 1e-4)
			assert.InDelta(t, want.X2, decoded.X2, 1e-4)
			assert.InDelta(t, want.Y2, decoded.Y2, 1e-4)
		})
	}
}

func TestAssignTargetsEmpty(t *testing.T) {
	targets, err := AssignTargets(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, targets)

	_, err = AssignTargets([]common.BoundingBox{{X2: 1, Y2: 1}}, nil)
	assert.True(t, errors.Is(err, common.ErrInvalidArgument))
}

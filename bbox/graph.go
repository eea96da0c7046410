package bbox

import (
	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/go-evaluations/common"
)

// EncodeNode adds the loc encoding of dst relative to src to their expression graph.
//
// Both nodes must be (R, 4) matrices of the same float dtype. The returned node
// has shape (R, 4) and is evaluated together with the rest of the graph, which
// lets regression targets be built inside a training graph.
//
// Arguments:
//   - src: Node holding the source boxes.
//   - dst: Node holding the destination boxes.
//
// Returns:
//   - The (R, 4) loc node.
//   - An error if the shapes do not match or an operation cannot be built.
//
// @example
//
//	g := G.NewGraph()
//	src := G.NewMatrix(g, tensor.Float64, G.WithShape(2, 4), G.WithName("src"))
//	dst := G.NewMatrix(g, tensor.Float64, G.WithShape(2, 4), G.WithName("dst"))
//	loc, err := EncodeNode(src, dst)
func EncodeNode(src, dst *G.Node) (*G.Node, error) {
	ss, ds := src.Shape(), dst.Shape()
	if len(ss) != 2 || ss[1] != 4 || !ss.Eq(ds) {
		return nil, errors.Wrapf(common.ErrShapeMismatch, "expected matching (R, 4) nodes, got %v and %v", ss, ds)
	}
	if src.Dtype() != dst.Dtype() {
		return nil, errors.Wrapf(common.ErrInvalidArgument, "dtypes differ: %v vs %v", src.Dtype(), dst.Dtype())
	}
	if src.Dtype() != tensor.Float32 && src.Dtype() != tensor.Float64 {
		return nil, errors.Wrapf(common.ErrInvalidArgument, "unsupported dtype %v", src.Dtype())
	}

	sg, err := nodeGeometry(src)
	if err != nil {
		return nil, errors.Wrap(err, "source geometry")
	}
	dg, err := nodeGeometry(dst)
	if err != nil {
		return nil, errors.Wrap(err, "destination geometry")
	}

	cols := make([]*G.Node, 0, 4)
	for _, c := range []struct {
		num, den *G.Node
		log      bool
	}{
		{G.Must(G.Sub(dg.cx, sg.cx)), sg.w, false},
		{G.Must(G.Sub(dg.cy, sg.cy)), sg.h, false},
		{dg.w, sg.w, true},
		{dg.h, sg.h, true},
	} {
		col, err := G.HadamardDiv(c.num, c.den)
		if err != nil {
			return nil, errors.Wrap(err, "ratio")
		}
		if c.log {
			if col, err = G.Log(col); err != nil {
				return nil, errors.Wrap(err, "log")
			}
		}
		cols = append(cols, col)
	}

	return G.Concat(1, cols...)
}

type geometry struct {
	w, h, cx, cy *G.Node
}

// Column projections of an (x_min, y_min, x_max, y_max) row. Multiplying an
// (R, 4) box node by one of them yields an (R, 1) column, which stays a
// matrix for R = 1 where a column slice would collapse to a scalar.
var (
	projWidth   = []float64{-1, 0, 1, 0}
	projHeight  = []float64{0, -1, 0, 1}
	projCenterX = []float64{0.5, 0, 0.5, 0}
	projCenterY = []float64{0, 0.5, 0, 0.5}
)

// projection returns a (4, 1) constant node of the given dtype.
func projection(dt tensor.Dtype, weights []float64) *G.Node {
	var backing interface{}
	switch dt {
	case tensor.Float32:
		w := make([]float32, len(weights))
		for i, v := range weights {
			w[i] = float32(v)
		}
		backing = w
	default:
		backing = append([]float64(nil), weights...)
	}
	return G.NewConstant(tensor.New(tensor.WithShape(len(weights), 1), tensor.WithBacking(backing)))
}

// nodeGeometry derives widths, heights and centers from an (R, 4) box node.
func nodeGeometry(boxes *G.Node) (*geometry, error) {
	dt := boxes.Dtype()
	g := &geometry{}
	for _, p := range []struct {
		dst     **G.Node
		weights []float64
	}{
		{&g.w, projWidth},
		{&g.h, projHeight},
		{&g.cx, projCenterX},
		{&g.cy, projCenterY},
	} {
		col, err := G.Mul(boxes, projection(dt, p.weights))
		if err != nil {
			return nil, err
		}
		*p.dst = col
	}
	return g, nil
}

// Package common - Types and errors shared by the encoding and evaluation packages.
package common

import "github.com/pkg/errors"

// Sentinel errors returned (wrapped) by the bbox and segmentation packages.
//
// Callers match them with errors.Is; the wrapping message carries the
// offending shapes or values.
var (
	// ErrShapeMismatch is returned when two inputs that must agree in shape do not,
	// e.g. box sets with different row counts or label maps of different sizes.
	ErrShapeMismatch = errors.New("shape mismatch")
	// ErrCountMismatch is returned when the number of prediction and ground-truth
	// label maps differ.
	ErrCountMismatch = errors.New("count mismatch")
	// ErrInvalidArgument is returned for arguments outside their domain, such as a
	// non-positive class count or an unsupported dtype.
	ErrInvalidArgument = errors.New("invalid argument")
)

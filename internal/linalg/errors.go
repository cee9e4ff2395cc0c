package linalg

import (
	"errors"
	"fmt"
)

// Domain errors for matrix construction and solving.
var (
	// ErrSize indicates incompatible dimensions between operands, a
	// non-square system, or a vector whose length does not match the matrix.
	ErrSize = errors.New("linalg: invalid matrix size")

	// ErrZeroPivot indicates elimination met an exact-zero diagonal entry.
	ErrZeroPivot = errors.New("linalg: zero pivot - partial pivoting is required")

	// ErrUnsolvable indicates back substitution produced NaN.
	ErrUnsolvable = errors.New("linalg: system is unsolvable")

	// ErrPathTooShort indicates a default path with fewer than MinPathSize nodes.
	ErrPathTooShort = errors.New("linalg: default path needs at least 2 nodes")
)

// PivotError reports the row at which elimination failed.
type PivotError struct {
	Op  string
	Row int
	Err error
}

func (e *PivotError) Error() string {
	return fmt.Sprintf("%s: row %d: %v", e.Op, e.Row, e.Err)
}

func (e *PivotError) Unwrap() error {
	return e.Err
}

// Operation tags used when wrapping errors.
const (
	opGaussian     = "Gaussian"
	opPartialPivot = "PartialPivot"
	opJacobi       = "Jacobi"
	opGaussSeidel  = "GaussSeidel"
	opMultiply     = "Multiply"
	opMatVec       = "MultiplyByVec"
	opFromRows     = "FromRows"
	opPath         = "Path"
)

// opErrorf tags err with the operation that produced it. err must be non-nil.
func opErrorf(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}

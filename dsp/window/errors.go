package window

import "errors"

var (
	errUnknownType       = errors.New("unknown window type")
	errMismatchedLength  = errors.New("samples and coefficients must have same length")
	errInvalidOverlaps   = errors.New("overlaps must be in [1, size]")
	errEmptyCoefficients = errors.New("window coefficients must not be empty")
)

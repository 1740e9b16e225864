package evidence

import "errors"

var (
	ErrNotFound        = errors.New("performance file not found")
	ErrMeasureNotFound = errors.New("measure not found")
	ErrInvalidQuarter  = errors.New("quarter must be between 1 and 4")
	ErrOutOfScope      = errors.New("performance file is outside the caller's scope")
	ErrNotWorker       = errors.New("only workers upload performance files")
	ErrMissingFile     = errors.New("file is required")
)

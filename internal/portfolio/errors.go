package portfolio

import "errors"

var (
	ErrInvalidInput = errors.New("portfolio: invalid input")
	// ErrNotFound also covers rows that exist outside the caller's scope;
	// callers cannot tell the two apart.
	ErrNotFound = errors.New("portfolio: not found")
	ErrConflict = errors.New("portfolio: resource conflict")
)

package documents

import "errors"

var (
	ErrNotFound        = errors.New("document not found")
	ErrConflict        = errors.New("unique index violation")
	ErrInvalidDocument = errors.New("invalid document")
)

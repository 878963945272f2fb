package documents

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Document is a stored resource: an opaque JSON value under a
// server-generated identifier. The body is never interpreted beyond
// JSON well-formedness.
type Document struct {
	ID   uuid.UUID
	Body json.RawMessage

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Index declares a secondary index over a dot-separated field path of the
// document body. Documents without a scalar value at the path are skipped.
type Index struct {
	Field  string
	Unique bool
}

type Config struct {
	// Collection names the key space inside the store.
	Collection string
	// Indexes are applied lazily on the first successful create and
	// maintained on every write thereafter.
	Indexes []Index
}

// Validator is the extension hook for domain rules on incoming documents.
// An error rejects the document before it reaches the store.
type Validator interface {
	Validate(body json.RawMessage) error
}

type passthroughValidator struct{}

// NewPassthroughValidator returns the default Validator accepting every
// well-formed document.
func NewPassthroughValidator() Validator {
	return passthroughValidator{}
}

func (passthroughValidator) Validate(_ json.RawMessage) error {
	return nil
}

package documents

import (
	"encoding/json"

	"github.com/google/uuid"
)

// CreateResponse carries the server-assigned identifier of a new document.
type CreateResponse struct {
	ID uuid.UUID `json:"id"`
}

// ListEntry is a raw document body inside the listing map.
type ListEntry = json.RawMessage

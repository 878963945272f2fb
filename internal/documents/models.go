package documents

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// documentModel is the persisted envelope around the raw document body.
type documentModel struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Document json.RawMessage `json:"document"`
}

func newDocumentModel(body json.RawMessage) *documentModel {
	now := time.Now()

	return &documentModel{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
		Document:  body,
	}
}

func newDocument(model *documentModel) *Document {
	if model == nil {
		return nil
	}

	return &Document{
		ID:        model.ID,
		Body:      model.Document,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

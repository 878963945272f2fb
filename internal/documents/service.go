package documents

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service ties the validation hook to the store adapter and applies the
// declared indexes lazily on the first successful create.
type Service struct {
	documents *Repository
	validator Validator

	logger *zap.Logger

	indexMu sync.Mutex
	indexed bool
}

func NewService(documents *Repository, validator Validator, logger *zap.Logger) *Service {
	return &Service{
		documents: documents,
		validator: validator,
		logger:    logger,
	}
}

// Create validates and stores a new document, returning it with its
// server-generated identifier.
func (s *Service) Create(ctx context.Context, body json.RawMessage) (*Document, error) {
	if err := s.validator.Validate(body); err != nil {
		observe(opCreate, ErrInvalidDocument)
		return nil, fmt.Errorf("%w: %s", ErrInvalidDocument, err.Error())
	}

	doc, err := s.documents.Insert(ctx, body)
	if err != nil {
		observe(opCreate, err)
		return nil, err
	}

	if err := s.ensureIndexes(ctx); err != nil {
		observe(opCreate, err)
		return nil, err
	}

	observe(opCreate, nil)
	s.logger.Debug("created document", zap.Stringer("id", doc.ID))

	return doc, nil
}

// Get retrieves a single document.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Document, error) {
	doc, err := s.documents.GetByID(ctx, id)
	observe(opGet, err)

	return doc, err
}

// List retrieves all documents.
func (s *Service) List(ctx context.Context) ([]Document, error) {
	docs, err := s.documents.List(ctx)
	observe(opList, err)

	return docs, err
}

// Replace validates the new body and replaces the whole document at id.
func (s *Service) Replace(ctx context.Context, id uuid.UUID, body json.RawMessage) error {
	if err := s.validator.Validate(body); err != nil {
		observe(opReplace, ErrInvalidDocument)
		return fmt.Errorf("%w: %s", ErrInvalidDocument, err.Error())
	}

	if _, err := s.documents.Replace(ctx, id, body); err != nil {
		observe(opReplace, err)
		return err
	}

	observe(opReplace, nil)
	s.logger.Debug("replaced document", zap.Stringer("id", id))

	return nil
}

// Delete removes a document.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.documents.Delete(ctx, id); err != nil {
		observe(opDelete, err)
		return err
	}

	observe(opDelete, nil)
	s.logger.Debug("deleted document", zap.Stringer("id", id))

	return nil
}

// ensureIndexes runs the index backfill once per process. A failed attempt
// is retried on the next create; the backfill itself is idempotent.
func (s *Service) ensureIndexes(ctx context.Context) error {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	if s.indexed {
		return nil
	}

	if err := s.documents.EnsureIndexes(ctx); err != nil {
		return err
	}

	s.indexed = true
	s.logger.Info("applied declared indexes")

	return nil
}

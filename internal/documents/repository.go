package documents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// Repository is the document store adapter. Every operation round-trips to
// BadgerDB; single-document atomicity comes from badger transactions.
type Repository struct {
	db      *badger.DB
	config  Config
	indexes []Index
}

func NewRepository(db *badger.DB, config Config) *Repository {
	return &Repository{
		db:      db,
		config:  config,
		indexes: config.Indexes,
	}
}

// Insert persists a new document under a freshly generated identifier and
// returns the stored document.
func (r *Repository) Insert(_ context.Context, body json.RawMessage) (*Document, error) {
	model := newDocumentModel(body)

	data, err := json.Marshal(model)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		if idxErr := r.createIndexEntries(txn, model); idxErr != nil {
			return idxErr
		}

		if setErr := txn.Set(r.idKey(model.ID), data); setErr != nil {
			return fmt.Errorf("failed to store document: %w", setErr)
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to insert document: %w", err)
	}

	return newDocument(model), nil
}

// GetByID retrieves a document by its ID.
func (r *Repository) GetByID(_ context.Context, id uuid.UUID) (*Document, error) {
	var model *documentModel

	err := r.db.View(func(txn *badger.Txn) error {
		found, err := r.getByID(txn, id)
		if err == nil {
			model = found
		}

		return err
	})

	if err != nil {
		return nil, fmt.Errorf("failed to get document by ID: %w", err)
	}

	return newDocument(model), nil
}

// ForEach streams every document in the collection to fn, in store key
// order. Iteration stops at the first error fn returns.
func (r *Repository) ForEach(_ context.Context, fn func(Document) error) error {
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(r.idPrefix())
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()

			if err := item.Value(func(val []byte) error {
				var model documentModel
				if err := json.Unmarshal(val, &model); err != nil {
					return fmt.Errorf("failed to unmarshal document: %w", err)
				}

				return fn(*newDocument(&model))
			}); err != nil {
				return err
			}
		}

		return nil
	})

	if err != nil {
		return fmt.Errorf("failed to iterate documents: %w", err)
	}

	return nil
}

// List retrieves all documents.
func (r *Repository) List(ctx context.Context) ([]Document, error) {
	var docs []Document

	if err := r.ForEach(ctx, func(doc Document) error {
		docs = append(docs, doc)
		return nil
	}); err != nil {
		return nil, err
	}

	return docs, nil
}

// Replace swaps the whole document body at id, keeping the identifier and
// creation time. Partial patches are not supported.
func (r *Repository) Replace(_ context.Context, id uuid.UUID, body json.RawMessage) (*Document, error) {
	model := &documentModel{
		ID:        id,
		UpdatedAt: time.Now(),
		Document:  body,
	}

	err := r.db.Update(func(txn *badger.Txn) error {
		old, err := r.getByID(txn, id)
		if err != nil {
			return err
		}

		model.CreatedAt = old.CreatedAt

		data, err := json.Marshal(model)
		if err != nil {
			return fmt.Errorf("failed to marshal document: %w", err)
		}

		if rmErr := r.removeIndexEntries(txn, old); rmErr != nil {
			return rmErr
		}

		if idxErr := r.createIndexEntries(txn, model); idxErr != nil {
			return idxErr
		}

		if setErr := txn.Set(r.idKey(id), data); setErr != nil {
			return fmt.Errorf("failed to store document: %w", setErr)
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to replace document: %w", err)
	}

	return newDocument(model), nil
}

// Delete removes a document and its index entries.
func (r *Repository) Delete(_ context.Context, id uuid.UUID) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		old, err := r.getByID(txn, id)
		if err != nil {
			return err
		}

		if delErr := txn.Delete(r.idKey(id)); delErr != nil {
			return fmt.Errorf("failed to delete document: %w", delErr)
		}

		if rmErr := r.removeIndexEntries(txn, old); rmErr != nil {
			return rmErr
		}

		return nil
	})

	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	return nil
}

// EnsureIndexes backfills index entries for all declared indexes over the
// existing documents. Safe to call repeatedly and to race: entries are
// plain overwrites, so every call leaves the store in the same state.
func (r *Repository) EnsureIndexes(_ context.Context) error {
	if len(r.indexes) == 0 {
		return nil
	}

	err := r.db.Update(func(txn *badger.Txn) error {
		// Badger forbids writes while an iterator is open on the
		// transaction, so collect first and write after.
		entries, err := r.collectIndexEntries(txn)
		if err != nil {
			return err
		}

		for _, entry := range entries {
			if setErr := txn.Set(entry.key, entry.value); setErr != nil {
				return fmt.Errorf("failed to set index entry: %w", setErr)
			}
		}

		return nil
	})

	if err != nil {
		return fmt.Errorf("failed to ensure indexes: %w", err)
	}

	return nil
}

func (r *Repository) collectIndexEntries(txn *badger.Txn) ([]storedEntry, error) {
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	var entries []storedEntry
	prefix := []byte(r.idPrefix())
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()

		var model documentModel
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &model)
		}); err != nil {
			return nil, fmt.Errorf("failed to unmarshal document: %w", err)
		}

		entries = append(entries, r.indexEntries(&model)...)
	}

	return entries, nil
}

func (r *Repository) getByID(txn *badger.Txn, id uuid.UUID) (*documentModel, error) {
	var model documentModel

	item, err := txn.Get(r.idKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	if valErr := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &model)
	}); valErr != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", valErr)
	}

	return &model, nil
}

// idPrefix is the key prefix for document envelopes.
func (r *Repository) idPrefix() string {
	return r.config.Collection + ":id:"
}

// idKey generates the key for storing a document.
func (r *Repository) idKey(id uuid.UUID) []byte {
	return []byte(r.idPrefix() + id.String())
}

// indexKey generates the key for a secondary index entry.
func (r *Repository) indexKey(field, value string, id uuid.UUID) []byte {
	return []byte(r.config.Collection + ":idx:" + url.QueryEscape(field) + ":" + url.QueryEscape(value) + ":" + id.String())
}

// uniqueKey generates the key claiming a unique index value.
func (r *Repository) uniqueKey(field, value string) []byte {
	return []byte(r.config.Collection + ":uniq:" + url.QueryEscape(field) + ":" + url.QueryEscape(value))
}

type storedEntry struct {
	key   []byte
	value []byte
}

// indexEntries computes the index entries a document contributes. Documents
// without a scalar value at an indexed path contribute nothing for that
// index (sparse semantics).
func (r *Repository) indexEntries(model *documentModel) []storedEntry {
	if len(r.indexes) == 0 {
		return nil
	}

	var body any
	if err := json.Unmarshal(model.Document, &body); err != nil {
		return nil
	}

	var entries []storedEntry
	for _, index := range r.indexes {
		value, ok := fieldValue(body, index.Field)
		if !ok {
			continue
		}

		entries = append(entries, storedEntry{
			key:   r.indexKey(index.Field, value, model.ID),
			value: []byte{},
		})

		if index.Unique {
			entries = append(entries, storedEntry{
				key:   r.uniqueKey(index.Field, value),
				value: []byte(model.ID.String()),
			})
		}
	}

	return entries
}

// createIndexEntries writes a document's index entries, enforcing unique
// indexes within the surrounding transaction.
func (r *Repository) createIndexEntries(txn *badger.Txn, model *documentModel) error {
	if len(r.indexes) == 0 {
		return nil
	}

	var body any
	if err := json.Unmarshal(model.Document, &body); err != nil {
		return fmt.Errorf("failed to decode document for indexing: %w", err)
	}

	for _, index := range r.indexes {
		value, ok := fieldValue(body, index.Field)
		if !ok {
			continue
		}

		if index.Unique {
			if err := r.claimUnique(txn, index, value, model.ID); err != nil {
				return err
			}
		}

		if setErr := txn.Set(r.indexKey(index.Field, value, model.ID), []byte{}); setErr != nil {
			return fmt.Errorf("failed to set index entry: %w", setErr)
		}
	}

	return nil
}

// removeIndexEntries drops the index entries a document contributed.
func (r *Repository) removeIndexEntries(txn *badger.Txn, model *documentModel) error {
	if len(r.indexes) == 0 {
		return nil
	}

	var body any
	if err := json.Unmarshal(model.Document, &body); err != nil {
		return fmt.Errorf("failed to decode document for indexing: %w", err)
	}

	for _, index := range r.indexes {
		value, ok := fieldValue(body, index.Field)
		if !ok {
			continue
		}

		if err := txn.Delete(r.indexKey(index.Field, value, model.ID)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("failed to delete index entry: %w", err)
		}

		if !index.Unique {
			continue
		}

		owner, err := r.uniqueOwner(txn, index, value)
		if err != nil {
			return err
		}
		if owner == nil || *owner != model.ID {
			continue
		}

		if err := txn.Delete(r.uniqueKey(index.Field, value)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("failed to delete unique index entry: %w", err)
		}
	}

	return nil
}

// claimUnique asserts that a unique index value is free (or already owned
// by id) and records the claim.
func (r *Repository) claimUnique(txn *badger.Txn, index Index, value string, id uuid.UUID) error {
	owner, err := r.uniqueOwner(txn, index, value)
	if err != nil {
		return err
	}

	if owner != nil && *owner != id {
		return fmt.Errorf("%w: %s=%q", ErrConflict, index.Field, value)
	}

	if setErr := txn.Set(r.uniqueKey(index.Field, value), []byte(id.String())); setErr != nil {
		return fmt.Errorf("failed to set unique index entry: %w", setErr)
	}

	return nil
}

// uniqueOwner resolves which document currently claims a unique index
// value, or nil when the value is free.
func (r *Repository) uniqueOwner(txn *badger.Txn, index Index, value string) (*uuid.UUID, error) {
	item, err := txn.Get(r.uniqueKey(index.Field, value))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get unique index entry: %w", err)
	}

	raw, err := item.ValueCopy(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read unique index entry: %w", err)
	}

	owner, err := uuid.Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse unique index owner: %w", err)
	}

	return &owner, nil
}

// fieldValue walks a dot-separated path into a decoded JSON value and
// renders the scalar at the end of it. Missing paths, intermediate
// non-objects, and composite leaves report no value.
func fieldValue(body any, path string) (string, bool) {
	current := body
	for _, segment := range strings.Split(path, ".") {
		object, ok := current.(map[string]any)
		if !ok {
			return "", false
		}

		current, ok = object[segment]
		if !ok {
			return "", false
		}
	}

	switch v := current.(type) {
	case string:
		return v, true
	case float64, bool, json.Number:
		return fmt.Sprint(v), true
	default:
		return "", false
	}
}

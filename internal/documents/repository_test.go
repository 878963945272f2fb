package documents

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

func newTestDB(t *testing.T) *badger.DB {
	t.Helper()

	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		t.Fatalf("failed to open in-memory badger: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

func newTestRepository(t *testing.T, indexes ...Index) *Repository {
	t.Helper()

	return NewRepository(newTestDB(t), Config{
		Collection: "documents",
		Indexes:    indexes,
	})
}

func TestRepository_InsertAndGet(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	body := json.RawMessage(`{"name":"alpha","count":3}`)
	doc, err := repo.Insert(ctx, body)
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	if doc.ID == (uuid.UUID{}) {
		t.Error("expected a generated document ID")
	}
	if doc.CreatedAt.IsZero() || doc.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}

	got, err := repo.GetByID(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}

	if !jsonEqual(t, got.Body, body) {
		t.Errorf("round-trip mismatch: got %s, want %s", got.Body, body)
	}
}

func TestRepository_GetMissing(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.GetByID(context.Background(), uuid.New())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRepository_Replace(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	doc, err := repo.Insert(ctx, json.RawMessage(`{"v":1}`))
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	replaced, err := repo.Replace(ctx, doc.ID, json.RawMessage(`{"v":2}`))
	if err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	if replaced.ID != doc.ID {
		t.Errorf("replace changed the ID: %s -> %s", doc.ID, replaced.ID)
	}
	if !replaced.CreatedAt.Equal(doc.CreatedAt) {
		t.Error("replace must preserve created_at")
	}

	got, err := repo.GetByID(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !jsonEqual(t, got.Body, json.RawMessage(`{"v":2}`)) {
		t.Errorf("expected replaced body, got %s", got.Body)
	}
}

func TestRepository_ReplaceMissing(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.Replace(context.Background(), uuid.New(), json.RawMessage(`{}`))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRepository_Delete(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	doc, err := repo.Insert(ctx, json.RawMessage(`"payload"`))
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	if err := repo.Delete(ctx, doc.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := repo.GetByID(ctx, doc.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	if err := repo.Delete(ctx, doc.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestRepository_List(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	const n = 7
	ids := make(map[uuid.UUID]bool, n)
	for i := 0; i < n; i++ {
		doc, err := repo.Insert(ctx, json.RawMessage(`{"i":`+string(rune('0'+i))+`}`))
		if err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
		ids[doc.ID] = true
	}

	docs, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if len(docs) != n {
		t.Fatalf("expected %d documents, got %d", n, len(docs))
	}
	for _, doc := range docs {
		if !ids[doc.ID] {
			t.Errorf("listed unknown document %s", doc.ID)
		}
	}
}

func TestRepository_UniqueIndex(t *testing.T) {
	repo := newTestRepository(t, Index{Field: "name", Unique: true})
	ctx := context.Background()

	first, err := repo.Insert(ctx, json.RawMessage(`{"name":"alpha"}`))
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	if _, err := repo.Insert(ctx, json.RawMessage(`{"name":"alpha"}`)); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on duplicate value, got %v", err)
	}

	// Documents without the indexed field are not constrained.
	if _, err := repo.Insert(ctx, json.RawMessage(`{"other":true}`)); err != nil {
		t.Fatalf("Insert without indexed field failed: %v", err)
	}

	// Replacing the owner frees the old value for reuse.
	if _, err := repo.Replace(ctx, first.ID, json.RawMessage(`{"name":"beta"}`)); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	if _, err := repo.Insert(ctx, json.RawMessage(`{"name":"alpha"}`)); err != nil {
		t.Fatalf("Insert after value freed failed: %v", err)
	}
}

func TestRepository_EnsureIndexesIdempotent(t *testing.T) {
	repo := newTestRepository(t, Index{Field: "kind"}, Index{Field: "name", Unique: true})
	ctx := context.Background()

	if _, err := repo.Insert(ctx, json.RawMessage(`{"kind":"a","name":"one"}`)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := repo.EnsureIndexes(ctx); err != nil {
			t.Fatalf("EnsureIndexes run %d failed: %v", i, err)
		}
	}

	// Backfilled unique claims keep constraining later writes.
	if _, err := repo.Insert(ctx, json.RawMessage(`{"name":"one"}`)); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict after backfill, got %v", err)
	}
}

func TestRepository_ConcurrentInsertDistinctIDs(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	const (
		workers   = 20
		perWorker = 500
	)

	var (
		mu  sync.Mutex
		ids = make(map[uuid.UUID]bool, workers*perWorker)
		wg  sync.WaitGroup
	)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				doc, err := repo.Insert(ctx, json.RawMessage(`{"w":true}`))
				if err != nil {
					t.Errorf("Insert failed: %v", err)
					return
				}

				mu.Lock()
				if ids[doc.ID] {
					t.Errorf("duplicate ID generated: %s", doc.ID)
				}
				ids[doc.ID] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(ids) != workers*perWorker {
		t.Fatalf("expected %d distinct IDs, got %d", workers*perWorker, len(ids))
	}
}

func jsonEqual(t *testing.T, a, b json.RawMessage) bool {
	t.Helper()

	var av, bv any
	if err := json.Unmarshal(a, &av); err != nil {
		t.Fatalf("invalid JSON %s: %v", a, err)
	}
	if err := json.Unmarshal(b, &bv); err != nil {
		t.Fatalf("invalid JSON %s: %v", b, err)
	}

	aj, _ := json.Marshal(av)
	bj, _ := json.Marshal(bv)

	return string(aj) == string(bj)
}

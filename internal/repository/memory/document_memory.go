package memory

import (
	"context"
	"sync"

	"stddocs/internal/model"
	"stddocs/internal/repository"
)

// DocumentMemory is an in-process implementation of repository.DocumentRepository.
// Its contents live as long as the process. Safe for concurrent use.
type DocumentMemory struct {
	mu   sync.RWMutex
	docs []model.StandardDocument // newest first
}

// NewDocumentMemory creates a store holding seed in the given order (first = newest).
func NewDocumentMemory(seed ...model.StandardDocument) *DocumentMemory {
	docs := make([]model.StandardDocument, len(seed))
	copy(docs, seed)
	return &DocumentMemory{docs: docs}
}

var _ repository.DocumentRepository = (*DocumentMemory)(nil)

// Create prepends doc.
func (r *DocumentMemory) Create(ctx context.Context, doc *model.StandardDocument) (*model.StandardDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stored := *doc

	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs = append([]model.StandardDocument{stored}, r.docs...)
	return &stored, nil
}

// FindByID returns a copy of the document with the given ID.
func (r *DocumentMemory) FindByID(ctx context.Context, id string) (*model.StandardDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.docs {
		if r.docs[i].ID == id {
			d := r.docs[i]
			return &d, nil
		}
	}
	return nil, repository.ErrNotFound
}

// List returns a snapshot of all documents, newest first.
func (r *DocumentMemory) List(ctx context.Context) ([]model.StandardDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.StandardDocument, len(r.docs))
	copy(out, r.docs)
	return out, nil
}

// Delete filters out the given IDs.
func (r *DocumentMemory) Delete(ctx context.Context, ids []string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	kept := make([]model.StandardDocument, 0, len(r.docs))
	for _, d := range r.docs {
		if _, ok := drop[d.ID]; ok {
			continue
		}
		kept = append(kept, d)
	}
	removed := len(r.docs) - len(kept)
	r.docs = kept
	return removed, nil
}

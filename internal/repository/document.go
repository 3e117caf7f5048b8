package repository

import (
	"context"
	"errors"

	"stddocs/internal/model"
)

// ErrNotFound is returned by FindByID when no record has the given ID.
var ErrNotFound = errors.New("document not found")

// DocumentRepository is the document store: an ordered collection, newest first.
// No validation happens here; callers hand in complete records.
type DocumentRepository interface {
	// Create prepends doc to the collection and returns the stored record.
	// The caller assigns a fresh ID; uniqueness is not re-checked.
	Create(ctx context.Context, doc *model.StandardDocument) (*model.StandardDocument, error)

	// FindByID returns a document by its ID.
	FindByID(ctx context.Context, id string) (*model.StandardDocument, error)

	// List returns every document, most recently created first.
	List(ctx context.Context) ([]model.StandardDocument, error)

	// Delete removes every document whose ID is in ids and reports how many were removed.
	// Unknown IDs are ignored; the relative order of the remaining documents is kept.
	Delete(ctx context.Context, ids []string) (int, error)
}

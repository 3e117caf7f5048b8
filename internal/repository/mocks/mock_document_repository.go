// Package mocks provides a testify double for repository.DocumentRepository.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"stddocs/internal/model"
	"stddocs/internal/repository"
)

var _ repository.DocumentRepository = (*MockDocumentRepository)(nil)

// MockDocumentRepository answers from expectations set with On. Create also
// accepts a func so tests can echo back the record the service built.
type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) Create(ctx context.Context, doc *model.StandardDocument) (*model.StandardDocument, error) {
	args := m.Called(ctx, doc)
	if build, ok := args.Get(0).(func(context.Context, *model.StandardDocument) *model.StandardDocument); ok {
		return build(ctx, doc), args.Error(1)
	}
	stored, _ := args.Get(0).(*model.StandardDocument)
	return stored, args.Error(1)
}

func (m *MockDocumentRepository) FindByID(ctx context.Context, id string) (*model.StandardDocument, error) {
	args := m.Called(ctx, id)
	doc, _ := args.Get(0).(*model.StandardDocument)
	return doc, args.Error(1)
}

func (m *MockDocumentRepository) List(ctx context.Context) ([]model.StandardDocument, error) {
	args := m.Called(ctx)
	docs, _ := args.Get(0).([]model.StandardDocument)
	return docs, args.Error(1)
}

func (m *MockDocumentRepository) Delete(ctx context.Context, ids []string) (int, error) {
	args := m.Called(ctx, ids)
	return args.Int(0), args.Error(1)
}

package mocks

import (
	"context"
	"io"
	"time"

	"stddocs/internal/model"
	"stddocs/internal/service"
	"stddocs/internal/upload"

	"github.com/stretchr/testify/mock"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) StageFile(ctx context.Context, f upload.File, r io.Reader, contentType string) (*model.StagedFile, error) {
	args := m.Called(ctx, f, r, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StagedFile), args.Error(1)
}

func (m *MockDocumentService) DiscardFile(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockDocumentService) Create(ctx context.Context, in service.CreateInput) (*model.StandardDocument, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StandardDocument), args.Error(1)
}

func (m *MockDocumentService) Upload(ctx context.Context, in service.UploadInput) (*model.StandardDocument, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StandardDocument), args.Error(1)
}

func (m *MockDocumentService) List(ctx context.Context, q service.ListQuery) (*service.DocumentListResult, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DocumentListResult), args.Error(1)
}

func (m *MockDocumentService) Get(ctx context.Context, id string) (*model.StandardDocument, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StandardDocument), args.Error(1)
}

func (m *MockDocumentService) Delete(ctx context.Context, ids ...string) (int, error) {
	args := m.Called(ctx, ids)
	return args.Int(0), args.Error(1)
}

func (m *MockDocumentService) OpenFile(ctx context.Context, id string) (io.ReadCloser, *model.StandardDocument, error) {
	args := m.Called(ctx, id)
	var rc io.ReadCloser
	if v := args.Get(0); v != nil {
		rc = v.(io.ReadCloser)
	}
	var doc *model.StandardDocument
	if v := args.Get(1); v != nil {
		doc = v.(*model.StandardDocument)
	}
	return rc, doc, args.Error(2)
}

func (m *MockDocumentService) FileURL(ctx context.Context, id string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, id, expiry)
	return args.String(0), args.Error(1)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"stddocs/internal/model"
	"stddocs/internal/repository"
	"stddocs/internal/storage"
	"stddocs/internal/upload"
)

// DefaultCreator is recorded when a document is created without a creator name.
const DefaultCreator = "当前用户"

var (
	ErrIDRequired   = errors.New("id is required")
	ErrNotFound     = errors.New("document not found")
	ErrReaderNil    = errors.New("reader is nil")
	ErrNameLength   = model.ErrNameLength
	ErrInvalidType  = model.ErrInvalidStandardType
	ErrFileRequired = errors.New("please upload a standard file")
	ErrNoFile       = errors.New("document has no stored file")
)

var tracer = otel.Tracer("stddocs/internal/service")

// DocumentListResult is the service-level DTO for a filtered, paginated listing.
// Total counts the documents matching the search before pagination.
type DocumentListResult struct {
	Items []model.StandardDocument `json:"data"`
	Total int                      `json:"total"`
}

// ListQuery narrows a listing. Limit <= 0 returns every match.
type ListQuery struct {
	Search string
	Limit  int
	Offset int
}

// CreateInput is a validated intake submission: the file has already been staged.
type CreateInput struct {
	Name    string
	Type    model.StandardType
	Creator string
	File    *model.StagedFile
}

// UploadInput carries a one-shot creation: metadata plus the file body.
type UploadInput struct {
	Name        string
	Type        model.StandardType
	Creator     string
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// DocumentService defines the use cases for handling standard documents.
type DocumentService interface {
	// StageFile validates f and writes its bytes to object storage under a generated key.
	StageFile(ctx context.Context, f upload.File, r io.Reader, contentType string) (*model.StagedFile, error)

	// DiscardFile removes a staged object that will never be referenced. An empty key is a no-op.
	DiscardFile(ctx context.Context, key string) error

	// Create validates in and prepends a new record pointing at the staged file.
	Create(ctx context.Context, in CreateInput) (*model.StandardDocument, error)

	// Upload stages the body and creates the record, removing the object again if the record cannot be saved.
	Upload(ctx context.Context, in UploadInput) (*model.StandardDocument, error)

	// List returns documents matching q.Search, newest first, with limit/offset applied.
	List(ctx context.Context, q ListQuery) (*DocumentListResult, error)

	// Get returns a single document by its ID.
	Get(ctx context.Context, id string) (*model.StandardDocument, error)

	// Delete removes the given documents and their stored files and reports how many records were removed.
	Delete(ctx context.Context, ids ...string) (int, error)

	// OpenFile streams the stored bytes of a document. The caller closes the reader.
	OpenFile(ctx context.Context, id string) (io.ReadCloser, *model.StandardDocument, error)

	// FileURL returns a time-limited download URL for a document's file.
	FileURL(ctx context.Context, id string, expiry time.Duration) (string, error)
}

// Option customizes a documentService.
type Option func(*documentService)

// WithDefaultCreator sets the creator recorded when none is given.
func WithDefaultCreator(name string) Option {
	return func(s *documentService) {
		if name != "" {
			s.defaultCreator = name
		}
	}
}

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *documentService) { s.now = now }
}

// WithIDGenerator overrides how record IDs and object keys are generated.
func WithIDGenerator(newID func() string) Option {
	return func(s *documentService) { s.newID = newID }
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	store          storage.Storage
	repo           repository.DocumentRepository
	defaultCreator string
	now            func() time.Time
	newID          func() string
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(store storage.Storage, repo repository.DocumentRepository, opts ...Option) DocumentService {
	s := &documentService{
		store:          store,
		repo:           repo,
		defaultCreator: DefaultCreator,
		now:            time.Now,
		newID:          func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *documentService) StageFile(ctx context.Context, f upload.File, r io.Reader, contentType string) (*model.StagedFile, error) {
	ctx, span := tracer.Start(ctx, "DocumentService.StageFile", trace.WithAttributes(
		attribute.String("file.name", f.Name),
		attribute.Int64("file.size", f.Size),
	))
	defer span.End()

	if r == nil {
		return nil, ErrReaderNil
	}
	if err := upload.Validate(f); err != nil {
		return nil, err
	}

	// Generate key using ID + extension
	key := filepath.ToSlash(filepath.Join("documents", s.newID()+filepath.Ext(f.Name)))

	_, err := s.store.Put(ctx, key, r, storage.PutObjectOptions{
		Size:        f.Size,
		ContentType: contentType,
		Metadata: map[string]string{
			// object metadata must be ASCII
			"original-filename": url.QueryEscape(f.Name),
		},
	})
	if err != nil {
		recordError(span, err)
		return nil, fmt.Errorf("upload to storage: %w", err)
	}
	return &model.StagedFile{Key: key, Name: f.Name, Size: f.Size, ContentType: contentType}, nil
}

func (s *documentService) DiscardFile(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	ctx, span := tracer.Start(ctx, "DocumentService.DiscardFile")
	defer span.End()

	if err := s.store.Delete(ctx, key); err != nil {
		recordError(span, err)
		return fmt.Errorf("delete storage: %w", err)
	}
	return nil
}

func (s *documentService) Create(ctx context.Context, in CreateInput) (*model.StandardDocument, error) {
	ctx, span := tracer.Start(ctx, "DocumentService.Create")
	defer span.End()

	if err := validateMetadata(in.Name, in.Type); err != nil {
		return nil, err
	}
	if in.File == nil {
		return nil, ErrFileRequired
	}
	creator := strings.TrimSpace(in.Creator)
	if creator == "" {
		creator = s.defaultCreator
	}

	doc := &model.StandardDocument{
		ID:          s.newID(),
		Name:        in.Name,
		Type:        in.Type,
		CreatedAt:   s.now().UTC(),
		Creator:     creator,
		FileName:    in.File.Name,
		FileSize:    in.File.Size,
		StoragePath: in.File.Key,
		ContentType: in.File.ContentType,
	}
	stored, err := s.repo.Create(ctx, doc)
	if err != nil {
		recordError(span, err)
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	span.SetAttributes(attribute.String("document.id", stored.ID))
	return stored, nil
}

func (s *documentService) Upload(ctx context.Context, in UploadInput) (*model.StandardDocument, error) {
	ctx, span := tracer.Start(ctx, "DocumentService.Upload")
	defer span.End()

	// Reject bad metadata before any bytes are written.
	if err := validateMetadata(in.Name, in.Type); err != nil {
		return nil, err
	}
	staged, err := s.StageFile(ctx, upload.File{Name: in.FileName, Size: in.Size}, in.Body, in.ContentType)
	if err != nil {
		return nil, err
	}

	stored, err := s.Create(ctx, CreateInput{Name: in.Name, Type: in.Type, Creator: in.Creator, File: staged})
	if err != nil {
		recordError(span, err)
		// Rollback: delete the object from storage
		if delErr := s.store.Delete(ctx, staged.Key); delErr != nil {
			return nil, fmt.Errorf("%v; rollback delete failed: %v", err, delErr)
		}
		return nil, err
	}
	return stored, nil
}

// List filters in memory; the store keeps the newest-first order.
func (s *documentService) List(ctx context.Context, q ListQuery) (*DocumentListResult, error) {
	ctx, span := tracer.Start(ctx, "DocumentService.List")
	defer span.End()

	all, err := s.repo.List(ctx)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	matched := make([]model.StandardDocument, 0, len(all))
	for _, d := range all {
		if model.MatchesSearch(d, q.Search) {
			matched = append(matched, d)
		}
	}
	total := len(matched)

	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := total
	if q.Limit > 0 && offset+q.Limit < total {
		end = offset + q.Limit
	}
	return &DocumentListResult{Items: matched[offset:end], Total: total}, nil
}

// Get returns a document by ID.
func (s *documentService) Get(ctx context.Context, id string) (*model.StandardDocument, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

// Delete removes stored files first, then the records. If a file cannot be
// removed no record is touched, so no record loses track of its bytes.
func (s *documentService) Delete(ctx context.Context, ids ...string) (int, error) {
	ctx, span := tracer.Start(ctx, "DocumentService.Delete", trace.WithAttributes(
		attribute.Int("document.count", len(ids)),
	))
	defer span.End()

	seen := make(map[string]struct{}, len(ids))
	found := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		doc, err := s.repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			recordError(span, err)
			return 0, err
		}
		if doc.HasFile() {
			if err := s.store.Delete(ctx, doc.StoragePath); err != nil {
				recordError(span, err)
				return 0, fmt.Errorf("delete storage: %w", err)
			}
		}
		found = append(found, id)
	}
	if len(found) == 0 {
		return 0, nil
	}

	n, err := s.repo.Delete(ctx, found)
	if err != nil {
		recordError(span, err)
		return 0, err
	}
	return n, nil
}

func (s *documentService) OpenFile(ctx context.Context, id string) (io.ReadCloser, *model.StandardDocument, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !doc.HasFile() {
		return nil, nil, ErrNoFile
	}
	rc, _, err := s.store.Get(ctx, doc.StoragePath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, nil, ErrNoFile
		}
		return nil, nil, fmt.Errorf("open storage: %w", err)
	}
	return rc, doc, nil
}

func (s *documentService) FileURL(ctx context.Context, id string, expiry time.Duration) (string, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if !doc.HasFile() {
		return "", ErrNoFile
	}
	u, err := s.store.PresignGet(ctx, doc.StoragePath, expiry)
	if err != nil {
		return "", fmt.Errorf("presign: %w", err)
	}
	return u, nil
}

func validateMetadata(name string, t model.StandardType) error {
	if err := model.ValidateName(name); err != nil {
		return err
	}
	if !t.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, t)
	}
	return nil
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

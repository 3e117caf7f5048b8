package postgres

import (
	"context"
	"database/sql"
	"errors"

	"stddocs/internal/model"
	"stddocs/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
// Insertion order is kept by the table's seq column.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

const selectColumns = `id, name, type, creator, file_name, file_size, storage_path, content_type, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (*model.StandardDocument, error) {
	var (
		d           model.StandardDocument
		typ         string
		fileName    sql.NullString
		fileSize    sql.NullInt64
		storagePath sql.NullString
		contentType sql.NullString
	)
	if err := s.Scan(
		&d.ID,
		&d.Name,
		&typ,
		&d.Creator,
		&fileName,
		&fileSize,
		&storagePath,
		&contentType,
		&d.CreatedAt,
	); err != nil {
		return nil, err
	}
	d.Type = model.StandardType(typ)
	d.FileName = fileName.String
	d.FileSize = fileSize.Int64
	d.StoragePath = storagePath.String
	d.ContentType = contentType.String
	return &d, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt64(n int64, valid bool) sql.NullInt64 {
	return sql.NullInt64{Int64: n, Valid: valid}
}

// Create inserts a new row; the seq column places it at the front of List.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.StandardDocument) (*model.StandardDocument, error) {
	const q = `
		INSERT INTO standard_documents (id, name, type, creator, file_name, file_size, storage_path, content_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + selectColumns
	row := r.db.QueryRowContext(ctx, q,
		doc.ID,
		doc.Name,
		string(doc.Type),
		doc.Creator,
		nullString(doc.FileName),
		nullInt64(doc.FileSize, doc.FileName != ""),
		nullString(doc.StoragePath),
		nullString(doc.ContentType),
		doc.CreatedAt,
	)
	return scanDocument(row)
}

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.StandardDocument, error) {
	const q = `
		SELECT ` + selectColumns + `
		FROM standard_documents
		WHERE id = $1
	`
	d, err := scanDocument(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

// List returns all documents, newest insert first.
func (r *DocumentPostgres) List(ctx context.Context) ([]model.StandardDocument, error) {
	const q = `
		SELECT ` + selectColumns + `
		FROM standard_documents
		ORDER BY seq DESC
	`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.StandardDocument, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Delete removes the rows with the given IDs in one statement. The IDs travel
// as a single text[] parameter, so the batch size is not bound by the
// protocol's parameter limit.
func (r *DocumentPostgres) Delete(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	const q = `DELETE FROM standard_documents WHERE id = ANY($1)`

	res, err := r.db.ExecContext(ctx, q, ids)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

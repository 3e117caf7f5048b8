package storage

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorage_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	info, err := s.Put(ctx, "documents/a.pdf", strings.NewReader("hello"), PutObjectOptions{
		Size:        5,
		ContentType: "application/pdf",
		Metadata:    map[string]string{"original-filename": "a.pdf"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), info.Size)
	assert.NotEmpty(t, info.ETag)

	rc, got, err := s.Get(ctx, "documents/a.pdf")
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "hello", string(body))
	assert.Equal(t, "application/pdf", got.ContentType)
	assert.Equal(t, "a.pdf", got.Metadata["original-filename"])

	require.NoError(t, s.Delete(ctx, "documents/a.pdf"))
	_, _, err = s.Get(ctx, "documents/a.pdf")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	// deleting again is fine
	assert.NoError(t, s.Delete(ctx, "documents/a.pdf"))
}

func TestMemoryStorage_SizeMismatch(t *testing.T) {
	s := NewMemory()
	_, err := s.Put(context.Background(), "k", strings.NewReader("abc"), PutObjectOptions{Size: 10})
	assert.ErrorContains(t, err, "size mismatch")
}

func TestMemoryStorage_UnknownSize(t *testing.T) {
	s := NewMemory()
	info, err := s.Put(context.Background(), "k", strings.NewReader("abc"), PutObjectOptions{Size: -1})
	require.NoError(t, err)
	assert.Equal(t, int64(3), info.Size)
}

func TestMemoryStorage_PresignUnsupported(t *testing.T) {
	s := NewMemory()
	_, err := s.PresignGet(context.Background(), "k", time.Minute)
	assert.ErrorIs(t, err, ErrPresignUnsupported)
}

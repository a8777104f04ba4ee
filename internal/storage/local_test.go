package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocalStorage(t *testing.T) *LocalStorage {
	t.Helper()
	s, err := NewLocalStorage(Config{BasePath: t.TempDir()})
	require.NoError(t, err)
	return s
}

func TestLocalStorageSaveAndGet(t *testing.T) {
	s := newTestLocalStorage(t)
	ctx := context.Background()

	key := "transactions/tx-1/hardship-letter.pdf"
	err := s.Save(ctx, key, strings.NewReader("pdf bytes"), "application/pdf")
	require.NoError(t, err)

	reader, err := s.Get(ctx, key)
	require.NoError(t, err)
	defer reader.Close()

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "pdf bytes", string(data))

	size, err := s.GetSize(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(len("pdf bytes")), size)
}

func TestLocalStorageExists(t *testing.T) {
	s := newTestLocalStorage(t)
	ctx := context.Background()

	exists, err := s.Exists(ctx, "missing.pdf")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, s.Save(ctx, "present.pdf", strings.NewReader("x"), "application/pdf"))

	exists, err = s.Exists(ctx, "present.pdf")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestLocalStorageDelete(t *testing.T) {
	s := newTestLocalStorage(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "doomed.pdf", strings.NewReader("x"), "application/pdf"))
	require.NoError(t, s.Delete(ctx, "doomed.pdf"))

	exists, err := s.Exists(ctx, "doomed.pdf")
	require.NoError(t, err)
	assert.False(t, exists)

	// Повторное удаление не считается ошибкой
	assert.NoError(t, s.Delete(ctx, "doomed.pdf"))
}

func TestLocalStorageGetURL(t *testing.T) {
	ctx := context.Background()

	s, err := NewLocalStorage(Config{BasePath: t.TempDir(), BaseURL: "http://localhost:4000/api/v1/files"})
	require.NoError(t, err)

	url, err := s.GetURL(ctx, "a/b.pdf")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:4000/api/v1/files/a/b.pdf", url)

	// Без базового URL отдается относительный путь
	bare := newTestLocalStorage(t)
	url, err = bare.GetURL(ctx, "a/b.pdf")
	require.NoError(t, err)
	assert.Equal(t, "/files/a/b.pdf", url)

	// Подписанных ссылок у локального хранилища нет, отдается обычная
	signed, err := s.GetSignedURL(ctx, "a/b.pdf", 0)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:4000/api/v1/files/a/b.pdf", signed)
}

func TestNewStorageUnknownType(t *testing.T) {
	_, err := NewStorage(Config{Type: "ftp"})
	assert.Error(t, err)
}

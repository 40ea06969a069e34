package services

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leftovers/server/internal/models"
)

func setupTestStorage(t *testing.T) (*PhotoStorageService, string) {
	tempDir := t.TempDir()

	svc, err := NewPhotoStorageService(tempDir, 1)
	require.NoError(t, err)

	return svc, tempDir
}

func TestPhotoStorageService_Store(t *testing.T) {
	t.Run("round trips bytes", func(t *testing.T) {
		svc, _ := setupTestStorage(t)
		content := []byte("fake image content")

		name, err := svc.Store(bytes.NewReader(content), "soup.jpg", int64(len(content)))
		require.NoError(t, err)

		got, err := svc.Retrieve(name)
		require.NoError(t, err)
		assert.Equal(t, content, got)
	})

	t.Run("embeds original filename after a random prefix", func(t *testing.T) {
		svc, tempDir := setupTestStorage(t)

		name, err := svc.Store(bytes.NewReader([]byte("x")), "soup.jpg", 1)
		require.NoError(t, err)

		assert.True(t, strings.HasSuffix(name, "_soup.jpg"))
		assert.Len(t, strings.TrimSuffix(name, "_soup.jpg"), 36)
		assert.FileExists(t, filepath.Join(tempDir, name))
	})

	t.Run("creates a new name for every call", func(t *testing.T) {
		svc, _ := setupTestStorage(t)
		content := []byte("content")

		name1, err := svc.Store(bytes.NewReader(content), "same.jpg", int64(len(content)))
		require.NoError(t, err)
		name2, err := svc.Store(bytes.NewReader(content), "same.jpg", int64(len(content)))
		require.NoError(t, err)

		assert.NotEqual(t, name1, name2)
		assert.True(t, svc.Exists(name1))
		assert.True(t, svc.Exists(name2))
	})

	t.Run("sanitizes path traversal attempts", func(t *testing.T) {
		svc, tempDir := setupTestStorage(t)

		for _, original := range []string{"../../../etc/passwd.jpg", `..\..\windows\system32.jpg`, "/etc/passwd.jpg"} {
			name, err := svc.Store(bytes.NewReader([]byte("content")), original, 7)
			require.NoError(t, err)

			assert.NotContains(t, name, "/")
			assert.NotContains(t, name, "..")
			assert.FileExists(t, filepath.Join(tempDir, name))
		}
	})

	t.Run("keeps only URL safe characters", func(t *testing.T) {
		svc, tempDir := setupTestStorage(t)
		safe := regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

		for original, suffix := range map[string]string{
			"50%off#1.jpg":     "_50_off_1.jpg",
			"a%20b.jpg":        "_a_20b.jpg",
			"dish #2?.jpg":     "_dish__2_.jpg",
			"gâteau & tea.png": "_g_teau___tea.png",
		} {
			name, err := svc.Store(bytes.NewReader([]byte("content")), original, 7)
			require.NoError(t, err)

			assert.Regexp(t, safe, name, original)
			assert.True(t, strings.HasSuffix(name, suffix), "%s stored as %s", original, name)
			assert.FileExists(t, filepath.Join(tempDir, name))
		}
	})

	t.Run("falls back to a generic name", func(t *testing.T) {
		svc, _ := setupTestStorage(t)

		name, err := svc.Store(bytes.NewReader([]byte("x")), "", 1)
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(name, "_photo"))
	})

	t.Run("rejects oversize photos by declared size", func(t *testing.T) {
		svc, tempDir := setupTestStorage(t)

		_, err := svc.Store(bytes.NewReader([]byte("x")), "big.jpg", 2*1024*1024)
		assert.ErrorIs(t, err, models.ErrValidation)

		entries, err := os.ReadDir(tempDir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("rejects oversize photos of unknown size", func(t *testing.T) {
		svc, tempDir := setupTestStorage(t)
		content := bytes.Repeat([]byte("a"), 1024*1024+1)

		_, err := svc.Store(bytes.NewReader(content), "big.jpg", -1)
		assert.ErrorIs(t, err, models.ErrFileTooLarge)

		entries, err := os.ReadDir(tempDir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("fails with storage failure when the directory is gone", func(t *testing.T) {
		svc, tempDir := setupTestStorage(t)
		require.NoError(t, os.RemoveAll(tempDir))

		_, err := svc.Store(bytes.NewReader([]byte("x")), "a.jpg", 1)
		assert.ErrorIs(t, err, models.ErrStorageFailure)
	})
}

func TestPhotoStorageService_Retrieve(t *testing.T) {
	svc, _ := setupTestStorage(t)

	t.Run("unknown name is not found", func(t *testing.T) {
		_, err := svc.Retrieve("nonexistent.jpg")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("path traversal is not found", func(t *testing.T) {
		for _, name := range []string{"../../../etc/passwd", "..", ".", "a/b.jpg", ""} {
			_, err := svc.Retrieve(name)
			assert.ErrorIs(t, err, models.ErrNotFound, "name %q", name)
		}
	})
}

func TestPhotoStorageService_Remove(t *testing.T) {
	t.Run("deletes existing photo", func(t *testing.T) {
		svc, _ := setupTestStorage(t)

		name, err := svc.Store(bytes.NewReader([]byte("content")), "delete_me.jpg", 7)
		require.NoError(t, err)

		require.NoError(t, svc.Remove(name))
		assert.False(t, svc.Exists(name))

		_, err = svc.Retrieve(name)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("missing photo is not found", func(t *testing.T) {
		svc, _ := setupTestStorage(t)

		err := svc.Remove("nonexistent.jpg")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestPhotoStorageService_GetFullPath(t *testing.T) {
	svc, tempDir := setupTestStorage(t)

	fullPath, err := svc.GetFullPath("abc_test.jpg")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tempDir, "abc_test.jpg"), fullPath)

	_, err = svc.GetFullPath("../../../etc/passwd")
	assert.ErrorIs(t, err, models.ErrPathTraversal)
}

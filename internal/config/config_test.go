package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("environment overrides defaults", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv("CONFIG_PATH", filepath.Join(dir, "missing.json"))
		t.Setenv("SERVER_ADDRESS", ":9999")
		t.Setenv("DATABASE_URL", "postgres://localhost/leftovers")
		t.Setenv("PHOTO_STORAGE_PATH", filepath.Join(dir, "photos"))
		t.Setenv("MAX_PHOTO_SIZE_MB", "3")
		t.Setenv("MAX_REQUEST_SIZE_MB", "20")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, ":9999", cfg.ServerAddress)
		assert.True(t, cfg.UsePostgres())
		assert.Equal(t, int64(3), cfg.PhotoStorage.MaxFileSizeMB)
		assert.Equal(t, int64(20), cfg.MaxRequestSizeMB)
		assert.Equal(t, filepath.Join(dir, "photos"), cfg.PhotoStorage.BasePath)
		assert.DirExists(t, cfg.PhotoStorage.BasePath)
	})

	t.Run("reads JSON config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.json")
		content := `{"serverAddress": ":4000", "photoStorage": {"basePath": "` + filepath.ToSlash(filepath.Join(dir, "blobs")) + `", "maxFileSizeMB": 2}}`
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		t.Setenv("CONFIG_PATH", path)
		t.Setenv("DATABASE_URL", "")
		t.Setenv("SERVER_ADDRESS", "")
		t.Setenv("MAX_PHOTO_SIZE_MB", "")
		t.Setenv("MAX_REQUEST_SIZE_MB", "")
		t.Setenv("PHOTO_STORAGE_PATH", "")
		t.Setenv("PHOTO_UPLOAD_DIR", "")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, ":4000", cfg.ServerAddress)
		assert.False(t, cfg.UsePostgres())
		assert.Equal(t, int64(2), cfg.PhotoStorage.MaxFileSizeMB)
		assert.Equal(t, int64(100), cfg.MaxRequestSizeMB)
		assert.Equal(t, filepath.Join(dir, "blobs"), cfg.PhotoStorage.BasePath)
	})

	t.Run("rejects malformed JSON config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))
		t.Setenv("CONFIG_PATH", path)

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("missing config file falls back to defaults", func(t *testing.T) {
		t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "absent.json"))
		t.Setenv("PHOTO_STORAGE_PATH", filepath.Join(t.TempDir(), "photos"))

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, int64(100), cfg.MaxRequestSizeMB)
	})

	t.Run("unreadable config file is an error", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv("CONFIG_PATH", dir)

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), dir)
	})
}

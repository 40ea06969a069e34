package services

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/leftovers/server/internal/models"
)

// PhotoStore is the blob side of a party: stored photos addressed by name
type PhotoStore interface {
	Store(reader io.Reader, originalFilename string, size int64) (string, error)
	Retrieve(name string) ([]byte, error)
	Remove(name string) error
}

var _ PhotoStore = (*PhotoStorageService)(nil)

// PhotoStorageService stores photos as flat files named <uuid>_<original name>
type PhotoStorageService struct {
	basePath         string
	maxFileSizeBytes int64
}

// NewPhotoStorageService creates a new PhotoStorageService.
// A maxFileSizeMB of zero disables the size limit.
func NewPhotoStorageService(basePath string, maxFileSizeMB int64) (*PhotoStorageService, error) {
	if strings.TrimSpace(basePath) == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}

	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(absPath, 0755); err != nil {
		return nil, err
	}

	return &PhotoStorageService{
		basePath:         absPath,
		maxFileSizeBytes: maxFileSizeMB * 1024 * 1024,
	}, nil
}

// Store writes the photo under a freshly generated name and returns that name.
// size may be -1 when unknown; the limit is then enforced while copying.
func (s *PhotoStorageService) Store(reader io.Reader, originalFilename string, size int64) (string, error) {
	if s.maxFileSizeBytes > 0 && size > s.maxFileSizeBytes {
		return "", models.ErrFileTooLarge
	}

	name := uuid.New().String() + "_" + sanitizeFilename(originalFilename)
	fullPath, err := s.GetFullPath(name)
	if err != nil {
		return "", err
	}

	// O_EXCL guarantees the name was unused
	file, err := os.OpenFile(fullPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return "", models.StorageError("create photo", err)
	}

	src := reader
	if s.maxFileSizeBytes > 0 {
		src = io.LimitReader(reader, s.maxFileSizeBytes+1)
	}

	written, err := io.Copy(file, src)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(fullPath)
		return "", models.StorageError("write photo", err)
	}
	if s.maxFileSizeBytes > 0 && written > s.maxFileSizeBytes {
		os.Remove(fullPath)
		return "", models.ErrFileTooLarge
	}

	return name, nil
}

// Retrieve returns the bytes of a stored photo
func (s *PhotoStorageService) Retrieve(name string) ([]byte, error) {
	fullPath, err := s.GetFullPath(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(fullPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, models.NotFoundError("photo '%s' not found", name)
	}
	if err != nil {
		return nil, models.StorageError("read photo", err)
	}

	return data, nil
}

// Remove deletes a stored photo
func (s *PhotoStorageService) Remove(name string) error {
	fullPath, err := s.GetFullPath(name)
	if err != nil {
		return err
	}

	err = os.Remove(fullPath)
	if errors.Is(err, os.ErrNotExist) {
		return models.NotFoundError("photo '%s' not found", name)
	}
	if err != nil {
		return models.StorageError("remove photo", err)
	}

	return nil
}

// GetFullPath returns the absolute path for a stored photo name.
// Names are flat, so anything with a path component is rejected.
func (s *PhotoStorageService) GetFullPath(name string) (string, error) {
	if strings.TrimSpace(name) == "" || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) || name == ".." {
		return "", models.ErrPathTraversal
	}

	fullPath := filepath.Join(s.basePath, name)
	if !strings.HasPrefix(fullPath, s.basePath+string(os.PathSeparator)) {
		return "", models.ErrPathTraversal
	}

	return fullPath, nil
}

// Exists checks if a photo is stored under the given name
func (s *PhotoStorageService) Exists(name string) bool {
	fullPath, err := s.GetFullPath(name)
	if err != nil {
		return false
	}

	_, err = os.Stat(fullPath)
	return err == nil
}

// sanitizeFilename reduces a filename to [A-Za-z0-9._-] so that stored names
// can be placed in a URL path verbatim
func sanitizeFilename(filename string) string {
	name := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	name = strings.ReplaceAll(name, "..", "")

	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, name)

	const maxLength = 200
	if len(name) > maxLength {
		ext := filepath.Ext(name)
		if len(ext) > 20 {
			ext = ""
		}
		name = name[:maxLength-len(ext)] + ext
	}

	if name == "" || name == "." || name == "/" {
		return "photo"
	}
	return name
}

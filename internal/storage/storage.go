// Package storage provides validation and filesystem storage for uploaded PDF files.
package storage

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pothpath/pothpath-server/internal/errors"
	"github.com/pothpath/pothpath-server/internal/util"
)

// MaxFileSize is the hard cap enforced on stored objects. The API layer
// advertises a lower soft limit, this is the backstop.
const MaxFileSize = 100 * 1000 * 1000 // 100 MB

// pdfMagic is the signature every PDF starts with.
var pdfMagic = []byte("%PDF-")

// maxKeySlug caps the slug portion of a storage key.
const maxKeySlug = 64

// ValidatePDF checks that data looks like an acceptable PDF upload:
// non-empty, within the size cap, and carrying the PDF signature.
// Returns a domain validation error describing the first failure.
func ValidatePDF(data []byte) error {
	if len(data) == 0 {
		return errors.Validation("file is empty")
	}
	if len(data) > MaxFileSize {
		return errors.Validationf("file exceeds the %d byte limit", MaxFileSize)
	}
	if !bytes.HasPrefix(data, pdfMagic) {
		return errors.Validation("file is not a PDF")
	}
	return nil
}

// MakeKey builds a storage key from the book title and uploader.
// Format: {slug}-{unix}-{uploader}.pdf. The timestamp and uploader keep
// keys unique across same-titled uploads without leaking a random name
// the uploader can't recognize.
func MakeKey(title, uploaderID string, now time.Time) string {
	slug := util.SlugifyMax(title, maxKeySlug)
	if slug == "" {
		slug = "book"
	}
	return fmt.Sprintf("%s-%d-%s.pdf", slug, now.Unix(), uploaderID)
}

// Storage manages PDF filesystem operations.
// Thread-safe for concurrent operations.
type Storage struct {
	basePath string
	mu       sync.RWMutex // Protects file operations
}

// NewStorage creates a new Storage instance for book files.
// basePath should be the data directory (e.g., ~/Pothpath/data).
// Books are stored in {basePath}/books/.
func NewStorage(basePath string) (*Storage, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}

	storagePath := filepath.Join(basePath, "books")

	// Create directory if it doesn't exist.
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create books directory: %w", err)
	}

	return &Storage{
		basePath: storagePath,
	}, nil
}

// Save stores PDF data under the given key. An existing object is never
// overwritten: the file is opened with O_EXCL, so a key collision fails
// instead of silently replacing another upload.
func (s *Storage) Save(key string, data []byte) error {
	if err := validKey(key); err != nil {
		return err
	}
	if len(data) == 0 {
		return fmt.Errorf("file data cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.Path(key), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("object %s already exists", key)
		}
		return fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(s.Path(key))
		return fmt.Errorf("failed to write file: %w", err)
	}

	return f.Close()
}

// Open returns a reader over the stored object along with its size.
// The caller must close the reader.
func (s *Storage) Open(key string) (io.ReadSeekCloser, int64, error) {
	if err := validKey(key); err != nil {
		return nil, 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	f, err := os.Open(s.Path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, fmt.Errorf("object not found for %s: %w", key, err)
		}
		return nil, 0, fmt.Errorf("failed to open file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("failed to stat file: %w", err)
	}

	return f, info.Size(), nil
}

// Get retrieves the full object contents.
func (s *Storage) Get(key string) ([]byte, error) {
	if err := validKey(key); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.Path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("object not found for %s: %w", key, err)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return data, nil
}

// Exists checks if an object exists for a key.
func (s *Storage) Exists(key string) bool {
	if validKey(key) != nil {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := os.Stat(s.Path(key))
	return err == nil
}

// Delete removes a stored object.
func (s *Storage) Delete(key string) error {
	if err := validKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.Path(key)); err != nil {
		if os.IsNotExist(err) {
			// Already deleted, not an error.
			return nil
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}

	return nil
}

// Hash computes SHA256 hash of a stored object.
// Returns hex-encoded string for ETag/cache validation.
func (s *Storage) Hash(key string) (string, error) {
	data, err := s.Get(key)
	if err != nil {
		return "", err
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash), nil
}

// Dir returns the directory holding stored files.
func (s *Storage) Dir() string {
	return s.basePath
}

// Path returns the full filesystem path for a storage key.
func (s *Storage) Path(key string) string {
	return filepath.Join(s.basePath, key)
}

// validKey rejects empty keys and anything that could escape the books
// directory.
func validKey(key string) error {
	if key == "" {
		return fmt.Errorf("key cannot be empty")
	}
	if strings.Contains(key, "/") || strings.Contains(key, "\\") || strings.Contains(key, "..") {
		return fmt.Errorf("invalid key %q", key)
	}
	return nil
}

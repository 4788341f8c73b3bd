package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	// ErrUnsupportedType is returned for MIME types outside the allow-list
	ErrUnsupportedType = errors.New("type de fichier non autorisé")
	// ErrTooLarge is returned when an upload exceeds the size limit
	ErrTooLarge = errors.New("fichier trop volumineux")
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9.\-_]`)

// SavedFile describes a file written to the store.
type SavedFile struct {
	NomFichier string
	Taille     int64
	Chemin     string
}

// Store writes attachments to a directory on disk. Stored names carry a
// timestamp prefix so concurrent uploads never collide.
type Store struct {
	dir     string
	maxSize int64
	allowed map[string]bool
}

// NewStore creates the upload directory if missing
func NewStore(dir string, maxSize int64, allowedTypes []string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("upload dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	allowed := make(map[string]bool, len(allowedTypes))
	for _, t := range allowedTypes {
		allowed[t] = true
	}
	return &Store{dir: dir, maxSize: maxSize, allowed: allowed}, nil
}

// Save writes the upload to disk after checking type and size. Nothing is
// written when either check fails.
func (s *Store) Save(r io.Reader, originalName, mimeType string, size int64) (*SavedFile, error) {
	if !s.allowed[mimeType] {
		return nil, ErrUnsupportedType
	}
	if size > s.maxSize {
		return nil, ErrTooLarge
	}

	stored := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), SanitizeFilename(originalName))
	path := filepath.Join(s.dir, stored)

	out, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer out.Close()

	// The declared size comes from the multipart header; cap the copy so a
	// lying client cannot exceed the limit.
	written, err := io.Copy(out, io.LimitReader(r, s.maxSize+1))
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}
	if written > s.maxSize {
		os.Remove(path)
		return nil, ErrTooLarge
	}

	logrus.WithFields(logrus.Fields{"file": stored, "size": written}).Debug("Stored attachment")

	return &SavedFile{
		NomFichier: originalName,
		Taille:     written,
		Chemin:     path,
	}, nil
}

// Open returns a reader over a previously stored file
func (s *Store) Open(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open stored file: %w", err)
	}
	return f, nil
}

// Dir returns the upload directory path
func (s *Store) Dir() string {
	return s.dir
}

// SanitizeFilename strips path components and replaces characters outside
// [a-zA-Z0-9.-_] with underscores.
func SanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = unsafeChars.ReplaceAllString(name, "_")
	if name == "" || name == "." {
		return "fichier"
	}
	return name
}

// Package storage implements the durable store: whole-file JSON documents
// with read/replace semantics and no partial-write visibility.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

var (
	// ErrMalformedData indicates the file exists but could not be decoded.
	// The caller keeps its defaults; the corrupt file is overwritten on the
	// next successful save.
	ErrMalformedData = errors.New("storage: malformed data")

	// ErrWriteFailed wraps any failure to persist a document. In-memory
	// state remains authoritative; the store is a lagging mirror.
	ErrWriteFailed = errors.New("storage: write failed")
)

// Store persists a single JSON document at a fixed path. Saves are
// serialized so concurrent checkpoint paths cannot interleave writes to
// the same file.
type Store struct {
	mu     sync.Mutex
	path   string
	logger *zap.Logger
}

// New creates a store for the document at path.
func New(path string, logger *zap.Logger) *Store {
	return &Store{
		path:   path,
		logger: logger.Named("storage"),
	}
}

// Path returns the document path.
func (s *Store) Path() string {
	return s.path
}

// Load decodes the document into v, which must arrive pre-populated with
// defaults. A missing file is not an error: the defaults are written out so
// the file exists for the next reader. A present but undecodable file
// returns ErrMalformedData and leaves v untouched.
func (s *Store) Load(v any) error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.logger.Info("Store file not found, initializing with defaults",
			zap.String("path", s.path))

		if saveErr := s.Save(v); saveErr != nil {
			s.logger.Error("Failed to create store file", zap.Error(saveErr))
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", s.path, err)
	}

	if err := sonic.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrMalformedData, s.path, err)
	}

	return nil
}

// Save replaces the document wholesale. The bytes are written to a
// temporary file in the same directory and renamed into place so a reader
// never observes a half-written document. Output uses 4-space indentation
// for layout compatibility with prior checkpoints.
func (s *Store) Save(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := sonic.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", ErrWriteFailed, s.path, err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}

	return nil
}

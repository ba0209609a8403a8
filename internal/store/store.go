package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/errors"
)

// Store keeps encoded index blobs under a name.
type Store interface {
	Save(ctx context.Context, name string, blob []byte) error
	Load(ctx context.Context, name string) ([]byte, error)
}

// FileStore keeps one blob per file. The name passed to Save and Load is
// ignored; the path is fixed at construction.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Save atomically replaces the index file. It writes to a .tmp file first
// and renames on success.
func (s *FileStore) Save(_ context.Context, _ string, blob []byte) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}
	tmpPath := s.path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating temp index file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(blob); err != nil {
		return fmt.Errorf("writing index file: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing index file: %w", err)
	}
	f.Close()
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("renaming index file: %w", err)
	}
	return nil
}

func (s *FileStore) Load(_ context.Context, _ string) ([]byte, error) {
	blob, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrIndexNotFound, s.path)
		}
		return nil, fmt.Errorf("reading index file: %w", err)
	}
	return blob, nil
}

// SaveIndex encodes idx and stores it under name, returning the blob's
// checksum.
func SaveIndex(ctx context.Context, s Store, name string, idx *index.Index) (string, error) {
	blob, err := Encode(idx)
	if err != nil {
		return "", err
	}
	if err := s.Save(ctx, name, blob); err != nil {
		return "", fmt.Errorf("saving index %q: %w", name, err)
	}
	slog.Default().With("component", "store").Info("index saved",
		"name", name,
		"bytes", len(blob),
		"documents", idx.DocumentCount(),
		"terms", idx.TermCount(),
	)
	return Checksum(blob), nil
}

// LoadIndex fetches and decodes the index stored under name, returning it
// with its checksum.
func LoadIndex(ctx context.Context, s Store, name string) (*index.Index, string, error) {
	blob, err := s.Load(ctx, name)
	if err != nil {
		return nil, "", err
	}
	idx, err := Decode(blob)
	if err != nil {
		return nil, "", fmt.Errorf("decoding index %q: %w", name, err)
	}
	return idx, Checksum(blob), nil
}

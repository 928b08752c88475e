package api

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// BlobStore куда экспортируются снимки (<id>.mmd).
type BlobStore interface {
	Put(key string, r io.Reader) (string, int64, string, error) // returns key, size, sha256
	Open(key string) (io.ReadCloser, error)
	Delete(key string) error
}

var errBadKey = errors.New("invalid blob key")

type LocalBlobStore struct {
	Root string // например, "./exports"
}

// path не выпускает ключ за пределы Root.
func (s *LocalBlobStore) path(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errBadKey
	}
	clean := filepath.Clean(filepath.FromSlash(key))
	if filepath.IsAbs(clean) || clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", errBadKey, key)
	}
	return filepath.Join(s.Root, clean), nil
}

// Put пишет во временный файл и переименовывает, чтобы читатель не увидел половину.
func (s *LocalBlobStore) Put(key string, r io.Reader) (string, int64, string, error) {
	full, err := s.path(key)
	if err != nil {
		return "", 0, "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", 0, "", err
	}
	f, err := os.CreateTemp(filepath.Dir(full), ".put-*")
	if err != nil {
		return "", 0, "", err
	}
	tmp := f.Name()
	defer os.Remove(tmp) // после Rename уже нет

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(f, h), r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", 0, "", err
	}
	if err := os.Rename(tmp, full); err != nil {
		return "", 0, "", err
	}
	return filepath.ToSlash(key), n, hex.EncodeToString(h.Sum(nil)), nil
}

func (s *LocalBlobStore) Open(key string) (io.ReadCloser, error) {
	full, err := s.path(key)
	if err != nil {
		return nil, err
	}
	return os.Open(full)
}

func (s *LocalBlobStore) Delete(key string) error {
	full, err := s.path(key)
	if err != nil {
		return err
	}
	return os.Remove(full)
}

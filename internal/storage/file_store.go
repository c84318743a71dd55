package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// document is the on-disk layout. Several origins can share one file.
type document struct {
	Origins map[string]map[string]string `yaml:"origins"`
}

type fileStore struct {
	path   string
	origin string
	mu     sync.Mutex
}

// NewFileStore creates a Store backed by a YAML document at path, keeping its
// keys under origin. The file is created on first write.
func NewFileStore(path, origin string) Store {
	return &fileStore{path: path, origin: origin}
}

func (s *fileStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return "", err
	}
	value, ok := doc.Origins[s.origin][key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}
	return value, nil
}

func (s *fileStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	items := doc.Origins[s.origin]
	if items == nil {
		items = make(map[string]string)
		doc.Origins[s.origin] = items
	}
	items[key] = value
	return s.save(doc)
}

func (s *fileStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	items := doc.Origins[s.origin]
	if _, ok := items[key]; !ok {
		return nil
	}
	delete(items, key)
	if len(items) == 0 {
		delete(doc.Origins, s.origin)
	}
	return s.save(doc)
}

func (s *fileStore) load() (*document, error) {
	doc := &document{Origins: make(map[string]map[string]string)}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return doc, nil
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrLoadFailed, s.path, err)
	}
	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLoadFailed, s.path, err)
	}
	if doc.Origins == nil {
		doc.Origins = make(map[string]map[string]string)
	}
	return doc, nil
}

// save replaces the file through a temp file and rename so a crash never
// leaves a half-written record behind.
func (s *fileStore) save(doc *document) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, s.path, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, s.path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, s.path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, s.path, err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, s.path, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, s.path, err)
	}

	return nil
}

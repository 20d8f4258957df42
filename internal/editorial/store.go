// Package editorial keeps the flat-file editorial corpus and the job that
// fills it from AtCoder editorial pages.
package editorial

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/atcpro/atcpro/pkg/models"
)

// Store maps problem ids to editorials and persists the whole map as one JSON
// document. A key holding nil means the problem was checked and has no usable
// editorial. Every write rewrites the file, so an interrupted scrape resumes
// from the last stored record.
//
// Several processes may share the file (the server and the scraper). Writes
// merge the current file contents before flushing, and Corpus, Len and
// Refresh pick up records written by others. Get and Has serve the copy held
// since the last refresh.
type Store struct {
	path string

	mu      sync.RWMutex
	entries map[string]*models.Editorial
	// info describes the file as of the last read or write; nil when absent.
	info fs.FileInfo
}

// Open loads the store at path. A missing file yields an empty store.
func Open(path string) (*Store, error) {
	s := &Store{
		path:    path,
		entries: make(map[string]*models.Editorial),
	}
	if err := s.reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Get returns the editorial of id and whether the key is present at all.
func (s *Store) Get(id string) (*models.Editorial, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	return e, ok
}

// Has reports whether id was already checked, with or without a result.
func (s *Store) Has(id string) bool {
	_, ok := s.Get(id)
	return ok
}

// Len returns the number of keys, including unavailable ones.
func (s *Store) Len() int {
	_ = s.Refresh()

	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Refresh merges records another process wrote to the file since the last
// read. Entries are never dropped.
func (s *Store) Refresh() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reload()
}

// Put records one editorial (nil for unavailable) and flushes the store.
func (s *Store) Put(id string, e *models.Editorial) error {
	return s.PutAll(map[string]*models.Editorial{id: e})
}

// PutAll merges entries into the store and flushes it. A file that changed
// on disk and can no longer be decoded is left untouched.
func (s *Store) PutAll(entries map[string]*models.Editorial) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.reload(); err != nil {
		return err
	}
	for id, e := range entries {
		s.entries[id] = e
	}
	return s.flush()
}

// Corpus returns a snapshot of every entry, unavailable ones included. When
// the file cannot be re-read the last good copy is returned.
func (s *Store) Corpus() map[string]*models.Editorial {
	_ = s.Refresh()

	s.mu.RLock()
	defer s.mu.RUnlock()
	corpus := make(map[string]*models.Editorial, len(s.entries))
	for id, e := range s.entries {
		corpus[id] = e
	}
	return corpus
}

// reload merges the file into entries when it differs from the one last seen.
// Callers hold mu for writing.
func (s *Store) reload() error {
	info, err := os.Stat(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat editorial store: %w", err)
	}
	if s.unchanged(info) {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read editorial store: %w", err)
	}
	if len(bytes.TrimSpace(data)) > 0 {
		stored := make(map[string]*models.Editorial)
		if err := json.Unmarshal(data, &stored); err != nil {
			return fmt.Errorf("decode editorial store %s: %w", s.path, err)
		}
		for id, e := range stored {
			s.entries[id] = e
		}
	}
	s.info = info
	return nil
}

// unchanged reports whether info is the file last read or written. Flushes
// rename a new file into place, so a write by anyone changes its identity.
func (s *Store) unchanged(info fs.FileInfo) bool {
	return s.info != nil &&
		os.SameFile(s.info, info) &&
		s.info.Size() == info.Size() &&
		s.info.ModTime().Equal(info.ModTime())
}

// flush writes the store to a temporary file and renames it over the old one.
func (s *Store) flush() error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(s.entries); err != nil {
		return fmt.Errorf("encode editorial store: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp store: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp store: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace editorial store: %w", err)
	}

	info, err := os.Stat(s.path)
	if err != nil {
		return fmt.Errorf("stat editorial store: %w", err)
	}
	s.info = info
	return nil
}

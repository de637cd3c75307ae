// Package upload locates the detector exports attached to a QA test list
// instance. Each instance keeps its files in a directory named by its id
// under the upload root.
package upload

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// ErrNoData matches every NoDataError
var ErrNoData = errors.New("no data found")

// NoDataError reports an instance with no stored export
type NoDataError struct {
	ID string
}

func (e *NoDataError) Error() string {
	return "No data found for id: " + e.ID
}

// Is makes errors.Is(err, ErrNoData) true
func (e *NoDataError) Is(target error) bool {
	return target == ErrNoData
}

// Store resolves instance ids to files under Root
type Store struct {
	Root string
}

// NewStore creates a store rooted at root
func NewStore(root string) *Store {
	return &Store{Root: root}
}

// Resolve returns the path of the first regular file, in name order, in the
// instance's directory. A missing or empty directory is a *NoDataError.
func (s *Store) Resolve(id string) (string, error) {
	// an id names one directory under Root; anything else holds no upload
	if id == "" || id != filepath.Base(id) || id == "." || id == ".." {
		return "", &NoDataError{ID: id}
	}

	dir := filepath.Join(s.Root, id)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", &NoDataError{ID: id}
		}
		return "", fmt.Errorf("upload: reading %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return "", &NoDataError{ID: id}
	}

	sort.Strings(names)
	return filepath.Join(dir, names[0]), nil
}

// Open resolves id and opens the file
func (s *Store) Open(id string) (io.ReadCloser, error) {
	path, err := s.Resolve(id)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	return f, nil
}

// Package modelstore persists model artifacts as JSON files.
package modelstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/couchcryptid/air-quality-etl/internal/adapter/fsutil"
	"github.com/couchcryptid/air-quality-etl/internal/domain"
)

// Store reads and writes <dir>/<name>.json artifacts.
type Store struct {
	fs  afero.Fs
	dir string
}

// New creates a Store rooted at dir on fs.
func New(fs afero.Fs, dir string) *Store {
	return &Store{fs: fs, dir: dir}
}

// Path returns the file backing the named artifact.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// Save writes the artifacts as one unit: either every file is replaced or,
// on any failure, every previous artifact is left as it was.
func (s *Store) Save(_ context.Context, artifacts ...domain.ModelArtifact) error {
	files := make([]fsutil.File, 0, len(artifacts))
	for _, a := range artifacts {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("save %s: %w", a.Name, err)
		}
		files = append(files, fsutil.File{
			Path: s.Path(a.Name),
			Write: func(w io.Writer) error {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(a)
			},
		})
	}
	return fsutil.WriteAtomicAll(s.fs, files)
}

// Load reads the named artifact.
func (s *Store) Load(_ context.Context, name string) (domain.ModelArtifact, error) {
	path := s.Path(name)
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return domain.ModelArtifact{}, fmt.Errorf("%w: read %s: %w", domain.ErrArtifactIO, path, err)
	}
	var a domain.ModelArtifact
	if err := json.Unmarshal(data, &a); err != nil {
		return domain.ModelArtifact{}, fmt.Errorf("%w: decode %s: %w", domain.ErrMalformedInput, path, err)
	}
	return a, nil
}

// Package fsutil holds filesystem helpers shared by the file adapters.
package fsutil

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/couchcryptid/air-quality-etl/internal/domain"
)

// FilePermissions is the mode of files written by the adapters.
const FilePermissions = 0o644

// File is one target of WriteAtomicAll.
type File struct {
	Path  string
	Write func(w io.Writer) error
}

// WriteAtomic writes the output of write to a temporary file next to path
// and renames it into place. On any failure the temporary file is removed
// and path is left untouched.
func WriteAtomic(fs afero.Fs, path string, write func(w io.Writer) error) error {
	tmp, err := stage(fs, path, write)
	if err != nil {
		return err
	}
	if err := fs.Rename(tmp, path); err != nil {
		_ = fs.Remove(tmp)
		return fmt.Errorf("%w: rename %s: %w", domain.ErrArtifactIO, path, err)
	}
	return nil
}

// WriteAtomicAll replaces every file as one unit. All contents are staged to
// temporary files first; only then are they renamed into place, each previous
// file being kept aside until the last rename succeeds. On any failure the
// previous files are restored and no new content is left behind.
func WriteAtomicAll(fs afero.Fs, files []File) error {
	staged := make([]string, 0, len(files))
	for _, f := range files {
		tmp, err := stage(fs, f.Path, f.Write)
		if err != nil {
			removeAll(fs, staged)
			return err
		}
		staged = append(staged, tmp)
	}

	var done []commit
	for i, f := range files {
		c, err := replace(fs, staged[i], f.Path)
		if err != nil {
			rollback(fs, done)
			removeAll(fs, staged[i:])
			return err
		}
		done = append(done, c)
	}
	for _, c := range done {
		if c.backup != "" {
			_ = fs.Remove(c.backup)
		}
	}
	return nil
}

// commit records one renamed file and where its predecessor was moved.
type commit struct {
	path   string
	backup string
}

func replace(fs afero.Fs, tmp, path string) (commit, error) {
	c := commit{path: path}
	if _, err := fs.Stat(path); err == nil {
		c.backup = filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".bak")
		if err := fs.Rename(path, c.backup); err != nil {
			return c, fmt.Errorf("%w: back up %s: %w", domain.ErrArtifactIO, path, err)
		}
	} else if !errors.Is(err, afero.ErrFileNotFound) {
		return c, fmt.Errorf("%w: stat %s: %w", domain.ErrArtifactIO, path, err)
	}
	if err := fs.Rename(tmp, path); err != nil {
		if c.backup != "" {
			_ = fs.Rename(c.backup, path)
		}
		return c, fmt.Errorf("%w: rename %s: %w", domain.ErrArtifactIO, path, err)
	}
	return c, nil
}

func rollback(fs afero.Fs, done []commit) {
	for i := len(done) - 1; i >= 0; i-- {
		c := done[i]
		_ = fs.Remove(c.path)
		if c.backup != "" {
			_ = fs.Rename(c.backup, c.path)
		}
	}
}

func removeAll(fs afero.Fs, names []string) {
	for _, n := range names {
		_ = fs.Remove(n)
	}
}

// stage writes the output of write to a synced temporary file next to path
// and returns its name.
func stage(fs afero.Fs, path string, write func(w io.Writer) error) (string, error) {
	dir := filepath.Dir(path)
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create %s: %w", domain.ErrArtifactIO, dir, err)
	}

	tmp, err := afero.TempFile(fs, dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("%w: create temp for %s: %w", domain.ErrArtifactIO, path, err)
	}
	name := tmp.Name()

	if err := write(tmp); err != nil {
		_ = tmp.Close()
		_ = fs.Remove(name)
		return "", fmt.Errorf("%w: write %s: %w", domain.ErrArtifactIO, path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = fs.Remove(name)
		return "", fmt.Errorf("%w: sync %s: %w", domain.ErrArtifactIO, path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = fs.Remove(name)
		return "", fmt.Errorf("%w: close %s: %w", domain.ErrArtifactIO, path, err)
	}
	if err := fs.Chmod(name, FilePermissions); err != nil {
		_ = fs.Remove(name)
		return "", fmt.Errorf("%w: chmod %s: %w", domain.ErrArtifactIO, path, err)
	}
	return name, nil
}

// Package artifact keeps processing results on disk for the time it takes to
// send them back to the browser.
package artifact

import (
	"fmt"
	"io"

	"github.com/brizzai/auth-gateway/internal/logger"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const filePattern = "artifact-*.tmp"

// Store creates temporary artifacts under one directory
type Store struct {
	fs  afero.Fs
	dir string
}

// NewStore creates a Store; an empty dir means the system temp directory
func NewStore(fs afero.Fs, dir string) *Store {
	return &Store{fs: fs, dir: dir}
}

// Artifact is one temporary file. Callers must Remove it once it was served.
type Artifact struct {
	fs   afero.Fs
	Path string
	Size int64
}

// Write stores data in a fresh temporary file
func (s *Store) Write(data []byte) (*Artifact, error) {
	f, err := afero.TempFile(s.fs, s.dir, filePattern)
	if err != nil {
		return nil, fmt.Errorf("failed to create artifact: %w", err)
	}
	a := &Artifact{fs: s.fs, Path: f.Name(), Size: int64(len(data))}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = a.Remove()
		return nil, fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = a.Remove()
		return nil, fmt.Errorf("failed to close artifact: %w", err)
	}
	return a, nil
}

// CopyTo streams the artifact's content into w
func (a *Artifact) CopyTo(w io.Writer) (int64, error) {
	f, err := a.fs.Open(a.Path)
	if err != nil {
		return 0, fmt.Errorf("failed to open artifact: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(w, f)
	if err != nil {
		return n, fmt.Errorf("failed to send artifact: %w", err)
	}
	return n, nil
}

// Remove deletes the temporary file. Removing twice is not an error.
func (a *Artifact) Remove() error {
	if err := a.fs.Remove(a.Path); err != nil {
		if exists, _ := afero.Exists(a.fs, a.Path); !exists {
			return nil
		}
		logger.Warn("Failed to remove artifact", zap.String("path", a.Path), zap.Error(err))
		return err
	}
	return nil
}

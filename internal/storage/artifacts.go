// Package storage persists rendered documents on the local filesystem.
//
// Writes are staged: bytes land in a hidden staging directory first, are
// fsynced, then renamed into the output directory and finally duplicated
// into the public directory for direct serving. A crash mid-write leaves
// only a staging temp file, which is swept on the next start.
package storage

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	dirPerm  = 0o750
	filePerm = 0o640

	stagingDirName = ".staging"
)

// Store persists signed-document artifacts under time-derived names.
type Store struct {
	outputDir  string
	publicDir  string
	stagingDir string

	now func() time.Time
}

// NewStore creates the output, public and staging directories if needed
// and sweeps any staging leftovers from a previous run.
func NewStore(outputDir, publicDir string) (*Store, error) {
	s := &Store{
		outputDir:  outputDir,
		publicDir:  publicDir,
		stagingDir: filepath.Join(outputDir, stagingDirName),
		now:        time.Now,
	}

	for _, dir := range []string{s.outputDir, s.publicDir, s.stagingDir} {
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return nil, fmt.Errorf("cannot create directory %s: %w", dir, err)
		}
	}

	if err := s.sweepStaging(); err != nil {
		return nil, err
	}
	return s, nil
}

// Save persists data under a fresh signed_<unix-millis>.pdf name and
// duplicates it into the public directory. It returns the artifact name.
func (s *Store) Save(data []byte) (string, error) {
	name := s.reserveName()
	staged := filepath.Join(s.stagingDir, name)

	if err := writeFileSynced(staged, data); err != nil {
		os.Remove(staged)
		return "", fmt.Errorf("failed to stage artifact %s: %w", name, err)
	}

	final := filepath.Join(s.outputDir, name)
	if err := os.Rename(staged, final); err != nil {
		os.Remove(staged)
		return "", fmt.Errorf("failed to finalize artifact %s: %w", name, err)
	}

	if err := os.WriteFile(filepath.Join(s.publicDir, name), data, filePerm); err != nil {
		return "", fmt.Errorf("failed to publish artifact %s: %w", name, err)
	}

	return name, nil
}

// Path resolves an artifact name inside the output directory. It rejects
// anything that is not a bare signed-document filename.
func (s *Store) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid artifact name %q", name)
	}

	path := filepath.Join(s.outputDir, name)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("artifact %s: %w", name, fs.ErrNotExist)
		}
		return "", fmt.Errorf("cannot access artifact %s: %w", name, err)
	}
	return path, nil
}

// reserveName derives an artifact name from the current unix-millis
// timestamp, bumping the timestamp while a same-named artifact exists.
func (s *Store) reserveName() string {
	millis := s.now().UnixMilli()
	for {
		name := fmt.Sprintf("signed_%d.pdf", millis)
		if _, err := os.Stat(filepath.Join(s.outputDir, name)); os.IsNotExist(err) {
			return name
		}
		millis++
	}
}

// sweepStaging removes partial artifacts left by an interrupted run.
func (s *Store) sweepStaging() error {
	entries, err := os.ReadDir(s.stagingDir)
	if err != nil {
		return fmt.Errorf("cannot read staging directory: %w", err)
	}
	for _, e := range entries {
		if err := os.Remove(filepath.Join(s.stagingDir, e.Name())); err != nil {
			return fmt.Errorf("cannot sweep staging entry %s: %w", e.Name(), err)
		}
	}
	return nil
}

func writeFileSynced(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, filePerm)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

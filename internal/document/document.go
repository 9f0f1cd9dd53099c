// Package document reads and writes the UTF-8 text documents an exercise is
// built from.
package document

import (
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"
)

// Store reads and writes whole text documents.
type Store interface {
	Read(path string) (string, error)
	Write(path, text string) error
}

// FS is a Store backed by the local filesystem.
type FS struct{}

// Read returns the content of path, rejecting invalid UTF-8.
func (FS) Read(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("reading %s: content is not valid UTF-8", path)
	}
	return string(data), nil
}

// Write replaces path with text. The content goes to a temporary file in the
// same directory first so readers never observe a half-written document.
func (FS) Write(path, text string) error {
	if !utf8.ValidString(text) {
		return fmt.Errorf("writing %s: content is not valid UTF-8", path)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Exists reports whether path names an existing file.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

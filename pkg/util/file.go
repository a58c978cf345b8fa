package util

import (
	"fmt"
	"os"
	"path/filepath"
)

// PendingFile is one target of WriteFilesAtomic.
type PendingFile struct {
	Path string
	Data []byte
}

// WriteFileAtomic writes data to a temp file in the target directory and
// renames it over path, so readers never observe a partial file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	return WriteFilesAtomic([]PendingFile{{Path: path, Data: data}}, perm)
}

// WriteFilesAtomic stages every file as a temp file first and renames them in
// order only after all of them were written. A staging failure leaves every
// target untouched, and renaming stops at the first failure.
func WriteFilesAtomic(files []PendingFile, perm os.FileMode) error {
	staged := make([]string, 0, len(files))
	defer func() {
		for _, name := range staged {
			_ = os.Remove(name)
		}
	}()

	for _, f := range files {
		tmp, err := stage(f, perm)
		if err != nil {
			return err
		}
		staged = append(staged, tmp)
	}
	for i, f := range files {
		if err := os.Rename(staged[i], f.Path); err != nil {
			return fmt.Errorf("rename %s: %w", f.Path, err)
		}
	}
	return nil
}

func stage(f PendingFile, perm os.FileMode) (string, error) {
	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.Path)+".*")
	if err != nil {
		return "", fmt.Errorf("create temp: %w", err)
	}
	name := tmp.Name()

	if _, err := tmp.Write(f.Data); err != nil {
		tmp.Close()
		os.Remove(name)
		return "", fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		os.Remove(name)
		return "", fmt.Errorf("chmod temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return "", fmt.Errorf("close temp: %w", err)
	}
	return name, nil
}

// Package storage keeps uploaded binaries on local disk under a single
// content root. Every stored file gets a random token prefix so two uploads
// with the same original name never collide.
package storage

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mrlokans/library/internal/utils"
)

var (
	ErrInvalidSubfolder = errors.New("invalid storage subfolder")
	ErrOutsideRoot      = errors.New("path escapes the content root")
)

// FileInfo describes a file stored under the content root.
type FileInfo struct {
	Path       string // Slash separated, relative to the content root
	Size       int64
	ModifiedAt time.Time
}

// FileStore saves and deletes files under a content root.
type FileStore struct {
	root string
}

// NewFileStore creates the content root if needed.
func NewFileStore(root string) (*FileStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve content root: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("create content root: %w", err)
	}
	return &FileStore{root: abs}, nil
}

// Root returns the absolute content root.
func (s *FileStore) Root() string {
	return s.root
}

// Store writes r to <root>/<subfolder>/<token>_<name> and returns the path
// relative to the content root.
func (s *FileStore) Store(r io.Reader, originalName, subfolder string) (string, error) {
	if !validSubfolder(subfolder) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSubfolder, subfolder)
	}

	dir := filepath.Join(s.root, subfolder)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	token := strings.ReplaceAll(uuid.New().String(), "-", "")
	name := token + "_" + utils.SecureFilename(originalName)

	// Create temp file in same directory for atomic write
	tmpFile, err := os.CreateTemp(dir, ".upload_tmp_")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		tmpFile.Close()
		os.Remove(tmpPath) // Clean up if we didn't rename
	}()

	if _, err := io.Copy(tmpFile, r); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return "", fmt.Errorf("close upload: %w", err)
	}

	if err := os.Rename(tmpPath, filepath.Join(dir, name)); err != nil {
		return "", fmt.Errorf("move upload into place: %w", err)
	}

	return path.Join(subfolder, name), nil
}

// Remove deletes a previously stored file. It reports whether a file was
// deleted; failures are logged, never returned.
func (s *FileStore) Remove(relativePath string) bool {
	if relativePath == "" {
		return false
	}

	full, err := s.FullPath(relativePath)
	if err != nil {
		log.Printf("[STORAGE] Refusing to delete %q: %v", relativePath, err)
		return false
	}

	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		return false
	}

	if err := os.Remove(full); err != nil {
		log.Printf("[STORAGE] Failed to delete %s: %v", relativePath, err)
		return false
	}
	return true
}

// FullPath resolves a stored relative path to an absolute one inside the
// content root.
func (s *FileStore) FullPath(relativePath string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(relativePath))
	if filepath.IsAbs(cleaned) || cleaned == "." || cleaned == ".." ||
		strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", ErrOutsideRoot
	}

	full := filepath.Join(s.root, cleaned)
	rel, err := filepath.Rel(s.root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrOutsideRoot
	}
	return full, nil
}

// ListFiles returns the regular files in subfolder. A missing subfolder
// yields an empty list.
func (s *FileStore) ListFiles(subfolder string) ([]FileInfo, error) {
	if !validSubfolder(subfolder) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSubfolder, subfolder)
	}

	entries, err := os.ReadDir(filepath.Join(s.root, subfolder))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".upload_tmp_") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:       path.Join(subfolder, entry.Name()),
			Size:       info.Size(),
			ModifiedAt: info.ModTime(),
		})
	}
	return files, nil
}

func validSubfolder(subfolder string) bool {
	return subfolder != "" && subfolder != "." && subfolder != ".." &&
		!strings.ContainsAny(subfolder, `/\`)
}

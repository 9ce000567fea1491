package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileOperations provides file system utilities
type FileOperations struct{}

// NewFileOperations creates a new FileOperations instance
func NewFileOperations() *FileOperations {
	return &FileOperations{}
}

// EnsureDir creates the directory for path if it doesn't exist
func (f *FileOperations) EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0755)
}

// FileExists checks if a file exists
func (f *FileOperations) FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// AtomicRename performs an atomic file rename operation
func (f *FileOperations) AtomicRename(oldPath, newPath string) error {
	return os.Rename(oldPath, newPath)
}

// UniquePath returns path unchanged if it is free, otherwise appends a
// numeric suffix before the extension until it finds one that is.
func (f *FileOperations) UniquePath(path string) string {
	if !f.FileExists(path) {
		return path
	}

	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s.%d%s", base, i, ext)
		if !f.FileExists(candidate) {
			return candidate
		}
	}
}

// SanitizeFilename strips path separators and control characters from a
// display name so it is safe to use as a file name.
func SanitizeFilename(name string) string {
	name = strings.TrimSpace(name)

	var b strings.Builder
	for _, r := range name {
		switch {
		case r == '/' || r == '\\':
			b.WriteRune('_')
		case r < 0x20 || r == 0x7f:
			// drop control characters
		case strings.ContainsRune(`<>:"|?*`, r):
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}

	out := strings.Trim(b.String(), ". ")
	if out == "" {
		out = "unnamed"
	}
	return out
}

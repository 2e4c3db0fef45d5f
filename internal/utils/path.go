package utils

import (
	"fmt"
	"path"
	"strings"
)

// CleanRelPath validates a user-supplied storage path and normalizes it to a
// slash-separated path relative to the owner's storage root. Traversal
// outside the root is rejected.
func CleanRelPath(userPath string) (string, error) {
	p := strings.TrimSpace(userPath)
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		return "", nil
	}

	clean := path.Clean(p)
	if clean == "." {
		return "", nil
	}
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("path traversal attempt: %q escapes the storage root", userPath)
	}
	if strings.Contains(clean, "\x00") {
		return "", fmt.Errorf("invalid path: %q contains a NUL byte", userPath)
	}

	return clean, nil
}

// IsSafeFilename checks if a filename contains illegal characters or directory separators
func IsSafeFilename(filename string) bool {
	if filename == "" {
		return false
	}
	if strings.ContainsAny(filename, "/\\") {
		return false
	}
	if filename == "." || filename == ".." {
		return false
	}
	return true
}

package storage

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"stratus/internal/model"
)

// LocalBackend stores user files under root/<ownerID>/<relative path> on the
// local filesystem. The engine treats this tree as the source of truth; the
// sqlite index is rebuilt from it, never the reverse.
type LocalBackend struct {
	root string
}

func NewLocalBackend(root string) (*LocalBackend, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving storage root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage root: %w", err)
	}
	return &LocalBackend{root: abs}, nil
}

func (b *LocalBackend) Root() string {
	return b.root
}

// UserRoot returns the absolute directory holding one owner's files.
func (b *LocalBackend) UserRoot(ownerID string) string {
	return filepath.Join(b.root, ownerID)
}

func (b *LocalBackend) abs(ownerID, relPath string) string {
	return filepath.Join(b.root, ownerID, filepath.FromSlash(relPath))
}

// Save writes content to the owner's tree, creating parent directories, and
// returns the observed entry.
func (b *LocalBackend) Save(ownerID, relPath string, content io.Reader) (*model.FileEntry, error) {
	dst := b.abs(ownerID, relPath)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return nil, fmt.Errorf("creating parent directory: %w", err)
	}

	f, err := os.Create(dst)
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}
	if _, err := io.Copy(f, content); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("closing file: %w", err)
	}

	return b.Stat(ownerID, relPath)
}

// Open opens a file for reading. The returned handle supports seeking, so it
// can back HTTP range requests.
func (b *LocalBackend) Open(ownerID, relPath string) (*os.File, error) {
	return os.Open(b.abs(ownerID, relPath))
}

// Stat observes a single path as a FileEntry.
func (b *LocalBackend) Stat(ownerID, relPath string) (*model.FileEntry, error) {
	info, err := os.Stat(b.abs(ownerID, relPath))
	if err != nil {
		return nil, err
	}
	entry := EntryFromInfo(relPath, info)
	return &entry, nil
}

// Exists reports whether a path exists in the owner's tree.
func (b *LocalBackend) Exists(ownerID, relPath string) bool {
	_, err := os.Stat(b.abs(ownerID, relPath))
	return err == nil
}

// Mkdir creates a directory (and any missing parents).
func (b *LocalBackend) Mkdir(ownerID, relPath string) error {
	return os.MkdirAll(b.abs(ownerID, relPath), 0o755)
}

// Delete removes a file or directory tree.
func (b *LocalBackend) Delete(ownerID, relPath string) error {
	if relPath == "" {
		return fmt.Errorf("refusing to delete the storage root")
	}
	return os.RemoveAll(b.abs(ownerID, relPath))
}

// EntryFromInfo converts an os.FileInfo into the scan representation of
// relPath. Directories carry no size or content type.
func EntryFromInfo(relPath string, info os.FileInfo) model.FileEntry {
	entry := model.FileEntry{
		Path:        relPath,
		Name:        filepath.Base(filepath.FromSlash(relPath)),
		IsDirectory: info.IsDir(),
		ModTime:     info.ModTime(),
	}
	if !info.IsDir() {
		entry.Size = info.Size()
		entry.ContentType = GuessContentType(relPath)
	}
	return entry
}

// GuessContentType maps a filename extension to a MIME type, "" when
// unknown. Charset parameters are stripped so index comparisons stay stable.
func GuessContentType(relPath string) string {
	ext := strings.ToLower(filepath.Ext(relPath))
	if ext == "" {
		return ""
	}
	ct := mime.TypeByExtension(ext)
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return ct
}

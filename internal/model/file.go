package model

import (
	"path"
	"time"
)

// FileRecord is one row of the metadata index. The filesystem is the source
// of truth; every record is rebuildable from a scan of the storage root.
type FileRecord struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Path        string    `json:"path"` // relative to the owner's storage root
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"contentType,omitempty"`
	IsDirectory bool      `json:"isDirectory"`
	ParentPath  string    `json:"parentPath"` // "" for entries at the root
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// FileEntry is what a filesystem scan observes for a single path. It is
// never persisted; it lives only for the duration of one reconciliation
// pass or upload.
type FileEntry struct {
	Path        string
	Name        string
	Size        int64
	ContentType string
	IsDirectory bool
	ModTime     time.Time
}

// ParentPath returns the index parent of a relative path, "" at the root.
func ParentPath(rel string) string {
	parent := path.Dir(rel)
	if parent == "." || parent == "/" {
		return ""
	}
	return parent
}

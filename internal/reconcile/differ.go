package reconcile

import (
	"sort"

	"stratus/internal/model"
)

// DiffResult partitions the keys of one owner's disk and index views.
type DiffResult struct {
	// Missing paths exist on disk but have no index record.
	Missing []string
	// Orphaned paths have an index record but nothing on disk.
	Orphaned []string
	// Stale paths exist in both, with metadata that disagrees.
	Stale []string
}

// Diff compares a filesystem scan against the index for the same owner. Pure
// function: no I/O, deterministic output order.
func Diff(disk map[string]model.FileEntry, index map[string]*model.FileRecord) DiffResult {
	var result DiffResult

	for path, entry := range disk {
		record, ok := index[path]
		if !ok {
			result.Missing = append(result.Missing, path)
			continue
		}
		if !metadataEqual(entry, record) {
			result.Stale = append(result.Stale, path)
		}
	}
	for path := range index {
		if _, ok := disk[path]; !ok {
			result.Orphaned = append(result.Orphaned, path)
		}
	}

	sort.Strings(result.Missing)
	sort.Strings(result.Orphaned)
	sort.Strings(result.Stale)
	return result
}

// metadataEqual implements the index equality check: size, content type and
// kind participate; timestamps drift harmlessly and are ignored.
func metadataEqual(entry model.FileEntry, record *model.FileRecord) bool {
	return record.Size == entry.Size &&
		record.ContentType == entry.ContentType &&
		record.IsDirectory == entry.IsDirectory
}

package tmpdir

import (
	"os"
	"path/filepath"
	"sort"

	"git.home.luguber.info/inful/tmpwrap/internal/foundation/errors"
)

// Entry describes one immediate child of a directory.
type Entry struct {
	Path  string // absolute path
	IsDir bool
	Size  int64 // 0 for directories
}

// ListSorted returns the immediate children of dir sorted ascending by
// absolute path (byte order), so repeated listings of the same tree produce
// identical output across runs and platforms.
func ListSorted(dir string) ([]Entry, error) {
	children, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.FileSystemError("failed to list directory").
			WithCause(err).
			WithContext("path", dir).
			Build()
	}

	entries := make([]Entry, 0, len(children))
	for _, child := range children {
		e := Entry{
			Path:  filepath.Join(dir, child.Name()),
			IsDir: child.IsDir(),
		}
		if !e.IsDir {
			if info, err := child.Info(); err == nil {
				e.Size = info.Size()
			}
		}
		entries = append(entries, e)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

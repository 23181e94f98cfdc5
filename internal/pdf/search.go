package pdf

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// FileInfo describes a statement file found on disk
type FileInfo struct {
	Path         string    `json:"path"`
	Name         string    `json:"name"`
	Size         int64     `json:"size"`
	ModifiedTime time.Time `json:"modified_time"`
}

// Search discovers statement PDFs below a directory
type Search struct {
	maxFileSize int64
	maxDepth    int
}

// NewSearch creates a search that skips files larger than maxFileSize
func NewSearch(maxFileSize int64) *Search {
	return &Search{maxFileSize: maxFileSize, maxDepth: 4}
}

// SearchDirectory lists .pdf files under directory whose name contains
// query (case-insensitive; empty matches all), ordered by path.
func (s *Search) SearchDirectory(directory, query string) ([]FileInfo, error) {
	if directory == "" {
		return nil, fmt.Errorf("directory cannot be empty")
	}
	root, err := filepath.Abs(directory)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory: %w", err)
	}
	if info, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("directory does not exist: %s", directory)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", directory)
	}

	query = strings.ToLower(strings.TrimSpace(query))
	files := make([]FileInfo, 0)

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// unreadable entries are skipped, not fatal
			if d != nil && d.IsDir() && path != root {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && (strings.HasPrefix(d.Name(), ".") || depth(root, path) > s.maxDepth) {
				return fs.SkipDir
			}
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 || !strings.EqualFold(filepath.Ext(d.Name()), ".pdf") {
			return nil
		}
		if query != "" && !strings.Contains(strings.ToLower(d.Name()), query) {
			return nil
		}

		info, err := d.Info()
		if err != nil || info.Size() == 0 || info.Size() > s.maxFileSize {
			return nil
		}
		files = append(files, FileInfo{
			Path:         path,
			Name:         d.Name(),
			Size:         info.Size(),
			ModifiedTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", directory, err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func depth(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}

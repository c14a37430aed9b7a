package walker

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/yuya-takeyama/strict-image-resize/pkg/errs"
)

// Walker finds input images below a root directory
type Walker struct {
	root     string
	exts     []string
	excludes []string
}

// NewWalker creates a new file walker
func NewWalker(root string, exts, excludes []string) (*Walker, error) {
	if len(exts) == 0 {
		return nil, errs.Configf("no input extensions configured")
	}

	// Validate root exists and is a directory
	info, err := os.Stat(root)
	if err != nil {
		return nil, errs.Wrap(errs.ErrDiscovery, root, fmt.Errorf("stat root: %w", err))
	}
	if !info.IsDir() {
		return nil, errs.Wrap(errs.ErrDiscovery, root, fmt.Errorf("root is not a directory"))
	}

	normalized := make([]string, len(exts))
	for i, ext := range exts {
		normalized[i] = strings.TrimPrefix(ext, ".")
	}

	return &Walker{
		root:     root,
		exts:     normalized,
		excludes: excludes,
	}, nil
}

// Pattern returns the glob matched relative to the root
func (w *Walker) Pattern() string {
	if len(w.exts) == 1 {
		return "**/*." + w.exts[0]
	}
	return "**/*.{" + strings.Join(w.exts, ",") + "}"
}

// Walk returns the sorted paths of every matching file, joined onto the root
func (w *Walker) Walk() ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(w.root), w.Pattern(), doublestar.WithFilesOnly())
	if err != nil {
		return nil, errs.Wrap(errs.ErrDiscovery, w.root, fmt.Errorf("glob: %w", err))
	}

	var paths []string
	for _, rel := range matches {
		if w.isExcluded(rel) {
			continue
		}
		paths = append(paths, filepath.Join(w.root, filepath.FromSlash(rel)))
	}

	sort.Strings(paths)
	return paths, nil
}

// isExcluded checks if a path matches any exclude pattern
func (w *Walker) isExcluded(path string) bool {
	for _, pattern := range w.excludes {
		// Handle directory patterns (ending with /)
		if strings.HasSuffix(pattern, "/") {
			dirPattern := strings.TrimSuffix(pattern, "/")
			// Check if any parent directory matches
			parts := strings.Split(path, "/")
			for i := 1; i < len(parts); i++ {
				subPath := strings.Join(parts[:i], "/")
				if matched, _ := doublestar.Match(dirPattern, subPath); matched {
					return true
				}
			}
		} else {
			if matched, _ := doublestar.Match(pattern, path); matched {
				return true
			}
		}
	}
	return false
}

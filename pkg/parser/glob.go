package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ExportExt is the extension of chat export files picked up from directories.
const ExportExt = ".txt"

// ExpandInputs expands file paths, directories and glob patterns into a
// deduplicated, sorted list of files. A directory contributes the export
// files directly inside it. Patterns that match nothing are returned as-is
// so the caller reports a precise file-not-found error later.
func ExpandInputs(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var result []string

	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			result = append(result, p)
		}
	}

	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
		}

		if len(matches) == 0 {
			add(pattern)
			continue
		}

		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil || !info.IsDir() {
				add(match)
				continue
			}
			files, err := exportsInDir(match)
			if err != nil {
				return nil, err
			}
			for _, f := range files {
				add(f)
			}
		}
	}

	sort.Strings(result)

	return result, nil
}

func exportsInDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ExportExt) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}

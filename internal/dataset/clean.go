package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Item is an output directory or file that clean would remove.
type Item struct {
	Path  string
	IsDir bool
	// Files counts CSVs inside a directory; Size is set for files.
	Files int
	Size  int64
}

var (
	cleanDirPatterns  = []string{"marathon_rounds_*", "marathon_finals"}
	cleanFilePatterns = []string{"*.csv"}
)

// FindCleanable lists generation output directly under root.
func FindCleanable(root string) ([]Item, error) {
	if root == "" {
		root = "."
	}
	var items []Item
	for _, pattern := range cleanDirPatterns {
		matches, err := filepath.Glob(filepath.Join(root, pattern))
		if err != nil {
			return nil, err
		}
		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil || !info.IsDir() {
				continue
			}
			csvs, _ := filepath.Glob(filepath.Join(match, "*.csv"))
			items = append(items, Item{Path: match, IsDir: true, Files: len(csvs)})
		}
	}
	for _, pattern := range cleanFilePatterns {
		matches, err := filepath.Glob(filepath.Join(root, pattern))
		if err != nil {
			return nil, err
		}
		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil || info.IsDir() {
				continue
			}
			items = append(items, Item{Path: match, Size: info.Size()})
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].IsDir != items[j].IsDir {
			return items[i].IsDir
		}
		return items[i].Path < items[j].Path
	})
	return items, nil
}

// Remove deletes items and returns how many were removed. It keeps going
// after a failure.
func Remove(items []Item) (int, []error) {
	removed := 0
	var errs []error
	for _, item := range items {
		var err error
		if item.IsDir {
			err = os.RemoveAll(item.Path)
		} else {
			err = os.Remove(item.Path)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", item.Path, err))
			continue
		}
		removed++
	}
	return removed, errs
}

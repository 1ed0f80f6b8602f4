// Package dataset works on CSV files already written by generation runs:
// discovery, merging with de-duplication, statistics and cleanup.
package dataset

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goosewin/qagen/internal/qa"
	"github.com/goosewin/qagen/internal/store"
)

// File is a discovered CSV file.
type File struct {
	Path string
	Size int64
}

// FindCSV lists *.csv files under root, skipping hidden directories.
func FindCSV(root string) ([]File, error) {
	if strings.TrimSpace(root) == "" {
		root = "."
	}
	var files []File
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if path != root && strings.HasPrefix(entry.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return nil
		}
		files = append(files, File{Path: path, Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// Match expands a glob pattern relative to root, keeping only CSV files.
func Match(root, pattern string) ([]string, error) {
	if !filepath.IsAbs(pattern) && root != "" {
		pattern = filepath.Join(root, pattern)
	}
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	paths := matches[:0]
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || info.IsDir() || !strings.EqualFold(filepath.Ext(match), ".csv") {
			continue
		}
		paths = append(paths, match)
	}
	sort.Strings(paths)
	return paths, nil
}

// FileResult reports how one input file contributed to a merge.
type FileResult struct {
	Path string
	Rows int
	Err  error
}

type MergeResult struct {
	Files    []FileResult
	Original int
	Records  []qa.Record
}

// Duplicates is the number of rows dropped as exact (input, output) repeats.
func (r MergeResult) Duplicates() int {
	return r.Original - len(r.Records)
}

// Merge concatenates the given files in order and keeps the first occurrence
// of every (input, output) pair. Unreadable files are reported and skipped.
func Merge(paths []string) MergeResult {
	result := MergeResult{}
	seen := make(map[qa.Record]struct{})
	for _, path := range paths {
		records, _, err := store.ReadFile(path)
		if err != nil {
			result.Files = append(result.Files, FileResult{Path: path, Err: err})
			continue
		}
		result.Files = append(result.Files, FileResult{Path: path, Rows: len(records)})
		result.Original += len(records)
		for _, record := range records {
			if _, dup := seen[record]; dup {
				continue
			}
			seen[record] = struct{}{}
			result.Records = append(result.Records, record)
		}
	}
	return result
}

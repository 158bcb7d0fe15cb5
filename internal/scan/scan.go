// Copyright © 2021 Rak Laptudirm <raklaptudirm@gmail.com>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package scan walks a filesystem target and produces the ordered file
// list every later stage of the build pipeline consumes.
package scan

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/raklaptudirm/mktorrent/internal/model"
)

// ErrEmptyFileSet is returned when a scan's result has no files left
// after exclusion, which is always fatal: there is nothing to hash.
var ErrEmptyFileSet = errors.New("scan: no files found")

// Options configures a scan.
type Options struct {
	Target   string   // file or directory to scan
	Excludes []string // doublestar glob patterns, matched against the relative path
	Name     string   // explicit torrent name; defaults to Target's basename
}

// Result is the scanner's output: the resolved torrent name and its
// ordered, deduplicated file list.
type Result struct {
	Name      string
	Entries   []model.FileEntry
	MultiFile bool
}

// Scan walks opts.Target and returns its Result.
func Scan(opts Options) (*Result, error) {
	info, err := os.Stat(opts.Target)
	if err != nil {
		return nil, fmt.Errorf("scan: stat target: %w", err)
	}

	name := opts.Name
	if name == "" {
		name = filepath.Base(filepath.Clean(opts.Target))
	}

	if !info.IsDir() {
		abs, err := filepath.Abs(opts.Target)
		if err != nil {
			return nil, fmt.Errorf("scan: resolve target: %w", err)
		}

		return &Result{
			Name: name,
			Entries: []model.FileEntry{{
				Path:   nil,
				Length: info.Size(),
				Abs:    abs,
			}},
			MultiFile: false,
		}, nil
	}

	entries, err := walkDir(opts.Target, opts.Excludes)
	if err != nil {
		return nil, err
	}

	if len(entries) == 0 {
		return nil, ErrEmptyFileSet
	}

	sortEntries(entries)

	return &Result{Name: name, Entries: entries, MultiFile: true}, nil
}

// walkDir recursively visits root, following symlinks only when their
// resolved target stays inside root, and deduplicating by canonical path
// so symlink cycles are visited at most once.
func walkDir(root string, excludes []string) ([]model.FileEntry, error) {
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("scan: resolve root: %w", err)
	}

	rootCanon, err := canonicalize(rootAbs)
	if err != nil {
		return nil, fmt.Errorf("scan: resolve root: %w", err)
	}

	var entries []model.FileEntry
	seen := make(map[string]bool)

	var visit func(path string) error
	visit = func(path string) error {
		canon, err := canonicalize(path)
		if err != nil {
			return fmt.Errorf("scan: %s: %w", path, err)
		}

		if !withinRoot(rootCanon, canon) {
			return nil // symlink escapes the scan root, skip
		}

		if seen[canon] {
			return nil // already visited, breaks symlink cycles
		}
		seen[canon] = true

		info, err := os.Stat(path) // follows symlinks
		if err != nil {
			return fmt.Errorf("scan: %s: %w", path, err)
		}

		if info.IsDir() {
			dirEntries, err := os.ReadDir(path)
			if err != nil {
				return fmt.Errorf("scan: %s: %w", path, err)
			}

			for _, de := range dirEntries {
				if err := visit(filepath.Join(path, de.Name())); err != nil {
					return err
				}
			}

			return nil
		}

		if !info.Mode().IsRegular() {
			return nil // skip devices, sockets, etc.
		}

		rel, err := filepath.Rel(rootAbs, path)
		if err != nil {
			return fmt.Errorf("scan: %s: %w", path, err)
		}

		if excluded(rel, excludes) {
			return nil
		}

		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("scan: %s: %w", path, err)
		}

		entries = append(entries, model.FileEntry{
			Path:   strings.Split(filepath.ToSlash(rel), "/"),
			Length: info.Size(),
			Abs:    abs,
		})

		return nil
	}

	if err := visit(rootAbs); err != nil {
		return nil, err
	}

	return entries, nil
}

// canonicalize resolves symlinks in path. If path cannot be resolved
// (e.g. a broken symlink) it returns the filepath.EvalSymlinks error,
// which the caller treats as fatal.
func canonicalize(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", err
	}
	return resolved, nil
}

// withinRoot reports whether canon is root itself or nested under it.
func withinRoot(root, canon string) bool {
	if canon == root {
		return true
	}
	rel, err := filepath.Rel(root, canon)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// excluded reports whether rel matches any of the doublestar glob
// patterns in excludes.
func excluded(rel string, excludes []string) bool {
	relSlash := filepath.ToSlash(rel)
	for _, pattern := range excludes {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}

		if ok, _ := doublestar.Match(pattern, relSlash); ok {
			return true
		}

		// also match against the bare file name, so "-e *.nfo" excludes
		// nested matches without requiring a leading "**/".
		if ok, _ := doublestar.Match(pattern, filepath.Base(relSlash)); ok {
			return true
		}
	}
	return false
}

// sortEntries orders entries by byte-wise comparison of their path
// components, which is the canonical order every later stage relies on.
func sortEntries(entries []model.FileEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return lessPath(entries[i].Path, entries[j].Path)
	})
}

func lessPath(a, b []string) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

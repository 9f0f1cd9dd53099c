// Package project collects the files of an exercise directory.
package project

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/futureCreator/exbuild/internal/config"
	vlog "github.com/futureCreator/exbuild/internal/log"
)

// FileEntry is a collected exercise file.
type FileEntry struct {
	// Path is slash-separated and relative to the scanned root.
	Path    string
	AbsPath string
	Size    int64
}

// Scan walks root and returns the files selected by cfg, sorted by Path.
// Paths listed in skip (relative to root, files or directories) are always
// left out, as are hidden files and directories.
func Scan(root string, cfg *config.PackageConfig, skip ...string) ([]FileEntry, error) {
	maxSize, err := parseSize(cfg.MaxFileSize)
	if err != nil {
		return nil, fmt.Errorf("parsing max_file_size: %w", err)
	}
	skipped := make(map[string]bool, len(skip))
	for _, s := range skip {
		skipped[filepath.ToSlash(s)] = true
	}

	var entries []FileEntry
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}

		if d.IsDir() {
			if skipped[rel] {
				return filepath.SkipDir
			}
			dirName := rel + "/"
			for _, pat := range cfg.ExcludePatterns {
				if strings.HasPrefix(dirName, pat) || strings.Contains(dirName, "/"+pat) {
					return filepath.SkipDir
				}
			}
			if strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if skipped[rel] || strings.HasPrefix(d.Name(), ".") || !d.Type().IsRegular() {
			return nil
		}
		for _, pat := range cfg.ExcludePatterns {
			if strings.Contains(rel, pat) {
				return nil
			}
		}
		if !matchAny(cfg.IncludePatterns, d.Name()) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.Size() > maxSize {
			vlog.Warn("skipping large file", "file", rel, "size", info.Size(), "max", maxSize)
			return nil
		}

		if len(entries) >= cfg.MaxFiles {
			return fmt.Errorf("more than %d files under %s", cfg.MaxFiles, root)
		}
		entries = append(entries, FileEntry{Path: rel, AbsPath: path, Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

func matchAny(patterns []string, name string) bool {
	for _, pat := range patterns {
		if ok, _ := filepath.Match(pat, name); ok {
			return true
		}
	}
	return false
}

func parseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 10 * 1024 * 1024, nil
	}
	var multiplier int64 = 1
	if strings.HasSuffix(s, "KB") {
		multiplier = 1024
		s = s[:len(s)-2]
	} else if strings.HasSuffix(s, "MB") {
		multiplier = 1024 * 1024
		s = s[:len(s)-2]
	}
	var n int64
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	return n * multiplier, nil
}

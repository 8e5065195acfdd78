package filter

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Candidates lists every file under args as cleaned slash-separated paths, without filtering.
func Candidates(args []string) ([]string, error) {
	var paths []string

	seen := make(map[string]struct{})

	add := func(path string) {
		clean := filepath.ToSlash(filepath.Clean(path))
		if _, ok := seen[clean]; !ok {
			seen[clean] = struct{}{}
			paths = append(paths, clean)
		}
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("stat %q: %w", arg, err)
		}

		if !info.IsDir() {
			add(arg)

			continue
		}

		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if !d.IsDir() {
				add(path)
			}

			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %q: %w", arg, err)
		}
	}

	return paths, nil
}

// Count returns how many paths a single pattern matches.
func Count(pattern string, paths []string) (int, error) {
	globs, err := compile([]string{pattern})
	if err != nil {
		return 0, err
	}

	var count int

	for _, path := range paths {
		if globs[0].Match(path) {
			count++
		}
	}

	return count, nil
}

// Package filter resolves command-line arguments into the list of carrier images to process.
package filter

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gobwas/glob"

	"github.com/idelchi/gostego/internal/imageio"
)

// Filter selects files by glob patterns. Patterns match the whole slash-separated path and
// `*` crosses directory boundaries, as with find -path. Excludes always win.
type Filter struct {
	includes []glob.Glob
	excludes []glob.Glob
}

// NewFilter compiles include and exclude patterns.
func NewFilter(includes, excludes []string) (*Filter, error) {
	inc, err := compile(includes)
	if err != nil {
		return nil, fmt.Errorf("compiling include patterns: %w", err)
	}

	exc, err := compile(excludes)
	if err != nil {
		return nil, fmt.Errorf("compiling exclude patterns: %w", err)
	}

	return &Filter{includes: inc, excludes: exc}, nil
}

func compile(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))

	for _, p := range patterns {
		g, err := glob.Compile(strings.TrimPrefix(p, "./"))
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p, err)
		}

		globs = append(globs, g)
	}

	return globs, nil
}

func matchAny(globs []glob.Glob, path string) bool {
	return slices.ContainsFunc(globs, func(g glob.Glob) bool { return g.Match(path) })
}

// Match reports whether a slash-separated path is selected. Without include patterns,
// only supported image files are selected.
func (f *Filter) Match(path string) bool {
	included := IsImage(path)
	if len(f.includes) > 0 {
		included = matchAny(f.includes, path)
	}

	return included && !matchAny(f.excludes, path)
}

// IsImage reports whether the name carries one of the accepted image extensions.
func IsImage(name string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))

	return ext != "" && slices.Contains(imageio.Extensions(), ext)
}

// Resolve expands args into files. Explicit files bypass the filter; directories are walked
// and filtered. It returns the selected files and the number of candidates seen.
func Resolve(args []string, flt *Filter) (files []string, scanned int, err error) {
	seen := make(map[string]struct{})

	add := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}

		seen[path] = struct{}{}
		files = append(files, path)
	}

	for _, arg := range args {
		arg = filepath.Clean(arg)

		info, err := os.Stat(arg)
		if err != nil {
			return nil, 0, fmt.Errorf("stat %q: %w", arg, err)
		}

		if !info.IsDir() {
			scanned++

			add(arg)

			continue
		}

		walked, total, err := walkDir(arg, flt)
		if err != nil {
			return nil, 0, err
		}

		scanned += total

		for _, path := range walked {
			add(path)
		}
	}

	if len(files) == 0 {
		return nil, scanned, fmt.Errorf("no images matched in %v", args)
	}

	return files, scanned, nil
}

func walkDir(root string, flt *Filter) (files []string, total int, err error) {
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		total++

		if flt.Match(filepath.ToSlash(filepath.Clean(path))) {
			files = append(files, path)
		}

		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("walking %q: %w", root, err)
	}

	return files, total, nil
}

package logic

import (
	"errors"
	"fmt"

	"github.com/fatih/color"

	"github.com/idelchi/gostego/internal/filter"
)

// check reports how many files each include and exclude pattern matches under cfg.Files,
// and fails when any pattern matches nothing.
func (r *Runner) check() error {
	includes, excludes, err := r.patterns()
	if err != nil {
		return err
	}

	if len(includes) == 0 && len(excludes) == 0 {
		return errors.New("no include or exclude patterns to check")
	}

	candidates, err := filter.Candidates(r.cfg.Files)
	if err != nil {
		return err
	}

	failures := r.checkPatterns("include", includes, candidates) + r.checkPatterns("exclude", excludes, candidates)

	if failures > 0 {
		return fmt.Errorf("%d pattern(s) matched no files", failures)
	}

	return nil
}

func (r *Runner) checkPatterns(kind string, patterns, candidates []string) int {
	var failures int

	for _, pattern := range patterns {
		count, err := filter.Count(pattern, candidates)

		switch {
		case err != nil:
			failures++

			color.New(color.FgRed).Fprint(r.err, "[-] ")
			fmt.Fprintf(r.err, "%s %q: %v\n", kind, pattern, err)
		case count == 0:
			failures++

			color.New(color.FgRed).Fprint(r.err, "[-] ")
			fmt.Fprintf(r.err, "%s %q: 0 files\n", kind, pattern)
		case !r.cfg.Quiet:
			color.New(color.FgGreen).Fprint(r.err, "[+] ")
			fmt.Fprintf(r.err, "%s %q: %d files\n", kind, pattern, count)
		}
	}

	return failures
}

// Package logic runs the batch commands over the selected carrier images.
package logic

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/idelchi/gostego/internal/config"
	"github.com/idelchi/gostego/internal/encryption"
	"github.com/idelchi/gostego/internal/filter"
)

// ErrOutputConflict is returned when two inputs map to the same output path.
var ErrOutputConflict = errors.New("output conflict")

// Runner executes one command over cfg.Files.
type Runner struct {
	cfg *config.Config
	in  io.Reader
	out io.Writer
	err io.Writer
	log logrus.FieldLogger

	key     *encryption.Key
	message string
}

// Option configures a Runner.
type Option func(*Runner)

// WithStreams sets the input and output streams. Nil values keep the process streams.
func WithStreams(in io.Reader, out, errOut io.Writer) Option {
	return func(r *Runner) {
		if in != nil {
			r.in = in
		}

		if out != nil {
			r.out = out
		}

		if errOut != nil {
			r.err = errOut
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(r *Runner) {
		if log != nil {
			r.log = log
		}
	}
}

// New returns a Runner for cfg.
func New(cfg *config.Config, opts ...Option) *Runner {
	r := &Runner{
		cfg: cfg,
		in:  os.Stdin,
		out: os.Stdout,
		err: os.Stderr,
		log: logrus.StandardLogger(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// outcome is what a worker reports for one file.
type outcome struct {
	input  string
	output string
	size   int64
	// detail is printed verbatim to the output stream.
	detail string
	warn   string
	err    error
}

// job processes one file.
type job func(ctx context.Context, file string) outcome

// Run resolves the input files and executes the configured command.
func (r *Runner) Run(ctx context.Context) error {
	if r.cfg.Command == config.Check {
		return r.check()
	}

	start := time.Now()

	scanned, err := r.resolveFiles()
	if err != nil {
		return fmt.Errorf("resolving files: %w", err)
	}

	excluded := scanned - len(r.cfg.Files)

	if r.cfg.Dry {
		r.dryRun(scanned, excluded, start)

		return nil
	}

	var work job

	switch r.cfg.Command {
	case config.Embed:
		if err := r.prepareEmbed(); err != nil {
			return err
		}

		work = r.embed
	case config.Extract:
		if err := r.loadKey(); err != nil {
			return err
		}

		work = r.extract
	case config.Capacity:
		work = r.capacity
	case config.Analyze:
		work = r.analyze
	default:
		return fmt.Errorf("command %q does not process files", r.cfg.Command)
	}

	processed, errored, totalSize, err := r.process(ctx, work)

	if r.cfg.Stats {
		r.printStats(scanned, excluded, processed, errored, totalSize, time.Since(start))
	}

	if err != nil {
		return fmt.Errorf("running %s: %w", r.cfg.Command, err)
	}

	return nil
}

// patterns merges flag and file based include/exclude patterns.
func (r *Runner) patterns() (includes, excludes []string, err error) {
	includes = append(includes, r.cfg.Include...)
	excludes = append(excludes, r.cfg.Exclude...)

	if r.cfg.IncludeFrom != "" {
		loaded, err := filter.LoadPatterns(r.cfg.IncludeFrom)
		if err != nil {
			return nil, nil, fmt.Errorf("loading include patterns: %w", err)
		}

		includes = append(includes, loaded...)
	}

	if r.cfg.ExcludeFrom != "" {
		loaded, err := filter.LoadPatterns(r.cfg.ExcludeFrom)
		if err != nil {
			return nil, nil, fmt.Errorf("loading exclude patterns: %w", err)
		}

		excludes = append(excludes, loaded...)
	}

	return includes, excludes, nil
}

// resolveFiles replaces cfg.Files with the selected images and returns the number of candidates.
func (r *Runner) resolveFiles() (int, error) {
	includes, excludes, err := r.patterns()
	if err != nil {
		return 0, err
	}

	// Outputs of a previous embed run are not carriers for a new one.
	if r.cfg.Command == config.Embed && r.cfg.Suffix != "" {
		excludes = append(excludes, "*"+r.cfg.Suffix+".*")
	}

	flt, err := filter.NewFilter(includes, excludes)
	if err != nil {
		return 0, err
	}

	files, scanned, err := filter.Resolve(r.cfg.Files, flt)
	if err != nil {
		return scanned, err
	}

	r.cfg.Files = files

	if err := r.checkOutputs(); err != nil {
		return scanned, err
	}

	return scanned, nil
}

// checkOutputs fails when two inputs would be written to the same output, e.g. a.png and a.bmp.
func (r *Runner) checkOutputs() error {
	seen := make(map[string]string, len(r.cfg.Files))

	for _, file := range r.cfg.Files {
		out := r.outputPath(file)
		if out == "" {
			continue
		}

		key := filepath.Clean(out)

		if other, ok := seen[key]; ok {
			return fmt.Errorf("%w: %q and %q both write %q", ErrOutputConflict, other, file, out)
		}

		seen[key] = file
	}

	return nil
}

// outputPath returns where the result for file is written, or "" when nothing is written.
func (r *Runner) outputPath(file string) string {
	stem := strings.TrimSuffix(file, filepath.Ext(file))

	switch {
	case r.cfg.Command == config.Embed:
		return stem + r.cfg.Suffix + "." + r.cfg.Format
	case r.cfg.Command == config.Extract && !r.cfg.Stdout:
		return stem + ".txt"
	default:
		return ""
	}
}

func (r *Runner) dryRun(scanned, excluded int, start time.Time) {
	var totalSize int64

	for _, file := range r.cfg.Files {
		if !r.cfg.Quiet {
			if out := r.outputPath(file); out != "" {
				fmt.Fprintf(r.out, "Would process %q -> %q\n", file, out)
			} else {
				fmt.Fprintf(r.out, "Would process %q\n", file)
			}
		}

		if info, err := os.Stat(file); err == nil {
			totalSize += info.Size()
		}
	}

	if r.cfg.Stats {
		r.printStats(scanned, excluded, len(r.cfg.Files), 0, totalSize, time.Since(start))
	}
}

// process runs work over cfg.Files with at most cfg.Parallel workers.
// A single printer goroutine serialises the output. A failed file does not stop the others;
// cancelling ctx stops every file not yet started.
//
//nolint:cyclop // worker pool with printer goroutine
func (r *Runner) process(ctx context.Context, work job) (processed, errored int, totalSize int64, err error) {
	var (
		ok   = color.New(color.FgGreen)
		fail = color.New(color.FgRed)
		warn = color.New(color.FgYellow)
	)

	results := make(chan outcome, len(r.cfg.Files))
	printed := make(chan struct{})

	go func() {
		defer close(printed)

		for res := range results {
			if res.warn != "" {
				warn.Fprint(r.err, "[!] ")
				fmt.Fprintf(r.err, "%q: %s\n", res.input, res.warn)
			}

			if res.err != nil {
				errored++

				fail.Fprint(r.err, "[-] ")
				fmt.Fprintf(r.err, "%q: %v\n", res.input, res.err)

				continue
			}

			processed++

			totalSize += res.size

			if res.detail != "" {
				fmt.Fprint(r.out, res.detail)
			}

			if !r.cfg.Quiet && res.output != "" {
				ok.Fprint(r.err, "[+] ")
				fmt.Fprintf(r.err, "%q -> %q\n", res.input, res.output)
			}
		}
	}()

	group := errgroup.Group{}
	group.SetLimit(r.cfg.Parallel)

	for _, file := range r.cfg.Files {
		if ctx.Err() != nil {
			break
		}

		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			res := work(ctx, file)
			res.input = file

			r.log.WithFields(logrus.Fields{"file": file, "output": res.output}).Debug("processed")

			results <- res

			if res.err != nil {
				return fmt.Errorf("%q: %w", file, res.err)
			}

			return nil
		})
	}

	err = group.Wait()

	close(results)

	<-printed

	if ctxErr := ctx.Err(); ctxErr != nil {
		err = errors.Join(ctxErr, err)
	}

	return processed, errored, totalSize, err
}

func (r *Runner) printStats(scanned, excluded, processed, errored int, totalSize int64, duration time.Duration) {
	fmt.Fprintf(r.err, "\nStats\n")
	fmt.Fprintf(r.err, "  Scanned:   %d\n", scanned)
	fmt.Fprintf(r.err, "  Excluded:  %d\n", excluded)
	fmt.Fprintf(r.err, "  Processed: %d\n", processed)
	fmt.Fprintf(r.err, "  Errors:    %d\n", errored)
	//nolint:gosec // sizes are non-negative
	fmt.Fprintf(r.err, "  Size:      %s\n", humanize.IBytes(uint64(max(0, totalSize))))
	fmt.Fprintf(r.err, "  Duration:  %s\n", duration.Round(time.Millisecond))
}

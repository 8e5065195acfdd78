package logic

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/idelchi/gostego/internal/fileutil"
	"github.com/idelchi/gostego/internal/imageio"
	"github.com/idelchi/gostego/internal/stego"
)

func loadCarrier(file string) (*stego.Carrier, stego.Conversion, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, stego.Conversion{}, err
	}
	defer f.Close()

	img, _, err := imageio.Decode(bufio.NewReader(f))
	if err != nil {
		return nil, stego.Conversion{}, err
	}

	return stego.FromImage(img)
}

func (r *Runner) embed(_ context.Context, file string) (res outcome) {
	carrier, conv, err := loadCarrier(file)
	if err != nil {
		return outcome{err: err}
	}

	if conv.Coerced {
		res.warn = fmt.Sprintf("converted %s source to 8-bit RGB; alpha and extra precision are not kept", conv.Model)
	}

	out, err := stego.Embed(carrier, r.message, r.key)
	if err != nil {
		res.err = err

		return res
	}

	format, err := imageio.ParseFormat(r.cfg.Format)
	if err != nil {
		res.err = err

		return res
	}

	res.output = r.outputPath(file)

	res.size, res.err = fileutil.WriteFile(res.output, func(w io.Writer) error {
		return imageio.Encode(w, out.Image(), format)
	})

	if res.err == nil && r.cfg.PreserveTimestamps {
		res.err = fileutil.PreserveTimes(file, res.output)
	}

	return res
}

func (r *Runner) extract(_ context.Context, file string) outcome {
	carrier, _, err := loadCarrier(file)
	if err != nil {
		return outcome{err: err}
	}

	text, err := stego.Extract(carrier, r.key)
	if err != nil {
		return outcome{err: err}
	}

	if r.cfg.Stdout {
		var sb strings.Builder

		if len(r.cfg.Files) > 1 {
			fmt.Fprintf(&sb, "==> %s <==\n", file)
		}

		sb.WriteString(text)

		if !strings.HasSuffix(text, "\n") {
			sb.WriteByte('\n')
		}

		return outcome{detail: sb.String(), size: int64(len(text))}
	}

	output := r.outputPath(file)

	size, err := fileutil.WriteFile(output, func(w io.Writer) error {
		_, err := io.WriteString(w, text)

		return err
	})

	return outcome{output: output, size: size, err: err}
}

func (r *Runner) capacity(_ context.Context, file string) outcome {
	f, err := os.Open(file)
	if err != nil {
		return outcome{err: err}
	}
	defer f.Close()

	cfg, format, err := imageio.DecodeConfig(bufio.NewReader(f))
	if err != nil {
		return outcome{err: err}
	}

	bits := stego.Capacity(cfg.Width, cfg.Height)
	if bits < 0 {
		return outcome{detail: fmt.Sprintf("%s: %d x %d %s, too small for the length header\n",
			file, cfg.Width, cfg.Height, format)}
	}

	return outcome{detail: fmt.Sprintf("%s: %d x %d %s, %d bits (%s)\n",
		file, cfg.Width, cfg.Height, format, bits, humanize.IBytes(uint64(bits/8)))} //nolint:gosec // non-negative
}

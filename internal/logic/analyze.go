package logic

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/idelchi/gostego/internal/analysis"
	"github.com/idelchi/gostego/internal/scan"
)

type analyzeOutput struct {
	File      string          `json:"file"`
	Analysis  analysis.Report `json:"analysis"`
	VirusScan *scan.Report    `json:"virus_scan,omitempty"`
}

func (r *Runner) scanner() *scan.Client {
	return scan.New(r.cfg.VirusTotalKey,
		scan.WithBaseURL(r.cfg.VirusTotalURL),
		scan.WithPolling(r.cfg.PollInterval, 0),
		scan.WithLogger(r.log),
	)
}

func (r *Runner) analyze(ctx context.Context, file string) outcome {
	carrier, _, err := loadCarrier(file)
	if err != nil {
		return outcome{err: err}
	}

	report, err := analysis.Analyze(ctx, carrier)
	if err != nil {
		return outcome{err: err}
	}

	out := analyzeOutput{File: file, Analysis: report}

	if r.cfg.Scan {
		data, err := os.ReadFile(file)
		if err != nil {
			return outcome{err: err}
		}

		verdict := r.scanner().Report(ctx, filepath.Base(file), data)
		out.VirusScan = &verdict
	}

	encoded, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return outcome{err: err}
	}

	return outcome{detail: string(encoded) + "\n"}
}

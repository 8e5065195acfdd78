// Package analysis reports image properties relevant to choosing a carrier.
package analysis

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/idelchi/gostego/internal/stego"
)

// Report summarises a carrier.
type Report struct {
	Resolution        string         `json:"resolution"`
	ColorComplexity   float64        `json:"color_complexity"`
	NoiseLevel        float64        `json:"noise_level"`
	EstimatedCapacity int            `json:"estimated_capacity"`
	BlurLevel         float64        `json:"blur_level"`
	DominantColor     string         `json:"dominant_color"`
	QualityRating     int            `json:"quality_rating"`
	LSB               []ChannelStats `json:"lsb"`
}

// ChannelStats describes the least-significant bits of one color channel.
type ChannelStats struct {
	Channel string `json:"channel"`
	// Ones is the fraction of values with the lowest bit set.
	Ones float64 `json:"ones"`
	// ChiSquare compares the even and odd counts against a uniform split.
	// Values near zero are typical of LSB payloads.
	ChiSquare float64 `json:"chi_square"`
	// Entropy is the Shannon entropy of the lowest bits, in bits.
	Entropy float64 `json:"entropy"`
}

// Analyze computes a Report. The individual metrics run concurrently.
func Analyze(ctx context.Context, c *stego.Carrier) (Report, error) {
	report := Report{
		Resolution:        fmt.Sprintf("%d x %d", c.Width(), c.Height()),
		EstimatedCapacity: max(c.Capacity(), 0) / 8,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		report.ColorComplexity, report.NoiseLevel = spread(c)

		return ctx.Err()
	})

	g.Go(func() error {
		report.BlurLevel = blur(c)

		return ctx.Err()
	})

	g.Go(func() error {
		report.DominantColor = dominant(c)

		return ctx.Err()
	})

	g.Go(func() error {
		report.LSB = lsbStats(c)

		return ctx.Err()
	})

	if err := g.Wait(); err != nil {
		return Report{}, fmt.Errorf("analyzing image: %w", err)
	}

	report.QualityRating = rating(report.BlurLevel, report.NoiseLevel, report.ColorComplexity)

	report.ColorComplexity = round2(report.ColorComplexity)
	report.NoiseLevel = round2(report.NoiseLevel)
	report.BlurLevel = round2(report.BlurLevel)

	return report, nil
}

// spread returns the population standard deviation of all channel values
// and the sum of their absolute deviations from the mean.
func spread(c *stego.Carrier) (stddev, noise float64) {
	var sum float64

	n := float64(c.Width() * c.Height() * stego.Channels)

	each(c, func(v uint8) { sum += float64(v) })

	mean := sum / n

	var sq float64

	each(c, func(v uint8) {
		d := float64(v) - mean
		sq += d * d
		noise += math.Abs(d)
	})

	return math.Sqrt(sq / n), noise
}

func each(c *stego.Carrier, fn func(uint8)) {
	for row := range c.Height() {
		for col := range c.Width() {
			for ch := range stego.Channels {
				fn(c.At(row, col, ch))
			}
		}
	}
}

// gray converts to 8-bit luma with the BT.601 weights.
func gray(c *stego.Carrier) [][]float64 {
	out := make([][]float64, c.Height())

	for row := range out {
		out[row] = make([]float64, c.Width())

		for col := range out[row] {
			r, g, b := float64(c.At(row, col, 0)), float64(c.At(row, col, 1)), float64(c.At(row, col, 2))
			out[row][col] = math.Round(0.299*r + 0.587*g + 0.114*b)
		}
	}

	return out
}

// reflect maps an index outside [0, n) back inside without repeating the edge sample.
func reflect(i, n int) int {
	if n == 1 {
		return 0
	}

	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}

		if i >= n {
			i = 2*(n-1) - i
		}
	}

	return i
}

// blur returns the variance of the 4-neighbour Laplacian of the luma image.
// Sharp images score high, blurry ones low.
func blur(c *stego.Carrier) float64 {
	img := gray(c)
	h, w := c.Height(), c.Width()

	var sum, sq float64

	for y := range h {
		for x := range w {
			v := img[reflect(y-1, h)][x] + img[reflect(y+1, h)][x] +
				img[y][reflect(x-1, w)] + img[y][reflect(x+1, w)] - 4*img[y][x]

			sum += v
			sq += v * v
		}
	}

	n := float64(w * h)
	mean := sum / n

	return sq/n - mean*mean
}

// dominant returns the most frequent color. Ties go to the color seen first.
func dominant(c *stego.Carrier) string {
	type tally struct {
		count int
		first int
	}

	counts := make(map[[3]uint8]*tally)

	for row := range c.Height() {
		for col := range c.Width() {
			px := [3]uint8{c.At(row, col, 0), c.At(row, col, 1), c.At(row, col, 2)}

			t, ok := counts[px]
			if !ok {
				t = &tally{first: row*c.Width() + col}
				counts[px] = t
			}

			t.count++
		}
	}

	var (
		best  [3]uint8
		bestT *tally
	)

	for px, t := range counts {
		if bestT == nil || t.count > bestT.count || (t.count == bestT.count && t.first < bestT.first) {
			best, bestT = px, t
		}
	}

	return fmt.Sprintf("RGB(%d, %d, %d)", best[0], best[1], best[2])
}

func lsbStats(c *stego.Carrier) []ChannelStats {
	names := [stego.Channels]string{"R", "G", "B"}
	stats := make([]ChannelStats, stego.Channels)
	total := float64(c.Width() * c.Height())

	for ch := range stego.Channels {
		var ones float64

		for row := range c.Height() {
			for col := range c.Width() {
				ones += float64(c.At(row, col, ch) & 1)
			}
		}

		zeros := total - ones
		expected := total / 2

		stats[ch] = ChannelStats{
			Channel:   names[ch],
			Ones:      round4(ones / total),
			ChiSquare: round4((ones-expected)*(ones-expected)/expected + (zeros-expected)*(zeros-expected)/expected),
			Entropy:   round4(entropy(ones/total) + entropy(zeros/total)),
		}
	}

	return stats
}

func entropy(p float64) float64 {
	if p <= 0 {
		return 0
	}

	return -p * math.Log2(p)
}

func rating(blurLevel, noise, stddev float64) int {
	clamp := func(v float64) float64 { return min(max(v, 0), 1) }

	quality := 0.4*clamp(blurLevel/1000) + 0.3*clamp(1-noise/100000) + 0.3*clamp(stddev/128)

	return int(quality * 10)
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round4(v float64) float64 { return math.Round(v*10000) / 10000 }

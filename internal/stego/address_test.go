package stego_test

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/goccy/go-yaml"

	"github.com/idelchi/gostego/internal/stego"
)

// AddressCase is a single bit-position mapping from a YAML golden file.
type AddressCase struct {
	Pos         int    `yaml:"pos"`
	Width       int    `yaml:"width"`
	Height      int    `yaml:"height"`
	Row         int    `yaml:"row"`
	Col         int    `yaml:"col"`
	Channel     int    `yaml:"channel"`
	Error       bool   `yaml:"error"`
	Description string `yaml:"description,omitempty"`
}

// AddressGroup is a named collection of address cases.
type AddressGroup struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description,omitempty"`
	Cases       []AddressCase `yaml:"cases"`
}

func loadGolden(t *testing.T, path string, out any) {
	t.Helper()

	data, err := os.ReadFile(path) //nolint:gosec // test helper reads known testdata files
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}

	if err := yaml.Unmarshal(data, out); err != nil {
		t.Fatalf("parsing %s: %v", path, err)
	}
}

func TestAddressOf(t *testing.T) {
	t.Parallel()

	var groups []AddressGroup

	loadGolden(t, "testdata/address.yml", &groups)

	for _, g := range groups {
		t.Run(g.Name, func(t *testing.T) {
			t.Parallel()

			for i, tc := range g.Cases {
				name := tc.Description
				if name == "" {
					name = fmt.Sprintf("case_%d", i)
				}

				t.Run(name, func(t *testing.T) {
					t.Parallel()

					row, col, channel, err := stego.AddressOf(tc.Pos, tc.Width, tc.Height)

					if tc.Error {
						if !errors.Is(err, stego.ErrOutOfRange) {
							t.Fatalf("AddressOf(%d, %d, %d) error = %v, want ErrOutOfRange", tc.Pos, tc.Width, tc.Height, err)
						}

						return
					}

					if err != nil {
						t.Fatalf("AddressOf(%d, %d, %d) error: %v", tc.Pos, tc.Width, tc.Height, err)
					}

					if row != tc.Row || col != tc.Col || channel != tc.Channel {
						t.Errorf("AddressOf(%d, %d, %d) = (%d, %d, %d), want (%d, %d, %d)",
							tc.Pos, tc.Width, tc.Height, row, col, channel, tc.Row, tc.Col, tc.Channel)
					}
				})
			}
		})
	}
}

// TestAddressOfIsBijective checks that every channel is addressed exactly once.
func TestAddressOfIsBijective(t *testing.T) {
	t.Parallel()

	const width, height = 7, 5

	seen := make(map[[3]int]int)

	for pos := range width * height * stego.Channels {
		row, col, channel, err := stego.AddressOf(pos, width, height)
		if err != nil {
			t.Fatalf("AddressOf(%d): %v", pos, err)
		}

		key := [3]int{row, col, channel}
		if prev, ok := seen[key]; ok {
			t.Fatalf("positions %d and %d both map to %v", prev, pos, key)
		}

		seen[key] = pos

		if want := (row*width+col)*stego.Channels + channel; want != pos {
			t.Fatalf("position %d maps to %v, which is linear index %d", pos, key, want)
		}
	}

	if len(seen) != width*height*stego.Channels {
		t.Errorf("covered %d channels, want %d", len(seen), width*height*stego.Channels)
	}
}

func TestCapacity(t *testing.T) {
	t.Parallel()

	var cases []struct {
		Width  int `yaml:"width"`
		Height int `yaml:"height"`
		Bits   int `yaml:"bits"`
	}

	loadGolden(t, "testdata/capacity.yml", &cases)

	for _, tc := range cases {
		if got := stego.Capacity(tc.Width, tc.Height); got != tc.Bits {
			t.Errorf("Capacity(%d, %d) = %d, want %d", tc.Width, tc.Height, got, tc.Bits)
		}
	}
}

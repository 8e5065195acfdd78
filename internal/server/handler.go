package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/idelchi/gostego/internal/analysis"
	"github.com/idelchi/gostego/internal/filter"
	"github.com/idelchi/gostego/internal/imageio"
	"github.com/idelchi/gostego/internal/scan"
	"github.com/idelchi/gostego/internal/stego"
)

type upload struct {
	name string
	data []byte
}

// readUpload returns the multipart file in the "image" field.
func (s *Server) readUpload(r *http.Request) (upload, error) {
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return upload{}, err
		}

		return upload{}, fmt.Errorf("%w: parsing form: %w", errBadRequest, err)
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		return upload{}, fmt.Errorf("%w: no image uploaded", errBadRequest)
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if header.Filename == "" || !filter.IsImage(name) {
		return upload{}, fmt.Errorf("%w: file type not allowed, use one of %s",
			errBadRequest, strings.Join(imageio.Extensions(), ", "))
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return upload{}, fmt.Errorf("reading upload: %w", err)
	}

	return upload{name: name, data: data}, nil
}

func (u upload) carrier() (*stego.Carrier, error) {
	img, _, err := imageio.Decode(bytes.NewReader(u.data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errBadRequest, err)
	}

	c, _, err := stego.FromImage(img)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errBadRequest, err)
	}

	return c, nil
}

func attachment(w http.ResponseWriter, contentType, name string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)

	_, _ = w.Write(body)
}

func (s *Server) handleEmbed(w http.ResponseWriter, r *http.Request) {
	up, err := s.readUpload(r)
	if err != nil {
		s.fail(w, r, err)

		return
	}

	text := r.FormValue("text")
	if text == "" {
		s.fail(w, r, fmt.Errorf("%w: no text to embed", errBadRequest))

		return
	}

	carrier, err := up.carrier()
	if err != nil {
		s.fail(w, r, err)

		return
	}

	out, err := s.codec.Embed(carrier, text, s.key)
	if err != nil {
		s.fail(w, r, err)

		return
	}

	var buf bytes.Buffer
	if err := imageio.Encode(&buf, out.Image(), imageio.PNG); err != nil {
		s.fail(w, r, err)

		return
	}

	stem := strings.TrimSuffix(up.name, filepath.Ext(up.name))

	attachment(w, imageio.PNG.ContentType(), "stego_"+stem+".png", buf.Bytes())
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	up, err := s.readUpload(r)
	if err != nil {
		s.fail(w, r, err)

		return
	}

	carrier, err := up.carrier()
	if err != nil {
		s.fail(w, r, err)

		return
	}

	text, err := s.codec.Extract(carrier, s.key)
	if err != nil {
		s.fail(w, r, err)

		return
	}

	attachment(w, "text/plain; charset=utf-8", "extracted_file.txt", []byte(text))
}

type analyzeResponse struct {
	Analysis  analysis.Report `json:"analysis"`
	VirusScan scan.Report     `json:"virus_scan"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	up, err := s.readUpload(r)
	if err != nil {
		s.fail(w, r, err)

		return
	}

	carrier, err := up.carrier()
	if err != nil {
		s.fail(w, r, err)

		return
	}

	report, err := analysis.Analyze(r.Context(), carrier)
	if err != nil {
		s.fail(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, analyzeResponse{
		Analysis:  report,
		VirusScan: s.scanner.Report(r.Context(), up.name, up.data),
	})
}

type capacityResponse struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	Bits   int `json:"bits"`
	Bytes  int `json:"bytes"`
}

func (s *Server) handleCapacity(w http.ResponseWriter, r *http.Request) {
	const maxDimension = 1 << 20

	dim := func(name string) (int, error) {
		v, err := strconv.Atoi(r.URL.Query().Get(name))
		if err != nil || v <= 0 || v > maxDimension {
			return 0, fmt.Errorf("%w: %s must be an integer in [1, %d]", errBadRequest, name, maxDimension)
		}

		return v, nil
	}

	width, err := dim("width")
	if err != nil {
		s.fail(w, r, err)

		return
	}

	height, err := dim("height")
	if err != nil {
		s.fail(w, r, err)

		return
	}

	bits := stego.Capacity(width, height)

	writeJSON(w, http.StatusOK, capacityResponse{
		Width:  width,
		Height: height,
		Bits:   bits,
		Bytes:  max(bits, 0) / 8,
	})
}

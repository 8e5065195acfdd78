package server_test

import (
	"bytes"
	"encoding/json"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/idelchi/gostego/internal/encryption"
	"github.com/idelchi/gostego/internal/imageio"
	"github.com/idelchi/gostego/internal/logging"
	"github.com/idelchi/gostego/internal/scan"
	"github.com/idelchi/gostego/internal/server"
	"github.com/idelchi/gostego/internal/stego"
)

func newServer(t *testing.T, fill byte, opts ...server.Option) *server.Server {
	t.Helper()

	key, err := encryption.KeyFromBytes(bytes.Repeat([]byte{fill}, encryption.KeySize))
	if err != nil {
		t.Fatal(err)
	}

	opts = append([]server.Option{server.WithLogger(logging.Discard())}, opts...)

	return server.New(key, opts...)
}

func pngOf(t *testing.T, width, height int) []byte {
	t.Helper()

	c, err := stego.NewCarrier(width, height)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := imageio.Encode(&buf, c.Image(), imageio.PNG); err != nil {
		t.Fatal(err)
	}

	return buf.Bytes()
}

func newMultipartRequest(t *testing.T, path, filename string, image []byte, fields map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer

	form := multipart.NewWriter(&body)

	for k, v := range fields {
		if err := form.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}

	if filename != "" {
		part, err := form.CreateFormFile("image", filename)
		if err != nil {
			t.Fatal(err)
		}

		if _, err := part.Write(image); err != nil {
			t.Fatal(err)
		}
	}

	if err := form.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", form.FormDataContentType())

	return req
}

func serve(srv http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) (message, kind string) {
	t.Helper()

	var body struct {
		Error string `json:"error"`
		Kind  string `json:"kind"`
	}

	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body %q: %v", rec.Body.String(), err)
	}

	return body.Error, body.Kind
}

func TestEmbedThenExtract(t *testing.T) {
	t.Parallel()

	srv := newServer(t, 0x42)

	rec := serve(srv, newMultipartRequest(t, "/embed", "holiday.jpg", pngOf(t, 100, 100), map[string]string{"text": "HELLO"}))
	if rec.Code != http.StatusOK {
		t.Fatalf("embed status %d: %s", rec.Code, rec.Body.String())
	}

	if got := rec.Header().Get("Content-Type"); got != "image/png" {
		t.Errorf("Content-Type = %q", got)
	}

	if got := rec.Header().Get("Content-Disposition"); got != "attachment; filename=stego_holiday.png" {
		t.Errorf("Content-Disposition = %q", got)
	}

	if rec.Header().Get("X-Request-Id") == "" {
		t.Error("missing request id")
	}

	stegoPNG := rec.Body.Bytes()

	if _, err := png.Decode(bytes.NewReader(stegoPNG)); err != nil {
		t.Fatalf("embed returned an invalid PNG: %v", err)
	}

	rec = serve(srv, newMultipartRequest(t, "/extract", "stego_holiday.png", stegoPNG, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("extract status %d: %s", rec.Code, rec.Body.String())
	}

	if rec.Body.String() != "HELLO" {
		t.Errorf("extract body = %q", rec.Body.String())
	}

	if got := rec.Header().Get("Content-Disposition"); got != "attachment; filename=extracted_file.txt" {
		t.Errorf("Content-Disposition = %q", got)
	}
}

func TestExtractWithOtherSession(t *testing.T) {
	t.Parallel()

	rec := serve(newServer(t, 0x01), newMultipartRequest(t, "/embed", "a.png", pngOf(t, 64, 64), map[string]string{"text": "x"}))
	if rec.Code != http.StatusOK {
		t.Fatalf("embed status %d", rec.Code)
	}

	rec = serve(newServer(t, 0x02), newMultipartRequest(t, "/extract", "a.png", rec.Body.Bytes(), nil))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("extract status %d, want 422", rec.Code)
	}

	if _, kind := decodeError(t, rec); kind != "decryption" && kind != "decompression" {
		t.Errorf("kind = %q", kind)
	}
}

func TestErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		req    *http.Request
		status int
		kind   string
	}{
		{
			"capacity exceeded",
			newMultipartRequest(t, "/embed", "tiny.png", pngOf(t, 4, 4), map[string]string{"text": "HELLO"}),
			http.StatusRequestEntityTooLarge, "capacity_exceeded",
		},
		{
			"empty text",
			newMultipartRequest(t, "/embed", "a.png", pngOf(t, 10, 10), map[string]string{"text": ""}),
			http.StatusBadRequest, "bad_request",
		},
		{
			"no image",
			newMultipartRequest(t, "/embed", "", nil, map[string]string{"text": "hi"}),
			http.StatusBadRequest, "bad_request",
		},
		{
			"disallowed extension",
			newMultipartRequest(t, "/extract", "notes.txt", []byte("hello"), nil),
			http.StatusBadRequest, "bad_request",
		},
		{
			"undecodable image",
			newMultipartRequest(t, "/extract", "fake.png", []byte("not a png"), nil),
			http.StatusBadRequest, "bad_request",
		},
		{
			"blank carrier",
			newMultipartRequest(t, "/extract", "blank.png", pngOf(t, 10, 10), nil),
			http.StatusUnprocessableEntity, "decryption",
		},
		{
			"header larger than carrier",
			newMultipartRequest(t, "/extract", "tiny.png", pngOf(t, 2, 2), nil),
			http.StatusUnprocessableEntity, "corrupt_header",
		},
	}

	srv := newServer(t, 0x33)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := serve(srv, tt.req)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}

			if msg, kind := decodeError(t, rec); kind != tt.kind || msg == "" {
				t.Errorf("error = %q (%s), want kind %s", msg, kind, tt.kind)
			}
		})
	}
}

func TestUploadTooLarge(t *testing.T) {
	t.Parallel()

	srv := newServer(t, 0x44, server.WithMaxUpload(1024))

	rec := serve(srv, newMultipartRequest(t, "/embed", "big.png", bytes.Repeat([]byte{1}, 4096), map[string]string{"text": "hi"}))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rec.Code)
	}

	if _, kind := decodeError(t, rec); kind != "upload_too_large" {
		t.Errorf("kind = %q", kind)
	}
}

func TestCapacity(t *testing.T) {
	t.Parallel()

	srv := newServer(t, 0x55)

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/capacity?width=100&height=100", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var got struct {
		Bits  int `json:"bits"`
		Bytes int `json:"bytes"`
	}

	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}

	if got.Bits != 29968 || got.Bytes != 3746 {
		t.Errorf("capacity = %+v", got)
	}

	for _, query := range []string{"width=0&height=5", "width=a&height=5", "width=5"} {
		rec := serve(srv, httptest.NewRequest(http.MethodGet, "/capacity?"+query, nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("capacity?%s status = %d, want 400", query, rec.Code)
		}
	}
}

func TestAnalyze(t *testing.T) {
	t.Parallel()

	vt := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/files":
			_, _ = io.WriteString(w, `{"data":{"id":"x1"}}`)
		case r.URL.Path == "/analyses/x1":
			_, _ = io.WriteString(w, `{"data":{"attributes":{"status":"completed","stats":{"harmless":5,"malicious":0}}}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(vt.Close)

	scanner := scan.New("k", scan.WithBaseURL(vt.URL), scan.WithPolling(0, 1), scan.WithLogger(logging.Discard()))
	srv := newServer(t, 0x66, server.WithScanner(scanner))

	rec := serve(srv, newMultipartRequest(t, "/analyze", "photo.png", pngOf(t, 30, 20), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var got struct {
		Analysis struct {
			Resolution    string `json:"resolution"`
			DominantColor string `json:"dominant_color"`
		} `json:"analysis"`
		VirusScan struct {
			Status   string `json:"status"`
			Harmless int    `json:"harmless_count"`
		} `json:"virus_scan"`
	}

	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}

	if got.Analysis.Resolution != "30 x 20" || got.Analysis.DominantColor != "RGB(0, 0, 0)" {
		t.Errorf("analysis = %+v", got.Analysis)
	}

	if got.VirusScan.Status != "Clean" || got.VirusScan.Harmless != 5 {
		t.Errorf("virus_scan = %+v", got.VirusScan)
	}
}

func TestAnalyzeWithoutScanner(t *testing.T) {
	t.Parallel()

	rec := serve(newServer(t, 0x77), newMultipartRequest(t, "/analyze", "photo.png", pngOf(t, 8, 8), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	if !strings.Contains(rec.Body.String(), `"error":"virus scanning not configured"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestMethodNotAllowed(t *testing.T) {
	t.Parallel()

	rec := serve(newServer(t, 0x10), httptest.NewRequest(http.MethodGet, "/embed", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

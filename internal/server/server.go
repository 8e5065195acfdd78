// Package server exposes embed, extract, capacity and analyze over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/idelchi/gostego/internal/encryption"
	"github.com/idelchi/gostego/internal/scan"
	"github.com/idelchi/gostego/internal/stego"
)

const defaultMaxUpload = 32 << 20

// Server handles requests with a single session key.
type Server struct {
	mux       *http.ServeMux
	key       *encryption.Key
	codec     *stego.Codec
	scanner   *scan.Client
	log       logrus.FieldLogger
	maxUpload int64
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithScanner sets the malware scanner used by /analyze.
func WithScanner(scanner *scan.Client) Option {
	return func(s *Server) {
		if scanner != nil {
			s.scanner = scanner
		}
	}
}

// WithMaxUpload limits the request body size in bytes.
func WithMaxUpload(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUpload = n
		}
	}
}

// WithCodec overrides the codec, e.g. to supply a deterministic IV source.
func WithCodec(codec *stego.Codec) Option {
	return func(s *Server) {
		if codec != nil {
			s.codec = codec
		}
	}
}

// New returns a Server that embeds and extracts with key.
func New(key *encryption.Key, opts ...Option) *Server {
	s := &Server{
		mux:       http.NewServeMux(),
		key:       key,
		codec:     stego.New(),
		scanner:   scan.New(""),
		log:       logrus.StandardLogger(),
		maxUpload: defaultMaxUpload,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.routes()

	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /embed", s.handleEmbed)
	s.mux.HandleFunc("POST /extract", s.handleExtract)
	s.mux.HandleFunc("POST /analyze", s.handleAnalyze)
	s.mux.HandleFunc("GET /capacity", s.handleCapacity)
}

// ServeHTTP limits the body size and logs every request.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	id := requestID()

	rec.Header().Set("X-Request-Id", id)
	r.Body = http.MaxBytesReader(rec, r.Body, s.maxUpload)

	s.mux.ServeHTTP(rec, r)

	s.log.WithFields(logrus.Fields{
		"request_id": id,
		"method":     r.Method,
		"path":       r.URL.Path,
		"status":     rec.status,
		"duration":   time.Since(start).Round(time.Microsecond).String(),
	}).Info("request")
}

// ListenAndServe serves handler on addr until ctx is canceled, then shuts down gracefully.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler, log logrus.FieldLogger) error {
	const (
		readHeaderTimeout = 10 * time.Second
		shutdownTimeout   = 15 * time.Second
	)

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errs := make(chan error, 1)

	go func() {
		log.WithField("addr", addr).Info("listening")

		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	shutdown, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	log.Info("shutting down")

	if err := srv.Shutdown(shutdown); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}

	if err := <-errs; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving: %w", err)
	}

	return nil
}

// Package scan submits files to the VirusTotal v3 API and waits for the verdict.
package scan

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultBaseURL is the public VirusTotal v3 endpoint.
const DefaultBaseURL = "https://www.virustotal.com/api/v3"

var (
	// ErrNotConfigured reports a client without an API key.
	ErrNotConfigured = errors.New("virus scanning not configured")
	// ErrPending reports an analysis that did not complete within the allowed polls.
	ErrPending = errors.New("analysis still pending")
)

// Status is the verdict of a completed analysis.
type Status string

const (
	Clean     Status = "Clean"
	Malicious Status = "Malicious"
)

// Result is the verdict and the engine counts behind it.
type Result struct {
	Status    Status `json:"status"`
	Harmless  int    `json:"harmless_count"`
	Malicious int    `json:"malicious_count"`
}

// Report is the outcome of a scan attempt: the verdict, or the reason there is none.
type Report struct {
	*Result

	Error string `json:"error,omitempty"`
}

// Client talks to VirusTotal.
type Client struct {
	apiKey   string
	baseURL  string
	http     *http.Client
	interval time.Duration
	polls    int
	log      logrus.FieldLogger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.baseURL = strings.TrimSuffix(url, "/")
		}
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithPolling sets the wait between analysis polls and the maximum number of polls.
func WithPolling(interval time.Duration, polls int) Option {
	return func(c *Client) {
		c.interval = interval
		if polls > 0 {
			c.polls = polls
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// New returns a Client. An empty apiKey yields a client whose scans fail with ErrNotConfigured.
func New(apiKey string, opts ...Option) *Client {
	const (
		defaultInterval = 5 * time.Second
		defaultPolls    = 12
		defaultTimeout  = 30 * time.Second
	)

	c := &Client{
		apiKey:   apiKey,
		baseURL:  DefaultBaseURL,
		http:     &http.Client{Timeout: defaultTimeout},
		interval: defaultInterval,
		polls:    defaultPolls,
		log:      logrus.StandardLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Configured reports whether the client has an API key.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Scan uploads data under filename and returns the verdict once the analysis completes.
func (c *Client) Scan(ctx context.Context, filename string, data []byte) (Result, error) {
	if !c.Configured() {
		return Result{}, ErrNotConfigured
	}

	id, err := c.upload(ctx, filename, data)
	if err != nil {
		return Result{}, fmt.Errorf("uploading %q: %w", filename, err)
	}

	c.log.WithField("analysis", id).Debug("file submitted")

	for poll := range c.polls {
		if err := sleep(ctx, c.interval); err != nil {
			return Result{}, err
		}

		analysis, err := c.analysis(ctx, id)
		if err != nil {
			return Result{}, fmt.Errorf("fetching analysis %q: %w", id, err)
		}

		if analysis.Data.Attributes.Status != "completed" {
			c.log.WithFields(logrus.Fields{"analysis": id, "poll": poll + 1}).Debug("analysis pending")

			continue
		}

		stats := analysis.Data.Attributes.Stats
		result := Result{Status: Clean, Harmless: stats.Harmless, Malicious: stats.Malicious}

		if stats.Malicious > 0 {
			result.Status = Malicious
		}

		return result, nil
	}

	return Result{}, fmt.Errorf("%w: %q after %d polls", ErrPending, id, c.polls)
}

// Report runs Scan and folds any failure into the returned Report.
func (c *Client) Report(ctx context.Context, filename string, data []byte) Report {
	result, err := c.Scan(ctx, filename, data)
	if err != nil {
		c.log.WithError(err).WithField("file", filename).Warn("virus scan failed")

		return Report{Error: err.Error()}
	}

	return Report{Result: &result}
}

type uploadResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

type analysisResponse struct {
	Data struct {
		Attributes struct {
			Status string `json:"status"`
			Stats  struct {
				Harmless  int `json:"harmless"`
				Malicious int `json:"malicious"`
			} `json:"stats"`
		} `json:"attributes"`
	} `json:"data"`
}

func (c *Client) upload(ctx context.Context, filename string, data []byte) (string, error) {
	var body bytes.Buffer

	form := multipart.NewWriter(&body)

	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}

	if _, err := part.Write(data); err != nil {
		return "", err
	}

	if err := form.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/files", &body)
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", form.FormDataContentType())

	var resp uploadResponse
	if err := c.do(req, &resp); err != nil {
		return "", err
	}

	if resp.Data.ID == "" {
		return "", errors.New("response carries no analysis id")
	}

	return resp.Data.ID, nil
}

func (c *Client) analysis(ctx context.Context, id string) (analysisResponse, error) {
	var resp analysisResponse

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/analyses/"+id, nil)
	if err != nil {
		return resp, err
	}

	err = c.do(req, &resp)

	return resp, err
}

func (c *Client) do(req *http.Request, out any) error {
	const maxErrorBody = 512

	req.Header.Set("x-apikey", c.apiKey)
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))

		return fmt.Errorf("unexpected status %s: %s", res.Status, strings.TrimSpace(string(msg)))
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Package network defines the external collaborator interfaces the
// parsing engine calls out to: the network engine that performs fetches,
// and the job/reporting handle threaded through a parse invocation. Both
// are consumed interfaces per spec.md §1/§6 — this package also ships a
// default net/http-backed implementation used by cmd/pageparse and tests.
package network

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
)

// Method is the HTTP method used by a fetch.
type Method string

const (
	GET  Method = "GET"
	POST Method = "POST"
)

// ErrNotFound is returned by WaitUntilDone when the remote resource does
// not exist (HTTP 404 for the default implementation).
var ErrNotFound = errors.New("not found")

// ErrCancelled is returned by WaitUntilDone when the job was cancelled
// before or during the fetch.
var ErrCancelled = errors.New("cancelled")

// NetworkError wraps any other recoverable network failure.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("network error: %s", e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// NetworkJob is the per-fetch handle the engine callers wait on, modelled
// on spec.md §6: NetworkJob(method, url, referral_url?, body?),
// .SetFiles(mapping), .OverrideBandwidth(), .WaitUntilDone(),
// .GetContent().
type NetworkJob interface {
	// SetFiles attaches a multipart file to the request, used when a
	// filelookup.Root sends its identifier as a FILE attachment rather
	// than a form/query argument.
	SetFiles(files map[string]io.Reader)

	// OverrideBandwidth signals the network engine this job should not be
	// subject to ordinary bandwidth/rate-limit rules. Rate limiting itself
	// is entirely the engine's responsibility per spec.md §5.
	OverrideBandwidth()

	// WaitUntilDone blocks until the fetch completes, fails, or ctx is
	// cancelled, returning ErrNotFound, a *NetworkError, or ErrCancelled.
	WaitUntilDone(ctx context.Context) error

	// GetContent returns the fetched body. Valid only after WaitUntilDone
	// returns nil.
	GetContent() ([]byte, error)
}

// Engine creates NetworkJob instances. ParseNodeContentLink and
// filelookup.Root are handed an Engine, never raw *http.Client, so the core
// stays a pure library with one external callout per spec.md §1.
type Engine interface {
	NewJob(method Method, url string, referralURL string, body io.Reader) NetworkJob
}

// Job is the reporting/cancellation handle threaded through nested calls
// (spec.md §6): SetVariable, AddURL, IsCancelled, Finish.
type Job interface {
	SetVariable(key string, value any)
	AddURL(url string)
	IsCancelled() bool
	Finish()
}

// --- default net/http-backed Engine -------------------------------------------------

// HTTPEngine is the default Engine, backed by an *http.Client. Its jobs
// record files passed to SetFiles but do not send them: the request body
// is exactly the body given to NewJob.
type HTTPEngine struct {
	Client *http.Client
}

// NewHTTPEngine builds an HTTPEngine with http.DefaultClient if client is nil.
func NewHTTPEngine(client *http.Client) *HTTPEngine {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPEngine{Client: client}
}

func (e *HTTPEngine) NewJob(method Method, url, referralURL string, body io.Reader) NetworkJob {
	return &httpJob{client: e.Client, method: method, url: url, referralURL: referralURL, body: body}
}

type httpJob struct {
	client      *http.Client
	method      Method
	url         string
	referralURL string
	body        io.Reader
	files       map[string]io.Reader
	bandwidthOK bool

	mu      sync.Mutex
	content []byte
	err     error
	done    bool
}

func (j *httpJob) SetFiles(files map[string]io.Reader) { j.files = files }

func (j *httpJob) OverrideBandwidth() { j.bandwidthOK = true }

func (j *httpJob) WaitUntilDone(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.done {
		return j.err
	}

	req, err := http.NewRequestWithContext(ctx, string(j.method), j.url, j.body)
	if err != nil {
		j.err = &NetworkError{Err: err}
		j.done = true
		return j.err
	}
	if j.referralURL != "" {
		req.Header.Set("Referer", j.referralURL)
	}

	resp, err := j.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			j.err = ErrCancelled
		} else {
			j.err = &NetworkError{Err: err}
		}
		j.done = true
		return j.err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		j.err = ErrNotFound
		j.done = true
		return j.err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		j.err = &NetworkError{Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
		j.done = true
		return j.err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		j.err = &NetworkError{Err: err}
		j.done = true
		return j.err
	}

	j.content = body
	j.done = true
	return nil
}

func (j *httpJob) GetContent() ([]byte, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if !j.done {
		return nil, fmt.Errorf("job not finished")
	}
	return j.content, j.err
}

// --- default in-memory Job ----------------------------------------------------------

// SimpleJob is a minimal Job implementation tracking status variables, the
// URL trail, and cooperative cancellation, used by cmd/pageparse and
// tests.
type SimpleJob struct {
	mu        sync.Mutex
	vars      map[string]any
	urls      []string
	cancelled bool
	finished  bool
}

func NewSimpleJob() *SimpleJob {
	return &SimpleJob{vars: make(map[string]any)}
}

func (j *SimpleJob) SetVariable(key string, value any) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.vars[key] = value
}

func (j *SimpleJob) AddURL(url string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.urls = append(j.urls, url)
}

func (j *SimpleJob) IsCancelled() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.cancelled
}

func (j *SimpleJob) Cancel() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.cancelled = true
}

func (j *SimpleJob) Finish() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.finished = true
}

// Variable returns the last value set under key, useful for tests and the
// CLI's progress output.
func (j *SimpleJob) Variable(key string) any {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.vars[key]
}

// URLs returns the URL trail registered so far, in order.
func (j *SimpleJob) URLs() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]string, len(j.urls))
	copy(out, j.urls)
	return out
}

// Finished reports whether Finish was called.
func (j *SimpleJob) Finished() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.finished
}

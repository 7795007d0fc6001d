package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds a single send when the caller does not override it.
const DefaultTimeout = 10 * time.Second

// Options shapes a single request. A string or []byte Body is sent verbatim;
// anything else is JSON-marshaled. Headers are merged over the default
// Content-Type (caller values win).
type Options struct {
	Method  string
	Headers map[string]string
	Body    any
	Timeout time.Duration
}

// Result is the normalized outcome of a send. Exactly one of OK=true/OK=false
// holds: Data is populated only on success, Error only on failure. Status is
// the HTTP status, or 0 for transport-level failures.
type Result struct {
	OK     bool
	Status int
	Error  string
	Data   any

	raw []byte
}

// Decode unmarshals the raw response body into out.
func (r *Result) Decode(out any) error {
	if len(r.raw) == 0 {
		return errors.New("empty response body")
	}
	return json.Unmarshal(r.raw, out)
}

// Failure builds a local failure result without any network attempt.
func Failure(status int, message string) *Result {
	return &Result{Status: status, Error: message}
}

type Transport struct {
	http *http.Client
}

func New() *Transport {
	return &Transport{http: &http.Client{}}
}

// Send issues one bounded request and normalizes every outcome, including
// timeouts, connection failures, and unreadable or non-JSON bodies, into a
// Result. It never returns an error.
func (t *Transport) Send(ctx context.Context, url string, opts Options) *Result {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	switch body := opts.Body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(body)
	case []byte:
		reader = bytes.NewReader(body)
	default:
		buf, err := json.Marshal(body)
		if err != nil {
			return Failure(0, "invalid request body: "+err.Error())
		}
		reader = bytes.NewReader(buf)
	}

	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}
	req, err := http.NewRequestWithContext(reqCtx, method, url, reader)
	if err != nil {
		return Failure(0, err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := t.http.Do(req)
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			return Failure(0, "Request timed out")
		case errors.Is(err, context.Canceled):
			return Failure(0, "Request canceled")
		default:
			return Failure(0, "Network error")
		}
	}
	defer resp.Body.Close()

	// An unreadable body is treated as empty text rather than a failure.
	raw, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		raw = nil
	}
	data := parseBody(raw)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Result{
			Status: resp.StatusCode,
			Error:  errorMessage(data, resp.StatusCode),
			raw:    raw,
		}
	}
	return &Result{OK: true, Status: resp.StatusCode, Data: data, raw: raw}
}

// parseBody attempts a JSON parse and falls back to the raw text, so a
// malformed response body never propagates as a failure.
func parseBody(raw []byte) any {
	if len(raw) == 0 {
		return ""
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return string(raw)
	}
	return data
}

// errorMessage extracts a human-readable message from an error body, trying
// the detail, message, and error fields in that order.
func errorMessage(data any, status int) string {
	if body, ok := data.(map[string]any); ok {
		for _, key := range []string{"detail", "message", "error"} {
			if text, ok := body[key].(string); ok && strings.TrimSpace(text) != "" {
				return text
			}
		}
	}
	return fmt.Sprintf("Request failed with status %d", status)
}

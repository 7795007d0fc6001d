package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"notable/internal/transport"
	"notable/internal/types"
	"notable/internal/validate"
)

const defaultBaseURL = "http://127.0.0.1:7707"

// Client speaks the /notes resource over a Transport. Every method returns a
// normalized *transport.Result; on success Result.Data carries the typed
// value ([]*types.Note for list, *types.Note for get/create/update).
type Client struct {
	baseURL   string
	timeout   time.Duration
	transport *transport.Transport
}

func New() *Client {
	return NewWithBaseURL(defaultBaseURL)
}

func NewWithBaseURL(baseURL string) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:   baseURL,
		timeout:   transport.DefaultTimeout,
		transport: transport.New(),
	}
}

// SetTimeout overrides the per-request budget for subsequent calls.
func (c *Client) SetTimeout(timeout time.Duration) {
	if timeout > 0 {
		c.timeout = timeout
	}
}

func (c *Client) ListNotes(ctx context.Context) *transport.Result {
	res := c.send(ctx, http.MethodGet, "/notes", nil)
	if !res.OK {
		return res
	}
	// A non-array body is normalized to an empty list so consumers never
	// need defensive type checks.
	var notes []*types.Note
	if err := res.Decode(&notes); err != nil || notes == nil {
		notes = []*types.Note{}
	}
	res.Data = notes
	return res
}

func (c *Client) GetNote(ctx context.Context, id string) *transport.Result {
	return decodeNote(c.send(ctx, http.MethodGet, notePath(id), nil))
}

func (c *Client) CreateNote(ctx context.Context, draft types.NoteDraft) *transport.Result {
	draft, rejected := checkDraft(draft)
	if rejected != nil {
		return rejected
	}
	return decodeNote(c.send(ctx, http.MethodPost, "/notes", draft))
}

func (c *Client) UpdateNote(ctx context.Context, id string, draft types.NoteDraft) *transport.Result {
	draft, rejected := checkDraft(draft)
	if rejected != nil {
		return rejected
	}
	return decodeNote(c.send(ctx, http.MethodPut, notePath(id), draft))
}

func (c *Client) DeleteNote(ctx context.Context, id string) *transport.Result {
	return c.send(ctx, http.MethodDelete, notePath(id), nil)
}

func (c *Client) send(ctx context.Context, method, path string, body any) *transport.Result {
	return c.transport.Send(ctx, c.baseURL+path, transport.Options{
		Method:  method,
		Body:    body,
		Timeout: c.timeout,
	})
}

// checkDraft sanitizes and validates before any network I/O. Invalid input is
// rejected locally with a 400-equivalent result and no request is issued.
func checkDraft(draft types.NoteDraft) (types.NoteDraft, *transport.Result) {
	draft = validate.Sanitize(draft)
	if report := validate.Check(draft); !report.Valid {
		return draft, transport.Failure(http.StatusBadRequest, report.First())
	}
	return draft, nil
}

func decodeNote(res *transport.Result) *transport.Result {
	if !res.OK {
		return res
	}
	var note types.Note
	if err := res.Decode(&note); err != nil {
		return transport.Failure(res.Status, "invalid note payload")
	}
	res.Data = &note
	return res
}

func notePath(id string) string {
	return "/notes/" + url.PathEscape(strings.TrimSpace(id))
}

package transport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSendTimesOutWithinBudget(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	start := time.Now()
	res := New().Send(context.Background(), server.URL, Options{Timeout: 30 * time.Millisecond})
	if res.OK {
		t.Fatalf("expected failure, got %+v", res)
	}
	if res.Status != 0 || res.Error != "Request timed out" {
		t.Fatalf("unexpected timeout result: %+v", res)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("timeout not enforced, took %s", elapsed)
	}
}

func TestSendMapsConnectionFailureToNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	res := New().Send(context.Background(), server.URL, Options{})
	if res.OK || res.Status != 0 || res.Error != "Network error" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestSendReportsDeliberateCancellation(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	res := New().Send(ctx, server.URL, Options{})
	if res.OK || res.Error != "Request canceled" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestSendKeepsRawTextForMalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("plain text, not json"))
	}))
	defer server.Close()

	res := New().Send(context.Background(), server.URL, Options{})
	if !res.OK {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.Data != "plain text, not json" {
		t.Fatalf("expected raw text data, got %#v", res.Data)
	}
}

func TestSendExtractsErrorMessageByPriority(t *testing.T) {
	cases := []struct {
		body string
		want string
	}{
		{`{"detail":"D","message":"M","error":"E"}`, "D"},
		{`{"message":"M","error":"E"}`, "M"},
		{`{"error":"E"}`, "E"},
		{`not json at all`, "Request failed with status 500"},
		{``, "Request failed with status 500"},
	}
	for _, tc := range cases {
		body := tc.body
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(body))
		}))
		res := New().Send(context.Background(), server.URL, Options{})
		server.Close()
		if res.OK {
			t.Fatalf("expected failure for body %q", tc.body)
		}
		if res.Status != http.StatusInternalServerError {
			t.Fatalf("unexpected status %d for body %q", res.Status, tc.body)
		}
		if res.Error != tc.want {
			t.Fatalf("body %q: expected error %q, got %q", tc.body, tc.want, res.Error)
		}
	}
}

func TestSendMergesHeadersCallerWins(t *testing.T) {
	var contentType, custom string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		custom = r.Header.Get("X-Request-Source")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	res := New().Send(context.Background(), server.URL, Options{
		Method: http.MethodPost,
		Body:   map[string]string{"k": "v"},
		Headers: map[string]string{
			"Content-Type":     "text/plain",
			"X-Request-Source": "test",
		},
	})
	if !res.OK {
		t.Fatalf("unexpected failure: %+v", res)
	}
	if contentType != "text/plain" {
		t.Fatalf("caller header should win, got %q", contentType)
	}
	if custom != "test" {
		t.Fatalf("custom header missing, got %q", custom)
	}

	res = New().Send(context.Background(), server.URL, Options{Method: http.MethodPost, Body: "{}"})
	if !res.OK {
		t.Fatalf("unexpected failure: %+v", res)
	}
	if contentType != "application/json" {
		t.Fatalf("expected default content type, got %q", contentType)
	}
}

func TestSendSerializesBodyByType(t *testing.T) {
	var received []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	tr := New()
	res := tr.Send(context.Background(), server.URL, Options{Method: http.MethodPost, Body: `verbatim {not json`})
	if !res.OK {
		t.Fatalf("unexpected failure: %+v", res)
	}
	if string(received) != `verbatim {not json` {
		t.Fatalf("string body should pass through, got %q", received)
	}

	res = tr.Send(context.Background(), server.URL, Options{Method: http.MethodPost, Body: map[string]int{"n": 1}})
	if !res.OK {
		t.Fatalf("unexpected failure: %+v", res)
	}
	if string(received) != `{"n":1}` {
		t.Fatalf("expected marshaled body, got %q", received)
	}
}

func TestDecodeUsesRawBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"n1","title":"hello"}`))
	}))
	defer server.Close()

	res := New().Send(context.Background(), server.URL, Options{})
	if !res.OK {
		t.Fatalf("unexpected failure: %+v", res)
	}
	var out struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}
	if err := res.Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.ID != "n1" || out.Title != "hello" {
		t.Fatalf("unexpected decode result: %+v", out)
	}
}

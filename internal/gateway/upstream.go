package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Upstream is where the gateway fetches assets that are not cached.
type Upstream interface {
	Fetch(ctx context.Context, path string) (*Entry, error)
}

// HTTPUpstream fetches assets from a base URL over the network.
type HTTPUpstream struct {
	base   *url.URL
	client *http.Client
}

func NewHTTPUpstream(base string) (*HTTPUpstream, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse upstream url: %w", err)
	}
	return &HTTPUpstream{
		base: u,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}, nil
}

func (u *HTTPUpstream) Fetch(ctx context.Context, path string) (*Entry, error) {
	target := u.base.ResolveReference(&url.URL{Path: path})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &Entry{
		Path:        path,
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// HandlerUpstream serves assets from an in-process http.Handler, used when
// the UI ships embedded in the binary.
type HandlerUpstream struct {
	handler http.Handler
}

func NewHandlerUpstream(h http.Handler) *HandlerUpstream {
	return &HandlerUpstream{handler: h}
}

func (u *HandlerUpstream) Fetch(ctx context.Context, path string) (*Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	rec := &responseRecorder{status: http.StatusOK, header: make(http.Header)}
	u.handler.ServeHTTP(rec, req)

	return &Entry{
		Path:        path,
		Status:      rec.status,
		ContentType: rec.header.Get("Content-Type"),
		Body:        rec.body.Bytes(),
	}, nil
}

type responseRecorder struct {
	status int
	header http.Header
	body   bytes.Buffer
}

func (r *responseRecorder) Header() http.Header { return r.header }

func (r *responseRecorder) WriteHeader(status int) { r.status = status }

func (r *responseRecorder) Write(p []byte) (int, error) { return r.body.Write(p) }

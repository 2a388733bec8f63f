package endpoints

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	listBodyLimit   = 4 * 1024 * 1024
	objectBodyLimit = 512 * 1024
)

type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	Doer         Doer
	BaseURL      string
	ApplyHeaders func(*http.Request)
}

func New(doer Doer, baseURL string, applyHeaders func(*http.Request)) *Client {
	return &Client{
		Doer:         doer,
		BaseURL:      strings.TrimRight(baseURL, "/"),
		ApplyHeaders: applyHeaders,
	}
}

// URL resolves path and params against the client's base.
func (c *Client) URL(path string, params Params) (string, error) {
	if c.BaseURL == "" {
		return "", fmt.Errorf("BaseURL is empty")
	}
	return BuildURL(c.BaseURL, path, params)
}

func (c *Client) newReq(ctx context.Context, method, path string, params Params) (*http.Request, error) {
	u, err := c.URL(path, params)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return nil, err
	}
	if c.ApplyHeaders != nil {
		c.ApplyHeaders(req)
	}
	return req, nil
}

// get performs a GET and returns the body of a 2xx response. Other
// statuses become *APIError.
func (c *Client) get(ctx context.Context, path string, params Params, limit int64) ([]byte, error) {
	req, err := c.newReq(ctx, http.MethodGet, path, params)
	if err != nil {
		return nil, err
	}

	resp, err := c.Doer.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, ParseAPIError(resp.StatusCode, []byte(strings.TrimSpace(string(b[:min(len(b), 4096)]))))
	}
	return b, nil
}

// Head sends a HEAD request and reports the status code. Non-2xx is an
// *APIError.
func (c *Client) Head(ctx context.Context, path string) (int, error) {
	req, err := c.newReq(ctx, http.MethodHead, path, nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.Doer.Do(req)
	if err != nil {
		return 0, err
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4*1024))
	_ = resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}
	return resp.StatusCode, nil
}

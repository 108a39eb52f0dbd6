package gql

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
)

// HeaderProvider injects per-request headers, typically the session
// token once the user has logged in.
type HeaderProvider func() map[string]string

// Client executes queries and mutations against the platform's
// /query endpoint.
type Client struct {
	endpoint string
	http     *fasthttp.Client
	headers  HeaderProvider

	defaultTimeout time.Duration
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultTimeout = d }
}

func WithHeaderProvider(h HeaderProvider) Option {
	return func(c *Client) { c.headers = h }
}

func WithMaxConnsPerHost(n int) Option {
	return func(c *Client) { c.http.MaxConnsPerHost = n }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		endpoint:       strings.TrimRight(baseURL, "/") + "/query",
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 16},
		defaultTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Query(ctx context.Context, document string, variables map[string]any, out any) error {
	return c.do(ctx, document, variables, out)
}

func (c *Client) Mutate(ctx context.Context, document string, variables map[string]any, out any) error {
	return c.do(ctx, document, variables, out)
}

func (c *Client) do(ctx context.Context, document string, variables map[string]any, out any) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(fasthttp.MethodPost)
	req.SetRequestURI(c.endpoint)
	req.Header.SetContentType("application/json")
	if c.headers != nil {
		for k, v := range c.headers() {
			if strings.TrimSpace(k) != "" && strings.TrimSpace(v) != "" {
				req.Header.Set(k, v)
			}
		}
	}

	body, err := json.Marshal(Request{Query: document, Variables: variables})
	if err != nil {
		return &RequestError{Err: fmt.Errorf("marshal request: %w", err)}
	}
	req.SetBody(body)

	if err := c.http.DoDeadline(req, resp, c.deadline(ctx)); err != nil {
		return &RequestError{Err: err}
	}

	status := resp.StatusCode()
	if status < 200 || status >= 300 {
		return &RequestError{Status: status, Err: fmt.Errorf("body=%s", truncate(string(resp.Body()), 512))}
	}

	var result Response
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return &RequestError{Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(result.Errors) > 0 {
		return &GraphQLError{Errors: result.Errors}
	}
	return decodeData(result.Data, out)
}

func (c *Client) deadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(c.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

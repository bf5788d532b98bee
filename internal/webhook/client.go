package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/Serdar715/shadowx/internal/config"
)

// Client polls a webhook service's interaction log.
type Client struct {
	client  *fasthttp.Client
	apiURL  string
	timeout time.Duration
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithDial overrides the network dialer, used by tests.
func WithDial(dial func(addr string) (net.Conn, error)) ClientOption {
	return func(c *Client) { c.client.Dial = dial }
}

// NewClient creates a poll client for the service behind webhookURL.
func NewClient(webhookURL string, timeout time.Duration, opts ...ClientOption) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		client: &fasthttp.Client{
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		},
		apiURL:  InteractionsURL(webhookURL),
		timeout: timeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// InteractionsURL derives the query endpoint from a callback address:
// /webhook/ becomes /api/interactions/, otherwise the path is appended.
func InteractionsURL(webhookURL string) string {
	if strings.Contains(webhookURL, CallbackPrefix+"/") {
		return strings.Replace(webhookURL, CallbackPrefix+"/", InteractionsPath, 1)
	}
	if strings.HasSuffix(webhookURL, CallbackPrefix) {
		return strings.TrimSuffix(webhookURL, CallbackPrefix) + InteractionsPath
	}
	return strings.TrimRight(webhookURL, "/") + InteractionsPath
}

// APIURL returns the endpoint the client polls.
func (c *Client) APIURL() string {
	return c.apiURL
}

// Interactions fetches the full interaction log.
func (c *Client) Interactions(ctx context.Context) ([]config.Interaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.apiURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")

	if err := c.client.DoTimeout(req, resp, timeout); err != nil {
		return nil, fmt.Errorf("poll %s: %w", c.apiURL, err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("poll %s: status %d", c.apiURL, resp.StatusCode())
	}

	var list []config.Interaction
	if err := json.Unmarshal(resp.Body(), &list); err != nil {
		return nil, fmt.Errorf("decode interactions: %w", err)
	}
	return list, nil
}

// Package probe implements the lightweight HTTP GET capability used by the
// injection-point enumerator, with rate limiting and retry.
package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/valyala/fasthttp"
	"golang.org/x/time/rate"
)

// ErrRetriesExhausted is returned when every attempt hit a retryable status.
var ErrRetriesExhausted = errors.New("probe retries exhausted")

const (
	defaultRetries   = 3
	defaultBackoff   = time.Second
	maxRedirects     = 5
	defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
)

// retryStatus lists responses worth another attempt
var retryStatus = map[int]bool{
	fasthttp.StatusTooManyRequests:     true,
	fasthttp.StatusInternalServerError: true,
	fasthttp.StatusBadGateway:          true,
	fasthttp.StatusServiceUnavailable:  true,
	fasthttp.StatusGatewayTimeout:      true,
}

// Options configures a Client.
type Options struct {
	Timeout   time.Duration
	RateLimit int // requests per second, 0 = unlimited
	Retries   int
	Backoff   time.Duration // first retry delay, doubled per attempt
	UserAgent string

	// Dial overrides the network dialer, used by tests.
	Dial func(addr string) (net.Conn, error)
}

// Response is a completed probe.
type Response struct {
	StatusCode int
	Body       []byte
	FinalURL   string
}

// Client is a wrapper around fasthttp.Client
type Client struct {
	client  *fasthttp.Client
	limiter *rate.Limiter
	retries int
	backoff time.Duration
	ua      string
}

// New creates a probe client.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	} else if opts.Retries == 0 {
		opts.Retries = defaultRetries
	}
	if opts.Backoff <= 0 {
		opts.Backoff = defaultBackoff
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}

	c := &Client{
		client: &fasthttp.Client{
			ReadTimeout:              opts.Timeout,
			WriteTimeout:             opts.Timeout,
			NoDefaultUserAgentHeader: true,
			MaxResponseBodySize:      10 * 1024 * 1024,
			Dial:                     opts.Dial,
		},
		retries: opts.Retries,
		backoff: opts.Backoff,
		ua:      opts.UserAgent,
	}
	if opts.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	return c
}

// Get fetches url, following redirects, and retries transport errors and
// retryable statuses with exponential backoff.
func (c *Client) Get(ctx context.Context, url string, timeout time.Duration) (*Response, error) {
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			wait := c.backoff * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limiter cancelled: %w", err)
			}
		}

		resp, err := c.do(ctx, url, timeout)
		if err != nil {
			lastErr = err
			continue
		}
		if retryStatus[resp.StatusCode] {
			lastErr = fmt.Errorf("%w: status %d", ErrRetriesExhausted, resp.StatusCode)
			continue
		}
		return resp, nil
	}
	return nil, fmt.Errorf("GET %s failed after %d attempts: %w", url, c.retries+1, lastErr)
}

func (c *Client) do(ctx context.Context, url string, timeout time.Duration) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout || timeout <= 0 {
			timeout = left
		}
	}
	if timeout <= 0 {
		return nil, context.DeadlineExceeded
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.SetUserAgent(c.ua)

	for i := 0; ; i++ {
		if err := c.client.DoTimeout(req, resp, timeout); err != nil {
			return nil, err
		}
		if !fasthttp.StatusCodeIsRedirect(resp.StatusCode()) || i == maxRedirects {
			break
		}
		location := resp.Header.Peek(fasthttp.HeaderLocation)
		if len(location) == 0 {
			break
		}
		req.URI().UpdateBytes(location)
		resp.Reset()
	}

	// Copy body because ReleaseResponse recycles it
	body := make([]byte, len(resp.Body()))
	copy(body, resp.Body())

	return &Response{
		StatusCode: resp.StatusCode(),
		Body:       body,
		FinalURL:   req.URI().String(),
	}, nil
}

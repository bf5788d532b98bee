package probe

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

func serve(t *testing.T, h fasthttp.RequestHandler) *Client {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: h}
	go srv.Serve(ln) //nolint:errcheck
	t.Cleanup(func() { ln.Close() })

	return New(Options{
		Timeout: 2 * time.Second,
		Backoff: time.Millisecond,
		Dial:    func(addr string) (net.Conn, error) { return ln.Dial() },
	})
}

func TestGetReturnsBody(t *testing.T) {
	c := serve(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetContentType("text/html")
		ctx.SetBodyString(`<form action="/s"><input name="q"></form>`)
	})

	resp, err := c.Get(context.Background(), "http://target.test/", time.Second)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.StatusCode != fasthttp.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if string(resp.Body) != `<form action="/s"><input name="q"></form>` {
		t.Errorf("body = %q", resp.Body)
	}
}

func TestGetRetriesRetryableStatus(t *testing.T) {
	var calls int32
	c := serve(t, func(ctx *fasthttp.RequestCtx) {
		if atomic.AddInt32(&calls, 1) < 3 {
			ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
			return
		}
		ctx.SetBodyString("ok")
	})

	resp, err := c.Get(context.Background(), "http://target.test/", time.Second)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(resp.Body) != "ok" {
		t.Errorf("body = %q", resp.Body)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("server saw %d calls, want 3", got)
	}
}

func TestGetExhaustsRetries(t *testing.T) {
	var calls int32
	c := serve(t, func(ctx *fasthttp.RequestCtx) {
		atomic.AddInt32(&calls, 1)
		ctx.SetStatusCode(fasthttp.StatusTooManyRequests)
	})

	_, err := c.Get(context.Background(), "http://target.test/", time.Second)
	if !errors.Is(err, ErrRetriesExhausted) {
		t.Fatalf("err = %v, want ErrRetriesExhausted", err)
	}
	if got := atomic.LoadInt32(&calls); got != defaultRetries+1 {
		t.Errorf("server saw %d calls, want %d", got, defaultRetries+1)
	}
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	c := serve(t, func(ctx *fasthttp.RequestCtx) {
		atomic.AddInt32(&calls, 1)
		ctx.SetStatusCode(fasthttp.StatusNotFound)
	})

	resp, err := c.Get(context.Background(), "http://target.test/missing", time.Second)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.StatusCode != fasthttp.StatusNotFound || atomic.LoadInt32(&calls) != 1 {
		t.Errorf("status=%d calls=%d", resp.StatusCode, calls)
	}
}

func TestGetFollowsRedirect(t *testing.T) {
	c := serve(t, func(ctx *fasthttp.RequestCtx) {
		if string(ctx.Path()) == "/old" {
			ctx.Redirect("/new", fasthttp.StatusFound)
			return
		}
		ctx.SetBodyString("moved here")
	})

	resp, err := c.Get(context.Background(), "http://target.test/old", time.Second)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(resp.Body) != "moved here" {
		t.Errorf("body = %q", resp.Body)
	}
}

func TestGetHonorsCancelledContext(t *testing.T) {
	c := serve(t, func(ctx *fasthttp.RequestCtx) {})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Get(ctx, "http://target.test/", time.Second); err == nil {
		t.Error("expected error for cancelled context")
	}
}

package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/Serdar715/shadowx/internal/config"
)

// Paths served by the receiver
const (
	CallbackPrefix   = "/webhook"
	InteractionsPath = "/api/interactions/"
)

const maxBodySize = 1 << 20

var successBody = []byte(`{"status":"success"}`)

// Server is the local webhook receiver. Every request outside the
// interactions API is recorded as a callback.
type Server struct {
	addr string
	rec  *Recorder
	srv  *fasthttp.Server
	ln   net.Listener
	now  func() time.Time
}

// NewServer creates a receiver listening on addr (for example ":8080") and
// recording into rec.
func NewServer(addr string, rec *Recorder) *Server {
	if rec == nil {
		rec = NewRecorder()
	}
	s := &Server{addr: addr, rec: rec, now: time.Now}
	s.srv = &fasthttp.Server{
		Handler:            s.handle,
		Name:               "shadowx-webhook",
		MaxRequestBodySize: maxBodySize,
		ReadTimeout:        10 * time.Second,
		WriteTimeout:       10 * time.Second,
	}
	return s
}

// Recorder returns the interaction log the server writes to.
func (s *Server) Recorder() *Recorder {
	return s.rec
}

// Start binds the listen address and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("webhook listen on %s: %w", s.addr, err)
	}
	return s.Serve(ln)
}

// Serve serves on an existing listener in the background.
func (s *Server) Serve(ln net.Listener) error {
	if s.ln != nil {
		return errors.New("webhook server already started")
	}
	s.ln = ln
	go s.srv.Serve(ln) //nolint:errcheck
	return nil
}

// Shutdown stops accepting callbacks and waits for open requests, bounded
// by ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.ln == nil {
		return nil
	}
	return s.srv.ShutdownWithContext(ctx)
}

// URL returns the callback base address payloads should point at.
func (s *Server) URL() string {
	host := s.addr
	if s.ln != nil {
		host = s.ln.Addr().String()
	}
	h, port, err := net.SplitHostPort(host)
	if err == nil && (h == "" || h == "0.0.0.0" || h == "::") {
		host = net.JoinHostPort("127.0.0.1", port)
	}
	return "http://" + host + CallbackPrefix
}

func (s *Server) handle(ctx *fasthttp.RequestCtx) {
	path := string(ctx.Path())

	if path == InteractionsPath || path+"/" == InteractionsPath {
		s.serveInteractions(ctx)
		return
	}

	s.rec.Record(s.interaction(ctx, path))
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetBody(successBody)
}

func (s *Server) serveInteractions(ctx *fasthttp.RequestCtx) {
	list, err := s.rec.Interactions(context.Background())
	if err != nil {
		ctx.Error(err.Error(), fasthttp.StatusInternalServerError)
		return
	}
	body, err := json.Marshal(list)
	if err != nil {
		ctx.Error(err.Error(), fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}

func (s *Server) interaction(ctx *fasthttp.RequestCtx, path string) config.Interaction {
	headers := make(map[string]string)
	ctx.Request.Header.VisitAll(func(k, v []byte) {
		headers[string(k)] = string(v)
	})

	in := config.Interaction{
		UniqueID:   UniqueID(path, string(ctx.Host())),
		Method:     string(ctx.Method()),
		Path:       strings.TrimPrefix(path, "/"),
		Headers:    headers,
		RemoteAddr: ctx.RemoteIP().String(),
		UserAgent:  string(ctx.UserAgent()),
		Timestamp:  float64(s.now().UnixNano()) / float64(time.Second),
	}
	if body := ctx.PostBody(); len(body) > 0 {
		in.Data = string(body)
	}
	return in
}

// UniqueID extracts the payload id from a callback. Callbacks have the form
// /<category>/<id>; a single-segment path like /dns carries the id in the
// first host label instead.
func UniqueID(path, host string) string {
	parts := strings.FieldsFunc(path, func(r rune) bool { return r == '/' })
	if len(parts) >= 2 {
		return parts[len(parts)-1]
	}

	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if host != "" && net.ParseIP(host) == nil {
		if i := strings.IndexByte(host, '.'); i > 0 {
			return host[:i]
		}
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "unknown"
}

// Command testserver runs a deliberately vulnerable site for manual
// end-to-end scans. Never expose it beyond localhost.
package main

import (
	"flag"
	"fmt"
	"html"
	"log"
	"strings"
	"sync"

	"github.com/valyala/fasthttp"
)

type guestbook struct {
	mu      sync.Mutex
	entries []string
}

func (g *guestbook) add(s string) {
	g.mu.Lock()
	g.entries = append(g.entries, s)
	g.mu.Unlock()
}

func (g *guestbook) render() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	var b strings.Builder
	for _, e := range g.entries {
		// Stored, unescaped
		fmt.Fprintf(&b, "<li>%s</li>", e)
	}
	return b.String()
}

func main() {
	addr := flag.String("addr", "127.0.0.1:8081", "listen address")
	flag.Parse()

	book := &guestbook{}

	handler := func(ctx *fasthttp.RequestCtx) {
		ctx.SetContentType("text/html; charset=utf-8")
		q := string(ctx.QueryArgs().Peek("q"))

		switch string(ctx.Path()) {
		case "/":
			fmt.Fprint(ctx, `<html><body><h1>ShadowX test target</h1><ul>
<li><a href="/search?q=test">/search</a> body reflection</li>
<li><a href="/script?q=test">/script</a> script string reflection</li>
<li><a href="/attr?q=test">/attr</a> attribute reflection</li>
<li><a href="/escaped?q=test">/escaped</a> escaped reflection (not vulnerable)</li>
<li><a href="/hash">/hash</a> fragment sink</li>
<li><a href="/guestbook">/guestbook</a> stored form</li>
</ul></body></html>`)
		case "/search":
			fmt.Fprintf(ctx, "<html><body><h1>Search Results</h1><p>You searched for: %s</p></body></html>", q)
		case "/script":
			fmt.Fprintf(ctx, `<html><body><script>var term = "%s"; console.log(term);</script></body></html>`, q)
		case "/attr":
			fmt.Fprintf(ctx, `<html><body><input type="text" value="%s"></body></html>`, q)
		case "/escaped":
			fmt.Fprintf(ctx, "<html><body><p>%s</p></body></html>", html.EscapeString(q))
		case "/hash":
			fmt.Fprint(ctx, `<html><body><div id="out"></div>
<script>document.getElementById("out").innerHTML = decodeURIComponent(location.hash.slice(1));</script>
</body></html>`)
		case "/guestbook":
			if ctx.IsPost() {
				if msg := string(ctx.PostArgs().Peek("message")); msg != "" {
					book.add(msg)
				}
				ctx.Redirect("/guestbook", fasthttp.StatusSeeOther)
				return
			}
			fmt.Fprintf(ctx, `<html><body><h1>Guestbook</h1>
<form method="POST" action="/guestbook"><input type="text" name="message"><input type="submit" value="Sign"></form>
<ul>%s</ul></body></html>`, book.render())
		default:
			ctx.Error("not found", fasthttp.StatusNotFound)
		}
	}

	log.Printf("Vulnerable server running on http://%s", *addr)
	if err := fasthttp.ListenAndServe(*addr, handler); err != nil {
		log.Fatal(err)
	}
}

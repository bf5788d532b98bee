package scanner

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Serdar715/shadowx/internal/config"
)

// fallbackPoints is used when the target cannot be parsed or probed
var fallbackPoints = []config.InjectionPoint{
	{Kind: config.PointQueryParam, Param: "q"},
	{Kind: config.PointFragment},
	{Kind: config.PointFormField},
}

// Enumerator lists the injection points of a target.
type Enumerator struct {
	prober  Prober
	timeout time.Duration
}

// NewEnumerator creates an enumerator that probes targets with p.
func NewEnumerator(p Prober, timeout time.Duration) *Enumerator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Enumerator{prober: p, timeout: timeout}
}

// Enumerate returns the query parameters in appearance order, then the
// fragment and path points, then one form_field point if the probed page
// has a form. A parse or probe failure yields the fixed fallback set.
func (e *Enumerator) Enumerate(ctx context.Context, target string) []config.InjectionPoint {
	points, err := e.enumerate(ctx, target)
	if err != nil {
		out := make([]config.InjectionPoint, len(fallbackPoints))
		copy(out, fallbackPoints)
		return out
	}
	return points
}

func (e *Enumerator) enumerate(ctx context.Context, target string) ([]config.InjectionPoint, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransientProbe, err)
	}

	var points []config.InjectionPoint
	for _, name := range queryParamNames(u.RawQuery) {
		points = append(points, config.InjectionPoint{Kind: config.PointQueryParam, Param: name})
	}
	points = append(points,
		config.InjectionPoint{Kind: config.PointFragment},
		config.InjectionPoint{Kind: config.PointPath},
	)

	if e.prober == nil {
		return nil, fmt.Errorf("%w: no prober", ErrTransientProbe)
	}
	resp, err := e.prober.Get(ctx, target, e.timeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransientProbe, err)
	}

	if hasForm(resp.Body) {
		points = append(points, config.InjectionPoint{Kind: config.PointFormField})
	}
	return points, nil
}

// queryParamNames returns the distinct parameter names of a raw query in
// the order they first appear. url.Values loses that order.
func queryParamNames(rawQuery string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, pair := range strings.FieldsFunc(rawQuery, isQuerySep) {
		key := pair
		if i := strings.IndexByte(pair, '='); i >= 0 {
			key = pair[:i]
		}
		if unescaped, err := url.QueryUnescape(key); err == nil {
			key = unescaped
		}
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, key)
	}
	return names
}

// isQuerySep matches the pair separators accepted in a raw query.
func isQuerySep(r rune) bool {
	return r == '&' || r == ';'
}

// hasForm reports whether an HTML body contains a <form> element
func hasForm(body []byte) bool {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return false
	}
	return doc.Find("form").Length() > 0
}

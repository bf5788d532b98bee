package scanner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dop251/goja/parser"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/Serdar715/shadowx/internal/browser"
	"github.com/Serdar715/shadowx/internal/config"
)

// Evidence descriptions
const (
	evAlertMarker    = "Alert executed with marker"
	evAlertGeneric   = "Alert executed (generic)"
	evGlobalVariable = "Global variable found"
	evDOMModified    = "DOM modification detected"
	evScriptTag      = "Script tag injection detected"
	evEventHandler   = "Event handler injection detected"
	evHrefAttribute  = "Href attribute injection detected"
)

// domProbeJS looks for window[marker] first, then for any element whose
// markup carries the marker. %q keeps the marker a valid JS string literal.
const domProbeJS = `() => {
	const m = %q;
	if (window[m]) return %q;
	const els = document.querySelectorAll('*');
	for (let i = 0; i < els.length; i++) {
		if (els[i].innerHTML && els[i].innerHTML.includes(m)) return %q;
	}
	return null;
}`

// EvidenceCollector gathers the reflection, DOM mutation and script
// execution signals for one injected marker.
type EvidenceCollector struct {
	domSettle time.Duration
}

// NewEvidenceCollector creates a collector that waits domSettle before
// re-reading the document for mutations.
func NewEvidenceCollector(domSettle time.Duration) *EvidenceCollector {
	if domSettle < 0 {
		domSettle = 0
	}
	return &EvidenceCollector{domSettle: domSettle}
}

// Collect returns the evidence for marker. Script execution is checked
// first so a pending dialog is dismissed before any further driver call.
// A fault inside one signal only makes that signal negative.
func (c *EvidenceCollector) Collect(ctx context.Context, b browser.Browser, marker, prior string) config.Evidence {
	var ev config.Evidence

	ev.JavaScriptExecuted, ev.JavaScriptDescription = c.scriptExecution(ctx, b, marker)

	if err := sleepCtx(ctx, c.domSettle); err != nil {
		return ev
	}

	doc, err := b.Document(ctx)
	if err != nil {
		return ev
	}
	ev.Reflected = strings.Contains(doc, marker)
	if ev.Reflected {
		ev.DOMModified, ev.DOMDescription = domMutation(doc, prior, marker)
	}
	return ev
}

// scriptExecution checks, in order: a pending dialog, console entries
// carrying the marker, and an in-page probe for the marker.
func (c *EvidenceCollector) scriptExecution(ctx context.Context, b browser.Browser, marker string) (bool, string) {
	if text, ok := b.PendingDialog(); ok {
		_ = b.DismissDialog(ctx)
		if strings.Contains(text, marker) {
			return true, evAlertMarker + ": " + truncateString(text, DialogSnippetLimit)
		}
		return true, evAlertGeneric + ": " + truncateString(text, DialogSnippetLimit)
	}

	for _, entry := range b.ConsoleLog() {
		if !strings.Contains(entry.Message, marker) {
			continue
		}
		if entry.IsError() {
			return true, "JavaScript error: " + entry.Message
		}
		return true, "Console log: " + entry.Message
	}

	res, err := b.Evaluate(ctx, fmt.Sprintf(domProbeJS, marker, evGlobalVariable, evDOMModified))
	if err != nil {
		// The marker broke out of the probe expression itself
		if strings.Contains(err.Error(), marker) {
			return true, "JavaScript execution detected: " + err.Error()
		}
		return false, ""
	}
	if s, ok := res.(string); ok && s != "" {
		return true, s
	}
	return false, ""
}

// domMutation reports whether marker sits in a structurally dangerous
// position of doc: script text, an onclick/onload handler or an href.
func domMutation(doc, prior, marker string) (bool, string) {
	d, err := goquery.NewDocumentFromReader(strings.NewReader(doc))
	if err != nil {
		return false, ""
	}

	desc := ""
	var script string
	d.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if text := s.Text(); strings.Contains(text, marker) {
			desc, script = evScriptTag, text
			return false
		}
		return true
	})
	if desc == "" && (attrContains(d, "onclick", marker) || attrContains(d, "onload", marker)) {
		desc = evEventHandler
	}
	if desc == "" && attrContains(d, "href", marker) {
		desc = evHrefAttribute
	}
	if desc == "" {
		return false, ""
	}

	if snippet := insertedSnippet(prior, doc, marker); snippet != "" {
		desc += fmt.Sprintf(" (inserted: %q)", snippet)
	}
	if script != "" {
		if _, err := parser.ParseFile(nil, "", script, 0); err != nil {
			desc += "; script no longer parses"
		}
	}
	return true, desc
}

func attrContains(d *goquery.Document, attr, marker string) bool {
	found := false
	d.Find("[" + attr + "]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if v, _ := s.Attr(attr); strings.Contains(v, marker) {
			found = true
			return false
		}
		return true
	})
	return found
}

// insertedSnippet returns the inserted diff fragment of after against
// before that carries the marker, truncated for display.
func insertedSnippet(before, after, marker string) string {
	if before == "" {
		return ""
	}
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = DiffTimeout
	for _, d := range dmp.DiffMain(before, after, false) {
		if d.Type == diffmatchpatch.DiffInsert && strings.Contains(d.Text, marker) {
			return truncateString(strings.TrimSpace(d.Text), DiffSnippetLimit)
		}
	}
	return ""
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

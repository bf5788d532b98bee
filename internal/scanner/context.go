package scanner

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/Serdar715/shadowx/internal/config"
	"github.com/Serdar715/shadowx/internal/payloads"
)

// contextRule is the fixed data attached to one landing context. The
// patterns contain a {marker} slot filled with the quoted marker.
type contextRule struct {
	kind            config.ContextKind
	patterns        []string
	description     string
	recommendations []string
}

// contextRules are tried in order; the first group with a match wins.
var contextRules = []contextRule{
	{
		kind: config.ContextScriptTag,
		patterns: []string{
			`<script[^>]*>.*?{marker}.*?</script>`,
			`<script[^>]*>{marker}`,
			`{marker}.*?</script>`,
		},
		description: "Injection point is inside a script tag",
		recommendations: []string{
			"Break out of current JavaScript context with quotes and semicolons",
			"Use comment syntax to neutralize following code",
			"Try function calls like alert(), prompt(), confirm()",
			"Consider using template literals with backticks",
		},
	},
	{
		kind: config.ContextScriptAttribute,
		patterns: []string{
			`<[^>]+\s+on\w+\s*=\s*["'][^"']*{marker}[^"']*["']`,
			`<[^>]+\s+href\s*=\s*["']javascript:[^"']*{marker}[^"']*["']`,
		},
		description: "Injection point is inside a JavaScript event handler",
		recommendations: []string{
			"Ensure proper JavaScript syntax within event handler",
			"Use simple function calls like alert()",
			"Consider breaking out to inject new attributes",
			"Try JavaScript protocol (javascript:) if in href",
		},
	},
	{
		kind: config.ContextHTMLAttribute,
		patterns: []string{
			`<[^>]+\s+\w+\s*=\s*["'][^"']*{marker}[^"']*["']`,
			`<[^>]+\s+\w+\s*=\s*{marker}(?:\s|>)`,
		},
		description: "Injection point is inside an HTML attribute value",
		recommendations: []string{
			"Break out of attribute with quotes",
			"Inject new attributes like onmouseover, onclick",
			"Close current tag and inject new script tag",
			"Use HTML entities if needed for encoding",
		},
	},
	{
		kind: config.ContextHTMLBody,
		patterns: []string{
			`<(?:div|span|p|td|th|li|h[1-6])[^>]*>[^<]*{marker}[^<]*</(?:div|span|p|td|th|li|h[1-6])>`,
			`>[^<]*{marker}[^<]*<`,
		},
		description: "Injection point is in the HTML body content",
		recommendations: []string{
			"Inject script tags directly",
			"Use img tags with onerror events",
			"Try SVG tags with onload events",
			"Consider iframe with JavaScript source",
			"Use various HTML5 tags with event handlers",
		},
	},
	{
		kind:        config.ContextHTMLComment,
		patterns:    []string{`<!--[^>]*{marker}[^>]*-->`},
		description: "Injection point is inside an HTML comment",
		recommendations: []string{
			"Break out of comment with -->",
			"Inject script tag after comment closure",
			"Try malformed comment syntax",
		},
	},
	{
		kind:        config.ContextStyleTag,
		patterns:    []string{`<style[^>]*>.*?{marker}.*?</style>`},
		description: "Injection point is inside a style tag",
		recommendations: []string{
			"Break out of style tag with </style>",
			"Use CSS expressions (older browsers)",
			"Try @import with JavaScript URLs",
			"Use url() with JavaScript protocol",
		},
	},
	{
		kind:        config.ContextStyleAttribute,
		patterns:    []string{`<[^>]+\s+style\s*=\s*["'][^"']*{marker}[^"']*["']`},
		description: "Injection point is inside a style attribute",
		recommendations: []string{
			"Break out of style attribute with quotes",
			"Use CSS expressions",
			"Try JavaScript URLs in CSS",
			"Close attribute and inject new ones",
		},
	},
}

// ruleFor returns the rule of kind, if any
func ruleFor(kind config.ContextKind) (contextRule, bool) {
	for _, r := range contextRules {
		if r.kind == kind {
			return r, true
		}
	}
	return contextRule{}, false
}

// Recommendations returns the fixed advice list for a context.
func Recommendations(kind config.ContextKind) []string {
	if r, ok := ruleFor(kind); ok {
		out := make([]string, len(r.recommendations))
		copy(out, r.recommendations)
		return out
	}
	return []string{"Try basic XSS payloads"}
}

// ContextPayloads returns retry templates suited to a landing context.
func ContextPayloads(kind config.ContextKind) []string {
	return payloads.ForContext(kind)
}

// ContextClassifier determines where a marker landed in a document.
type ContextClassifier struct{}

// NewContextClassifier creates a classifier.
func NewContextClassifier() *ContextClassifier {
	return &ContextClassifier{}
}

type compiledRule struct {
	rule contextRule
	res  []*regexp.Regexp
}

func compileRules(marker string) []compiledRule {
	quoted := regexp.QuoteMeta(marker)
	out := make([]compiledRule, 0, len(contextRules))
	for _, rule := range contextRules {
		cr := compiledRule{rule: rule}
		for _, p := range rule.patterns {
			expr := "(?is)" + strings.ReplaceAll(p, "{marker}", quoted)
			cr.res = append(cr.res, regexp.MustCompile(expr))
		}
		out = append(out, cr)
	}
	return out
}

// Classify returns the context of marker in document. Script contexts win
// over every other occurrence; otherwise the first occurrence decides.
func (c *ContextClassifier) Classify(document, marker string) config.ContextClassification {
	if marker == "" || !strings.Contains(document, marker) {
		return config.ContextClassification{
			Kind:            config.ContextUnknown,
			Description:     "Marker not found in response",
			Recommendations: []string{},
		}
	}

	document = percentDecode(document)

	rules := compileRules(marker)

	var first *config.ContextClassification
	for _, pos := range occurrences(document, marker) {
		cls := c.classifyAt(document, marker, pos, rules)
		if cls.Kind.IsScript() {
			return cls
		}
		if first == nil {
			first = &cls
		}
	}
	if first != nil {
		return *first
	}

	return config.ContextClassification{
		Kind:            config.ContextUnknown,
		Description:     "Could not determine injection context",
		Recommendations: []string{},
	}
}

// occurrences returns every byte offset of marker, overlapping included
func occurrences(document, marker string) []int {
	var out []int
	for start := 0; start < len(document); {
		i := strings.Index(document[start:], marker)
		if i < 0 {
			break
		}
		out = append(out, start+i)
		start += i + 1
	}
	return out
}

// window returns s[pos-radius : pos+length+radius], clamped
func window(s string, pos, length, radius int) string {
	start := pos - radius
	if start < 0 {
		start = 0
	}
	end := pos + length + radius
	if end > len(s) {
		end = len(s)
	}
	return s[start:end]
}

func (c *ContextClassifier) classifyAt(document, marker string, pos int, rules []compiledRule) config.ContextClassification {
	surrounding := window(document, pos, len(marker), ClassifyWindowRadius)

	for _, cr := range rules {
		for _, re := range cr.res {
			if re.MatchString(surrounding) {
				return config.ContextClassification{
					Kind:            cr.rule.kind,
					Description:     cr.rule.description,
					Recommendations: Recommendations(cr.rule.kind),
					Surrounding:     window(document, pos, len(marker), SurroundingRadius),
				}
			}
		}
	}

	if cls, ok := structuralContext(document, marker); ok {
		return cls
	}

	return config.ContextClassification{
		Kind:            config.ContextHTMLBody,
		Description:     "Likely in HTML body context",
		Recommendations: Recommendations(config.ContextHTMLBody),
		Surrounding:     window(document, pos, len(marker), FallbackWindowRadius),
	}
}

// structuralContext parses the document and maps the element enclosing the
// first text node that carries the marker.
func structuralContext(document, marker string) (config.ContextClassification, bool) {
	root, err := html.Parse(strings.NewReader(document))
	if err != nil {
		return config.ContextClassification{}, false
	}

	parent := findMarkerParent(root, marker)
	if parent == nil {
		return config.ContextClassification{}, false
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, parent); err != nil {
		buf.Reset()
	}
	snippet := buf.String()
	if len(snippet) > StructuralSnippetLimit {
		snippet = snippet[:StructuralSnippetLimit]
	}

	tag := strings.ToLower(parent.Data)
	kind := config.ContextHTMLBody
	description := fmt.Sprintf("Inside %s tag", tag)
	switch tag {
	case "script":
		kind = config.ContextScriptTag
		description = "Inside script tag"
	case "style":
		kind = config.ContextStyleTag
		description = "Inside style tag"
	}

	return config.ContextClassification{
		Kind:            kind,
		Description:     description,
		Recommendations: Recommendations(kind),
		Surrounding:     snippet,
	}, true
}

func findMarkerParent(n *html.Node, marker string) *html.Node {
	if n.Type == html.TextNode && strings.Contains(n.Data, marker) && n.Parent != nil && n.Parent.Type == html.ElementNode {
		return n.Parent
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if p := findMarkerParent(child, marker); p != nil {
			return p
		}
	}
	return nil
}

// percentDecode decodes every valid %XX escape in s and leaves malformed
// ones as they are, so a stray '%' does not stop the rest from decoding.
func percentDecode(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]) {
			b.WriteByte(unhex(s[i+1])<<4 | unhex(s[i+2]))
			i += 2
			continue
		}
		b.WriteByte(s[i])
	}
	out := b.String()
	if !utf8.ValidString(out) {
		out = strings.ToValidUTF8(out, "\uFFFD")
	}
	return out
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
